package transcribe

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is used when none is configured.
const DefaultModel = "claude-sonnet-4-5"

// DefaultRetries matches the SDK's own default.
const DefaultRetries = 2

// ErrNoImage is returned when a request carries no rendered selection.
var ErrNoImage = errors.New("transcribe: request has no image")

// ClientOption configures an AnthropicClient.
type ClientOption func(*clientSettings)

type clientSettings struct {
	baseURL string
	timeout time.Duration
	retries int
}

// WithBaseURL points the client at another API host, such as a proxy.
func WithBaseURL(u string) ClientOption {
	return func(s *clientSettings) { s.baseURL = u }
}

// WithTimeout bounds each attempt. Zero leaves it to the caller's context.
func WithTimeout(d time.Duration) ClientOption {
	return func(s *clientSettings) { s.timeout = d }
}

// WithRetries sets how many extra attempts follow a rate limit or server
// error. Client errors are never retried.
func WithRetries(n int) ClientOption {
	return func(s *clientSettings) {
		if n >= 0 {
			s.retries = n
		}
	}
}

// AnthropicClient talks to the messages API.
type AnthropicClient struct {
	Model     string
	MaxTokens int64
	client    anthropic.Client
}

// NewAnthropicClient returns a client for apiKey. An empty model selects
// DefaultModel.
func NewAnthropicClient(apiKey, model string, opts ...ClientOption) *AnthropicClient {
	if model == "" {
		model = DefaultModel
	}
	s := clientSettings{retries: DefaultRetries}
	for _, o := range opts {
		o(&s)
	}
	sdkOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(s.retries),
	}
	if s.baseURL != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(s.baseURL))
	}
	if s.timeout > 0 {
		sdkOpts = append(sdkOpts, option.WithRequestTimeout(s.timeout))
	}
	return &AnthropicClient{
		Model:     model,
		MaxTokens: 1024,
		client:    anthropic.NewClient(sdkOpts...),
	}
}

// Transcribe sends the rendered selection with the conversation so far.
func (c *AnthropicClient) Transcribe(ctx context.Context, req Request) (*Result, error) {
	if len(req.Image) == 0 {
		return nil, ErrNoImage
	}
	msg, err := c.client.Messages.New(ctx, c.params(req))
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("transcribe: API error (%d): %w", apiErr.StatusCode, err)
		}
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	var text strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			text.WriteString(b.Text)
		}
	}
	res := parseReply(text.String())
	return &res, nil
}

func (c *AnthropicClient) params(req Request) anthropic.MessageNewParams {
	p := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.Model),
		MaxTokens: c.MaxTokens,
		System:    []anthropic.TextBlockParam{{Text: SystemPrompt}},
	}
	for _, t := range req.History {
		block := anthropic.NewTextBlock(t.Content)
		if t.Role == "assistant" {
			p.Messages = append(p.Messages, anthropic.NewAssistantMessage(block))
		} else {
			p.Messages = append(p.Messages, anthropic.NewUserMessage(block))
		}
	}
	prompt := req.Prompt
	if prompt == "" {
		prompt = "Please read what I wrote."
	}
	p.Messages = append(p.Messages, anthropic.NewUserMessage(
		anthropic.NewImageBlockBase64("image/png", base64.StdEncoding.EncodeToString(req.Image)),
		anthropic.NewTextBlock(prompt),
	))
	return p
}
