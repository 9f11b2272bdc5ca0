package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestParseReply(t *testing.T) {
	got := parseReply("TRANSCRIPTION: 2 + 2 = 5\nAre you sure about that sum?")
	if got.Text != "2 + 2 = 5" || got.Reply != "Are you sure about that sum?" {
		t.Errorf("got %+v", got)
	}
	got = parseReply("I cannot read this.")
	if got.Text != "" || got.Reply != "I cannot read this." {
		t.Errorf("got %+v", got)
	}
}

type sentBlock struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Source struct {
		Type      string `json:"type"`
		MediaType string `json:"media_type"`
		Data      string `json:"data"`
	} `json:"source"`
}

type sentRequest struct {
	Model  string `json:"model"`
	System []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string      `json:"role"`
		Content []sentBlock `json:"content"`
	} `json:"messages"`
}

const okReply = `{"id":"msg_1","type":"message","role":"assistant","model":"m","stop_reason":"end_turn",
"content":[{"type":"text","text":"TRANSCRIPTION: hello\nWhat comes next?"}],
"usage":{"input_tokens":1,"output_tokens":1}}`

func TestAnthropicClientTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "key" || r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing headers: %v", r.Header)
		}
		var req sentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		if req.Model != "test-model" || len(req.System) != 1 || req.System[0].Text != SystemPrompt {
			t.Errorf("unexpected model or system prompt: %+v", req)
		}
		if len(req.Messages) != 3 {
			t.Errorf("got %d messages, want 3", len(req.Messages))
			return
		}
		if req.Messages[1].Role != "assistant" || req.Messages[1].Content[0].Text != "reply" {
			t.Errorf("history turn lost: %+v", req.Messages[1])
		}
		last := req.Messages[2]
		img := last.Content[0]
		if img.Type != "image" || img.Source.Type != "base64" || img.Source.MediaType != "image/png" || img.Source.Data != "iVBO" {
			t.Errorf("unexpected image block %+v", img)
		}
		if last.Content[1].Text != "what is this?" {
			t.Errorf("prompt %q", last.Content[1].Text)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(okReply))
	}))
	defer srv.Close()

	c := NewAnthropicClient("key", "test-model", WithBaseURL(srv.URL), WithRetries(0))
	res, err := c.Transcribe(context.Background(), Request{
		Image:   []byte{0x89, 0x50, 0x4e},
		Prompt:  "what is this?",
		History: []Turn{{Role: "user", Content: "earlier"}, {Role: "assistant", Content: "reply"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "hello" || res.Reply != "What comes next?" {
		t.Errorf("got %+v", res)
	}
}

func TestAnthropicClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After-Ms", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
			return
		}
		w.Write([]byte(okReply))
	}))
	defer srv.Close()

	c := NewAnthropicClient("key", "", WithBaseURL(srv.URL), WithRetries(2))
	res, err := c.Transcribe(context.Background(), Request{Image: []byte{1}})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "hello" || calls.Load() != 3 {
		t.Errorf("got %+v after %d calls", res, calls.Load())
	}

	calls.Store(0)
	c = NewAnthropicClient("key", "", WithBaseURL(srv.URL), WithRetries(1))
	_, err = c.Transcribe(context.Background(), Request{Image: []byte{1}})
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("got %v, want a 429 after exhausting retries", err)
	}
	if calls.Load() != 2 {
		t.Errorf("made %d calls, want 2", calls.Load())
	}
}

func TestAnthropicClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"bad key"}}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient("nope", "", WithBaseURL(srv.URL), WithRetries(3))
	_, err := c.Transcribe(context.Background(), Request{Image: []byte{1}})
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("non-retryable error retried %d times", calls.Load()-1)
	}
	if _, err := c.Transcribe(context.Background(), Request{}); !errors.Is(err, ErrNoImage) {
		t.Errorf("got %v, want ErrNoImage", err)
	}
}
