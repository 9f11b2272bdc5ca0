// Package transcribe sends handwriting to a language model and returns the
// transcribed text and a conversational reply.
package transcribe

import (
	"context"
	"strings"

	"github.com/example/cursive/internal/ink"
)

// Turn is one message of an ongoing conversation about the notebook.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries the selected region of the canvas.
type Request struct {
	// Image is the rendered selection as PNG.
	Image []byte
	// Strokes are the strokes under the selection in canvas coordinates.
	Strokes []*ink.Stroke
	// Prompt is an optional question from the writer.
	Prompt  string
	History []Turn
}

// Result is what the model made of the handwriting.
type Result struct {
	Text  string
	Reply string
}

// Transcriber turns handwriting into text.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (*Result, error)
}

// Func adapts a function to the Transcriber interface.
type Func func(ctx context.Context, req Request) (*Result, error)

func (f Func) Transcribe(ctx context.Context, req Request) (*Result, error) { return f(ctx, req) }

const transcriptionPrefix = "TRANSCRIPTION:"

// SystemPrompt asks for a transcription line followed by a tutoring reply.
const SystemPrompt = `You are a patient tutor reading a student's handwritten notebook.
Start your answer with a single line of the form "TRANSCRIPTION: <text>" containing exactly what is written.
Then, on the following lines, reply to the student. Ask guiding questions rather than giving answers away.`

// parseReply splits model output into the transcription line and the rest.
// Output without a transcription line is treated as a reply only.
func parseReply(s string) Result {
	s = strings.TrimSpace(s)
	first, rest, _ := strings.Cut(s, "\n")
	if after, ok := strings.CutPrefix(strings.TrimSpace(first), transcriptionPrefix); ok {
		return Result{Text: strings.TrimSpace(after), Reply: strings.TrimSpace(rest)}
	}
	return Result{Reply: s}
}
