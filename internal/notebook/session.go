// Package notebook ties a canvas to its persistence and AI collaborators.
//
// Collaborator calls never modify the canvas when they fail. Long running
// calls are split into a prepare step that reads the canvas, a run step
// that only talks to the collaborator and may happen on another goroutine,
// and an apply step back on the canvas goroutine.
package notebook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/cursive/internal/canvas"
	"github.com/example/cursive/internal/ink"
	"github.com/example/cursive/internal/input"
	"github.com/example/cursive/internal/render"
	"github.com/example/cursive/internal/store"
	"github.com/example/cursive/internal/transcribe"
)

// CollaboratorError wraps a failure of the store or the AI service.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *CollaboratorError) Unwrap() error { return e.Err }

// ErrNoTranscriber is returned when no AI service is configured.
var ErrNoTranscriber = errors.New("no transcription service configured")

// Session is one open notebook.
type Session struct {
	ID string
	// Title and Description are saved with the notebook.
	Title       string
	Description string
	State       *canvas.State
	Input       *input.Controller
	Store       store.Store
	AI          transcribe.Transcriber
	Render      render.Options

	history []transcribe.Turn
	dirty   bool
}

// New opens an empty session for notebook id. The controller is created
// with tools from reg, or the defaults when reg is nil.
func New(id string, st store.Store, ai transcribe.Transcriber, state *canvas.State, reg input.Registry) *Session {
	if state == nil {
		state = canvas.New(nil)
	}
	s := &Session{
		ID:     id,
		State:  state,
		Input:  input.NewController(state, reg),
		Store:  st,
		AI:     ai,
		Render: render.DefaultOptions,
	}
	s.Input.OnCommit = func() { s.dirty = true }
	return s
}

// Dirty reports whether the canvas changed since the last load or save.
func (s *Session) Dirty() bool { return s.dirty }

// MarkDirty flags the canvas as changed, for edits made outside the
// controller such as undo.
func (s *Session) MarkDirty() { s.dirty = true }

// Load replaces the canvas with the stored notebook and restores its
// viewport. The viewport is not an edit, so the history stays empty.
func (s *Session) Load(ctx context.Context) error {
	nb, err := s.Store.Load(ctx, s.ID)
	if err != nil {
		return &CollaboratorError{Op: "load notebook", Err: err}
	}
	s.State.Load(nb.Drawings)
	if nb.Viewport != nil {
		if err := s.State.SetViewport(*nb.Viewport); err != nil {
			log.Printf("notebook %s: ignoring saved viewport: %v", s.ID, err)
		}
	}
	s.Title, s.Description = nb.Title, nb.Description
	s.dirty = false
	log.Printf("notebook %s: loaded %d drawings", s.ID, len(nb.Drawings))
	return nil
}

// Save writes the current drawings, viewport and metadata.
func (s *Session) Save(ctx context.Context) error {
	if err := s.SaveSnapshot(ctx, s.Snapshot()); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// Snapshot captures what Save writes. It must be called on the canvas
// goroutine; the result can be saved from any other.
func (s *Session) Snapshot() *store.Notebook {
	v := s.State.Viewport()
	return &store.Notebook{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Viewport:    &v,
		Drawings:    s.State.Drawings(),
	}
}

// MarkSaved clears the dirty flag when drawings, as saved by an earlier
// SaveSnapshot, is still what the canvas holds.
func (s *Session) MarkSaved(drawings []*ink.Drawing) bool {
	cur := s.State.Drawings()
	if len(cur) != len(drawings) {
		return false
	}
	for i := range cur {
		if cur[i] != drawings[i] {
			return false
		}
	}
	s.dirty = false
	return true
}

// SaveSnapshot writes a notebook taken earlier with Snapshot. It does not
// touch the canvas and may run on any goroutine.
func (s *Session) SaveSnapshot(ctx context.Context, nb *store.Notebook) error {
	if err := s.Store.Save(ctx, nb); err != nil {
		return &CollaboratorError{Op: "save notebook", Err: err}
	}
	log.Printf("notebook %s: saved %d drawings", s.ID, len(nb.Drawings))
	return nil
}

// Pending is a prepared transcription.
type Pending struct {
	Request    transcribe.Request
	Box        input.SelectionBox
	drawingIDs []string
	ai         transcribe.Transcriber
}

// Prepare renders the selection and gathers the strokes under it.
func (s *Session) Prepare(box input.SelectionBox, prompt string) (*Pending, error) {
	if s.AI == nil {
		return nil, ErrNoTranscriber
	}
	if box.Empty() {
		return nil, fmt.Errorf("selection %+v is empty", box)
	}
	r := box.Rect()
	strokes := s.State.StrokesIn(r)
	if len(strokes) == 0 {
		return nil, fmt.Errorf("no strokes inside selection")
	}
	opts := s.Render
	opts.Padding = 0
	img, err := render.Region(s.State.Drawings(), r, opts)
	if err != nil {
		return nil, fmt.Errorf("render selection: %w", err)
	}
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, img); err != nil {
		return nil, err
	}

	var ids []string
	for _, d := range s.State.Drawings() {
		for _, st := range d.Strokes {
			if st.Intersects(r) {
				ids = append(ids, d.ID)
				break
			}
		}
	}
	return &Pending{
		Request: transcribe.Request{
			Image:   buf.Bytes(),
			Strokes: strokes,
			Prompt:  prompt,
			History: append([]transcribe.Turn(nil), s.history...),
		},
		Box:        box,
		drawingIDs: ids,
		ai:         s.AI,
	}, nil
}

// Run calls the AI service. It does not touch the canvas.
func (p *Pending) Run(ctx context.Context) (*transcribe.Result, error) {
	res, err := p.ai.Transcribe(ctx, p.Request)
	if err != nil {
		return nil, &CollaboratorError{Op: "transcribe selection", Err: err}
	}
	return res, nil
}

// Apply records the result on the drawings under the selection and in the
// conversation history.
func (s *Session) Apply(p *Pending, res *transcribe.Result) {
	prompt := p.Request.Prompt
	if prompt == "" {
		prompt = "[handwriting]"
	}
	s.history = append(s.history,
		transcribe.Turn{Role: "user", Content: prompt},
		transcribe.Turn{Role: "assistant", Content: res.Reply},
	)
	for _, id := range p.drawingIDs {
		if s.State.SetTranscription(id, res.Text, res.Reply) {
			s.dirty = true
		}
	}
}

// Transcribe prepares, runs and applies a transcription in one call.
func (s *Session) Transcribe(ctx context.Context, box input.SelectionBox, prompt string) (*transcribe.Result, error) {
	p, err := s.Prepare(box, prompt)
	if err != nil {
		return nil, err
	}
	res, err := p.Run(ctx)
	if err != nil {
		return nil, err
	}
	s.Apply(p, res)
	return res, nil
}

// History returns the conversation so far.
func (s *Session) History() []transcribe.Turn {
	return append([]transcribe.Turn(nil), s.history...)
}
