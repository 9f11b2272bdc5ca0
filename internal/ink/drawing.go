package ink

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind classifies what a drawing contains.
type Kind string

const (
	KindHandwriting Kind = "handwriting"
	KindTyped       Kind = "typed"
	KindShape       Kind = "shape"
)

// ParseKind validates s. The empty string means handwriting.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindHandwriting:
		return KindHandwriting, nil
	case KindTyped, KindShape:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown drawing kind %q", s)
}

// Drawing is the set of strokes captured in one writing session. Drawings
// are treated as values: the With* methods return a modified copy so that
// history snapshots can share unchanged drawings.
type Drawing struct {
	ID            string    `json:"id"`
	Strokes       []*Stroke `json:"strokes"`
	Timestamp     int64     `json:"timestamp"`
	Kind          Kind      `json:"drawing_type"`
	Transcription string    `json:"transcription,omitempty"`
	AIResponse    string    `json:"ai_response,omitempty"`
}

// NewDrawing returns an empty drawing with a fresh id.
func NewDrawing(kind Kind, ts int64) *Drawing {
	if kind == "" {
		kind = KindHandwriting
	}
	return &Drawing{ID: uuid.NewString(), Kind: kind, Timestamp: ts}
}

// NewStrokeID returns a fresh stroke identifier.
func NewStrokeID() string {
	return uuid.NewString()
}

func (d *Drawing) clone() *Drawing {
	c := *d
	c.Strokes = append([]*Stroke(nil), d.Strokes...)
	return &c
}

// WithStroke returns a copy of d with s appended.
func (d *Drawing) WithStroke(s *Stroke) *Drawing {
	c := d.clone()
	c.Strokes = append(c.Strokes, s)
	return c
}

// Without returns a copy of d with the strokes for which drop returns true
// removed, and the number removed. When nothing matches d itself is returned.
func (d *Drawing) Without(drop func(*Stroke) bool) (*Drawing, int) {
	kept := make([]*Stroke, 0, len(d.Strokes))
	for _, s := range d.Strokes {
		if !drop(s) {
			kept = append(kept, s)
		}
	}
	removed := len(d.Strokes) - len(kept)
	if removed == 0 {
		return d, 0
	}
	c := *d
	c.Strokes = kept
	return &c, removed
}

// WithTranscription returns a copy of d carrying the AI results.
func (d *Drawing) WithTranscription(text, reply string) *Drawing {
	c := d.clone()
	c.Transcription = text
	c.AIResponse = reply
	return c
}

// PointCount returns the total number of points across all strokes.
func (d *Drawing) PointCount() int {
	n := 0
	for _, s := range d.Strokes {
		n += len(s.Points)
	}
	return n
}
