package livingfont

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sort"
	"time"

	"github.com/example/cursive/internal/ink"
)

// TrainingVersion is the version written to training exports.
const TrainingVersion = "1.0"

// TrainingSample is one labelled stroke. Characters written with several
// strokes appear as consecutive entries with increasing StrokeOrder.
type TrainingSample struct {
	Character   string      `json:"character"`
	StrokeOrder int         `json:"strokeOrder"`
	Points      []ink.Point `json:"points"`
	Color       string      `json:"color"`
	Width       float64     `json:"width"`
	Mood        Mood        `json:"mood,omitempty"`
	Intensity   float64     `json:"intensity,omitempty"`
}

// TrainingMetadata summarizes an export.
type TrainingMetadata struct {
	TotalSamples int      `json:"totalSamples"`
	Characters   []string `json:"characters,omitempty"`
}

// TrainingExport is the plain JSON blob consumed by the stroke model trainer.
type TrainingExport struct {
	Version   string           `json:"version"`
	Timestamp int64            `json:"timestamp"`
	Samples   []TrainingSample `json:"samples"`
	Metadata  TrainingMetadata `json:"metadata"`
}

// Labelled is a character together with the strokes that wrote it.
type Labelled struct {
	Character string
	Strokes   []*ink.Stroke
	Tag       Tag
}

// NewTrainingExport flattens labelled strokes into a training export.
func NewTrainingExport(items []Labelled, at time.Time) *TrainingExport {
	e := &TrainingExport{Version: TrainingVersion, Timestamp: at.UnixMilli()}
	chars := map[string]bool{}
	for _, it := range items {
		order := 0
		for _, s := range it.Strokes {
			if len(s.Points) == 0 {
				continue
			}
			e.Samples = append(e.Samples, TrainingSample{
				Character:   it.Character,
				StrokeOrder: order,
				Points:      slices.Clone(s.Points),
				Color:       s.Color,
				Width:       s.Width,
				Mood:        it.Tag.Mood,
				Intensity:   it.Tag.Intensity,
			})
			order++
		}
		if order > 0 {
			chars[it.Character] = true
		}
	}
	e.Metadata.TotalSamples = len(e.Samples)
	e.Metadata.Characters = sortedKeys(chars)
	return e
}

// Labelled regroups the export's strokes into labelled characters. A new
// character starts at every entry with StrokeOrder zero.
func (e *TrainingExport) Labelled() []Labelled {
	var out []Labelled
	for _, ts := range e.Samples {
		st := &ink.Stroke{Points: ts.Points, Color: ts.Color, Width: ts.Width}
		if n := len(out); ts.StrokeOrder > 0 && n > 0 && out[n-1].Character == ts.Character {
			out[n-1].Strokes = append(out[n-1].Strokes, st)
			continue
		}
		tag := NeutralTag
		if ts.Mood != "" {
			tag = Tag{Mood: ts.Mood, Intensity: ts.Intensity}
		}
		out = append(out, Labelled{Character: ts.Character, Strokes: []*ink.Stroke{st}, Tag: tag})
	}
	return out
}

// Encode writes e as indented JSON.
func (e *TrainingExport) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("encode training export: %w", err)
	}
	return nil
}

// ReadTrainingExport decodes a training export.
func ReadTrainingExport(r io.Reader) (*TrainingExport, error) {
	var e TrainingExport
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return nil, fmt.Errorf("decode training export: %w", err)
	}
	if e.Version == "" {
		return nil, fmt.Errorf("decode training export: version is missing")
	}
	return &e, nil
}

// SequenceRow is one step of an encoded stroke sequence.
type SequenceRow struct {
	DX, DY, Pressure float64
	PenUp            float64
}

// EncodeSequence converts a sample to pen deltas. Each point becomes a
// pen-down row relative to the previous point, starting from the origin,
// and every stroke is closed by a {0, 0, 0, 1} pen-up row.
func EncodeSequence(s Sample) []SequenceRow {
	var rows []SequenceRow
	var px, py float64
	for _, pts := range s.Strokes() {
		for _, p := range pts {
			rows = append(rows, SequenceRow{DX: p.X - px, DY: p.Y - py, Pressure: p.Pressure})
			px, py = p.X, p.Y
		}
		rows = append(rows, SequenceRow{PenUp: 1})
	}
	return rows
}

// MarshalJSON encodes the row as a four element array.
func (r SequenceRow) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{r.DX, r.DY, r.Pressure, r.PenUp})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
