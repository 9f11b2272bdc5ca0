package livingfont

import (
	"github.com/example/cursive/internal/ink"
)

// Bounds is the extent of a sample in the coordinates it was written in.
type Bounds struct {
	MinX   float64 `json:"minX"`
	MinY   float64 `json:"minY"`
	MaxX   float64 `json:"maxX"`
	MaxY   float64 `json:"maxY"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Sample is one normalized handwriting sample. Points are offset so the
// bounding box minimum is the origin and T is relative to the first point.
type Sample struct {
	Character  string      `json:"character"`
	Points     []ink.Point `json:"points"`
	DurationMs int64       `json:"duration_ms"`
	Bounds     Bounds      `json:"bounds"`
	// Breaks holds the index of the first point of every stroke after the first.
	Breaks    []int   `json:"stroke_breaks,omitempty"`
	Mood      Mood    `json:"mood,omitempty"`
	Intensity float64 `json:"intensity,omitempty"`
}

// NormalizeStroke normalizes a single stroke.
func NormalizeStroke(s *ink.Stroke) Sample {
	return NormalizeStrokes("", s)
}

// NormalizeStrokes builds one sample for character from strokes written in
// order. A single point yields zero width and height.
func NormalizeStrokes(character string, strokes ...*ink.Stroke) Sample {
	smp := Sample{Character: character}
	var all []ink.Point
	for _, s := range strokes {
		if len(s.Points) == 0 {
			continue
		}
		if len(all) > 0 {
			smp.Breaks = append(smp.Breaks, len(all))
		}
		all = append(all, s.Points...)
	}
	if len(all) == 0 {
		return smp
	}

	b := Bounds{MinX: all[0].X, MinY: all[0].Y, MaxX: all[0].X, MaxY: all[0].Y}
	for _, p := range all[1:] {
		b.MinX = min(b.MinX, p.X)
		b.MinY = min(b.MinY, p.Y)
		b.MaxX = max(b.MaxX, p.X)
		b.MaxY = max(b.MaxY, p.Y)
	}
	b.Width = b.MaxX - b.MinX
	b.Height = b.MaxY - b.MinY
	smp.Bounds = b

	t0 := all[0].T
	smp.Points = make([]ink.Point, len(all))
	for i, p := range all {
		rel := int64(0)
		if p.T != 0 && t0 != 0 {
			rel = max(p.T-t0, 0)
		}
		smp.Points[i] = ink.Point{X: p.X - b.MinX, Y: p.Y - b.MinY, Pressure: p.Pressure, T: rel}
	}
	smp.DurationMs = smp.Points[len(smp.Points)-1].T
	return smp
}

// WithTag returns a copy of s tagged with t.
func (s Sample) WithTag(t Tag) Sample {
	s.Mood = t.Mood
	s.Intensity = t.Intensity
	return s
}

// Tag returns the sample's mood tag, neutral when untagged.
func (s Sample) Tag() Tag {
	if s.Mood == "" {
		return NeutralTag
	}
	return Tag{Mood: s.Mood, Intensity: s.Intensity}
}

// Strokes splits the sample's points back into strokes.
func (s Sample) Strokes() [][]ink.Point {
	var out [][]ink.Point
	start := 0
	for _, b := range s.Breaks {
		out = append(out, s.Points[start:b])
		start = b
	}
	if start < len(s.Points) {
		out = append(out, s.Points[start:])
	}
	return out
}
