package ink

import (
	"honnef.co/go/curve"
)

// Stroke is one continuous pen-down to pen-up gesture. Once a stroke is
// handed to a Drawing it must not be modified.
type Stroke struct {
	ID        string  `json:"id"`
	Points    []Point `json:"points"`
	Color     string  `json:"color"`
	Width     float64 `json:"width"`
	Timestamp int64   `json:"timestamp"`
}

// Len returns the number of recorded points.
func (s *Stroke) Len() int { return len(s.Points) }

// Bounds returns the bounding box of the stroke's points. An empty stroke
// has a zero rectangle.
func (s *Stroke) Bounds() curve.Rect {
	if len(s.Points) == 0 {
		return curve.Rect{}
	}
	p0 := s.Points[0].Pt()
	r := curve.Rect{X0: p0.X, Y0: p0.Y, X1: p0.X, Y1: p0.Y}
	for _, p := range s.Points[1:] {
		r = r.UnionPoint(p.Pt())
	}
	return r
}

// Path returns the polyline through the stroke's points.
func (s *Stroke) Path() curve.BezPath {
	var p curve.BezPath
	for i, pt := range s.Points {
		if i == 0 {
			p.MoveTo(pt.Pt())
			continue
		}
		p.LineTo(pt.Pt())
	}
	return p
}

// Near reports whether pt lies within tol of the stroke's centre line,
// widened by half the pen width.
func (s *Stroke) Near(pt curve.Point, tol float64) bool {
	if len(s.Points) == 0 {
		return false
	}
	reach := tol + s.Width/2
	reach2 := reach * reach
	if len(s.Points) == 1 {
		return s.Points[0].Pt().DistanceSquared(pt) <= reach2
	}
	for i := 1; i < len(s.Points); i++ {
		seg := curve.Line{P0: s.Points[i-1].Pt(), P1: s.Points[i].Pt()}
		if d2, _ := seg.Nearest(pt, 1e-9); d2 <= reach2 {
			return true
		}
	}
	return false
}

// Intersects reports whether any point of the stroke falls inside r.
func (s *Stroke) Intersects(r curve.Rect) bool {
	for _, p := range s.Points {
		if p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1 {
			return true
		}
	}
	return false
}
