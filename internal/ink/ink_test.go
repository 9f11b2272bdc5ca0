package ink

import (
	"image/color"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"honnef.co/go/curve"
)

func TestClampPressure(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.3, 0.3},
		{1, 1},
		{7, 1},
		{math.NaN(), DefaultPressure},
	}
	for _, tt := range tests {
		if got := ClampPressure(tt.in); got != tt.want {
			t.Errorf("ClampPressure(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if p := NewPoint(1, 2); p.Pressure != DefaultPressure {
		t.Errorf("NewPoint pressure = %v", p.Pressure)
	}
	if p := NewPressurePoint(1, 2, 3); p.Pressure != 1 {
		t.Errorf("NewPressurePoint pressure = %v", p.Pressure)
	}
}

func TestStrokeBounds(t *testing.T) {
	s := &Stroke{Points: []Point{NewPoint(5, 5)}}
	if d := cmp.Diff(curve.Rect{X0: 5, Y0: 5, X1: 5, Y1: 5}, s.Bounds()); d != "" {
		t.Errorf("single point bounds: %s", d)
	}
	s.Points = append(s.Points, NewPoint(-1, 10), NewPoint(3, 2))
	if d := cmp.Diff(curve.Rect{X0: -1, Y0: 2, X1: 5, Y1: 10}, s.Bounds()); d != "" {
		t.Errorf("bounds: %s", d)
	}
	if (&Stroke{}).Bounds() != (curve.Rect{}) {
		t.Error("empty stroke should have zero bounds")
	}
}

func TestStrokeNear(t *testing.T) {
	s := &Stroke{Width: 2, Points: []Point{NewPoint(0, 0), NewPoint(10, 0)}}
	if !s.Near(curve.Pt(5, 3), 2) {
		t.Error("expected hit within tolerance plus half width")
	}
	if s.Near(curve.Pt(5, 5), 2) {
		t.Error("unexpected hit")
	}
	dot := &Stroke{Points: []Point{NewPoint(0, 0)}}
	if !dot.Near(curve.Pt(1, 1), 2) {
		t.Error("expected hit on single point stroke")
	}
}

func TestDrawingCopyOnWrite(t *testing.T) {
	d := NewDrawing("", 1)
	if d.Kind != KindHandwriting || d.ID == "" {
		t.Fatalf("unexpected drawing %+v", d)
	}
	s1 := &Stroke{ID: "a", Points: []Point{NewPoint(0, 0)}}
	s2 := &Stroke{ID: "b", Points: []Point{NewPoint(1, 1)}}
	d1 := d.WithStroke(s1)
	d2 := d1.WithStroke(s2)
	if len(d.Strokes) != 0 || len(d1.Strokes) != 1 || len(d2.Strokes) != 2 {
		t.Fatalf("copy on write violated: %d %d %d", len(d.Strokes), len(d1.Strokes), len(d2.Strokes))
	}
	d3, n := d2.Without(func(s *Stroke) bool { return s.ID == "a" })
	if n != 1 || len(d3.Strokes) != 1 || d3.Strokes[0] != s2 {
		t.Fatalf("Without removed %d, left %v", n, d3.Strokes)
	}
	if len(d2.Strokes) != 2 {
		t.Error("Without mutated the source drawing")
	}
	if same, n := d2.Without(func(*Stroke) bool { return false }); same != d2 || n != 0 {
		t.Error("Without with no match should return the receiver")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#fff", color.RGBA{255, 255, 255, 255}},
		{"#102030", color.RGBA{0x10, 0x20, 0x30, 255}},
		{"#10203040", color.RGBA{0x10, 0x20, 0x30, 0x40}},
		{"navy", color.RGBA{0, 0, 0x80, 255}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseColor("notacolor"); err == nil {
		t.Error("expected error for unknown name")
	}
	if got := FormatColor(color.RGBA{0x10, 0x20, 0x30, 255}); got != "#102030" {
		t.Errorf("FormatColor = %s", got)
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("shape"); err != nil || k != KindShape {
		t.Errorf("ParseKind(shape) = %v, %v", k, err)
	}
	if _, err := ParseKind("doodle"); err == nil {
		t.Error("expected error")
	}
}
