package livingfont

import (
	"math"

	"honnef.co/go/curve"
)

// Slant is the lean of the writing in degrees from vertical; positive
// leans right.
type Slant struct {
	Average   float64 `json:"average"`
	Variation float64 `json:"variation"`
}

// Spacing describes the width to height ratio of samples.
type Spacing struct {
	Multiplier float64 `json:"multiplier"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
}

// Baseline describes where strokes end vertically.
type Baseline struct {
	Average   float64 `json:"average"`
	Variation float64 `json:"variation"`
}

// PressureStats summarizes pen pressure over every point.
type PressureStats struct {
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Average   float64 `json:"average"`
	Variation float64 `json:"variation"`
}

// Timing summarizes how fast samples were written. Speed is in canvas
// units per millisecond.
type Timing struct {
	AverageDurationMs float64 `json:"average_duration_ms"`
	AverageSpeed      float64 `json:"average_speed"`
}

// StyleProfile is the aggregate handwriting style of a set of samples.
type StyleProfile struct {
	Slant       Slant          `json:"slant"`
	Spacing     Spacing        `json:"spacing"`
	Baseline    *Baseline      `json:"baseline"`
	Pressure    *PressureStats `json:"pressure"`
	Timing      *Timing        `json:"timing"`
	SampleCount int            `json:"sample_count"`
}

// AggregateStyleProfile computes the style profile of samples.
func AggregateStyleProfile(samples []Sample) *StyleProfile {
	p := &StyleProfile{SampleCount: len(samples)}

	var slants, ratios, ends, pressures, durations, speeds []float64
	for _, s := range samples {
		if a, ok := sampleSlant(s); ok {
			slants = append(slants, a)
		}
		if r, ok := spacingRatio(s); ok {
			ratios = append(ratios, r)
		}
		ends = append(ends, strokeEnds(s)...)
		for _, pt := range s.Points {
			pressures = append(pressures, pt.Pressure)
		}
		durations = append(durations, float64(s.DurationMs))
		if s.DurationMs > 0 {
			speeds = append(speeds, pathLength(s)/float64(s.DurationMs))
		}
	}

	p.Slant = Slant{Average: mean(slants), Variation: stddev(slants)}
	p.Spacing = Spacing{Multiplier: 1, Min: 1, Max: 1}
	if len(ratios) > 0 {
		lo, hi := extent(ratios)
		p.Spacing = Spacing{Multiplier: mean(ratios), Min: lo, Max: hi}
	}
	p.Baseline = &Baseline{Average: mean(ends), Variation: stddev(ends)}
	lo, hi := extent(pressures)
	p.Pressure = &PressureStats{Min: lo, Max: hi, Average: mean(pressures), Variation: stddev(pressures)}
	p.Timing = &Timing{AverageDurationMs: mean(durations), AverageSpeed: mean(speeds)}
	return p
}

// sampleSlant is the angle from vertical of the line from the first to the
// last point, oriented upward so up and down strokes agree. Samples whose
// endpoints coincide have no direction.
func sampleSlant(s Sample) (float64, bool) {
	if len(s.Points) < 2 {
		return 0, false
	}
	v := s.Points[len(s.Points)-1].Pt().Sub(s.Points[0].Pt())
	if v.Hypot2() == 0 {
		return 0, false
	}
	// Canvas y grows downward.
	if v.Y > 0 || (v.Y == 0 && v.X < 0) {
		v = curve.Vec(-v.X, -v.Y)
	}
	return math.Atan2(v.X, -v.Y) * 180 / math.Pi, true
}

// strokeEnds is the absolute y of the last point of every stroke in s.
func strokeEnds(s Sample) []float64 {
	var ends []float64
	for _, pts := range s.Strokes() {
		if n := len(pts); n > 0 {
			ends = append(ends, pts[n-1].Y+s.Bounds.MinY)
		}
	}
	return ends
}

func spacingRatio(s Sample) (float64, bool) {
	if s.Bounds.Height <= 0 {
		return 0, false
	}
	return s.Bounds.Width / s.Bounds.Height, true
}

func pressureVariation(s Sample) float64 {
	ps := make([]float64, len(s.Points))
	for i, p := range s.Points {
		ps[i] = p.Pressure
	}
	return stddev(ps)
}

func pathLength(s Sample) float64 {
	var l float64
	for _, pts := range s.Strokes() {
		for i := 1; i < len(pts); i++ {
			l += pts[i].Pt().Distance(pts[i-1].Pt())
		}
	}
	return l
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}

func extent(xs []float64) (lo, hi float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	return lo, hi
}
