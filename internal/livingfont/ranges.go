package livingfont

import "sort"

// Band is an inclusive [min, max] range.
type Band [2]float64

// EmotionalRange holds the parameter bands observed for one mood.
type EmotionalRange struct {
	Slant             Band `json:"slant"`
	Spacing           Band `json:"spacing"`
	PressureVariation Band `json:"pressure_variation"`
	SampleCount       int  `json:"sample_count"`
}

// RecordEmotionalRange computes the bands over the samples tagged with mood.
// The second result is false when no sample carries that mood.
func RecordEmotionalRange(mood Mood, samples []Sample) (EmotionalRange, bool) {
	var slants, ratios, pvars []float64
	n := 0
	for _, s := range samples {
		if s.Tag().Mood != mood {
			continue
		}
		n++
		if a, ok := sampleSlant(s); ok {
			slants = append(slants, a)
		}
		if r, ok := spacingRatio(s); ok {
			ratios = append(ratios, r)
		}
		pvars = append(pvars, pressureVariation(s))
	}
	if n == 0 {
		return EmotionalRange{}, false
	}
	band := func(xs []float64) Band {
		lo, hi := extent(xs)
		return Band{lo, hi}
	}
	// Like the aggregate profile, spacing is 1 when no sample has height.
	spacing := Band{1, 1}
	if len(ratios) > 0 {
		spacing = band(ratios)
	}
	return EmotionalRange{
		Slant:             band(slants),
		Spacing:           spacing,
		PressureVariation: band(pvars),
		SampleCount:       n,
	}, true
}

// EmotionalRanges records a range for every mood present in samples.
func EmotionalRanges(samples []Sample) map[Mood]EmotionalRange {
	out := map[Mood]EmotionalRange{}
	for _, m := range Moods {
		if r, ok := RecordEmotionalRange(m, samples); ok {
			out[m] = r
		}
	}
	return out
}

func sortedMoods(ranges map[Mood]EmotionalRange) []Mood {
	ms := make([]Mood, 0, len(ranges))
	for m := range ranges {
		ms = append(ms, m)
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i] < ms[j] })
	return ms
}
