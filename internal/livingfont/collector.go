package livingfont

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/cursive/internal/ink"
)

// Collector accumulates samples during a training session.
type Collector struct {
	samples []Sample
	Now     func() time.Time
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{Now: time.Now}
}

// Add normalizes strokes into a sample for character tagged with t.
func (c *Collector) Add(character string, t Tag, strokes ...*ink.Stroke) (Sample, error) {
	if character == "" {
		return Sample{}, fmt.Errorf("add sample: empty character")
	}
	if !t.Mood.Valid() {
		return Sample{}, fmt.Errorf("add sample %q: unknown mood %q", character, t.Mood)
	}
	s := NormalizeStrokes(character, strokes...)
	if len(s.Points) == 0 {
		return Sample{}, fmt.Errorf("add sample %q: no points", character)
	}
	s = s.WithTag(t)
	c.samples = append(c.samples, s)
	return s, nil
}

// AddTraining adds every labelled character of a training export.
func (c *Collector) AddTraining(e *TrainingExport) int {
	n := 0
	for _, l := range e.Labelled() {
		if _, err := c.Add(l.Character, l.Tag, l.Strokes...); err != nil {
			log.Printf("livingfont: skipping sample: %v", err)
			continue
		}
		n++
	}
	return n
}

// Samples returns the collected samples.
func (c *Collector) Samples() []Sample {
	return append([]Sample(nil), c.samples...)
}

// Missing lists the lowercase ASCII letters that do not yet have enough
// samples under req.
func (c *Collector) Missing(req Requirements) []string {
	counts := map[string]int{}
	for _, s := range c.samples {
		counts[s.Character]++
	}
	var missing []string
	for r := 'a'; r <= 'z'; r++ {
		if counts[string(r)] < req.MinSamples {
			missing = append(missing, string(r))
		}
	}
	return missing
}

// Export builds and validates a document from everything collected.
func (c *Collector) Export(meta Metadata, req Requirements) ([]byte, error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = c.Now().UTC()
	}
	return ExportDocument(meta, GroupSamples(c.samples), AggregateStyleProfile(c.samples), EmotionalRanges(c.samples), req)
}
