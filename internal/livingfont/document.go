// Package livingfont turns captured handwriting into portable style
// documents: normalized samples, an aggregate style profile and per-mood
// parameter ranges, serialized as versioned ".livingfont" JSON.
package livingfont

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// SchemaVersion is written to every exported document.
const SchemaVersion = "1.0"

// Extension is the conventional file extension for documents.
const Extension = ".livingfont"

// Metadata describes who wrote a document and when.
type Metadata struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Generator   string    `json:"generator,omitempty"`
}

// SampleSet groups samples by what was written.
type SampleSet struct {
	Characters map[string][]Sample `json:"characters"`
	Bigrams    map[string][]Sample `json:"bigrams"`
	Words      map[string][]Sample `json:"words"`
}

// GroupSamples files each sample under characters, bigrams or words by the
// length of its label. Unlabelled samples are skipped.
func GroupSamples(samples []Sample) SampleSet {
	set := SampleSet{
		Characters: map[string][]Sample{},
		Bigrams:    map[string][]Sample{},
		Words:      map[string][]Sample{},
	}
	for _, s := range samples {
		switch utf8.RuneCountInString(s.Character) {
		case 0:
		case 1:
			set.Characters[s.Character] = append(set.Characters[s.Character], s)
		case 2:
			set.Bigrams[s.Character] = append(set.Bigrams[s.Character], s)
		default:
			set.Words[s.Character] = append(set.Words[s.Character], s)
		}
	}
	return set
}

// All returns every sample in the set.
func (s SampleSet) All() []Sample {
	var out []Sample
	for _, m := range []map[string][]Sample{s.Characters, s.Bigrams, s.Words} {
		for _, k := range sortedKeys(m) {
			out = append(out, m[k]...)
		}
	}
	return out
}

// ModelInfo points at a stroke generation model trained on the samples.
type ModelInfo struct {
	Format     string   `json:"format"`
	Path       string   `json:"path,omitempty"`
	Characters []string `json:"characters,omitempty"`
	// Features names the columns of each encoded sequence row.
	Features []string `json:"features"`
}

// DefaultModel describes the sequence encoding produced by EncodeSequence.
func DefaultModel(characters []string) *ModelInfo {
	return &ModelInfo{
		Format:     "onnx",
		Characters: characters,
		Features:   []string{"dx", "dy", "pressure", "pen_up"},
	}
}

// Document is a complete .livingfont file.
type Document struct {
	SchemaVersion   string                  `json:"schema_version"`
	Metadata        Metadata                `json:"metadata"`
	Samples         SampleSet               `json:"samples"`
	StyleProfile    *StyleProfile           `json:"style_profile"`
	EmotionalRanges map[Mood]EmotionalRange `json:"emotional_ranges"`
	Model           *ModelInfo              `json:"model,omitempty"`
}

// Requirements are the coverage rules a document must meet.
type Requirements struct {
	MinCharacters int
	MinSamples    int
	MaxSamples    int
}

// DefaultRequirements asks for every lowercase letter with 3 to 20 samples.
var DefaultRequirements = Requirements{MinCharacters: 26, MinSamples: 3, MaxSamples: 20}

// ValidationError lists every rule a document broke.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "livingfont: invalid document: " + strings.Join(e.Problems, "; ")
}

// Validate checks d against req.
func (d *Document) Validate(req Requirements) error {
	var problems []string
	if d.SchemaVersion == "" {
		problems = append(problems, "schema_version is missing")
	}

	covered := 0
	for _, c := range sortedKeys(d.Samples.Characters) {
		n := len(d.Samples.Characters[c])
		if !isLowerLetter(c) {
			continue
		}
		if req.MaxSamples > 0 && n > req.MaxSamples {
			problems = append(problems, fmt.Sprintf("character %q has %d samples, at most %d allowed", c, n, req.MaxSamples))
			continue
		}
		if n >= req.MinSamples && n > 0 {
			covered++
		}
	}
	if covered < req.MinCharacters {
		problems = append(problems, fmt.Sprintf("%d lowercase characters have %d-%d samples, %d required", covered, req.MinSamples, req.MaxSamples, req.MinCharacters))
	}

	if d.StyleProfile == nil {
		problems = append(problems, "style_profile is missing")
	} else {
		if d.StyleProfile.Baseline == nil {
			problems = append(problems, "style_profile.baseline is missing")
		}
		if d.StyleProfile.Pressure == nil {
			problems = append(problems, "style_profile.pressure is missing")
		}
		if d.StyleProfile.Timing == nil {
			problems = append(problems, "style_profile.timing is missing")
		}
	}

	if len(d.EmotionalRanges) == 0 {
		problems = append(problems, "at least one emotional range is required")
	}
	for _, m := range sortedMoods(d.EmotionalRanges) {
		if !m.Valid() {
			problems = append(problems, fmt.Sprintf("emotional range for unknown mood %q", m))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// isLowerLetter reports whether s is one of the ASCII letters a to z, the
// alphabet coverage is counted over and Collector.Missing reports on.
func isLowerLetter(s string) bool {
	return len(s) == 1 && s[0] >= 'a' && s[0] <= 'z'
}

// NewDocument assembles a document without validating it.
func NewDocument(meta Metadata, samples SampleSet, profile *StyleProfile, ranges map[Mood]EmotionalRange) *Document {
	return &Document{
		SchemaVersion:   SchemaVersion,
		Metadata:        meta,
		Samples:         samples,
		StyleProfile:    profile,
		EmotionalRanges: ranges,
		Model:           DefaultModel(sortedKeys(samples.Characters)),
	}
}

// ExportDocument assembles, validates and serializes a document. Nothing is
// returned unless the document is valid.
func ExportDocument(meta Metadata, samples SampleSet, profile *StyleProfile, ranges map[Mood]EmotionalRange, req Requirements) ([]byte, error) {
	doc := NewDocument(meta, samples, profile, ranges)
	if err := doc.Validate(req); err != nil {
		return nil, err
	}
	return doc.Marshal()
}

// Marshal encodes d as indented JSON.
func (d *Document) Marshal() ([]byte, error) {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return append(b, '\n'), nil
}

// ReadDocument decodes and validates a document.
func ReadDocument(r io.Reader, req Requirements) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("invalid JSON: %v", err)}}
	}
	if err := doc.Validate(req); err != nil {
		return nil, err
	}
	return &doc, nil
}

// WriteFile writes data to path through a temporary file in the same
// directory so a failed write never leaves a partial file behind.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
