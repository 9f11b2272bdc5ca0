package livingfont

import (
	"fmt"
	"strconv"
	"strings"
)

// Mood is one of the supported emotional states a sample can be tagged with.
type Mood string

const (
	Neutral Mood = "neutral"
	Calm    Mood = "calm"
	Happy   Mood = "happy"
	Excited Mood = "excited"
	Sad     Mood = "sad"
	Anxious Mood = "anxious"
	Angry   Mood = "angry"
	Tired   Mood = "tired"
)

// Moods lists the supported moods in a stable order.
var Moods = []Mood{Neutral, Calm, Happy, Excited, Sad, Anxious, Angry, Tired}

// Valid reports whether m is a supported mood.
func (m Mood) Valid() bool {
	for _, v := range Moods {
		if m == v {
			return true
		}
	}
	return false
}

// ParseMood validates s, ignoring case and surrounding space.
func ParseMood(s string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown mood %q", s)
	}
	return m, nil
}

// UnmarshalText rejects unknown moods when decoding documents.
func (m *Mood) UnmarshalText(b []byte) error {
	v, err := ParseMood(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Tag is a mood with an intensity in [0,1].
type Tag struct {
	Mood      Mood    `json:"mood"`
	Intensity float64 `json:"intensity"`
}

// NeutralTag is applied to untagged samples.
var NeutralTag = Tag{Mood: Neutral, Intensity: 1}

// ParseTag parses "mood" or "mood:intensity". Intensity defaults to 1 and
// must lie within [0,1].
func ParseTag(s string) (Tag, error) {
	name, level, hasLevel := strings.Cut(s, ":")
	m, err := ParseMood(name)
	if err != nil {
		return Tag{}, err
	}
	t := Tag{Mood: m, Intensity: 1}
	if hasLevel {
		v, err := strconv.ParseFloat(strings.TrimSpace(level), 64)
		if err != nil {
			return Tag{}, fmt.Errorf("intensity for %s: %w", m, err)
		}
		if v < 0 || v > 1 {
			return Tag{}, fmt.Errorf("intensity %v for %s out of range [0,1]", v, m)
		}
		t.Intensity = v
	}
	return t, nil
}

func (t Tag) String() string {
	return fmt.Sprintf("%s:%s", t.Mood, strconv.FormatFloat(t.Intensity, 'f', -1, 64))
}

// Span is a run of text written in one mood.
type Span struct {
	Tag  Tag
	Text string
}

// ParseMarkup splits text carrying inline mood tags such as
// "{happy:0.8}hello {sad}world" into spans. Text before the first tag is
// neutral. A tag applies until the next one.
func ParseMarkup(s string) ([]Span, error) {
	var spans []Span
	cur := NeutralTag
	for len(s) > 0 {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			spans = appendSpan(spans, cur, s)
			break
		}
		spans = appendSpan(spans, cur, s[:open])
		end := strings.IndexByte(s[open:], '}')
		if end < 0 {
			return nil, fmt.Errorf("unterminated mood tag at offset %d", open)
		}
		tag, err := ParseTag(s[open+1 : open+end])
		if err != nil {
			return nil, err
		}
		cur = tag
		s = s[open+end+1:]
	}
	return spans, nil
}

func appendSpan(spans []Span, t Tag, text string) []Span {
	if text == "" {
		return spans
	}
	if n := len(spans); n > 0 && spans[n-1].Tag == t {
		spans[n-1].Text += text
		return spans
	}
	return append(spans, Span{Tag: t, Text: text})
}
