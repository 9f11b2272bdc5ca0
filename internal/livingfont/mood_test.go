package livingfont

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseTag(t *testing.T) {
	tests := []struct {
		in      string
		want    Tag
		wantErr bool
	}{
		{in: "happy", want: Tag{Mood: Happy, Intensity: 1}},
		{in: " Sad:0.25", want: Tag{Mood: Sad, Intensity: 0.25}},
		{in: "calm:0", want: Tag{Mood: Calm, Intensity: 0}},
		{in: "furious", wantErr: true},
		{in: "happy:1.5", wantErr: true},
		{in: "happy:x", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTag(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTag(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTag(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTag(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseMarkup(t *testing.T) {
	spans, err := ParseMarkup("dear {happy:0.8}friend, {happy:0.8}so {sad}long")
	if err != nil {
		t.Fatal(err)
	}
	want := []Span{
		{Tag: NeutralTag, Text: "dear "},
		{Tag: Tag{Mood: Happy, Intensity: 0.8}, Text: "friend, so "},
		{Tag: Tag{Mood: Sad, Intensity: 1}, Text: "long"},
	}
	if d := cmp.Diff(want, spans); d != "" {
		t.Errorf("spans (-want +got):\n%s", d)
	}
	if _, err := ParseMarkup("{happy"); err == nil {
		t.Error("expected error for unterminated tag")
	}
	if _, err := ParseMarkup("{grumpy}x"); err == nil {
		t.Error("expected error for unknown mood")
	}
}

func TestMoodJSONRejectsUnknown(t *testing.T) {
	var ranges map[Mood]EmotionalRange
	if err := json.Unmarshal([]byte(`{"happy":{}}`), &ranges); err != nil {
		t.Fatalf("valid mood rejected: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"grumpy":{}}`), &ranges); err == nil {
		t.Error("unknown mood accepted")
	}
}
