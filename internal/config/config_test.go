package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/example/cursive/internal/canvas"
)

func TestParse(t *testing.T) {
	input := `
theme = my_custom_theme
store_dir = /tmp/notebooks

[pen]
color = navy
width = 3.5

[zoom]
min = 0.5
max = 4

[history]
limit = 25

[export]
min_characters = 5

[ai]
model = test-model
timeout = 15s
retries = 4

[notify]
save = true
copy = false
transcribe = true

[theme.my_custom_theme]
Paper = #111111
Ink = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Theme != "my_custom_theme" {
		t.Errorf("Expected theme 'my_custom_theme', got '%s'", cfg.Theme)
	}
	if cfg.StoreDir != "/tmp/notebooks" {
		t.Errorf("Expected store_dir '/tmp/notebooks', got '%s'", cfg.StoreDir)
	}
	if cfg.Pen.Color != "#000080" || cfg.Pen.Width != 3.5 {
		t.Errorf("Unexpected pen: %+v", cfg.Pen)
	}
	if cfg.Zoom.Min != 0.5 || cfg.Zoom.Max != 4 || cfg.Zoom.Step != 0.1 {
		t.Errorf("Unexpected zoom: %+v", cfg.Zoom)
	}
	if cfg.History.Limit != 25 {
		t.Errorf("Expected history limit 25, got %d", cfg.History.Limit)
	}
	if cfg.Export.MinCharacters != 5 || cfg.Export.MinSamples != 3 {
		t.Errorf("Unexpected export: %+v", cfg.Export)
	}
	if cfg.AI.Model != "test-model" || cfg.AI.Timeout != 15*time.Second || cfg.AI.Retries != 4 {
		t.Errorf("Unexpected ai: %+v", cfg.AI)
	}
	if !cfg.Notify.Save || cfg.Notify.Copy || !cfg.Notify.Transcribe || cfg.Notify.Export {
		t.Errorf("Unexpected notify: %+v", cfg.Notify)
	}

	theme, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}
	if theme.Paper.R != 0x11 || theme.Paper.G != 0x11 || theme.Paper.B != 0x11 {
		t.Errorf("Unexpected Paper color: %+v", theme.Paper)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bad bool", "[notify]\nsave = maybe\n", "[notify]"},
		{"bad width", "[pen]\nwidth = wide\n", "[pen]"},
		{"zero width", "[pen]\nwidth = 0\n", "pen width"},
		{"bad color", "[pen]\ncolor = notacolor\n", "invalid color"},
		{"inverted zoom", "[zoom]\nmin = 5\nmax = 2\n", "zoom range"},
		{"bad duration", "[ai]\ntimeout = soon\n", "[ai]"},
		{"negative retries", "[ai]\nretries = -1\n", "[ai]"},
		{"samples", "[export]\nmin_samples = 30\n", "max_samples"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestCircular(t *testing.T) {
	input := `theme = dark
store_dir = /home/user/notebooks

[pen]
color = #336699
width = 1.5

[erase]
tolerance = 12

[notify]
save = true
export = true
copy = false

[theme.custom]
Name = custom
Paper = #000000
Ink = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}

	generated := cfg.String()

	cfg2, err := Parse(strings.NewReader(generated))
	if err != nil {
		t.Fatalf("Circular parse failed: %v\n%s", err, generated)
	}

	if diff := cmp.Diff(cfg, cfg2); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTools(t *testing.T) {
	cfg := New()
	cfg.Pen.Color = "#FF0000"
	cfg.Zoom.Max = 3
	reg := cfg.Tools()
	if got := reg.Pen().Settings.Color; got != "#FF0000" {
		t.Errorf("pen color = %q", got)
	}
	if got := reg.Zoom().Settings.Max; got != 3 {
		t.Errorf("zoom max = %g", got)
	}
	if _, ok := reg[canvas.ModeErase]; !ok {
		t.Error("erase tool missing")
	}
	if got := cfg.Requirements().MaxSamples; got != 20 {
		t.Errorf("max samples = %d", got)
	}
}

func TestLoaderPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("CURSIVE_THEME", "")
	t.Setenv("CURSIVE_STORE_DIR", "")

	path := filepath.Join(dir, "override.rc")
	if err := os.WriteFile(path, []byte("theme = dark\nstore_dir = /from/file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader("v1.0.0", path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Theme != "dark" || cfg.StoreDir != "/from/file" {
		t.Errorf("file values not applied: %q %q", cfg.Theme, cfg.StoreDir)
	}

	t.Setenv("CURSIVE_STORE_DIR", "/from/env")
	cfg, err = NewLoader("v1.0.0", path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoreDir != "/from/env" {
		t.Errorf("env should override file, got %q", cfg.StoreDir)
	}
	if cfg.Theme != "dark" {
		t.Errorf("theme = %q", cfg.Theme)
	}
}

func TestLoaderDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("CURSIVE_THEME", "")
	t.Setenv("CURSIVE_STORE_DIR", "")

	l := NewLoader("v1.0.0", "")
	if p := l.GetConfigPath(); p != "" {
		t.Fatalf("expected no config path, got %q", p)
	}
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(New(), cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}

	cfg.Theme = "chalkboard"
	if err := Save(DefaultPath(dir), cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if p := l.GetConfigPath(); p != DefaultPath(dir) {
		t.Errorf("GetConfigPath = %q, want %q", p, DefaultPath(dir))
	}
	got, err := l.Load()
	if err != nil {
		t.Fatalf("Load saved: %v", err)
	}
	if got.Theme != "chalkboard" {
		t.Errorf("theme = %q", got.Theme)
	}
}
