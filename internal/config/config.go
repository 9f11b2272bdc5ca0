package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/example/cursive/internal/input"
	"github.com/example/cursive/internal/livingfont"
	"github.com/example/cursive/internal/notify"
	"github.com/example/cursive/internal/theme"
)

// Pen holds the default pen.
type Pen struct {
	Color string
	Width float64
}

// Zoom bounds the viewport scale.
type Zoom struct {
	Min  float64
	Max  float64
	Step float64
}

// Erase configures the eraser.
type Erase struct {
	Tolerance float64
}

// History bounds the undo stack.
type History struct {
	Limit int
}

// Export holds the .livingfont coverage rules.
type Export struct {
	MinCharacters int
	MinSamples    int
	MaxSamples    int
}

// AI configures the transcription service.
type AI struct {
	Model     string
	APIKeyEnv string
	Timeout   time.Duration
	// Retries is the number of extra attempts after a rate limit or
	// server error.
	Retries int
}

// Notify holds notification settings.
type Notify struct {
	Save       bool
	Export     bool
	Copy       bool
	Transcribe bool
}

// Config holds the application configuration.
type Config struct {
	Theme    string
	StoreDir string
	Pen      Pen
	Zoom     Zoom
	Erase    Erase
	History  History
	Export   Export
	AI       AI
	Notify   Notify
	Themes   map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	req := livingfont.DefaultRequirements
	return &Config{
		Pen:     Pen{Color: input.DefaultPen.Color, Width: input.DefaultPen.Width},
		Zoom:    Zoom{Min: input.DefaultZoom.Min, Max: input.DefaultZoom.Max, Step: input.DefaultZoom.Step},
		Erase:   Erase{Tolerance: input.DefaultErase.Tolerance},
		History: History{Limit: 100},
		Export: Export{
			MinCharacters: req.MinCharacters,
			MinSamples:    req.MinSamples,
			MaxSamples:    req.MaxSamples,
		},
		AI: AI{
			Model:     "claude-sonnet-4-5",
			APIKeyEnv: "ANTHROPIC_API_KEY",
			Timeout:   60 * time.Second,
			Retries:   2,
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// ApplyEnv overrides values from CURSIVE_THEME and CURSIVE_STORE_DIR.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("CURSIVE_THEME")); v != "" {
		c.Theme = v
	}
	if v := strings.TrimSpace(os.Getenv("CURSIVE_STORE_DIR")); v != "" {
		c.StoreDir = v
	}
}

// ResolveStoreDir returns StoreDir, or the per-user data directory when unset.
func (c *Config) ResolveStoreDir() string {
	if c.StoreDir != "" {
		return c.StoreDir
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "cursive" + string(os.PathSeparator) + "notebooks"
	}
	return "notebooks"
}

// ResolveTheme returns the named theme from the config, falling back to the
// theme loader.
func (c *Config) ResolveTheme(l *theme.Loader) (*theme.Theme, error) {
	if t, ok := c.Themes[c.Theme]; ok {
		return t, nil
	}
	return l.Load(c.Theme)
}

// Tools builds the tool registry from the pen, zoom and erase sections.
func (c *Config) Tools() input.Registry {
	return input.NewRegistry(
		input.PenSettings{Color: c.Pen.Color, Width: c.Pen.Width},
		input.ZoomSettings{Min: c.Zoom.Min, Max: c.Zoom.Max, Step: c.Zoom.Step},
		input.EraseSettings{Tolerance: c.Erase.Tolerance},
	)
}

// Requirements returns the export coverage rules.
func (c *Config) Requirements() livingfont.Requirements {
	return livingfont.Requirements{
		MinCharacters: c.Export.MinCharacters,
		MinSamples:    c.Export.MinSamples,
		MaxSamples:    c.Export.MaxSamples,
	}
}

// APIKey reads the key from the configured environment variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.AI.APIKeyEnv)
}

// Notifier returns a notifier with the configured events enabled.
func (c *Config) Notifier() *notify.Notifier {
	n := notify.New(notify.LoadPreferences())
	n.Enable(notify.EventSave, c.Notify.Save)
	n.Enable(notify.EventExport, c.Notify.Export)
	n.Enable(notify.EventCopy, c.Notify.Copy)
	n.Enable(notify.EventTranscribe, c.Notify.Transcribe)
	return n
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.StoreDir != "" {
		fmt.Fprintf(&sb, "store_dir = %s\n", c.StoreDir)
	}
	sb.WriteString("\n")

	sb.WriteString("[pen]\n")
	fmt.Fprintf(&sb, "color = %s\n", c.Pen.Color)
	fmt.Fprintf(&sb, "width = %g\n\n", c.Pen.Width)

	sb.WriteString("[zoom]\n")
	fmt.Fprintf(&sb, "min = %g\n", c.Zoom.Min)
	fmt.Fprintf(&sb, "max = %g\n", c.Zoom.Max)
	fmt.Fprintf(&sb, "step = %g\n\n", c.Zoom.Step)

	sb.WriteString("[erase]\n")
	fmt.Fprintf(&sb, "tolerance = %g\n\n", c.Erase.Tolerance)

	sb.WriteString("[history]\n")
	fmt.Fprintf(&sb, "limit = %d\n\n", c.History.Limit)

	sb.WriteString("[export]\n")
	fmt.Fprintf(&sb, "min_characters = %d\n", c.Export.MinCharacters)
	fmt.Fprintf(&sb, "min_samples = %d\n", c.Export.MinSamples)
	fmt.Fprintf(&sb, "max_samples = %d\n\n", c.Export.MaxSamples)

	sb.WriteString("[ai]\n")
	fmt.Fprintf(&sb, "model = %s\n", c.AI.Model)
	fmt.Fprintf(&sb, "api_key_env = %s\n", c.AI.APIKeyEnv)
	fmt.Fprintf(&sb, "timeout = %s\n", c.AI.Timeout)
	fmt.Fprintf(&sb, "retries = %d\n\n", c.AI.Retries)

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "export = %v\n", c.Notify.Export)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	fmt.Fprintf(&sb, "transcribe = %v\n", c.Notify.Transcribe)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, kv := range theme.Fields(t) {
			fmt.Fprintf(&sb, "%s: %s\n", kv[0], kv[1])
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
