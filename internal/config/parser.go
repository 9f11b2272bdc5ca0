package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/example/cursive/internal/ink"
	"github.com/example/cursive/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string
	var currentTheme *theme.Theme

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(line, "["), "]"))
			currentTheme = nil

			if name, ok := strings.CutPrefix(currentSection, "theme."); ok {
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = name
				cfg.Themes[name] = currentTheme
			}
			continue
		}

		// Key = Value or Key: Value. Theme colors may contain neither.
		var key, value string
		if k, v, ok := strings.Cut(line, "="); ok {
			key, value = k, v
		} else if k, v, ok := strings.Cut(line, ":"); ok {
			key, value = k, v
		} else {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		var err error
		switch {
		case currentTheme != nil:
			err = theme.Set(currentTheme, key, value)
		case currentSection == "":
			err = setRootField(cfg, key, value)
		case currentSection == "pen":
			err = setPenField(&cfg.Pen, key, value)
		case currentSection == "zoom":
			err = setZoomField(&cfg.Zoom, key, value)
		case currentSection == "erase":
			err = setFloat(key, value, map[string]*float64{"tolerance": &cfg.Erase.Tolerance})
		case currentSection == "history":
			err = setInt(key, value, map[string]*int{"limit": &cfg.History.Limit})
		case currentSection == "export":
			err = setInt(key, value, map[string]*int{
				"min_characters": &cfg.Export.MinCharacters,
				"min_samples":    &cfg.Export.MinSamples,
				"max_samples":    &cfg.Export.MaxSamples,
			})
		case currentSection == "ai":
			err = setAIField(&cfg.AI, key, value)
		case currentSection == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		}
		if err != nil {
			if currentSection == "" {
				return nil, fmt.Errorf("error in root section: %w", err)
			}
			return nil, fmt.Errorf("error in section [%s]: %w", currentSection, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Zoom.Min <= 0 || c.Zoom.Max < c.Zoom.Min {
		return fmt.Errorf("invalid zoom range %g..%g", c.Zoom.Min, c.Zoom.Max)
	}
	if c.Pen.Width <= 0 {
		return fmt.Errorf("pen width must be positive, got %g", c.Pen.Width)
	}
	if c.Export.MinSamples > c.Export.MaxSamples {
		return fmt.Errorf("export min_samples %d exceeds max_samples %d", c.Export.MinSamples, c.Export.MaxSamples)
	}
	return nil
}

func setRootField(cfg *Config, key, value string) error {
	switch key {
	case "theme":
		cfg.Theme = value
	case "store_dir":
		cfg.StoreDir = value
	}
	return nil
}

func setPenField(p *Pen, key, value string) error {
	switch key {
	case "color":
		c, err := ink.ParseColor(value)
		if err != nil {
			return fmt.Errorf("invalid color for key %s: %w", key, err)
		}
		p.Color = ink.FormatColor(c)
		return nil
	}
	return setFloat(key, value, map[string]*float64{"width": &p.Width})
}

func setZoomField(z *Zoom, key, value string) error {
	return setFloat(key, value, map[string]*float64{"min": &z.Min, "max": &z.Max, "step": &z.Step})
}

func setAIField(a *AI, key, value string) error {
	switch key {
	case "model":
		a.Model = value
	case "api_key_env":
		a.APIKeyEnv = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for key %s: %w", key, err)
		}
		a.Timeout = d
	case "retries":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid retry count for key %s: %q", key, value)
		}
		a.Retries = n
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch key {
	case "save":
		n.Save = b
	case "export":
		n.Export = b
	case "copy":
		n.Copy = b
	case "transcribe":
		n.Transcribe = b
	}
	return nil
}

func setFloat(key, value string, fields map[string]*float64) error {
	dst, ok := fields[key]
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid number for key %s: %w", key, err)
	}
	*dst = f
	return nil
}

func setInt(key, value string, fields map[string]*int) error {
	dst, ok := fields[key]
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer for key %s: %w", key, err)
	}
	*dst = n
	return nil
}
