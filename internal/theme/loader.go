package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Loader finds themes on disk and in the binary.
type Loader struct {
	ConfigDir string
	SystemDir string
}

// NewLoader uses the per-user and system theme directories.
func NewLoader() *Loader {
	home, _ := os.UserHomeDir()
	return &Loader{
		ConfigDir: filepath.Join(home, ".config", "cursive", "themes"),
		SystemDir: "/usr/share/cursive/themes",
	}
}

// Load finds a theme by path or name. Names are looked up in the embedded
// themes, then ConfigDir, then SystemDir. An empty name is the default.
func (l *Loader) Load(name string) (*Theme, error) {
	if name == "" {
		return Default(), nil
	}

	if strings.ContainsRune(name, filepath.Separator) || strings.HasSuffix(name, ".theme") {
		if t, err := parseFile(name); err == nil || !os.IsNotExist(err) {
			return t, err
		}
	}

	filename := strings.TrimSuffix(filepath.Base(name), ".theme") + ".theme"
	if f, err := EmbeddedThemes.Open("defaults/" + filename); err == nil {
		defer f.Close()
		return Parse(f)
	}
	for _, dir := range []string{l.ConfigDir, l.SystemDir} {
		if dir == "" {
			continue
		}
		t, err := parseFile(filepath.Join(dir, filename))
		if err == nil || !os.IsNotExist(err) {
			return t, err
		}
	}
	return nil, fmt.Errorf("theme %q not found", name)
}

// Names lists the embedded theme names.
func Names() []string {
	entries, err := EmbeddedThemes.ReadDir("defaults")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".theme"))
	}
	return names
}

func parseFile(path string) (*Theme, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", path, err)
	}
	return t, nil
}
