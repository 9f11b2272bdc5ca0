// Package notify raises desktop notifications when notebook work finishes.
package notify

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/cursive/internal/platform"
	"github.com/example/cursive/internal/render"
)

// Event identifies what finished.
type Event string

const (
	EventSave       Event = "save"
	EventExport     Event = "export"
	EventCopy       Event = "copy"
	EventTranscribe Event = "transcribe"
)

// Events lists every event in a stable order.
var Events = []Event{EventSave, EventExport, EventCopy, EventTranscribe}

// Preferences holds the title and per-event message templates. Each
// template takes a single %s.
type Preferences struct {
	Title     string
	Templates map[Event]string
}

// DefaultPreferences returns the built-in messages.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "Cursive",
		Templates: map[Event]string{
			EventSave:       "Saved %s",
			EventExport:     "Exported %s",
			EventCopy:       "Copied %s to clipboard",
			EventTranscribe: "Read: %s",
		},
	}
}

// LoadPreferences applies CURSIVE_NOTIFY_TITLE and CURSIVE_NOTIFY_<EVENT>_TEXT
// overrides to the defaults.
func LoadPreferences() Preferences {
	p := DefaultPreferences()
	if v := strings.TrimSpace(os.Getenv("CURSIVE_NOTIFY_TITLE")); v != "" {
		p.Title = v
	}
	for _, e := range Events {
		key := "CURSIVE_NOTIFY_" + strings.ToUpper(string(e)) + "_TEXT"
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			p.Templates[e] = v
		}
	}
	return p
}

// Sender delivers a notification. It is platform.Notify outside tests.
type Sender func(title, body string, opts platform.Options) error

// Notifier sends the events that have been enabled.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	send    Sender
}

// New returns a notifier with every event disabled.
func New(prefs Preferences) *Notifier {
	tmpl := make(map[Event]string, len(prefs.Templates))
	for k, v := range prefs.Templates {
		tmpl[k] = v
	}
	return &Notifier{
		prefs:   Preferences{Title: prefs.Title, Templates: tmpl},
		enabled: map[Event]bool{},
		send:    platform.Notify,
	}
}

// Enable turns an event on or off.
func (n *Notifier) Enable(e Event, on bool) {
	if n == nil {
		return
	}
	n.enabled[e] = on
}

// Enabled reports whether e will be sent.
func (n *Notifier) Enabled(e Event) bool {
	return n != nil && n.enabled[e]
}

// Save reports a notebook saved under id.
func (n *Notifier) Save(id string) {
	n.dispatch(EventSave, "notebook "+id, platform.Options{})
}

// Export reports a written file. PNG files are used as the icon.
func (n *Notifier) Export(path string) {
	if !n.Enabled(EventExport) {
		return
	}
	detail := path
	opts := platform.Options{}
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
		if strings.EqualFold(filepath.Ext(abs), ".png") {
			opts.IconPath = abs
		}
	}
	n.dispatch(EventExport, detail, opts)
}

// Copy reports a clipboard copy, with a preview when img is set.
func (n *Notifier) Copy(detail string, img image.Image) {
	if !n.Enabled(EventCopy) {
		return
	}
	if strings.TrimSpace(detail) == "" {
		detail = "selection"
	}
	opts := platform.Options{}
	if img != nil {
		path, cleanup, err := writePreview(img)
		if err != nil {
			log.Printf("notification preview: %v", err)
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(EventCopy, detail, opts)
}

// Transcribe reports transcribed text, shortened for display.
func (n *Notifier) Transcribe(text string) {
	const limit = 80
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > limit {
		text = string(r[:limit-1]) + "…"
	}
	n.dispatch(EventTranscribe, text, platform.Options{Timeout: 10 * time.Second})
}

func (n *Notifier) dispatch(e Event, detail string, opts platform.Options) {
	if !n.Enabled(e) {
		return
	}
	tmpl := strings.TrimSpace(n.prefs.Templates[e])
	if tmpl == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(tmpl, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	opts.AppName = n.prefs.Title
	if err := n.send(n.prefs.Title, body, opts); err != nil {
		log.Printf("notification %s: %v", e, err)
	}
}

func writePreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "cursive-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := render.EncodePNG(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", nil, err
	}
	return path, func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove preview: %v", err)
		}
	}, nil
}
