// Package clipboard publishes rendered selections and transcriptions to the
// desktop clipboard.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/example/cursive/internal/render"
)

var errEmptyImage = errors.New("clipboard: nothing to copy")

// Writer is the part of the clipboard the canvas uses.
type Writer interface {
	WriteImage(img image.Image) error
	WriteText(text string) error
}

// System writes to the desktop clipboard.
var System Writer = system{}

type system struct{}

func (system) WriteImage(img image.Image) error { return WriteImage(img) }
func (system) WriteText(text string) error      { return WriteText(text) }

// WriteImage encodes img as PNG and publishes it to the clipboard.
func WriteImage(img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return errEmptyImage
	}
	if err := ensureInit(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, img); err != nil {
		return fmt.Errorf("encode clipboard image: %w", err)
	}
	return writePNG(buf.Bytes())
}

// WriteText writes text data to the clipboard.
func WriteText(text string) error {
	if err := ensureInit(); err != nil {
		return err
	}
	return writeText([]byte(text))
}

// Memory keeps the last write in process. It stands in for System when no
// display is available.
type Memory struct {
	mu    sync.Mutex
	image image.Image
	text  string
}

func (m *Memory) WriteImage(img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return errEmptyImage
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.image, m.text = img, ""
	return nil
}

func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.image, m.text = nil, text
	return nil
}

// Contents returns whatever was written last.
func (m *Memory) Contents() (image.Image, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.image, m.text
}
