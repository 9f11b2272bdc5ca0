//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

var (
	initOnce     sync.Once
	initErr      error
	errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")
	backend      *x11Clipboard
)

func ensureInit() error {
	initOnce.Do(func() {
		if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			initErr = errNoDisplay
			return
		}
		clip := &x11Clipboard{}
		if err := clip.initialize(); err != nil {
			initErr = err
			return
		}
		backend = clip
	})
	return initErr
}

func writePNG(data []byte) error  { return backend.writeImage(data) }
func writeText(data []byte) error { return backend.writeText(data) }

// x11Clipboard owns the CLIPBOARD selection and answers conversion requests
// until another client takes it over.
type x11Clipboard struct {
	conn      *xgb.Conn
	window    xproto.Window
	atoms     atomSet
	mu        sync.RWMutex
	textData  []byte
	imageData []byte
}

type atomSet struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	utf8      xproto.Atom
	textPlain xproto.Atom
	png       xproto.Atom
}

func (c *x11Clipboard) initialize() error {
	conn, err := xgb.NewConn()
	if err != nil {
		return err
	}
	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return err
	}
	const eventMask = xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify
	if err := xproto.CreateWindowChecked(conn, screen.RootDepth, window, screen.Root, 0, 0, 1, 1, 0, xproto.WindowClassInputOutput, screen.RootVisual, xproto.CwEventMask, []uint32{eventMask}).Check(); err != nil {
		conn.Close()
		return err
	}
	atoms, err := internAtoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, window)
		conn.Close()
		return err
	}
	c.conn = conn
	c.window = window
	c.atoms = atoms
	go c.eventLoop()
	return nil
}

// internAtoms pipelines every InternAtom request before waiting on replies.
func internAtoms(conn *xgb.Conn) (atomSet, error) {
	names := []string{"CLIPBOARD", "TARGETS", "UTF8_STRING", "text/plain;charset=utf-8", "image/png"}
	cookies := make([]xproto.InternAtomCookie, len(names))
	for i, n := range names {
		cookies[i] = xproto.InternAtom(conn, false, uint16(len(n)), n)
	}
	atoms := make([]xproto.Atom, len(names))
	for i, ck := range cookies {
		reply, err := ck.Reply()
		if err != nil {
			return atomSet{}, fmt.Errorf("intern atom %s: %w", names[i], err)
		}
		atoms[i] = reply.Atom
	}
	return atomSet{clipboard: atoms[0], targets: atoms[1], utf8: atoms[2], textPlain: atoms[3], png: atoms[4]}, nil
}

func (c *x11Clipboard) writeText(data []byte) error {
	return c.own(append([]byte(nil), data...), nil)
}

func (c *x11Clipboard) writeImage(data []byte) error {
	return c.own(nil, append([]byte(nil), data...))
}

// own replaces the offered data and claims the selection.
func (c *x11Clipboard) own(text, img []byte) error {
	c.mu.Lock()
	c.textData, c.imageData = text, img
	c.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(c.conn, c.window, c.atoms.clipboard, xproto.TimeCurrentTime).Check()
}

func (c *x11Clipboard) eventLoop() {
	for {
		ev, err := c.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			c.answer(e)
		case xproto.SelectionClearEvent:
			c.mu.Lock()
			c.textData, c.imageData = nil, nil
			c.mu.Unlock()
		}
	}
}

// convert returns the property type, format and payload for a requested
// target, or ok=false when we hold nothing of that kind.
func (c *x11Clipboard) convert(target xproto.Atom) (typ xproto.Atom, format byte, payload []byte, ok bool) {
	c.mu.RLock()
	text, img := c.textData, c.imageData
	c.mu.RUnlock()

	switch target {
	case c.atoms.targets:
		offered := []xproto.Atom{c.atoms.targets}
		if len(text) > 0 {
			offered = append(offered, c.atoms.utf8, xproto.AtomString, c.atoms.textPlain)
		}
		if len(img) > 0 {
			offered = append(offered, c.atoms.png)
		}
		buf := make([]byte, len(offered)*4)
		for i, a := range offered {
			xgb.Put32(buf[i*4:], uint32(a))
		}
		return xproto.AtomAtom, 32, buf, true
	case c.atoms.utf8, xproto.AtomString, c.atoms.textPlain:
		return c.atoms.utf8, 8, text, len(text) > 0
	case c.atoms.png:
		return c.atoms.png, 8, img, len(img) > 0
	}
	return 0, 0, nil, false
}

func (c *x11Clipboard) answer(e xproto.SelectionRequestEvent) {
	property := e.Property
	if property == xproto.AtomNone {
		property = e.Target
	}
	if typ, format, payload, ok := c.convert(e.Target); ok {
		length := uint32(len(payload)) / uint32(format/8)
		xproto.ChangeProperty(c.conn, xproto.PropModeReplace, e.Requestor, property, typ, format, length, payload)
	} else {
		property = xproto.AtomNone
	}
	notify := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  property,
	}
	_ = xproto.SendEvent(c.conn, false, e.Requestor, 0, string(notify.Bytes()))
}
