package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/example/cursive/internal/canvas"
	"github.com/example/cursive/internal/ink"
	"github.com/example/cursive/internal/input"
	"github.com/example/cursive/internal/notebook"
)

// replayStep is one entry of an event script. Exactly one of the fields
// Tool, Undo, Redo, NewDrawing or Kind is expected to be set.
type replayStep struct {
	Tool       string   `json:"tool,omitempty"`
	Undo       bool     `json:"undo,omitempty"`
	Redo       bool     `json:"redo,omitempty"`
	NewDrawing string   `json:"new_drawing,omitempty"`
	Kind       string   `json:"kind,omitempty"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Pressure   *float64 `json:"pressure,omitempty"`
	T          int64    `json:"t,omitempty"`
}

var pointerKinds = map[string]input.EventKind{
	"down":   input.PointerDown,
	"move":   input.PointerMove,
	"up":     input.PointerUp,
	"cancel": input.PointerCancel,
}

type replayCmd struct {
	*root
	fs       *flag.FlagSet
	notebook string
	script   string
	append   bool
	stdin    io.Reader
}

func (c *replayCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseReplayCmd(args []string, r *root) (*replayCmd, error) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	c := &replayCmd{root: r, fs: fs, stdin: os.Stdin}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.notebook, "notebook", "", "notebook ID to write to")
	fs.StringVar(&c.script, "script", "-", "JSON event script, - for stdin")
	fs.BoolVar(&c.append, "append", false, "keep the notebook's existing drawings")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.notebook == "" {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *replayCmd) Run() error {
	steps, err := c.readScript()
	if err != nil {
		return err
	}
	ctx := context.Background()
	sess, err := c.openSession(ctx, c.notebook)
	if err != nil {
		return fmt.Errorf("replay %s: %w", c.notebook, err)
	}
	if !c.append {
		// Start over on the drawings but keep the notebook's title and viewport.
		sess.State.Load(nil)
	}
	if err := replay(sess, steps); err != nil {
		return fmt.Errorf("replay %s: %w", c.notebook, err)
	}
	if err := sess.Save(ctx); err != nil {
		return fmt.Errorf("replay %s: %w", c.notebook, err)
	}
	c.notifier.Save(c.notebook)
	fmt.Fprintf(os.Stderr, "replayed %d events into %s (%d drawings)\n", len(steps), c.notebook, len(sess.State.Drawings()))
	return nil
}

func (c *replayCmd) readScript() ([]replayStep, error) {
	var r io.Reader = c.stdin
	if c.script != "-" && c.script != "" {
		f, err := os.Open(c.script)
		if err != nil {
			return nil, fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		r = f
	}
	var steps []replayStep
	if err := json.NewDecoder(r).Decode(&steps); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	return steps, nil
}

// replay feeds steps through the session's controller. Pointer events are
// in page space, which for a session without a window equals canvas space.
func replay(sess *notebook.Session, steps []replayStep) error {
	ctl := sess.Input
	for i, st := range steps {
		switch {
		case st.Tool != "":
			m, err := canvas.ParseMode(st.Tool)
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			ctl.SetMode(m)
		case st.Undo:
			if ctl.Undo() {
				sess.MarkDirty()
			}
		case st.Redo:
			if ctl.Redo() {
				sess.MarkDirty()
			}
		case st.NewDrawing != "":
			k, err := ink.ParseKind(st.NewDrawing)
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			sess.State.NewDrawing(k)
		case st.Kind != "":
			kind, ok := pointerKinds[st.Kind]
			if !ok {
				return fmt.Errorf("step %d: unknown event kind %q", i, st.Kind)
			}
			ev := input.PointerEvent{Kind: kind, X: st.X, Y: st.Y, Time: st.T}
			if st.Pressure != nil {
				ev.Pressure, ev.HasPressure = *st.Pressure, true
			}
			ctl.Handle(ev)
		default:
			return fmt.Errorf("step %d: empty step", i)
		}
	}
	if ctl.Active() {
		ctl.Handle(input.PointerEvent{Kind: input.PointerCancel})
	}
	return nil
}
