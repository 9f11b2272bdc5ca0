package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/example/cursive/internal/appstate"
	"github.com/example/cursive/internal/store"
)

type canvasCmd struct {
	*root
	fs       *flag.FlagSet
	notebook string
	width    int
	height   int
	prompt   string
	autosave bool
	snapshot string
}

func (c *canvasCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseCanvasCmd(args []string, r *root) (*canvasCmd, error) {
	fs := flag.NewFlagSet("canvas", flag.ExitOnError)
	c := &canvasCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.notebook, "notebook", "", "notebook ID to open; a new notebook when empty")
	fs.IntVar(&c.width, "width", 1024, "window width in pixels")
	fs.IntVar(&c.height, "height", 768, "window height in pixels")
	fs.StringVar(&c.prompt, "prompt", "", "question sent with every transcription")
	fs.BoolVar(&c.autosave, "autosave", true, "save unsaved changes when the window closes")
	fs.StringVar(&c.snapshot, "snapshot", "", "render one frame to this PNG instead of opening a window")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.width <= 0 || c.height <= 0 {
		return nil, fmt.Errorf("canvas: window size %dx%d is invalid", c.width, c.height)
	}
	return c, nil
}

func (c *canvasCmd) Run() error {
	ctx := context.Background()
	if c.notebook == "" {
		c.notebook = store.NewNotebookID()
		fmt.Fprintf(os.Stderr, "new notebook %s\n", c.notebook)
	}
	sess, err := c.openSession(ctx, c.notebook)
	if err != nil {
		return fmt.Errorf("canvas %s: %w", c.notebook, err)
	}

	st := appstate.New(sess,
		appstate.WithTheme(c.activeTheme),
		appstate.WithNotifier(c.notifier),
		appstate.WithPrompt(c.prompt),
		appstate.WithTimeout(c.config.AI.Timeout),
		appstate.WithSize(c.width, c.height),
	)
	if c.snapshot != "" {
		defer st.Close()
		return writePNG(c.snapshot, st.Frame())
	}
	st.Run()

	if c.autosave && sess.Dirty() {
		if err := sess.Save(ctx); err != nil {
			return fmt.Errorf("canvas %s: %w", c.notebook, err)
		}
		c.notifier.Save(c.notebook)
		fmt.Fprintf(os.Stderr, "saved %s\n", c.notebook)
	}
	return nil
}
