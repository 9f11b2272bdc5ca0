package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/example/cursive/internal/clipboard"
	"github.com/example/cursive/internal/input"
	"github.com/example/cursive/internal/render"
)

type transcribeCmd struct {
	*root
	fs          *flag.FlagSet
	notebook    string
	selection   string
	prompt      string
	save        bool
	toClipboard bool
	clip        clipboard.Writer
}

func (c *transcribeCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseTranscribeCmd(args []string, r *root) (*transcribeCmd, error) {
	fs := flag.NewFlagSet("transcribe", flag.ExitOnError)
	c := &transcribeCmd{root: r, fs: fs, clip: clipboard.System}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.notebook, "notebook", "", "notebook ID to read")
	fs.StringVar(&c.selection, "selection", "", "region x,y,w,h in canvas units; defaults to everything")
	fs.StringVar(&c.prompt, "prompt", "", "question to ask about the handwriting")
	fs.BoolVar(&c.save, "save", false, "store the transcription on the drawings and save the notebook")
	fs.BoolVar(&c.toClipboard, "to-clipboard", false, "copy the transcribed text to the clipboard")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.notebook == "" {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *transcribeCmd) Run() error {
	ctx := context.Background()
	sess, err := c.openSession(ctx, c.notebook)
	if err != nil {
		return fmt.Errorf("transcribe %s: %w", c.notebook, err)
	}

	var box input.SelectionBox
	if c.selection != "" {
		if box, err = parseSelection(c.selection); err != nil {
			return err
		}
	} else {
		r, ok := render.Bounds(sess.State.Drawings())
		if !ok {
			return fmt.Errorf("transcribe %s: notebook is empty", c.notebook)
		}
		box = input.SelectionBox{X: r.X0, Y: r.Y0, Width: r.Width(), Height: r.Height()}
	}

	callCtx, cancel := c.withTimeout(ctx)
	defer cancel()
	res, err := sess.Transcribe(callCtx, box, c.prompt)
	if err != nil {
		return fmt.Errorf("transcribe %s: %w", c.notebook, err)
	}
	fmt.Fprintln(c.out(), res.Text)
	if res.Reply != "" && res.Reply != res.Text {
		fmt.Fprintf(c.out(), "\n%s\n", res.Reply)
	}
	c.notifier.Transcribe(res.Text)

	if c.toClipboard {
		if err := c.clip.WriteText(res.Text); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		c.notifier.Copy("transcription", nil)
	}
	if c.save {
		if err := sess.Save(ctx); err != nil {
			return fmt.Errorf("transcribe %s: %w", c.notebook, err)
		}
		c.notifier.Save(c.notebook)
		fmt.Fprintf(os.Stderr, "saved %s\n", c.notebook)
	}
	return nil
}
