package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"

	"github.com/example/cursive/internal/clipboard"
	"github.com/example/cursive/internal/render"
)

type renderCmd struct {
	*root
	fs          *flag.FlagSet
	notebook    string
	output      string
	selection   string
	scale       float64
	padding     float64
	shadow      bool
	transparent bool
	toClipboard bool
	clip        clipboard.Writer
}

func (c *renderCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseRenderCmd(args []string, r *root) (*renderCmd, error) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	c := &renderCmd{root: r, fs: fs, clip: clipboard.System}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.notebook, "notebook", "", "notebook ID to render")
	fs.StringVar(&c.output, "output", "", "PNG file to write")
	fs.StringVar(&c.selection, "selection", "", "only render the region x,y,w,h in canvas units")
	fs.Float64Var(&c.scale, "scale", render.DefaultOptions.Scale, "pixels per canvas unit")
	fs.Float64Var(&c.padding, "padding", render.DefaultOptions.Padding, "margin around the content in canvas units")
	fs.BoolVar(&c.shadow, "shadow", false, "draw a drop shadow under the page")
	fs.BoolVar(&c.transparent, "transparent", false, "leave the background transparent")
	fs.BoolVar(&c.toClipboard, "to-clipboard", false, "copy the image to the clipboard")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.notebook == "" {
		return nil, &UsageError{of: c}
	}
	if c.output == "" && !c.toClipboard {
		return nil, fmt.Errorf("render: -output or -to-clipboard is required")
	}
	return c, nil
}

func (c *renderCmd) Run() error {
	sess, err := c.openSession(context.Background(), c.notebook)
	if err != nil {
		return fmt.Errorf("render %s: %w", c.notebook, err)
	}
	opts := render.DefaultOptions
	opts.Scale = c.scale
	opts.Padding = c.padding
	if c.transparent {
		opts.Background = nil
	} else if c.activeTheme != nil {
		opts.Background = c.activeTheme.Paper
	}

	var img *image.RGBA
	if c.selection != "" {
		box, err := parseSelection(c.selection)
		if err != nil {
			return err
		}
		img, err = render.Region(sess.State.Drawings(), box.Rect(), opts)
		if err != nil {
			return fmt.Errorf("render %s: %w", c.notebook, err)
		}
	} else {
		img, err = render.Rasterize(sess.State.Drawings(), opts)
		if err != nil {
			return fmt.Errorf("render %s: %w", c.notebook, err)
		}
	}
	if c.shadow {
		img, _ = render.WithShadow(img, render.DefaultShadowOptions())
	}

	if c.output != "" {
		if err := writePNG(c.output, img); err != nil {
			return err
		}
		c.notifier.Export(c.output)
		fmt.Fprintf(os.Stderr, "saved %s\n", c.output)
	}
	if c.toClipboard {
		if err := c.clip.WriteImage(img); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		c.notifier.Copy("notebook "+c.notebook, img)
		fmt.Fprintln(os.Stderr, "copied to clipboard")
	}
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := render.EncodePNG(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
