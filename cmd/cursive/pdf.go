package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/example/cursive/internal/render"
)

type pdfCmd struct {
	*root
	fs       *flag.FlagSet
	notebook string
	output   string
	margin   float64
	perPage  bool
	title    string
}

func (c *pdfCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parsePDFCmd(args []string, r *root) (*pdfCmd, error) {
	fs := flag.NewFlagSet("pdf", flag.ExitOnError)
	c := &pdfCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.notebook, "notebook", "", "notebook ID to export")
	fs.StringVar(&c.output, "output", "", "PDF file to write")
	fs.Float64Var(&c.margin, "margin", 10, "page margin in millimetres")
	fs.BoolVar(&c.perPage, "page-per-drawing", false, "put every drawing on its own page")
	fs.StringVar(&c.title, "title", "", "document title; defaults to the notebook title")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.notebook == "" || c.output == "" {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *pdfCmd) Run() error {
	sess, err := c.openSession(context.Background(), c.notebook)
	if err != nil {
		return fmt.Errorf("pdf %s: %w", c.notebook, err)
	}
	drawings := sess.State.Drawings()
	if len(drawings) == 0 {
		return fmt.Errorf("pdf %s: notebook is empty", c.notebook)
	}
	f, err := os.Create(c.output)
	if err != nil {
		return fmt.Errorf("create %s: %w", c.output, err)
	}
	if c.title == "" {
		c.title = sess.Title
	}
	opts := render.PDFOptions{MarginMM: c.margin, PagePerDrawing: c.perPage, Title: c.title}
	if err := render.WritePDF(f, drawings, opts); err != nil {
		f.Close()
		return fmt.Errorf("pdf %s: %w", c.notebook, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", c.output, err)
	}
	c.notifier.Export(c.output)
	fmt.Fprintf(os.Stderr, "saved %s\n", c.output)
	return nil
}
