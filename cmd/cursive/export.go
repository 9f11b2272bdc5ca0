package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/example/cursive/internal/livingfont"
)

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type exportCmd struct {
	*root
	fs          *flag.FlagSet
	inputs      stringList
	output      string
	name        string
	author      string
	description string
	collector   *livingfont.Collector
}

func (c *exportCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseExportCmd(args []string, r *root) (*exportCmd, error) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	c := &exportCmd{root: r, fs: fs, collector: livingfont.NewCollector()}
	fs.Usage = usageFunc(c)
	fs.Var(&c.inputs, "input", "training export JSON to read; repeatable")
	fs.StringVar(&c.output, "output", "", "document to write, usually ending in "+livingfont.Extension)
	fs.StringVar(&c.name, "name", "", "font name")
	fs.StringVar(&c.author, "author", "", "author")
	fs.StringVar(&c.description, "description", "", "free text description")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if len(c.inputs) == 0 || c.output == "" {
		return nil, &UsageError{of: c}
	}
	if c.name == "" {
		c.name = strings.TrimSuffix(c.output, livingfont.Extension)
	}
	return c, nil
}

func (c *exportCmd) Run() error {
	for _, in := range c.inputs {
		e, err := readTraining(in)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		n := c.collector.AddTraining(e)
		fmt.Fprintf(os.Stderr, "%s: %d samples\n", in, n)
	}
	req := c.config.Requirements()
	meta := livingfont.Metadata{
		Name:        c.name,
		Author:      c.author,
		Description: c.description,
		Generator:   c.program + " " + version,
	}
	data, err := c.collector.Export(meta, req)
	if err != nil {
		var verr *livingfont.ValidationError
		if errors.As(err, &verr) {
			if missing := c.collector.Missing(req); len(missing) > 0 {
				fmt.Fprintf(os.Stderr, "need at least %d samples of: %s\n", req.MinSamples, strings.Join(missing, " "))
			}
		}
		return fmt.Errorf("export %s: %w", c.output, err)
	}
	if err := livingfont.WriteFile(c.output, data); err != nil {
		return fmt.Errorf("export %s: %w", c.output, err)
	}
	c.notifier.Export(c.output)
	fmt.Fprintf(os.Stderr, "saved %s\n", c.output)
	return nil
}
