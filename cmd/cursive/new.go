package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/example/cursive/internal/store"
)

type newCmd struct {
	*root
	fs          *flag.FlagSet
	title       string
	description string
}

func (c *newCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseNewCmd(args []string, r *root) (*newCmd, error) {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	c := &newCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.title, "title", "", "notebook title; saves the empty notebook right away")
	fs.StringVar(&c.description, "description", "", "notebook description")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *newCmd) Run() error {
	id := store.NewNotebookID()
	if c.title != "" || c.description != "" {
		ctx := context.Background()
		nb := &store.Notebook{ID: id, Title: c.title, Description: c.description}
		if err := c.store().Save(ctx, nb); err != nil {
			return fmt.Errorf("new %s: %w", id, err)
		}
		fmt.Fprintf(os.Stderr, "saved %s\n", id)
	}
	fmt.Fprintln(c.out(), id)
	return nil
}
