package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/example/cursive/internal/store"
)

type deleteCmd struct {
	*root
	fs *flag.FlagSet
}

func (c *deleteCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseDeleteCmd(args []string, r *root) (*deleteCmd, error) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	c := &deleteCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() == 0 {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *deleteCmd) Run() error {
	ctx := context.Background()
	for _, id := range c.fs.Args() {
		if err := store.ValidateID(id); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
		if err := c.store().Delete(ctx, id); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
		fmt.Fprintf(os.Stderr, "deleted %s\n", id)
	}
	return nil
}
