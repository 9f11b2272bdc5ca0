package main

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"
)

type listCmd struct {
	*root
	fs *flag.FlagSet
}

func (c *listCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseListCmd(args []string, r *root) (*listCmd, error) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	c := &listCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *listCmd) Run() error {
	ctx := context.Background()
	list, err := c.store().List(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	w := tabwriter.NewWriter(c.out(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUPDATED\tDRAWINGS\tTITLE")
	for _, s := range list {
		title := s.Title
		if title == "" {
			title = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, s.Updated.Local().Format(time.DateTime), s.Drawings, title)
	}
	return w.Flush()
}
