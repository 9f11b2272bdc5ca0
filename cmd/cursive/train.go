package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/example/cursive/internal/ink"
	"github.com/example/cursive/internal/livingfont"
	"github.com/example/cursive/internal/store"
)

// skipLabel leaves a drawing out of the export.
const skipLabel = "_"

type trainCmd struct {
	*root
	fs       *flag.FlagSet
	notebook string
	labels   string
	mood     string
	output   string
	append   bool
	now      func() time.Time
}

func (c *trainCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseTrainCmd(args []string, r *root) (*trainCmd, error) {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	c := &trainCmd{root: r, fs: fs, now: time.Now}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.notebook, "notebook", "", "notebook ID holding one drawing per character")
	fs.StringVar(&c.labels, "labels", "", "characters written, one per drawing; may carry {mood:intensity} tags")
	fs.StringVar(&c.mood, "mood", "", "mood for labels without a tag, as mood or mood:intensity")
	fs.StringVar(&c.output, "output", "", "training export JSON to write")
	fs.BoolVar(&c.append, "append", false, "add to an existing export instead of replacing it")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.notebook == "" || c.labels == "" || c.output == "" {
		return nil, &UsageError{of: c}
	}
	if c.mood != "" {
		if _, err := livingfont.ParseTag(c.mood); err != nil {
			return nil, fmt.Errorf("train: -mood: %w", err)
		}
	}
	return c, nil
}

// labelled pairs drawings with the characters in labels. A label of "_"
// skips its drawing; drawings past the last label are left out.
func labelled(drawings []*ink.Drawing, labels, mood string) ([]livingfont.Labelled, error) {
	if mood != "" {
		labels = "{" + mood + "}" + labels
	}
	spans, err := livingfont.ParseMarkup(labels)
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	var out []livingfont.Labelled
	i := 0
	for _, sp := range spans {
		for _, r := range sp.Text {
			ch := string(r)
			if strings.TrimSpace(ch) == "" {
				continue
			}
			if i >= len(drawings) {
				return nil, fmt.Errorf("labels: more labels than the %d drawings", len(drawings))
			}
			d := drawings[i]
			i++
			if ch == skipLabel || len(d.Strokes) == 0 {
				continue
			}
			out = append(out, livingfont.Labelled{Character: ch, Strokes: d.Strokes, Tag: sp.Tag})
		}
	}
	if i < len(drawings) {
		fmt.Fprintf(os.Stderr, "warning: %d drawings have no label\n", len(drawings)-i)
	}
	return out, nil
}

func (c *trainCmd) Run() error {
	if err := store.ValidateID(c.notebook); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	drawings, err := store.LoadDrawings(context.Background(), c.store(), c.notebook)
	if err != nil {
		return fmt.Errorf("train %s: %w", c.notebook, err)
	}
	items, err := labelled(drawings, c.labels, c.mood)
	if err != nil {
		return fmt.Errorf("train %s: %w", c.notebook, err)
	}
	if c.append {
		prev, err := readTraining(c.output)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return err
		default:
			items = append(prev.Labelled(), items...)
		}
	}
	export := livingfont.NewTrainingExport(items, c.now())

	f, err := os.Create(c.output)
	if err != nil {
		return fmt.Errorf("create %s: %w", c.output, err)
	}
	if err := export.Encode(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", c.output, err)
	}
	c.notifier.Export(c.output)
	fmt.Fprintf(os.Stderr, "wrote %d strokes for %d characters to %s\n",
		export.Metadata.TotalSamples, len(export.Metadata.Characters), c.output)
	return nil
}

func readTraining(path string) (*livingfont.TrainingExport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	e, err := livingfont.ReadTrainingExport(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}
