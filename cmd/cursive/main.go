package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/example/cursive/internal/canvas"
	"github.com/example/cursive/internal/config"
	"github.com/example/cursive/internal/input"
	"github.com/example/cursive/internal/notebook"
	"github.com/example/cursive/internal/notify"
	"github.com/example/cursive/internal/store"
	"github.com/example/cursive/internal/theme"
	"github.com/example/cursive/internal/transcribe"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs               *flag.FlagSet
	program          string
	notifier         *notify.Notifier
	config           *config.Config
	saveAlerts       bool
	exportAlerts     bool
	copyAlerts       bool
	transcribeAlerts bool
	themeName        string
	storeDir         string
	activeTheme      *theme.Theme
	stdout           io.Writer

	// newStore and newTranscriber are replaced in tests.
	newStore       func(dir string) store.Store
	newTranscriber func(cfg *config.Config) transcribe.Transcriber
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
		cfg.ApplyEnv()
	}

	r := &root{
		fs:       flag.NewFlagSet("cursive", flag.ExitOnError),
		program:  "cursive",
		notifier: cfg.Notifier(),
		config:   cfg,
		stdout:   os.Stdout,
	}
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving a notebook")
	r.fs.BoolVar(&r.exportAlerts, "notify-export", cfg.Notify.Export, "show a desktop notification after exporting a file")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	r.fs.BoolVar(&r.transcribeAlerts, "notify-transcribe", cfg.Notify.Transcribe, "show a desktop notification when a transcription arrives")

	// Precedence: CLI > Env > Config > Default. ApplyEnv already folded the
	// environment into the config, so an empty flag means "use the config".
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use (default, dark, chalkboard or a file)")
	r.fs.StringVar(&r.storeDir, "store-dir", "", "directory holding notebooks")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if r.notifier != nil {
		r.notifier.Enable(notify.EventSave, r.saveAlerts)
		r.notifier.Enable(notify.EventExport, r.exportAlerts)
		r.notifier.Enable(notify.EventCopy, r.copyAlerts)
		r.notifier.Enable(notify.EventTranscribe, r.transcribeAlerts)
	}
	if r.themeName != "" {
		r.config.Theme = r.themeName
	}
	if r.storeDir != "" {
		r.config.StoreDir = r.storeDir
	}

	t, err := r.config.ResolveTheme(theme.NewLoader())
	if err != nil {
		if r.config.Theme != "" && r.config.Theme != "default" {
			fmt.Fprintf(os.Stderr, "warning: failed to load theme '%s': %v. using default.\n", r.config.Theme, err)
		}
		t = theme.Default()
	}
	r.activeTheme = t

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var cmd runnable
	switch cmdName {
	case "new":
		cmd, err = parseNewCmd(subArgs, r)
	case "list":
		cmd, err = parseListCmd(subArgs, r)
	case "delete":
		cmd, err = parseDeleteCmd(subArgs, r)
	case "replay":
		cmd, err = parseReplayCmd(subArgs, r)
	case "render":
		cmd, err = parseRenderCmd(subArgs, r)
	case "pdf":
		cmd, err = parsePDFCmd(subArgs, r)
	case "train":
		cmd, err = parseTrainCmd(subArgs, r)
	case "export":
		cmd, err = parseExportCmd(subArgs, r)
	case "transcribe":
		cmd, err = parseTranscribeCmd(subArgs, r)
	case "canvas":
		cmd, err = parseCanvasCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{root: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (r *root) out() io.Writer {
	if r == nil || r.stdout == nil {
		return os.Stdout
	}
	return r.stdout
}

func (r *root) store() store.Store {
	dir := r.config.ResolveStoreDir()
	if r.newStore != nil {
		return r.newStore(dir)
	}
	return store.NewFileStore(dir)
}

// transcriber returns the configured AI service, or nil when no API key is
// set.
func (r *root) transcriber() transcribe.Transcriber {
	if r.newTranscriber != nil {
		return r.newTranscriber(r.config)
	}
	key := r.config.APIKey()
	if key == "" {
		return nil
	}
	return transcribe.NewAnthropicClient(key, r.config.AI.Model,
		transcribe.WithTimeout(r.config.AI.Timeout),
		transcribe.WithRetries(r.config.AI.Retries),
	)
}

// openSession loads notebook id with the configured tools and history limit.
func (r *root) openSession(ctx context.Context, id string) (*notebook.Session, error) {
	if err := store.ValidateID(id); err != nil {
		return nil, err
	}
	state := canvas.New(canvas.NewHistory(r.config.History.Limit))
	sess := notebook.New(id, r.store(), r.transcriber(), state, r.config.Tools())
	if err := sess.Load(ctx); err != nil {
		return nil, err
	}
	return sess, nil
}

// withTimeout bounds calls to the AI service by the configured timeout.
func (r *root) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.config.AI.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.config.AI.Timeout)
}

// parseSelection reads "x,y,w,h" in canvas units.
func parseSelection(s string) (input.SelectionBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return input.SelectionBox{}, fmt.Errorf("selection %q: want x,y,w,h", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return input.SelectionBox{}, fmt.Errorf("selection %q: %w", s, err)
		}
		v[i] = f
	}
	if v[2] <= 0 || v[3] <= 0 {
		return input.SelectionBox{}, fmt.Errorf("selection %q: width and height must be positive", s)
	}
	return input.SelectionBox{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}
