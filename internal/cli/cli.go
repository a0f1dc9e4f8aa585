// Package cli wires configuration, logging and storage into the usercards
// subcommands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/usercards/internal/config"
	"github.com/jask/usercards/internal/journal"
	"github.com/jask/usercards/internal/loader"
	"github.com/jask/usercards/internal/tui"
	"github.com/jask/usercards/internal/users"
	"github.com/jask/usercards/internal/view"
)

const usage = `usage: usercards [command] [flags]

commands:
  (none), tui   browse users in the terminal
  export        fetch once and write an HTML page
  history       list recent request outcomes
`

// Env carries the process surroundings so commands can be tested.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	Config config.Config
}

// Run dispatches args (without the program name) to a subcommand.
func Run(ctx context.Context, env Env, args []string) error {
	cmd := "tui"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "tui":
		return runTUI(ctx, env, args)
	case "export":
		return runExport(ctx, env, args)
	case "history":
		return runHistory(ctx, env, args)
	case "help":
		_, err := io.WriteString(env.Stdout, usage)
		return err
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func runTUI(ctx context.Context, env Env, args []string) error {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	title := fs.String("title", "Users", "heading shown above the list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg := env.Config

	// stdout belongs to the terminal UI, so logs go to a file
	logFile, err := openLogFile(cfg.Log.Path)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger, err := newLogger(cfg.Log, logFile)
	if err != nil {
		return err
	}

	opts := tui.Options{Title: *title, Endpoint: cfg.Endpoint.URL, Logger: logger}
	if j := openJournal(cfg.Journal, logger); j != nil {
		defer j.Close()
		opts.Journal = j
	}

	client := users.NewClient(cfg.Endpoint.URL, cfg.Endpoint.Timeout)
	p := tea.NewProgram(tui.New(ctx, client, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func runExport(ctx context.Context, env Env, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	outPath := fs.String("o", "", "write the page to this file instead of stdout")
	title := fs.String("title", "Users", "page title")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg := env.Config

	logger, err := newLogger(cfg.Log, env.Stderr)
	if err != nil {
		return err
	}

	var last view.Model
	client := users.NewClient(cfg.Endpoint.URL, cfg.Endpoint.Timeout)
	coord := loader.New(nil, client, loader.RendererFunc(func(s loader.State) {
		last = view.Build(s)
	}), logger)
	out := coord.Run(ctx)

	if j := openJournal(cfg.Journal, logger); j != nil {
		if err := j.Record(ctx, journal.FromOutcome(out, cfg.Endpoint.URL)); err != nil {
			logger.Warn("journal write failed", "err", err)
		}
		_ = j.Close()
	}

	w := env.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", *outPath, err)
		}
		defer f.Close()
		w = f
	}
	if err := view.Page(*title, last).Render(ctx, w); err != nil {
		return fmt.Errorf("write page: %w", err)
	}

	switch out.Status {
	case loader.StatusFailed:
		return fmt.Errorf("load users: %w", out.Err)
	case loader.StatusCanceled, loader.StatusSuperseded:
		return fmt.Errorf("load users: %w", users.ErrCanceled)
	}
	return nil
}

func runHistory(ctx context.Context, env Env, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	limit := fs.Int("n", 20, "number of entries to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	j, err := journal.Open(env.Config.Journal.Path)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.Recent(ctx, *limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(env.Stdout, "no requests recorded")
		return err
	}

	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSTATUS\tUSERS\tELAPSED\tERROR")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			e.At.Local().Format(time.DateTime), e.Status, e.Count, e.Elapsed.Round(time.Millisecond), e.Message)
	}
	return tw.Flush()
}

// openJournal returns nil when the journal is disabled or cannot be opened;
// the app works without it.
func openJournal(cfg config.JournalConfig, logger *slog.Logger) *journal.Journal {
	if !cfg.Enabled || cfg.Path == "" {
		return nil
	}
	j, err := journal.Open(cfg.Path)
	if err != nil {
		logger.Warn("journal disabled", "path", cfg.Path, "err", err)
		return nil
	}
	return j
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return f, nil
}
