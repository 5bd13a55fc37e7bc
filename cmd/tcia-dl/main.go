package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/tcia-downloader/internal/config"
	"github.com/handiism/tcia-downloader/internal/download"
	"github.com/handiism/tcia-downloader/internal/manifest"
	"github.com/handiism/tcia-downloader/internal/model"
	"github.com/handiism/tcia-downloader/internal/progress"
	"github.com/handiism/tcia-downloader/internal/tcia"
)

// Exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitPartial   = 3
	exitCancelled = 130
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1A3"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A8DADC"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C757D"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ECDC4"))
)

type options struct {
	source   string
	dest     string
	config   string
	limit    int
	jobs     int
	unpack   bool
	verbose  bool
	progress bool

	set map[string]bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func newFlagSet(opts *options, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("tcia-dl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.config, "config", "", "Path to config file (.json, .yaml or .yml)")
	fs.IntVar(&opts.limit, "limit", 0, "Only download the first LIMIT series (for testing)")
	fs.IntVar(&opts.limit, "l", 0, "Shorthand for -limit")
	fs.IntVar(&opts.jobs, "jobs", download.DefaultConcurrency, "Number of parallel download jobs")
	fs.IntVar(&opts.jobs, "j", download.DefaultConcurrency, "Shorthand for -jobs")
	fs.BoolVar(&opts.unpack, "unpack", false, "Unpack zip files after downloading")
	fs.BoolVar(&opts.unpack, "u", false, "Shorthand for -unpack")
	fs.BoolVar(&opts.verbose, "verbose", false, "Show verbose output")
	fs.BoolVar(&opts.verbose, "v", false, "Shorthand for -verbose")
	fs.BoolVar(&opts.progress, "progress", true, "Print periodic progress lines")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "TCIA Downloader - Download imaging series from The Cancer Imaging Archive")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Usage:")
		fmt.Fprintln(stderr, "  tcia-dl [options] <manifest.tcia | collection> <dest>")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "For interactive mode, use: tcia-tui")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}
	return fs
}

// parseArgs parses flags and the two positional arguments. Flags may come
// before, between or after the positionals.
func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{set: make(map[string]bool)}
	fs := newFlagSet(opts, stderr)

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if len(positional) != 2 {
		fs.Usage()
		return nil, fmt.Errorf("expected 2 arguments, got %d", len(positional))
	}
	opts.source, opts.dest = positional[0], positional[1]
	return opts, nil
}

// applyTo overrides settings with the flags given on the command line.
func (o *options) applyTo(settings *config.Settings) {
	if o.set["limit"] || o.set["l"] {
		settings.Limit = o.limit
	}
	if o.set["jobs"] || o.set["j"] {
		settings.MaxConcurrentDownloads = o.jobs
	}
	if o.unpack {
		settings.Unpack = true
	}
}

// lockedWriter serializes writes from worker goroutines and the progress
// reporter.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func run(args []string, stdout, stderr io.Writer) int {
	stdout = &lockedWriter{w: stdout}
	stderr = &lockedWriter{w: stderr}

	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	// Load config
	settings := config.DefaultSettings()
	if opts.config != "" {
		settings, err = config.Load(opts.config)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading config: %v\n", err)
			return exitFailure
		}
	}
	opts.applyTo(settings)
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid settings: %v\n", err)
		return exitUsage
	}

	// Handle interrupts
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	manager := download.NewManager(settings, eventPrinter(stdout, opts.verbose), download.WithSummary(stderr))

	fmt.Fprintln(stdout, titleStyle.Render("TCIA Downloader"))
	fmt.Fprintln(stdout, dimStyle.Render("run "+manager.RunID()))
	fmt.Fprintln(stdout)

	if err := manager.Initialize(ctx, opts.source, opts.dest); err != nil {
		return reportInitError(stderr, err)
	}

	var reporter *progress.Reporter
	if opts.progress {
		reporter = progress.NewReporter(progress.Options{
			Total:       considered(manager, settings.Limit),
			Workers:     settings.MaxConcurrentDownloads,
			Destination: opts.dest,
			Output:      stdout,
			Source: func() progress.Stats {
				snap := manager.GetProgress()
				return progress.Stats{
					Done:     int(snap.Done()),
					Failed:   int(snap.Failed),
					InFlight: int(snap.InFlight),
					Bytes:    snap.Bytes,
				}
			},
		})
		reporter.Start()
	}

	outcome, err := manager.StartDownloads(ctx)
	if reporter != nil {
		reporter.Stop()
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error during download: %v\n", err)
		return exitFailure
	}
	if ctx.Err() != nil {
		fmt.Fprintln(stderr, "\nDownload cancelled.")
		return exitCancelled
	}

	if settings.Unpack {
		fmt.Fprintln(stdout)
		result, err := manager.Unpack(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "Error unpacking: %v\n", err)
			return exitFailure
		}
		if n := len(result.Warnings); n > 0 && !opts.verbose {
			fmt.Fprintln(stdout, warningStyle.Render(fmt.Sprintf("%d files could not be fully organized (use -verbose for details)", n)))
		}
	}

	snap := manager.GetProgress()
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Complete! %d/%d series present (%d skipped, %s downloaded)\n",
		outcome.Succeeded(), outcome.Len(), snap.Skipped, progress.FormatBytes(snap.Bytes))

	if !outcome.AllSucceeded() {
		return exitPartial
	}
	return exitOK
}

// considered returns how many series the scheduler will look at.
func considered(m *download.Manager, limit int) int {
	mf := m.Manifest()
	if mf == nil {
		return 0
	}
	n := len(model.Dedupe(mf.Series))
	if limit > 0 && limit < n {
		return limit
	}
	return n
}

func reportInitError(stderr io.Writer, err error) int {
	var formatErr *manifest.FormatError
	var unknown *tcia.UnknownCollectionError
	switch {
	case errors.As(err, &formatErr):
		fmt.Fprintln(stderr, errorStyle.Render("Invalid manifest: "+err.Error()))
	case errors.As(err, &unknown):
		fmt.Fprintln(stderr, errorStyle.Render(fmt.Sprintf("Invalid collection %q. Valid choices:", unknown.Name)))
		for _, name := range unknown.Valid {
			fmt.Fprintln(stderr, "  "+name)
		}
	case errors.Is(err, tcia.ErrCollectionNotSupported):
		fmt.Fprintln(stderr, warningStyle.Render(err.Error()))
	default:
		fmt.Fprintf(stderr, "Error initializing: %v\n", err)
	}
	return exitFailure
}

// eventPrinter renders manager events, hiding verbose ones unless asked.
func eventPrinter(w io.Writer, verbose bool) func(download.ProgressEvent) {
	return func(event download.ProgressEvent) {
		if event.Level == download.LevelVerbose && !verbose {
			return
		}
		fmt.Fprintln(w, renderEvent(event))
	}
}

func renderEvent(event download.ProgressEvent) string {
	switch event.Level {
	case download.LevelError:
		return errorStyle.Render("✗ " + event.Message)
	case download.LevelWarning:
		return warningStyle.Render("! " + event.Message)
	case download.LevelSuccess:
		return successStyle.Render("✓ " + event.Message)
	case download.LevelInfo:
		return infoStyle.Render("› " + event.Message)
	default:
		return dimStyle.Render("  " + event.Message)
	}
}
