package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/handiism/tcia-downloader/internal/config"
	"github.com/handiism/tcia-downloader/internal/http"
	"github.com/handiism/tcia-downloader/internal/imaging"
	ioutils "github.com/handiism/tcia-downloader/internal/io"
	"github.com/handiism/tcia-downloader/internal/manifest"
	"github.com/handiism/tcia-downloader/internal/model"
	"github.com/handiism/tcia-downloader/internal/organize"
	"github.com/handiism/tcia-downloader/internal/tcia"
	"github.com/handiism/tcia-downloader/internal/unpack"
)

// ErrNotInitialized is returned when downloads or unpacking are requested
// before a successful Initialize.
var ErrNotInitialized = errors.New("download: manager not initialized")

// Option customizes a Manager.
type Option func(*Manager)

// WithFetcher replaces the HTTP client as the source of series archives.
func WithFetcher(f Fetcher) Option {
	return func(m *Manager) { m.fetcher = f }
}

// WithSummary redirects the failure summary, which goes to stderr by
// default.
func WithSummary(w io.Writer) Option {
	return func(m *Manager) { m.summary = w }
}

// WithHeaderReader replaces the DICOM header reader used when unpacking.
func WithHeaderReader(r organize.HeaderReader) Option {
	return func(m *Manager) { m.headers = r }
}

// Manager coordinates a manifest download from start to finish.
type Manager struct {
	settings   *config.Settings
	httpClient *http.Client
	fetcher    Fetcher
	headers    organize.HeaderReader
	scheduler  *Scheduler
	summary    io.Writer

	runID    string
	dest     string
	manifest *manifest.Manifest

	onProgress progressFunc
}

// NewManager creates a new download Manager.
func NewManager(settings *config.Settings, onProgress func(ProgressEvent), opts ...Option) *Manager {
	m := &Manager{
		settings: settings,
		httpClient: http.NewClient(http.Options{
			BaseURL:   settings.BaseURL,
			Resource:  settings.Resource,
			APIKey:    settings.APIKey,
			UserAgent: settings.UserAgent,
			Timeout:   settings.RequestTimeout(),
		}),
		headers:    imaging.Reader{},
		runID:      uuid.NewString(),
		onProgress: onProgress,
	}
	m.fetcher = FetcherFunc(m.fetchImage)

	for _, opt := range opts {
		opt(m)
	}

	m.scheduler = NewScheduler(m.fetcher, Options{
		Concurrency: settings.MaxConcurrentDownloads,
		Limit:       settings.Limit,
		ArchiveExt:  settings.ArchiveExtension,
		Summary:     m.summary,
	}, onProgress)
	return m
}

// RunID identifies this Manager's run in log output.
func (m *Manager) RunID() string {
	return m.runID
}

// Manifest returns the manifest read by Initialize, or nil.
func (m *Manager) Manifest() *manifest.Manifest {
	return m.manifest
}

// Initialize prepares a run from source into dest.
//
// A source naming a manifest (".tcia" anywhere in it, any case) is copied to
// dest and parsed. Any other source is treated as a collection name: it is
// checked against the remote catalog and rejected either as unknown or as
// not yet supported.
func (m *Manager) Initialize(ctx context.Context, source, dest string) error {
	m.dest = ""
	m.manifest = nil
	if !manifest.IsManifestPath(source) {
		return m.checkCollection(ctx, source)
	}

	if err := ioutils.EnsureDir(dest); err != nil {
		return err
	}

	copied, err := manifest.Copy(ctx, source, dest, m.settings.ManifestCopyName)
	if err != nil {
		return err
	}
	m.progress(LevelVerbose, fmt.Sprintf("Copied manifest to %s", copied))

	mf, err := manifest.Read(source, m.settings.ManifestSentinel)
	if err != nil {
		return err
	}
	m.manifest = mf
	m.dest = dest

	total := len(mf.Series)
	if m.settings.Limit > 0 && m.settings.Limit < total {
		m.progress(LevelInfo, fmt.Sprintf("Found %d series, limited to the first %d", total, m.settings.Limit))
	} else {
		m.progress(LevelInfo, fmt.Sprintf("Found %d series in %s", total, filepath.Base(source)))
	}
	return nil
}

func (m *Manager) checkCollection(ctx context.Context, name string) error {
	m.progress(LevelVerbose, "Fetching collection catalog")

	body, err := m.httpClient.CollectionValues(ctx)
	if err != nil {
		return err
	}
	defer body.Close()

	names, err := tcia.ParseCollections(body)
	if err != nil {
		return err
	}
	return tcia.ValidateCollection(name, names)
}

// StartDownloads downloads every series of the initialized manifest and
// returns the outcome of each considered series.
func (m *Manager) StartDownloads(ctx context.Context) (*model.JobOutcome, error) {
	if m.manifest == nil {
		return nil, ErrNotInitialized
	}
	m.progress(LevelVerbose, fmt.Sprintf("Run %s: downloading into %s", m.runID, m.dest))
	return m.scheduler.Run(ctx, m.manifest.Series, m.dest), nil
}

// Unpack extracts every archive in the destination and reorganizes the
// extracted files by study and series.
//
// Extraction failures are returned. Files whose metadata cannot be read are
// left in place and reported in the result's warnings.
func (m *Manager) Unpack(ctx context.Context) (*organize.Result, error) {
	if m.dest == "" {
		return nil, ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	expander := unpack.NewExpander(m.settings.ArchiveExtension, m.settings.UnpackDirName)
	expander.OnArchive = func(path string, index, total int) {
		m.progress(LevelVerbose, fmt.Sprintf("Unpacking %d/%d: %s", index+1, total, filepath.Base(path)))
	}

	archives, err := expander.Expand(m.dest)
	if err != nil {
		return nil, err
	}
	m.progress(LevelInfo, fmt.Sprintf("Unpacked %d archives", len(archives)))

	org := organize.NewOrganizer(m.headers, m.settings.RecordExtension)
	result, err := org.Reorganize(expander.TargetDir(m.dest))
	if err != nil {
		return nil, err
	}

	for _, w := range result.Warnings {
		level := LevelWarning
		if w.MetadataUnavailable() {
			level = LevelVerbose
		}
		m.progress(level, w.String())
	}
	m.progress(LevelSuccess, fmt.Sprintf("Organized %d files into case directories", len(result.Relocated)))
	return result, nil
}

// GetProgress returns current download counters.
func (m *Manager) GetProgress() Snapshot {
	return m.scheduler.Snapshot()
}

// fetchImage is the default Fetcher. It feeds byte progress into the
// scheduler and reports the failure reason before folding it into false.
func (m *Manager) fetchImage(ctx context.Context, id, destDir, filename string) bool {
	var last int64
	err := m.httpClient.FetchImage(ctx, id, destDir, filename, func(written, total int64) {
		m.scheduler.AddBytes(written - last)
		last = written
	})
	if err != nil {
		m.progress(LevelError, fmt.Sprintf("Error downloading %s: %v", id, err))
		return false
	}
	return true
}

func (m *Manager) progress(level ProgressLevel, msg string) {
	m.onProgress.emit(level, msg)
}
