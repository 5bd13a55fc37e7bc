package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	ioutils "github.com/handiism/tcia-downloader/internal/io"
	"github.com/handiism/tcia-downloader/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when Options.Concurrency is below 1.
const DefaultConcurrency = 4

// Fetcher retrieves one series archive into destDir/filename and reports
// whether the file is present afterwards. The Manager adapts http.Client
// to it.
type Fetcher interface {
	Fetch(ctx context.Context, id, destDir, filename string) bool
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, id, destDir, filename string) bool

func (f FetcherFunc) Fetch(ctx context.Context, id, destDir, filename string) bool {
	return f(ctx, id, destDir, filename)
}

// Options configures a Scheduler.
type Options struct {
	// Concurrency is the maximum number of fetches in flight.
	Concurrency int

	// Limit restricts a run to the first Limit identifiers. Zero or
	// negative means no limit.
	Limit int

	// ArchiveExt is the archive extension without dot. Default: "zip".
	ArchiveExt string

	// Summary receives the failure summary. Default: os.Stderr.
	Summary io.Writer
}

// Snapshot is a point-in-time view of scheduler counters.
type Snapshot struct {
	Considered int32
	Skipped    int32 // archive already on disk
	Completed  int32 // fetched in this run
	Failed     int32
	InFlight   int32
	Bytes      int64
}

// Done returns how many considered jobs have a final result.
func (s Snapshot) Done() int32 {
	return s.Skipped + s.Completed + s.Failed
}

// Scheduler runs a batch of jobs through a bounded pool of fetches.
type Scheduler struct {
	fetcher    Fetcher
	opts       Options
	onProgress progressFunc

	considered atomic.Int32
	skipped    atomic.Int32
	completed  atomic.Int32
	failed     atomic.Int32
	inFlight   atomic.Int32
	bytes      atomic.Int64
}

// NewScheduler creates a Scheduler. onProgress may be nil.
func NewScheduler(fetcher Fetcher, opts Options, onProgress func(ProgressEvent)) *Scheduler {
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.ArchiveExt == "" {
		opts.ArchiveExt = "zip"
	}
	if opts.Summary == nil {
		opts.Summary = os.Stderr
	}
	return &Scheduler{
		fetcher:    fetcher,
		opts:       opts,
		onProgress: onProgress,
	}
}

// Snapshot returns the current counters. Safe to call during Run.
func (s *Scheduler) Snapshot() Snapshot {
	return Snapshot{
		Considered: s.considered.Load(),
		Skipped:    s.skipped.Load(),
		Completed:  s.completed.Load(),
		Failed:     s.failed.Load(),
		InFlight:   s.inFlight.Load(),
		Bytes:      s.bytes.Load(),
	}
}

// AddBytes records n received bytes. Fetchers call it as data arrives.
func (s *Scheduler) AddBytes(n int64) {
	s.bytes.Add(n)
}

// Run downloads every job in ids into destDir and returns the outcome of
// each considered identifier, in input order.
//
// Jobs whose archive already exists are recorded as succeeded without a
// fetch. The others are submitted to a pool of Concurrency workers;
// submission blocks while the pool is full. Run returns after every
// submitted fetch has finished. Each job gets one attempt and a failed job
// never stops the batch. If any job failed, the failed identifiers are
// written to Options.Summary.
//
// ctx is handed to the fetcher only; Run itself does not cancel
// submitted work.
func (s *Scheduler) Run(ctx context.Context, ids []string, destDir string) *model.JobOutcome {
	ids = model.Dedupe(ids)
	if s.opts.Limit > 0 && len(ids) > s.opts.Limit {
		ids = ids[:s.opts.Limit]
	}

	s.reset(len(ids))
	outcome := model.NewJobOutcome(ids)
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)

	for _, id := range ids {
		job := model.NewJob(id, destDir, s.opts.ArchiveExt)

		if ioutils.FileExists(job.ArchivePath) {
			s.skipped.Add(1)
			s.onProgress.emit(LevelVerbose, fmt.Sprintf("Skipping existing: %s", job.FileName))
			continue
		}

		g.Go(func() error {
			s.inFlight.Add(1)
			ok := s.fetcher.Fetch(ctx, job.ID, destDir, job.FileName)
			s.inFlight.Add(-1)

			if ok {
				s.completed.Add(1)
				s.onProgress.emit(LevelVerbose, fmt.Sprintf("Downloaded: %s", job.FileName))
			} else {
				s.failed.Add(1)
				mu.Lock()
				outcome.Set(job.ID, false)
				mu.Unlock()
			}
			return nil
		})
	}

	// Workers never return errors.
	_ = g.Wait()

	if failed := outcome.Failed(); len(failed) > 0 {
		s.writeSummary(failed)
		s.onProgress.emit(LevelWarning, fmt.Sprintf("%d of %d series failed to download", len(failed), outcome.Len()))
	} else if outcome.Len() > 0 {
		s.onProgress.emit(LevelSuccess, fmt.Sprintf("All %d series present in %s", outcome.Len(), filepath.Clean(destDir)))
	}

	return outcome
}

func (s *Scheduler) reset(considered int) {
	s.considered.Store(int32(considered))
	s.skipped.Store(0)
	s.completed.Store(0)
	s.failed.Store(0)
	s.inFlight.Store(0)
	s.bytes.Store(0)
}

func (s *Scheduler) writeSummary(failed []string) {
	fmt.Fprintln(s.opts.Summary, "The following jobs failed to download:")
	for _, id := range failed {
		fmt.Fprintln(s.opts.Summary, id)
	}
}
