package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Stats is a point-in-time view of a run.
type Stats struct {
	Done     int // jobs with a final result, including skipped and failed
	Failed   int
	InFlight int
	Bytes    int64
}

// Options configures the progress reporter.
type Options struct {
	// Total is the number of jobs in the run.
	Total int

	// Workers is the number of parallel workers (for display).
	Workers int

	// Destination is the directory being written to (for display).
	Destination string

	// Source returns the current stats. Required.
	Source func() Stats

	// Output is where to write progress output.
	// Default: os.Stdout
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 500ms
	UpdateInterval time.Duration

	// Prefix starts every line. Default: "[tcia]".
	Prefix string
}

// Reporter outputs human-readable progress information.
type Reporter struct {
	opts Options

	mu        sync.Mutex
	startTime time.Time
	lastTick  time.Time
	lastBytes int64
	stopCh    chan struct{}
	doneCh    chan struct{}
	started   bool
	stopped   bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.UpdateInterval <= 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}
	if opts.Prefix == "" {
		opts.Prefix = "[tcia]"
	}
	if opts.Source == nil {
		opts.Source = func() Stats { return Stats{} }
	}

	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start prints the header and begins periodic updates.
func (r *Reporter) Start() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.startTime = time.Now()
	r.lastTick = r.startTime
	r.mu.Unlock()

	fmt.Fprintf(r.opts.Output, "%s Downloading %d series into %s | Workers: %d\n",
		r.opts.Prefix, r.opts.Total, r.opts.Destination, r.opts.Workers)

	go r.updateLoop()
}

// Stop ends periodic updates and prints the final status. It returns once
// the final status has been written.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh
}

func (r *Reporter) updateLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

func (r *Reporter) printProgress() {
	now := time.Now()
	stats := r.opts.Source()

	elapsed := now.Sub(r.lastTick).Seconds()
	if elapsed < 0.1 {
		elapsed = 0.1
	}
	speed := float64(stats.Bytes-r.lastBytes) / elapsed
	if speed < 0 {
		speed = 0
	}
	r.lastTick = now
	r.lastBytes = stats.Bytes

	fmt.Fprintf(r.opts.Output, "%s Progress: %.1f%% | %d/%d series | %d failed | %d in flight | %s | %s/s\n",
		r.opts.Prefix,
		percent(stats.Done, r.opts.Total),
		stats.Done,
		r.opts.Total,
		stats.Failed,
		stats.InFlight,
		FormatBytes(stats.Bytes),
		FormatBytes(int64(speed)),
	)
}

func (r *Reporter) printFinalStatus() {
	stats := r.opts.Source()
	duration := time.Since(r.startTime)

	var avg float64
	if s := duration.Seconds(); s > 0 {
		avg = float64(stats.Bytes) / s
	}

	fmt.Fprintf(r.opts.Output, "%s Finished %d/%d series | %d failed | %s in %s | Average speed: %s/s\n",
		r.opts.Prefix,
		stats.Done,
		r.opts.Total,
		stats.Failed,
		FormatBytes(stats.Bytes),
		FormatDuration(duration),
		FormatBytes(int64(avg)),
	)
}

func percent(done, total int) float64 {
	if total <= 0 {
		return 100
	}
	return float64(done) / float64(total) * 100
}

// FormatBytes formats bytes with binary units, e.g. "1.5 KiB".
func FormatBytes(b int64) string {
	if b < 0 {
		b = 0
	}
	return humanize.IBytes(uint64(b))
}

// FormatDuration formats a duration as "42s", "3m 2s" or "1h 4m 0s".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}
