package progress

import (
	"bytes"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{-5, "0 B"},
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1024 * 1024, "1.0 MiB"},
		{256 * 1024 * 1024, "256 MiB"},
		{1024 * 1024 * 1024, "1.0 GiB"},
	}

	for _, tt := range tests {
		result := FormatBytes(tt.input)
		if result != tt.expected {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 2*time.Second, "3m 2s"},
		{time.Hour + 4*time.Minute, "1h 4m 0s"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.input); got != tt.expected {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := percent(1, 4); got != 25 {
		t.Errorf("percent(1, 4) = %v, want 25", got)
	}
	if got := percent(0, 0); got != 100 {
		t.Errorf("percent(0, 0) = %v, want 100", got)
	}
}

func TestReporter_StartStop(t *testing.T) {
	var done atomic.Int32
	var out bytes.Buffer

	reporter := NewReporter(Options{
		Total:          4,
		Workers:        2,
		Destination:    "/data/lidc",
		Output:         &out,
		UpdateInterval: 10 * time.Millisecond,
		Source: func() Stats {
			return Stats{Done: int(done.Load()), Failed: 1, Bytes: 2048}
		},
	})

	reporter.Start()
	done.Store(2)
	time.Sleep(35 * time.Millisecond)
	done.Store(4)
	reporter.Stop()
	reporter.Stop()

	got := out.String()
	for _, want := range []string{
		"[tcia] Downloading 4 series into /data/lidc | Workers: 2\n",
		"[tcia] Progress: ",
		"[tcia] Finished 4/4 series | 1 failed | 2.0 KiB in ",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if n := strings.Count(got, "Finished"); n != 1 {
		t.Errorf("final status printed %d times", n)
	}
}

func TestReporter_StopWithoutStart(t *testing.T) {
	var out bytes.Buffer
	reporter := NewReporter(Options{Output: &out})
	reporter.Stop()
	if out.Len() != 0 {
		t.Errorf("output = %q, want empty", out.String())
	}
}
