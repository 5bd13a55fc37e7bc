package tui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/handiism/tcia-downloader/internal/config"
	"github.com/handiism/tcia-downloader/internal/download"
	"github.com/handiism/tcia-downloader/internal/model"
	"github.com/handiism/tcia-downloader/internal/organize"
)

func newTestModel() Model {
	settings := config.DefaultSettings()
	settings.DownloadsPath = filepath.Join("data", "tcia")
	return NewModel(settings)
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func altKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}, Alt: true}
}

func TestDestination(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"LIDC-IDRI.tcia", filepath.Join("dl", "LIDC-IDRI")},
		{filepath.Join("manifests", "TCGA-GBM.TCIA"), filepath.Join("dl", "TCGA-GBM")},
		{"  spaced.tcia  ", filepath.Join("dl", "spaced")},
		{"", filepath.Join("dl", "download")},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := Destination("dl", tt.source); got != tt.want {
				t.Errorf("Destination(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestUpdate_Toggles(t *testing.T) {
	m := newTestModel()

	m = update(t, m, altKey('u'))
	m = update(t, m, altKey('v'))
	if !m.unpack || !m.verbose {
		t.Errorf("unpack = %v, verbose = %v, want both on", m.unpack, m.verbose)
	}
	if m.textInput.Value() != "" {
		t.Errorf("toggle keys leaked into input: %q", m.textInput.Value())
	}

	m = update(t, m, altKey('u'))
	if m.unpack {
		t.Error("second alt+u should turn unpack off")
	}
}

func TestUpdate_EnterRequiresInput(t *testing.T) {
	m := newTestModel()
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != StateInput {
		t.Errorf("state = %v, want StateInput", m.state)
	}
}

func TestUpdate_InitError(t *testing.T) {
	m := newTestModel()
	m.state = StateInitializing

	m = update(t, m, InitDoneMsg{Err: errors.New("couldn't find series list")})
	if m.state != StateError {
		t.Fatalf("state = %v, want StateError", m.state)
	}
	if !strings.Contains(m.View(), "couldn't find series list") {
		t.Error("error view should show the error")
	}
}

func TestUpdate_DownloadDone(t *testing.T) {
	outcome := model.NewJobOutcome([]string{"1.2.3", "1.2.4"})
	outcome.Set("1.2.4", false)
	done := DownloadDoneMsg{
		Outcome:  outcome,
		Snapshot: download.Snapshot{Considered: 2, Completed: 1, Failed: 1, Bytes: 2048},
	}

	t.Run("complete", func(t *testing.T) {
		m := newTestModel()
		m.state = StateDownloading

		m = update(t, m, done)
		if m.state != StateComplete {
			t.Fatalf("state = %v, want StateComplete", m.state)
		}
		view := m.View()
		for _, want := range []string{"Series: 1/2", "2.0 KiB", "1.2.4"} {
			if !strings.Contains(view, want) {
				t.Errorf("view missing %q", want)
			}
		}
	})

	t.Run("unpack next", func(t *testing.T) {
		m := newTestModel()
		m.state = StateDownloading
		m.unpack = true

		m = update(t, m, done)
		if m.state != StateUnpacking {
			t.Fatalf("state = %v, want StateUnpacking", m.state)
		}

		m = update(t, m, UnpackDoneMsg{Result: &organize.Result{Relocated: []string{"a", "b"}}})
		if m.state != StateComplete {
			t.Fatalf("state = %v, want StateComplete", m.state)
		}
		if !strings.Contains(m.View(), "Organized files: 2") {
			t.Error("complete view should show organized files")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		m := newTestModel()
		m.state = StateDownloading
		m.cancel()

		m = update(t, m, done)
		if m.state != StateError {
			t.Fatalf("state = %v, want StateError", m.state)
		}
	})
}

func TestUpdate_VerboseFilter(t *testing.T) {
	m := newTestModel()
	m = update(t, m, ProgressMsg{Event: download.ProgressEvent{Message: "Skipping existing: 1.2.3.zip", Level: download.LevelVerbose}})
	m = update(t, m, ProgressMsg{Event: download.ProgressEvent{Message: "Found 2 series", Level: download.LevelInfo}})

	if len(m.logs) != 1 || m.logs[0].Message != "Found 2 series" {
		t.Errorf("logs = %v, want only the info event", m.logs)
	}

	m.verbose = true
	for i := 0; i < maxLogs+5; i++ {
		m = update(t, m, ProgressMsg{Event: download.ProgressEvent{Message: "v", Level: download.LevelVerbose}})
	}
	if len(m.logs) != maxLogs {
		t.Errorf("kept %d logs, want %d", len(m.logs), maxLogs)
	}
}

func TestUpdate_Reset(t *testing.T) {
	m := newTestModel()
	m.state = StateComplete
	m.logs = []LogEntry{{Message: "x"}}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if m.state != StateInput || len(m.logs) != 0 || m.outcome != nil {
		t.Errorf("reset left state = %v, logs = %v", m.state, m.logs)
	}
}

// closed drains ch and reports whether it was closed within a second.
func closed(ch chan download.ProgressEvent) bool {
	timeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return true
			}
		case <-timeout:
			return false
		}
	}
}

func TestEvents_ClosedOnInitError(t *testing.T) {
	m := newTestModel()
	m.textInput.SetValue(filepath.Join(t.TempDir(), "missing.tcia"))
	m.state = StateInitializing
	m.dest = t.TempDir()
	m.events = make(chan download.ProgressEvent, 16)
	events := m.events

	m = update(t, m, m.initializeDownload()())

	if m.state != StateError {
		t.Fatalf("state = %v, want StateError", m.state)
	}
	if !closed(events) {
		t.Error("event channel still open after a failed initialize")
	}
	if m.listenEvents() != nil {
		t.Error("no listener should be scheduled once the run is over")
	}
}

func TestEvents_ClosedWhenRunEnds(t *testing.T) {
	t.Run("download only", func(t *testing.T) {
		m := newTestModel()
		m.state = StateDownloading
		m.events = make(chan download.ProgressEvent, 1)
		events := m.events

		m = update(t, m, DownloadDoneMsg{Outcome: model.NewJobOutcome(nil), events: events})
		if m.state != StateComplete {
			t.Fatalf("state = %v, want StateComplete", m.state)
		}
		if !closed(events) {
			t.Error("event channel still open after the download finished")
		}
	})

	t.Run("download then unpack", func(t *testing.T) {
		m := newTestModel()
		m.state = StateDownloading
		m.unpack = true
		m.events = make(chan download.ProgressEvent, 1)
		events := m.events

		m = update(t, m, DownloadDoneMsg{Outcome: model.NewJobOutcome(nil), events: events})
		if m.events != events {
			t.Fatal("event channel released before unpacking finished")
		}

		m = update(t, m, UnpackDoneMsg{Result: &organize.Result{}, events: events})
		if m.state != StateComplete {
			t.Fatalf("state = %v, want StateComplete", m.state)
		}
		if !closed(events) {
			t.Error("event channel still open after unpacking finished")
		}
	})
}

func TestEvents_StaleResultAfterReset(t *testing.T) {
	m := newTestModel()
	m.state = StateError
	old := make(chan download.ProgressEvent, 1)
	m.events = old

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = update(t, m, DownloadDoneMsg{Outcome: model.NewJobOutcome(nil), events: old})

	if m.state != StateInput {
		t.Errorf("state = %v, a result from the previous run must be ignored", m.state)
	}
	if !closed(old) {
		t.Error("previous run's event channel was not closed")
	}
}
