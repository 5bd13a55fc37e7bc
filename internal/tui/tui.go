// Package tui provides a Bubble Tea terminal user interface for tcia-downloader.
package tui

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/tcia-downloader/internal/config"
	"github.com/handiism/tcia-downloader/internal/download"
	"github.com/handiism/tcia-downloader/internal/model"
	"github.com/handiism/tcia-downloader/internal/organize"
	report "github.com/handiism/tcia-downloader/internal/progress"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ECDC4")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

const (
	maxLogs      = 10
	maxFailedIDs = 5
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInitializing
	StateDownloading
	StateUnpacking
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	err       error

	// Download context
	ctx    context.Context
	cancel context.CancelFunc

	// Download manager reference and its event stream
	manager *download.Manager
	events  chan download.ProgressEvent
	dest    string

	// Progress and results
	series   int
	snapshot download.Snapshot
	outcome  *model.JobOutcome
	unpacked *organize.Result

	// Options
	unpack  bool
	verbose bool

	width  int
	height int
}

// NewModel creates a new TUI model. A nil settings uses the defaults.
func NewModel(settings *config.Settings) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	ti := textinput.New()
	ti.Placeholder = "/path/to/collection.tcia"
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logs:      make([]LogEntry, 0),
		ctx:       ctx,
		cancel:    cancel,
		unpack:    settings.Unpack,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg is sent when the manager reports an event.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// InitDoneMsg is sent when initialization completes.
	InitDoneMsg struct {
		Manager *download.Manager
		Series  int
		Err     error

		events chan download.ProgressEvent
	}

	// DownloadDoneMsg is sent when the scheduler run returns.
	DownloadDoneMsg struct {
		Outcome  *model.JobOutcome
		Snapshot download.Snapshot
		Err      error

		events chan download.ProgressEvent
	}

	// UnpackDoneMsg is sent when extraction and reorganization finish.
	UnpackDoneMsg struct {
		Result *organize.Result
		Err    error

		events chan download.ProgressEvent
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Destination returns the directory a manifest at source downloads into:
// a folder named after the manifest inside the configured downloads path.
func Destination(downloadsPath, source string) string {
	base := filepath.Base(strings.TrimSpace(source))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." {
		stem = "download"
	}
	return filepath.Join(downloadsPath, stem)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.isBusy() {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}
			return m, nil

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
				m.state = StateInitializing
				m.events = make(chan download.ProgressEvent, 256)
				m.dest = Destination(m.settings.DownloadsPath, m.textInput.Value())
				return m, tea.Batch(m.initializeDownload(), m.listenEvents(), m.spinner.Tick)
			}

		// Plain letters would land in the path input, so options use alt.
		case "alt+u":
			if m.state == StateInput {
				m.unpack = !m.unpack
			}
			return m, nil

		case "alt+v":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}
			return m, nil

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m.reset()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		m.addLog(msg.Event)
		cmds = append(cmds, m.listenEvents())

	case InitDoneMsg:
		if msg.events != m.events || m.state != StateInitializing {
			m.release(msg.events)
			break
		}
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			m.release(msg.events)
		} else {
			m.manager = msg.Manager
			m.series = msg.Series
			m.state = StateDownloading
			cmds = append(cmds, m.startDownload(), m.tickProgress())
		}

	case DownloadDoneMsg:
		if msg.events != m.events {
			m.release(msg.events)
			break
		}
		m.snapshot = msg.Snapshot
		m.outcome = msg.Outcome
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		case m.unpack:
			m.state = StateUnpacking
			cmds = append(cmds, m.startUnpack(), m.spinner.Tick)
		default:
			m.state = StateComplete
		}
		if m.state != StateUnpacking {
			m.release(msg.events)
		}

	case UnpackDoneMsg:
		if msg.events != m.events || m.state != StateUnpacking {
			m.release(msg.events)
			break
		}
		m.release(msg.events)
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.unpacked = msg.Result
			m.state = StateComplete
		}

	case TickMsg:
		if m.manager != nil && m.state == StateDownloading {
			m.snapshot = m.manager.GetProgress()
			cmds = append(cmds, m.progress.SetPercent(m.percent()), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) isBusy() bool {
	return m.state == StateInitializing || m.state == StateDownloading || m.state == StateUnpacking
}

func (m *Model) reset() {
	m.state = StateInput
	m.logs = nil
	m.err = nil
	m.manager = nil
	m.events = nil
	m.dest = ""
	m.series = 0
	m.snapshot = download.Snapshot{}
	m.outcome = nil
	m.unpacked = nil
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.textInput.SetValue("")
	m.textInput.Focus()
}

// release closes the event channel of a finished run. The manager sends
// nothing once its last command has returned, so the channel has no
// writers left and any pending listener wakes up and exits.
func (m *Model) release(events chan download.ProgressEvent) {
	if events == nil {
		return
	}
	close(events)
	if events == m.events {
		m.events = nil
	}
}

func (m *Model) addLog(event download.ProgressEvent) {
	if event.Level == download.LevelVerbose && !m.verbose {
		return
	}
	m.logs = append(m.logs, LogEntry{Message: event.Message, Level: event.Level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m Model) percent() float64 {
	total := m.snapshot.Considered
	if total == 0 {
		return 0
	}
	return float64(m.snapshot.Done()) / float64(total)
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// listenEvents waits for the next manager event.
func (m Model) listenEvents() tea.Cmd {
	events := m.events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return ProgressMsg{Event: event}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("TCIA Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download imaging series from The Cancer Imaging Archive"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateInitializing:
		b.WriteString(m.viewBusy("Reading manifest..."))
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateUnpacking:
		b.WriteString(m.viewBusy("Unpacking and organizing series..."))
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter manifest path:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Unpack and organize after download (alt+u)\n", checkbox(m.unpack)))
	b.WriteString(fmt.Sprintf("  %s Verbose/debug output (alt+v)\n", checkbox(m.verbose)))
	b.WriteString("\n")

	dest := m.settings.DownloadsPath
	if v := strings.TrimSpace(m.textInput.Value()); v != "" {
		dest = Destination(m.settings.DownloadsPath, v)
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("Destination: %s | Workers: %d", dest, m.settings.MaxConcurrentDownloads)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewBusy(title string) string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	b.WriteString(successStyle.Render(fmt.Sprintf("%d series in manifest", m.series)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.dest))
	b.WriteString("\n\n")

	b.WriteString(m.progress.ViewAs(m.percent()))
	b.WriteString("\n")

	s := m.snapshot
	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Series: %d/%d | Skipped: %d | Failed: %d | In flight: %d | Downloaded: %s",
		s.Done(),
		s.Considered,
		s.Skipped,
		s.Failed,
		s.InFlight,
		report.FormatBytes(s.Bytes),
	)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	var total, ok int
	var failed []string
	if m.outcome != nil {
		total = m.outcome.Len()
		ok = m.outcome.Succeeded()
		failed = m.outcome.Failed()
	}

	summary := fmt.Sprintf(
		"Download Complete!\n\n"+
			"Series: %d/%d\n"+
			"Skipped (already present): %d\n"+
			"Size: %s",
		ok,
		total,
		m.snapshot.Skipped,
		report.FormatBytes(m.snapshot.Bytes),
	)
	if m.unpacked != nil {
		summary += fmt.Sprintf("\nOrganized files: %d\nWarnings: %d", len(m.unpacked.Relocated), len(m.unpacked.Warnings))
	}
	b.WriteString(boxStyle.Render(summary))
	b.WriteString("\n")

	if len(failed) > 0 {
		b.WriteString("\n")
		b.WriteString(warningStyle.Render("The following jobs failed to download:"))
		b.WriteString("\n")
		for i, id := range failed {
			if i == maxFailedIDs {
				b.WriteString(dimStyle.Render(fmt.Sprintf("  ... and %d more", len(failed)-maxFailedIDs)))
				b.WriteString("\n")
				break
			}
			b.WriteString(errorStyle.Render("  " + id))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • alt+u: unpack • alt+v: verbose • esc: quit"
	case StateInitializing, StateDownloading, StateUnpacking:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// initializeDownload reads the manifest and creates the manager.
func (m Model) initializeDownload() tea.Cmd {
	ctx := m.ctx
	source := strings.TrimSpace(m.textInput.Value())
	dest := m.dest
	events := m.events

	settings := *m.settings
	settings.Unpack = m.unpack

	return func() tea.Msg {
		manager := download.NewManager(&settings, func(event download.ProgressEvent) {
			select {
			case events <- event:
			default:
			}
		}, download.WithSummary(io.Discard))

		if err := manager.Initialize(ctx, source, dest); err != nil {
			return InitDoneMsg{Err: err, events: events}
		}

		series := 0
		if mf := manager.Manifest(); mf != nil {
			series = len(mf.Series)
		}
		return InitDoneMsg{Manager: manager, Series: series, events: events}
	}
}

// startDownload starts the actual download in background.
func (m Model) startDownload() tea.Cmd {
	ctx, manager, events := m.ctx, m.manager, m.events
	return func() tea.Msg {
		if manager == nil {
			return DownloadDoneMsg{Err: fmt.Errorf("no manager"), events: events}
		}

		outcome, err := manager.StartDownloads(ctx)
		return DownloadDoneMsg{
			Outcome:  outcome,
			Snapshot: manager.GetProgress(),
			Err:      err,
			events:   events,
		}
	}
}

// startUnpack extracts and organizes the downloaded archives.
func (m Model) startUnpack() tea.Cmd {
	ctx, manager, events := m.ctx, m.manager, m.events
	return func() tea.Msg {
		result, err := manager.Unpack(ctx)
		return UnpackDoneMsg{Result: result, Err: err, events: events}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
