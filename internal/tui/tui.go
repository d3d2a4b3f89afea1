// Package tui provides a Bubble Tea terminal user interface for artic-downloader.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/artic-downloader/internal/config"
	"github.com/handiism/artic-downloader/internal/scrape"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#C8102E")).
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

// maxLogLines is how many progress messages stay on screen.
const maxLogLines = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateScraping
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   scrape.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logger    *slog.Logger
	logs      []LogEntry
	err       error

	ctx    context.Context
	cancel context.CancelFunc

	pipeline *scrape.Pipeline
	events   chan scrape.ProgressEvent
	current  scrape.Progress
	summary  *scrape.Summary

	// Options
	thumbnails   bool
	skipExisting bool
	verbose      bool

	width  int
	height int
}

// NewModel creates a new TUI model. The query input starts with the
// configured search text.
func NewModel(settings *config.Settings, logger *slog.Logger) Model {
	ti := textinput.New()
	ti.Placeholder = settings.Query
	ti.SetValue(settings.Query)
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#C8102E"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:        StateInput,
		textInput:    ti,
		spinner:      sp,
		progress:     prog,
		settings:     settings,
		logger:       logger,
		logs:         make([]LogEntry, 0),
		ctx:          ctx,
		cancel:       cancel,
		thumbnails:   settings.SaveThumbnails,
		skipExisting: settings.SkipExisting,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg carries one event published by the pipeline.
	ProgressMsg struct {
		Event scrape.ProgressEvent
	}

	// ScrapeStartMsg is sent once the pipeline has been built.
	ScrapeStartMsg struct {
		Pipeline *scrape.Pipeline
		Events   chan scrape.ProgressEvent
	}

	// ScrapeDoneMsg is sent when the run finishes.
	ScrapeDoneMsg struct {
		Summary *scrape.Summary
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

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
			if m.state == StateScraping {
				m.cancel()
			}

		case "enter":
			if m.state == StateInput {
				m.state = StateScraping
				return m, tea.Batch(m.startScrape(), m.spinner.Tick)
			}

		case "ctrl+t":
			if m.state == StateInput {
				m.thumbnails = !m.thumbnails
				return m, nil
			}

		case "ctrl+s":
			if m.state == StateInput {
				m.skipExisting = !m.skipExisting
				return m, nil
			}

		case "ctrl+v":
			if m.state == StateInput {
				m.verbose = !m.verbose
				return m, nil
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for a new run
				m.state = StateInput
				m.logs = nil
				m.err = nil
				m.summary = nil
				m.pipeline = nil
				m.events = nil
				m.current = scrape.Progress{}
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.Focus()
				return m, textinput.Blink
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ScrapeStartMsg:
		m.pipeline = msg.Pipeline
		m.events = msg.Events
		cmds = append(cmds, m.runScrape(), m.waitForEvent(), m.tickProgress())

	case ProgressMsg:
		cmds = append(cmds, m.waitForEvent())
		// Filter verbose messages if not in verbose mode
		if msg.Event.Level == scrape.LevelVerbose && !m.verbose {
			break
		}
		m.logs = append(m.logs, LogEntry{
			Message: msg.Event.Message,
			Level:   msg.Event.Level,
		})
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}

	case ScrapeDoneMsg:
		m.summary = msg.Summary
		if m.pipeline != nil {
			m.current = m.pipeline.Progress()
		}
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}

	case TickMsg:
		if m.pipeline != nil && m.state == StateScraping {
			m.current = m.pipeline.Progress()
			cmds = append(cmds, m.progress.SetPercent(pagePercent(m.current)), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// pagePercent estimates completion from the page being scraped.
func pagePercent(p scrape.Progress) float64 {
	if p.MaxPages <= 0 || p.Page <= 0 {
		return 0
	}
	return float64(p.Page-1) / float64(p.MaxPages)
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// waitForEvent blocks until the pipeline publishes an event.
func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		if events == nil {
			return nil
		}
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

	b.WriteString(titleStyle.Render("Art Institute Sketch Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Public-domain pencil drawings from the Art Institute of Chicago"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateScraping:
		b.WriteString(m.viewScraping())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Search query:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Save thumbnails (ctrl+t)\n", checkbox(m.thumbnails)))
	b.WriteString(fmt.Sprintf("  %s Skip existing files (ctrl+s)\n", checkbox(m.skipExisting)))
	b.WriteString(fmt.Sprintf("  %s Verbose output (ctrl+v)\n", checkbox(m.verbose)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Download path: %s  |  Pages: %d x %d", m.settings.DownloadsPath, m.settings.MaxPages, m.settings.PageSize)))
	b.WriteString("\n")

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) viewScraping() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("Scraping page %d of %d", m.current.Page, m.current.MaxPages)))
	b.WriteString("\n\n")

	b.WriteString(m.progress.ViewAs(pagePercent(m.current)))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Found: %d | Downloaded: %d | Failed: %d | No image: %d",
		m.current.Found,
		m.current.Succeeded,
		m.current.Failed,
		m.current.Skipped,
	)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	var pages, artworks, ok, failed, thumbs int
	if m.summary != nil {
		pages = m.summary.Pages
		artworks = len(m.summary.Artworks)
		ok = m.summary.Succeeded
		failed = m.summary.Failed
		thumbs = m.summary.Thumbnails
	}

	box := boxStyle.Render(fmt.Sprintf(
		"Scrape Complete!\n\n"+
			"Pages: %d\n"+
			"Artworks: %d\n"+
			"Downloaded: %d\n"+
			"Failed: %d\n"+
			"Thumbnails: %d",
		pages, artworks, ok, failed, thumbs,
	))
	b.WriteString(box)
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case scrape.LevelError:
			style = errorStyle
			prefix = "✗"
		case scrape.LevelWarning:
			style = warningStyle
			prefix = "!"
		case scrape.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case scrape.LevelInfo:
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
		return "enter: start • ctrl+t: thumbnails • ctrl+s: skip existing • ctrl+v: verbose • esc: quit"
	case StateScraping:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new scrape • q: quit"
	}
	return ""
}

// startScrape builds a pipeline for the current query and options.
func (m *Model) startScrape() tea.Cmd {
	settings := *m.settings
	if query := strings.TrimSpace(m.textInput.Value()); query != "" {
		settings.Query = query
	}
	settings.SaveThumbnails = m.thumbnails
	settings.SkipExisting = m.skipExisting
	logger := m.logger

	return func() tea.Msg {
		events := make(chan scrape.ProgressEvent, 64)
		pipeline := scrape.NewPipeline(&settings, logger, func(event scrape.ProgressEvent) {
			// Drop events rather than stall the scrape when the UI lags.
			select {
			case events <- event:
			default:
			}
		})
		return ScrapeStartMsg{Pipeline: pipeline, Events: events}
	}
}

// runScrape runs the pipeline in the background.
func (m *Model) runScrape() tea.Cmd {
	pipeline := m.pipeline
	events := m.events
	ctx := m.ctx

	return func() tea.Msg {
		summary, err := pipeline.Run(ctx)
		close(events)
		return ScrapeDoneMsg{Summary: summary, Err: err}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings, logger *slog.Logger) error {
	p := tea.NewProgram(NewModel(settings, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
