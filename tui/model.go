// Package tui provides the Bubble Tea terminal UI for chkodf, displaying
// live resolution progress and a styled summary of the report.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/fmjrey/chkodf/resolver"
	"github.com/fmjrey/chkodf/result"
)

// Runner resolves a document's hrefs; *resolver.Processor implements it.
type Runner interface {
	Run(ctx context.Context, hrefs []string) (*result.Report, error)
}

// Model is the Bubble Tea model for the resolution TUI.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	runner  Runner
	hrefs   []string
	spinner spinner.Model
	events  <-chan resolver.Event

	resolved int
	failed   int
	current  string
	tag      string
	quitting bool
	done     bool
	report   *result.Report
	err      error
	width    int
}

// NewModel creates a TUI model that runs runner over hrefs and follows its
// progress on events.
func NewModel(ctx context.Context, cancel context.CancelFunc, runner Runner, hrefs []string, events <-chan resolver.Event) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		ctx:     ctx,
		cancel:  cancel,
		runner:  runner,
		hrefs:   hrefs,
		spinner: spin,
		events:  events,
	}
}

// Init starts the spinner, the run, and the progress listener concurrently.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startRun(), waitForProgress(m.events))
}

// startRun returns a tea.Cmd that runs the resolver and sends ResolveDoneMsg.
func (m Model) startRun() tea.Cmd {
	return func() tea.Msg {
		report, err := m.runner.Run(m.ctx, m.hrefs)
		if err != nil {
			err = fmt.Errorf("resolve: %w", err)
		}
		return ResolveDoneMsg{Report: report, Err: err}
	}
}

// Update handles messages from the Bubble Tea runtime.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case ResolveProgressMsg:
		m.resolved = msg.Resolved
		m.failed = msg.Failed
		m.current = msg.URL
		m.tag = msg.Classification.Tag()
		return m, waitForProgress(m.events)

	case ResolveDoneMsg:
		if msg.Report == nil && msg.Err == nil {
			// Progress channel closed; the run reports on its own.
			return m, nil
		}
		m.done = true
		m.report = msg.Report
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current TUI state.
func (m Model) View() string {
	if m.done && m.report != nil {
		view := RenderSummary(m.report)
		if m.err != nil {
			view += errorStyle.Render("Error: "+m.err.Error()) + "\n"
		}
		return view
	}
	if m.done && m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	line := m.current
	if m.tag != "" {
		line = m.tag + " " + line
	}
	return fmt.Sprintf("%s Resolving %d links... resolved %d, failed %d\n%s\n",
		m.spinner.View(), len(m.hrefs), m.resolved, m.failed,
		dimStyle.Render("  "+truncate(line, m.width)))
}

// HasFailures reports whether any document link was classified failure.
func (m Model) HasFailures() bool {
	return m.report.HasFailures()
}

// Report returns the finished report, nil while running or after an abort.
func (m Model) Report() *result.Report {
	return m.report
}

// Err returns the error the run ended with, if any.
func (m Model) Err() error {
	return m.err
}

// truncate fits s in width-2 terminal cells, cutting on grapheme boundaries.
func truncate(s string, width int) string {
	if width <= 4 {
		return s
	}
	return ansi.Truncate(s, width-2, "...")
}
