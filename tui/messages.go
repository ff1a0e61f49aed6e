package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fmjrey/chkodf/resolver"
	"github.com/fmjrey/chkodf/result"
)

// ResolveProgressMsg reports one resolved URL.
type ResolveProgressMsg struct {
	Resolved       int
	Failed         int
	URL            string
	Classification result.Classification
}

// ResolveDoneMsg signals the run has completed.
type ResolveDoneMsg struct {
	Report *result.Report
	Err    error
}

// waitForProgress returns a tea.Cmd that reads one event from the progress
// channel. When the channel closes, it returns an empty ResolveDoneMsg
// (the actual report comes from startRun).
func waitForProgress(ch <-chan resolver.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return ResolveDoneMsg{}
		}
		return ResolveProgressMsg{
			Resolved:       evt.Resolved,
			Failed:         evt.Failed,
			URL:            evt.Result.URL,
			Classification: evt.Result.Classification,
		}
	}
}
