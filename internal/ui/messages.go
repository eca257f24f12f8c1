// Package ui provides the Bubble Tea TUI for strategist.
package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/strategist/internal/session"
)

// outcomeMsg carries a finished session task back to Update.
type outcomeMsg struct {
	outcome session.Outcome
}

// runTask wraps a session task as a command. Tasks run on Bubble Tea's
// command goroutines; only the outcome touches the session.
func runTask(ctx context.Context, t session.Task) tea.Cmd {
	if t == nil {
		return nil
	}
	return func() tea.Msg {
		return outcomeMsg{outcome: t(ctx)}
	}
}

// runTasks batches several tasks.
func runTasks(ctx context.Context, ts []session.Task) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(ts))
	for _, t := range ts {
		if c := runTask(ctx, t); c != nil {
			cmds = append(cmds, c)
		}
	}
	return tea.Batch(cmds...)
}
