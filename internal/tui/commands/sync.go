package commands

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/servicesaver/servicesaver/internal/session"
	"github.com/servicesaver/servicesaver/internal/tui"
)

// SessionClient is the per-user session boundary the TUI talks to.
type SessionClient interface {
	Start(ctx context.Context) error
	Updates() <-chan session.Update
	AppendMessage(ctx context.Context, text, category string) error
	Reset(ctx context.Context) error
	Close() error
}

// StartSyncCmd launches the session listeners.
// Returns SyncStartedMsg, after which ListenSyncCmd drains the updates.
func StartSyncCmd(ctx context.Context, c SessionClient) tea.Cmd {
	return func() tea.Msg {
		if err := c.Start(ctx); err != nil {
			return tui.SyncErrorMsg{Err: err}
		}
		return tui.SyncStartedMsg{}
	}
}

// ListenSyncCmd waits for the next update from the session client.
// Returns SyncUpdateMsg for each update, or SyncClosedMsg when the
// channel closes.
func ListenSyncCmd(updates <-chan session.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return tui.SyncClosedMsg{Source: updates}
		}
		return tui.SyncUpdateMsg{Update: u, Source: updates}
	}
}

// SendMessageCmd appends a user message.
// Returns MessageSentMsg on success or SendErrorMsg on failure.
func SendMessageCmd(ctx context.Context, c SessionClient, text, category string) tea.Cmd {
	return func() tea.Msg {
		if err := c.AppendMessage(ctx, text, category); err != nil {
			return tui.SendErrorMsg{Err: err}
		}
		return tui.MessageSentMsg{}
	}
}

// ResetSessionCmd deletes the session and asks the backend for a new one.
// Returns ResetDoneMsg on success or ResetErrorMsg on failure.
func ResetSessionCmd(ctx context.Context, c SessionClient) tea.Cmd {
	return func() tea.Msg {
		if err := c.Reset(ctx); err != nil {
			return tui.ResetErrorMsg{Err: err}
		}
		return tui.ResetDoneMsg{}
	}
}
