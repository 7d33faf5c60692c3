package commands

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/servicesaver/servicesaver/internal/tui"
)

// PushRegistrar subscribes this device to the user's notifications.
type PushRegistrar interface {
	Register(ctx context.Context, uid string) error
}

// RegisterPushCmd registers the device for push notifications. Failure is
// reported but never blocks the session.
func RegisterPushCmd(ctx context.Context, r PushRegistrar, uid string) tea.Cmd {
	return func() tea.Msg {
		return tui.PushResultMsg{Err: r.Register(ctx, uid)}
	}
}
