// Package commands provides Bubble Tea commands for TUI operations.
package commands

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/servicesaver/servicesaver/internal/auth"
	"github.com/servicesaver/servicesaver/internal/tui"
)

// Authenticator is the sign-in boundary the TUI talks to.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*auth.Credentials, error)
	Register(ctx context.Context, email, password, confirm string) (*auth.Credentials, error)
	Restore(ctx context.Context) (*auth.Credentials, error)
	SignOut() error
}

// RestoreCmd tries to resume a stored sign-in.
// Returns SignedInMsg on success or AuthRequiredMsg when the login screen
// should be shown. Stored credentials are only removed once the provider
// has rejected them.
func RestoreCmd(ctx context.Context, a Authenticator) tea.Cmd {
	return func() tea.Msg {
		creds, err := a.Restore(ctx)
		if err != nil {
			if auth.IsRevoked(err) {
				// A stale refresh token is not worth a toast.
				_ = a.SignOut()
			}
			return tui.AuthRequiredMsg{}
		}
		return signedIn(creds)
	}
}

// SignInCmd authenticates with email and password.
// Returns SignedInMsg on success or AuthErrorMsg on failure.
func SignInCmd(ctx context.Context, a Authenticator, email, password string) tea.Cmd {
	return func() tea.Msg {
		creds, err := a.SignIn(ctx, email, password)
		if err != nil {
			return tui.AuthErrorMsg{Err: err}
		}
		return signedIn(creds)
	}
}

// RegisterCmd creates an account. A mismatched confirmation fails before
// any request is made.
func RegisterCmd(ctx context.Context, a Authenticator, email, password, confirm string) tea.Cmd {
	return func() tea.Msg {
		creds, err := a.Register(ctx, email, password, confirm)
		if err != nil {
			return tui.AuthErrorMsg{Err: err}
		}
		return signedIn(creds)
	}
}

// SignOutCmd removes the stored credentials.
func SignOutCmd(a Authenticator) tea.Cmd {
	return func() tea.Msg {
		return tui.SignedOutMsg{Err: a.SignOut()}
	}
}

func signedIn(creds *auth.Credentials) tea.Msg {
	return tui.SignedInMsg{UserID: creds.UserID, Email: creds.Email}
}
