package tui

import "github.com/servicesaver/servicesaver/internal/session"

// ============================================================================
// Auth Messages
// ============================================================================

// AuthRequiredMsg signals that no stored sign-in could be restored.
type AuthRequiredMsg struct{}

// SignedInMsg signals a successful sign-in, registration or restore.
type SignedInMsg struct {
	UserID string
	Email  string
}

// AuthErrorMsg carries a failed sign-in or registration.
type AuthErrorMsg struct {
	Err error
}

// SignedOutMsg signals that the stored credentials were removed.
type SignedOutMsg struct {
	Err error
}

// ============================================================================
// Sync Messages
// ============================================================================

// SyncStartedMsg signals that the session listeners are running.
type SyncStartedMsg struct{}

// SyncUpdateMsg carries one delivery from the session client. Source
// identifies the stream so deliveries from a signed-out user are dropped.
type SyncUpdateMsg struct {
	Update session.Update
	Source <-chan session.Update
}

// SyncClosedMsg signals that the session client's update stream ended.
type SyncClosedMsg struct {
	Source <-chan session.Update
}

// SyncErrorMsg signals that the session client could not be started.
type SyncErrorMsg struct {
	Err error
}

// ============================================================================
// Command Result Messages
// ============================================================================

// MessageSentMsg signals that a chat message was written.
type MessageSentMsg struct{}

// SendErrorMsg signals a failed message write.
type SendErrorMsg struct {
	Err error
}

// ResetDoneMsg signals that the session was deleted and re-initialised.
type ResetDoneMsg struct{}

// ResetErrorMsg signals a failed reset.
type ResetErrorMsg struct {
	Err error
}

// PushResultMsg reports the outcome of push registration. Err is nil on
// success.
type PushResultMsg struct {
	Err error
}

// ============================================================================
// Utility Messages
// ============================================================================

// CtrlCResetMsg clears the pending Ctrl+C confirmation after its timeout.
type CtrlCResetMsg struct{}

// ToastExpiredMsg hides the toast with the given sequence number.
type ToastExpiredMsg struct {
	ID int
}
