package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/servicesaver/servicesaver/internal/router"
	"github.com/servicesaver/servicesaver/internal/session"
)

// ToastDuration is how long a toast stays on screen.
const ToastDuration = 4 * time.Second

// ViewState represents the current top-level state of the TUI.
type ViewState int

const (
	StateStarting ViewState = iota // restoring a stored sign-in
	StateLogin
	StateDashboard
)

// Model is the shared TUI state: who is signed in, the live session view,
// and which dashboard screen is showing.
type Model struct {
	State ViewState

	// Identity
	UserID string
	Email  string

	// Live view, replaced wholesale on every snapshot
	Session  *session.Session
	Messages []session.Message
	Synced   bool // a network snapshot has arrived

	// Sync health
	SyncErr  error
	Degraded bool

	// Routing
	Screen  router.Screen
	Tracker router.Tracker

	// Toast
	Toast   string
	ToastID int

	Spinner spinner.Model

	// Terminal dimensions
	Width  int
	Height int

	// Ctrl+C confirmation state
	CtrlCPending bool // True when waiting for second Ctrl+C press
}

// NewModel creates a Model in the starting state.
func NewModel() *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(primaryColor))

	return &Model{
		State:   StateStarting,
		Screen:  router.ScreenChat,
		Spinner: sp,

		// Default dimensions (will be updated on WindowSizeMsg)
		Width:  80,
		Height: 24,
	}
}

// Apply folds an update into the live view. It reports whether the session
// status changed, in which case Screen has been moved to the routed screen.
func (m *Model) Apply(u session.Update) bool {
	switch u.Kind {
	case session.KindSession:
		m.Session = u.Session
		if !u.FromCache {
			m.Synced = true
			m.SyncErr = nil
		}
		screen, changed := m.Tracker.Observe(u.Session)
		if changed {
			m.Screen = screen
		}
		return changed

	case session.KindMessages:
		m.Messages = u.Messages
		if !u.FromCache {
			m.SyncErr = nil
		}

	case session.KindError:
		m.SyncErr = u.Err
		m.Degraded = m.Degraded || u.Degraded

	case session.KindRecovered:
		m.SyncErr = nil
		m.Degraded = false
	}
	return false
}

// SignOut clears everything tied to the signed-in user.
func (m *Model) SignOut() {
	m.UserID = ""
	m.Email = ""
	m.Session = nil
	m.Messages = nil
	m.Synced = false
	m.SyncErr = nil
	m.Degraded = false
	m.Screen = router.ScreenChat
	m.Tracker.Reset()
	m.State = StateLogin
}

// ShowToast displays text and schedules its removal.
func (m *Model) ShowToast(text string) tea.Cmd {
	m.ToastID++
	m.Toast = text
	id := m.ToastID
	return tea.Tick(ToastDuration, func(time.Time) tea.Msg {
		return ToastExpiredMsg{ID: id}
	})
}

// ExpireToast hides the toast if it is still the one identified by id.
func (m *Model) ExpireToast(id int) {
	if id == m.ToastID {
		m.Toast = ""
	}
}

// SyncLabel describes sync health for the status bar.
func (m *Model) SyncLabel() string {
	switch {
	case m.Degraded:
		return IconFailed + " offline, retrying"
	case m.SyncErr != nil:
		return WarningStyle.Render("reconnecting")
	case !m.Synced:
		return DimStyle.Render("connecting")
	default:
		return SuccessStyle.Render("live")
	}
}
