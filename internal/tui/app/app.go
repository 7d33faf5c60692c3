// Package app provides the main TUI application that wires all views together.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/servicesaver/servicesaver/internal/auth"
	"github.com/servicesaver/servicesaver/internal/log"
	"github.com/servicesaver/servicesaver/internal/router"
	"github.com/servicesaver/servicesaver/internal/session"
	"github.com/servicesaver/servicesaver/internal/tui"
	"github.com/servicesaver/servicesaver/internal/tui/commands"
	"github.com/servicesaver/servicesaver/internal/tui/views"
)

// chromeHeight is the number of rows the dashboard header, stepper, tab bar
// and status bar take up around the active screen.
const chromeHeight = 9

// SessionFactory builds the session client for a signed-in user.
type SessionFactory func(uid string) (commands.SessionClient, error)

// Deps are the boundaries the App drives. Push is optional.
type Deps struct {
	Auth     commands.Authenticator
	Sessions SessionFactory
	Push     commands.PushRegistrar
	Logger   *zap.Logger
}

// App is the main TUI application that wires all views together.
type App struct {
	ctx    context.Context
	deps   Deps
	logger *zap.Logger
	model  *tui.Model

	client  commands.SessionClient
	updates <-chan session.Update

	// View models
	loginView    views.LoginModel
	chatView     views.ChatModel
	strategyView views.StrategyModel
	callingView  views.CallingModel
}

// New creates a new App. ctx bounds every request the App makes and is
// normally only cancelled when the program exits.
func New(ctx context.Context, deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	model := tui.NewModel()
	return &App{
		ctx:       ctx,
		deps:      deps,
		logger:    logger,
		model:     model,
		loginView: views.NewLoginModel(model.Width, model.Height),
	}
}

// Init restores a stored sign-in, if any.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.model.Spinner.Tick, commands.RestoreCmd(a.ctx, a.deps.Auth))
}

// Close stops the session listeners. It is safe to call more than once.
func (a *App) Close() error {
	return a.closeSession()
}

func (a *App) closeSession() error {
	if a.client == nil {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	a.updates = nil
	return err
}

// Update handles messages and updates the application state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.model.Width = msg.Width
		a.model.Height = msg.Height
		a.resize()
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, tui.DefaultKeyMap.CtrlC) {
			if a.model.CtrlCPending {
				// Second press within timeout - exit
				_ = a.closeSession()
				return a, tea.Quit
			}
			// First press - set pending and start timeout
			a.model.CtrlCPending = true
			return a, tea.Tick(time.Second, func(time.Time) tea.Msg {
				return tui.CtrlCResetMsg{}
			})
		}

	case tui.CtrlCResetMsg:
		// Reset Ctrl+C confirmation state after timeout
		a.model.CtrlCPending = false
		return a, nil

	case tui.ToastExpiredMsg:
		a.model.ExpireToast(msg.ID)
		return a, nil

	case spinner.TickMsg:
		return a, a.tick(msg)

	case tui.SignedInMsg:
		return a, a.handleSignedIn(msg)

	case tui.SignedOutMsg:
		if msg.Err != nil {
			return a, a.model.ShowToast("Could not remove stored sign-in: " + msg.Err.Error())
		}
		return a, nil
	}

	switch a.model.State {
	case tui.StateStarting:
		return a.updateStarting(msg)
	case tui.StateLogin:
		return a.updateLogin(msg)
	case tui.StateDashboard:
		return a.updateDashboard(msg)
	}
	return a, nil
}

// View renders the current application state.
func (a *App) View() string {
	var content string

	switch a.model.State {
	case tui.StateStarting:
		content = a.centerContent(fmt.Sprintf("%s %s", a.model.Spinner.View(), tui.DimStyle.Render("Signing in...")))

	case tui.StateLogin:
		body := a.loginView.View()
		if a.model.Toast != "" {
			body = lipgloss.JoinVertical(lipgloss.Center, body, "", tui.ToastStyle.Render(a.model.Toast))
		}
		if a.model.CtrlCPending {
			body = lipgloss.JoinVertical(lipgloss.Center, body, "", tui.WarningStyle.Render("Press Ctrl+C again to exit"))
		}
		content = a.centerContent(body)

	case tui.StateDashboard:
		content = a.renderDashboard()
	}

	return content
}

// centerContent centers the given content both horizontally and vertically.
func (a *App) centerContent(content string) string {
	return lipgloss.Place(
		a.model.Width,
		a.model.Height,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)
}

// ============================================================================
// State Update Handlers
// ============================================================================

func (a *App) updateStarting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tui.AuthRequiredMsg); ok {
		return a, a.showLogin()
	}
	return a, nil
}

func (a *App) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.loginView, cmd = a.loginView.Update(msg)

	switch msg := msg.(type) {
	case views.LoginSubmitMsg:
		a.model.Toast = ""
		if msg.Register {
			return a, commands.RegisterCmd(a.ctx, a.deps.Auth, msg.Email, msg.Password, msg.Confirm)
		}
		return a, commands.SignInCmd(a.ctx, a.deps.Auth, msg.Email, msg.Password)

	case tui.AuthErrorMsg:
		return a, a.model.ShowToast(auth.Message(msg.Err))
	}

	return a, cmd
}

func (a *App) updateDashboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, tui.DefaultKeyMap.Tab):
			a.cycleScreen(1)
			return a, nil
		case key.Matches(msg, tui.DefaultKeyMap.ShiftTab):
			a.cycleScreen(-1)
			return a, nil
		case key.Matches(msg, tui.DefaultKeyMap.Logout):
			return a, a.logout()
		}
		return a, a.updateActive(msg)

	case tui.SyncStartedMsg:
		return a, commands.ListenSyncCmd(a.updates)

	case tui.SyncUpdateMsg:
		if msg.Source != a.updates {
			return a, nil
		}
		a.applyUpdate(msg.Update)
		return a, commands.ListenSyncCmd(a.updates)

	case tui.SyncClosedMsg:
		return a, nil

	case tui.SyncErrorMsg:
		a.model.SyncErr = msg.Err
		return a, a.model.ShowToast("Could not connect: " + msg.Err.Error())

	case views.SendChatMsg:
		if a.client == nil {
			return a, nil
		}
		return a, commands.SendMessageCmd(a.ctx, a.client, msg.Content, msg.Category)

	case views.StartOverMsg, views.NewNegotiationMsg:
		if a.client == nil {
			return a, nil
		}
		return a, commands.ResetSessionCmd(a.ctx, a.client)

	case tui.MessageSentMsg, tui.SendErrorMsg:
		var cmd tea.Cmd
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case tui.ResetDoneMsg, tui.ResetErrorMsg:
		var chatCmd, callCmd tea.Cmd
		a.chatView, chatCmd = a.chatView.Update(msg)
		a.callingView, callCmd = a.callingView.Update(msg)
		return a, tea.Batch(chatCmd, callCmd)

	case tui.PushResultMsg:
		// Already logged by the registrar; push is optional.
		return a, nil
	}

	return a, a.updateActive(msg)
}

// updateActive forwards msg to the screen that is showing.
func (a *App) updateActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.model.Screen {
	case router.ScreenStrategy:
		a.strategyView, cmd = a.strategyView.Update(msg)
	case router.ScreenCall:
		a.callingView, cmd = a.callingView.Update(msg)
	default:
		a.chatView, cmd = a.chatView.Update(msg)
	}
	return cmd
}

// tick advances every spinner. Each spinner ignores ticks that are not its
// own, so forwarding to all of them keeps each one running.
func (a *App) tick(msg spinner.TickMsg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	a.model.Spinner, cmd = a.model.Spinner.Update(msg)
	cmds = append(cmds, cmd)

	if a.model.State == tui.StateDashboard {
		a.chatView, cmd = a.chatView.Update(msg)
		cmds = append(cmds, cmd)
		a.strategyView, cmd = a.strategyView.Update(msg)
		cmds = append(cmds, cmd)
		a.callingView, cmd = a.callingView.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// ============================================================================
// Transitions
// ============================================================================

func (a *App) showLogin() tea.Cmd {
	a.model.State = tui.StateLogin
	a.loginView = views.NewLoginModel(a.model.Width, a.model.Height)
	return a.loginView.Init()
}

// handleSignedIn opens the user's session and switches to the dashboard.
func (a *App) handleSignedIn(msg tui.SignedInMsg) tea.Cmd {
	a.loginView, _ = a.loginView.Update(msg)
	_ = a.closeSession()

	client, err := a.deps.Sessions(msg.UserID)
	if err != nil {
		a.logger.Error("open session", zap.String("uid", msg.UserID), zap.Error(err))
		a.model.State = tui.StateLogin
		return a.model.ShowToast("Could not open your session: " + err.Error())
	}

	a.logger.Info("signed in", zap.String("event", log.EventSignedIn), zap.String("uid", msg.UserID))

	a.client = client
	a.updates = client.Updates()
	a.model.UserID = msg.UserID
	a.model.Email = msg.Email
	a.model.Toast = ""
	a.model.State = tui.StateDashboard
	a.model.Screen = router.ScreenChat
	a.model.Tracker.Reset()

	w, h := a.screenSize()
	a.chatView = views.NewChatModel(w, h)
	a.strategyView = views.NewStrategyModel(w, h)
	a.callingView = views.NewCallingModel(w, h)

	cmds := []tea.Cmd{
		commands.StartSyncCmd(a.ctx, client),
		a.chatView.Init(),
		a.strategyView.Init(),
		a.callingView.Init(),
	}
	if a.deps.Push != nil {
		cmds = append(cmds, commands.RegisterPushCmd(a.ctx, a.deps.Push, msg.UserID))
	}
	return tea.Batch(cmds...)
}

// applyUpdate folds a session delivery into the model and the screens. A
// status transition moves the active screen; manual tab changes between
// transitions are left alone.
func (a *App) applyUpdate(u session.Update) {
	prev := a.model.Tracker.Last()
	changed := a.model.Apply(u)

	switch u.Kind {
	case session.KindSession:
		a.strategyView.SetSession(u.Session)
		a.callingView.SetSession(u.Session)
		if changed {
			a.logger.Info("status changed",
				zap.String("event", log.EventStatusChanged),
				zap.String("uid", a.model.UserID),
				zap.String("from", string(prev)),
				zap.String("status", string(session.StatusOf(u.Session))),
				zap.String("screen", string(a.model.Screen)))
		}
	case session.KindMessages:
		a.chatView.SetMessages(u.Messages)
	}
}

func (a *App) logout() tea.Cmd {
	if err := a.closeSession(); err != nil {
		a.logger.Warn("close session", zap.Error(err))
	}
	a.model.SignOut()
	return tea.Batch(commands.SignOutCmd(a.deps.Auth), a.showLogin())
}

// cycleScreen moves the active tab by delta, wrapping around.
func (a *App) cycleScreen(delta int) {
	n := len(router.Screens)
	for i, s := range router.Screens {
		if s == a.model.Screen {
			a.model.Screen = router.Screens[((i+delta)%n+n)%n]
			return
		}
	}
	a.model.Screen = router.ScreenChat
}

// ============================================================================
// Layout and Rendering
// ============================================================================

func (a *App) screenSize() (int, int) {
	h := a.model.Height - chromeHeight
	if h < 10 {
		h = 10
	}
	return a.model.Width, h
}

func (a *App) resize() {
	a.loginView, _ = a.loginView.Update(tea.WindowSizeMsg{Width: a.model.Width, Height: a.model.Height})
	if a.model.State != tui.StateDashboard {
		return
	}
	w, h := a.screenSize()
	size := tea.WindowSizeMsg{Width: w, Height: h}
	a.chatView, _ = a.chatView.Update(size)
	a.strategyView, _ = a.strategyView.Update(size)
	a.callingView, _ = a.callingView.Update(size)
}

func (a *App) renderDashboard() string {
	var active string
	switch a.model.Screen {
	case router.ScreenStrategy:
		active = a.strategyView.View()
	case router.ScreenCall:
		active = a.callingView.View()
	default:
		active = a.chatView.View()
	}

	header := tui.TitleStyle.Render("ServiceSaver") + "  " + tui.DimStyle.Render(a.model.Email)
	sync := a.model.SyncLabel()
	gap := a.model.Width - lipgloss.Width(header) - lipgloss.Width(sync)
	if gap < 1 {
		gap = 1
	}
	header += strings.Repeat(" ", gap) + sync

	toast := ""
	if a.model.Toast != "" {
		toast = tui.ErrorStyle.Render(a.model.Toast)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		views.RenderStepper(router.Steps(session.StatusOf(a.model.Session))),
		"",
		views.RenderTabBar(a.model.Screen),
		active,
		toast,
		a.renderStatusBar(),
	)
}

func (a *App) renderStatusBar() string {
	help := "Tab: Switch screen · Ctrl+L: Sign out · Ctrl+C: Exit"
	if a.model.CtrlCPending {
		help = "Press Ctrl+C again to exit"
	}
	return tui.StatusBarStyle.Width(a.model.Width).Render(help)
}
