package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/servicesaver/servicesaver/internal/tui"
)

// ============================================================================
// Message Types
// ============================================================================

// LoginSubmitMsg is sent when the user submits the login form.
type LoginSubmitMsg struct {
	Email    string
	Password string
	Confirm  string
	Register bool
}

// ============================================================================
// LoginModel
// ============================================================================

// LoginMode selects between signing in and creating an account.
type LoginMode int

const (
	ModeSignIn LoginMode = iota
	ModeRegister
)

const (
	fieldEmail = iota
	fieldPassword
	fieldConfirm
)

// LoginModel is the view model for the sign-in screen.
type LoginModel struct {
	inputs     []textinput.Model
	focus      int
	mode       LoginMode
	submitting bool
	width      int
	height     int
}

// NewLoginModel creates a LoginModel in sign-in mode.
func NewLoginModel(width, height int) LoginModel {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email     "
	email.CharLimit = 254

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password  "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	confirm := textinput.New()
	confirm.Placeholder = "repeat password"
	confirm.Prompt = "Confirm   "
	confirm.EchoMode = textinput.EchoPassword
	confirm.EchoCharacter = '•'

	m := LoginModel{
		inputs: []textinput.Model{email, password, confirm},
		width:  width,
		height: height,
	}
	m.setWidth(width)
	m.inputs[fieldEmail].Focus()
	return m
}

// Init returns the initial command for the login view.
func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

// Mode returns the current form mode.
func (m LoginModel) Mode() LoginMode {
	return m.mode
}

// Submitting reports whether a request is in flight.
func (m LoginModel) Submitting() bool {
	return m.submitting
}

// CanSubmit reports whether every visible field is filled.
func (m LoginModel) CanSubmit() bool {
	for i := 0; i < m.fieldCount(); i++ {
		if strings.TrimSpace(m.inputs[i].Value()) == "" {
			return false
		}
	}
	return true
}

func (m LoginModel) fieldCount() int {
	if m.mode == ModeRegister {
		return 3
	}
	return 2
}

func (m *LoginModel) setWidth(width int) {
	w := width - 30
	if w < 20 {
		w = 20
	}
	for i := range m.inputs {
		m.inputs[i].Width = w
	}
}

func (m *LoginModel) setFocus(i int) {
	n := m.fieldCount()
	m.focus = (i%n + n) % n
	for j := range m.inputs {
		if j == m.focus {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

// Update handles messages for the login view.
func (m LoginModel) Update(msg tea.Msg) (LoginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, tui.DefaultKeyMap.ToggleMode):
			if m.submitting {
				return m, nil
			}
			if m.mode == ModeSignIn {
				m.mode = ModeRegister
			} else {
				m.mode = ModeSignIn
				m.inputs[fieldConfirm].Reset()
			}
			m.setFocus(m.focus)
			return m, nil

		case key.Matches(msg, tui.DefaultKeyMap.Tab), key.Matches(msg, tui.DefaultKeyMap.Down):
			m.setFocus(m.focus + 1)
			return m, nil

		case key.Matches(msg, tui.DefaultKeyMap.ShiftTab), key.Matches(msg, tui.DefaultKeyMap.Up):
			m.setFocus(m.focus - 1)
			return m, nil

		case key.Matches(msg, tui.DefaultKeyMap.Enter):
			if m.focus < m.fieldCount()-1 && strings.TrimSpace(m.inputs[m.focus].Value()) != "" {
				m.setFocus(m.focus + 1)
				return m, nil
			}
			if m.submitting || !m.CanSubmit() {
				return m, nil
			}
			m.submitting = true
			submit := LoginSubmitMsg{
				Email:    strings.TrimSpace(m.inputs[fieldEmail].Value()),
				Password: m.inputs[fieldPassword].Value(),
				Register: m.mode == ModeRegister,
			}
			if submit.Register {
				submit.Confirm = m.inputs[fieldConfirm].Value()
			}
			return m, func() tea.Msg { return submit }
		}

	case tui.AuthErrorMsg:
		m.submitting = false
		m.inputs[fieldPassword].Reset()
		m.inputs[fieldConfirm].Reset()
		m.setFocus(fieldPassword)
		return m, nil

	case tui.SignedInMsg:
		m.submitting = false
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.setWidth(msg.Width)
		return m, nil
	}

	if m.submitting {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// View renders the login view.
func (m LoginModel) View() string {
	var b strings.Builder

	if m.mode == ModeRegister {
		b.WriteString(tui.TitleStyle.Render("Create Account"))
	} else {
		b.WriteString(tui.TitleStyle.Render("Welcome Back"))
	}
	b.WriteString("\n")
	b.WriteString(tui.DimStyle.Render("ServiceSaver negotiates better deals on the services you pay for."))
	b.WriteString("\n\n")

	for i := 0; i < m.fieldCount(); i++ {
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	label := "Sign In"
	if m.mode == ModeRegister {
		label = "Register"
	}
	switch {
	case m.submitting:
		b.WriteString(tui.DimStyle.Render(label + "..."))
	case m.CanSubmit():
		b.WriteString(tui.ActiveTabStyle.Render(label))
	default:
		b.WriteString(tui.InactiveTabStyle.Render(label))
	}
	b.WriteString("\n\n")

	toggle := "Ctrl+T: create an account"
	if m.mode == ModeRegister {
		toggle = "Ctrl+T: I already have an account"
	}
	b.WriteString(tui.DimStyle.Render("Tab: next field · Enter: submit · " + toggle))

	return tui.BoxStyle.Width(boxWidth(m.width, 72)).Render(b.String())
}
