package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/servicesaver/servicesaver/internal/router"
	"github.com/servicesaver/servicesaver/internal/session"
	"github.com/servicesaver/servicesaver/internal/transcript"
	"github.com/servicesaver/servicesaver/internal/tui"
)

// ============================================================================
// Message Types
// ============================================================================

// NewNegotiationMsg is sent when the user starts over from a finished
// negotiation.
type NewNegotiationMsg struct{}

// ============================================================================
// CallingModel
// ============================================================================

// CallingModel is the view model for the Negotiate screen.
type CallingModel struct {
	session   *session.Session
	cursor    int
	expanded  map[int]bool
	resetting bool
	err       error
	viewport  viewport.Model
	spinner   spinner.Model
	width     int
	height    int
}

// NewCallingModel creates a CallingModel sized to the given area.
func NewCallingModel(width, height int) CallingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = tui.WarningStyle

	m := CallingModel{
		expanded: map[int]bool{},
		viewport: viewport.New(width, height),
		spinner:  sp,
		width:    width,
		height:   height,
	}
	m.layout()
	return m
}

// Init returns the initial command for the calling view.
func (m CallingModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Resetting reports whether a new negotiation is being started.
func (m CallingModel) Resetting() bool { return m.resetting }

// Expanded reports whether the card at index shows its transcript.
func (m CallingModel) Expanded(index int) bool { return m.expanded[index] }

// Cursor returns the selected card.
func (m CallingModel) Cursor() int { return m.cursor }

// SetSession replaces the displayed session. Expanded cards stay expanded
// while the provider list keeps its length.
func (m *CallingModel) SetSession(sess *session.Session) {
	prev := m.providerCount()
	m.session = sess
	if n := m.providerCount(); n != prev {
		m.expanded = map[int]bool{}
		if m.cursor >= n {
			m.cursor = 0
		}
	}
	m.layout()
}

func (m CallingModel) providerCount() int {
	if m.session == nil {
		return 0
	}
	return len(m.session.Movers)
}

// Update handles messages for the calling view.
func (m CallingModel) Update(msg tea.Msg) (CallingModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		n := m.providerCount()
		switch {
		case key.Matches(msg, tui.DefaultKeyMap.Up):
			if m.cursor > 0 {
				m.cursor--
				m.layout()
			}
			return m, nil

		case key.Matches(msg, tui.DefaultKeyMap.Down):
			if m.cursor < n-1 {
				m.cursor++
				m.layout()
			}
			return m, nil

		case key.Matches(msg, tui.DefaultKeyMap.ToggleCard):
			if n > 0 {
				m.expanded[m.cursor] = !m.expanded[m.cursor]
				m.layout()
			}
			return m, nil

		case key.Matches(msg, tui.DefaultKeyMap.NewNegotiation):
			if session.StatusOf(m.session) != session.StatusCompleted || m.resetting {
				return m, nil
			}
			m.resetting = true
			m.err = nil
			m.layout()
			return m, func() tea.Msg { return NewNegotiationMsg{} }
		}

	case tui.ResetDoneMsg:
		m.resetting = false
		m.err = nil
		m.layout()
		return m, nil

	case tui.ResetErrorMsg:
		m.resetting = false
		m.err = msg.Err
		m.layout()
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		if session.StatusOf(m.session) == session.StatusNegotiating || m.resetting {
			m.viewport.SetContent(m.content())
		}
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *CallingModel) layout() {
	m.viewport.Width = innerWidth(m.width)
	h := m.height - tui.BoxStyle.GetVerticalFrameSize() - 2
	if h < 4 {
		h = 4
	}
	m.viewport.Height = h
	m.viewport.SetContent(m.content())
}

// View renders the calling view.
func (m CallingModel) View() string {
	body := tui.TitleStyle.Render("Negotiate") + "\n\n" + m.viewport.View()
	return tui.BoxStyle.Width(m.width - tui.BoxStyle.GetHorizontalBorderSize()).Render(body)
}

func (m CallingModel) content() string {
	if m.session == nil {
		return fmt.Sprintf("%s %s", m.spinner.View(), tui.DimStyle.Render("Loading your session..."))
	}

	w := m.viewport.Width
	var parts []string

	if m.session.Status == session.StatusNegotiating {
		parts = append(parts, fmt.Sprintf("%s %s", m.spinner.View(),
			tui.WarningStyle.Render("AI is negotiating on your behalf. Calls are in progress.")))
	}

	if len(m.session.Movers) == 0 {
		parts = append(parts, tui.DimStyle.Render("No providers contacted yet"))
	} else {
		states := router.ProviderStates(m.session.Status, len(m.session.Movers), m.session.CallSummaries)
		cards := make([]string, 0, len(states))
		for i, p := range m.session.Movers {
			cards = append(cards, m.card(i, p, states[i], w))
		}
		parts = append(parts, strings.Join(cards, "\n"))
	}

	if m.session.Status == session.StatusCompleted {
		parts = append(parts, m.results(w))
	}

	if m.err != nil {
		parts = append(parts, tui.IconFailed+" "+tui.ErrorStyle.Render(m.err.Error()))
	}

	parts = append(parts, tui.DimStyle.Render("↑/↓: Select · Enter: Transcript"))
	return strings.Join(parts, "\n\n")
}

func (m CallingModel) card(index int, p session.Provider, state router.CallState, w int) string {
	style := tui.CardStyle
	var icon, status string
	switch state {
	case router.CallDone:
		icon = tui.IconDone
		status = tui.SuccessStyle.Render("Call complete")
	case router.CallActive:
		icon = tui.IconActive
		style = tui.ActiveCardStyle
		status = tui.LiveBadgeStyle.Render("LIVE") + " " + m.spinner.View() + tui.WarningStyle.Render(" negotiating...")
	default:
		icon = tui.IconPending
		status = tui.DimStyle.Render("Waiting")
	}

	name := p.Name
	if index == m.cursor {
		name = tui.SelectedStyle.Render("› " + name)
	}
	head := fmt.Sprintf("%s %s", icon, name)
	if c := p.ContactLine(); c != "" {
		head += "  " + tui.DimStyle.Render(c)
	}

	lines := []string{head, status}
	if m.expanded[index] {
		lines = append(lines, m.transcript(index))
	}

	return style.Width(w - style.GetHorizontalBorderSize()).Render(strings.Join(lines, "\n"))
}

func (m CallingModel) transcript(index int) string {
	lines := transcript.Summaries(m.session.CallSummaries, index)
	if len(lines) == 0 {
		return tui.DimStyle.Render("No transcript yet")
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Speaker == transcript.Assistant {
			out = append(out, tui.AssistantStyle.Render("ServiceSaver: ")+l.Text)
		} else {
			out = append(out, tui.UserStyle.Render("Provider: ")+l.Text)
		}
	}
	return strings.Join(out, "\n")
}

func (m CallingModel) results(w int) string {
	var b strings.Builder
	b.WriteString(tui.TitleStyle.Render("Recommendation"))
	b.WriteString("\n")
	if m.session.Recommendation != "" {
		b.WriteString(tui.RenderMarkdown(m.session.Recommendation, w))
	} else {
		b.WriteString(tui.DimStyle.Render("Waiting for the final analysis..."))
	}
	b.WriteString("\n\n")
	if m.resetting {
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), tui.DimStyle.Render("Starting a new negotiation...")))
	} else {
		b.WriteString(tui.ActiveTabStyle.Render("Ctrl+N: New Negotiation"))
	}
	return b.String()
}
