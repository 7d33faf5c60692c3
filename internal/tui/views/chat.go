package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/servicesaver/servicesaver/internal/category"
	"github.com/servicesaver/servicesaver/internal/session"
	"github.com/servicesaver/servicesaver/internal/tui"
	"github.com/servicesaver/servicesaver/prompts"
)

// ============================================================================
// Message Types
// ============================================================================

// SendChatMsg is sent when the user submits a chat message.
type SendChatMsg struct {
	Content  string
	Category string
}

// StartOverMsg is sent when the user asks to reset the conversation.
type StartOverMsg struct{}

// ============================================================================
// ChatModel
// ============================================================================

// ChatModel is the view model for the Discuss Need screen.
type ChatModel struct {
	messages  []session.Message
	textarea  textarea.Model
	viewport  viewport.Model
	spinner   spinner.Model
	selected  string // sticky category key
	sending   bool
	resetting bool
	err       error
	width     int
	height    int
}

// NewChatModel creates a new ChatModel sized to the given area.
func NewChatModel(width, height int) ChatModel {
	ta := textarea.New()
	ta.Placeholder = "Describe what service you need help with..."
	ta.CharLimit = 5000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	// Enter submits, so newlines move to alt+enter.
	keyMap := ta.KeyMap
	keyMap.InsertNewline = tui.DefaultKeyMap.NewLine
	ta.KeyMap = keyMap
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = tui.TitleStyle

	m := ChatModel{
		textarea: ta,
		viewport: viewport.New(width, height),
		spinner:  sp,
		width:    width,
		height:   height,
	}
	m.layout()
	return m
}

// Init returns the initial command for the chat view.
func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// Sending reports whether a message write is in flight.
func (m ChatModel) Sending() bool { return m.sending }

// Resetting reports whether a start-over is in flight.
func (m ChatModel) Resetting() bool { return m.resetting }

// Selected returns the sticky category key, empty when none was picked.
func (m ChatModel) Selected() string { return m.selected }

// Err returns the last write error shown on the screen.
func (m ChatModel) Err() error { return m.err }

// SetMessages replaces the conversation with a new snapshot.
func (m *ChatModel) SetMessages(msgs []session.Message) {
	m.messages = msgs
	m.layout()
	m.viewport.GotoBottom()
}

// showWelcome reports whether the intro and category selector are visible.
func (m ChatModel) showWelcome() bool {
	return len(m.messages) <= 1
}

// canStartOver reports whether the Start Over control is offered.
func (m ChatModel) canStartOver() bool {
	return len(m.messages) > 1
}

// Update handles messages for the chat view.
func (m ChatModel) Update(msg tea.Msg) (ChatModel, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, tui.DefaultKeyMap.Enter):
			return m.submit(m.textarea.Value(), "")

		case key.Matches(msg, tui.DefaultKeyMap.StartOver):
			if !m.canStartOver() || m.resetting {
				return m, nil
			}
			m.resetting = true
			m.err = nil
			return m, func() tea.Msg { return StartOverMsg{} }

		case key.Matches(msg, tui.DefaultKeyMap.Category):
			if m.showWelcome() && strings.TrimSpace(m.textarea.Value()) == "" {
				n, _ := strconv.Atoi(strings.TrimPrefix(msg.String(), "alt+"))
				if c, ok := category.ByShortcut(n); ok {
					return m.submit(c.Prompt(), c.Key)
				}
			}
			return m, nil
		}

	case tui.MessageSentMsg:
		m.sending = false
		m.layout()
		return m, nil

	case tui.SendErrorMsg:
		m.sending = false
		m.err = msg.Err
		m.layout()
		return m, nil

	case tui.ResetDoneMsg:
		m.resetting = false
		m.selected = ""
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
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil
	}

	if !m.sending {
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit sends text. A non-empty hint selects that category and makes it
// sticky; otherwise the sticky category is used, falling back to the
// category named by the text itself.
func (m ChatModel) submit(text, hint string) (ChatModel, tea.Cmd) {
	content := strings.TrimSpace(text)
	if content == "" || m.sending {
		return m, nil
	}

	if hint != "" {
		m.selected = hint
	}
	cat := m.selected
	if cat == "" {
		cat = category.KeyFor(content)
	}

	m.textarea.Reset()
	m.sending = true
	m.err = nil
	m.layout()

	return m, func() tea.Msg {
		return SendChatMsg{Content: content, Category: cat}
	}
}

// layout sizes the input and the message viewport to the space left over
// by the fixed sections.
func (m *ChatModel) layout() {
	w := innerWidth(m.width)
	m.textarea.SetWidth(w)
	m.viewport.Width = w

	used := lipgloss.Height(m.header()) + 1 +
		m.textarea.Height() + 1 +
		lipgloss.Height(m.footer())
	if m.showWelcome() {
		used += lipgloss.Height(m.welcome()) + 1
	}
	h := m.height - used - tui.BoxStyle.GetVerticalFrameSize()
	if h < 4 {
		h = 4
	}
	m.viewport.Height = h
	m.viewport.SetContent(m.conversation())
}

// View renders the chat view.
func (m ChatModel) View() string {
	var b strings.Builder

	if m.showWelcome() {
		b.WriteString(m.welcome())
		b.WriteString("\n\n")
	}

	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.sending {
		b.WriteString(tui.DimStyle.Render(m.textarea.View()))
	} else {
		b.WriteString(m.textarea.View())
	}
	b.WriteString("\n")
	b.WriteString(m.footer())

	return tui.BoxStyle.Width(m.width - tui.BoxStyle.GetHorizontalBorderSize()).Render(b.String())
}

func (m ChatModel) header() string {
	title := tui.TitleStyle.Render("Chat with AI Assistant")
	if !m.canStartOver() {
		return title
	}
	control := tui.DimStyle.Render("Ctrl+R: Start Over")
	if m.resetting {
		control = fmt.Sprintf("%s %s", m.spinner.View(), tui.DimStyle.Render("Resetting..."))
	}
	gap := innerWidth(m.width) - lipgloss.Width(title) - lipgloss.Width(control)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + control
}

func (m ChatModel) footer() string {
	var lines []string
	switch {
	case m.sending:
		lines = append(lines, fmt.Sprintf("%s %s", m.spinner.View(), tui.DimStyle.Render("Sending...")))
	case m.err != nil:
		lines = append(lines, tui.IconFailed+" "+tui.ErrorStyle.Render(m.err.Error()))
	}
	help := "Enter: Send · Alt+Enter: New line"
	if m.showWelcome() {
		help += " · Alt+1-9: Pick a category"
	}
	lines = append(lines, tui.DimStyle.Render(help), tui.DimStyle.Render(prompts.InputTip))
	return strings.Join(lines, "\n")
}

// welcome renders the intro card and the quick-start category grid.
func (m ChatModel) welcome() string {
	w := innerWidth(m.width)
	intro := tui.RenderMarkdown(prompts.Welcome, w)

	perRow := 3
	if w < 72 {
		perRow = 1
	}
	cell := lipgloss.NewStyle().Width(w / perRow)

	var rows, row []string
	for i, c := range category.All {
		entry := lipgloss.JoinVertical(lipgloss.Left,
			fmt.Sprintf("%s %s %s", tui.SelectedStyle.Render(strconv.Itoa(i+1)), c.Icon, c.Title),
			tui.DimStyle.Render("   "+c.Teaser()),
		)
		row = append(row, cell.Render(entry))
		if len(row) == perRow || i == len(category.All)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		intro,
		"",
		tui.TitleStyle.Render("What service do you need help with?"),
		strings.Join(rows, "\n"),
	)
}

// conversation renders the greeting followed by the message list. User
// text is shown as typed; assistant text is rendered as markdown.
func (m ChatModel) conversation() string {
	w := m.viewport.Width
	var b strings.Builder

	b.WriteString(tui.AssistantStyle.Render("ServiceSaver AI"))
	b.WriteString("\n")
	b.WriteString(tui.RenderMarkdown(prompts.Greeting, w))

	for _, msg := range m.messages {
		b.WriteString("\n\n")
		switch msg.Role {
		case session.RoleUser:
			b.WriteString(tui.UserStyle.Render("You"))
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Width(w).Render(msg.Content))
		default:
			b.WriteString(tui.AssistantStyle.Render("ServiceSaver AI"))
			b.WriteString("\n")
			b.WriteString(tui.RenderMarkdown(msg.Content, w))
		}
	}

	return b.String()
}
