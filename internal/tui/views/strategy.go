package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/servicesaver/servicesaver/internal/details"
	"github.com/servicesaver/servicesaver/internal/router"
	"github.com/servicesaver/servicesaver/internal/session"
	"github.com/servicesaver/servicesaver/internal/tui"
)

// StrategyModel is the view model for the AI Strategy screen. It is read
// only; everything it shows comes from the session document.
type StrategyModel struct {
	session  *session.Session
	viewport viewport.Model
	spinner  spinner.Model
	width    int
	height   int
}

// NewStrategyModel creates a StrategyModel sized to the given area.
func NewStrategyModel(width, height int) StrategyModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = tui.TitleStyle

	m := StrategyModel{
		viewport: viewport.New(width, height),
		spinner:  sp,
		width:    width,
		height:   height,
	}
	m.layout()
	return m
}

// Init returns the initial command for the strategy view.
func (m StrategyModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// SetSession replaces the displayed session.
func (m *StrategyModel) SetSession(sess *session.Session) {
	m.session = sess
	m.layout()
}

// Update handles messages for the strategy view.
func (m StrategyModel) Update(msg tea.Msg) (StrategyModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		if router.IsGenerating(m.session) {
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

func (m *StrategyModel) layout() {
	m.viewport.Width = innerWidth(m.width)
	h := m.height - tui.BoxStyle.GetVerticalFrameSize() - 2
	if h < 4 {
		h = 4
	}
	m.viewport.Height = h
	m.viewport.SetContent(m.content())
}

// View renders the strategy view.
func (m StrategyModel) View() string {
	body := tui.TitleStyle.Render("AI Strategy") + "\n\n" + m.viewport.View()
	return tui.BoxStyle.Width(m.width - tui.BoxStyle.GetHorizontalBorderSize()).Render(body)
}

func (m StrategyModel) content() string {
	if m.session == nil {
		return fmt.Sprintf("%s %s", m.spinner.View(), tui.DimStyle.Render("Loading your session..."))
	}

	w := m.viewport.Width
	sections := []string{m.customerSection(w)}

	if extras := details.Extras(m.session.CustomerInfo); len(extras) > 0 {
		sections = append(sections, section("Additional Details", renderChips(extras)))
	}

	if len(m.session.Movers) > 0 {
		sections = append(sections, section("Selected Providers", m.providers(w)))
	}

	if router.IsGenerating(m.session) {
		waiting := fmt.Sprintf("%s %s", m.spinner.View(),
			tui.DimStyle.Render("AI is generating your negotiation strategy..."))
		sections = append(sections, section("Negotiation Strategy", waiting))
	} else {
		sections = append(sections, section("Negotiation Strategy", tui.RenderMarkdown(m.session.Strategy, w)))
	}

	return strings.Join(sections, "\n\n")
}

func (m StrategyModel) customerSection(w int) string {
	col := lipgloss.NewStyle().Width(w / 2)
	var lines []string
	for _, row := range details.CustomerRows(m.session.CustomerInfo) {
		cells := make([]string, 0, len(row.Items))
		for _, it := range row.Items {
			cells = append(cells, col.Render(tui.LabelStyle.Render(it.Label)+it.Value))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return section("Customer Information", strings.Join(lines, "\n"))
}

func (m StrategyModel) providers(w int) string {
	var blocks []string
	for _, p := range m.session.Movers {
		head := tui.SelectedStyle.Render(p.Name)
		if c := p.ContactLine(); c != "" {
			head += "  " + tui.DimStyle.Render(c)
		}
		block := head
		if specs := details.Specialties(p); len(specs) > 0 {
			block += "\n" + renderChips(specs)
		}
		blocks = append(blocks, block)
	}
	if m.session.MoverRationale != "" {
		blocks = append(blocks, tui.RenderMarkdown(m.session.MoverRationale, w))
	}
	return strings.Join(blocks, "\n\n")
}

func section(title, body string) string {
	return tui.TitleStyle.Render(title) + "\n" + body
}
