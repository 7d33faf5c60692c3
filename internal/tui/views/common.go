// Package views provides TUI view components for the ServiceSaver screens.
package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/servicesaver/servicesaver/internal/router"
	"github.com/servicesaver/servicesaver/internal/tui"
)

// boxWidth clamps a box to the terminal width, capped at limit.
func boxWidth(width, limit int) int {
	w := width - 4
	if w > limit {
		w = limit
	}
	if w < 30 {
		w = 30
	}
	return w
}

// innerWidth is the usable text width inside a BoxStyle of the given width.
func innerWidth(width int) int {
	w := width - tui.BoxStyle.GetHorizontalFrameSize()
	if w < 20 {
		w = 20
	}
	return w
}

// RenderStepper draws the three progress steps on one line.
func RenderStepper(steps []router.Step) string {
	parts := make([]string, 0, len(steps))
	for i, s := range steps {
		var icon, title string
		switch s.State {
		case router.StepCompleted:
			icon = tui.IconDone
			title = tui.SuccessStyle.Render(s.Title)
		case router.StepActive:
			icon = tui.IconActive
			title = tui.SelectedStyle.Render(s.Title)
		default:
			icon = tui.IconPending
			title = tui.DimStyle.Render(s.Title)
		}
		parts = append(parts, lipgloss.JoinVertical(lipgloss.Left,
			icon+" "+title,
			"  "+tui.DimStyle.Render(s.Subtitle),
		))
		if i < len(steps)-1 {
			parts = append(parts, tui.DimStyle.Render("  ──  "))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// RenderTabBar draws the screen tabs with the active one highlighted.
func RenderTabBar(active router.Screen) string {
	rendered := make([]string, 0, len(router.Screens))
	for _, s := range router.Screens {
		if s == active {
			rendered = append(rendered, tui.ActiveTabStyle.Render(s.Title()))
		} else {
			rendered = append(rendered, tui.InactiveTabStyle.Render(s.Title()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// renderChips lays chips out left to right.
func renderChips(items []string) string {
	chips := make([]string, 0, len(items))
	for _, it := range items {
		chips = append(chips, tui.ChipStyle.Render(it))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

// indent prefixes every line of s.
func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
