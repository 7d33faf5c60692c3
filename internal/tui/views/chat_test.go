package views

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/servicesaver/servicesaver/internal/session"
	"github.com/servicesaver/servicesaver/internal/testutil"
	"github.com/servicesaver/servicesaver/internal/tui"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	if r, ok := strings.CutPrefix(s, "alt+"); ok {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r), Alt: true}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// sendOf runs cmd and returns the SendChatMsg it produces.
func sendOf(t *testing.T, cmd tea.Cmd) SendChatMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(SendChatMsg)
	if !ok {
		t.Fatalf("command produced %T, want SendChatMsg", msg)
	}
	return msg
}

func TestChatCategoryShortcuts(t *testing.T) {
	tests := []struct {
		key      string
		content  string
		category string
	}{
		{"alt+1", "I need help with moving & relocation", "movers"},
		{"alt+2", "I need help with telecom & internet", "telecom"},
		{"alt+3", "I need help with insurance", "insurance"},
		{"alt+4", "I need help with home services", "home_services"},
		{"alt+5", "I need help with auto services", "auto_services"},
		{"alt+6", "I need help with healthcare", "healthcare"},
		{"alt+7", "I need help with education", "education"},
		{"alt+8", "I need help with pet services", "pet_services"},
		{"alt+9", "I need help with utilities", "finance"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m := NewChatModel(100, 40)
			m, cmd := m.Update(keyMsg(tt.key))
			got := sendOf(t, cmd)
			if got.Content != tt.content {
				t.Errorf("Content = %q, want %q", got.Content, tt.content)
			}
			if got.Category != tt.category {
				t.Errorf("Category = %q, want %q", got.Category, tt.category)
			}
			if !m.Sending() {
				t.Error("expected sending flag after a category pick")
			}
		})
	}
}

func TestChatRepeatedCategorySelection(t *testing.T) {
	m := NewChatModel(100, 40)

	m, cmd := m.Update(keyMsg("alt+3"))
	first := sendOf(t, cmd)
	m, _ = m.Update(tui.MessageSentMsg{})
	m.SetMessages([]session.Message{{Role: session.RoleUser, Content: first.Content, Category: first.Category}})

	m, cmd = m.Update(keyMsg("alt+3"))
	second := sendOf(t, cmd)
	if second != first {
		t.Errorf("second selection = %+v, want %+v", second, first)
	}
	if m.Selected() != "insurance" {
		t.Errorf("Selected() = %q, want insurance", m.Selected())
	}
}

func TestChatStickyCategory(t *testing.T) {
	m := NewChatModel(100, 40)

	m, _ = m.Update(keyMsg("alt+2"))
	m, _ = m.Update(tui.MessageSentMsg{})

	m, _ = m.Update(keyMsg("my bill is too high"))
	_, cmd := m.Update(keyMsg("enter"))
	if got := sendOf(t, cmd); got.Category != "telecom" {
		t.Errorf("Category = %q, want the sticky telecom", got.Category)
	}
}

func TestChatFreeTextWithoutSelection(t *testing.T) {
	tests := []struct {
		text     string
		category string
	}{
		{"I need cheaper car insurance", "movers"},
		{"Insurance", "insurance"},
		{"i need help with PET SERVICES", "pet_services"},
	}
	for _, tt := range tests {
		m := NewChatModel(100, 40)
		m, _ = m.Update(keyMsg(tt.text))
		_, cmd := m.Update(keyMsg("enter"))
		if got := sendOf(t, cmd); got.Category != tt.category {
			t.Errorf("%q: Category = %q, want %q", tt.text, got.Category, tt.category)
		}
	}
}

func TestChatLeadingDigitIsText(t *testing.T) {
	m := NewChatModel(100, 40)

	m, cmd := m.Update(keyMsg("3"))
	if cmd != nil {
		if _, ok := cmd().(SendChatMsg); ok {
			t.Fatal("a plain digit should type, not pick a category")
		}
	}
	m, _ = m.Update(keyMsg(" bedroom apartment move"))
	_, cmd = m.Update(keyMsg("enter"))
	got := sendOf(t, cmd)
	if got.Content != "3 bedroom apartment move" {
		t.Errorf("Content = %q, want the typed text", got.Content)
	}
	if got.Category != "movers" {
		t.Errorf("Category = %q, want movers", got.Category)
	}
}

func TestChatShortcutsOffOnceConversationStarted(t *testing.T) {
	m := NewChatModel(100, 40)
	m.SetMessages(testutil.Conversation())

	_, cmd := m.Update(keyMsg("alt+1"))
	if cmd != nil {
		if _, ok := cmd().(SendChatMsg); ok {
			t.Fatal("shortcut should not pick a category once the conversation has started")
		}
	}
	if m.Sending() {
		t.Error("sending flag set by a shortcut after the conversation started")
	}
}

func TestChatBlankInputIgnored(t *testing.T) {
	m := NewChatModel(100, 40)
	m, _ = m.Update(keyMsg("   "))
	m, cmd := m.Update(keyMsg("enter"))
	if cmd != nil {
		t.Error("blank input should not send")
	}
	if m.Sending() {
		t.Error("sending flag set for blank input")
	}
}

func TestChatSendingGuard(t *testing.T) {
	m := NewChatModel(100, 40)
	m, _ = m.Update(keyMsg("hello"))
	m, _ = m.Update(keyMsg("enter"))

	m, _ = m.Update(keyMsg("again"))
	_, cmd := m.Update(keyMsg("enter"))
	if cmd != nil {
		t.Error("send while a write is in flight should be ignored")
	}

	m, _ = m.Update(tui.SendErrorMsg{Err: errors.New("permission denied")})
	if m.Sending() {
		t.Error("sending flag should clear on failure")
	}
	if !strings.Contains(m.View(), "permission denied") {
		t.Error("write error should be shown")
	}
}

func TestChatStartOver(t *testing.T) {
	m := NewChatModel(100, 40)

	if _, cmd := m.Update(keyMsg("ctrl+r")); cmd != nil {
		t.Fatal("start over should not be offered with no conversation")
	}
	if strings.Contains(m.View(), "Start Over") {
		t.Error("Start Over shown before the conversation has more than one message")
	}

	m.SetMessages(testutil.Conversation())
	if !strings.Contains(m.View(), "Start Over") {
		t.Error("Start Over not shown")
	}

	m, cmd := m.Update(keyMsg("ctrl+r"))
	if cmd == nil {
		t.Fatal("expected StartOverMsg")
	}
	if _, ok := cmd().(StartOverMsg); !ok {
		t.Fatal("expected StartOverMsg")
	}
	if !m.Resetting() {
		t.Fatal("resetting flag not set")
	}
	if !strings.Contains(m.View(), "Resetting...") {
		t.Error("resetting indicator not shown")
	}

	if _, cmd := m.Update(keyMsg("ctrl+r")); cmd != nil {
		t.Error("second start over while resetting should be ignored")
	}

	m, _ = m.Update(tui.ResetDoneMsg{})
	if m.Resetting() || m.Selected() != "" {
		t.Error("reset should clear the flag and the sticky category")
	}
}

func TestChatRendersConversation(t *testing.T) {
	m := NewChatModel(100, 60)
	view := m.View()
	for _, want := range []string{"ServiceSaver AI", "Moving & Relocation", "Utilities", "Chat with AI Assistant"} {
		if !strings.Contains(view, want) {
			t.Errorf("welcome view missing %q", want)
		}
	}

	m.SetMessages(testutil.Conversation())
	view = m.View()
	if strings.Contains(view, "What service do you need help with?") {
		t.Error("category selector should hide once the conversation has two messages")
	}
	if !strings.Contains(view, "Where are you moving from?") {
		t.Error("assistant reply missing")
	}
}
