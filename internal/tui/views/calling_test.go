package views

import (
	"errors"
	"strings"
	"testing"

	"github.com/servicesaver/servicesaver/internal/session"
	"github.com/servicesaver/servicesaver/internal/testutil"
	"github.com/servicesaver/servicesaver/internal/tui"
)

func negotiating() *session.Session {
	sess := testutil.MovingSession()
	sess.Status = session.StatusNegotiating
	sess.CallSummaries = []string{"AI: Can you do $900?\nCustomer: We can do $950."}
	return sess
}

func TestCallingEmpty(t *testing.T) {
	m := NewCallingModel(100, 60)
	if !strings.Contains(m.View(), "Loading your session...") {
		t.Error("nil session should show the loading state")
	}

	sess := negotiating()
	sess.Movers = nil
	m.SetSession(sess)
	if !strings.Contains(m.View(), "No providers contacted yet") {
		t.Error("empty provider list message missing")
	}
}

func TestCallingLiveCard(t *testing.T) {
	m := NewCallingModel(100, 60)
	m.SetSession(negotiating())
	view := m.View()

	for _, want := range []string{"Calls are in progress", "Call complete", "LIVE", "Lone Star Hauling"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Count(view, "LIVE") != 1 {
		t.Error("exactly one provider should be live")
	}
	if strings.Contains(view, "Recommendation") {
		t.Error("recommendation shown before completion")
	}
}

func TestCallingTranscriptToggle(t *testing.T) {
	m := NewCallingModel(100, 60)
	m.SetSession(negotiating())

	m, _ = m.Update(keyMsg("enter"))
	if !m.Expanded(0) {
		t.Fatal("enter should expand the selected card")
	}
	view := m.View()
	for _, want := range []string{"ServiceSaver: Can you do $900?", "Provider: We can do $950."} {
		if !strings.Contains(view, want) {
			t.Errorf("transcript missing %q", want)
		}
	}

	m, _ = m.Update(keyMsg("down"))
	m, _ = m.Update(keyMsg(" "))
	if m.Cursor() != 1 || !m.Expanded(1) {
		t.Fatal("space should expand the second card")
	}
	if !strings.Contains(m.View(), "No transcript yet") {
		t.Error("second card has no summary yet")
	}

	m, _ = m.Update(keyMsg("enter"))
	if m.Expanded(1) {
		t.Error("enter should collapse an expanded card")
	}

	m.SetSession(negotiating())
	if !m.Expanded(0) {
		t.Error("expansion should survive an update with the same providers")
	}
}

func TestCallingNewNegotiation(t *testing.T) {
	m := NewCallingModel(100, 60)
	m.SetSession(negotiating())
	if _, cmd := m.Update(keyMsg("ctrl+n")); cmd != nil {
		t.Fatal("new negotiation offered before completion")
	}

	sess := negotiating()
	sess.Status = session.StatusCompleted
	sess.Recommendation = "Go with **Swift Movers**."
	m.SetSession(sess)
	view := m.View()
	for _, want := range []string{"Recommendation", "Swift Movers", "Ctrl+N: New Negotiation"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "LIVE") {
		t.Error("no provider should be live once completed")
	}

	m, cmd := m.Update(keyMsg("ctrl+n"))
	if cmd == nil {
		t.Fatal("expected NewNegotiationMsg")
	}
	if _, ok := cmd().(NewNegotiationMsg); !ok {
		t.Fatal("expected NewNegotiationMsg")
	}
	if !m.Resetting() {
		t.Fatal("resetting flag not set")
	}
	if _, cmd := m.Update(keyMsg("ctrl+n")); cmd != nil {
		t.Error("second press while resetting should be ignored")
	}

	m, _ = m.Update(tui.ResetErrorMsg{Err: errors.New("backend unavailable")})
	if m.Resetting() {
		t.Error("resetting flag should clear on failure")
	}
	if !strings.Contains(m.View(), "backend unavailable") {
		t.Error("reset error not shown")
	}
}
