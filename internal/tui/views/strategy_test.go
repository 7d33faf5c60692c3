package views

import (
	"strings"
	"testing"

	"github.com/servicesaver/servicesaver/internal/testutil"
)

func TestStrategyLoading(t *testing.T) {
	m := NewStrategyModel(100, 200)
	if !strings.Contains(m.View(), "Loading your session...") {
		t.Error("nil session should show the loading state")
	}
}

func TestStrategyMovingSession(t *testing.T) {
	m := NewStrategyModel(120, 200)
	m.SetSession(testutil.MovingSession())
	view := m.View()

	for _, want := range []string{
		"Customer Information",
		"Dana Reyes",
		"Move Out",
		"Mar 01, 2025",
		"Packing Help",
		"Additional Details",
		"piano",
		"Selected Providers",
		"Swift Movers",
		"pianos",
		"Negotiation Strategy",
		"binding",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestStrategyGenerating(t *testing.T) {
	m := NewStrategyModel(120, 200)
	m.SetSession(testutil.TelecomSession())
	view := m.View()

	if !strings.Contains(view, "AI is generating your negotiation strategy...") {
		t.Error("empty strategy should show the generating state")
	}
	for _, want := range []string{"Service Type", "Internet", "Acme Cable"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "Move Out") {
		t.Error("non-moving session should not show move dates")
	}
}
