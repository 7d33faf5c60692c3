// Package router maps the server-owned session status onto the screen the
// dashboard should show, and answers the status-derived questions the
// screens ask (is the strategy still generating, which provider is live).
package router

import "github.com/servicesaver/servicesaver/internal/session"

// Screen is one of the three dashboard tabs.
type Screen string

const (
	ScreenChat     Screen = "chat"
	ScreenStrategy Screen = "strategy"
	ScreenCall     Screen = "call"
)

// Screens lists the tabs in display order.
var Screens = []Screen{ScreenChat, ScreenStrategy, ScreenCall}

// Title returns the tab label.
func (s Screen) Title() string {
	switch s {
	case ScreenStrategy:
		return "AI Strategy"
	case ScreenCall:
		return "Negotiate"
	default:
		return "Discuss Need"
	}
}

// Route returns the default screen for a status. An absent session and any
// unrecognised status route to chat.
func Route(status session.Status) Screen {
	switch status {
	case session.StatusStrategizing:
		return ScreenStrategy
	case session.StatusNegotiating, session.StatusCompleted:
		return ScreenCall
	default:
		return ScreenChat
	}
}

// Tracker remembers the last observed status so the default screen is only
// changed on a transition. Manual tab changes between transitions stick.
type Tracker struct {
	last     session.Status
	observed bool
}

// Observe records the current status. It returns the routed screen and true
// when the status differs from the previous observation (the first
// observation always counts), or false when nothing changed. An absent
// session is its own status, distinct from every present one.
func (t *Tracker) Observe(sess *session.Session) (Screen, bool) {
	status := session.StatusOf(sess)
	if t.observed && status == t.last {
		return Route(status), false
	}
	t.last = status
	t.observed = true
	return Route(status), true
}

// Last returns the last observed status.
func (t *Tracker) Last() session.Status {
	return t.last
}

// Reset forgets the last observation, as on sign-out.
func (t *Tracker) Reset() {
	*t = Tracker{}
}
