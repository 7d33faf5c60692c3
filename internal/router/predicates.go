package router

import "github.com/servicesaver/servicesaver/internal/session"

// IsGenerating reports whether the strategy is still being produced.
func IsGenerating(sess *session.Session) bool {
	return sess == nil || sess.Strategy == ""
}

// IsActive reports whether the provider at index is the one currently being
// negotiated with: the session is negotiating and exactly index summaries
// have completed.
func IsActive(status session.Status, index int, summaries []string) bool {
	return status == session.StatusNegotiating && len(summaries) == index
}

// CallState is the per-provider negotiation state.
type CallState string

const (
	CallDone    CallState = "done"
	CallActive  CallState = "active"
	CallPending CallState = "pending"
)

// ProviderStates returns the state of each of n providers. Providers with a
// completed summary are done; at most one provider is active.
func ProviderStates(status session.Status, n int, summaries []string) []CallState {
	states := make([]CallState, n)
	for i := range states {
		switch {
		case i < len(summaries):
			states[i] = CallDone
		case IsActive(status, i, summaries):
			states[i] = CallActive
		default:
			states[i] = CallPending
		}
	}
	return states
}

// StepState is the state of one progress-stepper step.
type StepState string

const (
	StepPending   StepState = "pending"
	StepActive    StepState = "active"
	StepCompleted StepState = "completed"
)

// Step is one entry of the dashboard progress stepper.
type Step struct {
	Screen   Screen
	Title    string
	Subtitle string
	State    StepState
}

// Steps returns the three stepper entries for a status.
func Steps(status session.Status) []Step {
	chat := StepPending
	switch status {
	case session.StatusInfoCollection:
		chat = StepActive
	case session.StatusStrategizing, session.StatusNegotiating, session.StatusCompleted:
		chat = StepCompleted
	}

	strategy := StepPending
	switch status {
	case session.StatusStrategizing:
		strategy = StepActive
	case session.StatusNegotiating, session.StatusCompleted:
		strategy = StepCompleted
	}

	call := StepPending
	if status == session.StatusNegotiating || status == session.StatusCompleted {
		call = StepActive
	}

	return []Step{
		{Screen: ScreenChat, Title: "Describe Your Need", Subtitle: "Tell AI about the service you need", State: chat},
		{Screen: ScreenStrategy, Title: "AI Creates Strategy", Subtitle: "Smart negotiation plan generated", State: strategy},
		{Screen: ScreenCall, Title: "AI Negotiates for You", Subtitle: "Live negotiation & results", State: call},
	}
}
