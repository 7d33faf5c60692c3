package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/servicesaver/servicesaver/internal/router"
	"github.com/servicesaver/servicesaver/internal/session"
	"github.com/servicesaver/servicesaver/internal/transcript"
)

// ErrNoFetcher is returned when the fallback has nothing to read from.
var ErrNoFetcher = errors.New("no session source configured")

// Fetcher reads the session and its messages once.
type Fetcher interface {
	Fetch(ctx context.Context) (*session.Session, []session.Message, error)
}

// FallbackRunner prints a plain-text snapshot of the session for non-TTY
// output.
type FallbackRunner struct {
	fetcher Fetcher
	out     io.Writer
}

// NewFallbackRunner creates a new FallbackRunner.
func NewFallbackRunner(fetcher Fetcher, out io.Writer) *FallbackRunner {
	return &FallbackRunner{
		fetcher: fetcher,
		out:     out,
	}
}

// Run fetches the session once and prints it.
func (f *FallbackRunner) Run(ctx context.Context) error {
	if f.fetcher == nil {
		return ErrNoFetcher
	}
	sess, msgs, err := f.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	f.print(sess, msgs)
	return nil
}

func (f *FallbackRunner) print(sess *session.Session, msgs []session.Message) {
	w := f.out
	status := session.StatusOf(sess)
	if status == session.StatusNone {
		fmt.Fprintln(w, "Status: no session")
	} else {
		fmt.Fprintf(w, "Status: %s\n", status)
	}
	fmt.Fprintf(w, "Screen: %s\n", router.Route(status).Title())
	fmt.Fprintf(w, "Messages: %d\n", len(msgs))

	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == session.RoleAssistant {
			fmt.Fprintf(w, "\nLast reply:\n%s\n", strings.TrimSpace(msgs[i].Content))
			break
		}
	}

	if sess == nil || len(sess.Movers) == 0 {
		return
	}

	fmt.Fprintln(w, "\nProviders:")
	states := router.ProviderStates(sess.Status, len(sess.Movers), sess.CallSummaries)
	for i, p := range sess.Movers {
		line := fmt.Sprintf("  [%s] %s", states[i], p.Name)
		if c := p.ContactLine(); c != "" {
			line += " (" + c + ")"
		}
		fmt.Fprintln(w, line)
		for _, l := range transcript.Summaries(sess.CallSummaries, i) {
			fmt.Fprintf(w, "      %s: %s\n", l.Speaker, l.Text)
		}
	}

	if sess.Status == session.StatusCompleted && sess.Recommendation != "" {
		fmt.Fprintf(w, "\nRecommendation:\n%s\n", strings.TrimSpace(sess.Recommendation))
	}
}
