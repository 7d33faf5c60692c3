package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicesaver/servicesaver/internal/session"
	"github.com/servicesaver/servicesaver/internal/testutil"
)

type stubFetcher struct {
	sess *session.Session
	msgs []session.Message
	err  error
}

func (s stubFetcher) Fetch(context.Context) (*session.Session, []session.Message, error) {
	return s.sess, s.msgs, s.err
}

func TestFallbackRunner_NoSession(t *testing.T) {
	var buf bytes.Buffer
	err := NewFallbackRunner(stubFetcher{}, &buf).Run(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Status: no session")
	assert.Contains(t, out, "Screen: Discuss Need")
	assert.Contains(t, out, "Messages: 0")
	assert.NotContains(t, out, "Providers:")
}

func TestFallbackRunner_Negotiating(t *testing.T) {
	sess := testutil.MovingSession()
	sess.Status = session.StatusNegotiating
	sess.CallSummaries = []string{"AI: Can you do $900?\nCustomer: We can do $950."}

	var buf bytes.Buffer
	err := NewFallbackRunner(stubFetcher{sess: sess, msgs: testutil.Conversation()}, &buf).Run(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Status: negotiating")
	assert.Contains(t, out, "Screen: Negotiate")
	assert.Contains(t, out, "Last reply:\nWhere are you moving from?")
	assert.Contains(t, out, "[done] Swift Movers (555-0111)")
	assert.Contains(t, out, "[active] Lone Star Hauling (info@lonestar.test)")
	assert.Contains(t, out, "assistant: Can you do $900?")
	assert.Contains(t, out, "counterparty: We can do $950.")
	assert.NotContains(t, out, "Recommendation:")
}

func TestFallbackRunner_Completed(t *testing.T) {
	sess := testutil.MovingSession()
	sess.Status = session.StatusCompleted
	sess.Recommendation = "Go with Swift Movers.\n"

	var buf bytes.Buffer
	require.NoError(t, NewFallbackRunner(stubFetcher{sess: sess}, &buf).Run(context.Background()))
	assert.True(t, strings.HasSuffix(buf.String(), "Recommendation:\nGo with Swift Movers.\n"))
}

func TestFallbackRunner_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, NewFallbackRunner(nil, &buf).Run(context.Background()), ErrNoFetcher)

	boom := errors.New("permission denied")
	assert.ErrorIs(t, NewFallbackRunner(stubFetcher{err: boom}, &buf).Run(context.Background()), boom)
	assert.Empty(t, buf.String())
}
