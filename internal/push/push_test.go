package push

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	tokens []string
	topic  string
	resp   *messaging.TopicManagementResponse
	err    error
}

func (f *fakeSubscriber) SubscribeToTopic(_ context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error) {
	f.tokens = tokens
	f.topic = topic
	if f.resp == nil && f.err == nil {
		return &messaging.TopicManagementResponse{SuccessCount: len(tokens)}, nil
	}
	return f.resp, f.err
}

func TestRegister(t *testing.T) {
	sub := &fakeSubscriber{}
	r := NewRegistrar(sub, "device-key", "device-token", nil)

	require.NoError(t, r.Register(context.Background(), "u1"))
	assert.Equal(t, []string{"device-token"}, sub.tokens)
	assert.Equal(t, "user_u1", sub.topic)
}

func TestRegister_Preconditions(t *testing.T) {
	sub := &fakeSubscriber{}

	err := NewRegistrar(sub, "", "tok", nil).Register(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNoDeviceKey)

	err = NewRegistrar(sub, "key", "", nil).Register(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNoToken)

	err = NewRegistrar(nil, "key", "tok", nil).Register(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrUnavailable)

	assert.Empty(t, sub.topic, "no request is made when a precondition fails")
}

func TestRegister_Failures(t *testing.T) {
	boom := errors.New("quota exceeded")
	err := NewRegistrar(&fakeSubscriber{err: boom}, "key", "tok", nil).Register(context.Background(), "u1")
	assert.ErrorIs(t, err, boom)

	rejected := &fakeSubscriber{resp: &messaging.TopicManagementResponse{
		FailureCount: 1,
		Errors:       []*messaging.ErrorInfo{{Index: 0, Reason: "invalid-registration-token"}},
	}}
	err = NewRegistrar(rejected, "key", "tok", nil).Register(context.Background(), "u1")
	assert.ErrorContains(t, err, "invalid-registration-token")
}
