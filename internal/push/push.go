// Package push registers this device for push notifications about a
// user's negotiation by subscribing its token to a per-user topic.
package push

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"

	"github.com/servicesaver/servicesaver/internal/log"
)

var (
	// ErrNoDeviceKey is returned when no device key is configured.
	ErrNoDeviceKey = errors.New("push: no device key configured")

	// ErrNoToken is returned when the device has no registration token.
	ErrNoToken = errors.New("push: no device token")

	// ErrUnavailable is returned when messaging is not initialised.
	ErrUnavailable = errors.New("push: messaging unavailable")
)

// TopicSubscriber is the part of *messaging.Client the registrar uses.
type TopicSubscriber interface {
	SubscribeToTopic(ctx context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error)
}

// Registrar subscribes the device token to the signed-in user's topic.
type Registrar struct {
	subscriber  TopicSubscriber
	deviceKey   string
	deviceToken string
	logger      *zap.Logger
}

// NewRegistrar creates a Registrar. subscriber may be nil, in which case
// Register reports ErrUnavailable.
func NewRegistrar(subscriber TopicSubscriber, deviceKey, deviceToken string, logger *zap.Logger) *Registrar {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registrar{
		subscriber:  subscriber,
		deviceKey:   deviceKey,
		deviceToken: deviceToken,
		logger:      logger,
	}
}

// Topic returns the topic name for a user.
func Topic(uid string) string {
	return "user_" + uid
}

// Register subscribes the device to uid's topic. Every failure is logged;
// callers treat the error as informational.
func (r *Registrar) Register(ctx context.Context, uid string) error {
	err := r.register(ctx, uid)
	if err != nil {
		r.logger.Warn("push registration skipped",
			zap.String("event", log.EventPushFailed),
			zap.String("uid", uid),
			zap.Error(err))
		return err
	}
	r.logger.Info("push registered",
		zap.String("event", log.EventPushRegistered),
		zap.String("uid", uid),
		zap.String("topic", Topic(uid)))
	return nil
}

func (r *Registrar) register(ctx context.Context, uid string) error {
	switch {
	case r.deviceKey == "":
		return ErrNoDeviceKey
	case r.deviceToken == "":
		return ErrNoToken
	case r.subscriber == nil:
		return ErrUnavailable
	}

	resp, err := r.subscriber.SubscribeToTopic(ctx, []string{r.deviceToken}, Topic(uid))
	if err != nil {
		return fmt.Errorf("push: subscribe: %w", err)
	}
	if resp != nil && resp.FailureCount > 0 {
		reason := "unknown"
		if len(resp.Errors) > 0 && resp.Errors[0] != nil {
			reason = resp.Errors[0].Reason
		}
		return fmt.Errorf("push: subscribe rejected: %s", reason)
	}
	return nil
}
