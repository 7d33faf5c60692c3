// Package cloud bootstraps the Firebase app and the clients built from it.
package cloud

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

// Options selects the project and how requests are authorised. A service
// account file takes precedence over the user token source.
type Options struct {
	ProjectID       string
	CredentialsFile string
	TokenSource     oauth2.TokenSource
}

// Services holds the initialised Firebase clients.
type Services struct {
	App       *firebase.App
	Firestore *firestore.Client
	// Messaging is nil unless a service account is configured; topic
	// management is an admin operation.
	Messaging *messaging.Client
}

// ErrNoCredentials is returned when neither a credentials file nor a token
// source is provided.
var ErrNoCredentials = errors.New("no firebase credentials")

// Connect initialises the Firebase app, Firestore and, when possible,
// Messaging. A Messaging failure is logged and leaves Messaging nil.
func Connect(ctx context.Context, opts Options, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ProjectID == "" {
		return nil, errors.New("firebase: project id is required")
	}

	var clientOpt option.ClientOption
	switch {
	case opts.CredentialsFile != "":
		clientOpt = option.WithCredentialsFile(opts.CredentialsFile)
	case opts.TokenSource != nil:
		// The source refreshes on its own; it is only valid for the user
		// signed in when Connect was called.
		clientOpt = option.WithTokenSource(opts.TokenSource)
	default:
		return nil, ErrNoCredentials
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: opts.ProjectID}, clientOpt)
	if err != nil {
		return nil, fmt.Errorf("firebase: initializing app: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: getting Firestore client: %w", err)
	}

	svc := &Services{App: app, Firestore: fs}
	if opts.CredentialsFile != "" {
		msg, err := app.Messaging(ctx)
		if err != nil {
			logger.Warn("firebase: messaging unavailable", zap.Error(err))
		} else {
			svc.Messaging = msg
		}
	}
	return svc, nil
}

// Close releases the Firestore connection.
func (s *Services) Close() error {
	if s == nil || s.Firestore == nil {
		return nil
	}
	return s.Firestore.Close()
}
