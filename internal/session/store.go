package session

import (
	"context"
	"errors"
	"fmt"
)

// Store is the document-store boundary: one session document and one
// ordered messages collection per user.
type Store interface {
	// WatchSession calls fn with every snapshot of the user's session
	// document (nil when it does not exist). It blocks until ctx is done,
	// returning nil, or until the stream breaks, returning the error.
	WatchSession(ctx context.Context, uid string, fn func(*Session)) error

	// WatchMessages calls fn with the full ordered message list on every
	// change. Blocking semantics match WatchSession.
	WatchMessages(ctx context.Context, uid string, fn func([]Message)) error

	// GetSession reads the session once. Returns nil, nil when absent.
	GetSession(ctx context.Context, uid string) (*Session, error)

	// ListMessages reads the ordered messages once.
	ListMessages(ctx context.Context, uid string) ([]Message, error)

	// AppendMessage adds a message to the end of the user's collection.
	AppendMessage(ctx context.Context, uid string, msg Message) error

	// DeleteSession removes the session document. Deleting an absent
	// document is not an error.
	DeleteSession(ctx context.Context, uid string) error
}

// Reinitializer asks the backend to start a fresh session.
type Reinitializer interface {
	NewSession(ctx context.Context) error
}

// Cache persists the last seen snapshots so a restarted client can render
// before the first network snapshot arrives.
type Cache interface {
	SaveSession(ctx context.Context, uid string, s *Session) error
	LoadSession(ctx context.Context, uid string) (*Session, bool, error)
	SaveMessages(ctx context.Context, uid string, msgs []Message) error
	LoadMessages(ctx context.Context, uid string) ([]Message, bool, error)
	Clear(ctx context.Context, uid string) error
	Close() error
}

var (
	// ErrEmptyMessage is returned when appending blank text.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrClosed is returned by commands issued after Close.
	ErrClosed = errors.New("session client closed")

	// ErrNoUser is returned when a client is built without a user id.
	ErrNoUser = errors.New("no signed-in user")
)

// ResetStage identifies which half of a reset failed.
type ResetStage string

const (
	StageDelete ResetStage = "delete"
	StageReinit ResetStage = "reinit"
)

// ResetError reports a failed reset. A StageReinit failure means the
// session document is already gone.
type ResetError struct {
	Stage ResetStage
	Err   error
}

func (e *ResetError) Error() string {
	return fmt.Sprintf("reset session (%s): %v", e.Stage, e.Err)
}

func (e *ResetError) Unwrap() error {
	return e.Err
}
