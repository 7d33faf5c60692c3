package session

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection    = "users"
	messagesCollection = "messages"
	createdAtField     = "createdAt"
)

// FirestoreStore implements Store with Firestore real-time listeners.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps an initialised Firestore client.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) userDoc(uid string) *firestore.DocumentRef {
	return s.client.Collection(usersCollection).Doc(uid)
}

func (s *FirestoreStore) messages(uid string) *firestore.CollectionRef {
	return s.userDoc(uid).Collection(messagesCollection)
}

// WatchSession implements Store.
func (s *FirestoreStore) WatchSession(ctx context.Context, uid string, fn func(*Session)) error {
	it := s.userDoc(uid).Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if stopped(ctx, err) {
				return nil
			}
			return fmt.Errorf("watch session: %w", err)
		}
		sess, err := decodeSession(snap)
		if err != nil {
			return err
		}
		fn(sess)
	}
}

// WatchMessages implements Store.
func (s *FirestoreStore) WatchMessages(ctx context.Context, uid string, fn func([]Message)) error {
	it := s.messages(uid).OrderBy(createdAtField, firestore.Asc).Snapshots(ctx)
	defer it.Stop()

	for {
		qs, err := it.Next()
		if err != nil {
			if stopped(ctx, err) {
				return nil
			}
			return fmt.Errorf("watch messages: %w", err)
		}
		docs, err := qs.Documents.GetAll()
		if err != nil {
			if stopped(ctx, err) {
				return nil
			}
			return fmt.Errorf("read message snapshot: %w", err)
		}
		msgs, err := decodeMessages(docs)
		if err != nil {
			return err
		}
		fn(msgs)
	}
}

// GetSession implements Store.
func (s *FirestoreStore) GetSession(ctx context.Context, uid string) (*Session, error) {
	snap, err := s.userDoc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return decodeSession(snap)
}

// ListMessages implements Store.
func (s *FirestoreStore) ListMessages(ctx context.Context, uid string) ([]Message, error) {
	docs, err := s.messages(uid).OrderBy(createdAtField, firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return decodeMessages(docs)
}

// AppendMessage implements Store. A zero CreatedAt is replaced by the
// server timestamp.
func (s *FirestoreStore) AppendMessage(ctx context.Context, uid string, msg Message) error {
	if _, _, err := s.messages(uid).Add(ctx, msg); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// DeleteSession implements Store.
func (s *FirestoreStore) DeleteSession(ctx context.Context, uid string) error {
	if _, err := s.userDoc(uid).Delete(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func decodeSession(snap *firestore.DocumentSnapshot) (*Session, error) {
	if snap == nil || !snap.Exists() {
		return nil, nil
	}
	var sess Session
	if err := snap.DataTo(&sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", snap.Ref.ID, err)
	}
	return &sess, nil
}

func decodeMessages(docs []*firestore.DocumentSnapshot) ([]Message, error) {
	msgs := make([]Message, 0, len(docs))
	for _, doc := range docs {
		var msg Message
		if err := doc.DataTo(&msg); err != nil {
			return nil, fmt.Errorf("decode message %s: %w", doc.Ref.ID, err)
		}
		msg.ID = doc.Ref.ID
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// stopped reports whether a listener error is the result of the caller
// going away rather than a broken stream.
func stopped(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, iterator.Done) {
		return true
	}
	return status.Code(err) == codes.Canceled
}
