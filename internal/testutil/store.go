package testutil

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/servicesaver/servicesaver/internal/session"
)

// MemoryStore is an in-process session.Store. Watchers are woken on every
// write and may be broken on demand to exercise reconnection.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	messages map[string][]session.Message
	sessVer  map[string]int
	msgVer   map[string]int
	changed  chan struct{}
	breaks   map[session.Stream][]error
	nextID   int
	clock    time.Time

	// AppendErr and DeleteErr, when set, fail the matching write.
	AppendErr error
	DeleteErr error

	watchCalls map[session.Stream]*atomic.Int32
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: map[string]*session.Session{},
		messages: map[string][]session.Message{},
		sessVer:  map[string]int{},
		msgVer:   map[string]int{},
		changed:  make(chan struct{}),
		breaks:   map[session.Stream][]error{},
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		watchCalls: map[session.Stream]*atomic.Int32{
			session.StreamSession:  new(atomic.Int32),
			session.StreamMessages: new(atomic.Int32),
		},
	}
}

// broadcast wakes all watchers. Caller holds mu.
func (s *MemoryStore) broadcast() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// SetSession replaces the user's session document, as the backend would.
// A nil session deletes it.
func (s *MemoryStore) SetSession(uid string, sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess == nil {
		delete(s.sessions, uid)
	} else {
		cp := *sess
		s.sessions[uid] = &cp
	}
	s.sessVer[uid]++
	s.broadcast()
}

// AddAssistant appends an assistant reply.
func (s *MemoryStore) AddAssistant(uid, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(uid, session.Message{Role: session.RoleAssistant, Content: text})
	s.broadcast()
}

// Break queues failures on stream. Each queued error ends one listener
// before it delivers anything.
func (s *MemoryStore) Break(stream session.Stream, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breaks[stream] = append(s.breaks[stream], errs...)
	s.broadcast()
}

// WatchCalls returns how many times a listener was opened on stream.
func (s *MemoryStore) WatchCalls(stream session.Stream) int {
	return int(s.watchCalls[stream].Load())
}

// Messages returns a copy of the stored messages.
func (s *MemoryStore) Messages(uid string) []session.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]session.Message(nil), s.messages[uid]...)
}

func (s *MemoryStore) popBreak(stream session.Stream) error {
	if q := s.breaks[stream]; len(q) > 0 {
		s.breaks[stream] = q[1:]
		return q[0]
	}
	return nil
}

func (s *MemoryStore) appendLocked(uid string, msg session.Message) {
	s.nextID++
	s.clock = s.clock.Add(time.Second)
	msg.ID = "msg-" + strconv.Itoa(s.nextID)
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.clock
	}
	s.messages[uid] = append(s.messages[uid], msg)
	s.msgVer[uid]++
}

// WatchSession implements session.Store.
func (s *MemoryStore) WatchSession(ctx context.Context, uid string, fn func(*session.Session)) error {
	s.watchCalls[session.StreamSession].Add(1)
	last := -1
	for {
		s.mu.Lock()
		if err := s.popBreak(session.StreamSession); err != nil {
			s.mu.Unlock()
			return err
		}
		ver := s.sessVer[uid]
		var snap *session.Session
		if cur, ok := s.sessions[uid]; ok {
			cp := *cur
			snap = &cp
		}
		changed := s.changed
		s.mu.Unlock()

		if ver != last {
			last = ver
			fn(snap)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-changed:
		}
	}
}

// WatchMessages implements session.Store.
func (s *MemoryStore) WatchMessages(ctx context.Context, uid string, fn func([]session.Message)) error {
	s.watchCalls[session.StreamMessages].Add(1)
	last := -1
	for {
		s.mu.Lock()
		if err := s.popBreak(session.StreamMessages); err != nil {
			s.mu.Unlock()
			return err
		}
		ver := s.msgVer[uid]
		snap := append([]session.Message{}, s.messages[uid]...)
		changed := s.changed
		s.mu.Unlock()

		if ver != last {
			last = ver
			fn(snap)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-changed:
		}
	}
}

// GetSession implements session.Store.
func (s *MemoryStore) GetSession(_ context.Context, uid string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.sessions[uid]
	if !ok {
		return nil, nil
	}
	cp := *cur
	return &cp, nil
}

// ListMessages implements session.Store.
func (s *MemoryStore) ListMessages(_ context.Context, uid string) ([]session.Message, error) {
	return s.Messages(uid), nil
}

// AppendMessage implements session.Store.
func (s *MemoryStore) AppendMessage(_ context.Context, uid string, msg session.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AppendErr != nil {
		return s.AppendErr
	}
	s.appendLocked(uid, msg)
	s.broadcast()
	return nil
}

// DeleteSession implements session.Store. Messages are left in place.
func (s *MemoryStore) DeleteSession(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.sessions, uid)
	s.sessVer[uid]++
	s.broadcast()
	return nil
}

// Reinit is a session.Reinitializer that counts calls.
type Reinit struct {
	calls atomic.Int32
	Err   error
}

// NewSession implements session.Reinitializer.
func (r *Reinit) NewSession(context.Context) error {
	r.calls.Add(1)
	return r.Err
}

// Calls returns the number of NewSession calls.
func (r *Reinit) Calls() int {
	return int(r.calls.Load())
}
