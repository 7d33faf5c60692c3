package cache

import (
	"context"
	"sync"

	"github.com/servicesaver/servicesaver/internal/session"
)

// Memory keeps snapshots for the life of the process.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	messages map[string][]session.Message
	closed   bool
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		sessions: map[string]*session.Session{},
		messages: map[string][]session.Message{},
	}
}

// SaveSession implements session.Cache.
func (m *Memory) SaveSession(_ context.Context, uid string, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return session.ErrClosed
	}
	if s != nil {
		cp := *s
		s = &cp
	}
	m.sessions[uid] = s
	return nil
}

// LoadSession implements session.Cache.
func (m *Memory) LoadSession(_ context.Context, uid string) (*session.Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[uid]
	if !ok || s == nil {
		return nil, ok, nil
	}
	cp := *s
	return &cp, true, nil
}

// SaveMessages implements session.Cache.
func (m *Memory) SaveMessages(_ context.Context, uid string, msgs []session.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return session.ErrClosed
	}
	m.messages[uid] = append([]session.Message{}, msgs...)
	return nil
}

// LoadMessages implements session.Cache.
func (m *Memory) LoadMessages(_ context.Context, uid string) ([]session.Message, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs, ok := m.messages[uid]
	if !ok {
		return nil, false, nil
	}
	return append([]session.Message{}, msgs...), true, nil
}

// Clear implements session.Cache.
func (m *Memory) Clear(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, uid)
	delete(m.messages, uid)
	return nil
}

// Close implements session.Cache.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.sessions = map[string]*session.Session{}
	m.messages = map[string][]session.Message{}
	return nil
}
