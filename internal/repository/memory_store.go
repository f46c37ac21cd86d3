package repository

import (
	"context"
	"sync"
	"time"

	"go-tryon/internal/capture"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemorySessionStore keeps encoded sessions in process memory. Sessions are
// stored as bytes, so callers never share a session value with the store.
type MemorySessionStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemorySessionStore creates a store whose sessions expire ttl after
// their last save. A zero ttl keeps sessions until deleted.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemorySessionStore) Save(ctx context.Context, session *capture.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(session)
}

func (s *MemorySessionStore) Get(ctx context.Context, id string) (*capture.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

func (s *MemorySessionStore) Update(ctx context.Context, id string, fn func(*capture.Session) error) (*capture.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.getLocked(id)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}
	if err := s.saveLocked(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *MemorySessionStore) Close() error { return nil }

// Len returns the number of live sessions, purging expired ones.
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, id)
		}
	}
	return len(s.entries)
}

func (s *MemorySessionStore) saveLocked(session *capture.Session) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}
	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl)
	}
	s.entries[session.ID] = memoryEntry{data: data, expiresAt: expiresAt}
	return nil
}

func (s *MemorySessionStore) getLocked(id string) (*capture.Session, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.expired(e, s.now()) {
		delete(s.entries, id)
		return nil, ErrSessionNotFound
	}
	return decodeSession(e.data)
}

func (s *MemorySessionStore) expired(e memoryEntry, now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}
