package session

import (
	"context"
	"sort"
	"sync"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// It is suitable for tests and single-node use. The zero value is ready.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string]*TrainingSession
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		sessions: make(map[string]*TrainingSession),
	}
}

// Save implements [Store.Save].
func (m *MemStore) Save(_ context.Context, s *TrainingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessions == nil {
		m.sessions = make(map[string]*TrainingSession)
	}

	existing, ok := m.sessions[s.ID]
	if !ok {
		if s.Version != 0 {
			return ErrNotFound
		}
		if s.Status.Active() && m.activeLocked(s.ClientID) != nil {
			return ErrConflict
		}
		s.Version = 1
		m.sessions[s.ID] = s.Clone()
		return nil
	}

	if existing.Version != s.Version {
		return ErrConflict
	}
	s.Version++
	m.sessions[s.ID] = s.Clone()
	return nil
}

// FindByID implements [Store.FindByID].
func (m *MemStore) FindByID(_ context.Context, id string) (*TrainingSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

// FindActiveByClient implements [Store.FindActiveByClient].
func (m *MemStore) FindActiveByClient(_ context.Context, clientID string) (*TrainingSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.activeLocked(clientID)
	if s == nil {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

// FindAllByClient implements [Store.FindAllByClient].
func (m *MemStore) FindAllByClient(_ context.Context, clientID string) ([]*TrainingSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*TrainingSession, 0)
	for _, s := range m.sessions {
		if s.ClientID == clientID {
			result = append(result, s.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.Before(result[j].StartedAt)
	})
	return result, nil
}

// activeLocked returns the client's active session, if any. Callers hold mu.
func (m *MemStore) activeLocked(clientID string) *TrainingSession {
	for _, s := range m.sessions {
		if s.ClientID == clientID && s.Status.Active() {
			return s
		}
	}
	return nil
}
