package session

import (
	"sync"

	"github.com/ahelp-app/ahelp-cli/internal/domain"
)

// MemoryStore is an in-memory Store used by tests and short-lived runs.
type MemoryStore struct {
	mu sync.Mutex
	s  *domain.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.s = &cp
	return nil
}

func (m *MemoryStore) Get() (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return nil, nil
	}
	cp := *m.s
	return &cp, nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}

func (m *MemoryStore) AccessToken() string {
	s, _ := m.Get()
	if s == nil {
		return ""
	}
	return s.Access
}

func (m *MemoryStore) Role() domain.Role {
	s, _ := m.Get()
	if s == nil {
		return ""
	}
	return s.Role
}

func (m *MemoryStore) EmailVerified() bool {
	s, _ := m.Get()
	if s == nil {
		return false
	}
	return s.EmailVerified
}
