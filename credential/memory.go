package credential

import (
	"context"
	"sync"

	goSignup "github.com/MrEthical07/goSignup"
)

// MemoryStore keeps credentials in process memory. It is meant for demos,
// load tests and local development; contents are lost on exit.
type MemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]goSignup.Credential
	byID    map[string]string
}

var _ goSignup.CredentialStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byEmail: make(map[string]goSignup.Credential),
		byID:    make(map[string]string),
	}
}

func (s *MemoryStore) Exists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail[email]
	return ok, nil
}

func (s *MemoryStore) GetByEmail(_ context.Context, email string) (*goSignup.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byEmail[email]
	if !ok {
		return nil, goSignup.ErrCredentialNotFound
	}
	return &c, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*goSignup.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email, ok := s.byID[id]
	if !ok {
		return nil, goSignup.ErrCredentialNotFound
	}
	c := s.byEmail[email]
	return &c, nil
}

// Create enforces email uniqueness under the write lock.
func (s *MemoryStore) Create(_ context.Context, c goSignup.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[c.Email]; ok {
		return goSignup.ErrDuplicateEmail
	}
	s.byEmail[c.Email] = c
	s.byID[c.ID] = c.Email
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEmail)
}
