package session

import (
	"context"
	"sync"

	"github.com/pribylovaa/dental-clinic/internal/models"
)

// MemoryProfileStore: кэш профиля без долговременного хранилища.
type MemoryProfileStore struct {
	mu      sync.Mutex
	profile *models.UserProfile
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{}
}

func (m *MemoryProfileStore) Load(context.Context) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.profile == nil {
		return nil, nil
	}

	p := *m.profile
	return &p, nil
}

func (m *MemoryProfileStore) Save(_ context.Context, p models.UserProfile) error {
	m.mu.Lock()
	m.profile = &p
	m.mu.Unlock()

	return nil
}

func (m *MemoryProfileStore) Clear(context.Context) error {
	m.mu.Lock()
	m.profile = nil
	m.mu.Unlock()

	return nil
}

func (m *MemoryProfileStore) Probe(context.Context) error { return nil }
