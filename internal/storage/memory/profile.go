package memory

import (
	"sync"

	"github.com/classboard/classboard-cli/internal/models"
	"github.com/classboard/classboard-cli/internal/storage"
)

type InMemoryProfileRepository struct {
	mu      sync.RWMutex
	profile *models.User
}

func NewProfileRepository() *InMemoryProfileRepository {
	return &InMemoryProfileRepository{}
}

func (m *InMemoryProfileRepository) SaveProfile(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := *user
	m.profile = &u
	return nil
}

func (m *InMemoryProfileRepository) LoadProfile() (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.profile == nil {
		return nil, storage.ErrProfileNotFound
	}
	u := *m.profile
	return &u, nil
}

func (m *InMemoryProfileRepository) DeleteProfile() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.profile = nil
	return nil
}
