package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/matsen/skilltree/internal/skill"
)

// MemoryStore keeps skill trees in memory. Forests are cloned on the way in
// and out so callers never share nodes with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	trees map[string]skill.Forest
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{trees: make(map[string]skill.Forest)}
}

// LoadSkills implements SkillStore.
func (m *MemoryStore) LoadSkills(ctx context.Context, userID string) (skill.Forest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.trees[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return skill.Clone(f), nil
}

// SaveSkills implements SkillStore.
func (m *MemoryStore) SaveSkills(ctx context.Context, userID string, f skill.Forest) error {
	f, err := prepareSave(f)
	if err != nil {
		return err
	}
	if err := checkRecord(Record{UserID: userID, Skills: f}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trees[userID] = skill.Clone(f)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
