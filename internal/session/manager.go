package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/sells-group/curation-cli/internal/model"
	"github.com/sells-group/curation-cli/internal/rank"
)

// Manager tracks live sessions, one per item. Opening a session for an
// item that already has one closes the old session first: navigating to an
// item is the sole cancellation signal for its predecessor, and the model
// does not support two sessions editing one item.
type Manager struct {
	mu       sync.Mutex
	registry *model.FieldRegistry
	policy   rank.Policy
	sim      SimilarityProvider

	byID   map[string]*Session
	byItem map[string]*Session
}

// NewManager creates a session manager.
func NewManager(registry *model.FieldRegistry, policy rank.Policy, sim SimilarityProvider) *Manager {
	return &Manager{
		registry: registry,
		policy:   policy,
		sim:      sim,
		byID:     make(map[string]*Session),
		byItem:   make(map[string]*Session),
	}
}

// Open creates a session for an item, pre-populating from an existing
// golden entry when one is supplied. Similarity ranking runs in the
// background so opening never blocks on the comparison service.
func (m *Manager) Open(ctx context.Context, item model.Item, sources []model.SourceAnalysis, existing *model.GoldenEntry) *Session {
	m.mu.Lock()
	if prev, ok := m.byItem[item.ID]; ok {
		prev.Close()
		delete(m.byID, prev.ID)
	}
	s := New(uuid.New().String(), item, sources, m.registry, m.policy)
	m.byID[s.ID] = s
	m.byItem[item.ID] = s
	m.mu.Unlock()

	s.ApplyEntry(existing)

	if m.sim != nil {
		go s.Populate(ctx, m.sim)
	}
	return s
}

// Registry returns the field registry sessions are built from.
func (m *Manager) Registry() *model.FieldRegistry {
	return m.registry
}

// Get returns the live session with the given id, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}

// GetByItem returns the live session holding the given item, or nil.
func (m *Manager) GetByItem(itemID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byItem[itemID]
}

// CloseAll closes every live session (server shutdown).
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.byID {
		s.Close()
		delete(m.byID, id)
		delete(m.byItem, s.item.ID)
	}
}
