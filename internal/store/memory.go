// Package store — in-memory Store implementation.
// Results are held in maps behind a RWMutex. An optional cap bounds total
// memory: when full, the oldest result is evicted on insert.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/AsasinXReal/auto-diagnostic-app/pkg/models"
	"github.com/rs/zerolog/log"
)

// MemoryStore implements Store with in-memory maps.
type MemoryStore struct {
	mu        sync.RWMutex
	diagnoses map[string]*models.Diagnosis // key: id
	order     []string                     // insertion order, oldest first
	maxSize   int                          // 0 = unbounded
}

// NewMemoryStore creates an in-memory store. maxSize caps the number of
// retained results; 0 disables eviction.
func NewMemoryStore(maxSize int) *MemoryStore {
	return &MemoryStore{
		diagnoses: make(map[string]*models.Diagnosis),
		maxSize:   maxSize,
	}
}

// CreateDiagnosis saves a diagnosis, evicting the oldest entry when the
// store is at capacity.
func (m *MemoryStore) CreateDiagnosis(ctx context.Context, d *models.Diagnosis) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.diagnoses[d.ID]; exists {
		// Immutable results: a duplicate ID means a caller bug, keep the
		// first write.
		log.Warn().Str("id", d.ID).Msg("Duplicate diagnosis ID ignored")
		return nil
	}

	if m.maxSize > 0 && len(m.diagnoses) >= m.maxSize {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.diagnoses, oldest)
		log.Debug().Str("evicted", oldest).Msg("Result cache full, evicted oldest diagnosis")
	}

	cp := *d
	m.diagnoses[d.ID] = &cp
	m.order = append(m.order, d.ID)
	return nil
}

// GetDiagnosis returns a diagnosis by ID.
func (m *MemoryStore) GetDiagnosis(ctx context.Context, id string) (*models.Diagnosis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.diagnoses[id]
	if !ok {
		return nil, &ErrNotFound{Entity: "diagnosis", Key: id}
	}
	cp := *d
	return &cp, nil
}

// ListDiagnosesBySession returns a session's diagnoses, newest first.
func (m *MemoryStore) ListDiagnosesBySession(ctx context.Context, sessionID string, limit int) ([]models.Diagnosis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Diagnosis, 0)
	for _, d := range m.diagnoses {
		if d.SessionID == sessionID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the number of stored diagnoses.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.diagnoses)
}

// Ping always succeeds for the in-memory store.
func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error { return nil }
