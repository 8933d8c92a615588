// Package store provides the storage interface and implementations for
// diagnostic results. The current deployment keeps results in memory; the
// interface keeps handler code independent of the backend so a persistent
// implementation can slot in later.
package store

import (
	"context"

	"github.com/AsasinXReal/auto-diagnostic-app/pkg/models"
)

// Store is the result storage interface. All handler and service code
// depends on this interface, not on a concrete implementation.
type Store interface {
	// CreateDiagnosis saves a completed diagnosis. Results are immutable
	// once written; there is no update operation.
	CreateDiagnosis(ctx context.Context, d *models.Diagnosis) error

	// GetDiagnosis returns a diagnosis by ID.
	GetDiagnosis(ctx context.Context, id string) (*models.Diagnosis, error)

	// ListDiagnosesBySession returns the diagnoses of one session,
	// newest first, up to limit (0 means no limit).
	ListDiagnosesBySession(ctx context.Context, sessionID string, limit int) ([]models.Diagnosis, error)

	// Ping checks if the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the store.
	Close() error
}

// ── Errors ──────────────────────────────────────────────────

// ErrNotFound is returned when a requested entity does not exist.
type ErrNotFound struct {
	Entity string
	Key    string
}

func (e *ErrNotFound) Error() string {
	return e.Entity + " not found: " + e.Key
}
