package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/AsasinXReal/auto-diagnostic-app/internal/store"
	"github.com/AsasinXReal/auto-diagnostic-app/pkg/models"
)

func newDiagnosis(id, session string, created time.Time) *models.Diagnosis {
	return &models.Diagnosis{
		ID:                id,
		SessionID:         session,
		OverallConfidence: 0.7,
		Severity:          models.SeverityMedium,
		Urgency:           models.UrgencyMedium,
		CreatedAt:         created,
	}
}

func TestCreateAndGetDiagnosis(t *testing.T) {
	s := store.NewMemoryStore(0)
	ctx := context.Background()

	d := newDiagnosis("d-1", "sess-1", time.Now())
	if err := s.CreateDiagnosis(ctx, d); err != nil {
		t.Fatalf("CreateDiagnosis() error = %v", err)
	}

	got, err := s.GetDiagnosis(ctx, "d-1")
	if err != nil {
		t.Fatalf("GetDiagnosis() error = %v", err)
	}
	if got.ID != "d-1" || got.SessionID != "sess-1" {
		t.Errorf("GetDiagnosis() = %+v, want id d-1 session sess-1", got)
	}
}

func TestGetDiagnosisNotFound(t *testing.T) {
	s := store.NewMemoryStore(0)

	_, err := s.GetDiagnosis(context.Background(), "missing")
	var nf *store.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("GetDiagnosis() error = %v, want ErrNotFound", err)
	}
	if nf.Entity != "diagnosis" {
		t.Errorf("Entity = %q, want diagnosis", nf.Entity)
	}
}

func TestCreateDiagnosisKeepsFirstWrite(t *testing.T) {
	s := store.NewMemoryStore(0)
	ctx := context.Background()

	first := newDiagnosis("d-1", "sess-1", time.Now())
	second := newDiagnosis("d-1", "sess-other", time.Now())
	if err := s.CreateDiagnosis(ctx, first); err != nil {
		t.Fatalf("CreateDiagnosis() error = %v", err)
	}
	if err := s.CreateDiagnosis(ctx, second); err != nil {
		t.Fatalf("CreateDiagnosis() duplicate error = %v", err)
	}

	got, _ := s.GetDiagnosis(ctx, "d-1")
	if got.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, duplicate write overwrote the original", got.SessionID)
	}
}

func TestStoredDiagnosisIsImmutable(t *testing.T) {
	s := store.NewMemoryStore(0)
	ctx := context.Background()

	d := newDiagnosis("d-1", "sess-1", time.Now())
	if err := s.CreateDiagnosis(ctx, d); err != nil {
		t.Fatalf("CreateDiagnosis() error = %v", err)
	}
	d.SessionID = "mutated"

	got, _ := s.GetDiagnosis(ctx, "d-1")
	if got.SessionID != "sess-1" {
		t.Error("mutating the caller's value changed the stored copy")
	}

	got.Severity = models.SeverityHigh
	again, _ := s.GetDiagnosis(ctx, "d-1")
	if again.Severity != models.SeverityMedium {
		t.Error("mutating a returned value changed the stored copy")
	}
}

func TestListDiagnosesBySession(t *testing.T) {
	s := store.NewMemoryStore(0)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		d := newDiagnosis(fmt.Sprintf("d-%d", i), "sess-1", base.Add(time.Duration(i)*time.Minute))
		if err := s.CreateDiagnosis(ctx, d); err != nil {
			t.Fatalf("CreateDiagnosis() error = %v", err)
		}
	}
	if err := s.CreateDiagnosis(ctx, newDiagnosis("other", "sess-2", base)); err != nil {
		t.Fatalf("CreateDiagnosis() error = %v", err)
	}

	list, err := s.ListDiagnosesBySession(ctx, "sess-1", 0)
	if err != nil {
		t.Fatalf("ListDiagnosesBySession() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d diagnoses, want 3", len(list))
	}
	if list[0].ID != "d-2" || list[2].ID != "d-0" {
		t.Errorf("list not newest-first: %s, %s, %s", list[0].ID, list[1].ID, list[2].ID)
	}

	limited, _ := s.ListDiagnosesBySession(ctx, "sess-1", 2)
	if len(limited) != 2 || limited[0].ID != "d-2" {
		t.Errorf("limit=2 returned %d entries starting with %s", len(limited), limited[0].ID)
	}

	empty, err := s.ListDiagnosesBySession(ctx, "no-such-session", 0)
	if err != nil {
		t.Fatalf("ListDiagnosesBySession() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("got %d diagnoses for unknown session, want 0", len(empty))
	}
}

func TestEvictionOldestFirst(t *testing.T) {
	s := store.NewMemoryStore(3)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		d := newDiagnosis(fmt.Sprintf("d-%d", i), "sess-1", base.Add(time.Duration(i)*time.Second))
		if err := s.CreateDiagnosis(ctx, d); err != nil {
			t.Fatalf("CreateDiagnosis() error = %v", err)
		}
	}

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	for _, id := range []string{"d-0", "d-1"} {
		if _, err := s.GetDiagnosis(ctx, id); err == nil {
			t.Errorf("%s still present, should have been evicted", id)
		}
	}
	for _, id := range []string{"d-2", "d-3", "d-4"} {
		if _, err := s.GetDiagnosis(ctx, id); err != nil {
			t.Errorf("%s missing: %v", id, err)
		}
	}
}

func TestPingAndClose(t *testing.T) {
	s := store.NewMemoryStore(0)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
