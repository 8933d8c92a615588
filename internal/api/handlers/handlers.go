// Package handlers implements the HTTP handlers for the diagnostic backend.
// All handlers depend on the diagnosis service and the result store through
// interfaces, never on concrete analyzers.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/AsasinXReal/auto-diagnostic-app/internal/api/middleware"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/obd"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/store"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/vehicle"
	"github.com/AsasinXReal/auto-diagnostic-app/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Service is the diagnosis capability the handlers need; implemented by
// diagnosis.Service and by fakes in tests.
type Service interface {
	Diagnose(ctx context.Context, req *models.DiagnosticRequest) (*models.Diagnosis, error)
	Get(ctx context.Context, id string) (*models.Diagnosis, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.Diagnosis, error)
}

// Handlers holds all handler dependencies.
type Handlers struct {
	Service   Service
	Simulator *obd.Simulator
}

// New creates a Handlers instance.
func New(svc Service, sim *obd.Simulator) *Handlers {
	return &Handlers{Service: svc, Simulator: sim}
}

// ── Diagnostics ──────────────────────────────────────────────

// CreateDiagnosis runs the full pipeline on the submitted request.
func (h *Handlers) CreateDiagnosis(w http.ResponseWriter, r *http.Request) {
	var req models.DiagnosticRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SessionID == "" {
		req.SessionID = middleware.GetSessionID(r.Context())
	}

	d, err := h.Service.Diagnose(r.Context(), &req)
	if err != nil {
		log.Error().Err(err).Msg("Diagnosis pipeline failed")
		respondError(w, http.StatusInternalServerError, "Diagnosis failed")
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

// GetDiagnosis returns a stored diagnosis by ID.
func (h *Handlers) GetDiagnosis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "diagnosisId")

	d, err := h.Service.Get(r.Context(), id)
	if err != nil {
		var nf *store.ErrNotFound
		if errors.As(err, &nf) {
			respondError(w, http.StatusNotFound, nf.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// ListSessionDiagnoses returns the current session's diagnoses.
func (h *Handlers) ListSessionDiagnoses(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	list, err := h.Service.ListBySession(r.Context(), middleware.GetSessionID(r.Context()), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []models.Diagnosis{}
	}
	respondJSON(w, http.StatusOK, list)
}

// ── Vehicles ─────────────────────────────────────────────────

// GetVehicleIssues returns the static known-issue record for a model.
func (h *Handlers) GetVehicleIssues(w http.ResponseWriter, r *http.Request) {
	mk := chi.URLParam(r, "make")
	model := chi.URLParam(r, "model")

	rec, ok := vehicle.LookupKnownIssues(mk, model)
	if !ok {
		respondError(w, http.StatusNotFound, "no known issues recorded for "+mk+" "+model)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"make":         mk,
		"model":        model,
		"known_issues": rec.Issues,
		"reliability":  rec.Reliability,
	})
}

// ── Helpers ──────────────────────────────────────────────────

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
