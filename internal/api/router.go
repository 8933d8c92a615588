package api

import (
	"encoding/json"
	"net/http"

	"github.com/AsasinXReal/auto-diagnostic-app/internal/api/handlers"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/api/middleware"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/config"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(cfg *config.Config, h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Logger)
	r.Use(middleware.SessionExtractor)
	r.Use(middleware.Telemetry)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Session-Id", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health & info
	r.Get("/health", healthHandler)
	r.Get("/version", versionHandler(cfg))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Diagnostics
		r.Route("/diagnostics", func(r chi.Router) {
			r.Post("/", h.CreateDiagnosis)
			r.Get("/", h.ListSessionDiagnoses)
			r.Get("/{diagnosisId}", h.GetDiagnosis)
		})

		// Vehicle knowledge
		r.Get("/vehicles/{make}/{model}/issues", h.GetVehicleIssues)

		// OBD2 adapter (simulator-backed)
		r.Route("/obd", func(r chi.Router) {
			r.Get("/devices", h.ListOBDDevices)
			r.Post("/connect", h.ConnectOBD)
			r.Post("/disconnect", h.DisconnectOBD)
			r.Get("/live", h.GetOBDLiveData)
			r.Get("/dtc", h.ReadOBDCodes)
			r.Delete("/dtc", h.ClearOBDCodes)
			r.Post("/command", h.SendOBDCommand)
		})
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "auto-diagnostic-app",
	})
}

func versionHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"version": cfg.Version,
			"service": "auto-diagnostic-app",
		})
	}
}
