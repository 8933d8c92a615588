// Package server provides the public entry point for initializing the
// diagnostic backend.
//
// This package exists in pkg/ (not internal/) so that deployments can embed
// the backend and compose the handler with their own middleware:
//
//	srv, err := server.New(ctx)
//	http.ListenAndServe(":8080", srv.Handler)
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/AsasinXReal/auto-diagnostic-app/internal/api"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/api/handlers"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/config"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/diagnosis"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/obd"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/provider"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/store"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/telemetry"

	"github.com/rs/zerolog/log"
)

// Server holds the initialized diagnostic backend.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Store is the result store (in-memory, capped).
	Store store.Store

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc should be called on graceful shutdown to flush telemetry.
	ShutdownFunc func(context.Context) error
}

// New initializes all components from environment configuration and
// returns a ready Server.
func New(ctx context.Context) (*Server, error) {
	return NewWithConfig(ctx, config.Load())
}

// NewWithConfig initializes the backend with an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	shutdown, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	resultStore := store.NewMemoryStore(cfg.Store.MaxResults)
	log.Info().Int("max_results", cfg.Store.MaxResults).Msg("✅ Result store initialized")

	chain := buildProviderChain(cfg.Providers)
	if chain.Len() > 0 {
		log.Info().Int("providers", chain.Len()).Msg("✅ External classifier chain initialized")
	} else {
		log.Info().Msg("No external classifiers configured, running rule-engine-only")
	}

	svc := diagnosis.NewService(resultStore, chain)
	sim := obd.NewSimulator(cfg.Simulator.Seed)
	log.Info().Msg("✅ Diagnosis pipeline initialized")

	h := handlers.New(svc, sim)
	router := api.NewRouter(cfg, h)

	return &Server{
		Handler:      router,
		Store:        resultStore,
		Port:         cfg.Port,
		ShutdownFunc: shutdown,
	}, nil
}

// buildProviderChain assembles the fallback chain from the configured
// credentials, in priority order. Providers without credentials are left
// out; an empty chain disables external classification.
func buildProviderChain(cfg config.ProviderConfig) *provider.Chain {
	var providers []provider.Provider
	if cfg.OpenAIKey != "" {
		providers = append(providers, provider.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIEndpoint))
	}
	if cfg.GeminiKey != "" {
		providers = append(providers, provider.NewGemini(cfg.GeminiKey, cfg.GeminiModel, cfg.GeminiEndpoint))
	}
	if cfg.OllamaEnabled {
		providers = append(providers, provider.NewOllama(cfg.OllamaModel, cfg.OllamaEndpoint))
	}
	return provider.NewChain(cfg.Timeout, providers...)
}
