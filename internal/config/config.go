package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the diagnostic backend.
type Config struct {
	Port      int
	Version   string
	Store     StoreConfig
	Providers ProviderConfig
	Simulator SimulatorConfig
	Telemetry TelemetryConfig
}

type StoreConfig struct {
	// MaxResults caps the in-memory result cache; 0 disables eviction.
	MaxResults int
}

type ProviderConfig struct {
	// Timeout bounds each provider attempt in the fallback chain.
	Timeout time.Duration

	OpenAIKey      string
	OpenAIModel    string
	OpenAIEndpoint string

	GeminiKey      string
	GeminiModel    string
	GeminiEndpoint string

	OllamaEnabled  bool
	OllamaModel    string
	OllamaEndpoint string
}

type SimulatorConfig struct {
	// Seed drives the OBD simulator's RNG for reproducible live data.
	Seed int64
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envInt("AUTODIAG_PORT", 8080),
		Version: envStr("AUTODIAG_VERSION", "1.0.0"),
		Store: StoreConfig{
			MaxResults: envInt("AUTODIAG_STORE_MAX_RESULTS", 1000),
		},
		Providers: ProviderConfig{
			Timeout:        envDuration("AUTODIAG_PROVIDER_TIMEOUT", 6*time.Second),
			OpenAIKey:      envStr("AUTODIAG_OPENAI_API_KEY", ""),
			OpenAIModel:    envStr("AUTODIAG_OPENAI_MODEL", ""),
			OpenAIEndpoint: envStr("AUTODIAG_OPENAI_ENDPOINT", ""),
			GeminiKey:      envStr("AUTODIAG_GEMINI_API_KEY", ""),
			GeminiModel:    envStr("AUTODIAG_GEMINI_MODEL", ""),
			GeminiEndpoint: envStr("AUTODIAG_GEMINI_ENDPOINT", ""),
			OllamaEnabled:  envBool("AUTODIAG_OLLAMA_ENABLED", false),
			OllamaModel:    envStr("AUTODIAG_OLLAMA_MODEL", ""),
			OllamaEndpoint: envStr("AUTODIAG_OLLAMA_ENDPOINT", ""),
		},
		Simulator: SimulatorConfig{
			Seed: envInt64("AUTODIAG_OBD_SEED", time.Now().UnixNano()),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "auto-diagnostic-app"),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
