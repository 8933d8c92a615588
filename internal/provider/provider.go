// Package provider integrates external AI classifiers as an optional
// override of the local rule pipeline. The core only depends on the
// capability "submit prompt, receive a validated issue list or failure";
// which vendor answers is a replaceable strategy behind the Chain.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AsasinXReal/auto-diagnostic-app/pkg/models"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds each provider attempt. Kept in single-digit
// seconds so a slow vendor never holds up the local pipeline.
const DefaultTimeout = 6 * time.Second

// Provider is one external classifier backend.
type Provider interface {
	// Name identifies the provider in logs and results.
	Name() string

	// Diagnose submits the prompt and returns the raw issue payload.
	// Implementations honor ctx cancellation and deadlines.
	Diagnose(ctx context.Context, prompt string) (*Payload, error)
}

// Payload is the wire shape every provider must return. Providers are
// instructed to answer with exactly this JSON object.
type Payload struct {
	Issues     []PayloadIssue `json:"issues"`
	Confidence float64        `json:"confidence,omitempty"`
}

// PayloadIssue is one provider-suggested issue.
type PayloadIssue struct {
	Component        string   `json:"component"`
	Description      string   `json:"description"`
	Probability      float64  `json:"probability"`
	RepairComplexity string   `json:"repair_complexity,omitempty"`
	LaborHours       float64  `json:"estimated_labor_hours,omitempty"`
	RequiredParts    []string `json:"required_parts,omitempty"`
}

// Result is a validated provider response.
type Result struct {
	Provider    string
	Issues      []models.Issue
	GeneratedAt time.Time
}

// Chain tries providers in priority order, each attempt bounded by its own
// timeout, and stops at the first validated response. All failures are
// recovered locally: the caller gets nil and proceeds rule-engine-only.
type Chain struct {
	providers []Provider
	timeout   time.Duration
}

// NewChain builds a fallback chain. A non-positive timeout falls back to
// DefaultTimeout. An empty chain is valid and always returns nil.
func NewChain(timeout time.Duration, providers ...Provider) *Chain {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Chain{providers: providers, timeout: timeout}
}

// Len returns the number of configured providers.
func (c *Chain) Len() int { return len(c.providers) }

// Diagnose runs the fallback chain. There is no retry of a failed provider
// within one request, and no cancellation beyond each attempt's timeout.
func (c *Chain) Diagnose(ctx context.Context, prompt string) *Result {
	for _, p := range c.providers {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		payload, err := p.Diagnose(attemptCtx, prompt)
		cancel()
		if err != nil {
			log.Warn().Str("provider", p.Name()).Err(err).Msg("Provider attempt failed, trying next")
			continue
		}

		issues, err := validate(payload)
		if err != nil {
			log.Warn().Str("provider", p.Name()).Err(err).Msg("Provider payload rejected, trying next")
			continue
		}

		log.Info().Str("provider", p.Name()).Int("issues", len(issues)).Msg("External classifier answered")
		return &Result{Provider: p.Name(), Issues: issues, GeneratedAt: time.Now().UTC()}
	}
	return nil
}

// validate converts a raw payload into model issues, rejecting shapes that
// cannot be trusted downstream.
func validate(p *Payload) ([]models.Issue, error) {
	if p == nil || len(p.Issues) == 0 {
		return nil, fmt.Errorf("empty issue list")
	}
	issues := make([]models.Issue, 0, len(p.Issues))
	for _, pi := range p.Issues {
		if strings.TrimSpace(pi.Component) == "" {
			continue
		}
		if pi.Probability < 0 || pi.Probability > 1 {
			return nil, fmt.Errorf("probability %v out of range for %q", pi.Probability, pi.Component)
		}
		issues = append(issues, models.Issue{
			Component:           strings.TrimSpace(pi.Component),
			Description:         strings.TrimSpace(pi.Description),
			Probability:         pi.Probability,
			RepairComplexity:    parseComplexity(pi.RepairComplexity),
			EstimatedLaborHours: pi.LaborHours,
			RequiredParts:       pi.RequiredParts,
			Source:              models.SourceExternalModel,
		})
	}
	if len(issues) == 0 {
		return nil, fmt.Errorf("no usable issues in payload")
	}
	return issues, nil
}

func parseComplexity(s string) models.Complexity {
	switch models.Complexity(strings.ToLower(strings.TrimSpace(s))) {
	case models.ComplexityLow:
		return models.ComplexityLow
	case models.ComplexityMedium:
		return models.ComplexityMedium
	case models.ComplexityHigh:
		return models.ComplexityHigh
	}
	return models.ComplexityUnknown
}

// extractJSON pulls the outermost JSON object out of a model response that
// may carry prose or fencing around it.
func extractJSON(text string) ([]byte, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}
	return []byte(text[start : end+1]), nil
}

// parsePayload decodes provider text into a Payload.
func parsePayload(text string) (*Payload, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &p, nil
}
