// Package diagnosis orchestrates the full diagnostic pipeline: telemetry,
// symptom and vehicle analysis run concurrently, then trouble-code
// classification, rule evaluation, fusion, severity/urgency classification
// and cost estimation run as a sequential chain. The completed result is
// written once to the store.
package diagnosis

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AsasinXReal/auto-diagnostic-app/internal/costs"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/dtc"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/fusion"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/provider"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/rules"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/sensors"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/store"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/symptoms"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/vehicle"
	"github.com/AsasinXReal/auto-diagnostic-app/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const maxRecommendations = 5

var tracer = otel.Tracer("auto-diagnostic-app")

// Service runs diagnoses. Construct with NewService.
type Service struct {
	store     store.Store
	knowledge *dtc.KnowledgeBase
	engine    *rules.Engine
	estimator *costs.Estimator
	resolver  *vehicle.Resolver
	chain     *provider.Chain

	now   func() time.Time
	newID func() string
}

// NewService wires the pipeline with the embedded default tables. The
// provider chain is optional; nil means rule-engine-only operation.
func NewService(st store.Store, chain *provider.Chain) *Service {
	return &Service{
		store:     st,
		knowledge: dtc.Default(),
		engine:    rules.Default(),
		estimator: costs.Default(),
		resolver:  vehicle.NewResolver(),
		chain:     chain,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Diagnose runs the full pipeline. Malformed input fields are replaced by
// safe defaults, so the only error paths are store failures; degraded input
// still yields a low-confidence result.
func (s *Service) Diagnose(ctx context.Context, req *models.DiagnosticRequest) (*models.Diagnosis, error) {
	ctx, span := tracer.Start(ctx, "diagnosis.pipeline")
	defer span.End()

	req = sanitize(req)

	// Independent analysis passes.
	var (
		wg        sync.WaitGroup
		telemetry sensors.Analysis
		symptomA  symptoms.Analysis
		vctx      vehicle.Context
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		telemetry = sensors.Analyze(req.Telemetry)
	}()
	go func() {
		defer wg.Done()
		symptomA = symptoms.Analyze(req.Symptoms.Text)
	}()
	go func() {
		defer wg.Done()
		vctx = s.resolver.Resolve(req.Vehicle)
	}()
	wg.Wait()

	cls := s.knowledge.Classify(activeCodes(req.Codes, telemetry.ActiveCodes))

	// External classifiers are an optional override; any failure inside
	// the chain is recovered and the run continues rule-engine-only.
	var externalIssues []models.Issue
	if s.chain != nil && s.chain.Len() > 0 {
		if res := s.chain.Diagnose(ctx, buildPrompt(req, cls, symptomA, vctx)); res != nil {
			externalIssues = res.Issues
			span.SetAttributes(attribute.String("diagnosis.provider", res.Provider))
		}
	}

	ruleResult := s.engine.Evaluate(cls, symptomA, vctx)
	ranked := fusion.Merge(ruleResult.Issues, externalIssues)

	confidence := fusion.OverallConfidence(fusion.Evidence{
		DTCConfidence:     cls.Confidence,
		SymptomConfidence: symptomA.Confidence,
		HasKnownIssues:    vctx.HasKnownIssues(),
		HasAnomalies:      len(telemetry.Anomalies) > 0,
		ActiveCodes:       len(cls.Active),
		SymptomCount:      symptomA.Count,
	})
	severity := fusion.ClassifySeverity(ranked, ruleResult.AssertedSeverity)
	urgency := fusion.ClassifyUrgency(severity, telemetry)

	d := &models.Diagnosis{
		ID:                s.newID(),
		SessionID:         req.SessionID,
		RankedIssues:      ranked,
		OverallConfidence: confidence,
		Severity:          severity,
		Urgency:           urgency,
		CostEstimate:      s.estimator.Estimate(ranked, vctx),
		Recommendations:   recommendations(urgency, telemetry, ranked),
		CreatedAt:         s.now(),
	}

	if err := s.store.CreateDiagnosis(ctx, d); err != nil {
		return nil, fmt.Errorf("save diagnosis: %w", err)
	}

	span.SetAttributes(
		attribute.Int("diagnosis.issues", len(ranked)),
		attribute.Float64("diagnosis.confidence", confidence),
		attribute.String("diagnosis.severity", string(severity)),
		attribute.String("diagnosis.urgency", string(urgency)),
	)
	log.Info().
		Str("diagnosis_id", d.ID).
		Str("session_id", d.SessionID).
		Int("issues", len(ranked)).
		Float64("confidence", confidence).
		Str("urgency", string(urgency)).
		Msg("Diagnosis completed")
	return d, nil
}

// Get returns a stored diagnosis.
func (s *Service) Get(ctx context.Context, id string) (*models.Diagnosis, error) {
	return s.store.GetDiagnosis(ctx, id)
}

// ListBySession returns a session's diagnoses, newest first.
func (s *Service) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.Diagnosis, error) {
	return s.store.ListDiagnosesBySession(ctx, sessionID, limit)
}

// sanitize replaces missing or malformed request fields with safe defaults
// so partial input degrades the result instead of failing the run.
func sanitize(req *models.DiagnosticRequest) *models.DiagnosticRequest {
	if req == nil {
		return &models.DiagnosticRequest{}
	}
	out := *req

	frames := make([]models.TelemetryFrame, 0, len(req.Telemetry))
	for _, f := range req.Telemetry {
		if strings.TrimSpace(f.ParameterID) == "" {
			continue
		}
		if math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
			continue
		}
		frames = append(frames, f)
	}
	out.Telemetry = frames
	out.Symptoms.Text = strings.TrimSpace(req.Symptoms.Text)
	out.SessionID = strings.TrimSpace(req.SessionID)
	return &out
}

// activeCodes unions the explicit code records with the codes carried in
// telemetry frames. Invalid codes are dropped, duplicates collapse, and
// the result is sorted so downstream output is order-independent.
func activeCodes(records []models.DiagnosticCodeRecord, telemetryCodes []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(records)+len(telemetryCodes))

	add := func(raw string) {
		code := models.NormalizeDTCCode(raw)
		if !models.ValidDTCCode(code) || seen[code] {
			return
		}
		seen[code] = true
		out = append(out, code)
	}
	for _, r := range records {
		if r.Active() {
			add(r.Code)
		}
	}
	for _, c := range telemetryCodes {
		add(c)
	}
	sort.Strings(out)
	return out
}

// buildPrompt renders the request context for the external classifiers.
func buildPrompt(req *models.DiagnosticRequest, cls dtc.Classification, sym symptoms.Analysis, vctx vehicle.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Vehicle: %s %s, model year %d, %d km, mileage band %s.\n",
		vctx.Make, vctx.Model, req.Vehicle.ModelYear, req.Vehicle.OdometerKM, vctx.MileageBand)
	if len(cls.Active) > 0 {
		fmt.Fprintf(&b, "Active trouble codes: %s (primary pattern %s).\n",
			strings.Join(cls.Active, ", "), cls.Primary)
	}
	if req.Symptoms.Text != "" {
		fmt.Fprintf(&b, "Driver-reported symptoms: %s\n", req.Symptoms.Text)
	}
	if len(sym.Detected) > 0 {
		cats := make([]string, 0, len(sym.Detected))
		for _, d := range sym.Detected {
			cats = append(cats, string(d.Category))
		}
		fmt.Fprintf(&b, "Detected symptom categories: %s.\n", strings.Join(cats, ", "))
	}
	if len(vctx.KnownIssues) > 0 {
		fmt.Fprintf(&b, "Known issues for this model: %s.\n", strings.Join(vctx.KnownIssues, "; "))
	}
	b.WriteString("Identify the most likely mechanical issues.")
	return b.String()
}

// criticalAdvice maps a critical parameter to the immediate action.
var criticalAdvice = map[string]string{
	"engine_temp":     "Stop the engine and check the coolant level before driving again.",
	"oil_pressure":    "Do not run the engine until the oil level and pressure are verified.",
	"coolant_level":   "Top up the coolant and check for leaks before driving.",
	"battery_voltage": "Have the battery and charging system tested.",
	"rpm":             "Avoid high engine loads until the engine is inspected.",
	"fuel_trim":       "Have the fuel and air intake system inspected.",
}

// recommendations derives the action list from urgency, critical telemetry
// readings and the top ranked issue, capped at maxRecommendations.
func recommendations(urgency models.Urgency, telemetry sensors.Analysis, ranked []models.Issue) []string {
	out := make([]string, 0, maxRecommendations)

	switch urgency {
	case models.UrgencyCritical:
		out = append(out, "Stop the vehicle as soon as it is safe and arrange towing to a workshop.")
	case models.UrgencyHigh:
		out = append(out, "Book a workshop inspection within the next few days.")
	case models.UrgencyMedium:
		out = append(out, "Schedule a workshop visit at the next opportunity.")
	default:
		out = append(out, "Monitor the symptoms and mention them at the next routine service.")
	}

	for _, flag := range telemetry.CriticalFlags {
		if advice, ok := criticalAdvice[flag.Parameter]; ok {
			out = append(out, advice)
		} else {
			out = append(out, fmt.Sprintf("Have the %s reading checked: %.1f is outside the safe range.", flag.Parameter, flag.Value))
		}
		if len(out) >= maxRecommendations {
			return out[:maxRecommendations]
		}
	}

	if len(ranked) > 0 && ranked[0].Component != "" {
		out = append(out, fmt.Sprintf("Most likely cause: %s (%s).", ranked[0].Component, ranked[0].Description))
	}
	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out
}
