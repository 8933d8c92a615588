package diagnosis

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/AsasinXReal/auto-diagnostic-app/internal/provider"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/store"
	"github.com/AsasinXReal/auto-diagnostic-app/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(chain *provider.Chain) (*Service, *store.MemoryStore) {
	st := store.NewMemoryStore(0)
	svc := NewService(st, chain)
	svc.now = func() time.Time {
		return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	}
	svc.resolver.Now = svc.now
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("diag-%d", n)
	}
	return svc, st
}

func golfRequest() *models.DiagnosticRequest {
	return &models.DiagnosticRequest{
		Telemetry: []models.TelemetryFrame{
			{ParameterID: "rpm", Value: 400, Unit: "rpm"},
			{ParameterID: "engine_temp", Value: 90, Unit: "celsius"},
		},
		Codes:    []models.DiagnosticCodeRecord{{Code: "P0300", RawValue: 1}},
		Symptoms: models.SymptomReport{Text: "motorul tremură la ralanti"},
		Vehicle: models.VehicleProfile{
			Make: "VW", Model: "Golf", ModelYear: 2015,
			EngineDescription: "1.4 TSI", OdometerKM: 140000,
		},
		SessionID: "sess-1",
	}
}

func TestDiagnoseMisfireWithVibration(t *testing.T) {
	svc, _ := newTestService(nil)

	d, err := svc.Diagnose(context.Background(), golfRequest())
	require.NoError(t, err)
	require.NotEmpty(t, d.RankedIssues)

	assert.Equal(t, "ignition system", d.RankedIssues[0].Component)
	assert.True(t, d.RankedIssues[0].MatchesKnownVehicleIssue)
	assert.InDelta(t, 0.93, d.RankedIssues[0].Probability, 1e-9)
	assert.Equal(t, models.SourceRuleEngine, d.RankedIssues[0].Source)

	// rpm 400 is below normal but above critical, so no escalation.
	assert.Equal(t, models.SeverityHigh, d.Severity)
	assert.Equal(t, models.UrgencyHigh, d.Urgency)

	assert.GreaterOrEqual(t, d.OverallConfidence, 0.1)
	assert.LessOrEqual(t, d.OverallConfidence, 0.95)
	assert.Greater(t, d.OverallConfidence, 0.5)

	assert.Equal(t, "diag-1", d.ID)
	assert.Equal(t, "sess-1", d.SessionID)
	require.NotEmpty(t, d.Recommendations)
	assert.LessOrEqual(t, len(d.Recommendations), maxRecommendations)
	assert.Contains(t, d.Recommendations[0], "workshop")

	require.NotEmpty(t, d.CostEstimate.Itemized)
	assert.Positive(t, d.CostEstimate.Totals["RON"])
}

func TestDiagnoseEmptyRequest(t *testing.T) {
	svc, _ := newTestService(nil)

	d, err := svc.Diagnose(context.Background(), &models.DiagnosticRequest{})
	require.NoError(t, err)

	assert.InDelta(t, 0.1, d.OverallConfidence, 1e-9)
	assert.Empty(t, d.RankedIssues)
	assert.Equal(t, models.UrgencyLow, d.Urgency)
	assert.Equal(t, models.SeverityLow, d.Severity)
}

func TestDiagnoseNilRequest(t *testing.T) {
	svc, _ := newTestService(nil)

	d, err := svc.Diagnose(context.Background(), nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, d.OverallConfidence, 1e-9)
}

func TestCriticalTelemetryForcesCriticalUrgency(t *testing.T) {
	svc, _ := newTestService(nil)

	req := &models.DiagnosticRequest{
		Telemetry: []models.TelemetryFrame{{ParameterID: "engine_temp", Value: 125}},
	}
	d, err := svc.Diagnose(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.UrgencyCritical, d.Urgency)
	// The coolant advice should be among the recommendations.
	assert.Contains(t, d.Recommendations, "Stop the engine and check the coolant level before driving again.")

	// 115 is only a medium anomaly: no escalation.
	req.Telemetry[0].Value = 115
	d, err = svc.Diagnose(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, models.UrgencyCritical, d.Urgency)
}

func TestUnknownCodeDoesNotCrash(t *testing.T) {
	svc, _ := newTestService(nil)

	req := &models.DiagnosticRequest{
		Codes: []models.DiagnosticCodeRecord{{Code: "Z9999", RawValue: 1}},
	}
	d, err := svc.Diagnose(context.Background(), req)
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestTelemetryOrderIndependence(t *testing.T) {
	svc, _ := newTestService(nil)
	rng := rand.New(rand.NewSource(7))

	base := golfRequest()
	ref, err := svc.Diagnose(context.Background(), base)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		req := golfRequest()
		rng.Shuffle(len(req.Telemetry), func(a, b int) {
			req.Telemetry[a], req.Telemetry[b] = req.Telemetry[b], req.Telemetry[a]
		})
		rng.Shuffle(len(req.Codes), func(a, b int) {
			req.Codes[a], req.Codes[b] = req.Codes[b], req.Codes[a]
		})
		d, err := svc.Diagnose(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, ref.RankedIssues, d.RankedIssues)
		assert.Equal(t, ref.OverallConfidence, d.OverallConfidence)
		assert.Equal(t, ref.Urgency, d.Urgency)
	}
}

type failingProvider struct{ delay time.Duration }

func (f *failingProvider) Name() string { return "failing" }

func (f *failingProvider) Diagnose(ctx context.Context, prompt string) (*provider.Payload, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("provider down")
}

func TestProviderFailureNeverSurfaces(t *testing.T) {
	chain := provider.NewChain(30*time.Millisecond,
		&failingProvider{},
		&failingProvider{delay: time.Second},
	)
	withChain, _ := newTestService(chain)
	without, _ := newTestService(nil)

	got, err := withChain.Diagnose(context.Background(), golfRequest())
	require.NoError(t, err)
	ref, err := without.Diagnose(context.Background(), golfRequest())
	require.NoError(t, err)

	assert.Equal(t, ref.RankedIssues, got.RankedIssues)
	assert.Equal(t, ref.OverallConfidence, got.OverallConfidence)
	assert.Equal(t, ref.Severity, got.Severity)
}

type fixedProvider struct{ payload *provider.Payload }

func (f *fixedProvider) Name() string { return "fixed" }

func (f *fixedProvider) Diagnose(ctx context.Context, prompt string) (*provider.Payload, error) {
	return f.payload, nil
}

func TestProviderIssuesMergeBehindRuleTies(t *testing.T) {
	chain := provider.NewChain(time.Second, &fixedProvider{payload: &provider.Payload{
		Issues: []provider.PayloadIssue{
			{Component: "vacuum hose", Description: "cracked hose", Probability: 0.99},
		},
	}})
	svc, _ := newTestService(chain)

	d, err := svc.Diagnose(context.Background(), golfRequest())
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(d.RankedIssues), 2)
	assert.Equal(t, "vacuum hose", d.RankedIssues[0].Component)
	assert.Equal(t, models.SourceExternalModel, d.RankedIssues[0].Source)
	assert.Equal(t, "ignition system", d.RankedIssues[1].Component)
	assert.LessOrEqual(t, len(d.RankedIssues), 5)
}

func TestDiagnoseStoresResult(t *testing.T) {
	svc, st := newTestService(nil)

	d, err := svc.Diagnose(context.Background(), golfRequest())
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, 1, st.Len())

	list, err := svc.ListBySession(context.Background(), "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, d.ID, list[0].ID)
}

func TestSanitizeDropsMalformedFrames(t *testing.T) {
	req := &models.DiagnosticRequest{
		Telemetry: []models.TelemetryFrame{
			{ParameterID: "rpm", Value: math.NaN()},
			{ParameterID: "", Value: 42},
			{ParameterID: "engine_temp", Value: math.Inf(1)},
			{ParameterID: "engine_temp", Value: 90},
		},
		Symptoms:  models.SymptomReport{Text: "  zgomot  "},
		SessionID: " sess ",
	}
	out := sanitize(req)
	require.Len(t, out.Telemetry, 1)
	assert.Equal(t, "engine_temp", out.Telemetry[0].ParameterID)
	assert.Equal(t, "zgomot", out.Symptoms.Text)
	assert.Equal(t, "sess", out.SessionID)
}

func TestActiveCodesUnion(t *testing.T) {
	codes := activeCodes(
		[]models.DiagnosticCodeRecord{
			{Code: "p0300", RawValue: 1},
			{Code: "P0171", RawValue: 0}, // inactive
			{Code: "XYZ", RawValue: 1},   // invalid
		},
		[]string{"P0300", "P0420"},
	)
	assert.Equal(t, []string{"P0300", "P0420"}, codes)
}

func TestRecommendationsCap(t *testing.T) {
	svc, _ := newTestService(nil)

	req := golfRequest()
	req.Telemetry = append(req.Telemetry,
		models.TelemetryFrame{ParameterID: "engine_temp", Value: 125, ObservedAt: time.Now()},
		models.TelemetryFrame{ParameterID: "oil_pressure", Value: 0.2, ObservedAt: time.Now()},
		models.TelemetryFrame{ParameterID: "battery_voltage", Value: 8, ObservedAt: time.Now()},
		models.TelemetryFrame{ParameterID: "coolant_level", Value: 1, ObservedAt: time.Now()},
	)
	d, err := svc.Diagnose(context.Background(), req)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(d.Recommendations), maxRecommendations)
}
