package sensors_test

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/AsasinXReal/auto-diagnostic-app/internal/sensors"
	"github.com/AsasinXReal/auto-diagnostic-app/pkg/models"
)

func frame(id string, v float64, at time.Time) models.TelemetryFrame {
	return models.TelemetryFrame{ParameterID: id, Value: v, ObservedAt: at}
}

func TestAnalyze_Empty(t *testing.T) {
	a := sensors.Analyze(nil)
	if len(a.Live) != 0 || len(a.Anomalies) != 0 || a.Critical() {
		t.Errorf("empty input should produce empty analysis, got %+v", a)
	}
}

func TestAnalyze_NormalReadingsNoAnomaly(t *testing.T) {
	now := time.Now()
	a := sensors.Analyze([]models.TelemetryFrame{
		frame("rpm", 750, now),
		frame("engine_temp", 90, now),
	})
	if len(a.Anomalies) != 0 {
		t.Errorf("no anomalies expected, got %+v", a.Anomalies)
	}
	if a.Live["rpm"] != 750 || a.Live["engine_temp"] != 90 {
		t.Errorf("live table = %+v", a.Live)
	}
}

func TestAnalyze_EngineTempBoundaries(t *testing.T) {
	now := time.Now()
	cases := []struct {
		value        float64
		wantAnomaly  bool
		wantSeverity models.Severity
		wantCritical bool
	}{
		{105, false, "", false},  // exactly normal max
		{110, true, models.SeverityMedium, false},
		{115, true, models.SeverityMedium, false},
		{120, true, models.SeverityMedium, false}, // exactly critical max
		{125, true, models.SeverityHigh, true},    // above critical max
	}
	for _, tc := range cases {
		a := sensors.Analyze([]models.TelemetryFrame{frame("engine_temp", tc.value, now)})
		if got := len(a.Anomalies) > 0; got != tc.wantAnomaly {
			t.Errorf("engine_temp=%v: anomaly = %v, want %v", tc.value, got, tc.wantAnomaly)
			continue
		}
		if tc.wantAnomaly && a.Anomalies[0].Severity != tc.wantSeverity {
			t.Errorf("engine_temp=%v: severity = %q, want %q", tc.value, a.Anomalies[0].Severity, tc.wantSeverity)
		}
		if a.Critical() != tc.wantCritical {
			t.Errorf("engine_temp=%v: critical = %v, want %v", tc.value, a.Critical(), tc.wantCritical)
		}
	}
}

func TestAnalyze_LowRPMIsMediumNotCritical(t *testing.T) {
	// 400 rpm: below normal min 600 but above critical min 300.
	a := sensors.Analyze([]models.TelemetryFrame{frame("rpm", 400, time.Now())})
	if len(a.Anomalies) != 1 || a.Anomalies[0].Severity != models.SeverityMedium {
		t.Fatalf("anomalies = %+v, want one medium", a.Anomalies)
	}
	if a.Critical() {
		t.Error("rpm 400 must not raise a critical flag")
	}
}

func TestAnalyze_CriticalFlagCarriesRawValue(t *testing.T) {
	a := sensors.Analyze([]models.TelemetryFrame{frame("rpm", 5600, time.Now())})
	if !a.Critical() {
		t.Fatal("rpm 5600 should be critical")
	}
	fl := a.CriticalFlags[0]
	if fl.Parameter != "rpm" || fl.Value != 5600 {
		t.Errorf("flag = %+v, want {rpm 5600}", fl)
	}
}

func TestAnalyze_DTCPrefixFrames(t *testing.T) {
	now := time.Now()
	a := sensors.Analyze([]models.TelemetryFrame{
		frame("dtc_P0300", 1, now),
		frame("dtc_P0171", 0, now),    // inactive
		frame("dtc_garbage", 1, now),  // invalid format, dropped
		frame("DTC_u0100", 2.5, now),  // prefix match is case-insensitive
	})
	want := []string{"P0300", "U0100"}
	if !reflect.DeepEqual(a.ActiveCodes, want) {
		t.Errorf("ActiveCodes = %v, want %v", a.ActiveCodes, want)
	}
	if _, ok := a.Live["dtc_p0300"]; ok {
		t.Error("code frames must not land in the live table")
	}
}

func TestAnalyze_DuplicateParameterLatestWins(t *testing.T) {
	t0 := time.Now()
	a := sensors.Analyze([]models.TelemetryFrame{
		frame("engine_temp", 125, t0),
		frame("engine_temp", 90, t0.Add(time.Second)),
	})
	if a.Live["engine_temp"] != 90 {
		t.Errorf("live engine_temp = %v, want latest 90", a.Live["engine_temp"])
	}
	if a.Critical() {
		t.Error("superseded critical reading must not flag")
	}
}

func TestAnalyze_OrderIndependent(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	frames := []models.TelemetryFrame{
		frame("rpm", 400, t0),
		frame("rpm", 720, t0.Add(2*time.Second)),
		frame("engine_temp", 118, t0),
		frame("fuel_trim", -14, t0.Add(time.Second)),
		frame("dtc_P0301", 1, t0),
		frame("speed", 53, t0),
	}
	base := sensors.Analyze(frames)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := make([]models.TelemetryFrame, len(frames))
		copy(shuffled, frames)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := sensors.Analyze(shuffled)
		if !reflect.DeepEqual(got, base) {
			t.Fatalf("analysis depends on frame order:\n got %+v\nwant %+v", got, base)
		}
	}
}

func TestAnalyze_UnknownParameterPassesThrough(t *testing.T) {
	a := sensors.Analyze([]models.TelemetryFrame{frame("cabin_temp", 22, time.Now())})
	if a.Live["cabin_temp"] != 22 {
		t.Errorf("live cabin_temp = %v, want 22", a.Live["cabin_temp"])
	}
	if len(a.Anomalies) != 0 {
		t.Errorf("unknown parameter must not produce anomalies, got %+v", a.Anomalies)
	}
}
