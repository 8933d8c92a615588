// Package sensors turns a sequence of raw telemetry frames into normalized
// live parameters and flags readings that breach the per-parameter rule
// thresholds. Frames whose parameter id carries the trouble-code prefix are
// split off as active codes instead of live parameters.
package sensors

import (
	"sort"
	"strings"

	"github.com/AsasinXReal/auto-diagnostic-app/pkg/models"
)

// DTCPrefix marks a telemetry frame as a trouble-code reading rather than a
// live parameter, e.g. "dtc_P0300" with value > 0 meaning "active".
const DTCPrefix = "dtc_"

// Range is a closed value interval.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies inside the range (inclusive).
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// ParameterRule holds the normal and critical bounds for one parameter.
// Outside Critical is a high-severity anomaly and a critical flag; outside
// Normal but inside Critical is a medium-severity anomaly.
type ParameterRule struct {
	Normal   Range
	Critical Range
}

// defaultRules is the fixed per-parameter threshold table. Parameters not
// listed here are carried through as live values without any checks.
var defaultRules = map[string]ParameterRule{
	"rpm":             {Normal: Range{600, 850}, Critical: Range{300, 5000}},
	"engine_temp":     {Normal: Range{85, 105}, Critical: Range{70, 120}},
	"fuel_trim":       {Normal: Range{-10, 10}, Critical: Range{-25, 25}},
	"oil_pressure":    {Normal: Range{2.0, 5.5}, Critical: Range{1.0, 7.0}},
	"battery_voltage": {Normal: Range{12.4, 14.6}, Critical: Range{11.5, 15.5}},
	"coolant_level":   {Normal: Range{60, 100}, Critical: Range{30, 110}},
}

// Anomaly is one out-of-range reading.
type Anomaly struct {
	Parameter string          `json:"parameter"`
	Value     float64         `json:"value"`
	Severity  models.Severity `json:"severity"`
}

// CriticalFlag marks a reading outside its critical bounds. The raw value
// is carried verbatim so the urgency classifier can report it.
type CriticalFlag struct {
	Parameter string  `json:"parameter"`
	Value     float64 `json:"value"`
}

// Analysis is the analyzer output consumed by the rule engine and the
// urgency classifier.
type Analysis struct {
	Live          map[string]float64 `json:"live"`
	ActiveCodes   []string           `json:"active_codes,omitempty"`
	Anomalies     []Anomaly          `json:"anomalies,omitempty"`
	CriticalFlags []CriticalFlag     `json:"critical_flags,omitempty"`
}

// Critical reports whether any reading breached its critical bounds.
func (a Analysis) Critical() bool { return len(a.CriticalFlags) > 0 }

// Analyze folds the frames into a live-parameter table and evaluates the
// threshold rules. Duplicate parameters resolve to the latest observation
// (ties to the larger value) so the outcome is independent of frame order.
func Analyze(frames []models.TelemetryFrame) Analysis {
	a := Analysis{Live: make(map[string]float64)}
	latest := make(map[string]models.TelemetryFrame)
	codes := make(map[string]bool)

	for _, f := range frames {
		id := strings.TrimSpace(f.ParameterID)
		if id == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(id), DTCPrefix) {
			code := models.NormalizeDTCCode(id[len(DTCPrefix):])
			if f.Value > 0 && models.ValidDTCCode(code) {
				codes[code] = true
			}
			continue
		}
		id = strings.ToLower(id)
		prev, ok := latest[id]
		if !ok || f.ObservedAt.After(prev.ObservedAt) ||
			(f.ObservedAt.Equal(prev.ObservedAt) && f.Value > prev.Value) {
			latest[id] = f
		}
	}

	params := make([]string, 0, len(latest))
	for id := range latest {
		params = append(params, id)
	}
	sort.Strings(params)

	for _, id := range params {
		v := latest[id].Value
		a.Live[id] = v

		rule, ok := defaultRules[id]
		if !ok {
			continue
		}
		switch {
		case !rule.Critical.Contains(v):
			a.Anomalies = append(a.Anomalies, Anomaly{Parameter: id, Value: v, Severity: models.SeverityHigh})
			a.CriticalFlags = append(a.CriticalFlags, CriticalFlag{Parameter: id, Value: v})
		case !rule.Normal.Contains(v):
			a.Anomalies = append(a.Anomalies, Anomaly{Parameter: id, Value: v, Severity: models.SeverityMedium})
		}
	}

	for code := range codes {
		a.ActiveCodes = append(a.ActiveCodes, code)
	}
	sort.Strings(a.ActiveCodes)
	return a
}
