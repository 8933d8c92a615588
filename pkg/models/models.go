// Package models defines the shared data model of the auto-diagnostic
// service: telemetry frames, trouble-code records, symptom reports, vehicle
// profiles, candidate issues and the fused diagnosis record that the
// pipeline produces and the API returns.
package models

import (
	"regexp"
	"strings"
	"time"
)

// ── Ordinal scales ───────────────────────────────────────────

// Severity is the ordinal severity scale used for anomalies, issues and
// the fused diagnosis.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// rank maps severities onto a comparable scale. Unknown values rank lowest.
func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// AtLeast reports whether s is equal to or above other on the ordinal scale.
func (s Severity) AtLeast(other Severity) bool { return s.rank() >= other.rank() }

// MaxSeverity returns the higher of two severities.
func MaxSeverity(a, b Severity) Severity {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// Urgency is the ordinal urgency scale. A critical live reading forces
// UrgencyCritical regardless of what the rule engine concluded.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Complexity is the ordinal repair-complexity scale attached to an issue.
type Complexity string

const (
	ComplexityLow     Complexity = "low"
	ComplexityMedium  Complexity = "medium"
	ComplexityHigh    Complexity = "high"
	ComplexityUnknown Complexity = "unknown"
)

// IssueSource identifies which side of the fusion produced an issue.
type IssueSource string

const (
	SourceRuleEngine    IssueSource = "rule_engine"
	SourceExternalModel IssueSource = "external_model"
)

// ── Request-side entities ────────────────────────────────────

// TelemetryFrame is one timestamped sensor reading. Frames are immutable
// once received; the order they arrive in carries no meaning.
type TelemetryFrame struct {
	ParameterID string    `json:"parameter_id"`
	Value       float64   `json:"value"`
	Unit        string    `json:"unit,omitempty"`
	ObservedAt  time.Time `json:"observed_at"`
}

// dtcCodeRe is the standardized trouble-code format: one uppercase letter
// followed by four digits (P0300, U0100, ...).
var dtcCodeRe = regexp.MustCompile(`^[A-Z]\d{4}$`)

// ValidDTCCode reports whether code matches the trouble-code format after
// upper-casing. Callers drop invalid codes silently.
func ValidDTCCode(code string) bool {
	return dtcCodeRe.MatchString(NormalizeDTCCode(code))
}

// NormalizeDTCCode upper-cases and trims a trouble code.
func NormalizeDTCCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// DiagnosticCodeRecord is a stored trouble-code reading. RawValue > 0 means
// the code is currently active. Multiple records may carry the same code.
type DiagnosticCodeRecord struct {
	Code     string  `json:"code"`
	RawValue float64 `json:"raw_value"`
}

// Active reports whether the record represents an active code.
func (r DiagnosticCodeRecord) Active() bool { return r.RawValue > 0 }

// SymptomReport carries the driver-reported side of a request. The free
// text may be empty; structured conditions and the audio handle are opaque
// to the core and passed through to external collaborators.
type SymptomReport struct {
	Text                 string         `json:"text,omitempty"`
	StructuredConditions map[string]any `json:"structured_conditions,omitempty"`
	AudioReference       string         `json:"audio_reference,omitempty"`
}

// VehicleProfile is the static vehicle metadata attached to a request.
// Derived facts (age, mileage band, market class) are computed by the
// vehicle context resolver and never stored here.
type VehicleProfile struct {
	Make              string `json:"make"`
	Model             string `json:"model"`
	ModelYear         int    `json:"model_year"`
	EngineDescription string `json:"engine_description,omitempty"`
	OdometerKM        int    `json:"odometer_km"`
	VIN               string `json:"vin,omitempty"`
}

// DiagnosticRequest is the wire shape of a diagnosis submission. Every
// field is optional; missing or malformed fields are replaced by safe
// defaults so that partial input still yields a (lower-confidence) result.
type DiagnosticRequest struct {
	Telemetry []TelemetryFrame       `json:"telemetry,omitempty"`
	Codes     []DiagnosticCodeRecord `json:"codes,omitempty"`
	Symptoms  SymptomReport          `json:"symptoms"`
	Vehicle   VehicleProfile         `json:"vehicle"`
	SessionID string                 `json:"session_id,omitempty"`
}

// ── Result-side entities ─────────────────────────────────────

// Issue is one candidate mechanical problem surfaced by the rule engine or
// an external classifier.
type Issue struct {
	Component                string      `json:"component"`
	Description              string      `json:"description"`
	Probability              float64     `json:"probability"`
	RepairComplexity         Complexity  `json:"repair_complexity"`
	EstimatedLaborHours      float64     `json:"estimated_labor_hours"`
	RequiredParts            []string    `json:"required_parts,omitempty"`
	Source                   IssueSource `json:"source"`
	MatchesKnownVehicleIssue bool        `json:"matches_known_vehicle_issue"`
}

// RuleMatch records which rule fired and why, for explainability.
type RuleMatch struct {
	PatternID       string  `json:"pattern_id"`
	TriggeredBy     string  `json:"triggered_by"`
	CandidateIssues []Issue `json:"candidate_issues"`
}

// CostLineItem is one matched component in the cost estimate.
type CostLineItem struct {
	Component  string             `json:"component"`
	Amounts    map[string]float64 `json:"amounts"`
	LaborHours float64            `json:"labor_hours"`
}

// CostEstimate is the per-currency repair-cost estimate for a diagnosis.
type CostEstimate struct {
	Totals     map[string]float64 `json:"totals"`
	LaborHours float64            `json:"labor_hours"`
	Itemized   []CostLineItem     `json:"itemized"`
}

// Diagnosis is the fused, ranked verdict of one diagnostic run. It is the
// only entity retained after the response is produced, keyed by ID in the
// result store.
type Diagnosis struct {
	ID                string       `json:"diagnosis_id"`
	SessionID         string       `json:"session_id"`
	RankedIssues      []Issue      `json:"ranked_issues"`
	OverallConfidence float64      `json:"overall_confidence"`
	Severity          Severity     `json:"severity"`
	Urgency           Urgency      `json:"urgency"`
	CostEstimate      CostEstimate `json:"cost_estimate"`
	Recommendations   []string     `json:"recommendations"`
	CreatedAt         time.Time    `json:"timestamp"`
}

// Clamp01 confines v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp confines v to [lo,hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
