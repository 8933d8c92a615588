package fusion

import (
	"github.com/AsasinXReal/auto-diagnostic-app/internal/sensors"
	"github.com/AsasinXReal/auto-diagnostic-app/pkg/models"
)

// severityFromProbability maps an issue probability to a severity.
func severityFromProbability(p float64) models.Severity {
	switch {
	case p > 0.8:
		return models.SeverityHigh
	case p > 0.6:
		return models.SeverityMedium
	}
	return models.SeverityLow
}

// ClassifySeverity is the maximum severity across the fused issues, or the
// severity asserted by the triggered rule when that ranks higher.
func ClassifySeverity(issues []models.Issue, asserted models.Severity) models.Severity {
	sev := models.SeverityLow
	for _, is := range issues {
		sev = models.MaxSeverity(sev, severityFromProbability(is.Probability))
	}
	if asserted != "" {
		sev = models.MaxSeverity(sev, asserted)
	}
	return sev
}

// ClassifyUrgency derives urgency from severity and telemetry criticality.
// Any critical live reading forces UrgencyCritical no matter what the rule
// engine concluded — a safety override, not an average.
func ClassifyUrgency(sev models.Severity, telemetry sensors.Analysis) models.Urgency {
	if telemetry.Critical() {
		return models.UrgencyCritical
	}
	switch sev {
	case models.SeverityHigh:
		return models.UrgencyHigh
	case models.SeverityMedium:
		return models.UrgencyMedium
	}
	return models.UrgencyLow
}
