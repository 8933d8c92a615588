// Package fusion merges candidate issues from the rule engine and any
// external classifier into one ranked verdict, and computes the overall
// confidence score. The score is deliberately transparent: every addend is
// traceable to one evidence source, and the tests pin each one down.
package fusion

import (
	"sort"

	"github.com/AsasinXReal/auto-diagnostic-app/pkg/models"
)

// MaxRankedIssues caps the fused issue list.
const MaxRankedIssues = 5

// Confidence bounds of the overall score.
const (
	MinConfidence = 0.1
	MaxConfidence = 0.95
)

// Merge concatenates rule-engine issues (first) and external-model issues
// (second), then stable-sorts descending by probability and truncates to
// MaxRankedIssues. Stability makes ties resolve toward the rule engine and
// toward earlier insertion, so reordering the request's telemetry never
// reorders the verdict.
func Merge(ruleIssues, externalIssues []models.Issue) []models.Issue {
	merged := make([]models.Issue, 0, len(ruleIssues)+len(externalIssues))
	merged = append(merged, ruleIssues...)
	merged = append(merged, externalIssues...)

	for i := range merged {
		merged[i].Probability = models.Clamp01(merged[i].Probability)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Probability > merged[j].Probability
	})

	if len(merged) > MaxRankedIssues {
		merged = merged[:MaxRankedIssues]
	}
	return merged
}

// Evidence summarizes the independent signals feeding the confidence score.
type Evidence struct {
	DTCConfidence     float64
	SymptomConfidence float64
	HasKnownIssues    bool
	HasAnomalies      bool
	ActiveCodes       int
	SymptomCount      int
}

// Any reports whether at least one evidence source contributed.
func (e Evidence) Any() bool {
	return e.ActiveCodes > 0 || e.SymptomCount > 0 || e.HasAnomalies
}

// OverallConfidence computes the weighted confidence score:
//
//	0.5 + 0.3·dtc + 0.3·symptom (+0.15 known issues, +0.10 both strong)
//
// clamped to [MinConfidence, MaxConfidence]. A request with no evidence at
// all scores the floor directly — the additive base would otherwise report
// misplaced certainty about an empty request.
func OverallConfidence(e Evidence) float64 {
	if !e.Any() {
		return MinConfidence
	}

	score := 0.5 + 0.3*e.DTCConfidence + 0.3*e.SymptomConfidence
	if e.HasKnownIssues {
		score += 0.15
	}
	if e.DTCConfidence > 0.5 && e.SymptomConfidence > 0.5 {
		score += 0.10
	}
	return models.Clamp(score, MinConfidence, MaxConfidence)
}
