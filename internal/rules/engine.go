// Package rules evaluates the ordered diagnostic rule table against the
// outputs of the leaf analyzers. Rules are data records (predicate
// descriptor + issue templates), not code paths: adding a rule means
// editing the table, never the matcher or the fusion logic.
package rules

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/AsasinXReal/auto-diagnostic-app/internal/dtc"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/symptoms"
	"github.com/AsasinXReal/auto-diagnostic-app/internal/vehicle"
	"github.com/AsasinXReal/auto-diagnostic-app/pkg/models"

	"gopkg.in/yaml.v3"
)

//go:embed data/rules.yaml
var defaultTable []byte

// knownIssueBoost is added to an issue's probability when its text overlaps
// the vehicle's known-issue list, capped at boostCap.
const (
	knownIssueBoost = 0.15
	boostCap        = 0.95
)

// IssueTemplate is the output half of a rule record.
type IssueTemplate struct {
	Component   string   `yaml:"component"`
	Description string   `yaml:"description"`
	Probability float64  `yaml:"probability"`
	Complexity  string   `yaml:"complexity"`
	LaborHours  float64  `yaml:"labor_hours"`
	Parts       []string `yaml:"parts"`
}

// Rule is one tagged rule record. Empty predicate fields mean "don't care";
// a rule matches when every populated field holds.
type Rule struct {
	ID          string            `yaml:"id"`
	DTCPattern  dtc.Pattern       `yaml:"dtc_pattern"`
	Symptom     symptoms.Category `yaml:"symptom"`
	MileageBand vehicle.Band      `yaml:"mileage_band"`
	MarketClass vehicle.Class     `yaml:"market_class"`
	Severity    models.Severity   `yaml:"severity"`
	Issues      []IssueTemplate   `yaml:"issues"`
}

// matches evaluates the rule's predicate.
func (r Rule) matches(cls dtc.Classification, sym symptoms.Analysis, vctx vehicle.Context) bool {
	if r.DTCPattern != "" && !cls.HasPattern(r.DTCPattern) {
		return false
	}
	if r.Symptom != "" && !sym.Has(r.Symptom) {
		return false
	}
	if r.MileageBand != "" && vctx.MileageBand != r.MileageBand {
		return false
	}
	if r.MarketClass != "" && vctx.MarketClass != r.MarketClass {
		return false
	}
	return true
}

// triggeredBy describes the matched evidence combination.
func (r Rule) triggeredBy() string {
	var parts []string
	if r.DTCPattern != "" {
		parts = append(parts, "dtc:"+string(r.DTCPattern))
	}
	if r.Symptom != "" {
		parts = append(parts, "symptom:"+string(r.Symptom))
	}
	if r.MileageBand != "" {
		parts = append(parts, "mileage:"+string(r.MileageBand))
	}
	if r.MarketClass != "" {
		parts = append(parts, "class:"+string(r.MarketClass))
	}
	if len(parts) == 0 {
		return "unconditional"
	}
	return strings.Join(parts, "+")
}

type tableFile struct {
	Version  string        `yaml:"version"`
	Rules    []Rule        `yaml:"rules"`
	Fallback IssueTemplate `yaml:"fallback"`
}

// Engine holds the parsed, ordered rule table.
type Engine struct {
	version  string
	rules    []Rule
	fallback IssueTemplate
}

// New parses a YAML rule table.
func New(raw []byte) (*Engine, error) {
	var tf tableFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return nil, fmt.Errorf("parse rule table: %w", err)
	}
	if len(tf.Rules) == 0 {
		return nil, fmt.Errorf("rule table %q has no rules", tf.Version)
	}
	if tf.Fallback.Component == "" {
		return nil, fmt.Errorf("rule table %q has no fallback issue", tf.Version)
	}
	return &Engine{version: tf.Version, rules: tf.Rules, fallback: tf.Fallback}, nil
}

// Default loads the embedded rule table.
func Default() *Engine {
	e, err := New(defaultTable)
	if err != nil {
		panic(err)
	}
	return e
}

// Version returns the rule-table version string.
func (e *Engine) Version() string { return e.version }

// Result is the rule-engine output fed into fusion.
type Result struct {
	Issues           []models.Issue
	Matches          []models.RuleMatch
	AssertedSeverity models.Severity
}

// Evaluate walks the rule table in order and returns the first match's
// candidate issues. When no rule matches but at least one symptom was
// detected, the low-probability fallback issue is emitted. A post-pass
// boosts issues whose text overlaps the vehicle's known-issue list.
func (e *Engine) Evaluate(cls dtc.Classification, sym symptoms.Analysis, vctx vehicle.Context) Result {
	var res Result

	for _, r := range e.rules {
		if !r.matches(cls, sym, vctx) {
			continue
		}
		issues := make([]models.Issue, 0, len(r.Issues))
		for _, tpl := range r.Issues {
			issues = append(issues, tpl.toIssue())
		}
		res.Issues = issues
		res.Matches = []models.RuleMatch{{
			PatternID:       r.ID,
			TriggeredBy:     r.triggeredBy(),
			CandidateIssues: issues,
		}}
		res.AssertedSeverity = r.Severity
		break
	}

	if len(res.Issues) == 0 && sym.Count > 0 {
		issue := e.fallback.toIssue()
		res.Issues = []models.Issue{issue}
		res.Matches = []models.RuleMatch{{
			PatternID:       "fallback",
			TriggeredBy:     "symptom:" + string(sym.Primary),
			CandidateIssues: res.Issues,
		}}
	}

	for i := range res.Issues {
		if overlapsKnownIssue(res.Issues[i], vctx.KnownIssues) {
			res.Issues[i].Probability = models.Clamp(res.Issues[i].Probability+knownIssueBoost, 0, boostCap)
			res.Issues[i].MatchesKnownVehicleIssue = true
		}
	}
	return res
}

func (tpl IssueTemplate) toIssue() models.Issue {
	return models.Issue{
		Component:           tpl.Component,
		Description:         tpl.Description,
		Probability:         models.Clamp01(tpl.Probability),
		RepairComplexity:    parseComplexity(tpl.Complexity),
		EstimatedLaborHours: tpl.LaborHours,
		RequiredParts:       tpl.Parts,
		Source:              models.SourceRuleEngine,
	}
}

func parseComplexity(s string) models.Complexity {
	switch models.Complexity(strings.ToLower(s)) {
	case models.ComplexityLow, models.ComplexityMedium, models.ComplexityHigh:
		return models.Complexity(strings.ToLower(s))
	}
	return models.ComplexityUnknown
}

// overlapStopwords are too generic to count as evidence of a known issue.
var overlapStopwords = map[string]bool{
	"system": true, "engine": true, "with": true, "from": true,
	"without": true, "through": true, "failure": true, "wear": true,
}

// overlapsKnownIssue reports whether any significant word of the issue text
// also appears in one of the known-issue strings.
func overlapsKnownIssue(issue models.Issue, known []string) bool {
	if len(known) == 0 {
		return false
	}
	words := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(issue.Component + " " + issue.Description)) {
		w = strings.Trim(w, ".,;:()")
		if len(w) >= 4 && !overlapStopwords[w] {
			words[w] = true
		}
	}
	for _, k := range known {
		for _, w := range strings.Fields(strings.ToLower(k)) {
			w = strings.Trim(w, ".,;:()")
			if len(w) >= 4 && !overlapStopwords[w] && words[w] {
				return true
			}
		}
	}
	return false
}
