// Package dtc holds the diagnostic trouble-code knowledge base: a total
// code→description mapping plus the pattern classification the rule engine
// keys on. Lookups never fail — unknown codes decode to a generic entry.
package dtc

import (
	_ "embed"
	"fmt"
	"regexp"

	"github.com/AsasinXReal/auto-diagnostic-app/pkg/models"

	"gopkg.in/yaml.v3"
)

//go:embed data/dtc_codes.yaml
var defaultTable []byte

// Pattern is the high-level trouble-code classification of a request.
type Pattern string

const (
	PatternMisfire      Pattern = "misfire"
	PatternFuelSystem   Pattern = "fuel_system"
	PatternO2Sensor     Pattern = "o2_sensor"
	PatternTransmission Pattern = "transmission"
	PatternTurbo        Pattern = "turbo"
	PatternOther        Pattern = "other"
	PatternNone         Pattern = "none"
)

// Entry is one decoded trouble code.
type Entry struct {
	Code        string `json:"code" yaml:"-"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
}

// Classification is the outcome of scanning a request's active codes.
// Primary is the first matching pattern in priority order; All retains
// every matching pattern for rule evaluation.
type Classification struct {
	Primary    Pattern         `json:"primary"`
	All        []Pattern       `json:"all"`
	Confidence float64         `json:"confidence"`
	Risk       models.Severity `json:"risk"`
	Active     []string        `json:"active_codes"`
	Decoded    []Entry         `json:"decoded"`
}

// HasPattern reports whether p was among the matched patterns.
func (c Classification) HasPattern(p Pattern) bool {
	for _, m := range c.All {
		if m == p {
			return true
		}
	}
	return false
}

// KnowledgeBase is the injectable, versioned decode table.
type KnowledgeBase struct {
	version string
	entries map[string]Entry
}

type tableFile struct {
	Version string           `yaml:"version"`
	Codes   map[string]Entry `yaml:"codes"`
}

// New parses a YAML decode table into a knowledge base.
func New(raw []byte) (*KnowledgeBase, error) {
	var tf tableFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return nil, fmt.Errorf("parse dtc table: %w", err)
	}
	if len(tf.Codes) == 0 {
		return nil, fmt.Errorf("dtc table %q has no codes", tf.Version)
	}
	entries := make(map[string]Entry, len(tf.Codes))
	for code, e := range tf.Codes {
		code = models.NormalizeDTCCode(code)
		e.Code = code
		entries[code] = e
	}
	return &KnowledgeBase{version: tf.Version, entries: entries}, nil
}

// Default loads the embedded decode table. The embedded table is part of
// the build, so a parse failure here is a programming error.
func Default() *KnowledgeBase {
	kb, err := New(defaultTable)
	if err != nil {
		panic(err)
	}
	return kb
}

// Version returns the decode-table version string.
func (kb *KnowledgeBase) Version() string { return kb.version }

// Len returns the number of known codes.
func (kb *KnowledgeBase) Len() int { return len(kb.entries) }

// Lookup decodes a trouble code. Unknown codes yield a generic entry with
// category "unknown" — never an error.
func (kb *KnowledgeBase) Lookup(code string) Entry {
	code = models.NormalizeDTCCode(code)
	if e, ok := kb.entries[code]; ok {
		return e
	}
	return Entry{
		Code:        code,
		Description: "unknown code: " + code,
		Category:    "unknown",
	}
}

// ── Pattern classification ───────────────────────────────────

var (
	misfireRe      = regexp.MustCompile(`^P030\d$`)
	o2SensorRe     = regexp.MustCompile(`^P01[35]\d$`)
	transmissionRe = regexp.MustCompile(`^P07\d\d$`)

	fuelSystemCodes = map[string]bool{"P0171": true, "P0172": true, "P0174": true, "P0175": true}
	turboCodes      = map[string]bool{"P0299": true, "P0234": true, "P0235": true}
)

// patternOf returns the pattern a single code belongs to, or PatternOther.
// Priority between patterns is resolved in Classify, not here.
func patternOf(code string) Pattern {
	switch {
	case misfireRe.MatchString(code):
		return PatternMisfire
	case fuelSystemCodes[code]:
		return PatternFuelSystem
	case o2SensorRe.MatchString(code):
		return PatternO2Sensor
	case transmissionRe.MatchString(code):
		return PatternTransmission
	case turboCodes[code]:
		return PatternTurbo
	}
	return PatternOther
}

// patternPriority is the fixed resolution order for the primary pattern.
var patternPriority = []Pattern{
	PatternMisfire,
	PatternFuelSystem,
	PatternO2Sensor,
	PatternTransmission,
	PatternTurbo,
	PatternOther,
}

// Classify scans the active codes and derives the request-level pattern,
// its confidence and risk. Invalid codes are assumed to have been dropped
// during request sanitization; anything handed in here is counted.
func (kb *KnowledgeBase) Classify(activeCodes []string) Classification {
	if len(activeCodes) == 0 {
		return Classification{
			Primary:    PatternNone,
			Confidence: 0.1,
			Risk:       models.SeverityLow,
		}
	}

	seen := map[Pattern]bool{}
	cls := Classification{}
	for _, raw := range activeCodes {
		code := models.NormalizeDTCCode(raw)
		cls.Active = append(cls.Active, code)
		cls.Decoded = append(cls.Decoded, kb.Lookup(code))
		seen[patternOf(code)] = true
	}

	for _, p := range patternPriority {
		if seen[p] {
			cls.All = append(cls.All, p)
		}
	}
	cls.Primary = cls.All[0]

	n := float64(len(cls.Active))
	cls.Confidence = 0.3 + 0.15*n
	if cls.Confidence > 0.9 {
		cls.Confidence = 0.9
	}

	cls.Risk = models.SeverityMedium
	if len(cls.Active) > 2 || seen[PatternMisfire] {
		cls.Risk = models.SeverityHigh
	}
	return cls
}
