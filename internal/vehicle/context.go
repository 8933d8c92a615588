// Package vehicle resolves static make/model knowledge into the read-only
// context record the rule engine and cost estimator consume: known issue
// lists, a reliability score, and derived facts (age, mileage band,
// market class).
package vehicle

import (
	"strings"
	"time"

	"github.com/AsasinXReal/auto-diagnostic-app/pkg/models"
)

// Band is the mileage band derived from the odometer reading.
type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

// Class is the market class derived from the brand.
type Class string

const (
	ClassPremium  Class = "premium"
	ClassStandard Class = "standard"
	ClassEconomy  Class = "economy"
)

// Odometer thresholds for the mileage bands, in kilometers.
const (
	mediumBandKM = 80_000
	highBandKM   = 160_000
)

// DefaultReliability is assumed for makes/models absent from the table.
const DefaultReliability = 0.5

// KnownIssueRecord is one model's entry in the static issue table.
type KnownIssueRecord struct {
	Make        string   `json:"make"`
	Model       string   `json:"model"`
	Issues      []string `json:"issues"`
	Reliability float64  `json:"reliability"`
}

// knownIssues is the static make→model issue table. Keys are lower-cased
// "make model".
var knownIssues = map[string]KnownIssueRecord{
	"vw golf": {
		Make: "VW", Model: "Golf",
		Issues: []string{
			"timing chain tensioner wear",
			"high-pressure fuel injector fouling",
			"ignition coil failure",
			"water pump leak",
		},
		Reliability: 0.62,
	},
	"vw passat": {
		Make: "VW", Model: "Passat",
		Issues: []string{
			"dual-mass flywheel wear",
			"EGR valve clogging",
			"turbocharger actuator failure",
		},
		Reliability: 0.6,
	},
	"dacia logan": {
		Make: "Dacia", Model: "Logan",
		Issues: []string{
			"front suspension bushing wear",
			"ignition coil failure",
			"exhaust flex pipe cracking",
		},
		Reliability: 0.66,
	},
	"dacia duster": {
		Make: "Dacia", Model: "Duster",
		Issues: []string{
			"rear axle bearing noise",
			"clutch release bearing wear",
		},
		Reliability: 0.64,
	},
	"bmw 320d": {
		Make: "BMW", Model: "320d",
		Issues: []string{
			"timing chain stretch",
			"swirl flap failure",
			"EGR cooler leak",
		},
		Reliability: 0.55,
	},
	"opel astra": {
		Make: "Opel", Model: "Astra",
		Issues: []string{
			"crankshaft position sensor failure",
			"coolant bypass valve leak",
		},
		Reliability: 0.58,
	},
	"ford focus": {
		Make: "Ford", Model: "Focus",
		Issues: []string{
			"ignition coil failure",
			"powershift clutch shudder",
		},
		Reliability: 0.6,
	},
	"toyota corolla": {
		Make: "Toyota", Model: "Corolla",
		Issues: []string{
			"excessive oil consumption on early 1.8",
		},
		Reliability: 0.85,
	},
	"audi a4": {
		Make: "Audi", Model: "A4",
		Issues: []string{
			"oil consumption on 2.0 TFSI",
			"multitronic gearbox judder",
			"fuel injector fouling",
		},
		Reliability: 0.57,
	},
	"renault megane": {
		Make: "Renault", Model: "Megane",
		Issues: []string{
			"electric window regulator failure",
			"turbocharger oil feed blockage",
		},
		Reliability: 0.56,
	},
}

var premiumBrands = map[string]bool{
	"bmw": true, "mercedes": true, "mercedes-benz": true, "audi": true,
	"porsche": true, "lexus": true, "tesla": true, "jaguar": true,
	"land rover": true, "volvo": true,
}

var economyBrands = map[string]bool{
	"dacia": true, "skoda": true, "renault": true, "fiat": true,
	"lada": true, "suzuki": true, "seat": true,
}

// Context is the resolved, read-only vehicle context.
type Context struct {
	Make        string   `json:"make"`
	Model       string   `json:"model"`
	KnownIssues []string `json:"known_issues,omitempty"`
	Reliability float64  `json:"reliability"`
	AgeYears    int      `json:"age_years"`
	MileageBand Band     `json:"mileage_band"`
	MarketClass Class    `json:"market_class"`
}

// HasKnownIssues reports whether the model has a populated issue list.
func (c Context) HasKnownIssues() bool { return len(c.KnownIssues) > 0 }

// Resolver computes vehicle contexts. The clock is injectable so age
// derivation is reproducible in tests.
type Resolver struct {
	Now func() time.Time
}

// NewResolver returns a resolver on the wall clock.
func NewResolver() *Resolver { return &Resolver{Now: time.Now} }

// Resolve derives the context for a profile. Unknown makes/models resolve
// to an empty issue list and the default reliability, never an error.
func (r *Resolver) Resolve(p models.VehicleProfile) Context {
	c := Context{
		Make:        p.Make,
		Model:       p.Model,
		Reliability: DefaultReliability,
		MarketClass: ClassStandard,
	}

	key := strings.ToLower(strings.TrimSpace(p.Make) + " " + strings.TrimSpace(p.Model))
	if rec, ok := knownIssues[key]; ok {
		c.KnownIssues = rec.Issues
		c.Reliability = rec.Reliability
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	if p.ModelYear > 0 {
		if age := now().Year() - p.ModelYear; age > 0 {
			c.AgeYears = age
		}
	}

	switch {
	case p.OdometerKM >= highBandKM:
		c.MileageBand = BandHigh
	case p.OdometerKM >= mediumBandKM:
		c.MileageBand = BandMedium
	default:
		c.MileageBand = BandLow
	}

	brand := strings.ToLower(strings.TrimSpace(p.Make))
	switch {
	case premiumBrands[brand]:
		c.MarketClass = ClassPremium
	case economyBrands[brand]:
		c.MarketClass = ClassEconomy
	}
	return c
}

// LookupKnownIssues returns the static issue record for a make/model, for
// the standalone lookup endpoint. The second return is false when the
// model is not in the table.
func LookupKnownIssues(mk, model string) (KnownIssueRecord, bool) {
	key := strings.ToLower(strings.TrimSpace(mk) + " " + strings.TrimSpace(model))
	rec, ok := knownIssues[key]
	return rec, ok
}
