// Package costs maps surfaced issues to currency-converted repair-cost
// estimates, adjusted for brand tier and vehicle age.
package costs

import (
	_ "embed"
	"fmt"
	"math"
	"strings"

	"github.com/AsasinXReal/auto-diagnostic-app/internal/vehicle"
	"github.com/AsasinXReal/auto-diagnostic-app/pkg/models"

	"gopkg.in/yaml.v3"
)

//go:embed data/costs.yaml
var defaultTable []byte

// Only the top issues contribute to the estimate.
const topIssues = 3

// Multipliers applied after matching.
const (
	premiumMultiplier = 1.4
	economyMultiplier = 0.85
	ageDiscount       = 0.8
	ageDiscountYears  = 10
)

type tableEntry struct {
	Component  string  `yaml:"component"`
	AmountRON  float64 `yaml:"amount_ron"`
	LaborHours float64 `yaml:"labor_hours"`
}

type tableFile struct {
	Version string             `yaml:"version"`
	Rates   map[string]float64 `yaml:"rates"`
	Generic tableEntry         `yaml:"generic"`
	Entries []tableEntry       `yaml:"entries"`
}

// Estimator holds the parsed cost table and exchange rates.
type Estimator struct {
	version string
	rates   map[string]float64
	generic tableEntry
	entries []tableEntry
}

// New parses a YAML cost table.
func New(raw []byte) (*Estimator, error) {
	var tf tableFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return nil, fmt.Errorf("parse cost table: %w", err)
	}
	if len(tf.Entries) == 0 || len(tf.Rates) == 0 {
		return nil, fmt.Errorf("cost table %q is incomplete", tf.Version)
	}
	if tf.Generic.Component == "" {
		return nil, fmt.Errorf("cost table %q has no generic entry", tf.Version)
	}
	return &Estimator{version: tf.Version, rates: tf.Rates, generic: tf.Generic, entries: tf.Entries}, nil
}

// Default loads the embedded cost table.
func Default() *Estimator {
	e, err := New(defaultTable)
	if err != nil {
		panic(err)
	}
	return e
}

// Version returns the cost-table version string.
func (e *Estimator) Version() string { return e.version }

// match finds the best table entry for a component by substring match;
// "best" is the longest matching table key. Returns false when nothing
// matches.
func (e *Estimator) match(component string) (tableEntry, bool) {
	component = strings.ToLower(strings.TrimSpace(component))
	if component == "" {
		return tableEntry{}, false
	}
	var best tableEntry
	found := false
	for _, entry := range e.entries {
		key := strings.ToLower(entry.Component)
		if !strings.Contains(component, key) && !strings.Contains(key, component) {
			continue
		}
		if !found || len(entry.Component) > len(best.Component) {
			best = entry
			found = true
		}
	}
	return best, found
}

// Estimate sums the matched entries for the top fused issues, applies the
// brand multiplier and age discount, and converts via the static rates.
// When no issue matches any entry, the single generic-diagnostic cost is
// substituted so the caller always gets a non-empty estimate.
func (e *Estimator) Estimate(issues []models.Issue, vctx vehicle.Context) models.CostEstimate {
	est := models.CostEstimate{Totals: map[string]float64{}}

	considered := issues
	if len(considered) > topIssues {
		considered = considered[:topIssues]
	}

	multiplier := 1.0
	switch vctx.MarketClass {
	case vehicle.ClassPremium:
		multiplier = premiumMultiplier
	case vehicle.ClassEconomy:
		multiplier = economyMultiplier
	}
	if vctx.AgeYears > ageDiscountYears {
		multiplier *= ageDiscount
	}

	totalRON := 0.0
	for _, is := range considered {
		entry, ok := e.match(is.Component)
		if !ok {
			continue
		}
		adjusted := entry.AmountRON * multiplier
		totalRON += adjusted
		est.LaborHours += entry.LaborHours
		est.Itemized = append(est.Itemized, models.CostLineItem{
			Component:  entry.Component,
			Amounts:    e.convert(adjusted),
			LaborHours: entry.LaborHours,
		})
	}

	if len(est.Itemized) == 0 {
		adjusted := e.generic.AmountRON * multiplier
		totalRON = adjusted
		est.LaborHours = e.generic.LaborHours
		est.Itemized = append(est.Itemized, models.CostLineItem{
			Component:  e.generic.Component,
			Amounts:    e.convert(adjusted),
			LaborHours: e.generic.LaborHours,
		})
	}

	est.Totals = e.convert(totalRON)
	return est
}

// convert applies the static exchange rates to a RON amount.
func (e *Estimator) convert(ron float64) map[string]float64 {
	out := make(map[string]float64, len(e.rates))
	for currency, rate := range e.rates {
		out[currency] = round2(ron * rate)
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
