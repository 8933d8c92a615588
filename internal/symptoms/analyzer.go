// Package symptoms extracts symptom categories from the free-text portion
// of a symptom report by keyword containment. The keyword table targets the
// Romanian phrasing the mobile app's users actually type.
package symptoms

import (
	"sort"
	"strings"

	"github.com/AsasinXReal/auto-diagnostic-app/pkg/models"
)

// Category is one detectable symptom class.
type Category string

const (
	CategoryVibration       Category = "vibration"
	CategoryFuelConsumption Category = "fuel_consumption"
	CategoryNoise           Category = "noise"
	CategoryLowPower        Category = "low_power"
	CategoryStarting        Category = "starting"
	CategorySmoke           Category = "smoke"

	// CategoryNone is the primary-symptom sentinel when nothing matched.
	CategoryNone Category = "none"
)

// keywordTable maps each category to its trigger substrings. Matching is
// case-insensitive containment; a category is detected on the first hit.
var keywordTable = map[Category][]string{
	CategoryVibration:       {"tremur", "vibra", "scutur"},
	CategoryFuelConsumption: {"consum", "bea mult", "miroase a benzina"},
	CategoryNoise:           {"zgomot", "bubuit", "tacane", "fluiera"},
	CategoryLowPower:        {"slab", "nu trage", "fara putere", "accelereaza greu"},
	CategoryStarting:        {"nu porneste", "se stinge", "porneste greu"},
	CategorySmoke:           {"fum", "fumeg"},
}

// Detection is one matched category with its match strength.
type Detection struct {
	Category   Category        `json:"category"`
	Matches    int             `json:"matches"`
	Intensity  models.Severity `json:"intensity"`
	FirstIndex int             `json:"-"`
}

// Analysis is the analyzer output. Detected is ordered by first match
// position in the text.
type Analysis struct {
	Detected   []Detection `json:"detected"`
	Count      int         `json:"count"`
	Primary    Category    `json:"primary"`
	Confidence float64     `json:"confidence"`
}

// Has reports whether the category was detected.
func (a Analysis) Has(c Category) bool {
	for _, d := range a.Detected {
		if d.Category == c {
			return true
		}
	}
	return false
}

// Analyze scans the free text for symptom keywords. Empty or whitespace
// text yields an empty analysis, not an error.
func Analyze(text string) Analysis {
	text = strings.ToLower(strings.TrimSpace(text))
	a := Analysis{Primary: CategoryNone, Confidence: 0.1}
	if text == "" {
		return a
	}

	for cat, keywords := range keywordTable {
		d := Detection{Category: cat, FirstIndex: -1}
		for _, kw := range keywords {
			idx := strings.Index(text, kw)
			if idx < 0 {
				continue
			}
			d.Matches++
			if d.FirstIndex < 0 || idx < d.FirstIndex {
				d.FirstIndex = idx
			}
		}
		if d.Matches == 0 {
			continue
		}
		d.Intensity = models.SeverityMedium
		if d.Matches > 2 {
			d.Intensity = models.SeverityHigh
		}
		a.Detected = append(a.Detected, d)
	}

	sort.SliceStable(a.Detected, func(i, j int) bool {
		if a.Detected[i].FirstIndex != a.Detected[j].FirstIndex {
			return a.Detected[i].FirstIndex < a.Detected[j].FirstIndex
		}
		return a.Detected[i].Category < a.Detected[j].Category
	})

	a.Count = len(a.Detected)
	if a.Count > 0 {
		a.Primary = a.Detected[0].Category
		a.Confidence = 0.3 + 0.2*float64(a.Count)
		if a.Confidence > 0.9 {
			a.Confidence = 0.9
		}
	}
	return a
}

// Categories returns the detected categories in match order.
func (a Analysis) Categories() []Category {
	out := make([]Category, 0, len(a.Detected))
	for _, d := range a.Detected {
		out = append(out, d.Category)
	}
	return out
}
