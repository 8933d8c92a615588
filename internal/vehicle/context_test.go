package vehicle_test

import (
	"testing"
	"time"

	"github.com/AsasinXReal/auto-diagnostic-app/internal/vehicle"
	"github.com/AsasinXReal/auto-diagnostic-app/pkg/models"
)

func fixedResolver(year int) *vehicle.Resolver {
	return &vehicle.Resolver{Now: func() time.Time {
		return time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC)
	}}
}

func TestResolve_KnownModel(t *testing.T) {
	r := fixedResolver(2026)
	c := r.Resolve(models.VehicleProfile{Make: "VW", Model: "Golf", ModelYear: 2015, OdometerKM: 140000})

	if !c.HasKnownIssues() {
		t.Fatal("VW Golf should have known issues")
	}
	if c.AgeYears != 11 {
		t.Errorf("AgeYears = %d, want 11", c.AgeYears)
	}
	if c.MileageBand != vehicle.BandMedium {
		t.Errorf("MileageBand = %q, want medium", c.MileageBand)
	}
	if c.MarketClass != vehicle.ClassStandard {
		t.Errorf("MarketClass = %q, want standard", c.MarketClass)
	}
	if c.Reliability == vehicle.DefaultReliability {
		t.Error("known model should carry its own reliability score")
	}
}

func TestResolve_UnknownModelDefaults(t *testing.T) {
	c := fixedResolver(2026).Resolve(models.VehicleProfile{Make: "Zastava", Model: "Koral", ModelYear: 1989, OdometerKM: 30000})

	if c.HasKnownIssues() {
		t.Errorf("unknown model should have empty issue list, got %v", c.KnownIssues)
	}
	if c.Reliability != vehicle.DefaultReliability {
		t.Errorf("Reliability = %v, want default %v", c.Reliability, vehicle.DefaultReliability)
	}
}

func TestResolve_CaseInsensitiveLookup(t *testing.T) {
	c := fixedResolver(2026).Resolve(models.VehicleProfile{Make: "dacia", Model: "LOGAN"})
	if !c.HasKnownIssues() {
		t.Error("lookup should be case-insensitive")
	}
}

func TestResolve_MileageBands(t *testing.T) {
	r := fixedResolver(2026)
	cases := []struct {
		km   int
		want vehicle.Band
	}{
		{0, vehicle.BandLow},
		{79999, vehicle.BandLow},
		{80000, vehicle.BandMedium},
		{159999, vehicle.BandMedium},
		{160000, vehicle.BandHigh},
		{320000, vehicle.BandHigh},
	}
	for _, tc := range cases {
		c := r.Resolve(models.VehicleProfile{Make: "VW", Model: "Golf", OdometerKM: tc.km})
		if c.MileageBand != tc.want {
			t.Errorf("odometer %d: band = %q, want %q", tc.km, c.MileageBand, tc.want)
		}
	}
}

func TestResolve_MarketClass(t *testing.T) {
	r := fixedResolver(2026)
	cases := []struct {
		make string
		want vehicle.Class
	}{
		{"BMW", vehicle.ClassPremium},
		{"Mercedes", vehicle.ClassPremium},
		{"Dacia", vehicle.ClassEconomy},
		{"Skoda", vehicle.ClassEconomy},
		{"VW", vehicle.ClassStandard},
		{"", vehicle.ClassStandard},
	}
	for _, tc := range cases {
		c := r.Resolve(models.VehicleProfile{Make: tc.make})
		if c.MarketClass != tc.want {
			t.Errorf("make %q: class = %q, want %q", tc.make, c.MarketClass, tc.want)
		}
	}
}

func TestResolve_ZeroYearSafe(t *testing.T) {
	c := fixedResolver(2026).Resolve(models.VehicleProfile{})
	if c.AgeYears != 0 {
		t.Errorf("AgeYears for zero model year = %d, want 0", c.AgeYears)
	}
}

func TestLookupKnownIssues(t *testing.T) {
	rec, ok := vehicle.LookupKnownIssues("VW", "Golf")
	if !ok || len(rec.Issues) == 0 {
		t.Fatalf("LookupKnownIssues(VW, Golf) = %+v, %v", rec, ok)
	}
	if _, ok := vehicle.LookupKnownIssues("Nope", "Nothing"); ok {
		t.Error("unknown model should return ok=false")
	}
}
