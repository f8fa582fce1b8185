package classify

import (
	"testing"

	"github.com/claudiormpaes/BondTrack/pkg/models"
)

func TestCategory(t *testing.T) {
	c := New()
	cases := []struct {
		name         string
		index        string
		rate         float64
		incentivized bool
		want         string
	}{
		{"ipca incentivized", "IPCA", 6.5, true, models.CategoryIPCAIncentivized},
		{"ipca plain", "IPCA", 6.5, false, models.CategoryIPCANonIncentivized},
		{"ipca substring", "IPCA + 6%", 6.0, false, models.CategoryIPCANonIncentivized},
		{"percent cdi", "CDI", 110.0, false, models.CategoryPercentCDI},
		{"cdi plus", "CDI", 2.5, false, models.CategoryCDIPlus},
		{"cdi at threshold is plus", "CDI", 30.0, false, models.CategoryCDIPlus},
		{"cdi just above threshold", "CDI", 30.01, false, models.CategoryPercentCDI},
		{"prefixed", "PRÉ", 11.2, false, models.CategoryPrefixed},
		{"unknown index", "IGP-M", 8.0, false, models.CategoryOther},
		{"missing index", "N/D", 0, false, models.CategoryOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Category(tc.index, tc.rate, tc.incentivized); got != tc.want {
				t.Errorf("Category(%q, %v, %v) = %q, want %q", tc.index, tc.rate, tc.incentivized, got, tc.want)
			}
		})
	}
}

func TestCategoryIPCAWinsOverCDI(t *testing.T) {
	// When both tokens appear the IPCA rule fires first.
	c := New()
	if got := c.Category("IPCA/CDI", 110.0, false); got != models.CategoryIPCANonIncentivized {
		t.Errorf("got %q, want IPCA rule to win", got)
	}
}

func TestCategoryCustomThreshold(t *testing.T) {
	c := New().WithCDIHeuristic(CDIThresholdHeuristic{Threshold: 50})
	if got := c.Category("CDI", 40.0, false); got != models.CategoryCDIPlus {
		t.Errorf("got %q, want %q with raised threshold", got, models.CategoryCDIPlus)
	}
}

func TestMaturityBucket(t *testing.T) {
	cases := []struct {
		years float64
		want  string
	}{
		{0, models.BucketNoTerm},
		{-1.5, models.BucketNoTerm},
		{0.5, models.Bucket0to1y},
		{1.0, models.Bucket0to1y},
		{1.01, models.Bucket1to3y},
		{3.0, models.Bucket1to3y},
		{4.2, models.Bucket3to5y},
		{5.0, models.Bucket3to5y},
		{7.5, models.Bucket5to10y},
		{10.0, models.Bucket5to10y},
		{10.01, models.Bucket10yPlus},
		{25, models.Bucket10yPlus},
	}
	for _, tc := range cases {
		if got := MaturityBucket(tc.years); got != tc.want {
			t.Errorf("MaturityBucket(%v) = %q, want %q", tc.years, got, tc.want)
		}
	}
}
