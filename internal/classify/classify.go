// Package classify assigns each normalized asset record to a risk/product
// category and a maturity bucket. The rules are pure functions of the
// indexer, the rate and the tax-incentive flag; they are applied top-down
// and the first match wins.
package classify

import (
	"strings"

	"github.com/claudiormpaes/BondTrack/pkg/models"
)

// CDIThresholdHeuristic separates "% of CDI" quotes from "CDI plus spread"
// quotes by the size of the rate figure: percentages of CDI are quoted above
// 100 (e.g. 110%), CDI-plus spreads are a few percentage points. The
// inherited cutoff is 30; a genuine CDI+ spread above 30 p.p. would be
// misclassified, which no better signal in the data currently prevents.
type CDIThresholdHeuristic struct {
	Threshold float64
}

// DefaultCDIThreshold is the market-convention cutoff the dataset has
// always been classified with.
const DefaultCDIThreshold = 30.0

// Classifier derives category and maturity labels for asset records.
type Classifier struct {
	cdi CDIThresholdHeuristic
}

// New creates a Classifier with the default CDI threshold.
func New() *Classifier {
	return &Classifier{cdi: CDIThresholdHeuristic{Threshold: DefaultCDIThreshold}}
}

// WithCDIHeuristic replaces the %CDI-vs-CDI+ cutoff.
func (c *Classifier) WithCDIHeuristic(h CDIThresholdHeuristic) *Classifier {
	c.cdi = h
	return c
}

// Category returns the risk/product category for an indexer, rate and
// incentive flag. Rules apply top-down, first match wins.
func (c *Classifier) Category(indexType string, rate float64, incentivized bool) string {
	idx := strings.ToUpper(indexType)
	switch {
	case strings.Contains(idx, "IPCA"):
		if incentivized {
			return models.CategoryIPCAIncentivized
		}
		return models.CategoryIPCANonIncentivized
	case strings.Contains(idx, "CDI"):
		if rate > c.cdi.Threshold {
			return models.CategoryPercentCDI
		}
		return models.CategoryCDIPlus
	case strings.Contains(idx, "PRÉ"):
		return models.CategoryPrefixed
	default:
		return models.CategoryOther
	}
}

// MaturityBucket labels a duration in years. Non-positive durations mean
// the record carries no usable term.
func MaturityBucket(durationYears float64) string {
	switch {
	case durationYears <= 0:
		return models.BucketNoTerm
	case durationYears <= 1:
		return models.Bucket0to1y
	case durationYears <= 3:
		return models.Bucket1to3y
	case durationYears <= 5:
		return models.Bucket3to5y
	case durationYears <= 10:
		return models.Bucket5to10y
	default:
		return models.Bucket10yPlus
	}
}
