// Package quality scores a merged asset dataset. The report counts
// per-field completeness, duplicate (code, date) keys and value-level
// inconsistencies, then folds them into a single 0-100 score that the
// dashboard surfaces next to the data.
package quality

import (
	"fmt"
	"math"

	"cloud.google.com/go/civil"

	"github.com/claudiormpaes/BondTrack/internal/normalize"
	"github.com/claudiormpaes/BondTrack/pkg/models"
)

// FieldStat is the completeness tally for one field.
type FieldStat struct {
	Field        string  `json:"field"`
	Valid        int     `json:"valid"`
	Invalid      int     `json:"invalid"`
	Completeness float64 `json:"completeness_pct"`
}

// Report summarizes the quality of one day's merged dataset.
type Report struct {
	ReferenceDate     civil.Date  `json:"reference_date"`
	TotalRecords      int         `json:"total_records"`
	Fields            []FieldStat `json:"fields"`
	DuplicateCount    int         `json:"duplicate_count"`
	DuplicatePct      float64     `json:"duplicate_pct"`
	NegativeRates     int         `json:"negative_rates"`
	NegativeDurations int         `json:"negative_durations"`
	Inconsistencies   []string    `json:"inconsistencies"`
	Score             float64     `json:"score"`
}

// check is a per-field validity predicate.
type check struct {
	field string
	valid func(models.Asset) bool
}

var checks = []check{
	{"code", func(a models.Asset) bool { return a.Code != "" }},
	{"issuer", func(a models.Asset) bool {
		return a.Issuer != "" && a.Issuer != normalize.IndexUnknown
	}},
	{"index_type", func(a models.Asset) bool {
		return a.IndexType != "" && a.IndexType != normalize.IndexUnknown
	}},
	{"rate", func(a models.Asset) bool { return a.Rate > 0 }},
	{"duration", func(a models.Asset) bool { return a.DurationYears > 0 }},
	{"price", func(a models.Asset) bool { return a.Price != nil && *a.Price > 0 }},
}

// Penalty caps keep a single pathology from zeroing the score on its own.
const (
	maxDuplicatePenalty     = 20.0
	maxInconsistencyPenalty = 20.0
	inconsistencyWeight     = 5.0
)

// Evaluate builds the quality report for assets, all assumed to share one
// reference date. An empty dataset reports a zero score.
func Evaluate(assets []models.Asset) *Report {
	r := &Report{TotalRecords: len(assets)}
	if len(assets) == 0 {
		return r
	}
	r.ReferenceDate = assets[0].ReferenceDate

	for _, c := range checks {
		stat := FieldStat{Field: c.field}
		for _, a := range assets {
			if c.valid(a) {
				stat.Valid++
			} else {
				stat.Invalid++
			}
		}
		stat.Completeness = 100 * float64(stat.Valid) / float64(len(assets))
		r.Fields = append(r.Fields, stat)
	}

	// Every member of a duplicated (code, date) group counts, not just the
	// extras: two identical rows are two duplicates.
	groups := make(map[string]int, len(assets))
	for _, a := range assets {
		groups[a.Code+"|"+a.ReferenceDate.String()]++
	}
	for _, n := range groups {
		if n > 1 {
			r.DuplicateCount += n
		}
	}
	r.DuplicatePct = 100 * float64(r.DuplicateCount) / float64(len(assets))

	for _, a := range assets {
		if a.Rate < 0 {
			r.NegativeRates++
		}
		if a.DurationYears < 0 {
			r.NegativeDurations++
		}
	}

	r.Inconsistencies = findInconsistencies(assets)
	r.Score = score(r)
	return r
}

func findInconsistencies(assets []models.Asset) []string {
	var out []string
	for _, a := range assets {
		if a.Rate < 0 {
			out = append(out, fmt.Sprintf("%s: negative rate %.2f", a.Code, a.Rate))
		}
		if a.DurationYears < 0 {
			out = append(out, fmt.Sprintf("%s: negative duration %.2f years", a.Code, a.DurationYears))
		}
		if a.Price != nil && *a.Price <= 0 {
			out = append(out, fmt.Sprintf("%s: non-positive price %.2f", a.Code, *a.Price))
		}
		if a.DurationYears > 50 {
			out = append(out, fmt.Sprintf("%s: duration %.1f years looks like raw business days", a.Code, a.DurationYears))
		}
		if a.Rate > 500 {
			out = append(out, fmt.Sprintf("%s: rate %.2f is out of range", a.Code, a.Rate))
		}
		if a.SpreadBps != nil && math.Abs(*a.SpreadBps) > 2000 {
			out = append(out, fmt.Sprintf("%s: spread %.0f bps is implausible", a.Code, *a.SpreadBps))
		}
	}
	return out
}

// score folds completeness and penalties into [0, 100].
func score(r *Report) float64 {
	var mean float64
	for _, f := range r.Fields {
		mean += f.Completeness
	}
	if len(r.Fields) > 0 {
		mean /= float64(len(r.Fields))
	}
	s := mean
	s -= math.Min(r.DuplicatePct, maxDuplicatePenalty)
	s -= math.Min(inconsistencyWeight*float64(len(r.Inconsistencies)), maxInconsistencyPenalty)
	return math.Max(0, math.Min(100, s))
}
