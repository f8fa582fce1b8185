// Package models defines the data structures shared across BondTrack:
// the canonical per-asset record produced by the merge engine, benchmark
// curve points, and the data-quality report consumed by the dashboard.
package models

import "cloud.google.com/go/civil"

// BusinessDaysPerYear is the B3 trading-day convention used to convert
// durations between business days and years, and to map duration years onto
// curve day counts. If source durations turn out to be calendar days this is
// the single place to correct.
const BusinessDaysPerYear = 252.0

// Category labels assigned by the record classifier.
const (
	CategoryIPCAIncentivized    = "IPCA Incentivized"
	CategoryIPCANonIncentivized = "IPCA Non-Incentivized"
	CategoryPercentCDI          = "%CDI"
	CategoryCDIPlus             = "CDI+"
	CategoryPrefixed            = "Prefixed"
	CategoryOther               = "Other"
)

// Maturity buckets derived from duration in years.
const (
	BucketNoTerm  = "No Term"
	Bucket0to1y   = "0-1y"
	Bucket1to3y   = "1-3y"
	Bucket3to5y   = "3-5y"
	Bucket5to10y  = "5-10y"
	Bucket10yPlus = "10y+"
)

// Provenance tags recording which source tables contributed to a record.
const (
	ProvenanceTradeQuote   = "Trade+Quote"
	ProvenanceTradeOnly    = "Trade-only"
	ProvenanceQuoteOnly    = "Quote-only"
	ProvenanceRegistryOnly = "Registry-only"
)

// Asset is the canonical per-asset record for one reference date.
// Rate is percent per annum; a value <= 0 means "unknown", not a zero rate.
// Price, SpreadBps and BenchmarkRate are nil when absent or not computable.
type Asset struct {
	Code           string     `json:"code"`
	Issuer         string     `json:"issuer"`
	IndexType      string     `json:"index_type"`
	Rate           float64    `json:"rate"`
	DurationYears  float64    `json:"duration_years"`
	Price          *float64   `json:"price,omitempty"`
	Volume         float64    `json:"volume,omitempty"`
	TradeCount     int        `json:"trade_count,omitempty"`
	Incentivized   bool       `json:"incentivized"`
	Category       string     `json:"category"`
	MaturityBucket string     `json:"maturity_bucket"`
	Provenance     string     `json:"source_provenance"`
	ReferenceDate  civil.Date `json:"reference_date"`
	SpreadBps      *float64   `json:"spread_bps,omitempty"`
	BenchmarkRate  *float64   `json:"benchmark_rate,omitempty"`
}

// CurvePoint is one vertex of a benchmark yield curve for a reference date.
// Rates are percent per annum.
type CurvePoint struct {
	ReferenceDate    civil.Date `json:"reference_date"`
	DayCount         int        `json:"day_count"`
	RateIPCA         float64    `json:"rate_ipca"`
	RatePre          float64    `json:"rate_pre"`
	ImpliedInflation float64    `json:"implied_inflation"`
}

// NewsItem is a market headline for the dashboard sidebar.
type NewsItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at,omitempty"`
}
