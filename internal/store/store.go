// Package store persists and serves the BondTrack datasets: the ANBIMA
// benchmark curves and the three market source tables (SND trades, ANBIMA
// indicative quotes, SND registry snapshot).
//
// Two implementations exist: Postgres on a pgx pool, and Memory for tests
// and offline use. Readers receive raw frames with whatever column names the
// ingestion stored; mapping them onto the canonical schema is the column
// normalizer's job, not the store's.
package store

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"

	"github.com/claudiormpaes/BondTrack/pkg/models"
	"github.com/claudiormpaes/BondTrack/pkg/table"
)

// ErrUnavailable reports that the backing store cannot be reached at all.
// It is distinct from a missing table or an empty date, which degrade to
// empty frames.
var ErrUnavailable = errors.New("store: unavailable")

// CurveStore serves benchmark yield-curve points.
type CurveStore interface {
	// CurvePoints returns the curve for date ordered by day count.
	// An unknown date yields an empty slice and no error.
	CurvePoints(ctx context.Context, date civil.Date) ([]models.CurvePoint, error)

	// LatestCurveDate returns the most recent curve date. ok is false when
	// no curve has been stored yet.
	LatestCurveDate(ctx context.Context) (date civil.Date, ok bool, err error)

	// UpsertCurvePoints writes points keyed by (reference_date, day_count),
	// replacing existing vertices.
	UpsertCurvePoints(ctx context.Context, points []models.CurvePoint) error
}

// MarketStore serves the per-source raw frames for one reference date.
type MarketStore interface {
	// Trades returns the SND trade-price frame for date. Missing data
	// yields an empty frame, not an error.
	Trades(ctx context.Context, date civil.Date) (*table.Table, error)

	// Quotes returns the ANBIMA indicative-quote frame for date.
	Quotes(ctx context.Context, date civil.Date) (*table.Table, error)

	// Registry returns the current registry snapshot (no date dimension).
	Registry(ctx context.Context) (*table.Table, error)

	// Dates returns every reference date with trade or quote data,
	// newest first.
	Dates(ctx context.Context) ([]civil.Date, error)

	// UpsertTrades replaces the trade frame for date.
	UpsertTrades(ctx context.Context, date civil.Date, t *table.Table) error

	// UpsertQuotes replaces the quote frame for date.
	UpsertQuotes(ctx context.Context, date civil.Date, t *table.Table) error

	// ReplaceRegistry replaces the registry snapshot.
	ReplaceRegistry(ctx context.Context, t *table.Table) error
}

// Store combines both contracts; the concrete implementations satisfy it.
type Store interface {
	CurveStore
	MarketStore
}
