// Package ingest orchestrates the ETL run: the benchmark curve, the
// indicative-rate files, the SND trade prices and the registry are pulled
// concurrently and upserted into the store. Source outages are soft
// failures (logged, the run continues); store write failures abort.
package ingest

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/claudiormpaes/BondTrack/internal/merge"
	"github.com/claudiormpaes/BondTrack/internal/providers/anbima"
	"github.com/claudiormpaes/BondTrack/internal/providers/snd"
	"github.com/claudiormpaes/BondTrack/internal/store"
	"github.com/claudiormpaes/BondTrack/pkg/dates"
)

// Summary reports what one ingest run loaded.
type Summary struct {
	CurvePoints  int
	QuoteDays    int
	TradeDays    int
	RegistryRows int
}

// Runner executes ingest runs against one store.
type Runner struct {
	store    store.Store
	anbima   *anbima.Client
	snd      *snd.Client
	engine   *merge.Engine
	lookback int
	now      func() time.Time
	logger   *zap.Logger
}

// New creates a Runner. lookback is the number of business days tried for
// the per-date sources; engine may be nil when no read cache needs
// invalidation.
func New(st store.Store, ac *anbima.Client, sc *snd.Client, eng *merge.Engine, lookback int, logger *zap.Logger) *Runner {
	if lookback <= 0 {
		lookback = 3
	}
	return &Runner{
		store:    st,
		anbima:   ac,
		snd:      sc,
		engine:   eng,
		lookback: lookback,
		now:      time.Now,
		logger:   logger.Named("ingest"),
	}
}

// Run executes one full ingest. The four source jobs run concurrently;
// the returned error is the first store failure, if any.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	days := dates.LastBusinessDays(civil.DateOf(r.now()), r.lookback)
	var sum Summary

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.runCurve(ctx, &sum) })
	g.Go(func() error { return r.runQuotes(ctx, days, &sum) })
	g.Go(func() error { return r.runTrades(ctx, days, &sum) })
	g.Go(func() error { return r.runRegistry(ctx, &sum) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, d := range days {
		r.invalidate(d)
	}
	r.logger.Info("ingest finished",
		zap.Int("curve_points", sum.CurvePoints),
		zap.Int("quote_days", sum.QuoteDays),
		zap.Int("trade_days", sum.TradeDays),
		zap.Int("registry_rows", sum.RegistryRows))
	return &sum, nil
}

func (r *Runner) invalidate(d civil.Date) {
	if r.engine != nil {
		r.engine.InvalidateDate(d)
	}
}

func (r *Runner) runCurve(ctx context.Context, sum *Summary) error {
	points, date, err := r.anbima.FetchCurve(ctx)
	if err != nil {
		r.logger.Warn("curve fetch failed", zap.Error(err))
		return nil
	}
	if err := r.store.UpsertCurvePoints(ctx, points); err != nil {
		return err
	}
	r.invalidate(date)
	sum.CurvePoints = len(points)
	return nil
}

func (r *Runner) runQuotes(ctx context.Context, days []civil.Date, sum *Summary) error {
	for _, d := range days {
		t, err := r.anbima.FetchIndicativeRates(ctx, d)
		if err != nil {
			r.logger.Warn("rates fetch failed", zap.String("date", d.String()), zap.Error(err))
			continue
		}
		if t.IsEmpty() {
			continue
		}
		if err := r.store.UpsertQuotes(ctx, d, t); err != nil {
			return err
		}
		sum.QuoteDays++
	}
	return nil
}

func (r *Runner) runTrades(ctx context.Context, days []civil.Date, sum *Summary) error {
	for _, d := range days {
		t, err := r.snd.FetchTrades(ctx, d)
		if err != nil {
			r.logger.Warn("trades fetch failed", zap.String("date", d.String()), zap.Error(err))
			continue
		}
		if t.IsEmpty() {
			continue
		}
		if err := r.store.UpsertTrades(ctx, d, t); err != nil {
			return err
		}
		sum.TradeDays++
	}
	return nil
}

func (r *Runner) runRegistry(ctx context.Context, sum *Summary) error {
	t, err := r.snd.FetchRegistry(ctx)
	if err != nil {
		r.logger.Warn("registry fetch failed", zap.Error(err))
		return nil
	}
	if t.IsEmpty() {
		return nil
	}
	if err := r.store.ReplaceRegistry(ctx, t); err != nil {
		return err
	}
	sum.RegistryRows = t.Len()
	return nil
}
