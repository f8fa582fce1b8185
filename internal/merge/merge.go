// Package merge assembles the unified asset view for a reference date.
// Trade prints, indicative quotes and the registry arrive as separate raw
// frames; the engine normalizes each, joins them on the asset code, tags
// every record with where its data came from, then classifies the result
// and prices spreads against the benchmark curve.
package merge

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/claudiormpaes/BondTrack/internal/classify"
	"github.com/claudiormpaes/BondTrack/internal/curve"
	"github.com/claudiormpaes/BondTrack/internal/infra"
	"github.com/claudiormpaes/BondTrack/internal/normalize"
	"github.com/claudiormpaes/BondTrack/internal/spread"
	"github.com/claudiormpaes/BondTrack/internal/store"
	"github.com/claudiormpaes/BondTrack/pkg/models"
	"github.com/claudiormpaes/BondTrack/pkg/table"
)

// Engine merges the per-source frames into classified, spread-priced assets.
type Engine struct {
	store   store.Store
	norm    *normalize.Normalizer
	class   *classify.Classifier
	spreads *spread.Calculator
	cache   *infra.Cache
	logger  *zap.Logger
}

// NewEngine wires an engine over st. The cache holds fully merged asset
// slices keyed by reference date; pass the shared application cache so
// ingestion can invalidate dates it rewrites.
func NewEngine(st store.Store, cache *infra.Cache, logger *zap.Logger) *Engine {
	return &Engine{
		store:   st,
		norm:    normalize.New(logger),
		class:   classify.New(),
		spreads: spread.NewCalculator(curve.NewAccessor(st, logger), logger),
		cache:   cache,
		logger:  logger,
	}
}

func cacheKey(date civil.Date) string { return "assets:" + date.String() }

// InvalidateDate drops the cached merge result for date.
func (e *Engine) InvalidateDate(date civil.Date) {
	e.cache.Invalidate(cacheKey(date))
}

// LoadData returns the merged asset records for date. Codes present in
// either the trade or the quote frame produce one record each; the registry
// only fills fields the market sources left empty. When no market data
// exists at all, registry entries are surfaced on their own so the universe
// is still visible. All sources empty yields (nil, nil), not an error.
func (e *Engine) LoadData(ctx context.Context, date civil.Date) ([]models.Asset, error) {
	if v, ok := e.cache.Get(cacheKey(date)); ok {
		if assets, ok := v.([]models.Asset); ok {
			return cloneAssets(assets), nil
		}
	}

	trades, err := e.store.Trades(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("merge: load trades: %w", err)
	}
	quotes, err := e.store.Quotes(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("merge: load quotes: %w", err)
	}
	registry, err := e.store.Registry(ctx)
	if err != nil {
		return nil, fmt.Errorf("merge: load registry: %w", err)
	}
	if trades.IsEmpty() && quotes.IsEmpty() && registry.IsEmpty() {
		return nil, nil
	}

	trades = e.norm.Table(trades)
	quotes = e.norm.Table(quotes)
	registry = e.norm.Table(registry)

	byCode := make(map[string]*models.Asset)
	var order []string
	record := func(code string) *models.Asset {
		if a, ok := byCode[code]; ok {
			return a
		}
		a := &models.Asset{Code: code, ReferenceDate: date}
		byCode[code] = a
		order = append(order, code)
		return a
	}

	inTrades := make(map[string]bool)
	for _, row := range trades.Rows() {
		code := normalize.NormalizeCode(row.String(normalize.ColCode))
		if code == "" {
			continue
		}
		fill(record(code), row)
		inTrades[code] = true
	}
	inQuotes := make(map[string]bool)
	for _, row := range quotes.Rows() {
		code := normalize.NormalizeCode(row.String(normalize.ColCode))
		if code == "" {
			continue
		}
		fill(record(code), row)
		inQuotes[code] = true
	}

	// No market data for the date: fall back to the registry universe.
	registryOnly := len(byCode) == 0
	if registryOnly {
		for _, row := range registry.Rows() {
			code := normalize.NormalizeCode(row.String(normalize.ColCode))
			if code == "" {
				continue
			}
			fill(record(code), row)
		}
	} else {
		enrichFromRegistry(byCode, registry)
	}
	if len(byCode) == 0 {
		return nil, nil
	}

	for _, code := range order {
		a := byCode[code]
		switch {
		case registryOnly:
			a.Provenance = models.ProvenanceRegistryOnly
		case inTrades[code] && inQuotes[code]:
			a.Provenance = models.ProvenanceTradeQuote
		case inTrades[code]:
			a.Provenance = models.ProvenanceTradeOnly
		default:
			a.Provenance = models.ProvenanceQuoteOnly
		}
	}

	sort.Strings(order)
	assets := make([]models.Asset, 0, len(order))
	for _, code := range order {
		a := byCode[code]
		a.Category = e.class.Category(a.IndexType, a.Rate, a.Incentivized)
		a.MaturityBucket = classify.MaturityBucket(a.DurationYears)
		assets = append(assets, *a)
	}
	e.spreads.Apply(ctx, assets, date)

	e.logger.Info("assets merged",
		zap.String("date", date.String()),
		zap.Int("trades", len(inTrades)),
		zap.Int("quotes", len(inQuotes)),
		zap.Int("assets", len(assets)))
	e.cache.Set(cacheKey(date), assets)
	return cloneAssets(assets), nil
}

// cloneAssets hands each caller its own slice; callers sort and filter the
// result, and the cached backing array must not see that.
func cloneAssets(assets []models.Asset) []models.Asset {
	out := make([]models.Asset, len(assets))
	copy(out, assets)
	return out
}

// fill copies row values into a, never replacing a field the record already
// holds. Source order therefore establishes precedence.
func fill(a *models.Asset, row table.Row) {
	if a.Issuer == "" || a.Issuer == normalize.IndexUnknown {
		if s := row.String(normalize.ColIssuer); s != "" {
			a.Issuer = s
		}
	}
	if a.IndexType == "" || a.IndexType == normalize.IndexUnknown {
		if s := row.String(normalize.ColIndex); s != "" {
			a.IndexType = s
		}
	}
	if a.Rate == 0 {
		if v, ok := row.Float(normalize.ColRate); ok {
			a.Rate = v
		}
	}
	if a.DurationYears == 0 {
		if v, ok := row.Float(normalize.ColDuration); ok {
			a.DurationYears = v
		}
	}
	if a.Price == nil {
		if v, ok := row.Float(normalize.ColPrice); ok {
			p := v
			a.Price = &p
		}
	}
	if a.Volume == 0 {
		if v, ok := row.Float(normalize.ColVolume); ok {
			a.Volume = v
		}
	}
	if a.TradeCount == 0 {
		if v, ok := row.Float(normalize.ColTradeCount); ok {
			a.TradeCount = int(v)
		}
	}
	if !a.Incentivized {
		a.Incentivized = normalize.Truthy(row.String(normalize.ColIncentive))
	}
}

// enrichFromRegistry left-joins registry attributes onto the merged records.
// Only empty fields are filled; market sources always win.
func enrichFromRegistry(byCode map[string]*models.Asset, registry *table.Table) {
	if registry.IsEmpty() {
		return
	}
	idx := make(map[string]table.Row, registry.Len())
	for _, row := range registry.Rows() {
		code := normalize.NormalizeCode(row.String(normalize.ColCode))
		if code != "" {
			idx[code] = row
		}
	}
	for code, a := range byCode {
		if row, ok := idx[code]; ok {
			fill(a, row)
		}
	}
}
