// Package spread computes credit spreads over the ANBIMA benchmark curve.
// A spread only exists for fixed-rate and inflation-linked paper: the
// indexer picks the curve series, the asset's duration picks the vertex,
// and the spread is the rate difference in basis points.
package spread

import (
	"context"
	"math"
	"strings"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/claudiormpaes/BondTrack/internal/curve"
	"github.com/claudiormpaes/BondTrack/pkg/models"
)

// Calculator derives spreads for asset records against a curve accessor.
type Calculator struct {
	curves *curve.Accessor
	logger *zap.Logger
}

// NewCalculator creates a Calculator over acc.
func NewCalculator(acc *curve.Accessor, logger *zap.Logger) *Calculator {
	return &Calculator{curves: acc, logger: logger}
}

// curveColumn maps an indexer to the curve series its spread is measured
// against. Floating-rate (CDI) paper has no curve counterpart and yields "".
func curveColumn(indexType string) curve.Column {
	idx := strings.ToUpper(indexType)
	switch {
	case strings.Contains(idx, "IPCA"):
		return curve.ColumnIPCA
	case strings.Contains(idx, "PRÉ"):
		return curve.ColumnPre
	default:
		return ""
	}
}

// Apply fills SpreadBps and BenchmarkRate on each asset in place using the
// curve for date. Records without a positive rate and duration, or indexed
// to something the curve does not quote, keep nil spreads.
func (c *Calculator) Apply(ctx context.Context, assets []models.Asset, date civil.Date) {
	points := c.curves.Points(ctx, date)
	if len(points) == 0 {
		c.logger.Warn("no benchmark curve available, spreads skipped",
			zap.String("date", date.String()))
		return
	}
	filled := 0
	for i := range assets {
		a := &assets[i]
		a.SpreadBps = nil
		a.BenchmarkRate = nil
		if a.Rate <= 0 || a.DurationYears <= 0 {
			continue
		}
		col := curveColumn(a.IndexType)
		if col == "" {
			continue
		}
		dayCount := int(math.Round(a.DurationYears * models.BusinessDaysPerYear))
		bench, ok := curve.Interpolate(points, dayCount, col)
		if !ok {
			continue
		}
		bps := (a.Rate - bench) * 100
		a.SpreadBps = &bps
		a.BenchmarkRate = &bench
		filled++
	}
	c.logger.Debug("spreads computed",
		zap.Int("assets", len(assets)), zap.Int("with_spread", filled))
}
