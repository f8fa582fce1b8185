// Package curve reads the ANBIMA benchmark yield curve and interpolates it
// to arbitrary day counts. Lookups are pure reads and never return errors to
// callers: any failure (missing date, empty curve, unknown column) yields a
// not-ok result, which the spread calculator treats as "no benchmark".
package curve

import (
	"context"
	"sort"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/claudiormpaes/BondTrack/internal/store"
	"github.com/claudiormpaes/BondTrack/pkg/models"
)

// Column selects which yield series of the curve to read.
type Column string

const (
	ColumnIPCA             Column = "rate_ipca"
	ColumnPre              Column = "rate_pre"
	ColumnImpliedInflation Column = "implied_inflation"
)

// Accessor serves interpolated benchmark rates from a curve store.
type Accessor struct {
	store  store.CurveStore
	logger *zap.Logger
}

// NewAccessor creates an accessor over cs.
func NewAccessor(cs store.CurveStore, logger *zap.Logger) *Accessor {
	return &Accessor{store: cs, logger: logger}
}

// Points returns the stored curve for date. A zero date selects the latest
// available curve. Failures degrade to an empty slice.
func (a *Accessor) Points(ctx context.Context, date civil.Date) []models.CurvePoint {
	if !date.IsValid() {
		latest, ok, err := a.store.LatestCurveDate(ctx)
		if err != nil || !ok {
			if err != nil {
				a.logger.Warn("latest curve date lookup failed", zap.Error(err))
			}
			return nil
		}
		date = latest
	}
	pts, err := a.store.CurvePoints(ctx, date)
	if err != nil {
		a.logger.Warn("curve load failed", zap.String("date", date.String()), zap.Error(err))
		return nil
	}
	return pts
}

// Rate returns the curve value for the requested day count, interpolating
// linearly between stored vertices and clamping outside the observed range.
// ok is false when no curve data exists for the date or the column is unknown.
func (a *Accessor) Rate(ctx context.Context, date civil.Date, dayCount int, col Column) (float64, bool) {
	return Interpolate(a.Points(ctx, date), dayCount, col)
}

// Interpolate computes the curve value at dayCount over the given points.
// Points need not be sorted. Out-of-range day counts clamp to the nearest
// boundary vertex; there is no extrapolation.
func Interpolate(points []models.CurvePoint, dayCount int, col Column) (float64, bool) {
	if len(points) == 0 {
		return 0, false
	}
	value := columnValue(col)
	if value == nil {
		return 0, false
	}

	pts := make([]models.CurvePoint, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool { return pts[i].DayCount < pts[j].DayCount })

	if dayCount <= pts[0].DayCount {
		return value(pts[0]), true
	}
	if last := pts[len(pts)-1]; dayCount >= last.DayCount {
		return value(last), true
	}

	// First vertex with DayCount >= dayCount; the bracket is [i-1, i].
	i := sort.Search(len(pts), func(i int) bool { return pts[i].DayCount >= dayCount })
	lo, hi := pts[i-1], pts[i]
	if hi.DayCount == lo.DayCount {
		return value(lo), true
	}
	frac := float64(dayCount-lo.DayCount) / float64(hi.DayCount-lo.DayCount)
	return value(lo) + frac*(value(hi)-value(lo)), true
}

func columnValue(col Column) func(models.CurvePoint) float64 {
	switch col {
	case ColumnIPCA:
		return func(p models.CurvePoint) float64 { return p.RateIPCA }
	case ColumnPre:
		return func(p models.CurvePoint) float64 { return p.RatePre }
	case ColumnImpliedInflation:
		return func(p models.CurvePoint) float64 { return p.ImpliedInflation }
	default:
		return nil
	}
}
