package curve

import (
	"context"
	"math"
	"testing"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/claudiormpaes/BondTrack/internal/store"
	"github.com/claudiormpaes/BondTrack/pkg/models"
)

var testDate = civil.Date{Year: 2025, Month: 8, Day: 5}

// makeCurve builds the two-vertex curve from the boundary spec example:
// day 30 at 5%, day 360 at 7%.
func makeCurve() []models.CurvePoint {
	return []models.CurvePoint{
		{ReferenceDate: testDate, DayCount: 360, RateIPCA: 7.0, RatePre: 13.0},
		{ReferenceDate: testDate, DayCount: 30, RateIPCA: 5.0, RatePre: 11.0},
	}
}

func TestInterpolateClampsBelowRange(t *testing.T) {
	got, ok := Interpolate(makeCurve(), 15, ColumnIPCA)
	if !ok {
		t.Fatal("expected ok")
	}
	if got != 5.0 {
		t.Errorf("expected clamp to 5.0, got %v", got)
	}
}

func TestInterpolateClampsAboveRange(t *testing.T) {
	got, ok := Interpolate(makeCurve(), 400, ColumnIPCA)
	if !ok {
		t.Fatal("expected ok")
	}
	if got != 7.0 {
		t.Errorf("expected clamp to 7.0, got %v", got)
	}
}

func TestInterpolateLinearMidpoint(t *testing.T) {
	// Day 195 is exactly halfway between 30 and 360: expect 6%.
	got, ok := Interpolate(makeCurve(), 195, ColumnIPCA)
	if !ok {
		t.Fatal("expected ok")
	}
	if math.Abs(got-6.0) > 1e-9 {
		t.Errorf("expected 6.0, got %v", got)
	}
}

func TestInterpolateExactVertex(t *testing.T) {
	got, ok := Interpolate(makeCurve(), 30, ColumnPre)
	if !ok || got != 11.0 {
		t.Errorf("expected 11.0 at stored vertex, got %v (ok=%v)", got, ok)
	}
}

func TestInterpolateEmptyCurve(t *testing.T) {
	if _, ok := Interpolate(nil, 100, ColumnIPCA); ok {
		t.Error("empty curve must not produce a rate")
	}
}

func TestInterpolateUnknownColumn(t *testing.T) {
	if _, ok := Interpolate(makeCurve(), 100, Column("bogus")); ok {
		t.Error("unknown column must not produce a rate")
	}
}

func TestAccessorRate(t *testing.T) {
	m := store.NewMemory()
	m.UpsertCurvePoints(context.Background(), makeCurve())
	a := NewAccessor(m, zap.NewNop())

	got, ok := a.Rate(context.Background(), testDate, 195, ColumnIPCA)
	if !ok || math.Abs(got-6.0) > 1e-9 {
		t.Errorf("expected 6.0, got %v (ok=%v)", got, ok)
	}
}

func TestAccessorDefaultsToLatestDate(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	older := civil.Date{Year: 2025, Month: 8, Day: 1}
	m.UpsertCurvePoints(ctx, []models.CurvePoint{{ReferenceDate: older, DayCount: 30, RateIPCA: 4.0}})
	m.UpsertCurvePoints(ctx, makeCurve())

	a := NewAccessor(m, zap.NewNop())
	got, ok := a.Rate(ctx, civil.Date{}, 30, ColumnIPCA)
	if !ok || got != 5.0 {
		t.Errorf("zero date should pick latest curve (5.0), got %v (ok=%v)", got, ok)
	}
}

func TestAccessorMissingDate(t *testing.T) {
	a := NewAccessor(store.NewMemory(), zap.NewNop())
	if _, ok := a.Rate(context.Background(), testDate, 30, ColumnIPCA); ok {
		t.Error("missing curve date must not produce a rate")
	}
}
