package fin

import (
	"math"
	"testing"
)

// bullet builds a zero-coupon payoff of amount at t years.
func bullet(t, amount float64) []Cashflow {
	return []Cashflow{{TimeYears: t, Amount: amount}}
}

// coupon5y is a 5-year 10% annual coupon bond on 1000 face.
func coupon5y() []Cashflow {
	cfs := make([]Cashflow, 0, 5)
	for t := 1; t <= 5; t++ {
		amt := 100.0
		if t == 5 {
			amt += 1000
		}
		cfs = append(cfs, Cashflow{TimeYears: float64(t), Amount: amt})
	}
	return cfs
}

func almost(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestPriceFromYieldParAtCoupon(t *testing.T) {
	// A bond discounted at its own coupon rate prices at par.
	almost(t, "price", PriceFromYield(coupon5y(), 0.10), 1000, 1e-6)
}

func TestZeroCouponDuration(t *testing.T) {
	// A zero's Macaulay duration is its maturity regardless of yield.
	almost(t, "macaulay", MacaulayDuration(bullet(4, 1000), 0.08), 4, 1e-12)
	almost(t, "modified", ModifiedDuration(4, 0.08), 4/1.08, 1e-12)
}

func TestCouponDurationBelowMaturity(t *testing.T) {
	mac := MacaulayDuration(coupon5y(), 0.10)
	if mac <= 3.5 || mac >= 5 {
		t.Errorf("macaulay = %v, want between 3.5 and 5 for a coupon bond", mac)
	}
}

func TestConvexityZeroCoupon(t *testing.T) {
	// For a zero, convexity = t(t+1)/(1+y)^2.
	y := 0.06
	want := 4.0 * 5.0 / math.Pow(1.06, 2)
	almost(t, "convexity", Convexity(bullet(4, 1000), y), want, 1e-9)
}

func TestDV01(t *testing.T) {
	almost(t, "dv01", DV01(1000, 4.0), 0.4, 1e-12)
}

func TestYieldToMaturityRoundTrip(t *testing.T) {
	cfs := coupon5y()
	price := PriceFromYield(cfs, 0.085)
	y, ok := YieldToMaturity(cfs, price)
	if !ok {
		t.Fatal("no yield found")
	}
	almost(t, "ytm", y, 0.085, 1e-6)
}

func TestYieldToMaturityUnsolvable(t *testing.T) {
	if _, ok := YieldToMaturity(coupon5y(), 0); ok {
		t.Error("zero price should not solve")
	}
	if _, ok := YieldToMaturity(nil, 100); ok {
		t.Error("no cashflows should not solve")
	}
}

func TestPeriodReturn(t *testing.T) {
	almost(t, "return", PeriodReturn(1000, 1050), 5, 1e-12)
	almost(t, "zero start", PeriodReturn(0, 1050), 0, 0)
}

func TestPortfolioDuration(t *testing.T) {
	positions := []Position{
		{MarketValue: 300, DurationYears: 2},
		{MarketValue: 700, DurationYears: 6},
	}
	almost(t, "portfolio duration", PortfolioDuration(positions), 4.8, 1e-12)
	almost(t, "empty", PortfolioDuration(nil), 0, 0)
}

func TestRatingRiskLabel(t *testing.T) {
	cases := map[string]string{
		"AAA":     "Low",
		"AA+":     "Low",
		"brAA-":   "High", // national-scale prefixes are not stripped
		"A":       "Medium",
		"BBB-":    "Medium",
		"BB+":     "High",
		"D":       "High",
		"":        "Unknown",
		"AAA.br":  "Low",
		"AA(br)":  "Low",
	}
	for in, want := range cases {
		if got := RatingRiskLabel(in); got != want {
			t.Errorf("RatingRiskLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRateShockScenarios(t *testing.T) {
	scenarios := RateShockScenarios(1000, 4.0, 20.0, []int{-100, 0, 100})
	if len(scenarios) != 3 {
		t.Fatalf("got %d scenarios", len(scenarios))
	}
	// -100 bps: +4% duration effect +0.1% convexity effect.
	almost(t, "down shock pct", scenarios[0].ChangePct, 4.1, 1e-9)
	almost(t, "flat", scenarios[1].ChangePct, 0, 1e-12)
	almost(t, "up shock pct", scenarios[2].ChangePct, -3.9, 1e-9)
	almost(t, "up shock price", scenarios[2].EstimatedPrice, 961, 1e-6)
}
