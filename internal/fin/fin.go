// Package fin implements fixed-income analytics for debenture cashflows:
// duration, convexity, DV01, yield solving and rate-shock scenarios.
// Rates are annual effective and times are in years throughout.
package fin

import (
	"math"
	"strings"
)

// Cashflow is one payment at a future time.
type Cashflow struct {
	TimeYears float64
	Amount    float64
}

// PriceFromYield discounts the cashflows at an annual effective yield.
func PriceFromYield(cashflows []Cashflow, yield float64) float64 {
	var pv float64
	for _, cf := range cashflows {
		pv += cf.Amount / math.Pow(1+yield, cf.TimeYears)
	}
	return pv
}

// MacaulayDuration returns the present-value weighted mean time of the
// cashflows, in years. Zero when the cashflows have no value.
func MacaulayDuration(cashflows []Cashflow, yield float64) float64 {
	var pv, weighted float64
	for _, cf := range cashflows {
		d := cf.Amount / math.Pow(1+yield, cf.TimeYears)
		pv += d
		weighted += cf.TimeYears * d
	}
	if pv == 0 {
		return 0
	}
	return weighted / pv
}

// ModifiedDuration converts a Macaulay duration to price sensitivity under
// annual compounding.
func ModifiedDuration(macaulay, yield float64) float64 {
	return macaulay / (1 + yield)
}

// Convexity returns the second-order price sensitivity of the cashflows.
func Convexity(cashflows []Cashflow, yield float64) float64 {
	var pv, weighted float64
	for _, cf := range cashflows {
		d := cf.Amount / math.Pow(1+yield, cf.TimeYears)
		pv += d
		weighted += cf.TimeYears * (cf.TimeYears + 1) * d
	}
	if pv == 0 {
		return 0
	}
	return weighted / (pv * math.Pow(1+yield, 2))
}

// DV01 returns the price change for a one basis point yield move.
func DV01(price, modifiedDuration float64) float64 {
	return price * modifiedDuration * 0.0001
}

// YieldToMaturity solves for the annual effective yield that prices the
// cashflows at price, by bisection. ok is false when no yield in
// (-99%, 1000%) brackets the price.
func YieldToMaturity(cashflows []Cashflow, price float64) (float64, bool) {
	if price <= 0 || len(cashflows) == 0 {
		return 0, false
	}
	lo, hi := -0.99, 10.0
	f := func(y float64) float64 { return PriceFromYield(cashflows, y) - price }
	flo, fhi := f(lo), f(hi)
	if flo*fhi > 0 {
		return 0, false
	}
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		fm := f(mid)
		if math.Abs(fm) < 1e-10 {
			return mid, true
		}
		if flo*fm < 0 {
			hi = mid
		} else {
			lo, flo = mid, fm
		}
	}
	return (lo + hi) / 2, true
}

// PeriodReturn is the simple percentage return between two prices.
func PeriodReturn(startPrice, endPrice float64) float64 {
	if startPrice == 0 {
		return 0
	}
	return (endPrice/startPrice - 1) * 100
}

// Position is a holding used for portfolio aggregates.
type Position struct {
	MarketValue   float64
	DurationYears float64
}

// PortfolioDuration returns the market-value weighted duration of positions.
func PortfolioDuration(positions []Position) float64 {
	var total, weighted float64
	for _, p := range positions {
		total += p.MarketValue
		weighted += p.MarketValue * p.DurationYears
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// RatingRiskLabel maps a Brazilian national-scale rating to a coarse
// credit risk band.
func RatingRiskLabel(rating string) string {
	r := strings.ToUpper(strings.TrimSpace(rating))
	r = strings.TrimSuffix(r, ".BR")
	r = strings.TrimSuffix(r, "(BR)")
	switch {
	case r == "":
		return "Unknown"
	case strings.HasPrefix(r, "AAA"), strings.HasPrefix(r, "AA"):
		return "Low"
	case strings.HasPrefix(r, "A"), strings.HasPrefix(r, "BBB"):
		return "Medium"
	default:
		return "High"
	}
}

// Scenario is the estimated price impact of one parallel yield shock.
type Scenario struct {
	ShockBps       int     `json:"shock_bps"`
	EstimatedPrice float64 `json:"estimated_price"`
	ChangePct      float64 `json:"change_pct"`
}

// RateShockScenarios estimates prices under parallel shocks using the
// second-order duration and convexity approximation.
func RateShockScenarios(price, modifiedDuration, convexity float64, shocksBps []int) []Scenario {
	out := make([]Scenario, 0, len(shocksBps))
	for _, bps := range shocksBps {
		dy := float64(bps) / 10000
		changePct := (-modifiedDuration*dy + 0.5*convexity*dy*dy) * 100
		out = append(out, Scenario{
			ShockBps:       bps,
			EstimatedPrice: price * (1 + changePct/100),
			ChangePct:      changePct,
		})
	}
	return out
}
