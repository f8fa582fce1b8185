package anbima

import "sort"

// pchip is a monotone piecewise cubic Hermite interpolant using the
// Fritsch-Carlson tangent rule. Inputs must be strictly increasing in x;
// evaluation outside the knots clamps to the boundary values.
type pchip struct {
	xs, ys, ms []float64
}

func newPCHIP(xs, ys []float64) *pchip {
	n := len(xs)
	ms := make([]float64, n)
	if n < 2 {
		return &pchip{xs: xs, ys: ys, ms: ms}
	}

	h := make([]float64, n-1)
	delta := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		h[i] = xs[i+1] - xs[i]
		delta[i] = (ys[i+1] - ys[i]) / h[i]
	}

	ms[0] = delta[0]
	ms[n-1] = delta[n-2]
	for i := 1; i < n-1; i++ {
		if delta[i-1]*delta[i] <= 0 {
			ms[i] = 0
			continue
		}
		// Weighted harmonic mean of adjacent secants keeps the cubic
		// from overshooting (Fritsch-Carlson 1980).
		w1 := 2*h[i] + h[i-1]
		w2 := h[i] + 2*h[i-1]
		ms[i] = (w1 + w2) / (w1/delta[i-1] + w2/delta[i])
	}
	return &pchip{xs: xs, ys: ys, ms: ms}
}

func (p *pchip) at(x float64) float64 {
	n := len(p.xs)
	if n == 0 {
		return 0
	}
	if x <= p.xs[0] {
		return p.ys[0]
	}
	if x >= p.xs[n-1] {
		return p.ys[n-1]
	}
	i := sort.SearchFloat64s(p.xs, x)
	if p.xs[i] == x {
		return p.ys[i]
	}
	i-- // bracket is [i, i+1]

	h := p.xs[i+1] - p.xs[i]
	t := (x - p.xs[i]) / h
	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	return h00*p.ys[i] + h10*h*p.ms[i] + h01*p.ys[i+1] + h11*h*p.ms[i+1]
}
