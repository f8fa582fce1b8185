package normalize

// DurationUnitHeuristic decides whether a duration column is expressed in
// business days rather than years. The decision is dataset-level, from the
// column as a whole, never per row: mixed-unit columns do not occur upstream,
// but individual long-dated assets would fool a per-row rule.
//
// This is a best-effort guess. It lives behind an interface so a
// better-informed detector can replace it without touching the merge logic.
type DurationUnitHeuristic interface {
	// BusinessDays reports whether values look like business-day counts.
	BusinessDays(values []float64) bool
}

// MeanThresholdHeuristic flags a column as business days when its mean is
// strictly greater than Threshold. Durations in years sit in low single
// digits; in business days they run to the hundreds, so the default of 50
// separates the two cleanly. A mean of exactly 50 is treated as years.
type MeanThresholdHeuristic struct {
	Threshold float64
}

// DefaultDurationHeuristic is the mean-over-50 rule the dataset has always
// been cleaned with.
var DefaultDurationHeuristic DurationUnitHeuristic = MeanThresholdHeuristic{Threshold: 50}

func (h MeanThresholdHeuristic) BusinessDays(values []float64) bool {
	if len(values) == 0 {
		return false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum/float64(len(values)) > h.Threshold
}
