// Package dates normalizes the date formats used by the upstream sources.
//
// SND exports carry day/month/year dates while the ANBIMA curve store uses
// ISO year-month-day; every comparison across sources must go through
// Normalize rather than raw string equality.
package dates

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// BR is the Brazilian day/month/year layout used by SND and the dashboard.
const BR = "02/01/2006"

// ISO is the year-month-day layout used by the ANBIMA curve tables.
const ISO = "2006-01-02"

// layouts is the ordered list of accepted textual formats. Order matters:
// the BR layout is tried first because "03/04/2025" is valid in both and the
// upstream sources are Brazilian.
var layouts = []string{BR, ISO}

// Normalize parses s against the accepted layouts, in order.
// It returns an error only when s matches none of them.
func Normalize(s string) (civil.Date, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), nil
		}
	}
	return civil.Date{}, fmt.Errorf("dates: %q matches no accepted format (dd/mm/yyyy or yyyy-mm-dd)", s)
}

// FormatBR renders d in the day/month/year layout.
func FormatBR(d civil.Date) string {
	return d.In(time.UTC).Format(BR)
}

// FormatISO renders d in the year-month-day layout.
func FormatISO(d civil.Date) string {
	return d.String()
}

// IsBusinessDay reports whether d falls Monday through Friday.
// Exchange holidays are not modeled; the ETL retries earlier days instead.
func IsBusinessDay(d civil.Date) bool {
	wd := d.In(time.UTC).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// PreviousBusinessDay returns the closest business day strictly before d.
func PreviousBusinessDay(d civil.Date) civil.Date {
	for {
		d = d.AddDays(-1)
		if IsBusinessDay(d) {
			return d
		}
	}
}

// LastBusinessDays returns the n most recent business days strictly before
// today, newest first. Used by the ETL to pick download targets.
func LastBusinessDays(today civil.Date, n int) []civil.Date {
	out := make([]civil.Date, 0, n)
	d := today
	for len(out) < n {
		d = PreviousBusinessDay(d)
		out = append(out, d)
	}
	return out
}
