package dates

import (
	"testing"

	"cloud.google.com/go/civil"
)

func TestNormalizeBR(t *testing.T) {
	d, err := Normalize("05/08/2025")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	want := civil.Date{Year: 2025, Month: 8, Day: 5}
	if d != want {
		t.Errorf("expected %v, got %v", want, d)
	}
}

func TestNormalizeISO(t *testing.T) {
	d, err := Normalize("2025-08-05")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	want := civil.Date{Year: 2025, Month: 8, Day: 5}
	if d != want {
		t.Errorf("expected %v, got %v", want, d)
	}
}

func TestNormalizeBRTakesPrecedence(t *testing.T) {
	// "03/04/2025" is ambiguous; the BR layout wins: April 3rd.
	d, err := Normalize("03/04/2025")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if d.Month != 4 || d.Day != 3 {
		t.Errorf("expected day-first parse (3 April), got %v", d)
	}
}

func TestNormalizeInvalid(t *testing.T) {
	if _, err := Normalize("not-a-date"); err == nil {
		t.Error("expected error for unparseable input")
	}
	if _, err := Normalize("2025/08/05"); err == nil {
		t.Error("expected error for unsupported layout")
	}
}

func TestNormalizeAgreesAcrossFormats(t *testing.T) {
	a, _ := Normalize("05/08/2025")
	b, _ := Normalize("2025-08-05")
	if a != b {
		t.Errorf("same date in both formats must normalize equal: %v vs %v", a, b)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	d := civil.Date{Year: 2025, Month: 1, Day: 9}
	if got := FormatBR(d); got != "09/01/2025" {
		t.Errorf("FormatBR = %q", got)
	}
	if got := FormatISO(d); got != "2025-01-09" {
		t.Errorf("FormatISO = %q", got)
	}
}

func TestPreviousBusinessDay(t *testing.T) {
	// 2025-08-11 is a Monday; previous business day is Friday the 8th.
	monday := civil.Date{Year: 2025, Month: 8, Day: 11}
	got := PreviousBusinessDay(monday)
	want := civil.Date{Year: 2025, Month: 8, Day: 8}
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestLastBusinessDays(t *testing.T) {
	// From Monday 2025-08-11 backwards: Fri 8, Thu 7, Wed 6.
	monday := civil.Date{Year: 2025, Month: 8, Day: 11}
	got := LastBusinessDays(monday, 3)
	want := []civil.Date{
		{Year: 2025, Month: 8, Day: 8},
		{Year: 2025, Month: 8, Day: 7},
		{Year: 2025, Month: 8, Day: 6},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d days, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("day %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}
