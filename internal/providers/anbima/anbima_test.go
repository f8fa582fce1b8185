package anbima

import (
	"math"
	"testing"

	"cloud.google.com/go/civil"
)

const ettjSample = `ANBIMA - Estrutura a Termo das Taxas de Juros
Data de Referência: 28/08/2026

ETTJ Inflação Implícita
Vertices;ETTJ IPCA;ETTJ PREF;Inflação Implícita
126;6,1000;10,5000;4,1500
252;6,3000;11,0000;4,4200
504;6,5000;11,2000;4,4100
1.008;6,6000;11,3000;4,4000

PREFIXADOS
126;10,5000
`

func TestParseETTJ(t *testing.T) {
	raw := ParseETTJ(ettjSample)
	if len(raw) != 4 {
		t.Fatalf("got %d vertices, want 4", len(raw))
	}
	if raw[0].Days != 126 || raw[0].RateIPCA != 6.10 {
		t.Errorf("first vertex = %+v", raw[0])
	}
	if raw[3].Days != 1008 {
		t.Errorf("dotted thousands vertex = %+v, want 1008 days", raw[3])
	}
	if raw[1].ImpliedInflation != 4.42 {
		t.Errorf("implied = %v", raw[1].ImpliedInflation)
	}
}

func TestParseETTJStopsAtPrefixadosBlock(t *testing.T) {
	for _, v := range ParseETTJ(ettjSample) {
		if v.RatePre == 0 {
			t.Errorf("vertex %d leaked from the PREFIXADOS block", v.Days)
		}
	}
}

func TestParseETTJEmptyWithoutSection(t *testing.T) {
	if got := ParseETTJ("just some text\n1;2;3;4\n"); len(got) != 0 {
		t.Errorf("got %d vertices outside any section", len(got))
	}
}

func TestFileDate(t *testing.T) {
	d := fileDate(ettjSample)
	want := civil.Date{Year: 2026, Month: 8, Day: 28}
	if d != want {
		t.Errorf("fileDate = %v, want %v", d, want)
	}
}

func TestDensifyDailyGrid(t *testing.T) {
	date := civil.Date{Year: 2026, Month: 8, Day: 28}
	points := Densify(ParseETTJ(ettjSample), date)

	if len(points) != 1008 {
		t.Fatalf("got %d daily points, want 1008", len(points))
	}
	if points[0].DayCount != 1 || points[len(points)-1].DayCount != 1008 {
		t.Errorf("grid runs %d..%d", points[0].DayCount, points[len(points)-1].DayCount)
	}

	// Published vertices are reproduced exactly.
	if got := points[126-1].RateIPCA; math.Abs(got-6.10) > 1e-9 {
		t.Errorf("knot 126 = %v, want 6.10", got)
	}
	if got := points[504-1].RatePre; math.Abs(got-11.20) > 1e-9 {
		t.Errorf("knot 504 = %v, want 11.20", got)
	}

	// The IPCA leg is increasing in the sample; the interpolant must not
	// overshoot between knots.
	for i := 126; i < 1008; i++ {
		if points[i].RateIPCA < points[i-1].RateIPCA-1e-9 {
			t.Fatalf("IPCA leg not monotone at day %d", points[i].DayCount)
		}
	}

	// Below the first knot values clamp to the first vertex.
	if got := points[0].RateIPCA; math.Abs(got-6.10) > 1e-9 {
		t.Errorf("day 1 = %v, want clamp to first vertex", got)
	}
}

func TestDensifySingleVertex(t *testing.T) {
	date := civil.Date{Year: 2026, Month: 8, Day: 28}
	points := Densify([]RawVertex{{Days: 252, RateIPCA: 6, RatePre: 11, ImpliedInflation: 4.7}}, date)
	if len(points) != 1 || points[0].DayCount != 252 {
		t.Fatalf("single vertex output = %+v", points)
	}
}

const ratesSampleAt = `Data de Referência: 28/08/2026
CODIGO@NOME@TAXA_IND@COMPRA@VENDA@PU@DURATION
PETR26@PETROBRAS@6,5200@6,4800@6,5600@1.020,55@1008
VALE29@VALE@7,1000@7,0500@7,1500@987,30@504
XX@CURTO@1@2@3@4@5
`

func TestParseIndicativeRatesAtSeparator(t *testing.T) {
	tab := ParseIndicativeRates(ratesSampleAt)
	if tab.Len() != 2 {
		t.Fatalf("got %d rows, want 2 (short code dropped)", tab.Len())
	}
	row := tab.Rows()[0]
	if row.String("codigo") != "PETR26" {
		t.Errorf("codigo = %q", row.String("codigo"))
	}
	if v, ok := row.Float("taxa_indicativa"); !ok || v != 6.52 {
		t.Errorf("taxa_indicativa = %v", row["taxa_indicativa"])
	}
	if v, ok := row.Float("pu_teorico"); !ok || v != 1020.55 {
		t.Errorf("pu_teorico = %v", row["pu_teorico"])
	}
	if v, ok := row.Float("duration"); !ok || v != 1008 {
		t.Errorf("duration = %v", row["duration"])
	}
}

func TestParseIndicativeRatesSemicolon(t *testing.T) {
	content := "ABCD11;Emissora Alfa;6,00;5,95;6,05;1.000,00;252\n"
	tab := ParseIndicativeRates(content)
	if tab.Len() != 1 {
		t.Fatalf("got %d rows", tab.Len())
	}
	if got := tab.Rows()[0].String("emissor"); got != "Emissora Alfa" {
		t.Errorf("emissor = %q", got)
	}
}

func TestParseIndicativeRatesMissingTrailingFields(t *testing.T) {
	content := "ABCD11;Emissora;6,00;5,95;6,05\n"
	tab := ParseIndicativeRates(content)
	if tab.Len() != 1 {
		t.Fatalf("got %d rows", tab.Len())
	}
	if _, ok := tab.Rows()[0].Float("duration"); ok {
		t.Error("missing duration should be nil")
	}
}
