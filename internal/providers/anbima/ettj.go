package anbima

import (
	"strings"

	"cloud.google.com/go/civil"

	"github.com/claudiormpaes/BondTrack/internal/normalize"
	"github.com/claudiormpaes/BondTrack/pkg/models"
)

// RawVertex is one published ETTJ vertex before densification.
type RawVertex struct {
	Days             int
	RateIPCA         float64
	RatePre          float64
	ImpliedInflation float64
}

// ParseETTJ extracts the implied-inflation section of the ETTJ file. The
// section starts after the "ETTJ Inflação Implícita" banner and runs until
// a blank line or the PREFIXADOS block; each data line is
// "vertex;ipca;pre;implied" with Brazilian decimals. Malformed lines are
// skipped, not fatal.
func ParseETTJ(content string) []RawVertex {
	var out []RawVertex
	section := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		if strings.Contains(line, "ETTJ Inflação Implicita") ||
			strings.Contains(line, "ETTJ Inflação Implícita") {
			section = true
			continue
		}
		if !section {
			continue
		}
		if strings.Contains(line, "Vertices") {
			continue
		}
		if line == "" || strings.Contains(line, "PREFIXADOS") || strings.Contains(line, "Erro Título") {
			break
		}
		parts := strings.Split(line, ";")
		if len(parts) < 4 {
			continue
		}
		days, ok := normalize.ParseNumber(parts[0])
		if !ok || days <= 0 {
			continue
		}
		ipca, ok1 := normalize.ParseNumber(parts[1])
		pre, ok2 := normalize.ParseNumber(parts[2])
		implied, ok3 := normalize.ParseNumber(parts[3])
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		out = append(out, RawVertex{
			Days:             int(days),
			RateIPCA:         ipca,
			RatePre:          pre,
			ImpliedInflation: implied,
		})
	}
	return out
}

// Densify interpolates the published vertices to every day from 1 to the
// longest vertex, using shape-preserving cubics so the daily curve stays
// monotone between the published points.
func Densify(raw []RawVertex, date civil.Date) []models.CurvePoint {
	if len(raw) == 0 {
		return nil
	}
	raw = dedupeSorted(raw)
	if len(raw) == 1 {
		only := raw[0]
		return []models.CurvePoint{{
			ReferenceDate:    date,
			DayCount:         only.Days,
			RateIPCA:         only.RateIPCA,
			RatePre:          only.RatePre,
			ImpliedInflation: only.ImpliedInflation,
		}}
	}

	xs := make([]float64, len(raw))
	ipca := make([]float64, len(raw))
	pre := make([]float64, len(raw))
	implied := make([]float64, len(raw))
	for i, v := range raw {
		xs[i] = float64(v.Days)
		ipca[i] = v.RateIPCA
		pre[i] = v.RatePre
		implied[i] = v.ImpliedInflation
	}
	ipcaFn := newPCHIP(xs, ipca)
	preFn := newPCHIP(xs, pre)
	impliedFn := newPCHIP(xs, implied)

	maxDays := raw[len(raw)-1].Days
	out := make([]models.CurvePoint, 0, maxDays)
	for d := 1; d <= maxDays; d++ {
		x := float64(d)
		out = append(out, models.CurvePoint{
			ReferenceDate:    date,
			DayCount:         d,
			RateIPCA:         ipcaFn.at(x),
			RatePre:          preFn.at(x),
			ImpliedInflation: impliedFn.at(x),
		})
	}
	return out
}

// dedupeSorted sorts vertices by day and keeps the first of any duplicates.
func dedupeSorted(raw []RawVertex) []RawVertex {
	out := make([]RawVertex, len(raw))
	copy(out, raw)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Days < out[j-1].Days; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	dedup := out[:0]
	for _, v := range out {
		if len(dedup) == 0 || dedup[len(dedup)-1].Days != v.Days {
			dedup = append(dedup, v)
		}
	}
	return dedup
}
