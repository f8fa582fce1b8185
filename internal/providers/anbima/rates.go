package anbima

import (
	"strings"

	"github.com/claudiormpaes/BondTrack/internal/normalize"
	"github.com/claudiormpaes/BondTrack/pkg/table"
)

// Indicative-rate files use whichever separator a given vintage was
// published with; the first data line decides.
func sniffSeparator(line string) string {
	switch {
	case strings.Contains(line, "@"):
		return "@"
	case strings.Contains(line, ";"):
		return ";"
	default:
		return "\t"
	}
}

var headerTokens = []string{"CODIGO", "CÓDIGO", "ATIVO", "DATA", "TÍTULO"}

func isHeaderLine(line string) bool {
	up := strings.ToUpper(line)
	for _, tok := range headerTokens {
		if strings.Contains(up, tok) {
			return true
		}
	}
	return false
}

// ParseIndicativeRates reads an indicative-rate file into a raw frame with
// the columns codigo, emissor, taxa_indicativa, taxa_compra, taxa_venda,
// pu_teorico and duration. Header and short lines are discarded; a code
// shorter than four characters marks a non-data line.
func ParseIndicativeRates(content string) *table.Table {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isHeaderLine(line) {
			continue
		}
		lines = append(lines, line)
	}
	t := table.New("codigo", "emissor", "taxa_indicativa", "taxa_compra", "taxa_venda", "pu_teorico", "duration")
	if len(lines) == 0 {
		return t
	}
	sep := sniffSeparator(lines[0])

	for _, line := range lines {
		fields := strings.Split(line, sep)
		if len(fields) < 5 {
			continue
		}
		code := normalize.NormalizeCode(fields[0])
		if len(code) < 4 {
			continue
		}
		row := table.Row{
			"codigo":  code,
			"emissor": strings.TrimSpace(fields[1]),
		}
		numeric := []string{"taxa_indicativa", "taxa_compra", "taxa_venda", "pu_teorico", "duration"}
		for i, col := range numeric {
			idx := i + 2
			if idx >= len(fields) {
				row[col] = nil
				continue
			}
			if v, ok := normalize.ParseNumber(fields[idx]); ok {
				row[col] = v
			} else {
				row[col] = nil
			}
		}
		t.Append(row)
	}
	return t
}
