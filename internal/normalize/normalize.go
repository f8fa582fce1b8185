// Package normalize maps the noisy tabular frames the upstream sources ship
// onto the canonical column schema, and cleans the cell values: Brazilian
// numeric formats, indexer synonyms, issuer suffixes, and the duration unit.
//
// Matching is keyword-driven and deliberately simple: for each canonical
// target, the first column (in table order) whose folded name contains one
// of the target's keywords wins. A frame matching no target passes through
// unchanged; downstream code checks field presence rather than assuming
// normalization succeeded.
package normalize

import (
	"strings"

	"go.uber.org/zap"

	"github.com/claudiormpaes/BondTrack/pkg/models"
	"github.com/claudiormpaes/BondTrack/pkg/table"
)

// Canonical column names produced by the normalizer.
const (
	ColCode       = "code"
	ColIssuer     = "issuer"
	ColIndex      = "index_type"
	ColRate       = "rate"
	ColDuration   = "duration"
	ColPrice      = "price"
	ColIncentive  = "incentivized"
	ColVolume     = "volume"
	ColTradeCount = "trade_count"
)

// Target binds a canonical field to the keyword substrings that identify it
// in a folded column name. The table is ordered data, not code: matching
// walks targets in this order and assigns each at most one source column.
type Target struct {
	Field    string
	Keywords []string
}

// Targets is the keyword table. Assignment is first-match-wins over table
// order, a deliberate simplification rather than optimal matching.
var Targets = []Target{
	{ColRate, []string{"taxa_indicativa", "taxa_emissao", "taxa_compra", "taxa_media", "taxa", "indicative_rate", "issue_rate", "buy_rate", "average_rate", "rate"}},
	{ColDuration, []string{"duration", "duracao", "du"}},
	{ColPrice, []string{"pu_medio", "pu_teorico", "preco", "unitario", "pu", "price"}},
	{ColIndex, []string{"indexador", "indice", "idx", "index"}},
	{ColIssuer, []string{"emissor", "razao_social", "empresa", "issuer", "nome"}},
	{ColCode, []string{"codigo", "ativo", "ticker", "code"}},
	{ColIncentive, []string{"deb_incent", "incentivada", "lei_12431", "isenta", "incentiv", "ir"}},
	{ColVolume, []string{"volume_total", "volume", "vol"}},
	{ColTradeCount, []string{"numero_negocios", "negocios", "trade_count", "trades"}},
}

// numericCols are coerced to float64 with parse-or-missing semantics. A
// failed parse becomes 0 for the sentinel-bearing fields (rate, duration,
// volume, trade count, where <= 0 already means "unknown") and nil for
// price, where zero would be a lie.
var numericCols = []string{ColRate, ColDuration, ColVolume, ColTradeCount}

// Normalizer rewrites frames onto the canonical schema.
type Normalizer struct {
	heuristic DurationUnitHeuristic
	logger    *zap.Logger
}

// New creates a Normalizer with the default duration heuristic.
func New(logger *zap.Logger) *Normalizer {
	return &Normalizer{heuristic: DefaultDurationHeuristic, logger: logger}
}

// WithHeuristic replaces the duration-unit heuristic. Tests and future
// better-informed detectors hook in here.
func (n *Normalizer) WithHeuristic(h DurationUnitHeuristic) *Normalizer {
	n.heuristic = h
	return n
}

// Table returns a cleaned copy of t: columns renamed onto the canonical
// schema where a confident match exists, numeric and text fields coerced.
// The input frame is never mutated.
func (n *Normalizer) Table(t *table.Table) *table.Table {
	if t == nil {
		return table.New()
	}
	if t.IsEmpty() {
		return table.New(t.Columns()...)
	}

	out := t.Rename(MatchColumns(t.Columns()))
	n.coerceNumerics(out)
	n.applyDurationUnit(out)
	n.cleanIndex(out)
	n.cleanIssuer(out)
	n.cleanCode(out)
	return out
}

// MatchColumns computes the raw→canonical rename mapping for a column set.
// Each canonical target receives at most one source column; first match in
// table order wins. A target whose canonical name is already a column is
// not reassigned, which makes normalization idempotent.
func MatchColumns(cols []string) map[string]string {
	folded := make([]string, len(cols))
	have := make(map[string]bool, len(cols))
	for i, c := range cols {
		folded[i] = NormalizeName(c)
		have[c] = true
	}

	mapping := make(map[string]string)
	taken := make(map[string]bool) // source columns already claimed

	for _, target := range Targets {
		if have[target.Field] {
			continue
		}
		for i, c := range cols {
			if taken[c] {
				continue
			}
			if containsAny(folded[i], target.Keywords) {
				mapping[c] = target.Field
				taken[c] = true
				break
			}
		}
	}
	return mapping
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func (n *Normalizer) coerceNumerics(t *table.Table) {
	for _, col := range numericCols {
		if !t.HasColumn(col) {
			continue
		}
		for _, r := range t.Rows() {
			r[col] = coerceFloat(r[col], 0.0)
		}
	}
	if t.HasColumn(ColPrice) {
		for _, r := range t.Rows() {
			r[ColPrice] = coerceFloat(r[ColPrice], nil)
		}
	}
}

// coerceFloat turns a cell into float64, or into missing (the given
// sentinel) when it cannot be parsed.
func coerceFloat(v any, missing any) any {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		if f, ok := ParseNumber(x); ok {
			return f
		}
		return missing
	default:
		return missing
	}
}

// applyDurationUnit converts the duration column from business days to
// years when the dataset-level heuristic says the column is in days.
func (n *Normalizer) applyDurationUnit(t *table.Table) {
	if !t.HasColumn(ColDuration) {
		return
	}
	var values []float64
	for _, r := range t.Rows() {
		if v, ok := r.Float(ColDuration); ok {
			values = append(values, v)
		}
	}
	if !n.heuristic.BusinessDays(values) {
		return
	}
	n.logger.Warn("duration column detected as business days, converting to years",
		zap.Int("rows", t.Len()))
	for _, r := range t.Rows() {
		if v, ok := r.Float(ColDuration); ok {
			r[ColDuration] = v / models.BusinessDaysPerYear
		}
	}
}

func (n *Normalizer) cleanIndex(t *table.Table) {
	t.EnsureColumn(ColIndex)
	for _, r := range t.Rows() {
		r[ColIndex] = CanonicalIndex(r.String(ColIndex))
	}
}

func (n *Normalizer) cleanIssuer(t *table.Table) {
	t.EnsureColumn(ColIssuer)
	for _, r := range t.Rows() {
		r[ColIssuer] = TruncateIssuer(r.String(ColIssuer))
	}
}

func (n *Normalizer) cleanCode(t *table.Table) {
	if !t.HasColumn(ColCode) {
		return
	}
	for _, r := range t.Rows() {
		r[ColCode] = NormalizeCode(r.String(ColCode))
	}
}
