package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName folds a raw column name onto the form the keyword table is
// matched against: diacritics stripped, lower-cased, punctuation and spaces
// collapsed to underscores. Cell values are never touched by this transform.
func NormalizeName(name string) string {
	name = stripDiacritics(name)
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, ".", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return name
}

// stripDiacritics decomposes to NFKD and drops combining marks, so
// "Indicação" becomes "Indicacao" and "Nº" becomes "No".
func stripDiacritics(s string) string {
	decomposed := norm.NFKD.String(s)
	out := make([]rune, 0, len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

var thousandsGrouped = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)

// ParseNumber parses a numeric cell accepting the Brazilian convention
// (thousands dot, decimal comma) alongside plain machine formats. Currency
// and percent symbols are stripped first. The second result is false when
// the text is not a number; callers map that to "missing", never to an error.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" || s == "-" || strings.EqualFold(s, "n/d") || strings.EqualFold(s, "nd") {
		return 0, false
	}

	switch {
	case strings.Contains(s, ","):
		// Comma is the decimal mark; any dots are thousands separators.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case thousandsGrouped.MatchString(s):
		// Dot-grouped integer like "1.234" or "12.345.678".
		s = strings.ReplaceAll(s, ".", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// indexSynonyms canonicalizes indexer spellings. Order matters: the dotted
// "D.I." form must be rewritten before the bare "DI" token, and "PREFIXADO"
// is protected from the bare "PRE" rule by the word boundary.
var indexSynonyms = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`D\.I\.?`), "CDI"},
	{regexp.MustCompile(`\bDI\b`), "CDI"},
	{regexp.MustCompile(`\bIGP[\s-]*M\b`), "IGP-M"},
	{regexp.MustCompile(`\bIPC-A\b`), "IPCA"},
	{regexp.MustCompile(`IPCA\s*\+`), "IPCA"},
	{regexp.MustCompile(`\bPREFIXADO\b`), "PRÉ"},
	{regexp.MustCompile(`\bPRE\b`), "PRÉ"},
}

// IndexUnknown is the placeholder for records with no usable indexer.
const IndexUnknown = "N/D"

// CanonicalIndex upper-cases, trims and rewrites an indexer name onto the
// canonical vocabulary (CDI, IPCA, PRÉ, IGP-M). Empty input becomes N/D.
// The function is idempotent: canonical names pass through unchanged.
func CanonicalIndex(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return IndexUnknown
	}
	for _, syn := range indexSynonyms {
		s = syn.re.ReplaceAllString(s, syn.repl)
	}
	return s
}

// TruncateIssuer cuts an issuer name at the first hyphen, dropping the
// "Name - series/suffix" tail the sources append, and trims the result.
func TruncateIssuer(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return IndexUnknown
	}
	if i := strings.Index(s, "-"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// truthyTokens are the exact affirmative spellings upstream uses for a
// tax-incentive flag (S/SIM in SND exports, plain booleans elsewhere).
// truthyMarkers match inside longer cells like "Isenta IR" or lei 12.431
// annotations; single letters must not, or any word with an S is true.
var (
	truthyTokens  = []string{"S", "SIM", "YES", "TRUE", "1"}
	truthyMarkers = []string{"ISENTA", "INCENTIVADA", "12.431"}
)

// Truthy reports whether a raw incentive-flag cell is affirmative.
func Truthy(raw string) bool {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return false
	}
	for _, tok := range truthyTokens {
		if s == tok {
			return true
		}
	}
	for _, m := range truthyMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// NormalizeCode folds an asset code onto the join key form: upper-cased,
// trimmed.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
