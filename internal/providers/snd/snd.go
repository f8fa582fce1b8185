// Package snd downloads secondary-market trade prices and the debenture
// registry from the SND (Sistema Nacional de Debêntures). The export
// endpoints return Latin-1 tab-separated text behind an .asp form; some
// vintages come back as an HTML table instead, so parsing falls back to
// goquery when the text layout does not look tabular.
package snd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/claudiormpaes/BondTrack/internal/config"
	"github.com/claudiormpaes/BondTrack/internal/infra"
	"github.com/claudiormpaes/BondTrack/internal/normalize"
	"github.com/claudiormpaes/BondTrack/pkg/table"
)

var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Accept-Language": "pt-BR,pt;q=0.9,en;q=0.8",
}

// Client fetches SND exports.
type Client struct {
	tradesURL   string
	registryURL string
	limiter     *infra.RateLimiter
	logger      *zap.Logger
}

// NewClient builds a client from the source configuration.
func NewClient(cfg config.SourcesConfig, logger *zap.Logger) *Client {
	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = 30
	}
	return &Client{
		tradesURL:   cfg.SNDTradesURL,
		registryURL: cfg.SNDRegistryURL,
		limiter:     infra.NewRateLimiter(rpm, time.Minute/time.Duration(rpm)),
		logger:      logger.Named("snd"),
	}
}

func (c *Client) download(ctx context.Context, url string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	body, status, err := infra.DoGet(ctx, url, browserHeaders)
	if err != nil {
		return "", err
	}
	defer body.Close()
	if status != 200 {
		return "", fmt.Errorf("status %d", status)
	}
	return infra.ReadLatin1(body)
}

// FetchTrades downloads the trade-price export for date. A date with no
// trading data yields an empty frame and a nil error.
func (c *Client) FetchTrades(ctx context.Context, date civil.Date) (*table.Table, error) {
	url := strings.ReplaceAll(c.tradesURL, "{date}", date.In(time.UTC).Format("20060102"))
	content, err := c.download(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("snd trades download: %w", err)
	}
	t := ParseTrades(content)
	c.logger.Info("trades fetched", zap.String("date", date.String()), zap.Int("rows", t.Len()))
	return t, nil
}

// FetchRegistry downloads the full debenture registry. The registry is a
// snapshot of the whole system, not a per-date series.
func (c *Client) FetchRegistry(ctx context.Context) (*table.Table, error) {
	content, err := c.download(ctx, c.registryURL)
	if err != nil {
		return nil, fmt.Errorf("snd registry download: %w", err)
	}
	t := ParseRegistry(content)
	c.logger.Info("registry fetched", zap.Int("rows", t.Len()))
	return t, nil
}

// tradeColumns maps cleaned export headers to the store's trade columns.
// Matching is by substring on the cleaned name, first match wins.
var tradeColumns = []struct {
	needle string
	target string
}{
	{"codigo", "codigo"},
	{"emissor", "emissor"},
	{"minimo", "pu_minimo"},
	{"medio", "pu_medio"},
	{"maximo", "pu_maximo"},
	{"quantidade", "quantidade"},
	{"negocios", "numero_negocios"},
}

var registryColumns = []struct {
	needle string
	target string
}{
	{"codigo", "codigo_ativo"},
	{"emissor", "emissor"},
	{"empresa", "emissor"},
	{"indice", "indexador"},
	{"indexador", "indexador"},
	{"incent", "deb_incent"},
	{"vencimento", "data_vencimento"},
}

func mapHeader(raw []string, mapping []struct{ needle, target string }) map[int]string {
	out := make(map[int]string)
	used := make(map[string]bool)
	for i, col := range raw {
		clean := normalize.NormalizeName(col)
		if strings.Contains(clean, "isin") {
			continue
		}
		for _, m := range mapping {
			if used[m.target] || !strings.Contains(clean, m.needle) {
				continue
			}
			out[i] = m.target
			used[m.target] = true
			break
		}
	}
	return out
}

// ParseTrades reads a trade-price export. The export opens with a title
// and a blank line before the header; traded volume is derived as
// average price times quantity since the export does not carry it.
func ParseTrades(content string) *table.Table {
	t := table.New("codigo", "emissor", "pu_minimo", "pu_medio", "pu_maximo",
		"quantidade", "numero_negocios", "volume_total")

	header, rows := tabularLines(content, 2)
	if header == nil {
		header, rows = htmlTable(content)
	}
	if header == nil {
		return t
	}
	cols := mapHeader(header, tradeColumns)

	numeric := map[string]bool{
		"pu_minimo": true, "pu_medio": true, "pu_maximo": true,
		"quantidade": true, "numero_negocios": true,
	}
	for _, fields := range rows {
		row := table.Row{}
		for i, field := range fields {
			target, ok := cols[i]
			if !ok {
				continue
			}
			if numeric[target] {
				// Unparseable numerics load as zero, matching the store schema.
				v, _ := normalize.ParseNumber(field)
				row[target] = v
			} else {
				row[target] = strings.TrimSpace(field)
			}
		}
		code := normalize.NormalizeCode(row.String("codigo"))
		if code == "" || code == "NAN" || code == "NONE" || strings.Contains(code, "CÓDIGO") {
			continue
		}
		row["codigo"] = code
		row["volume_total"] = row.FloatOr("pu_medio", 0) * row.FloatOr("quantidade", 0)
		t.Append(row)
	}
	return t
}

// ParseRegistry reads the registry export, which carries four banner lines
// before the header.
func ParseRegistry(content string) *table.Table {
	t := table.New("codigo_ativo", "emissor", "indexador", "deb_incent", "data_vencimento")

	header, rows := tabularLines(content, 4)
	if header == nil {
		header, rows = htmlTable(content)
	}
	if header == nil {
		return t
	}
	cols := mapHeader(header, registryColumns)

	for _, fields := range rows {
		row := table.Row{}
		for i, field := range fields {
			if target, ok := cols[i]; ok {
				row[target] = strings.TrimSpace(field)
			}
		}
		code := normalize.NormalizeCode(row.String("codigo_ativo"))
		if code == "" {
			continue
		}
		row["codigo_ativo"] = code
		t.Append(row)
	}
	return t
}

// tabularLines splits a tab-separated export into header and data rows,
// discarding the first skip banner lines. It reports no header when the
// content does not look like a tab layout (an HTML response, usually).
func tabularLines(content string, skip int) ([]string, [][]string) {
	// Markup first: tab-indented HTML would otherwise split into "fields".
	if looksHTML(content) {
		return nil, nil
	}
	lines := strings.Split(content, "\n")
	var clean []string
	for _, line := range lines {
		if trimmed := strings.TrimRight(line, "\r"); trimmed != "" {
			clean = append(clean, trimmed)
		} else if len(clean) < skip {
			// Blank banner lines still count toward the skip.
			clean = append(clean, "")
		}
	}
	if len(clean) <= skip {
		return nil, nil
	}
	clean = clean[skip:]
	header := strings.Split(clean[0], "\t")
	if len(header) < 2 {
		return nil, nil
	}
	var rows [][]string
	for _, line := range clean[1:] {
		if line == "" {
			continue
		}
		rows = append(rows, strings.Split(line, "\t"))
	}
	return header, rows
}

// looksHTML reports whether the endpoint answered with markup instead of
// the tab-separated export.
func looksHTML(content string) bool {
	s := strings.ToLower(content)
	return strings.Contains(s, "<html") || strings.Contains(s, "<table")
}
