// Package anbima downloads and parses the two ANBIMA publications the
// pipeline depends on: the daily ETTJ term-structure file (benchmark
// curves) and the indicative-rate files for debentures. Files are
// Latin-1 text with Brazilian number formatting; parsing is tolerant
// because ANBIMA changes layout details without notice.
package anbima

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/claudiormpaes/BondTrack/internal/config"
	"github.com/claudiormpaes/BondTrack/internal/infra"
	"github.com/claudiormpaes/BondTrack/pkg/dates"
	"github.com/claudiormpaes/BondTrack/pkg/models"
	"github.com/claudiormpaes/BondTrack/pkg/table"
)

var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "pt-BR,pt;q=0.9,en;q=0.8",
}

// Client fetches ANBIMA publications.
type Client struct {
	curveURL string
	rateURLs []string
	limiter  *infra.RateLimiter
	logger   *zap.Logger
}

// NewClient builds a client from the source configuration.
func NewClient(cfg config.SourcesConfig, logger *zap.Logger) *Client {
	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = 30
	}
	return &Client{
		curveURL: cfg.ANBIMACurveURL,
		rateURLs: cfg.ANBIMARateURLs,
		limiter:  infra.NewRateLimiter(rpm, time.Minute/time.Duration(rpm)),
		logger:   logger.Named("anbima"),
	}
}

var fileDateRE = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})`)

// fileDate scans the first lines of an ANBIMA file for its reference date.
// Files carry the date in a free-form header; absent one, today is assumed.
func fileDate(content string) civil.Date {
	lines := strings.SplitN(content, "\n", 6)
	for i, line := range lines {
		if i >= 5 {
			break
		}
		if m := fileDateRE.FindString(line); m != "" {
			if d, err := dates.Normalize(m); err == nil {
				return d
			}
		}
	}
	return civil.DateOf(time.Now())
}

// FetchCurve downloads the ETTJ file, parses the implied-inflation section
// and densifies it to daily vertices. The returned date is the file's own
// reference date.
func (c *Client) FetchCurve(ctx context.Context) ([]models.CurvePoint, civil.Date, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, civil.Date{}, err
	}
	body, status, err := infra.DoGet(ctx, c.curveURL, browserHeaders)
	if err != nil {
		return nil, civil.Date{}, fmt.Errorf("anbima curve download: %w", err)
	}
	defer body.Close()
	if status != 200 {
		return nil, civil.Date{}, fmt.Errorf("anbima curve download: status %d", status)
	}
	content, err := infra.ReadLatin1(body)
	if err != nil {
		return nil, civil.Date{}, fmt.Errorf("anbima curve read: %w", err)
	}

	date := fileDate(content)
	raw := ParseETTJ(content)
	if len(raw) == 0 {
		return nil, date, fmt.Errorf("anbima curve: no ETTJ vertices in file")
	}
	points := Densify(raw, date)
	c.logger.Info("curve fetched",
		zap.String("date", date.String()),
		zap.Int("raw_vertices", len(raw)),
		zap.Int("daily_vertices", len(points)))
	return points, date, nil
}

// FetchIndicativeRates downloads the indicative-rate file for date, trying
// each configured URL template in order. A date with no published file is
// not an error: the result is nil with a nil error.
func (c *Client) FetchIndicativeRates(ctx context.Context, date civil.Date) (*table.Table, error) {
	stamp := date.In(time.UTC).Format("060102")
	for _, tpl := range c.rateURLs {
		url := strings.ReplaceAll(tpl, "{date}", stamp)
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		body, status, err := infra.DoGet(ctx, url, browserHeaders)
		if err != nil {
			c.logger.Debug("rate file fetch failed", zap.String("url", url), zap.Error(err))
			continue
		}
		content, rerr := infra.ReadLatin1(body)
		body.Close()
		if rerr != nil || status != 200 {
			continue
		}
		// Files under ~100 bytes are error pages, not data.
		if len(content) < 100 || !strings.ContainsAny(content, "@;\t") {
			continue
		}
		t := ParseIndicativeRates(content)
		if !t.IsEmpty() {
			c.logger.Info("indicative rates fetched",
				zap.String("date", date.String()),
				zap.String("url", url),
				zap.Int("rows", t.Len()))
			return t, nil
		}
	}
	c.logger.Warn("no indicative rate file for date", zap.String("date", date.String()))
	return nil, nil
}
