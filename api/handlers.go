package api

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/claudiormpaes/BondTrack/internal/fin"
	"github.com/claudiormpaes/BondTrack/internal/normalize"
	"github.com/claudiormpaes/BondTrack/internal/quality"
	"github.com/claudiormpaes/BondTrack/pkg/dates"
	"github.com/claudiormpaes/BondTrack/pkg/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{Success: false, Error: msg})
}

// resolveDate reads the optional date query parameter (ISO or dd/mm/yyyy).
// Absent one, the newest stored date is used; a store with no data yields
// (zero, false) without an error response having been written.
func (s *Server) resolveDate(w http.ResponseWriter, r *http.Request) (civil.Date, bool) {
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := dates.Normalize(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date: "+raw)
			return civil.Date{}, false
		}
		return d, true
	}
	all, err := s.store.Dates(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return civil.Date{}, false
	}
	if len(all) == 0 {
		return civil.Date{}, true
	}
	return all[0], true
}

func (s *Server) loadAssets(w http.ResponseWriter, r *http.Request) ([]models.Asset, civil.Date, bool) {
	date, ok := s.resolveDate(w, r)
	if !ok {
		return nil, civil.Date{}, false
	}
	assets, err := s.engine.LoadData(r.Context(), date)
	if err != nil {
		s.logger.Error("load failed", zap.String("date", date.String()), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "data load failed")
		return nil, civil.Date{}, false
	}
	return assets, date, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]any{"status": "ok", "version": Version},
	})
}

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	all, err := s.store.Dates(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	out := make([]string, 0, len(all))
	for _, d := range all {
		out = append(out, d.String())
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

// assetFilter is the screener applied by GET /assets.
type assetFilter struct {
	category     string
	bucket       string
	index        string
	provenance   string
	issuer       string
	incentivized *bool
	minVolume    float64
	minRate      float64
	maxRate      float64
	minDuration  float64
	maxDuration  float64
}

func parseFilter(r *http.Request) assetFilter {
	q := r.URL.Query()
	f := assetFilter{
		category:    q.Get("category"),
		bucket:      q.Get("bucket"),
		index:       strings.ToUpper(q.Get("index")),
		provenance:  q.Get("provenance"),
		issuer:      normalize.NormalizeName(q.Get("issuer")),
		maxRate:     math.Inf(1),
		maxDuration: math.Inf(1),
	}
	if raw := q.Get("incentivized"); raw != "" {
		v := raw == "true" || raw == "1"
		f.incentivized = &v
	}
	setFloat := func(key string, dst *float64) {
		if raw := q.Get(key); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				*dst = v
			}
		}
	}
	setFloat("min_volume", &f.minVolume)
	setFloat("min_rate", &f.minRate)
	setFloat("max_rate", &f.maxRate)
	setFloat("min_duration", &f.minDuration)
	setFloat("max_duration", &f.maxDuration)
	return f
}

func (f assetFilter) match(a models.Asset) bool {
	if f.category != "" && a.Category != f.category {
		return false
	}
	if f.bucket != "" && a.MaturityBucket != f.bucket {
		return false
	}
	if f.index != "" && a.IndexType != f.index {
		return false
	}
	if f.provenance != "" && a.Provenance != f.provenance {
		return false
	}
	if f.issuer != "" && !strings.Contains(normalize.NormalizeName(a.Issuer), f.issuer) {
		return false
	}
	if f.incentivized != nil && a.Incentivized != *f.incentivized {
		return false
	}
	if a.Volume < f.minVolume {
		return false
	}
	if a.Rate < f.minRate || a.Rate > f.maxRate {
		return false
	}
	if a.DurationYears < f.minDuration || a.DurationYears > f.maxDuration {
		return false
	}
	return true
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	assets, date, ok := s.loadAssets(w, r)
	if !ok {
		return
	}
	filter := parseFilter(r)
	out := make([]models.Asset, 0, len(assets))
	for _, a := range assets {
		if filter.match(a) {
			out = append(out, a)
		}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]any{
		"reference_date": date.String(),
		"assets":         out,
	}})
}

func (s *Server) handleTopVolume(w http.ResponseWriter, r *http.Request) {
	assets, date, ok := s.loadAssets(w, r)
	if !ok {
		return
	}
	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			n = v
		}
	}
	sort.SliceStable(assets, func(i, j int) bool { return assets[i].Volume > assets[j].Volume })
	if len(assets) > n {
		assets = assets[:n]
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]any{
		"reference_date": date.String(),
		"assets":         assets,
	}})
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	assets, _, ok := s.loadAssets(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: quality.Evaluate(assets)})
}

func (s *Server) handleCurve(w http.ResponseWriter, r *http.Request) {
	date, ok := s.resolveDate(w, r)
	if !ok {
		return
	}
	points := s.curves.Points(r.Context(), date)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: points})
}

var defaultShocks = []int{-100, -50, -25, 0, 25, 50, 100}

// handleScenarios estimates the rate-shock behavior of one asset from its
// indicative rate and duration, treating it as a bullet at its duration.
func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	assets, date, ok := s.loadAssets(w, r)
	if !ok {
		return
	}
	code := strings.ToUpper(chi.URLParam(r, "code"))
	var asset *models.Asset
	for i := range assets {
		if assets[i].Code == code {
			asset = &assets[i]
			break
		}
	}
	if asset == nil {
		writeError(w, http.StatusNotFound, "asset not found: "+code)
		return
	}
	if asset.Rate <= 0 || asset.DurationYears <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "asset has no rate or duration")
		return
	}

	y := asset.Rate / 100
	price := 1000.0 // face value when no traded price exists
	if asset.Price != nil && *asset.Price > 0 {
		price = *asset.Price
	}
	modDur := fin.ModifiedDuration(asset.DurationYears, y)
	convexity := asset.DurationYears * (asset.DurationYears + 1) / math.Pow(1+y, 2)

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]any{
		"reference_date":    date.String(),
		"code":              asset.Code,
		"price":             price,
		"modified_duration": modDur,
		"convexity":         convexity,
		"dv01":              fin.DV01(price, modDur),
		"scenarios":         fin.RateShockScenarios(price, modDur, convexity, defaultShocks),
	}})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if s.news == nil {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: []models.NewsItem{}})
		return
	}
	items, err := s.news.Headlines(r.Context(), limit)
	if err != nil {
		s.logger.Warn("news fetch failed", zap.Error(err))
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: []models.NewsItem{}})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: items})
}
