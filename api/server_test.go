package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/claudiormpaes/BondTrack/internal/config"
	"github.com/claudiormpaes/BondTrack/internal/infra"
	"github.com/claudiormpaes/BondTrack/internal/merge"
	"github.com/claudiormpaes/BondTrack/internal/store"
	"github.com/claudiormpaes/BondTrack/pkg/models"
	"github.com/claudiormpaes/BondTrack/pkg/table"
)

var day = civil.Date{Year: 2026, Month: 8, Day: 28}

func seededServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()

	quotes := table.New("codigo", "emissor", "taxa_indicativa", "duration", "pu_teorico")
	quotes.Append(table.Row{"codigo": "PETR26", "emissor": "Petrobras", "taxa_indicativa": 6.52, "duration": 1008.0, "pu_teorico": 1020.55})
	quotes.Append(table.Row{"codigo": "ABCD11", "emissor": "Emissora Alfa", "taxa_indicativa": 110.0, "duration": 504.0, "pu_teorico": 995.0})
	if err := mem.UpsertQuotes(ctx, day, quotes); err != nil {
		t.Fatalf("seed quotes: %v", err)
	}

	trades := table.New("codigo", "emissor", "pu_medio", "volume_total", "numero_negocios")
	trades.Append(table.Row{"codigo": "PETR26", "emissor": "Petrobras", "pu_medio": 1020.50, "volume_total": 5000000.0, "numero_negocios": 12})
	if err := mem.UpsertTrades(ctx, day, trades); err != nil {
		t.Fatalf("seed trades: %v", err)
	}

	registry := table.New("codigo_ativo", "emissor", "indexador", "deb_incent")
	registry.Append(table.Row{"codigo_ativo": "PETR26", "emissor": "Petrobras S.A.", "indexador": "IPCA", "deb_incent": "S"})
	registry.Append(table.Row{"codigo_ativo": "ABCD11", "emissor": "Emissora Alfa", "indexador": "DI", "deb_incent": "N"})
	if err := mem.ReplaceRegistry(ctx, registry); err != nil {
		t.Fatalf("seed registry: %v", err)
	}

	if err := mem.UpsertCurvePoints(ctx, []models.CurvePoint{
		{ReferenceDate: day, DayCount: 21, RateIPCA: 6.0, RatePre: 11.0},
		{ReferenceDate: day, DayCount: 2520, RateIPCA: 6.0, RatePre: 11.0},
	}); err != nil {
		t.Fatalf("seed curve: %v", err)
	}

	logger := zap.NewNop()
	cfg := &config.Config{}
	engine := merge.NewEngine(mem, infra.NewCache(time.Hour), logger)
	return NewServer(cfg, mem, engine, nil, logger)
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return resp
}

func TestHealth(t *testing.T) {
	rec := get(t, seededServer(t), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if resp := decode(t, rec); !resp.Success {
		t.Error("health not successful")
	}
}

func TestDates(t *testing.T) {
	rec := get(t, seededServer(t), "/api/v1/dates")
	resp := decode(t, rec)
	var days []string
	b, _ := json.Marshal(resp.Data)
	json.Unmarshal(b, &days) //nolint:errcheck
	if len(days) != 1 || days[0] != "2026-08-28" {
		t.Errorf("dates = %v", days)
	}
}

type assetPage struct {
	ReferenceDate string         `json:"reference_date"`
	Assets        []models.Asset `json:"assets"`
}

func decodeAssets(t *testing.T, rec *httptest.ResponseRecorder) assetPage {
	t.Helper()
	resp := decode(t, rec)
	var page assetPage
	b, _ := json.Marshal(resp.Data)
	if err := json.Unmarshal(b, &page); err != nil {
		t.Fatalf("decode assets: %v", err)
	}
	return page
}

func TestAssetsDefaultDate(t *testing.T) {
	rec := get(t, seededServer(t), "/api/v1/assets")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	page := decodeAssets(t, rec)
	if page.ReferenceDate != "2026-08-28" {
		t.Errorf("reference date = %q", page.ReferenceDate)
	}
	if len(page.Assets) != 2 {
		t.Fatalf("got %d assets", len(page.Assets))
	}
}

func TestAssetsScreener(t *testing.T) {
	srv := seededServer(t)

	rec := get(t, srv, "/api/v1/assets?category=IPCA+Incentivized")
	page := decodeAssets(t, rec)
	if len(page.Assets) != 1 || page.Assets[0].Code != "PETR26" {
		t.Errorf("category filter: %+v", page.Assets)
	}

	rec = get(t, srv, "/api/v1/assets?min_volume=1000000")
	page = decodeAssets(t, rec)
	if len(page.Assets) != 1 || page.Assets[0].Code != "PETR26" {
		t.Errorf("volume filter: %+v", page.Assets)
	}

	rec = get(t, srv, "/api/v1/assets?index=CDI")
	page = decodeAssets(t, rec)
	if len(page.Assets) != 1 || page.Assets[0].Code != "ABCD11" {
		t.Errorf("index filter: %+v", page.Assets)
	}

	rec = get(t, srv, "/api/v1/assets?issuer=petrobras")
	page = decodeAssets(t, rec)
	if len(page.Assets) != 1 || page.Assets[0].Code != "PETR26" {
		t.Errorf("issuer filter: %+v", page.Assets)
	}

	rec = get(t, srv, "/api/v1/assets?min_rate=100")
	page = decodeAssets(t, rec)
	if len(page.Assets) != 1 || page.Assets[0].Code != "ABCD11" {
		t.Errorf("rate filter: %+v", page.Assets)
	}

	rec = get(t, srv, "/api/v1/assets?max_duration=3")
	page = decodeAssets(t, rec)
	if len(page.Assets) != 1 || page.Assets[0].Code != "ABCD11" {
		t.Errorf("duration filter: %+v", page.Assets)
	}
}

func TestAssetsDateWithoutMarketData(t *testing.T) {
	// A day with no trades or quotes still surfaces the registry universe.
	rec := get(t, seededServer(t), "/api/v1/assets?date=2026-01-02")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	page := decodeAssets(t, rec)
	if len(page.Assets) != 2 {
		t.Fatalf("got %d assets, want registry fallback", len(page.Assets))
	}
	for _, a := range page.Assets {
		if a.Provenance != models.ProvenanceRegistryOnly {
			t.Errorf("%s provenance = %q", a.Code, a.Provenance)
		}
	}
}

func TestAssetsBadDate(t *testing.T) {
	rec := get(t, seededServer(t), "/api/v1/assets?date=soon")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", rec.Code)
	}
}

func TestTopVolume(t *testing.T) {
	rec := get(t, seededServer(t), "/api/v1/assets/top-volume?n=1")
	page := decodeAssets(t, rec)
	if len(page.Assets) != 1 || page.Assets[0].Code != "PETR26" {
		t.Errorf("top volume: %+v", page.Assets)
	}
}

func TestQuality(t *testing.T) {
	rec := get(t, seededServer(t), "/api/v1/quality")
	resp := decode(t, rec)
	var report struct {
		TotalRecords int     `json:"total_records"`
		Score        float64 `json:"score"`
	}
	b, _ := json.Marshal(resp.Data)
	json.Unmarshal(b, &report) //nolint:errcheck
	if report.TotalRecords != 2 {
		t.Errorf("total = %d", report.TotalRecords)
	}
	if report.Score <= 0 || report.Score > 100 {
		t.Errorf("score = %v", report.Score)
	}
}

func TestCurve(t *testing.T) {
	rec := get(t, seededServer(t), "/api/v1/curve?date=2026-08-28")
	resp := decode(t, rec)
	var points []models.CurvePoint
	b, _ := json.Marshal(resp.Data)
	json.Unmarshal(b, &points) //nolint:errcheck
	if len(points) != 2 {
		t.Errorf("got %d curve points", len(points))
	}
}

func TestScenarios(t *testing.T) {
	rec := get(t, seededServer(t), "/api/v1/assets/PETR26/scenarios")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode(t, rec)
	var out struct {
		Code      string  `json:"code"`
		DV01      float64 `json:"dv01"`
		Scenarios []struct {
			ShockBps  int     `json:"shock_bps"`
			ChangePct float64 `json:"change_pct"`
		} `json:"scenarios"`
	}
	b, _ := json.Marshal(resp.Data)
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Code != "PETR26" || out.DV01 <= 0 {
		t.Errorf("code=%q dv01=%v", out.Code, out.DV01)
	}
	if len(out.Scenarios) != 7 {
		t.Errorf("got %d scenarios", len(out.Scenarios))
	}
	if out.Scenarios[0].ChangePct <= 0 {
		t.Errorf("down shock should gain: %v", out.Scenarios[0].ChangePct)
	}
}

func TestScenariosUnknownAsset(t *testing.T) {
	rec := get(t, seededServer(t), "/api/v1/assets/NOPE99/scenarios")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

func TestNewsWithoutClient(t *testing.T) {
	rec := get(t, seededServer(t), "/api/v1/news")
	resp := decode(t, rec)
	if !resp.Success {
		t.Error("news without client should still succeed")
	}
}
