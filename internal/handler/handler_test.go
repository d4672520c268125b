package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/MelParker66/flowerama-vd2026/internal/domain"
	"github.com/MelParker66/flowerama-vd2026/internal/ingest"
	"github.com/MelParker66/flowerama-vd2026/internal/repository"
	"github.com/MelParker66/flowerama-vd2026/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type testApp struct {
	router    http.Handler
	ledger    *repository.Ledger
	overrides *repository.OverrideStore
}

func newTestApp(t *testing.T, base map[string]float64) testApp {
	t.Helper()
	return newTestAppWithStore(t, base, filepath.Join(t.TempDir(), "planned-overrides.json"))
}

func newTestAppWithStore(t *testing.T, base map[string]float64, overridesPath string) testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	overrides := repository.NewOverrideStore(overridesPath, logger)
	ledger := repository.NewLedger(nil)
	planning := service.NewPlanningService(ingest.Result{
		Planned: base,
		Report:  ingest.Report{Path: "VD2026.xlsx", Columns: ingest.DefaultColumns},
	}, overrides, logger)

	r := chi.NewRouter()
	HealthHandler{}.RegisterRoutes(r)
	ActivityHandler{Ledger: ledger, Logger: logger}.RegisterRoutes(r)
	PlannedHandler{Planning: planning, Logger: logger}.RegisterRoutes(r)
	HistoryHandler{Ledger: ledger}.RegisterRoutes(r)
	DashboardHandler{Summary: service.SummaryService{Planning: planning, Ledger: ledger}, Logger: logger}.RegisterRoutes(r)

	return testApp{router: r, ledger: ledger, overrides: overrides}
}

func (a testApp) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		buf = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		buf = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func byProduct(t *testing.T, resp map[string]any, product string) map[string]any {
	t.Helper()
	all, ok := resp["byProduct"].(map[string]any)
	require.True(t, ok)
	p, ok := all[product].(map[string]any)
	require.True(t, ok, "missing %s", product)
	return p
}

func TestWarehouseThenDashboard(t *testing.T) {
	app := newTestApp(t, nil)

	rec, resp := app.do(t, http.MethodPost, "/api/warehouse", map[string]any{"date": "2026-02-01", "product": "Red Roses", "qty": 50})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])

	for _, path := range []string{"/api/dashboard", "/api/summary"} {
		rec, resp = app.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, resp["ok"])
		roses := byProduct(t, resp, "Red Roses")
		assert.Equal(t, 50.0, roses["produced"])
		assert.Equal(t, 50.0, roses["net"])
		assert.Equal(t, "2026-02-01", roses["dateModified"])
		assert.Equal(t, "Yippee", roses["status"])
	}
}

func TestDeactivateHidesFromPlanned(t *testing.T) {
	app := newTestApp(t, map[string]float64{"Red Roses": 120})

	rec, resp := app.do(t, http.MethodPost, "/api/planned", map[string]any{"product": "Tulips", "planned": 100})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100.0, resp["plannedByProduct"].(map[string]any)["Tulips"])
	assert.Equal(t, 2.0, resp["count"])

	rec, resp = app.do(t, http.MethodPost, "/api/products/deactivate", map[string]any{"productName": "Tulips"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["ok"])

	_, resp = app.do(t, http.MethodGet, "/api/planned", nil)
	assert.NotContains(t, resp["plannedByProduct"], "Tulips")
	assert.Equal(t, 1.0, resp["count"])

	_, resp = app.do(t, http.MethodGet, "/api/products", nil)
	products := resp["products"].([]any)
	assert.Contains(t, products, map[string]any{"product": "Tulips", "planned": 100.0, "active": false})
	assert.Equal(t, "Red Roses", products[0].(map[string]any)["product"])

	_, resp = app.do(t, http.MethodGet, "/api/dashboard", nil)
	assert.NotContains(t, resp["byProduct"], "Tulips")

	rec, _ = app.do(t, http.MethodPost, "/api/products/reactivate", map[string]any{"productName": " Tulips "})
	require.Equal(t, http.StatusOK, rec.Code)
	_, resp = app.do(t, http.MethodGet, "/api/planned", nil)
	assert.Equal(t, 100.0, resp["plannedByProduct"].(map[string]any)["Tulips"])
}

func TestNegativeSoldCorrection(t *testing.T) {
	app := newTestApp(t, nil)

	rec, resp := app.do(t, http.MethodPost, "/api/sold", map[string]any{"date": "2026-02-01", "product": "Red Roses", "qty": 20})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["ok"])
	rec, _ = app.do(t, http.MethodPost, "/api/sold", map[string]any{"date": "2026-02-02", "product": "Red Roses", "qty": -5})
	require.Equal(t, http.StatusOK, rec.Code)

	sum := 0
	for _, e := range app.ledger.Entries(domain.LedgerSold) {
		sum += e.Qty
	}
	assert.Equal(t, 15, sum)

	_, resp = app.do(t, http.MethodGet, "/api/sold", nil)
	assert.Len(t, resp["entries"], 2)
}

func TestActivityValidation(t *testing.T) {
	app := newTestApp(t, nil)

	cases := []struct {
		name    string
		path    string
		body    any
		key     string
		message string
	}{
		{"missing qty", "/api/warehouse", map[string]any{"date": "2026-02-01", "product": "Tulips"}, "success", errQuantityRequired},
		{"fractional", "/api/warehouse", map[string]any{"date": "2026-02-01", "product": "Tulips", "qty": 1.5}, "success", errQuantityRequired},
		{"non-numeric string", "/api/sent-to-shop", map[string]any{"date": "2026-02-01", "product": "Tulips", "qty": "ten"}, "ok", errQuantityRequired},
		{"missing date", "/api/shop", map[string]any{"product": "Tulips", "qty": 1}, "success", errQuantityRequired},
		{"empty product", "/api/sold", map[string]any{"date": "2026-02-01", "product": "", "qty": 1}, "ok", errQtyRequired},
		{"quantity ignored", "/api/produced", map[string]any{"date": "2026-02-01", "product": "Tulips", "quantity": 3}, "success", errQtyRequired},
		{"bool qty", "/api/sold", map[string]any{"date": "2026-02-01", "product": "Tulips", "qty": true}, "ok", errQtyRequired},
		{"not json", "/api/warehouse", "not json", "success", errQuantityRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, resp := app.do(t, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, resp[tc.key])
			assert.Equal(t, tc.message, resp["error"])
		})
	}
	for _, kind := range domain.LedgerKinds {
		assert.Empty(t, app.ledger.Entries(kind))
	}
}

func TestActivityQuantityFieldPreference(t *testing.T) {
	app := newTestApp(t, nil)

	rec, _ := app.do(t, http.MethodPost, "/warehouse", map[string]any{"date": "2026-02-01", "product": "Tulips", "quantity": 7, "qty": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = app.do(t, http.MethodPost, "/api/warehouse", map[string]any{"date": "2026-02-01", "product": "Tulips", "quantity": 7, "qty": "2"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = app.do(t, http.MethodPost, "/api/sent-to-shop", map[string]any{"date": "2026-02-01", "product": "Tulips", "quantity": 4.0})
	require.Equal(t, http.StatusOK, rec.Code)

	produced := app.ledger.Entries(domain.LedgerProduced)
	require.Len(t, produced, 2)
	assert.Equal(t, 7, produced[0].Qty)
	assert.Equal(t, 2, produced[1].Qty)
	sent := app.ledger.Entries(domain.LedgerSentToShop)
	require.Len(t, sent, 1)
	assert.Equal(t, 4, sent[0].Qty)
}

func TestPlannedValidation(t *testing.T) {
	app := newTestApp(t, nil)

	rec, resp := app.do(t, http.MethodPost, "/api/planned", map[string]any{"product": "  ", "planned": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errProductRequired, resp["error"])

	rec, resp = app.do(t, http.MethodPost, "/api/planned", map[string]any{"product": "Tulips", "planned": "lots"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errInvalidPlanned, resp["error"])

	rec, resp = app.do(t, http.MethodPost, "/api/products/deactivate", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errProductRequired, resp["error"])

	assert.Zero(t, app.overrides.Len())

	rec, resp = app.do(t, http.MethodPost, "/api/planned", map[string]any{"product": "Tulips", "planned": "12.5"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 12.5, resp["plannedByProduct"].(map[string]any)["Tulips"])
}

func TestPlannedSaveFailure(t *testing.T) {
	app := newTestAppWithStore(t, nil, filepath.Join(t.TempDir(), "no-such-dir", "overrides.json"))

	rec, resp := app.do(t, http.MethodPost, "/api/planned", map[string]any{"product": "Tulips", "planned": 5})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, errSaveOverride, resp["error"])

	rec, resp = app.do(t, http.MethodPost, "/api/products/deactivate", map[string]any{"productName": "Lilies"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, errSaveStatus, resp["error"])

	// Memory keeps the change.
	_, resp = app.do(t, http.MethodGet, "/api/planned", nil)
	assert.Equal(t, 5.0, resp["plannedByProduct"].(map[string]any)["Tulips"])
}

func TestDeletePlannedOverride(t *testing.T) {
	app := newTestApp(t, map[string]float64{"Roses & Baby's Breath": 30})

	rec, _ := app.do(t, http.MethodPost, "/api/planned", map[string]any{"product": "Roses & Baby's Breath", "planned": 45})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = app.do(t, http.MethodPost, "/api/planned", map[string]any{"product": "Sunflower 1/2 DZ", "planned": 6})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp := app.do(t, http.MethodDelete, "/api/planned/Roses%20%26%20Baby's%20Breath", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30.0, resp["plannedByProduct"].(map[string]any)["Roses & Baby's Breath"])

	rec, resp = app.do(t, http.MethodDelete, "/api/planned/Sunflower%201%2F2%20DZ", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, resp["plannedByProduct"], "Sunflower 1/2 DZ")

	// Idempotent.
	rec, resp = app.do(t, http.MethodDelete, "/api/planned/Sunflower%201%2F2%20DZ", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, resp["count"])
	assert.Zero(t, app.overrides.Len())
}

func TestPlannedDebug(t *testing.T) {
	app := newTestApp(t, map[string]float64{"A": 1, "B": 2, "C": 3, "D": 4, "E": 5, "F": 6})

	rec, resp := app.do(t, http.MethodGet, "/api/planned/debug", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, "VD2026.xlsx", resp["plannedPathUsed"])
	assert.Equal(t, false, resp["fileExists"])
	assert.Equal(t, 1.0, resp["detectedProductCol"])
	assert.Equal(t, 0.0, resp["detectedPlannedCol"])
	assert.Equal(t, 6.0, resp["count"])
	assert.Equal(t, []any{"A", "B", "C", "D", "E"}, resp["sampleKeys"])
	assert.Nil(t, resp["loadError"])
	assert.Nil(t, resp["sheetName"])
}

func TestHistory(t *testing.T) {
	app := newTestApp(t, nil)

	app.do(t, http.MethodPost, "/api/warehouse", map[string]any{"date": "2026-02-01", "product": "Tulips", "qty": 10})
	app.do(t, http.MethodPost, "/api/sent-to-shop", map[string]any{"date": "2026-02-02", "product": "Tulips", "qty": 4})

	rec, resp := app.do(t, http.MethodPost, "/api/history", map[string]any{"product": "Tulips", "area": "Manage Products", "type": "manageProducts"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, resp["recorded"])

	rec, resp = app.do(t, http.MethodPost, "/api/history", map[string]any{"product": "Lilies", "area": "Shop", "type": "Shop", "ts": "2026-02-03T10:00:00.000Z", "qty": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["recorded"])

	rec, _ = app.do(t, http.MethodPost, "/api/history", map[string]any{"area": "Shop"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, resp = app.do(t, http.MethodGet, "/api/history", nil)
	history := resp["history"].([]any)
	require.Len(t, history, 3)
	first := history[0].(map[string]any)
	assert.Equal(t, "Lilies", first["product"])
	second := history[1].(map[string]any)
	assert.Equal(t, "Sent to Shop", second["area"])
	for _, h := range history {
		assert.NotEqual(t, "Manage Products", h.(map[string]any)["area"])
	}
}

func TestDashboardExport(t *testing.T) {
	app := newTestApp(t, map[string]float64{"Red Roses": 100, "Tulips": 40})
	app.do(t, http.MethodPost, "/api/warehouse", map[string]any{"date": "2026-02-01", "product": "Red Roses", "qty": 50})

	rec, _ := app.do(t, http.MethodGet, "/api/dashboard/export?format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, "Red Roses", records[1][0])
	assert.Equal(t, "50", records[1][3])
	assert.Equal(t, "Tulips", records[2][0])

	rec, _ = app.do(t, http.MethodGet, "/api/dashboard/export?format=xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Dashboard")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rec, resp := app.do(t, http.MethodGet, "/api/dashboard/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, resp["ok"])
}

type fakeDB struct{ err error }

func (f fakeDB) Health(context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	app := newTestApp(t, nil)

	rec, resp := app.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"ok": true}, resp)

	rec, resp = app.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "backend live", resp["message"])

	r := chi.NewRouter()
	HealthHandler{DB: fakeDB{err: errors.New("down")}}.RegisterRoutes(r)
	down := httptest.NewRecorder()
	r.ServeHTTP(down, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, down.Code)
}

func TestListDateRange(t *testing.T) {
	app := newTestApp(t, nil)
	for _, date := range []string{"2026-02-01", "2026-02-07", "2026-02-14"} {
		rec, _ := app.do(t, http.MethodPost, "/api/produced", map[string]any{"date": date, "product": "Tulips", "qty": 1})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	_, resp := app.do(t, http.MethodGet, "/api/produced?startDate=2026-02-02&endDate=2026-02-14", nil)
	assert.Len(t, resp["entries"], 2)

	_, resp = app.do(t, http.MethodGet, "/api/history?endDate=2026-02-07", nil)
	assert.Len(t, resp["history"], 2)

	rec, resp := app.do(t, http.MethodGet, "/api/sold?startDate=02/01/2026", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid startDate", resp["error"])

	rec, _ = app.do(t, http.MethodGet, "/api/history?startDate=2026-02-14&endDate=2026-02-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
