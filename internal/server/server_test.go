package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hlxtech/licitacost/internal/config"
	"github.com/hlxtech/licitacost/internal/report"
	"github.com/hlxtech/licitacost/internal/store"
)

func newTestHandler(t *testing.T) (http.Handler, *config.Configuration) {
	t.Helper()

	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})

	conf := config.Default()
	conf.Storage.DatabasePath = filepath.Join(dir, "test.db")
	conf.Storage.ReportsDir = filepath.Join(dir, "reports")

	return NewHandler(zap.NewNop(), st, conf, "test"), conf
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response body: %v\nbody: %s", err, rec.Body.String())
	}
}

func TestVersionEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/version", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload map[string]string
	decodeBody(t, rec, &payload)
	if payload["version"] != "test" {
		t.Errorf("expected version %q, got %q", "test", payload["version"])
	}
}

func TestConfigExportEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/config", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload map[string]string
	decodeBody(t, rec, &payload)
	yaml := payload["configYaml"]
	for _, want := range []string{"homestate: MG", "interstaterate: 0.12"} {
		if !strings.Contains(yaml, want) {
			t.Errorf("config yaml missing %q:\n%s", want, yaml)
		}
	}
}

func TestProjectEndpointsLifecycle(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/projects", map[string]string{
		"project_number": "PE-2025-001",
		"client_name":    "Prefeitura de Contagem",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var header store.ProjectHeader
	decodeBody(t, rec, &header)
	if header.ID == 0 || header.ProjectNumber != "PE-2025-001" {
		t.Errorf("unexpected created header: %+v", header)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/projects", map[string]string{
		"project_number": "PE-2025-001",
		"client_name":    "Outro Cliente",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate create: expected 409, got %d", rec.Code)
	}

	header.GrossSale = 300.0
	header.PurchaseState = "SP"
	header.SaleState = "RJ"
	header.SimplesRate = 0.05
	rec = doJSON(t, h, http.MethodPut, "/api/projects/PE-2025-001", header)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/projects", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var list []store.ProjectHeader
	decodeBody(t, rec, &list)
	if len(list) != 1 || list[0].GrossSale != 300.0 {
		t.Errorf("unexpected project list: %+v", list)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/projects/PE-2025-001", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/projects/PE-2025-001", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestItemEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/projects", map[string]string{
		"project_number": "PE-2025-002",
		"client_name":    "Cliente",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: expected 201, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/projects/PE-2025-002/products", report.Product{
		Description:  "Cadeira escritório",
		PurchaseCost: 100.0,
		SalePrice:    150.0,
		Qty:          2,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add product: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var prod store.ProductRow
	decodeBody(t, rec, &prod)

	rec = doJSON(t, h, http.MethodPost, "/api/projects/PE-2025-002/costs", report.OtherCost{
		Description: "Frete",
		Cost:        35.0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add cost: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var cost store.OtherCostRow
	decodeBody(t, rec, &cost)

	updated := prod.Product
	updated.SalePrice = 160.0
	rec = doJSON(t, h, http.MethodPut, fmt.Sprintf("/api/projects/PE-2025-002/products/%d", prod.ID), updated)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("update product: expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/projects/PE-2025-002", nil)
	var detail store.ProjectDetail
	decodeBody(t, rec, &detail)
	if len(detail.Products) != 1 || detail.Products[0].SalePrice != 160.0 {
		t.Errorf("unexpected products after update: %+v", detail.Products)
	}
	if len(detail.OtherCosts) != 1 || detail.OtherCosts[0].Cost != 35.0 {
		t.Errorf("unexpected other costs: %+v", detail.OtherCosts)
	}

	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/projects/PE-2025-002/costs/%d", cost.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete cost: expected 204, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/projects/PE-2025-002/costs/%d", cost.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete missing cost: expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPut, "/api/projects/PE-2025-002/products/abc", updated)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad item id: expected 400, got %d", rec.Code)
	}
}

func seedReferenceProject(t *testing.T, h http.Handler) {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/api/projects", map[string]string{
		"project_number": "PE-2025-003",
		"client_name":    "Prefeitura",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: expected 201, got %d", rec.Code)
	}
	var header store.ProjectHeader
	decodeBody(t, rec, &header)

	header.PurchaseState = "SP"
	header.SaleState = "RJ"
	header.SimplesRate = 0.05
	rec = doJSON(t, h, http.MethodPut, "/api/projects/PE-2025-003", header)
	if rec.Code != http.StatusOK {
		t.Fatalf("update project: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/api/projects/PE-2025-003/products", report.Product{
		Description:  "Cadeira escritório",
		PurchaseCost: 100.0,
		SalePrice:    150.0,
		Qty:          2,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add product: expected 201, got %d", rec.Code)
	}
}

func TestReportEndpointComputesTotals(t *testing.T) {
	h, _ := newTestHandler(t)
	seedReferenceProject(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/projects/PE-2025-003/report", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("report: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var rep report.Report
	decodeBody(t, rec, &rep)

	checks := map[string]struct{ got, want float64 }{
		"gross_sale":      {rep.GrossSale, 300.0},
		"das_total":       {rep.DasTotal, 15.0},
		"total_purchase":  {rep.TotalPurchase, 200.0},
		"total_difal_in":  {rep.TotalDifalIn, 12.0},
		"total_difal_out": {rep.TotalDifalOut, 24.0},
		"total_cost":      {rep.TotalCost, 251.0},
		"net_value":       {rep.NetValue, 49.0},
	}
	for field, c := range checks {
		if math.Abs(c.got-c.want) > 0.001 {
			t.Errorf("%s: expected %v, got %v", field, c.want, c.got)
		}
	}
	if rep.CompanyState != "MG" {
		t.Errorf("expected company_state MG, got %q", rep.CompanyState)
	}
	if math.Abs(rep.MinSaleForProfit["10%"]-278.89) > 0.01 {
		t.Errorf("expected 10%% min sale 278.89, got %v", rep.MinSaleForProfit["10%"])
	}
}

func TestReportEndpointMissingProject(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/projects/missing/report", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSaveAndListReportEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)
	seedReferenceProject(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/projects/PE-2025-003/report", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save report: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var saved store.SavedReport
	decodeBody(t, rec, &saved)
	if saved.ID == "" || saved.ProjectNumber != "PE-2025-003" {
		t.Errorf("unexpected saved report: %+v", saved)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/projects/PE-2025-003/reports", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list reports: expected 200, got %d", rec.Code)
	}
	var reports []store.SavedReport
	decodeBody(t, rec, &reports)
	if len(reports) != 1 || reports[0].ID != saved.ID {
		t.Errorf("unexpected report list: %+v", reports)
	}
}

func TestExportReportEndpoint(t *testing.T) {
	h, conf := newTestHandler(t)
	seedReferenceProject(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/projects/PE-2025-003/report/export", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("export: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload map[string]string
	decodeBody(t, rec, &payload)
	path := payload["path"]
	if filepath.Dir(path) != conf.Storage.ReportsDir {
		t.Errorf("expected export under %s, got %s", conf.Storage.ReportsDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read exported report: %v", err)
	}
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("unmarshal exported report: %v", err)
	}
	if rep.ProjectNumber != "PE-2025-003" {
		t.Errorf("unexpected exported project number %q", rep.ProjectNumber)
	}
}
