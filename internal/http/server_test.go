package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"hobbytrack/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "hobbytrack.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	srv := NewServer(":0", repo, Options{})
	t.Cleanup(func() {
		srv.rateLimiter.stop()
		repo.Close()
	})
	return srv, repo
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func createHobby(t *testing.T, srv *Server, name string) int64 {
	t.Helper()
	rr := do(t, srv, http.MethodPost, "/api/hobbies", `{"name":"`+name+`"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create hobby %q: status %d, body %s", name, rr.Code, rr.Body.String())
	}
	resp := decode[map[string]any](t, rr)
	return int64(resp["id"].(float64))
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(t, srv, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestCreateHobbyAndDuplicate(t *testing.T) {
	srv, _ := newTestServer(t)
	createHobby(t, srv, "Archery")

	rr := do(t, srv, http.MethodPost, "/api/hobbies", `{"name":"Archery"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate should be 400, got %d", rr.Code)
	}
	resp := decode[map[string]string](t, rr)
	if resp["error"] == "" {
		t.Fatalf("error body missing: %s", rr.Body.String())
	}

	list := decode[[]map[string]any](t, do(t, srv, http.MethodGet, "/api/hobbies", ""))
	if len(list) != 1 {
		t.Fatalf("expected exactly one hobby, got %d", len(list))
	}
}

func TestCreateHobbyValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"description":"x"}`},
		{"blank name", `{"name":"   "}`},
		{"negative target", `{"name":"a","target_cost_per_hour":-5}`},
		{"garbage body", `{`},
	}
	for _, tc := range cases {
		if rr := do(t, srv, http.MethodPost, "/api/hobbies", tc.body); rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d", tc.name, rr.Code)
		}
	}
}

func TestUpdateHobby(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createHobby(t, srv, "Archery")
	createHobby(t, srv, "Bouldering")
	base := "/api/hobbies/" + strconv.FormatInt(id, 10)

	// Partial update: description only.
	if rr := do(t, srv, http.MethodPut, base, `{"description":"field archery"}`); rr.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rr.Code, rr.Body.String())
	}
	// Rename collision.
	if rr := do(t, srv, http.MethodPut, base, `{"name":"Bouldering"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("rename collision should be 400, got %d", rr.Code)
	}
	// Set and clear the target.
	if rr := do(t, srv, http.MethodPut, base, `{"target_cost_per_hour":12.5}`); rr.Code != http.StatusOK {
		t.Fatalf("set target: %d", rr.Code)
	}
	// A target that would overflow int64 cents is rejected, not stored.
	if rr := do(t, srv, http.MethodPut, base, `{"target_cost_per_hour":92233720368547758.99}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("overflowing target should be 400, got %d", rr.Code)
	}
	stats := decode[map[string]any](t, do(t, srv, http.MethodGet, base+"/stats", ""))
	hobby := stats["hobby"].(map[string]any)
	if hobby["target_cost_per_hour"] != 12.5 {
		t.Fatalf("target not visible in stats: %v", hobby)
	}
	if rr := do(t, srv, http.MethodPut, base, `{"target_cost_per_hour":null}`); rr.Code != http.StatusOK {
		t.Fatalf("clear target: %d", rr.Code)
	}
	stats = decode[map[string]any](t, do(t, srv, http.MethodGet, base+"/stats", ""))
	if stats["hobby"].(map[string]any)["target_cost_per_hour"] != nil {
		t.Fatalf("target should be cleared: %v", stats)
	}

	// Unknown id.
	if rr := do(t, srv, http.MethodPut, "/api/hobbies/9999", `{"name":"x"}`); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown id should be 404, got %d", rr.Code)
	}
}

func TestDeleteHobbyCascade(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createHobby(t, srv, "Archery")
	idStr := strconv.FormatInt(id, 10)

	do(t, srv, http.MethodPost, "/api/expenses", `{"hobby_id":`+idStr+`,"amount":50}`)
	do(t, srv, http.MethodPost, "/api/activities", `{"hobby_id":`+idStr+`,"duration_hours":2}`)

	if rr := do(t, srv, http.MethodDelete, "/api/hobbies/"+idStr, ""); rr.Code != http.StatusOK {
		t.Fatalf("delete: %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/hobbies/"+idStr+"/stats", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("stats after delete should be 404, got %d", rr.Code)
	}
	expenses := decode[[]map[string]any](t, do(t, srv, http.MethodGet, "/api/expenses", ""))
	if len(expenses) != 0 {
		t.Fatalf("expenses survived cascade: %v", expenses)
	}
	if rr := do(t, srv, http.MethodDelete, "/api/hobbies/"+idStr, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete should be 404, got %d", rr.Code)
	}
}

func TestStatsFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createHobby(t, srv, "Archery")
	idStr := strconv.FormatInt(id, 10)
	base := "/api/hobbies/" + idStr + "/stats"

	// No data: totals zero, KPI null.
	stats := decode[map[string]any](t, do(t, srv, http.MethodGet, base, ""))
	if stats["total_expenses"] != 0.0 || stats["total_hours"] != 0.0 {
		t.Fatalf("fresh hobby totals: %v", stats)
	}
	if stats["expense_per_hour"] != nil {
		t.Fatalf("expense_per_hour should be null, got %v", stats["expense_per_hour"])
	}

	do(t, srv, http.MethodPost, "/api/expenses", `{"hobby_id":`+idStr+`,"amount":100,"date":"2024-03-01"}`)
	// Expense only: still null KPI (cache must have been invalidated).
	stats = decode[map[string]any](t, do(t, srv, http.MethodGet, base, ""))
	if stats["total_expenses"] != 100.0 || stats["expense_per_hour"] != nil {
		t.Fatalf("expense-only stats: %v", stats)
	}

	do(t, srv, http.MethodPost, "/api/activities", `{"hobby_id":`+idStr+`,"duration_hours":4,"date":"2024-03-02"}`)
	stats = decode[map[string]any](t, do(t, srv, http.MethodGet, base, ""))
	if stats["expense_per_hour"] != 25.0 {
		t.Fatalf("expense_per_hour: %v", stats["expense_per_hour"])
	}
}

func TestChartData(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createHobby(t, srv, "Archery")
	idStr := strconv.FormatInt(id, 10)

	do(t, srv, http.MethodPost, "/api/expenses", `{"hobby_id":`+idStr+`,"amount":100,"date":"2024-03-01"}`)
	do(t, srv, http.MethodPost, "/api/activities", `{"hobby_id":`+idStr+`,"duration_hours":5,"date":"2024-03-01"}`)
	do(t, srv, http.MethodPost, "/api/expenses", `{"hobby_id":`+idStr+`,"amount":50,"date":"2024-03-05"}`)
	do(t, srv, http.MethodPost, "/api/activities", `{"hobby_id":`+idStr+`,"duration_hours":5,"date":"2024-03-05"}`)

	points := decode[[]map[string]any](t, do(t, srv, http.MethodGet, "/api/hobbies/"+idStr+"/chart-data", ""))
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %v", points)
	}
	if points[0]["date"] != "2024-03-01" || points[0]["expense_per_hour"] != 20.0 {
		t.Fatalf("first point: %v", points[0])
	}
	if points[1]["date"] != "2024-03-05" || points[1]["expense_per_hour"] != 15.0 {
		t.Fatalf("second point: %v", points[1])
	}

	if rr := do(t, srv, http.MethodGet, "/api/hobbies/9999/chart-data", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown hobby should be 404, got %d", rr.Code)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createHobby(t, srv, "Archery")
	idStr := strconv.FormatInt(id, 10)

	cases := []struct {
		name string
		body string
		code int
	}{
		{"unknown hobby", `{"hobby_id":999,"amount":10}`, http.StatusNotFound},
		{"negative amount", `{"hobby_id":` + idStr + `,"amount":-10}`, http.StatusBadRequest},
		{"string amount", `{"hobby_id":` + idStr + `,"amount":"abc"}`, http.StatusBadRequest},
		{"bad date", `{"hobby_id":` + idStr + `,"amount":10,"date":"soon"}`, http.StatusBadRequest},
		{"zero amount ok", `{"hobby_id":` + idStr + `,"amount":0}`, http.StatusCreated},
	}
	for _, tc := range cases {
		if rr := do(t, srv, http.MethodPost, "/api/expenses", tc.body); rr.Code != tc.code {
			t.Fatalf("%s: status %d, want %d (%s)", tc.name, rr.Code, tc.code, rr.Body.String())
		}
	}
}

func TestCreateActivityRequiresHours(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createHobby(t, srv, "Archery")
	idStr := strconv.FormatInt(id, 10)

	rr := do(t, srv, http.MethodPost, "/api/activities", `{"hobby_id":`+idStr+`}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing duration_hours should be 400, got %d", rr.Code)
	}
	resp := decode[map[string]string](t, rr)
	if !strings.Contains(resp["error"], "duration_hours") {
		t.Fatalf("error should name the field: %q", resp["error"])
	}

	// An explicit zero is a valid logged session.
	if rr := do(t, srv, http.MethodPost, "/api/activities", `{"hobby_id":`+idStr+`,"duration_hours":0}`); rr.Code != http.StatusCreated {
		t.Fatalf("zero hours should be accepted, got %d", rr.Code)
	}
}

func TestListFilterUnknownHobby(t *testing.T) {
	srv, _ := newTestServer(t)
	if rr := do(t, srv, http.MethodGet, "/api/expenses?hobby_id=77", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown filter hobby should be 404, got %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/activities?hobby_id=xyz", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed filter should be 400, got %d", rr.Code)
	}
}

func TestSummary(t *testing.T) {
	srv, _ := newTestServer(t)
	a := createHobby(t, srv, "Archery")
	createHobby(t, srv, "Bouldering")
	aStr := strconv.FormatInt(a, 10)
	do(t, srv, http.MethodPost, "/api/expenses", `{"hobby_id":`+aStr+`,"amount":30}`)
	do(t, srv, http.MethodPost, "/api/activities", `{"hobby_id":`+aStr+`,"duration_hours":3}`)

	entries := decode[[]map[string]any](t, do(t, srv, http.MethodGet, "/api/summary", ""))
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %v", entries)
	}
	// Name-ascending order.
	if entries[0]["name"] != "Archery" || entries[1]["name"] != "Bouldering" {
		t.Fatalf("summary order: %v", entries)
	}
	if entries[0]["expense_per_hour"] != 10.0 {
		t.Fatalf("archery KPI: %v", entries[0])
	}
	if entries[1]["expense_per_hour"] != nil {
		t.Fatalf("bouldering KPI should be null: %v", entries[1])
	}
}

func TestExportImportEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createHobby(t, srv, "Archery")
	idStr := strconv.FormatInt(id, 10)
	do(t, srv, http.MethodPost, "/api/expenses", `{"hobby_id":`+idStr+`,"amount":42,"date":"2024-01-05"}`)

	rr := do(t, srv, http.MethodGet, "/api/export", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export: %d", rr.Code)
	}

	// Import the export into a fresh server.
	srv2, repo2 := newTestServer(t)
	rr2 := do(t, srv2, http.MethodPost, "/api/import", rr.Body.String())
	if rr2.Code != http.StatusOK {
		t.Fatalf("import: %d %s", rr2.Code, rr2.Body.String())
	}
	resp := decode[map[string]any](t, rr2)
	if resp["hobbies_imported"] != 1.0 || resp["expenses_imported"] != 1.0 {
		t.Fatalf("import counts: %v", resp)
	}
	h, err := repo2.GetHobbyByName(context.Background(), "Archery")
	if err != nil || h == nil {
		t.Fatalf("imported hobby missing: %v %v", h, err)
	}

	if rr := do(t, srv2, http.MethodPost, "/api/import", `{"hobbies":[]}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("versionless import should be 400, got %d", rr.Code)
	}
}

func TestStatsUsesCoreRounding(t *testing.T) {
	// Chart values are rounded, raw stats are not; both come from the same
	// core computation.
	srv, _ := newTestServer(t)
	id := createHobby(t, srv, "Archery")
	idStr := strconv.FormatInt(id, 10)
	do(t, srv, http.MethodPost, "/api/expenses", `{"hobby_id":`+idStr+`,"amount":10,"date":"2024-03-01"}`)
	do(t, srv, http.MethodPost, "/api/activities", `{"hobby_id":`+idStr+`,"duration_hours":3,"date":"2024-03-01"}`)

	points := decode[[]map[string]any](t, do(t, srv, http.MethodGet, "/api/hobbies/"+idStr+"/chart-data", ""))
	if points[0]["expense_per_hour"] != 3.33 {
		t.Fatalf("chart rounding: %v", points[0])
	}
}
