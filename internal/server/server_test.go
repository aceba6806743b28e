package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/unrestwatch/internal/aggregate"
	"github.com/TobiSchelling/unrestwatch/internal/database"
	"github.com/TobiSchelling/unrestwatch/internal/logging"
	"github.com/TobiSchelling/unrestwatch/internal/record"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seed stores a Kenya and a Côte d'Ivoire series over 1 to 40 March 2024.
func seed(t *testing.T, db *database.DB) {
	t.Helper()
	recs := []record.EnrichedRecord{
		{Country: "Kenya", Date: "10/03/2024", Protest: record.Yes, Anticipated: record.Yes},
		{Country: "Kenya", Date: "09/04/2024", Protest: record.Yes, Suppression: record.Yes},
		{Country: "Côte d'Ivoire", Date: "02/03/2024", Protest: record.Yes},
	}
	s := aggregate.Build(recs, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	if err := db.ReplaceDailySeries(s.Daily); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceMonthlySeries(s.Monthly); err != nil {
		t.Fatal(err)
	}
}

func newServer(t *testing.T, db *database.DB) *Server {
	t.Helper()
	srv, err := New(db, logging.Discard())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndexRoute(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	rec := get(t, newServer(t, db), "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Countries") || !strings.Contains(body, `href="/country/Kenya"`) {
		t.Errorf("index missing country list:\n%s", body)
	}
}

func TestIndexRouteEmpty(t *testing.T) {
	rec := get(t, newServer(t, openTestDB(t)), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No series available") {
		t.Error("expected empty notice")
	}
}

func TestCountryRoute(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	srv := newServer(t, db)

	rec := get(t, srv, "/country/Kenya")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1>Kenya</h1>") {
		t.Error("expected rendered report heading")
	}
	if !strings.Contains(body, "<table>") || !strings.Contains(body, "Index of Preventiveness") {
		t.Error("expected rendered monthly table")
	}
	if !strings.Contains(body, "Recent days") {
		t.Error("expected recent days section")
	}

	if rec := get(t, srv, "/country/C%C3%B4te%20d%27Ivoire"); rec.Code != http.StatusOK {
		t.Errorf("escaped country name: expected 200, got %d", rec.Code)
	}
	if rec := get(t, srv, "/country/Atlantis"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown country: expected 404, got %d", rec.Code)
	}
}

func TestCountriesAPI(t *testing.T) {
	db := openTestDB(t)
	srv := newServer(t, db)

	rec := get(t, srv, "/api/countries")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty store: got %s", rec.Body.String())
	}

	seed(t, db)
	rec = get(t, srv, "/api/countries")
	var got []string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0] != "Côte d'Ivoire" || got[1] != "Kenya" {
		t.Errorf("countries = %v", got)
	}
}

func TestDailyAPI(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	srv := newServer(t, db)

	rec := get(t, srv, "/api/series/daily?country=Kenya&days=31")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var points []dailyPoint
	if err := json.Unmarshal(rec.Body.Bytes(), &points); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(points) != 31 {
		t.Fatalf("expected 31 points, got %d", len(points))
	}
	if points[0].Date != "2024-03-10" || points[0].Protest != 1 || points[0].Anticipated != 1 {
		t.Errorf("first point = %+v", points[0])
	}
	if last := points[30]; last.Date != "2024-04-09" || last.Suppression != 1 {
		t.Errorf("last point = %+v", last)
	}

	tests := []struct {
		target string
		code   int
	}{
		{"/api/series/daily", http.StatusBadRequest},
		{"/api/series/daily?country=Kenya&days=0", http.StatusBadRequest},
		{"/api/series/daily?country=Kenya&days=abc", http.StatusBadRequest},
		{"/api/series/daily?country=Atlantis", http.StatusNotFound},
	}
	for _, tt := range tests {
		if rec := get(t, srv, tt.target); rec.Code != tt.code {
			t.Errorf("GET %s: expected %d, got %d", tt.target, tt.code, rec.Code)
		}
	}
}

func TestMonthlyAPI(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	srv := newServer(t, db)

	rec := get(t, srv, "/api/series/monthly?country=Kenya")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var points []monthlyPoint
	if err := json.Unmarshal(rec.Body.Bytes(), &points); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 months, got %d", len(points))
	}
	// March: anticipated protest, nothing suppressed.
	if points[0].Month != "2024-03" || points[0].Preventiveness != 0 {
		t.Errorf("march = %+v", points[0])
	}
	if points[1].Month != "2024-04" || points[1].Suppression != 1 || points[1].Preventiveness != 1 {
		t.Errorf("april = %+v", points[1])
	}

	if rec := get(t, srv, "/api/series/monthly"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing country: expected 400, got %d", rec.Code)
	}
}

func TestStatusAPI(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	rec := get(t, newServer(t, db), "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["countries"].(float64) != 2 {
		t.Errorf("status = %v", got)
	}
	if _, ok := got["last_run"]; ok {
		t.Error("no run recorded, expected no last_run")
	}
}

func TestStaticRoute(t *testing.T) {
	rec := get(t, newServer(t, openTestDB(t)), "/static/style.css")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
