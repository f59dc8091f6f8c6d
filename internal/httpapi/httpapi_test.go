package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/antigravity/mtrpath/internal/models"
	"github.com/antigravity/mtrpath/internal/namefind"
	"github.com/antigravity/mtrpath/internal/network"
	"github.com/antigravity/mtrpath/internal/query"
)

func testEngine() *query.Engine {
	stations := map[models.StationID]models.Station{
		"a": {ID: "a", Name: "Alpha", HasCoords: true, X: 0, Z: 0, Num: 1},
		"b": {ID: "b", Name: "Bravo", HasCoords: true, X: 10, Z: 0, Num: 2},
	}
	route := models.Route{
		ID: "r1", Name: "Line 1", Type: models.TrainNormal,
		Stations: []models.StationVisit{{Station: "a"}, {Station: "b"}},
		Durations: []int{100},
	}
	snap := &network.Snapshot{Stations: stations, Routes: []models.Route{route}}
	resolver := namefind.NewResolver(stations, nil, true)
	return query.NewEngine(snap, resolver, nil, nil, nil, time.Minute, 3, time.Time{}, time.Time{})
}

func testServer() *httptest.Server {
	r := chi.NewRouter()
	NewHandler(testEngine()).Mount(r)
	return httptest.NewServer(r)
}

func TestGetRouteSuccess(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/route?start=Alpha&end=Bravo&mode=theory")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var result query.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Legs) != 1 {
		t.Errorf("expected one leg, got %d", len(result.Legs))
	}
}

func TestGetRouteUnresolvedStationReturns422(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/route?start=Nowhere&end=Bravo")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "station_unresolved" {
		t.Errorf("error kind = %q, want station_unresolved", body["error"])
	}
}

func TestGetRouteDefaultModeIsTheory(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/route?start=Alpha&end=Bravo")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 with the default THEORY mode", resp.StatusCode)
	}
}
