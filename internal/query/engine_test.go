package query

import (
	"testing"
	"time"

	"github.com/antigravity/mtrpath/internal/engineerr"
	"github.com/antigravity/mtrpath/internal/graph"
	"github.com/antigravity/mtrpath/internal/models"
	"github.com/antigravity/mtrpath/internal/namefind"
	"github.com/antigravity/mtrpath/internal/network"
)

func linearSnapshot() *network.Snapshot {
	stations := map[models.StationID]models.Station{
		// Stations sit further apart than the wild-walk limit, so every
		// path has to ride.
		"a": {ID: "a", Name: "Alpha", HasCoords: true, X: 0, Z: 0, Num: 1},
		"b": {ID: "b", Name: "Bravo", HasCoords: true, X: 1000, Z: 0, Num: 2},
		"c": {ID: "c", Name: "Charlie", HasCoords: true, X: 2000, Z: 0, Num: 3},
	}
	route := models.Route{
		ID:   "r1",
		Name: "Line 1",
		Type: models.TrainNormal,
		Stations: []models.StationVisit{
			{Station: "a"}, {Station: "b"}, {Station: "c"},
		},
		Durations: []int{100, 150},
	}
	return &network.Snapshot{Stations: stations, Routes: []models.Route{route}}
}

func newTestEngine(snap *network.Snapshot) *Engine {
	resolver := namefind.NewResolver(snap.Stations, nil, true)
	return NewEngine(snap, resolver, nil, nil, nil, time.Minute, 3, time.Time{}, time.Time{})
}

// TestQueryTheoryMinimalLinear is the "minimal linear route" end-to-end
// scenario (spec §8): a straight-line network with one route should
// produce a single leg covering the whole ride.
func TestQueryTheoryMinimalLinear(t *testing.T) {
	e := newTestEngine(linearSnapshot())
	res, err := e.Query(Request{Start: "Alpha", End: "Charlie", Mode: Theory})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Legs) != 1 {
		t.Fatalf("expected a single leg for a minimal linear route, got %d", len(res.Legs))
	}
	if res.TotalSeconds != 250 {
		t.Errorf("total seconds = %d, want 250", res.TotalSeconds)
	}
}

// TestQueryUnresolvedStationName is the "unresolved name" end-to-end
// scenario.
func TestQueryUnresolvedStationName(t *testing.T) {
	e := newTestEngine(linearSnapshot())
	_, err := e.Query(Request{Start: "Zzyzx", End: "Charlie", Mode: Theory})
	if err == nil {
		t.Fatalf("expected an error for an unresolved station name")
	}
	if err != engineerr.ErrStationUnresolved {
		t.Errorf("error = %v, want ErrStationUnresolved", err)
	}
}

// TestQuerySameStartAndEndUnresolved checks that resolving start == end is
// treated as unresolved (spec §4.5 dispatch).
func TestQuerySameStartAndEndUnresolved(t *testing.T) {
	e := newTestEngine(linearSnapshot())
	_, err := e.Query(Request{Start: "Alpha", End: "Alpha", Mode: Theory})
	if err != engineerr.ErrStationUnresolved {
		t.Errorf("error = %v, want ErrStationUnresolved", err)
	}
}

// TestQueryNoPathWithAvoidStations is the "no path with avoid_stations"
// end-to-end scenario: avoiding the only intermediate station on a
// linear route must make the destination unreachable.
func TestQueryNoPathWithAvoidStations(t *testing.T) {
	e := newTestEngine(linearSnapshot())
	_, err := e.Query(Request{
		Start: "Alpha", End: "Charlie", Mode: Theory,
		AvoidStations: []string{"Bravo"},
	})
	if err != engineerr.ErrNoPath {
		t.Errorf("error = %v, want ErrNoPath", err)
	}
}

// TestQueryWaitingModeParallelRoutes is the "parallel routes" end-to-end
// scenario: two routes serving the same station pair must combine into
// one leg with a non-zero waiting time in WAITING mode.
func TestQueryWaitingModeParallelRoutes(t *testing.T) {
	snap := linearSnapshot()
	second := models.Route{
		ID:   "r2",
		Name: "Line 2",
		Type: models.TrainNormal,
		Stations: []models.StationVisit{
			{Station: "a"}, {Station: "b"}, {Station: "c"},
		},
		Durations: []int{110, 140},
	}
	snap.Routes = append(snap.Routes, second)
	e := newTestEngine(snap)
	e.Intervals = models.IntervalTable{"Line 1": 600, "Line 2": 900}

	res, err := e.Query(Request{Start: "Alpha", End: "Charlie", Mode: Waiting})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Legs) == 0 {
		t.Fatalf("expected at least one leg")
	}
	if res.WaitingSeconds <= 0 {
		t.Errorf("combined parallel routes should contribute a positive waiting time, got %d", res.WaitingSeconds)
	}
}

// TestQueryDefaultConditionsCacheReuse exercises the in-memory graph cache:
// a second query under default filter conditions must reuse the graph
// built by the first (same pointer), while a custom-filtered query must
// not observe or pollute that cache.
func TestQueryDefaultConditionsCacheReuse(t *testing.T) {
	e := newTestEngine(linearSnapshot())

	g1, _, err := e.getOrBuildGraph(Request{Mode: Theory}, graph.Theory)
	if err != nil {
		t.Fatalf("getOrBuildGraph: %v", err)
	}
	g2, _, err := e.getOrBuildGraph(Request{Mode: Theory}, graph.Theory)
	if err != nil {
		t.Fatalf("getOrBuildGraph: %v", err)
	}
	if g1 != g2 {
		t.Errorf("two default-condition builds should reuse the same cached graph")
	}

	customReq := Request{Mode: Theory, AvoidStations: []string{"Bravo"}}
	g3, _, err := e.getOrBuildGraph(customReq, graph.Theory)
	if err != nil {
		t.Fatalf("getOrBuildGraph: %v", err)
	}
	if g3 == g1 {
		t.Errorf("a custom-filtered build must not reuse the default-condition cached graph")
	}
	if _, ok := e.graphs[graph.Theory]; !ok {
		t.Fatalf("default-condition graph should still be cached after the custom build")
	}
	if e.graphs[graph.Theory] != g1 {
		t.Errorf("the custom-filtered build must not have overwritten the default-condition cache entry")
	}
}
