package query

import (
	"testing"

	"github.com/antigravity/mtrpath/internal/graph"
	"github.com/antigravity/mtrpath/internal/models"
)

func nameLookup(names map[models.StationID]string) nameOf {
	return func(id models.StationID) string { return names[id] }
}

func linearRoute() models.Route {
	return models.Route{
		ID:   "r1",
		Name: "Line 1",
		Type: models.TrainNormal,
		Stations: []models.StationVisit{
			{Station: "a"}, {Station: "b"}, {Station: "c"},
		},
	}
}

func TestProcessTheoryPathSingleLeg(t *testing.T) {
	routesByName := map[string][]models.Route{"Line 1": {linearRoute()}}
	names := map[models.StationID]string{"a": "A", "b": "B", "c": "C"}
	hops := []pathHop{
		{From: "a", To: "c", Edge: graph.Edge{Weight: 300, Label: graph.SingleLabel("Line 1")}},
	}
	legs := processTheoryPath(hops, routesByName, nameLookup(names))
	if len(legs) != 1 {
		t.Fatalf("expected 1 leg, got %d", len(legs))
	}
	if legs[0].FromName != "A" || legs[0].ToName != "C" {
		t.Errorf("leg endpoints = %s -> %s, want A -> C", legs[0].FromName, legs[0].ToName)
	}
	if legs[0].Terminus == nil || legs[0].Terminus.Kind != TerminusLinear {
		t.Fatalf("expected a linear terminus for a non-circular route")
	}
	if legs[0].Terminus.Primary != "C" {
		t.Errorf("linear terminus should name the route's final stop, got %s", legs[0].Terminus.Primary)
	}
}

func TestProcessTheoryPathParallelExpandsToOneLegPerAlternative(t *testing.T) {
	routesByName := map[string][]models.Route{
		"Line 1": {linearRoute()},
		"Line 2": {func() models.Route { r := linearRoute(); r.Name = "Line 2"; r.ID = "r2"; return r }()},
	}
	names := map[models.StationID]string{"a": "A", "b": "B", "c": "C"}
	hops := []pathHop{
		{From: "a", To: "c", Edge: graph.Edge{
			Weight: 300, Waiting: 50,
			Label: graph.ParallelLabel([]string{"Line 1", "Line 2"}),
		}},
	}
	legs := processTheoryPath(hops, routesByName, nameLookup(names))
	if len(legs) != 2 {
		t.Fatalf("expected one leg per parallel alternative, got %d", len(legs))
	}
}

func TestTerminusCircularAtTerminal(t *testing.T) {
	route := models.Route{
		Circular: models.CircularCW,
		Stations: []models.StationVisit{{Station: "a"}, {Station: "b"}, {Station: "a"}},
	}
	names := map[models.StationID]string{"a": "A"}
	term := terminusFor(route, 0, 2, nameLookup(names))
	if term.Kind != TerminusCircular {
		t.Fatalf("expected a circular terminus")
	}
	if term.CircularDir != models.CircularCW {
		t.Errorf("terminus direction = %v, want cw", term.CircularDir)
	}
	if term.Via != nil {
		t.Errorf("arriving at the terminal stop should not set Via")
	}
}

func TestTerminusCircularViaIntermediate(t *testing.T) {
	route := models.Route{
		Circular: models.CircularCW,
		Stations: []models.StationVisit{{Station: "a"}, {Station: "b"}, {Station: "c"}, {Station: "a"}},
	}
	names := map[models.StationID]string{"a": "A", "b": "B", "c": "C"}
	term := terminusFor(route, 0, 1, nameLookup(names))
	if term.Via == nil {
		t.Fatalf("a ride ending before the terminal stop should set Via")
	}
	if term.Via.Primary != "C" {
		t.Errorf("Via should name the next station after the ride's end, got %s", term.Via.Primary)
	}
}

func TestMergeAdjacentLegsSameRouteAndTerminus(t *testing.T) {
	term := &Terminus{Kind: TerminusLinear, Primary: "Z"}
	legs := []Leg{
		{FromName: "A", ToName: "B", DisplayRoutes: []string{"Line 1"}, Terminus: term, RideSeconds: 100},
		{FromName: "B", ToName: "C", DisplayRoutes: []string{"Line 1"}, Terminus: term, RideSeconds: 50},
	}
	merged := mergeAdjacentLegs(legs)
	if len(merged) != 1 {
		t.Fatalf("expected the two same-route legs to merge, got %d", len(merged))
	}
	if merged[0].ToName != "C" || merged[0].RideSeconds != 150 {
		t.Errorf("merged leg = %+v, want ToName=C RideSeconds=150", merged[0])
	}
}

func TestMergeAdjacentLegsDifferentRoutesStaySeparate(t *testing.T) {
	legs := []Leg{
		{FromName: "A", ToName: "B", DisplayRoutes: []string{"Line 1"}},
		{FromName: "B", ToName: "C", DisplayRoutes: []string{"Line 2"}},
	}
	merged := mergeAdjacentLegs(legs)
	if len(merged) != 2 {
		t.Errorf("legs on different routes must not merge, got %d", len(merged))
	}
}
