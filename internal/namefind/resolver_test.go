package namefind

import (
	"testing"

	"github.com/antigravity/mtrpath/internal/models"
)

func testStations() map[models.StationID]models.Station {
	return map[models.StationID]models.Station{
		"s1": {ID: "s1", Name: "Central Station", HasCoords: true, X: 0, Z: 0},
		"s2": {ID: "s2", Name: "North Pier|North Wharf", HasCoords: true, X: 10, Z: 0},
		"s3": {ID: "s3", Name: "Harbour/Port Junction", HasCoords: true, X: 20, Z: 0},
		"s4": {ID: "s4", Name: "No Coords Stop", HasCoords: false},
	}
}

func TestResolveExactMatch(t *testing.T) {
	r := NewResolver(testStations(), nil, false)
	id, ok := r.Resolve("Central Station")
	if !ok || id != "s1" {
		t.Fatalf("Resolve(Central Station) = (%v, %v), want (s1, true)", id, ok)
	}
}

func TestResolveNameVariantAfterPipe(t *testing.T) {
	r := NewResolver(testStations(), nil, false)
	id, ok := r.Resolve("North Wharf")
	if !ok || id != "s2" {
		t.Fatalf("Resolve(North Wharf) = (%v, %v), want (s2, true)", id, ok)
	}
}

func TestResolveAlias(t *testing.T) {
	r := NewResolver(testStations(), map[string]string{"downtown": "Central Station"}, false)
	id, ok := r.Resolve("Downtown")
	if !ok || id != "s1" {
		t.Fatalf("Resolve(Downtown) via alias = (%v, %v), want (s1, true)", id, ok)
	}
}

func TestResolveUnresolvedWithoutFuzzy(t *testing.T) {
	r := NewResolver(testStations(), nil, false)
	if _, ok := r.Resolve("Totally Unknown Place"); ok {
		t.Errorf("Resolve should fail for an unrelated name with fuzzy matching disabled")
	}
}

func TestResolveFuzzyFallback(t *testing.T) {
	r := NewResolver(testStations(), nil, true)
	id, ok := r.Resolve("Centrl Staton")
	if !ok || id != "s1" {
		t.Fatalf("fuzzy Resolve(Centrl Staton) = (%v, %v), want (s1, true)", id, ok)
	}
}

func TestResolveSkipsStationsWithoutCoords(t *testing.T) {
	r := NewResolver(testStations(), nil, false)
	if _, ok := r.Resolve("No Coords Stop"); ok {
		t.Errorf("stations without coordinates must never be resolvable (unusable for pathfinding)")
	}
}

// TestResolveNameOfRoundTrip is property P7: resolve(name_of(id)) == id.
func TestResolveNameOfRoundTrip(t *testing.T) {
	stations := testStations()
	r := NewResolver(stations, nil, false)
	for id := range stations {
		st := stations[id]
		if !st.HasCoords {
			continue
		}
		name := r.NameOf(id)
		got, ok := r.Resolve(name)
		if !ok || got != id {
			t.Errorf("Resolve(NameOf(%v)) = (%v, %v), want (%v, true)", id, got, ok, id)
		}
	}
}

func TestResolveEmptyInput(t *testing.T) {
	r := NewResolver(testStations(), nil, true)
	if _, ok := r.Resolve("   "); ok {
		t.Errorf("Resolve of blank input must fail")
	}
}
