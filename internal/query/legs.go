package query

import (
	"strings"

	"github.com/antigravity/mtrpath/internal/graph"
	"github.com/antigravity/mtrpath/internal/models"
	"github.com/antigravity/mtrpath/internal/network"
	"github.com/antigravity/mtrpath/internal/timetable"
)

// TerminusKind distinguishes a linear route's fixed two-name direction
// display from a circular route's clockwise/counter-clockwise display,
// replacing the source's positional-tuple trick with an explicit variant
// (spec §9 design notes).
type TerminusKind int

const (
	TerminusLinear TerminusKind = iota
	TerminusCircular
)

// ViaNames names an intermediate station shown on circular-route
// signage ("(Clockwise) Via X") when the leg does not end at the route's
// terminal stop.
type ViaNames struct {
	Primary string
	Alt     string
}

// Terminus encodes a leg's direction-of-travel display (spec §4.5.3
// terminus_tuple).
type Terminus struct {
	Kind            TerminusKind
	Primary, Alt    string           // primary and alternate names of the route's terminal stop; the circular direction is in CircularDir
	CircularDir     models.CircularState // Circular only
	Via             *ViaNames            // Circular only, non-nil if not at the terminal stop
}

// Leg is one post-processed itinerary segment (spec §4.5.3).
type Leg struct {
	FromName       string
	ToName         string
	ColorHex       string
	DisplayRoutes  []string // one name for a ride (an "or" set yields one leg per alternative), nil for a walk
	Terminus       *Terminus
	RideSeconds    int
	WaitingSeconds int
	IntervalSeconds *int
	TransportType   *models.TransportType
	Platform        *string
}

func splitNameVariants(name string) (primary, alt string) {
	primary = name
	alt = name
	if i := strings.Index(name, "|"); i >= 0 {
		primary = name[:i]
		alt = name[i+1:]
		if j := strings.LastIndex(alt, "|"); j >= 0 {
			alt = alt[j+1:]
		}
	}
	return primary, alt
}

// terminusFor computes the direction/terminus display for a ride between
// stations at indices fromIdx < toIdx (not necessarily adjacent) within
// route (spec §4.5.3).
func terminusFor(route models.Route, fromIdx, toIdx int, resolver nameOf) *Terminus {
	n := len(route.Stations)
	lastID := route.Stations[n-1].Station
	primary, alt := splitNameVariants(resolver(lastID))

	if route.Circular == models.CircularNone {
		return &Terminus{Kind: TerminusLinear, Primary: primary, Alt: alt}
	}

	if toIdx == n-1 {
		return &Terminus{
			Kind:        TerminusCircular,
			CircularDir: route.Circular,
			Primary:     primary,
			Alt:         alt,
		}
	}

	nextID := route.Stations[toIdx+1].Station
	viaPrimary, viaAlt := splitNameVariants(resolver(nextID))
	return &Terminus{
		Kind:        TerminusCircular,
		CircularDir: route.Circular,
		Primary:     primary,
		Alt:         alt,
		Via:         &ViaNames{Primary: viaPrimary, Alt: viaAlt},
	}
}

type nameOf func(models.StationID) string

// findRouteForEdge locates the route instance that produced a THEORY/WAITING
// ride edge, by name and by checking the (from, to) pair appears in that
// route's station order. Needed because graph edges only carry the route
// display name, not a stable route id (several route objects may share a
// display name across segments).
func findRouteForEdge(routesByName map[string][]models.Route, name string, from, to models.StationID) (models.Route, bool) {
	for _, r := range routesByName[name] {
		fi, ti := -1, -1
		for i, sv := range r.Stations {
			if sv.Station == from && fi == -1 {
				fi = i
			}
			if sv.Station == to && fi != -1 {
				ti = i
			}
		}
		if fi != -1 && ti != -1 && fi < ti {
			return r, true
		}
	}
	return models.Route{}, false
}

// processTheoryPath turns a Dijkstra reconstruction into legs (spec
// §4.5.1 step 3, §4.5.3 "each multigraph edge ... is already one leg").
func processTheoryPath(hops []pathHop, routesByName map[string][]models.Route, nameOf nameOf) []Leg {
	var legs []Leg
	for _, h := range hops {
		switch h.Edge.Label.Kind {
		case graph.Single:
			name := h.Edge.Label.Names[0]
			leg := Leg{
				FromName:    nameOf(h.From),
				ToName:      nameOf(h.To),
				ColorHex:    "#000000",
				RideSeconds: int(h.Edge.Weight),
			}
			if r, ok := findRouteForEdge(routesByName, name, h.From, h.To); ok {
				leg.ColorHex = colorHex(r.Color)
				leg.DisplayRoutes = []string{name}
				tt := r.Type
				leg.TransportType = &tt
				leg.Terminus = routeTerminusForPair(r, h.From, h.To, nameOf)
			}
			legs = append(legs, leg)
		case graph.Parallel:
			// Emit the leg once per alternative name, sharing the same
			// station pair and times - the renderer shows them as "or"
			// alternatives (spec §4.5.3).
			for _, name := range h.Edge.Label.Names {
				if strings.HasPrefix(name, graph.WalkAlternativePrefix) {
					// Cosmetic placeholder noting a walk also covers this
					// pair (builder.go Step C); not a route, never shown.
					continue
				}
				leg := Leg{
					FromName:       nameOf(h.From),
					ToName:         nameOf(h.To),
					ColorHex:       "#000000",
					RideSeconds:    int(h.Edge.Weight - h.Edge.Waiting),
					WaitingSeconds: int(h.Edge.Waiting),
					DisplayRoutes:  []string{name},
				}
				if r, ok := findRouteForEdge(routesByName, name, h.From, h.To); ok {
					leg.ColorHex = colorHex(r.Color)
					tt := r.Type
					leg.TransportType = &tt
					leg.Terminus = routeTerminusForPair(r, h.From, h.To, nameOf)
				}
				legs = append(legs, leg)
			}
		}
	}
	return legs
}

func routeTerminusForPair(r models.Route, from, to models.StationID, nameOf nameOf) *Terminus {
	fi, ti := -1, -1
	for i, sv := range r.Stations {
		if sv.Station == from && fi == -1 {
			fi = i
		}
		if sv.Station == to && fi != -1 {
			ti = i
		}
	}
	if fi == -1 || ti == -1 {
		return nil
	}
	return terminusFor(r, fi, ti, nameOf)
}

func colorHex(c int) string {
	return "#" + hexPad(c)
}

func hexPad(c int) string {
	const hexDigits = "0123456789abcdef"
	b := make([]byte, 6)
	for i := 5; i >= 0; i-- {
		b[i] = hexDigits[c&0xF]
		c >>= 4
	}
	return string(b)
}

// processRealtimePath performs REALTIME trip coalescing (spec §4.5.3): it
// walks the reconstructed chain backwards, extending each ride connection
// leftwards to the earliest earlier connection belonging to the same
// trip, then optionally merges adjacent legs sharing a route+terminus.
func processRealtimePath(
	conns []timetable.Connection,
	chain []int,
	trips map[int]map[models.StationNum]int,
	snap *network.Snapshot,
	numToID map[models.StationNum]models.StationID,
	routesByID map[models.RouteID]models.Route,
	nameOf nameOf,
	detail bool,
) []Leg {
	coalesced := make([]int, 0, len(chain)) // indices into chain, after left-extension, one per kept leg start
	used := make([]bool, len(chain))

	for i := len(chain) - 1; i >= 0; i-- {
		if used[i] {
			continue
		}
		c := conns[chain[i]]
		if c.TripNo <= 0 {
			coalesced = append(coalesced, i)
			continue
		}
		tripMap := trips[c.TripNo]
		startIdx := i
		for j := i - 1; j >= 0; j-- {
			cj := conns[chain[j]]
			if cj.TripNo != c.TripNo {
				continue
			}
			if dep, ok := tripMap[cj.DepStation]; ok && dep <= conns[chain[startIdx]].DepTime {
				for k := j + 1; k <= i; k++ {
					used[k] = true
				}
				used[j] = true
				startIdx = j
			}
		}
		coalesced = append(coalesced, startIdx)
	}
	// reverse (we walked backwards)
	for l, r := 0, len(coalesced)-1; l < r; l, r = l+1, r-1 {
		coalesced[l], coalesced[r] = coalesced[r], coalesced[l]
	}

	var legs []Leg
	for _, startIdx := range coalesced {
		startConn := conns[chain[startIdx]]
		endPos := startIdx
		for endPos+1 < len(chain) && used[endPos+1] && conns[chain[endPos+1]].TripNo == startConn.TripNo {
			endPos++
		}
		endConn := conns[chain[endPos]]

		leg := Leg{
			FromName: nameOf(numToID[startConn.DepStation]),
			ToName:   nameOf(numToID[endConn.ArrStation]),
			ColorHex: "#000000",
		}
		if startConn.Detail.IsWalk {
			leg.RideSeconds = endConn.ArrTime - startConn.DepTime
			legs = append(legs, leg)
			continue
		}
		leg.RideSeconds = endConn.ArrTime - startConn.DepTime
		if r, ok := routesByID[startConn.Detail.Route]; ok {
			leg.DisplayRoutes = []string{r.Name}
			leg.ColorHex = colorHex(r.Color)
			tt := r.Type
			leg.TransportType = &tt
			fromID := numToID[startConn.DepStation]
			toID := numToID[endConn.ArrStation]
			leg.Terminus = routeTerminusForPair(r, fromID, toID, nameOf)
		}
		platform := startConn.Detail.Platform
		leg.Platform = &platform
		legs = append(legs, leg)
	}

	if !detail {
		legs = mergeAdjacentLegs(legs)
	}
	return legs
}

// mergeAdjacentLegs merges consecutive ride legs that share the same
// route and terminus, hiding forced platform splits (spec §4.5.3).
func mergeAdjacentLegs(legs []Leg) []Leg {
	if len(legs) == 0 {
		return legs
	}
	out := []Leg{legs[0]}
	for _, l := range legs[1:] {
		prev := &out[len(out)-1]
		if sameRouteAndTerminus(*prev, l) {
			prev.ToName = l.ToName
			prev.RideSeconds += l.RideSeconds
			prev.WaitingSeconds += l.WaitingSeconds
			continue
		}
		out = append(out, l)
	}
	return out
}

func sameRouteAndTerminus(a, b Leg) bool {
	if len(a.DisplayRoutes) != 1 || len(b.DisplayRoutes) != 1 {
		return false
	}
	if a.DisplayRoutes[0] != b.DisplayRoutes[0] {
		return false
	}
	if (a.Terminus == nil) != (b.Terminus == nil) {
		return false
	}
	if a.Terminus == nil {
		return true
	}
	return a.Terminus.Primary == b.Terminus.Primary && a.Terminus.Alt == b.Terminus.Alt
}
