package graph

import (
	"fmt"
	"math"
	"sort"

	"github.com/antigravity/mtrpath/internal/models"
	"github.com/antigravity/mtrpath/internal/namefind"
	"github.com/antigravity/mtrpath/internal/network"
)

// admissionRecord is one candidate ride edge for a given (u,v) pair,
// before the §4.3 Step C admission/combination pass.
type admissionRecord struct {
	route    models.RouteID
	name     string
	duration float64
	interval int // WAITING only; 0 in THEORY
}

// Build constructs the multigraph described in spec §4.3, steps A-D, and
// the parallel original_durations map used by leg post-processing.
func Build(snap *network.Snapshot, intervals models.IntervalTable, opts Options) (*Graph, OriginalDurations, error) {
	g := &Graph{
		Adjacency: make(map[models.StationID][]Edge),
		Stations:  make(map[models.StationID]models.Station),
	}
	for id, st := range snap.Stations {
		if st.HasCoords && !opts.AvoidStations[id] {
			g.Stations[id] = st
		}
	}

	declaredWalk := make(map[[2]models.StationID]bool)

	stepA(g, snap, opts, declaredWalk)

	admissions := make(map[[2]models.StationID][]admissionRecord)
	origDur := make(OriginalDurations)
	stepB(g, snap, opts, intervals, admissions, origDur)

	stepC(g, admissions, opts)

	if opts.CalculateWalkingWild {
		stepD(g, opts, declaredWalk)
	}

	return g, origDur, nil
}

func addEdge(g *Graph, from models.StationID, e Edge) {
	g.Adjacency[from] = append(g.Adjacency[from], e)
}

func euclid(a, b models.Station) float64 {
	dx, dz := a.X-b.X, a.Z-b.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// stepA builds interchange edges: declared connections, transfer_addition
// pairs, and (if enabled) wild_addition pairs.
func stepA(g *Graph, snap *network.Snapshot, opts Options, declaredWalk map[[2]models.StationID]bool) {
	// Declared per-station connections.
	for id, st := range g.Stations {
		for _, peer := range st.Connections {
			pst, ok := g.Stations[peer]
			if !ok {
				continue
			}
			dist := euclid(st, pst)
			addEdge(g, id, Edge{
				To:     peer,
				Weight: dist / models.TransferSpeed,
				Label:  SingleLabel(fmt.Sprintf("出站换乘步行 Walk %gm", dist)),
			})
			declaredWalk[[2]models.StationID{id, peer}] = true
		}
	}

	byName := make(map[string][]models.StationID)
	for id, st := range g.Stations {
		byName[st.Name] = append(byName[st.Name], id)
	}

	addNamedPairs := func(table map[string][]string, speed float64) {
		for name, extras := range table {
			sources := byName[name]
			for _, from := range sources {
				fst := g.Stations[from]
				for _, extraName := range extras {
					for _, to := range byName[extraName] {
						if to == from {
							continue
						}
						tst, ok := g.Stations[to]
						if !ok {
							continue
						}
						dist := euclid(fst, tst)
						label := fmt.Sprintf("出站换乘步行 Walk %gm", dist)
						if speed == models.WildSpeed {
							label = fmt.Sprintf("步行 Walk %gm", dist)
						}
						addEdge(g, from, Edge{To: to, Weight: dist / speed, Label: SingleLabel(label)})
						declaredWalk[[2]models.StationID{from, to}] = true
					}
				}
			}
		}
	}

	addNamedPairs(opts.TransferAddition, models.TransferSpeed)
	if opts.CalculateWalkingWild {
		addNamedPairs(opts.WildAddition, models.WildSpeed)
	}
}

// keepRoute applies the ignored_lines / calculate_high_speed /
// calculate_boat / only_lrt filters (spec §4.3 inputs table).
func keepRoute(r models.Route, opts Options) bool {
	if !r.Valid() {
		return false
	}
	for _, ignored := range opts.IgnoredLines {
		if namefind.NamesEquivalent(r.Name, ignored) {
			return false
		}
	}
	if opts.OnlyLRT {
		return r.Type == models.TrainLightRail
	}
	if !opts.CalculateHighSpeed && r.Type == models.TrainHighSpeed {
		return false
	}
	if !opts.CalculateBoat && r.Type.IsBoat() {
		return false
	}
	return true
}

// stepB enumerates ride edges for every valid, kept route across every
// station-pair i<j, accumulating admission records per (u,v).
func stepB(g *Graph, snap *network.Snapshot, opts Options, intervals models.IntervalTable,
	admissions map[[2]models.StationID][]admissionRecord, origDur OriginalDurations) {

	for _, route := range snap.Routes {
		if !keepRoute(route, opts) {
			continue
		}
		n := len(route.Stations)
		interval := 0
		if opts.RouteType == Waiting {
			if route.Type == models.CableCarNormal {
				interval = 2
			} else if iv, ok := lookupInterval(intervals, route.Name); ok {
				interval = iv
			} else {
				continue // not in interval table; route unusable in WAITING mode
			}
		}

		for i := 0; i < n-1; i++ {
			if opts.AvoidStations[route.Stations[i].Station] {
				continue
			}
			if _, ok := g.Stations[route.Stations[i].Station]; !ok {
				continue
			}
			cur := 0.0
			for j := i + 1; j < n; j++ {
				sj := route.Stations[j].Station
				if opts.AvoidStations[sj] {
					break
				}
				if _, ok := g.Stations[sj]; !ok {
					break
				}
				cur += float64(route.Durations[j-1])
				if j > i+1 && snap.ProtocolVersion != 3 {
					// dwell at the intermediate stop j-1 (v4 only; v3
					// dwell times are not part of the ride-time formula).
					cur += float64(route.Stations[j-1].DwellMS) / 1000
				}
				if cur == 0 {
					continue
				}
				si := route.Stations[i].Station
				key := [2]models.StationID{si, sj}
				admissions[key] = append(admissions[key], admissionRecord{
					route: route.ID, name: route.Name, duration: cur, interval: interval,
				})
				origDur[OriginalDurationKey{Route: route.ID, From: si, To: sj}] = int(math.Round(cur))
			}
		}
	}
}

func lookupInterval(table models.IntervalTable, name string) (int, bool) {
	if v, ok := table[name]; ok {
		return v, true
	}
	for k, v := range table {
		if namefind.NamesEquivalent(k, name) {
			return v, true
		}
	}
	return 0, false
}

// stepC performs edge admission/pruning and, in WAITING mode, the
// LCM-based parallel-route combination (spec §4.3 Step C).
func stepC(g *Graph, admissions map[[2]models.StationID][]admissionRecord, opts Options) {
	// Index existing (interchange) edges by (u,v) -> minimum weight, so
	// the walk-alternative check below can look them up.
	existingMin := make(map[[2]models.StationID]float64)
	for from, edges := range g.Adjacency {
		for _, e := range edges {
			key := [2]models.StationID{from, e.To}
			if cur, ok := existingMin[key]; !ok || e.Weight < cur {
				existingMin[key] = e.Weight
			}
		}
	}

	// Deterministic iteration order for reproducible builds.
	keys := make([][2]models.StationID, 0, len(admissions))
	for k := range admissions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	for _, key := range keys {
		records := admissions[key]
		dMin := records[0].duration
		for _, r := range records[1:] {
			if r.duration < dMin {
				dMin = r.duration
			}
		}
		var kept []admissionRecord
		for _, r := range records {
			if r.duration <= dMin+60 {
				kept = append(kept, r)
			}
		}

		switch opts.RouteType {
		case Theory:
			for _, r := range kept {
				addEdge(g, key[0], Edge{To: key[1], Weight: r.duration, Waiting: 0, Label: SingleLabel(r.name)})
			}
		case Waiting:
			names := make([]string, 0, len(kept))
			intervalsSeen := make([]int, 0, len(kept))
			for _, r := range kept {
				names = append(names, r.name)
				iv := r.interval
				if iv <= 0 {
					iv = 10 // §9 Open Question 3: rounded interval 0 treated as 10 for admission
				}
				intervalsSeen = append(intervalsSeen, roundTen(iv))
			}
			w := combinedWaiting(intervalsSeen)

			if walkMin, ok := existingMin[key]; ok && walkMin <= dMin+60 {
				names = append(names, fmt.Sprintf("%s%g", WalkAlternativePrefix, walkMin))
			}

			weight := dMin + w
			if weight > 0 {
				addEdge(g, key[0], Edge{To: key[1], Weight: weight, Waiting: w, Label: ParallelLabel(names)})
			}
		}
	}
}

func roundTen(v int) int {
	return int(math.Round(float64(v)/10) * 10)
}

// combinedWaiting implements the LCM-based expected-waiting formula for a
// set of parallel routes with integer-rounded intervals (spec §4.3 Step
// C, P4): W = L / (2 * sum(L/I_k)), skipping zero intervals in the sum
// (§9 Open Question 3).
func combinedWaiting(intervalsSec []int) float64 {
	var nonZero []int
	for _, iv := range intervalsSec {
		if iv > 0 {
			nonZero = append(nonZero, iv)
		}
	}
	if len(nonZero) == 0 {
		return 0
	}
	l := nonZero[0]
	for _, iv := range nonZero[1:] {
		l = lcm(l, iv)
	}
	sum := 0.0
	for _, iv := range nonZero {
		sum += float64(l) / float64(iv)
	}
	if sum == 0 {
		return 0
	}
	return float64(l) / (2 * sum)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}

// stepD adds wild-walk edges between any two stations within
// MaxWildBlocks that are not already connected by a declared (Step A)
// walk edge, pruning or replacing existing edges that are clearly
// dominated (spec §4.3 Step D).
func stepD(g *Graph, opts Options, declaredWalk map[[2]models.StationID]bool) {
	maxBlocks := opts.MaxWildBlocks
	if maxBlocks <= 0 {
		maxBlocks = DefaultMaxWildBlocks
	}
	maxSq := maxBlocks * maxBlocks

	ids := make([]models.StationID, 0, len(g.Stations))
	for id := range g.Stations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, u := range ids {
		su := g.Stations[u]
		for _, v := range ids {
			if u == v || declaredWalk[[2]models.StationID{u, v}] {
				continue
			}
			sv := g.Stations[v]
			dx, dz := su.X-sv.X, su.Z-sv.Z
			distSq := dx*dx + dz*dz
			if distSq > maxSq {
				continue
			}
			dist := math.Sqrt(distSq)
			w := dist / models.WildSpeed

			minIdx, minWeight, has := minEdgeTo(g, u, v)
			switch {
			case has && minWeight < w-60:
				continue // existing edge already clearly better
			case has && minWeight > w+120:
				removeEdge(g, u, minIdx)
				addEdge(g, u, Edge{To: v, Weight: w, Label: SingleLabel(fmt.Sprintf("步行 Walk %gm", dist))})
			case !has:
				addEdge(g, u, Edge{To: v, Weight: w, Label: SingleLabel(fmt.Sprintf("步行 Walk %gm", dist))})
			default:
				// Comparable; leave existing edge(s) alone but still add
				// the wild walk as an alternative.
				addEdge(g, u, Edge{To: v, Weight: w, Label: SingleLabel(fmt.Sprintf("步行 Walk %gm", dist))})
			}
		}
	}
}

func minEdgeTo(g *Graph, from, to models.StationID) (idx int, weight float64, ok bool) {
	best := -1
	bestW := math.Inf(1)
	for i, e := range g.Adjacency[from] {
		if e.To == to && e.Weight < bestW {
			best = i
			bestW = e.Weight
		}
	}
	if best == -1 {
		return 0, 0, false
	}
	return best, bestW, true
}

func removeEdge(g *Graph, from models.StationID, idx int) {
	edges := g.Adjacency[from]
	g.Adjacency[from] = append(edges[:idx], edges[idx+1:]...)
}
