// Package query implements the three query modes (spec §4.5): THEORY and
// WAITING via Dijkstra over the §4.3 multigraph, REALTIME via the
// Connection Scan Algorithm over the §4.4 connection list, sharing one
// name resolver and post-processing raw paths into human-readable legs.
package query

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antigravity/mtrpath/internal/engineerr"
	"github.com/antigravity/mtrpath/internal/graph"
	"github.com/antigravity/mtrpath/internal/models"
	"github.com/antigravity/mtrpath/internal/namefind"
	"github.com/antigravity/mtrpath/internal/network"
	"github.com/antigravity/mtrpath/internal/pathcache"
	"github.com/antigravity/mtrpath/internal/timetable"
)

// Mode selects which of the three query algorithms to run (spec §2).
type Mode string

const (
	Theory   Mode = "THEORY"
	Waiting  Mode = "WAITING"
	Realtime Mode = "REALTIME"
)

// Request is one route query.
type Request struct {
	Start         string
	End           string
	Mode          Mode
	DepartureTime int // seconds-of-day, REALTIME only
	MaxHour       int // REALTIME horizon in hours; 0 uses the engine default
	Detail        bool
	AvoidStations []string
	IgnoredLines  []string
}

// Result is the query outcome (spec §6.4).
type Result struct {
	QueryID        string
	Legs           []Leg
	TotalSeconds   int
	RidingSeconds  int
	WaitingSeconds int
}

// Engine wires together name resolution, the graph/timetable builders,
// and the cache store behind the three query modes.
type Engine struct {
	Snapshot   *network.Snapshot
	Resolver   *namefind.Resolver
	Intervals  models.IntervalTable
	Departures models.DepartureTable
	Cache      *pathcache.Store
	CSATimeout time.Duration
	DefaultMaxHour int

	// IntervalDataMod/DepartureDataMod are the interval- and
	// departure-data source files' own mtimes, distinct from the network
	// snapshot's mtime, used as the second half of the graph/timetable
	// cache keys (spec §6.3).
	IntervalDataMod  time.Time
	DepartureDataMod time.Time

	routesByName map[string][]models.Route
	routesByID   map[models.RouteID]models.Route
	numToID      map[models.StationNum]models.StationID

	mu         sync.Mutex
	graphs     map[graph.RouteType]*graph.Graph
	origDurs   map[graph.RouteType]graph.OriginalDurations
	templates  map[models.RouteID][]timetable.TemplateConnection
}

// NewEngine builds an Engine over an already-loaded snapshot and tables.
// intervalDataMod/departureDataMod are the interval- and departure-data
// source files' own mtimes, used as the second version slot of the graph
// and timetable cache keys respectively (spec §6.3); pass the zero time if
// a file wasn't loaded.
func NewEngine(snap *network.Snapshot, resolver *namefind.Resolver, intervals models.IntervalTable,
	departures models.DepartureTable, cache *pathcache.Store, csaTimeout time.Duration, defaultMaxHour int,
	intervalDataMod, departureDataMod time.Time) *Engine {

	e := &Engine{
		Snapshot: snap, Resolver: resolver, Intervals: intervals, Departures: departures,
		Cache: cache, CSATimeout: csaTimeout, DefaultMaxHour: defaultMaxHour,
		IntervalDataMod: intervalDataMod, DepartureDataMod: departureDataMod,
		routesByName: make(map[string][]models.Route),
		routesByID:   make(map[models.RouteID]models.Route),
		numToID:      make(map[models.StationNum]models.StationID),
		graphs:       make(map[graph.RouteType]*graph.Graph),
		origDurs:     make(map[graph.RouteType]graph.OriginalDurations),
	}
	for _, r := range snap.Routes {
		e.routesByName[r.Name] = append(e.routesByName[r.Name], r)
		e.routesByID[r.ID] = r
	}
	for id, st := range snap.Stations {
		e.numToID[st.Num] = id
	}
	return e
}

func (e *Engine) nameOf(id models.StationID) string {
	return e.Resolver.NameOf(id)
}

// resolveAvoid resolves a Request's avoid-station names via §4.1 into a set
// of station ids; names that do not resolve are dropped.
func (e *Engine) resolveAvoid(names []string) map[models.StationID]bool {
	out := make(map[models.StationID]bool, len(names))
	for _, n := range names {
		if id, ok := e.Resolver.Resolve(n); ok {
			out[id] = true
		}
	}
	return out
}

// usesDefaultCacheConditions reports whether req's filters satisfy the
// conditions under which the built graph/timetable is a pure function of
// configuration alone, eligible for the on-disk cache (spec §4.3 Step E /
// §4.4 Caching / invariant listed in §3).
func usesDefaultCacheConditions(req Request) bool {
	return len(req.AvoidStations) == 0 && len(req.IgnoredLines) == 0
}

func (e *Engine) graphOptions(req Request, routeType graph.RouteType) graph.Options {
	return graph.Options{
		IgnoredLines:         req.IgnoredLines,
		CalculateHighSpeed:   true,
		CalculateBoat:        true,
		OnlyLRT:              false,
		AvoidStations:        e.resolveAvoid(req.AvoidStations),
		CalculateWalkingWild: true,
		RouteType:            routeType,
		MaxWildBlocks:        graph.DefaultMaxWildBlocks,
	}
}

func (e *Engine) getOrBuildGraph(req Request, routeType graph.RouteType) (*graph.Graph, graph.OriginalDurations, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Only builds under the default filter conditions are safe to reuse
	// across queries (spec §3's cache-purity invariant); any ad-hoc
	// avoid_stations/ignored_lines bypasses both the in-memory and the
	// on-disk cache.
	defaultConditions := usesDefaultCacheConditions(req)
	useDiskCache := defaultConditions && routeType == graph.Waiting && e.Cache != nil
	var cacheKey string
	if useDiskCache {
		cacheKey = pathcache.GraphKey(pathcache.GraphKeyInputs{
			HighSpeed: true, WalkingWild: true,
			StationDataMod: e.Snapshot.ModTime, IntervalDataMod: e.IntervalDataMod,
		})
		var cached struct {
			Graph *graph.Graph
			Orig  graph.OriginalDurations
		}
		if ok, err := e.Cache.Get(cacheKey, &cached); err == nil && ok {
			return cached.Graph, cached.Orig, nil
		}
	}

	if defaultConditions {
		if g, ok := e.graphs[routeType]; ok {
			return g, e.origDurs[routeType], nil
		}
	}

	g, orig, err := graph.Build(e.Snapshot, e.Intervals, e.graphOptions(req, routeType))
	if err != nil {
		return nil, nil, err
	}
	if defaultConditions {
		e.graphs[routeType] = g
		e.origDurs[routeType] = orig
	}

	if useDiskCache {
		_ = e.Cache.Put(cacheKey, struct {
			Graph *graph.Graph
			Orig  graph.OriginalDurations
		}{g, orig})
	}
	return g, orig, nil
}

func (e *Engine) getOrBuildTemplates(req Request) map[models.RouteID][]timetable.TemplateConnection {
	e.mu.Lock()
	defer e.mu.Unlock()

	defaultConditions := usesDefaultCacheConditions(req)
	useDiskCache := defaultConditions && e.Cache != nil
	var cacheKey string
	if useDiskCache {
		cacheKey = pathcache.TimetableKey(pathcache.TimetableKeyInputs{
			HighSpeed: true, WalkingWild: true,
			StationDataMod: e.Snapshot.ModTime, DepartureDataMod: e.DepartureDataMod,
		})
		var cached map[models.RouteID][]timetable.TemplateConnection
		if ok, err := e.Cache.Get(cacheKey, &cached); err == nil && ok {
			e.templates = cached
			return cached
		}
	}

	if defaultConditions && e.templates != nil {
		return e.templates
	}

	opts := timetable.Options{
		IgnoredLines:         req.IgnoredLines,
		CalculateHighSpeed:   true,
		CalculateBoat:        true,
		AvoidStations:        e.resolveAvoid(req.AvoidStations),
		CalculateWalkingWild: true,
		MaxWildBlocks:        graph.DefaultMaxWildBlocks,
	}
	templates := timetable.BuildTemplates(e.Snapshot, opts)
	if defaultConditions {
		e.templates = templates
	}

	if useDiskCache {
		_ = e.Cache.Put(cacheKey, templates)
	}
	return templates
}

// Query dispatches on req.Mode and returns the post-processed result.
func (e *Engine) Query(req Request) (*Result, error) {
	startID, ok := e.Resolver.Resolve(req.Start)
	if !ok {
		return nil, engineerr.ErrStationUnresolved
	}
	endID, ok := e.Resolver.Resolve(req.End)
	if !ok || startID == endID {
		return nil, engineerr.ErrStationUnresolved
	}

	qid := uuid.NewString()

	switch req.Mode {
	case Theory, Waiting:
		routeType := graph.Theory
		if req.Mode == Waiting {
			routeType = graph.Waiting
		}
		g, _, err := e.getOrBuildGraph(req, routeType)
		if err != nil {
			return nil, err
		}
		hops, ok := shortestPath(g, startID, endID)
		if !ok {
			return nil, engineerr.ErrNoPath
		}
		legs := processTheoryPath(hops, e.routesByName, e.nameOf)
		return summarize(qid, legs), nil

	case Realtime:
		templates := e.getOrBuildTemplates(req)
		maxHour := req.MaxHour
		if maxHour <= 0 {
			maxHour = e.DefaultMaxHour
		}
		opts := timetable.Options{
			IgnoredLines: req.IgnoredLines, CalculateHighSpeed: true, CalculateBoat: true,
			AvoidStations: e.resolveAvoid(req.AvoidStations), CalculateWalkingWild: true,
			MaxWildBlocks: graph.DefaultMaxWildBlocks,
		}
		conns, trips, err := timetable.Expand(e.Snapshot, templates, e.Departures, startID, req.DepartureTime, maxHour, opts)
		if err != nil {
			return nil, err
		}
		startNum := e.Snapshot.Stations[startID].Num
		endNum := e.Snapshot.Stations[endID].Num
		res, err := runCSA(conns, startNum, endNum, req.DepartureTime, e.CSATimeout, len(e.Snapshot.Stations))
		if err != nil {
			return nil, err
		}
		legs := processRealtimePath(conns, res.connIdx, trips, e.Snapshot, e.numToID, e.routesByID, e.nameOf, req.Detail)
		return summarize(qid, legs), nil

	default:
		return nil, fmt.Errorf("%w: unknown query mode %q", engineerr.ErrConfig, req.Mode)
	}
}

func summarize(qid string, legs []Leg) *Result {
	total, waiting := 0, 0
	for _, l := range legs {
		total += l.RideSeconds + l.WaitingSeconds
		waiting += l.WaitingSeconds
	}
	return &Result{
		QueryID: qid, Legs: legs,
		TotalSeconds: total, WaitingSeconds: waiting, RidingSeconds: total - waiting,
	}
}
