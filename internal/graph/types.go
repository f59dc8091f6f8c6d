// Package graph builds the weighted directed multigraph used by the
// THEORY and WAITING query modes: one node per usable station, edges for
// interchange walks, ride segments (one per route serving a station
// pair, or a combined parallel-route edge in WAITING mode), and optional
// wild-walk edges.
package graph

import "github.com/antigravity/mtrpath/internal/models"

// LabelKind distinguishes a single-route edge from a parallel-route edge,
// replacing the source's "str vs list" positional trick with an explicit
// sum type (spec §9 design notes).
type LabelKind int

const (
	Single LabelKind = iota
	Parallel
)

// Label names the route(s) a ride edge belongs to, or the walk-kind
// string for a walk edge.
type Label struct {
	Kind  LabelKind
	Names []string // len 1 for Single; the parallel set for Parallel
}

func SingleLabel(name string) Label  { return Label{Kind: Single, Names: []string{name}} }
func ParallelLabel(names []string) Label { return Label{Kind: Parallel, Names: names} }

// WalkAlternativePrefix marks a Parallel edge's cosmetic "a walk also
// covers this pair" entry (spec §4.3 Step C). It is not a route name and
// callers rendering Label.Names for display must filter it out.
const WalkAlternativePrefix = "walk:"

// Edge is one directed multigraph edge: a ride, an interchange walk, or a
// wild walk.
type Edge struct {
	To      models.StationID
	Weight  float64 // seconds
	Waiting float64 // seconds, 0 outside WAITING mode
	Label   Label
}

// Graph is a directed multigraph keyed by source station.
type Graph struct {
	Adjacency map[models.StationID][]Edge
	Stations  map[models.StationID]models.Station
}

// OriginalDurationKey identifies one (route, station-pair) ride duration.
// Keeping this as a field of the build result - rather than a
// process-global map keyed only on (route, u, v) the way the source
// engine does it - avoids concurrent builds with differing
// configurations corrupting each other's lookups (spec §9 design notes).
type OriginalDurationKey struct {
	Route models.RouteID
	From  models.StationID
	To    models.StationID
}

type OriginalDurations map[OriginalDurationKey]int

// RouteType selects which edge-admission rules apply: THEORY keeps every
// admitted ride edge as its own single-name edge; WAITING combines
// admitted parallel routes into one edge carrying an expected-waiting
// contribution.
type RouteType int

const (
	Theory RouteType = iota
	Waiting
)

// Options is the graph builder's recognised configuration (spec §4.3
// inputs table).
type Options struct {
	IgnoredLines        []string
	CalculateHighSpeed  bool
	CalculateBoat       bool
	OnlyLRT             bool
	AvoidStations       map[models.StationID]bool
	CalculateWalkingWild bool
	RouteType           RouteType
	MaxWildBlocks       float64
	TransferAddition    map[string][]string // station name -> extra peer names
	WildAddition        map[string][]string
}

// DefaultMaxWildBlocks matches the v4 network model's precomputed-table
// bound (spec §4.2); graph builds that do not override it inherit the
// same cap the transfer_time/transfer_dist tables were built with.
const DefaultMaxWildBlocks = 150
