// Package timetable builds the per-trip connection list the REALTIME
// query mode's Connection Scan Algorithm runs over (spec §4.4).
package timetable

import (
	"fmt"
	"sort"

	"github.com/antigravity/mtrpath/internal/models"
	"github.com/antigravity/mtrpath/internal/namefind"
	"github.com/antigravity/mtrpath/internal/network"
)

// ConnectionDetail carries the route id, terminus station, and platform
// label a ride connection belongs to; walk connections carry only a
// label.
type ConnectionDetail struct {
	Route    models.RouteID
	Terminus models.StationID
	Platform string
	IsWalk   bool
	Label    string
}

// Connection is the CSA 5-tuple (spec §3): a single scheduled hop from
// one station to the next, packed by StationNum for array-based
// bookkeeping, plus the trip it belongs to.
type Connection struct {
	DepStation models.StationNum
	ArrStation models.StationNum
	DepTime    int
	ArrTime    int
	Detail     ConnectionDetail
	TripNo     int // -1 for walk connections, which belong to no trip
}

// TemplateConnection is one notional-dispatch-at-time-0 entry (spec §4.4):
// negative-or-zero times, shifted per real departure during expansion.
type TemplateConnection struct {
	DepStation models.StationNum
	ArrStation models.StationNum
	DepTime    int
	ArrTime    int
	Detail     ConnectionDetail
}

// Options mirrors graph.Options' filter fields that also apply to
// timetable construction (spec §4.4 "same filter configuration as §4.3").
type Options struct {
	IgnoredLines         []string
	OnlyLines            []string // non-empty suppresses IgnoredLines (whitelist)
	CalculateHighSpeed   bool
	CalculateBoat        bool
	OnlyLRT              bool
	AvoidStations        map[models.StationID]bool
	CalculateWalkingWild bool
	MaxWildBlocks        float64
}

func keepRoute(r models.Route, opts Options) bool {
	if !r.Valid() {
		return false
	}
	if len(opts.OnlyLines) > 0 {
		for _, only := range opts.OnlyLines {
			if namefind.NamesEquivalent(r.Name, only) {
				return true
			}
		}
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

// BuildTemplates constructs, for each kept route, the two kinds of
// template entries described in spec §4.4: ride connections, and
// post-arrival walk connections from each ride's arrival station.
func BuildTemplates(snap *network.Snapshot, opts Options) map[models.RouteID][]TemplateConnection {
	out := make(map[models.RouteID][]TemplateConnection)
	for _, route := range snap.Routes {
		if !keepRoute(route, opts) {
			continue
		}
		n := len(route.Stations)
		if n < 2 {
			continue
		}
		var entries []TemplateConnection

		cur := -float64(route.Stations[n-1].DwellMS) / 1000
		for i := n - 2; i >= 0; i-- {
			dur := float64(route.Durations[i])
			arr := cur
			dep := cur - dur

			si := route.Stations[i].Station
			sNext := route.Stations[i+1].Station
			sSt, sOK := snap.Stations[si]
			nSt, nOK := snap.Stations[sNext]
			if sOK && nOK && !opts.AvoidStations[si] && !opts.AvoidStations[sNext] {
				entries = append(entries, TemplateConnection{
					DepStation: sSt.Num,
					ArrStation: nSt.Num,
					DepTime:    int(dep),
					ArrTime:    int(arr),
					Detail: ConnectionDetail{
						Route:    route.ID,
						Terminus: route.Stations[n-1].Station,
						Platform: route.Stations[i].Platform,
					},
				})
				entries = append(entries, postArrivalWalks(snap, sNext, int(arr), opts)...)
			}

			cur = dep - float64(route.Stations[i].DwellMS)/1000
		}
		out[route.ID] = entries
	}
	return out
}

// postArrivalWalks emits walk entries from `from` to every declared
// interchange peer and, if wild-walking is enabled, every station within
// MaxWildBlocks, timed at arr -> arr+transferTime (spec §4.4).
func postArrivalWalks(snap *network.Snapshot, from models.StationID, arr int, opts Options) []TemplateConnection {
	var out []TemplateConnection
	fromSt, ok := snap.Stations[from]
	if !ok {
		return nil
	}
	seen := make(map[models.StationID]bool)

	addWalk := func(to models.StationID, seconds int) {
		if to == from || opts.AvoidStations[to] || seen[to] {
			return
		}
		toSt, ok := snap.Stations[to]
		if !ok {
			return
		}
		seen[to] = true
		out = append(out, TemplateConnection{
			DepStation: fromSt.Num,
			ArrStation: toSt.Num,
			DepTime:    arr,
			ArrTime:    arr + seconds,
			Detail:     ConnectionDetail{IsWalk: true, Label: fmt.Sprintf("出站换乘步行 Walk %gm", snap.TransferDist[from][to])},
		})
	}

	for _, peer := range fromSt.Connections {
		if row, ok := snap.TransferTime[from]; ok {
			if t, ok := row[peer]; ok {
				addWalk(peer, t)
				continue
			}
		}
	}
	if opts.CalculateWalkingWild {
		if row, ok := snap.TransferTime[from]; ok {
			maxBlocks := opts.MaxWildBlocks
			if maxBlocks <= 0 {
				maxBlocks = network.MaxWildBlocks
			}
			for to, seconds := range row {
				dist := snap.TransferDist[from][to]
				if dist > maxBlocks {
					continue
				}
				addWalk(to, seconds)
			}
		}
	}
	return out
}

// SecondsPerDay is added to a dispatch that falls within maxHour after
// midnight, so it is also offered as a next-day trip within the query
// horizon, and to template times that land before 0 (spec §4.4 step 2).
const SecondsPerDay = 86400

// Expand performs the per-query expansion (spec §4.4): origin-departure
// walks, per-dispatch template cloning with midnight handling, and the
// final ascending sort by DepTime (P1). trips maps a trip number to its
// per-station departure-time map, used by leg post-processing (§4.5.3).
func Expand(
	snap *network.Snapshot,
	templates map[models.RouteID][]TemplateConnection,
	departures models.DepartureTable,
	origin models.StationID,
	departureTime int,
	maxHour int,
	opts Options,
) (conns []Connection, trips map[int]map[models.StationNum]int, err error) {
	trips = make(map[int]map[models.StationNum]int)

	for _, w := range postArrivalWalks(snap, origin, departureTime, opts) {
		conns = append(conns, Connection{
			DepStation: w.DepStation, ArrStation: w.ArrStation,
			DepTime: w.DepTime, ArrTime: w.ArrTime, Detail: w.Detail, TripNo: -1,
		})
	}

	horizon := departureTime + 3600*maxHour
	tripNo := 0

	for routeID, entries := range templates {
		for _, d := range departures[routeID] {
			candidates := []int{d}
			if d < 3600*maxHour { // near midnight: also offer d+86400 within horizon
				candidates = append(candidates, d+SecondsPerDay)
			}
			for _, dispatch := range candidates {
				if dispatch < departureTime || dispatch > horizon {
					continue
				}
				tripNo++
				tripMap := make(map[models.StationNum]int)
				for _, t := range entries {
					dep := t.DepTime + dispatch
					arr := t.ArrTime + dispatch
					if dep < 0 {
						dep += SecondsPerDay
						arr += SecondsPerDay
					}
					c := Connection{
						DepStation: t.DepStation, ArrStation: t.ArrStation,
						DepTime: dep, ArrTime: arr, Detail: t.Detail,
					}
					if t.Detail.IsWalk {
						c.TripNo = -1
					} else {
						c.TripNo = tripNo
						tripMap[t.DepStation] = dep
					}
					conns = append(conns, c)
				}
				if len(tripMap) > 0 {
					trips[tripNo] = tripMap
				}
			}
		}
	}

	sort.SliceStable(conns, func(i, j int) bool { return conns[i].DepTime < conns[j].DepTime })
	return conns, trips, nil
}
