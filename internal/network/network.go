// Package network loads and normalises the station/route snapshot (§6.1)
// from either upstream protocol version into one internal shape, used by
// every downstream component. This is the engine's only documented input:
// fetching that JSON from an upstream server is an out-of-scope external
// collaborator (spec §1); this package only ever reads a local file path.
package network

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/antigravity/mtrpath/internal/engineerr"
	"github.com/antigravity/mtrpath/internal/models"
)

// SkipReason records why a route was left out of the normalised snapshot,
// so callers (the HTTP layer in particular) can surface a diagnostic
// instead of silently dropping data the way the source engine does.
type SkipReason struct {
	RouteID string
	Name    string
	Reason  string
}

// Snapshot is the normalised, protocol-independent network model.
type Snapshot struct {
	Stations map[models.StationID]models.Station
	Routes   []models.Route
	Skipped  []SkipReason

	// TransferTime/TransferDist are v4-only precomputed wild-walk tables,
	// seconds and blocks respectively, for every ordered pair within
	// MaxWildBlocks of each other.
	TransferTime map[models.StationID]map[models.StationID]int
	TransferDist map[models.StationID]map[models.StationID]float64

	ProtocolVersion int
	SourcePath      string
	ModTime         time.Time
}

// MaxWildBlocks bounds how far apart two stations may be for a wild-walk
// transfer (v4 precomputed table, and the graph/timetable builders' own
// wild-walk admission check).
const MaxWildBlocks = 150

// LoadSnapshot reads and normalises the network snapshot at path. protocolVersion
// is 3 or 4, selecting tick-to-second conversion (v3) and whether transfer
// tables are read (v4). A v4 snapshot without inline transfer tables has
// them derived here; a v3 snapshot gets no transfer tables.
func LoadSnapshot(path string, protocolVersion int) (*Snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engineerr.ErrConfig, err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engineerr.ErrConfig, err)
	}
	var wire wireSnapshot
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: malformed network snapshot: %v", engineerr.ErrConfig, err)
	}

	snap := &Snapshot{
		Stations:        make(map[models.StationID]models.Station, len(wire.Stations)),
		ProtocolVersion: protocolVersion,
		SourcePath:      path,
		ModTime:         info.ModTime(),
	}

	for id, ws := range wire.Stations {
		st := models.Station{ID: models.StationID(id), Name: ws.Name}
		if ws.X != nil && ws.Z != nil {
			st.HasCoords = true
			st.X, st.Z = *ws.X, *ws.Z
		}
		for _, c := range ws.Connections {
			st.Connections = append(st.Connections, models.StationID(c))
		}
		if n, err := strconv.ParseInt(ws.StationNum, 16, 64); err == nil {
			st.Num = models.StationNum(n)
		}
		snap.Stations[st.ID] = st
	}

	dirty := false
	for ri := range wire.Routes {
		wr := wire.Routes[ri]
		if isPlaceholderName(wr.Name) {
			snap.Skipped = append(snap.Skipped, SkipReason{wr.ID, wr.Name, "placeholder or dummy route"})
			continue
		}
		route := models.Route{
			ID:       models.RouteID(wr.ID),
			Name:     wr.Name,
			Number:   wr.Number,
			Color:    wr.Color,
			Circular: models.CircularState(wr.Circular),
			Type:     models.TransportType(wr.Type),
		}
		for _, s := range wr.Stations {
			route.Stations = append(route.Stations, models.StationVisit{
				Station: models.StationID(s.ID), DwellMS: s.DwellTime, Platform: s.Name,
			})
		}

		durations := make([]int, len(wr.Durations))
		copy(durations, wr.Durations)
		if protocolVersion == 3 {
			// v3 stores durations in 1/20s game ticks; normalise to seconds
			// once, here, rather than scattering the conversion across
			// downstream call sites (spec §9 Open Question 2).
			for i, d := range durations {
				durations[i] = int(math.Round(float64(d) / 20))
			}
		}

		if !route.Valid() && len(wr.Durations) != len(wr.Stations)-1 {
			snap.Skipped = append(snap.Skipped, SkipReason{wr.ID, wr.Name, "duration count does not match visit count"})
			continue
		}
		if len(route.Stations) < 2 {
			snap.Skipped = append(snap.Skipped, SkipReason{wr.ID, wr.Name, "fewer than two stops"})
			continue
		}

		// Fill in missing/zero hop durations from the transport type's
		// nominal speed. Only zero entries are touched; non-zero originals
		// are preserved byte-exactly (spec §9 Open Question 1).
		routeDirty := false
		for i := range durations {
			if durations[i] != 0 {
				continue
			}
			from := snap.Stations[route.Stations[i].Station]
			to := snap.Stations[route.Stations[i+1].Station]
			if !from.HasCoords || !to.HasCoords {
				continue
			}
			dist := euclid(from.X, from.Z, to.X, to.Z)
			speed := route.Type.NominalSpeed()
			durations[i] = int(math.Round(dist / speed))
			routeDirty = true
		}
		route.Durations = durations
		if routeDirty {
			dirty = true
			// Reflect the fill-in back onto the wire route, in the
			// route's original units, so the persisted file carries it
			// too without disturbing non-zero originals.
			for i := range wr.Durations {
				if wr.Durations[i] == 0 {
					if protocolVersion == 3 {
						wr.Durations[i] = durations[i] * 20
					} else {
						wr.Durations[i] = durations[i]
					}
				}
			}
			wire.Routes[ri] = wr
		}

		snap.Routes = append(snap.Routes, route)
	}

	if protocolVersion == 4 {
		snap.TransferTime = make(map[models.StationID]map[models.StationID]int, len(wire.TransferTime))
		for a, row := range wire.TransferTime {
			m := make(map[models.StationID]int, len(row))
			for b, v := range row {
				m[models.StationID(b)] = v
			}
			snap.TransferTime[models.StationID(a)] = m
		}
		snap.TransferDist = make(map[models.StationID]map[models.StationID]float64, len(wire.TransferDist))
		for a, row := range wire.TransferDist {
			m := make(map[models.StationID]float64, len(row))
			for b, v := range row {
				m[models.StationID(b)] = v
			}
			snap.TransferDist[models.StationID(a)] = m
		}
		if len(wire.TransferTime) == 0 {
			precomputeTransferTables(snap)
			dirty = true
		}
	}

	if dirty {
		if err := persistFilledDurations(path, wire); err != nil {
			// Non-fatal: subsequent loads simply redo the fill-in.
			_ = err
		}
	}

	return snap, nil
}

func isPlaceholderName(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "placeholder") || strings.Contains(lower, "dummy")
}

func euclid(x1, z1, x2, z2 float64) float64 {
	dx, dz := x1-x2, z1-z2
	return math.Sqrt(dx*dx + dz*dz)
}

// precomputeTransferTables derives transfer_time/transfer_dist for v4 when
// the upstream snapshot did not already carry them: for every ordered pair
// of stations with coordinates within MaxWildBlocks of each other, using
// TransferSpeed for declared connections and WildSpeed otherwise.
func precomputeTransferTables(snap *Snapshot) {
	ids := make([]models.StationID, 0, len(snap.Stations))
	for id, st := range snap.Stations {
		if st.HasCoords {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	connected := make(map[[2]models.StationID]bool)
	for _, st := range snap.Stations {
		for _, peer := range st.Connections {
			connected[[2]models.StationID{st.ID, peer}] = true
		}
	}

	snap.TransferTime = make(map[models.StationID]map[models.StationID]int, len(ids))
	snap.TransferDist = make(map[models.StationID]map[models.StationID]float64, len(ids))

	for _, a := range ids {
		sa := snap.Stations[a]
		timeRow := make(map[models.StationID]int)
		distRow := make(map[models.StationID]float64)
		for _, b := range ids {
			if a == b {
				continue
			}
			sb := snap.Stations[b]
			dist := euclid(sa.X, sa.Z, sb.X, sb.Z)
			if dist > MaxWildBlocks {
				continue
			}
			speed := models.WildSpeed
			if connected[[2]models.StationID{a, b}] {
				speed = models.TransferSpeed
			}
			timeRow[b] = int(math.Round(dist / speed))
			distRow[b] = dist
		}
		snap.TransferTime[a] = timeRow
		snap.TransferDist[a] = distRow
	}
}

// persistFilledDurations writes the zero-filled durations back to the
// source file so subsequent loads are pure lookups, matching the source
// engine's "synthesised durations are persisted back to the data file"
// behaviour, but touching only the zero entries (§9 Open Question 1).
func persistFilledDurations(path string, wire wireSnapshot) error {
	out, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
