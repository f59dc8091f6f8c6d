package query

import (
	"time"

	"github.com/antigravity/mtrpath/internal/engineerr"
	"github.com/antigravity/mtrpath/internal/models"
	"github.com/antigravity/mtrpath/internal/timetable"
)

// csaSentinel marks "infinity" / "no connection", matching the source
// engine's array('Q', ...) sentinel approach but using Go's native int
// max rather than a fixed-width unsigned sentinel.
const csaSentinel = int(^uint(0) >> 1)

// timeoutSamplePeriod is how often (in connections scanned) the CSA main
// loop samples the wall clock. A fixed period on a plain counter, rather
// than a modulus check on the loop index, keeps the hot loop's branch
// predictable (spec §9 design notes).
const timeoutSamplePeriod = 16000

// csaResult holds the reconstructed path plus its connection indices, for
// trip-coalescing in legs.go.
type csaResult struct {
	connIdx []int // indices into conns, in chronological order
}

// runCSA scans conns (already sorted ascending by DepTime, P1) forward
// from departureTime, honouring a wall-clock timeout (spec §4.5.2).
// numStations sizes the arrays by the total station count, not by the
// largest station number actually appearing in conns - an isolated
// station (no departures, no walk in range) can still be a valid start
// or end and must not be out of bounds (spec §4.5.2, mirroring
// mtr_pathfinder_v4.py's CSA(len(data['stations']), ...)).
func runCSA(conns []timetable.Connection, start, end models.StationNum, departureTime int, timeout time.Duration, numStations int) (*csaResult, error) {
	size := numStations
	if int(start) >= size {
		size = int(start) + 1
	}
	if int(end) >= size {
		size = int(end) + 1
	}
	earliestArrival := make([]int, size)
	inConnection := make([]int, size)
	for i := range earliestArrival {
		earliestArrival[i] = csaSentinel
		inConnection[i] = -1
	}
	earliestArrival[start] = departureTime

	deadline := time.Now().Add(timeout)
	earliest := csaSentinel

	counter := 0
	for i, c := range conns {
		counter++
		if counter >= timeoutSamplePeriod {
			counter = 0
			if time.Now().After(deadline) {
				return nil, engineerr.ErrTimeout
			}
		}
		if c.ArrStation >= models.StationNum(size) || c.DepStation >= models.StationNum(size) {
			continue
		}
		if c.DepTime >= earliestArrival[c.DepStation] && c.ArrTime < earliestArrival[c.ArrStation] {
			earliestArrival[c.ArrStation] = c.ArrTime
			inConnection[c.ArrStation] = i
			if c.ArrStation == end && c.ArrTime < earliest {
				earliest = c.ArrTime
			}
		} else if c.DepTime >= earliest {
			break
		}
	}

	if inConnection[end] == -1 {
		return nil, engineerr.ErrNoPath
	}

	var chain []int
	cur := end
	for cur != start {
		idx := inConnection[cur]
		if idx == -1 {
			return nil, engineerr.ErrNoPath
		}
		chain = append(chain, idx)
		cur = conns[idx].DepStation
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return &csaResult{connIdx: chain}, nil
}
