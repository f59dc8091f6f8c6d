// Package engineerr defines the distinguishable error kinds the pathfinding
// engine can return, per the outcome categories a renderer needs to tell
// apart: a bad station name, no feasible path, a CSA timeout, a broken
// config, and a corrupted cache entry.
package engineerr

import "errors"

var (
	// ErrConfig signals a missing or unreadable data file. Fatal to the
	// current call; the caller should surface it and stop.
	ErrConfig = errors.New("mtrpath: configuration or data file error")

	// ErrStationUnresolved signals that name resolution produced no match,
	// including the case where start and end resolve to the same station.
	ErrStationUnresolved = errors.New("mtrpath: station name could not be resolved")

	// ErrNoPath signals that Dijkstra found no path, or CSA's scan never
	// reached the destination.
	ErrNoPath = errors.New("mtrpath: no path between the given stations")

	// ErrTimeout signals that the CSA scan exceeded its wall-clock budget.
	// The caller may retry with a wider horizon or fall back to WAITING.
	ErrTimeout = errors.New("mtrpath: query exceeded its time budget")

	// ErrCorruptCache signals a cache entry that exists but failed to
	// decode. pathcache.Store.Get deletes such an entry and returns this
	// error; the query engine treats it as a miss and rebuilds, so it never
	// reaches a query's caller.
	ErrCorruptCache = errors.New("mtrpath: cache entry is corrupt")
)

// CorruptCacheError carries the underlying decode failure, which appears in
// its Error() text, while still satisfying errors.Is(err, ErrCorruptCache).
type CorruptCacheError struct {
	Key   string
	Cause error
}

func (e *CorruptCacheError) Error() string {
	return "mtrpath: cache entry " + e.Key + " is corrupt: " + e.Cause.Error()
}

func (e *CorruptCacheError) Unwrap() error { return ErrCorruptCache }

func (e *CorruptCacheError) Is(target error) bool { return target == ErrCorruptCache }
