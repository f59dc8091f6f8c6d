// Package namefind resolves a free-form user-entered station name to a
// stable station id: exact match across name variants and script
// conversions, a user-supplied alias table, and a fuzzy fallback.
package namefind

import (
	"sort"
	"strings"
	"sync"

	"github.com/antigravity/mtrpath/internal/models"
)

// FuzzyCutoff is the minimum SequenceMatcher-style ratio the best fuzzy
// candidate must meet to be accepted (spec §4.1 step 5).
const FuzzyCutoff = 0.2

// Resolver maps names to station ids. It is safe for concurrent use: the
// process-local cache (spec §5) is a sync.Map, a stale hit is acceptable
// since the cache is never invalidated within a process lifetime.
type Resolver struct {
	stations  map[models.StationID]models.Station
	alias     map[string]string // lowercased alias -> lowercased canonical
	fuzzy     bool
	cache     sync.Map // lowercased input -> models.StationID
	candNames []candidateSet
}

type candidateSet struct {
	id    models.StationID
	names [4]string // full, after last '|', after last '/' within that, before first '|'
}

// NewResolver builds a resolver over the given stations and alias table.
// fuzzyEnabled toggles step 5's fuzzy fallback.
func NewResolver(stations map[models.StationID]models.Station, alias map[string]string, fuzzyEnabled bool) *Resolver {
	r := &Resolver{
		stations: stations,
		alias:    make(map[string]string, len(alias)),
		fuzzy:    fuzzyEnabled,
	}
	for k, v := range alias {
		r.alias[strings.ToLower(k)] = strings.ToLower(v)
	}
	ids := make([]models.StationID, 0, len(stations))
	for id := range stations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		st := stations[id]
		if !st.HasCoords {
			continue
		}
		r.candNames = append(r.candNames, candidateSet{id: id, names: nameVariants(st.Name)})
	}
	return r
}

// nameVariants computes the four candidate display names described in
// spec §4.1 step 4: the full name, the segment after the last '|', the
// segment after the last '/' within that segment, and the segment before
// the first '|'.
func nameVariants(name string) [4]string {
	full := name
	afterPipe := name
	if i := strings.LastIndex(name, "|"); i >= 0 {
		afterPipe = name[i+1:]
	}
	afterSlash := afterPipe
	if i := strings.LastIndex(afterPipe, "/"); i >= 0 {
		afterSlash = afterPipe[i+1:]
	}
	beforePipe := name
	if i := strings.Index(name, "|"); i >= 0 {
		beforePipe = name[:i]
	}
	return [4]string{full, afterPipe, afterSlash, beforePipe}
}

// unresolved is the zero StationID, used as the sentinel meaning "no
// match"; callers distinguish it via the bool return, not by value.
const unresolved = models.StationID("")

// Resolve maps raw to a station id. The bool result is false if the name
// could not be resolved; the query engine translates that into
// engineerr.ErrStationUnresolved.
func (r *Resolver) Resolve(raw string) (models.StationID, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return unresolved, false
	}
	if canon, ok := r.alias[lower]; ok {
		lower = canon
	}

	if cached, ok := r.cache.Load(lower); ok {
		return cached.(models.StationID), true
	}

	variants := []string{
		lower,
		strings.ToLower(SimplifiedToTraditional(lower)),
	}
	variants = append(variants, strings.ToLower(TraditionalToJapanese(variants[1])))

	for _, cs := range r.candNames {
		for _, name := range cs.names {
			lname := strings.ToLower(name)
			for _, v := range variants {
				if lname == v {
					r.cache.Store(lower, cs.id)
					return cs.id, true
				}
			}
		}
	}

	if !r.fuzzy {
		return unresolved, false
	}

	candidates := make([]string, len(r.candNames))
	for i, cs := range r.candNames {
		candidates[i] = strings.ToLower(cs.names[0])
	}

	bestIdx := -1
	bestRatio := 0.0
	for _, v := range variants {
		idx, rt, ok := BestMatch(v, candidates, FuzzyCutoff)
		if !ok {
			continue
		}
		if bestIdx == -1 || rt > bestRatio {
			bestIdx = idx
			bestRatio = rt
		}
	}
	if bestIdx == -1 {
		return unresolved, false
	}
	bestID := r.candNames[bestIdx].id
	r.cache.Store(lower, bestID)
	return bestID, true
}

// NameOf returns a station's primary display name (its full stored name),
// used by P7 (resolve(name_of(id)) == id).
func (r *Resolver) NameOf(id models.StationID) string {
	return r.stations[id].Name
}
