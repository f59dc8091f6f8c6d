// Package pathcache stores the precomputed graph and timetable artifacts
// described in spec §4.3 Step E / §4.4 Caching / §6.3, keyed by the exact
// filename string those sections define. Instead of hand-rolling a
// temp-then-rename blob file the way the source engine's pickle-based
// cache does, this stores each artifact as a gob-encoded blob in a
// modernc.org/sqlite database opened with the same WAL + mmap_size pragma
// style used by this module's sibling poller service for its own on-disk
// cache, giving the same "memory-mapped, durable, single-writer" cache
// discipline without reimplementing file locking by hand.
package pathcache

import (
	"bytes"
	"crypto/md5"
	"database/sql"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/antigravity/mtrpath/internal/engineerr"
)

// EngineVersion is bumped whenever the cached artifact's in-memory shape
// changes incompatibly.
const EngineVersion = "mtrpath-v1"

// Store is an on-disk cache of gob-encoded blobs.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the cache database under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", engineerr.ErrConfig, err)
	}
	dsn := filepath.Join(dir, "mtrpath-cache.db") +
		"?_journal=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engineerr.ErrConfig, err)
	}
	db.SetMaxOpenConns(1) // sqlite WAL still only tolerates one writer at a time

	for _, pragma := range []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = 10000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA mmap_size = 268435456",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %v", engineerr.ErrConfig, err)
		}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS cache_blobs (
		cache_key TEXT PRIMARY KEY,
		payload   BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", engineerr.ErrConfig, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Get decodes the blob stored under key into dst (a pointer). ok is false
// on a cache miss. A blob that exists but fails to decode is deleted
// (treated as a miss) and surfaces engineerr.ErrCorruptCache, matching
// "readers that observe a corrupted file must silently treat it as a
// miss and rebuild" (spec §5).
func (s *Store) Get(key string, dst any) (ok bool, err error) {
	var payload []byte
	row := s.db.QueryRow(`SELECT payload FROM cache_blobs WHERE cache_key = ?`, key)
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", engineerr.ErrConfig, err)
	}
	dec := gob.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(dst); err != nil {
		_, _ = s.db.Exec(`DELETE FROM cache_blobs WHERE cache_key = ?`, key)
		return false, &engineerr.CorruptCacheError{Key: key, Cause: err}
	}
	return true, nil
}

// Put gob-encodes src and stores it under key, overwriting any existing
// entry for that key.
func (s *Store) Put(key string, src any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(src); err != nil {
		return fmt.Errorf("%w: %v", engineerr.ErrConfig, err)
	}
	_, err := s.db.Exec(`INSERT INTO cache_blobs (cache_key, payload) VALUES (?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload`, key, buf.Bytes())
	if err != nil {
		return fmt.Errorf("%w: %v", engineerr.ErrConfig, err)
	}
	return nil
}

// GraphKeyInputs is the pure-function-of-configuration tuple graph cache
// keys are computed from (spec §6.3).
type GraphKeyInputs struct {
	HighSpeed       bool
	WalkingWild     bool
	StationDataMod  time.Time
	IntervalDataMod time.Time
	PermanentIgnored []string
}

func GraphKey(in GraphKeyInputs) string {
	return cacheKey("3", in.HighSpeed, in.WalkingWild, in.StationDataMod, in.IntervalDataMod, in.PermanentIgnored)
}

// TimetableKeyInputs mirrors GraphKeyInputs for the REALTIME cache (spec
// §4.4 Caching / §6.3), keyed against the departure-data mtime instead of
// interval-data.
type TimetableKeyInputs struct {
	HighSpeed        bool
	WalkingWild      bool
	StationDataMod   time.Time
	DepartureDataMod time.Time
	PermanentIgnored []string
}

func TimetableKey(in TimetableKeyInputs) string {
	return cacheKey("4", in.HighSpeed, in.WalkingWild, in.StationDataMod, in.DepartureDataMod, in.PermanentIgnored)
}

// cacheKey hashes the permanent ignored-lines list in caller order (the
// spec defines md5 over "the UTF-8 concatenation ... preserving order").
func cacheKey(protocolMajor string, highSpeed, walkingWild bool, v1, v2 time.Time, permanentIgnored []string) string {
	h := md5.New()
	for _, name := range permanentIgnored {
		h.Write([]byte(name))
	}
	hs, ww := "0", "0"
	if highSpeed {
		hs = "1"
	}
	if walkingWild {
		ww = "1"
	}
	return fmt.Sprintf("%s%s%s-%s-%s-%s-%s",
		protocolMajor, hs, ww,
		v1.Format("20060102-1504"),
		v2.Format("20060102-1504"),
		hex.EncodeToString(h.Sum(nil)),
		EngineVersion,
	)
}
