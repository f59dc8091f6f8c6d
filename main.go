package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/antigravity/mtrpath/internal/config"
	"github.com/antigravity/mtrpath/internal/httpapi"
	"github.com/antigravity/mtrpath/internal/models"
	"github.com/antigravity/mtrpath/internal/namefind"
	"github.com/antigravity/mtrpath/internal/network"
	"github.com/antigravity/mtrpath/internal/pathcache"
	"github.com/antigravity/mtrpath/internal/query"
)

func main() {
	cfg := config.Load()

	snap, err := network.LoadSnapshot(cfg.NetworkDataPath, cfg.ProtocolVersion)
	if err != nil {
		log.Fatal("Failed to load network snapshot:", err)
	}
	log.Printf("Loaded network snapshot: %d stations, %d routes (%d skipped)",
		len(snap.Stations), len(snap.Routes), len(snap.Skipped))
	for _, s := range snap.Skipped {
		log.Printf("  skipped route %q (%s): %s", s.Name, s.RouteID, s.Reason)
	}

	intervals, err := loadIntervals(cfg.IntervalDataPath)
	if err != nil {
		log.Printf("No interval data loaded (%v); WAITING mode will admit no routes except cable cars", err)
	}
	departures, err := loadDepartures(cfg.DepartureDataPath)
	if err != nil {
		log.Printf("No departure data loaded (%v); REALTIME mode will find no trips", err)
	}

	resolver := namefind.NewResolver(snap.Stations, nil, true)

	cache, err := pathcache.Open(cfg.CacheDir)
	if err != nil {
		log.Fatal("Failed to open cache store:", err)
	}
	defer cache.Close()

	engine := query.NewEngine(snap, resolver, intervals, departures, cache,
		time.Duration(cfg.CSATimeoutMinutes)*time.Minute, cfg.DefaultMaxHour,
		fileModTime(cfg.IntervalDataPath), fileModTime(cfg.DepartureDataPath))

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"mtrpath"}`))
	})

	httpapi.NewHandler(engine).Mount(r)

	log.Printf("Server starting on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
		log.Fatal(err)
	}
}

func loadIntervals(path string) (models.IntervalTable, error) {
	table := models.IntervalTable{}
	if err := readJSONFile(path, &table); err != nil {
		return table, err
	}
	return table, nil
}

func loadDepartures(path string) (models.DepartureTable, error) {
	raw := map[string][]int{}
	if err := readJSONFile(path, &raw); err != nil {
		return models.DepartureTable{}, err
	}
	table := make(models.DepartureTable, len(raw))
	for k, v := range raw {
		table[models.RouteID(k)] = v
	}
	return table, nil
}

func readJSONFile(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// fileModTime returns path's mtime, or the zero time if it can't be
// stat'd - a missing interval/departure file just means its cache key
// input never varies, not a fatal error.
func fileModTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
