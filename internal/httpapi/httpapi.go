// Package httpapi exposes the query engine over HTTP, in the same thin
// chi-handler style the teacher service used to expose its own pathfinder
// - not a web UI, just the JSON interface spec §6 fixes the shape of.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/antigravity/mtrpath/internal/engineerr"
	"github.com/antigravity/mtrpath/internal/query"
)

// Handler wraps a query.Engine behind chi routes.
type Handler struct {
	Engine *query.Engine
}

func NewHandler(engine *query.Engine) *Handler {
	return &Handler{Engine: engine}
}

// Mount registers the engine's routes onto r under /api/v1.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/route", h.GetRoute)
	})
}

func (h *Handler) GetRoute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := query.Request{
		Start: q.Get("start"),
		End:   q.Get("end"),
		Mode:  query.Mode(strings.ToUpper(q.Get("mode"))),
	}
	if req.Mode == "" {
		req.Mode = query.Theory
	}
	if v := q.Get("departure_time"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			req.DepartureTime = parsed
		}
	}
	if v := q.Get("max_hour"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			req.MaxHour = parsed
		}
	}
	if v := q.Get("detail"); v == "1" || v == "true" {
		req.Detail = true
	}
	if v := q.Get("avoid_stations"); v != "" {
		req.AvoidStations = strings.Split(v, ",")
	}
	if v := q.Get("ignored_lines"); v != "" {
		req.IgnoredLines = strings.Split(v, ",")
	}

	result, err := h.Engine.Query(req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Printf("httpapi: failed to encode route response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := "data_missing"
	switch {
	case errors.Is(err, engineerr.ErrStationUnresolved):
		status, kind = http.StatusUnprocessableEntity, "station_unresolved"
	case errors.Is(err, engineerr.ErrNoPath):
		status, kind = http.StatusNotFound, "no_path"
	case errors.Is(err, engineerr.ErrTimeout):
		status, kind = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, engineerr.ErrConfig):
		status, kind = http.StatusInternalServerError, "data_missing"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": err.Error()})
}
