package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/mini-hyderabad-3d/preprocessor/internal/static/derive"
)

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// Handler serves lookups over one loaded dataset
type Handler struct {
	ds *Dataset
}

// NewHandler creates a handler over ds
func NewHandler(ds *Dataset) *Handler {
	return &Handler{ds: ds}
}

// StopRoutesResponse is the JSON response for GET /api/stops/{stopID}/routes
type StopRoutesResponse struct {
	StopID string   `json:"stop_id"`
	Routes []string `json:"routes"`
	Count  int      `json:"count"`
}

// StopTimetableResponse is the JSON response for GET /api/stops/{stopID}/timetable
type StopTimetableResponse struct {
	StopID string                     `json:"stop_id"`
	Routes map[string]derive.DayTimes `json:"routes"`
}

// RouteStopsResponse is the JSON response for GET /api/routes/{routeID}/stops
type RouteStopsResponse struct {
	RouteID string           `json:"route_id"`
	Stops   []derive.StopRef `json:"stops"`
	Count   int              `json:"count"`
}

// NewRouter wires the handler, CORS and static file serving of the dataset directory
func NewRouter(h *Handler, allowedOrigins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", h.Health)
	r.Get("/api/metadata", h.GetMetadata)
	r.Get("/api/stops/{stopID}/routes", h.GetStopRoutes)
	r.Get("/api/stops/{stopID}/timetable", h.GetStopTimetable)
	r.Get("/api/routes/{routeID}/stops", h.GetRouteStops)

	r.Handle("/data/*", http.StripPrefix("/data/", http.FileServer(http.Dir(h.ds.Dir))))
	return r
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"run_id":       h.ds.RunID,
		"generated_at": h.ds.GeneratedAt,
		"stops":        len(h.ds.StopRoutes),
		"routes":       len(h.ds.RouteStops),
		"timestamp":    time.Now().UTC(),
	})
}

// GetMetadata handles GET /api/metadata
// Returns metadata.json as written
func (h *Handler) GetMetadata(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(h.ds.Metadata)
}

// GetStopRoutes handles GET /api/stops/{stopID}/routes
func (h *Handler) GetStopRoutes(w http.ResponseWriter, r *http.Request) {
	stopID := chi.URLParam(r, "stopID")
	routes, ok := h.ds.StopRoutes[stopID]
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "Stop not found",
			Details: map[string]any{"stop_id": stopID},
		})
		return
	}

	writeJSON(w, http.StatusOK, StopRoutesResponse{StopID: stopID, Routes: routes, Count: len(routes)})
}

// GetStopTimetable handles GET /api/stops/{stopID}/timetable
// Optional route_id query parameter narrows the result to one route
func (h *Handler) GetStopTimetable(w http.ResponseWriter, r *http.Request) {
	stopID := chi.URLParam(r, "stopID")
	byRoute, ok := h.ds.Timetable[stopID]
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "No timetable for stop",
			Details: map[string]any{"stop_id": stopID},
		})
		return
	}

	routes := byRoute
	if routeID := r.URL.Query().Get("route_id"); routeID != "" {
		times, ok := byRoute[routeID]
		if !ok {
			writeJSON(w, http.StatusNotFound, ErrorResponse{
				Error:   "Route does not serve stop",
				Details: map[string]any{"stop_id": stopID, "route_id": routeID},
			})
			return
		}
		routes = map[string]derive.DayTimes{routeID: times}
	}

	writeJSON(w, http.StatusOK, StopTimetableResponse{StopID: stopID, Routes: routes})
}

// GetRouteStops handles GET /api/routes/{routeID}/stops
func (h *Handler) GetRouteStops(w http.ResponseWriter, r *http.Request) {
	routeID := chi.URLParam(r, "routeID")
	stops, ok := h.ds.RouteStops[routeID]
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "Route not found",
			Details: map[string]any{"route_id": routeID},
		})
		return
	}

	sorted := append([]derive.StopRef(nil), stops...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Seq < sorted[j].Seq })

	writeJSON(w, http.StatusOK, RouteStopsResponse{RouteID: routeID, Stops: sorted, Count: len(sorted)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
