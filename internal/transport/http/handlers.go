package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb"

	"fleet-track/tracking/internal/domain"
	"fleet-track/tracking/internal/engine"
	"fleet-track/tracking/internal/geo"
	"fleet-track/tracking/internal/metrics"
	"fleet-track/tracking/internal/sweep"
)

// Server exposes the tracking engine over HTTP. The surrounding gateway
// handles authentication before requests reach these routes.
type Server struct {
	eng     *engine.Engine
	sweeper *sweep.Sweeper
	feed    *FeedHub
}

func NewServer(eng *engine.Engine, sweeper *sweep.Sweeper, feed *FeedHub) *Server {
	return &Server{eng: eng, sweeper: sweeper, feed: feed}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(mux.MiddlewareFunc(LogRequests))

	r.HandleFunc("/api/locations", s.handleIngest).Methods("POST")
	r.HandleFunc("/api/locations/batch", s.handleIngestBatch).Methods("POST")
	r.HandleFunc("/api/locations/purge", s.handlePurge).Methods("POST")
	r.HandleFunc("/api/locations/nearby", s.handleNearby).Methods("GET")
	r.HandleFunc("/api/locations/feed", s.handleFeed).Methods("GET")
	r.HandleFunc("/api/locations/heatmap", s.handleHeatmap).Methods("GET")
	r.HandleFunc("/api/vehicles/{id}/location", s.handleCurrent).Methods("GET")
	r.HandleFunc("/api/vehicles/{id}/history", s.handleHistory).Methods("GET")
	r.HandleFunc("/api/vehicles/{id}/route-progress", s.handleRouteProgress).Methods("PUT")
	r.HandleFunc("/api/vehicles/{id}/alerts", s.handleRaiseAlert).Methods("POST")
	r.HandleFunc("/api/vehicles/{id}/alerts/{alertId}/acknowledge", s.handleAcknowledge).Methods("POST")
	r.HandleFunc("/api/vehicles/{id}/alerts/{alertId}/resolve", s.handleResolve).Methods("POST")

	if s.feed != nil {
		r.HandleFunc("/ws/feed", s.feed.HandleWS)
	}
	r.HandleFunc("/metrics", metrics.HandleMetrics).Methods("GET")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	return r
}

type ingestRequest struct {
	VehicleID      string    `json:"vehicle_id"`
	Timestamp      time.Time `json:"timestamp"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	SpeedKmh       float64   `json:"speed_kmh"`
	HeadingDeg     float64   `json:"heading_deg"`
	AccuracyM      float64   `json:"accuracy_m"`
	Altitude       *float64  `json:"altitude_m"`
	DeviceID       string    `json:"device_id"`
	DeviceType     string    `json:"device_type"`
	BatteryPct     *float64  `json:"battery_pct"`
	SignalStrength int       `json:"signal_strength"`
}

func (r ingestRequest) fix() domain.Fix {
	return domain.Fix{
		VehicleID:      r.VehicleID,
		Timestamp:      r.Timestamp,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		SpeedKmh:       r.SpeedKmh,
		HeadingDeg:     r.HeadingDeg,
		AccuracyM:      r.AccuracyM,
		Altitude:       r.Altitude,
		DeviceID:       r.DeviceID,
		DeviceType:     r.DeviceType,
		BatteryPct:     r.BatteryPct,
		SignalStrength: r.SignalStrength,
	}
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	rec, err := s.eng.Ingest(r.Context(), req.fix())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewRecord(rec, time.Now()))
}

func (s *Server) handleIngestBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	fixes := make([]domain.Fix, len(reqs))
	for i, req := range reqs {
		fixes[i] = req.fix()
	}

	res, err := s.eng.IngestBatch(r.Context(), fixes)
	if err != nil {
		writeError(w, err)
		return
	}

	now := time.Now()
	type failureView struct {
		Index  int    `json:"index"`
		Reason string `json:"reason"`
	}
	out := struct {
		Successes    []recordView  `json:"successes"`
		Failures     []failureView `json:"failures"`
		SuccessCount int           `json:"success_count"`
		FailureCount int           `json:"failure_count"`
	}{
		Successes:    []recordView{},
		Failures:     []failureView{},
		SuccessCount: res.SuccessCount,
		FailureCount: res.FailureCount,
	}
	for _, rec := range res.Successes {
		out.Successes = append(out.Successes, viewRecord(rec, now))
	}
	for _, f := range res.Failures {
		out.Failures = append(out.Failures, failureView{Index: f.Index, Reason: f.Reason})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	rec, err := s.eng.GetCurrent(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewRecord(rec, time.Now()))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, _ := parseTime(q.Get("start"))
	end, _ := parseTime(q.Get("end"))
	limit := parseInt(q.Get("limit"), 0)

	entries, err := s.eng.GetHistory(mux.Vars(r)["id"], start, end, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewHistory(entries))
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat := parseFloat(q.Get("latitude"), 0)
	lon := parseFloat(q.Get("longitude"), 0)
	radius := parseFloat(q.Get("radius_m"), 0)
	limit := parseInt(q.Get("limit"), 0)

	res, err := s.eng.FindNearby(r.Context(), lat, lon, radius, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewNearby(res, time.Now()))
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parseInt(q.Get("limit"), 0)
	onlineOnly := q.Get("online_only") == "true" || q.Get("online_only") == "1"

	recs := s.eng.RealtimeFeed(limit, onlineOnly)
	now := time.Now()
	out := make([]recordView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, viewRecord(rec, now))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var bound *orb.Bound
	if q.Get("min_lat") != "" {
		b := geo.Bound(
			parseFloat(q.Get("min_lat"), -90),
			parseFloat(q.Get("min_lon"), -180),
			parseFloat(q.Get("max_lat"), 90),
			parseFloat(q.Get("max_lon"), 180),
		)
		bound = &b
	}
	start, _ := parseTime(q.Get("start"))
	end, _ := parseTime(q.Get("end"))

	points := s.eng.Heatmap(bound, start, end, q.Get("vehicle_type"), parseInt(q.Get("limit"), 0))

	type pointView struct {
		Latitude    float64   `json:"lat"`
		Longitude   float64   `json:"lon"`
		SpeedKmh    float64   `json:"speed_kmh"`
		VehicleType string    `json:"vehicle_type,omitempty"`
		Timestamp   time.Time `json:"timestamp"`
	}
	out := make([]pointView, 0, len(points))
	for _, p := range points {
		out = append(out, pointView{
			Latitude:    p.Latitude,
			Longitude:   p.Longitude,
			SpeedKmh:    p.SpeedKmh,
			VehicleType: p.VehicleType,
			Timestamp:   p.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRouteProgress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NextStop         string  `json:"next_stop"`
		DistanceToNextKm float64 `json:"distance_to_next_km"`
		PercentComplete  float64 `json:"percent_complete"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	err := s.eng.SetRouteProgress(mux.Vars(r)["id"], domain.RouteProgress{
		NextStop:         req.NextStop,
		DistanceToNextKm: req.DistanceToNextKm,
		PercentComplete:  req.PercentComplete,
		UpdatedAt:        time.Now(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRaiseAlert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type     string `json:"type"`
		Severity string `json:"severity"`
		Message  string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	a, err := s.eng.RaiseAlert(
		mux.Vars(r)["id"],
		domain.AlertType(req.Type),
		domain.AlertSeverity(req.Severity),
		req.Message,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"alert_id": a.ID})
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := r.URL.Query().Get("user_id")
	if err := s.eng.AcknowledgeAlert(vars["id"], vars["alertId"], userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.eng.ResolveAlert(vars["id"], vars["alertId"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	days := parseInt(r.URL.Query().Get("days"), 0)
	if days <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "days must be a positive integer"})
		return
	}
	deleted, err := s.sweeper.PurgeOlderThan(r.Context(), days)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted_count": deleted})
}

func writeError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "validation failed",
			"field":  ve.Field,
			"detail": ve.Error(),
		})
	case errors.Is(err, domain.ErrVehicleNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "vehicle not found"})
	case errors.Is(err, domain.ErrBatchTooLarge):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func parseInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return f
}
