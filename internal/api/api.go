package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/openhours/openhours/internal/hours"
	"github.com/openhours/openhours/internal/requestid"
	"github.com/openhours/openhours/internal/sanitize"
	"github.com/openhours/openhours/internal/status"
	"github.com/openhours/openhours/internal/store"
)

// apiError is the JSON body of every error response.
type apiError struct {
	Error string `json:"error"`
}

// StateResponse is an evaluation result as returned by the API.
type StateResponse struct {
	Place    string     `json:"place,omitempty"`
	Timezone string     `json:"timezone"`
	At       time.Time  `json:"at"`
	IsOpen   bool       `json:"isOpen"`
	OpensAt  *time.Time `json:"opensAt,omitempty"`
	ClosesAt *time.Time `json:"closesAt,omitempty"`
	Status   string     `json:"status"`
	Relative string     `json:"relative,omitempty"`
}

// PlaceResponse describes a stored place.
type PlaceResponse struct {
	Name      string        `json:"name"`
	Timezone  string        `json:"timezone"`
	Rules     hours.RuleSet `json:"rules"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// EvaluateRequest is the body of POST /api/evaluate.
type EvaluateRequest struct {
	Rules    hours.RuleSet `json:"rules"`
	Timezone string        `json:"timezone"`
	At       *time.Time    `json:"at,omitempty"`
}

// ResolveResponse is the result of GET /api/resolve.
type ResolveResponse struct {
	Clock    string    `json:"clock"`
	Date     string    `json:"date"`
	Timezone string    `json:"timezone"`
	Instant  time.Time `json:"instant"`
}

func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/places", s.timed("places", s.handlePlaces))
	mux.HandleFunc("GET /api/places/{name}", s.timed("place", s.handlePlace))
	mux.HandleFunc("GET /api/places/{name}/state", s.timed("place_state", s.handlePlaceState))
	mux.HandleFunc("POST /api/evaluate", s.timed("evaluate", s.handleEvaluate))
	mux.HandleFunc("GET /api/resolve", s.timed("resolve", s.handleResolve))
}

func (s *Server) timed(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timer := prometheus.NewTimer(s.metrics.RequestDuration.WithLabelValues(route))
		defer timer.ObserveDuration()
		h(w, r)
	}
}

func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	if s.places == nil {
		writeJSON(w, []PlaceResponse{})
		return
	}
	places, err := s.places.List()
	if err != nil {
		requestid.Logger(r.Context(), s.logger).Error("Failed to list places", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list places")
		return
	}
	s.metrics.Places.Set(float64(len(places)))

	resp := make([]PlaceResponse, 0, len(places))
	for _, p := range places {
		resp = append(resp, s.placeResponse(p))
	}
	writeJSON(w, resp)
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookupPlace(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.placeResponse(p))
}

func (s *Server) handlePlaceState(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookupPlace(w, r)
	if !ok {
		return
	}

	at, err := parseAt(r.URL.Query().Get("at"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tz := r.URL.Query().Get("timezone")
	if tz == "" {
		tz = s.timezoneOrDefault(p.Timezone)
	}
	resp, err := s.evaluate(p.Rules, tz, at)
	if err != nil {
		// Stored rules were valid when saved; only an override zone can fail here.
		requestid.Logger(r.Context(), s.logger).Debug("Place evaluation failed",
			sanitize.Field("place", p.Name),
			sanitize.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp.Place = p.Name
	writeJSON(w, resp)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	var at time.Time
	if req.At != nil {
		at = *req.At
	}
	resp, err := s.evaluate(req.Rules, s.timezoneOrDefault(req.Timezone), at)
	if err != nil {
		requestid.Logger(r.Context(), s.logger).Debug("Evaluation rejected",
			zap.Int("rules", len(req.Rules)),
			sanitize.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, resp)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clockStr := q.Get("clock")
	dateStr := q.Get("date")
	if clockStr == "" || dateStr == "" {
		writeError(w, http.StatusBadRequest, "clock and date are required")
		return
	}

	day, err := hours.ParseDate(dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tz := s.timezoneOrDefault(q.Get("timezone"))
	instant, err := hours.ResolveClockTime(clockStr, day, tz)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, ResolveResponse{
		Clock:    clockStr,
		Date:     day.String(),
		Timezone: instant.Location().String(),
		Instant:  instant,
	})
}

// evaluate runs one query and renders it. A zero at means "now".
func (s *Server) evaluate(rules hours.RuleSet, tz string, at time.Time) (*StateResponse, error) {
	if at.IsZero() {
		at = s.clock.Now()
	}
	state, err := s.evaluator.Evaluate(rules, hours.Query{At: at, Timezone: tz})
	_, known := state.NextChange()
	s.metrics.ObserveEvaluation(state.IsOpen, known || len(rules) == 0, err)
	if err != nil {
		return nil, err
	}

	loc, err := hours.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	return &StateResponse{
		Timezone: loc.String(),
		At:       at.In(loc),
		IsOpen:   state.IsOpen,
		OpensAt:  inZone(state.OpensAt, loc),
		ClosesAt: inZone(state.ClosesAt, loc),
		Status:   status.Format(state, at, loc),
		Relative: status.Relative(state, at),
	}, nil
}

func (s *Server) lookupPlace(w http.ResponseWriter, r *http.Request) (*store.Place, bool) {
	name := r.PathValue("name")
	if s.places == nil {
		writeError(w, http.StatusNotFound, "place registry not configured")
		return nil, false
	}
	p, err := s.places.Get(name)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("place %q not found", name))
		return nil, false
	}
	if err != nil {
		requestid.Logger(r.Context(), s.logger).Error("Failed to load place",
			sanitize.Field("name", name),
			sanitize.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load place")
		return nil, false
	}
	return p, true
}

func (s *Server) placeResponse(p *store.Place) PlaceResponse {
	rules := p.Rules
	if rules == nil {
		rules = hours.RuleSet{}
	}
	return PlaceResponse{
		Name:      p.Name,
		Timezone:  s.timezoneOrDefault(p.Timezone),
		Rules:     rules,
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

func (s *Server) timezoneOrDefault(tz string) string {
	if tz == "" {
		return s.defaultTimezone
	}
	return tz
}

func parseAt(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid at %q: want RFC3339", v)
	}
	return t, nil
}

func inZone(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	v := t.In(loc)
	return &v
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	setSecurityHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	setSecurityHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Error: msg})
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Cache-Control", "no-store")
}
