package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Camprch/osint-tool/internal/aggregate"
)

// Server exposes the aggregation views as a JSON API.
type Server struct {
	agg  *aggregate.Aggregator
	addr string
}

// New creates a new API server.
func New(agg *aggregate.Aggregator, addr string) *Server {
	return &Server{agg: agg, addr: addr}
}

// Handler builds the full route table, CORS included.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/dates", s.dates)
	mux.HandleFunc("GET /api/countries/active", s.activeCountries)
	mux.HandleFunc("GET /api/countries", s.countryActivity)
	mux.HandleFunc("GET /api/countries/{country}/events", s.countryEvents)
	mux.HandleFunc("GET /api/countries/{country}/latest-events", s.countryLatestEvents)
	mux.HandleFunc("GET /api/countries/{country}/all-events", s.countryAllEvents)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", s.health)

	return withCORS(mux)
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	fmt.Printf("Starting server on %s\n", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) dates(w http.ResponseWriter, r *http.Request) {
	dates, err := s.agg.RecentDates()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": dates})
}

func (s *Server) activeCountries(w http.ResponseWriter, r *http.Request) {
	days := 30
	if d := r.URL.Query().Get("days"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid days parameter")
			return
		}
		days = n
	}

	var exact *time.Time
	if ds := r.URL.Query().Get("date"); ds != "" {
		d, err := parseDate(ds)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date parameter")
			return
		}
		exact = &d
	}

	result, err := s.agg.ActiveCountries(exact, days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) countryActivity(w http.ResponseWriter, r *http.Request) {
	ds := r.URL.Query().Get("date")
	if ds == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'date' is required")
		return
	}
	day, err := parseDate(ds)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date parameter")
		return
	}

	result, err := s.agg.CountryActivity(day)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		result = []aggregate.CountryActivity{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) countryEvents(w http.ResponseWriter, r *http.Request) {
	ds := r.URL.Query().Get("date")
	if ds == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'date' is required")
		return
	}
	day, err := parseDate(ds)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date parameter")
		return
	}
	s.serveCountryEvents(w, r, aggregate.ExactDate(day))
}

func (s *Server) countryLatestEvents(w http.ResponseWriter, r *http.Request) {
	s.serveCountryEvents(w, r, aggregate.LatestDate())
}

func (s *Server) countryAllEvents(w http.ResponseWriter, r *http.Request) {
	s.serveCountryEvents(w, r, aggregate.AllDates())
}

func (s *Server) serveCountryEvents(w http.ResponseWriter, r *http.Request, sel aggregate.DateSelector) {
	country := r.PathValue("country")

	result, err := s.agg.CountryEvents(country, sel)
	switch {
	case errors.Is(err, aggregate.ErrUnknownCountry), errors.Is(err, aggregate.ErrNoEvents):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
