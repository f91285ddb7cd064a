// Package api exposes the session and the progression over HTTP/JSON.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/xtding233/spiral-backend/internal/app"
)

const maxBodyBytes = 1 << 20

// Server handles HTTP requests.
type Server struct {
	app       *app.Context
	session   *app.Session
	logger    zerolog.Logger
	startTime time.Time
}

// NewServer serves session s backed by c.
func NewServer(c *app.Context, s *app.Session) *Server {
	return &Server{
		app:       c,
		session:   s,
		logger:    c.Component("api"),
		startTime: time.Now(),
	}
}

// Routes sets up the HTTP routes with their middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/run", func(r chi.Router) {
			r.Get("/", s.handleView)
			r.Post("/", s.handleStart)
			r.Post("/doors/{doorID}", s.handleAttempt)
			r.Post("/fortune", s.handleFortune)
			r.Post("/bank", s.handleBank)
			r.Put("/autobank", s.handleAutoBank)
			r.Post("/drain", s.handleDrain)
			r.Get("/events", s.handleEvents)
		})

		r.Get("/progress", s.handleProgress)
		r.Post("/progress/reset", s.handleReset)
		r.Get("/upgrades", s.handleCatalog)
		r.Post("/upgrades/{upgradeID}/purchase", s.handlePurchase)
		r.Get("/daily", s.handleDaily)
		r.Post("/daily/claim", s.handleClaimDaily)
		r.Get("/missions", s.handleMissions)
		r.Put("/missions", s.handleSaveMissions)
		r.Get("/tables", s.handleTables)
		r.Post("/sim", s.handleSim)
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// writeJSON writes v with status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("encode response")
	}
}

// decode reads a JSON body. An empty body leaves dst untouched.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "healthy",
		Uptime:        time.Since(s.startTime).Round(time.Second).String(),
		TablesVersion: s.app.Tables().Version,
	})
}
