package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mock-interview/internal/config"
	"github.com/gokatarajesh/mock-interview/internal/logging"
	httperrors "github.com/gokatarajesh/mock-interview/pkg/http/errors"
)

// WSUpgrader handles WebSocket upgrades for the session channel.
var WSUpgrader = websocket.Upgrader{
	// The interviewer and interviewee views are served from other origins
	// during development.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Check pings one dependency.
type Check func(ctx context.Context) error

// Routes are the feature handlers; nil entries answer 501.
type Routes struct {
	UploadResume    http.HandlerFunc
	ListCandidates  http.HandlerFunc
	GetCandidate    http.HandlerFunc
	GetSession      http.HandlerFunc
	SetActive       http.HandlerFunc
	Scoreboard      http.HandlerFunc
	SessionSocket   http.HandlerFunc
	DependencyPings map[string]Check
}

// NewHTTPServer wires base routes (health, metrics) and the feature routes.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, routes Routes) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewHandler(logger, routes),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandler builds the request multiplexer.
func NewHandler(logger zerolog.Logger, routes Routes) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/ping", func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.IntoContext(r.Context(), logger)
		if err := pingDependencies(ctx, routes.DependencyPings); err != nil {
			log := logging.FromContext(ctx)
			log.Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondUpstreamError(w, httperrors.ErrCodeUpstreamError, "upstream error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	mux.HandleFunc("POST /v1/resumes", orUnavailable(routes.UploadResume))
	mux.HandleFunc("GET /v1/candidates", orUnavailable(routes.ListCandidates))
	mux.HandleFunc("GET /v1/candidates/{id}", orUnavailable(routes.GetCandidate))
	mux.HandleFunc("GET /v1/session", orUnavailable(routes.GetSession))
	mux.HandleFunc("POST /v1/session/active", orUnavailable(routes.SetActive))
	mux.HandleFunc("GET /v1/scoreboard", orUnavailable(routes.Scoreboard))
	mux.HandleFunc("GET /ws/session", orUnavailable(routes.SessionSocket))

	return accessLog(logger, mux)
}

func orUnavailable(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		httperrors.RespondError(w, http.StatusNotImplemented, httperrors.ErrCodeFeatureNotAvailable, "feature not enabled")
	}
}

func pingDependencies(ctx context.Context, checks map[string]Check) error {
	for name, check := range checks {
		if err := check(ctx); err != nil {
			log := logging.FromContext(ctx)
			log.Warn().Err(err).Str("dependency", name).Msg("ping failed")
			return err
		}
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the hijacker for WebSocket upgrades.
func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

func accessLog(logger zerolog.Logger, next http.Handler) http.Handler {
	log := logger.With().Str("component", "http").Logger()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") != "" {
			next.ServeHTTP(w, r.WithContext(logging.IntoContext(r.Context(), log)))
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(logging.IntoContext(r.Context(), log)))
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request served")
	})
}
