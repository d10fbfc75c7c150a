// Package status serves health, metrics and usage statistics over HTTP.
package status

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"weatherbot/internal/metrics"
	"weatherbot/internal/usage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// StatsSource answers usage queries. *usage.SQLiteStore implements it.
type StatsSource interface {
	Summary(ctx context.Context, since time.Time) ([]usage.KindStats, error)
	TopCities(ctx context.Context, since time.Time, limit int) ([]usage.CityCount, error)
}

type Server struct {
	addr    string
	version string
	stats   StatsSource
	logger  *slog.Logger
	server  *http.Server
}

type Config struct {
	Addr    string
	Version string
	Stats   StatsSource // optional; /stats answers 404 without it
	Logger  *slog.Logger
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{
		addr:    cfg.Addr,
		version: cfg.Version,
		stats:   cfg.Stats,
		logger:  cfg.Logger,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "status",
			otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
				return "HTTP " + req.Method + " " + req.URL.Path
			}),
		)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", metrics.Collector.Handler())
	r.Get("/stats", s.handleStats)
	return r
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("status server started", "addr", "http://"+s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  metrics.Collector.Uptime().Round(time.Second).String(),
		"time":    time.Now().Format(time.RFC3339),
	})
}

// handleStats reports usage over a window given as ?since=<duration> (default 24h).
func (s *Server) handleStats(rw http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeJSON(rw, http.StatusNotFound, map[string]string{"error": "usage log disabled"})
		return
	}

	window := 24 * time.Hour
	if v := r.URL.Query().Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "invalid since duration"})
			return
		}
		window = d
	}
	limit := 10
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "invalid top"})
			return
		}
		limit = n
	}

	since := time.Now().Add(-window)
	summary, err := s.stats.Summary(r.Context(), since)
	if err != nil {
		s.logger.Error("stats summary failed", "err", err)
		writeJSON(rw, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
		return
	}
	top, err := s.stats.TopCities(r.Context(), since, limit)
	if err != nil {
		s.logger.Error("stats top cities failed", "err", err)
		writeJSON(rw, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
		return
	}

	writeJSON(rw, http.StatusOK, map[string]any{
		"since":     since.Format(time.RFC3339),
		"summary":   summary,
		"topCities": top,
	})
}

func writeJSON(rw http.ResponseWriter, code int, v any) {
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(code)
	_ = json.NewEncoder(rw).Encode(v)
}
