// Package status serves run progress and metrics over HTTP while a long
// generation is in flight. Entirely optional; the run does not depend on it.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/andrewbheyer/sims-skybrightness-pre/internal/generate"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/metrics"
)

// Server exposes /healthz, /progress, and /metrics.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a status server bound to addr, reading progress snapshots
// from progressFn.
func New(addr string, progressFn func() generate.Progress, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("GET /progress", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(progressFn())
	})
	mux.Handle("GET /metrics", metrics.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until ctx is cancelled. Listen errors are logged, not fatal;
// the generation run matters more than its status endpoint.
func (s *Server) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info("status server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Warn("status server error", "error", err)
	}
}
