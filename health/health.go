// Package health serves the liveness endpoints polled by the host platform.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Bot status values
const (
	StatusStarting     = "starting"
	StatusNoToken      = "no_token"
	StatusError        = "error"
	StatusRunning      = "running"
	StatusOnline       = "online"
	StatusShuttingDown = "shutting_down"
)

// Status is the bot's lifecycle state, safe for concurrent use.
type Status struct {
	v atomic.Value
}

// NewStatus starts in StatusStarting.
func NewStatus() *Status {
	s := &Status{}
	s.Set(StatusStarting)
	return s
}

func (s *Status) Set(v string) { s.v.Store(v) }
func (s *Status) Get() string  { return s.v.Load().(string) }

// NewRouter builds the health endpoints.
func NewRouter(status *Status) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "Discord Bot Status: %s", status.Get())
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":     "healthy",
			"service":    "buxbot",
			"bot_status": status.Get(),
		})
	})
	return r
}

// Serve runs the health server on addr until ctx is done.
func Serve(ctx context.Context, addr string, status *Status, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(status),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("health server starting", "component", "health", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
