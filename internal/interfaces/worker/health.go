package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
)

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

const readinessTimeout = 3 * time.Second

// NewHealthMux serves /healthz, /readyz and, when metrics is not nil,
// /metrics.  /readyz runs every check and answers 503 if any fails.
func NewHealthMux(checks map[string]HealthCheck, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		sort.Strings(names)

		status := http.StatusOK
		body := map[string]string{}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				status = http.StatusServiceUnavailable
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		writeStatus(w, status, body)
	})
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return mux
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// StartHealthServer serves the health mux on addr in the background.
func StartHealthServer(addr string, mux http.Handler, logger logging.Logger) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("health server listening", logging.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", logging.Err(err))
		}
	}()
	return srv
}

//Personal.AI order the ending
