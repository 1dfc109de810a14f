// Package metrics exposes match lifecycle counters and a small HTTP
// listener for /metrics and /healthz.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Match lifecycle counters.
var (
	BetsPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dicebot_bets_placed_total",
		Help: "Number of accepted bets.",
	})
	PointsWagered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dicebot_points_wagered_total",
		Help: "Total points debited for bets.",
	})
	PointsPaidOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dicebot_points_paid_out_total",
		Help: "Total points credited to winners at settlement.",
	})
	MatchesSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dicebot_matches_settled_total",
		Help: "Number of matches resolved with a dice roll.",
	})
	MatchesVoided = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dicebot_matches_voided_total",
		Help: "Number of matches terminated without settlement.",
	})
)

// HealthFunc reports backend health for /healthz.
type HealthFunc func(ctx context.Context) error

// StartServer starts a lightweight HTTP server for /metrics and
// /healthz in a background goroutine and returns it for shutdown.
func StartServer(port string, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(fmt.Sprintf("unhealthy: %v", err)))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
