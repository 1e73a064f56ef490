package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MatchResultsConsumed counts match results taken off the feed.
	MatchResultsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookmaker_match_results_consumed_total",
		Help: "Match results consumed from the feed",
	})

	// WagersSettled counts settled wagers by outcome.
	WagersSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookmaker_wagers_settled_total",
		Help: "Wagers settled, by outcome",
	}, []string{"outcome"})

	// ParlaysSettled counts settled parlays by outcome.
	ParlaysSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookmaker_parlays_settled_total",
		Help: "Parlays settled, by outcome",
	}, []string{"outcome"})

	// SettlementsPaused counts wagers left active because their market could
	// not be resolved yet.
	SettlementsPaused = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookmaker_settlements_paused_total",
		Help: "Settlement attempts paused on missing data or unknown markets",
	})

	// SettlementErrors counts settlement attempts that failed outright.
	SettlementErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookmaker_settlement_errors_total",
		Help: "Settlement attempts that failed",
	})
)

// HealthFunc reports whether a dependency is reachable.
type HealthFunc func(ctx context.Context) error

// StartMetricsServer starts a small HTTP server exposing /metrics and
// /healthz. Run from main; the returned server is shut down on exit.
func StartMetricsServer(port string, healthFn HealthFunc) *http.Server {
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
