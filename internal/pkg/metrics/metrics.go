package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	BetsPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betpulse_bets_placed_total",
		Help: "Bets accepted and persisted with a stake debit.",
	})

	BetsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betpulse_bets_settled_total",
		Help: "Bets moved to a terminal state, by outcome.",
	}, []string{"status"})

	LedgerEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betpulse_ledger_entries_total",
		Help: "Ledger entries appended, by type.",
	}, []string{"type"})

	InsufficientFunds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betpulse_wallet_insufficient_funds_total",
		Help: "Debits rejected because the derived balance was too low.",
	})

	LockTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betpulse_wallet_lock_timeouts_total",
		Help: "Wallet mutations aborted by the per-user lock timeout.",
	})
)

// HealthFunc reports dependency health for the /healthz endpoint.
type HealthFunc func(ctx context.Context) error

// StartServer starts a small HTTP server exposing /metrics and /healthz
// on its own port so scraping never competes with the public API.
func StartServer(port string, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if healthFn != nil {
			if err := healthFn(ctx); err != nil {
				http.Error(w, "unhealthy: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Metrics server listening")
		_ = srv.ListenAndServe()
	}()

	return srv
}
