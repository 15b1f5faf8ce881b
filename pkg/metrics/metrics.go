// Package metrics exposes prometheus instrumentation for the ingest pipeline
// and the reconciliation job.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PayslipsIngested counts payslips processed by the live ingestion path.
	PayslipsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payslip_vault_ingested_total",
		Help: "Payslips ingested through the live pipeline.",
	})

	// ReconcileRuns counts completed reconciliation runs.
	ReconcileRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payslip_vault_reconcile_runs_total",
		Help: "Completed reconciliation runs.",
	})

	// ReconcileAdded counts structured rows backfilled by reconciliation.
	ReconcileAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payslip_vault_reconcile_added_total",
		Help: "Structured rows backfilled from vault blobs.",
	})

	// ReconcileRemoved counts stale structured rows deleted by reconciliation.
	ReconcileRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payslip_vault_reconcile_removed_total",
		Help: "Stale structured rows removed.",
	})

	// ReconcileFailures counts per-candidate ingestion failures during
	// reconciliation (the batch itself continues).
	ReconcileFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payslip_vault_reconcile_failures_total",
		Help: "Per-candidate failures during reconciliation.",
	})
)

// Serve exposes /metrics on the given port. It blocks, so run it in its own
// goroutine.
func Serve(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
