// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/payslip-vault/internal/domain/vault/service"
)

// Scheduler manages the recurring vault reconciliation job.
type Scheduler struct {
	cron    *cron.Cron
	vault   *service.VaultService
	spec    string
	logger  *slog.Logger
	timeout time.Duration
}

// NewScheduler creates a scheduler that runs reconciliation on the given
// standard 5-field cron spec.
func NewScheduler(vault *service.VaultService, spec string, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:    c,
		vault:   vault,
		spec:    spec,
		logger:  logger,
		timeout: 30 * time.Minute,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.reconcile)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("spec", s.spec),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers a reconciliation (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.reconcile()
}

func (s *Scheduler) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Info("starting scheduled vault reconciliation")

	report, err := s.vault.Reconcile(ctx)
	if err != nil {
		s.logger.Error("vault reconciliation failed", slog.Any("error", err))
		return
	}

	s.logger.Info("scheduled vault reconciliation completed",
		slog.Int("total", report.Total),
		slog.Int("added", report.Added),
		slog.Int("removed", report.Removed),
		slog.Int("skipped", report.Skipped),
	)
}
