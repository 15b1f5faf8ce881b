package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/payslip-vault/internal/domain/backfill"
	"github.com/FACorreiaa/payslip-vault/internal/domain/notify"
	"github.com/FACorreiaa/payslip-vault/internal/domain/report"
	"github.com/FACorreiaa/payslip-vault/internal/domain/vault/pdf"
	"github.com/FACorreiaa/payslip-vault/internal/domain/vault/repository"
	"github.com/FACorreiaa/payslip-vault/internal/domain/vault/service"
	"github.com/FACorreiaa/payslip-vault/pkg/config"
	"github.com/FACorreiaa/payslip-vault/pkg/cron"
	"github.com/FACorreiaa/payslip-vault/pkg/db"
	"github.com/FACorreiaa/payslip-vault/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Pool   *pgxpool.Pool
	Logger *slog.Logger

	Vault storage.Vault
	Repo  repository.PayslipRepository

	VaultService *service.VaultService
	Importer     *backfill.Importer
	Exporter     *report.Exporter
	Scheduler    *cron.Scheduler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}
	deps.Pool = pool
	deps.Repo = repository.NewPostgresPayslipRepository(pool)

	deps.Vault, err = initVault(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to init blob vault: %w", err)
	}

	deps.VaultService = service.NewVaultService(
		deps.Vault,
		deps.Repo,
		&pdf.CommandExtractor{},
		initNotifier(cfg.Notify),
		logger,
		cfg.Vault.Secret,
		cfg.Vault.PDFPassword,
	)

	deps.Importer = backfill.NewImporter(deps.VaultService, logger)
	deps.Exporter = report.NewExporter(deps.Repo, cfg.Vault.Secret, logger)
	deps.Scheduler = cron.NewScheduler(deps.VaultService, cfg.Scheduler.ReconcileCron, logger)

	logger.Info("all dependencies initialized",
		slog.String("storage_backend", cfg.Storage.Backend),
	)
	return deps, nil
}

// Close releases held resources.
func (d *Dependencies) Close() {
	if d.Pool != nil {
		d.Pool.Close()
	}
}

func initVault(ctx context.Context, cfg config.StorageConfig) (storage.Vault, error) {
	switch cfg.Backend {
	case "gcs":
		return storage.NewGCSVault(ctx, cfg.GCSBucket)
	case "local":
		return storage.NewLocalVault(cfg.LocalPath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func initNotifier(cfg config.NotifyConfig) notify.Notifier {
	var sinks notify.Multi
	if cfg.SlackWebhookURL != "" {
		sinks = append(sinks, notify.NewSlackNotifier(cfg.SlackWebhookURL, cfg.ViewerBaseURL))
	}
	if cfg.ResendAPIKey != "" {
		sinks = append(sinks, notify.NewEmailNotifier(cfg.ResendAPIKey, cfg.ResendFrom, cfg.ResendTo))
	}
	return sinks
}
