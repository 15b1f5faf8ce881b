package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/FACorreiaa/payslip-vault/pkg/config"
	"github.com/FACorreiaa/payslip-vault/pkg/logging"
	"github.com/FACorreiaa/payslip-vault/pkg/metrics"
)

const usage = `usage: vault <command> [args]

commands:
  serve                 run the reconciliation scheduler (default)
  reconcile             run one reconciliation pass and exit
  ingest <file.pdf>     push one locked PDF through the pipeline
  import <dir>          ingest every PDF in a directory
  import-csv <file>     restore structured rows from a CSV export
  export <file.xlsx>    write the payslip history workbook
`

func main() {
	logger := logging.New()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := InitDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init dependencies", slog.Any("error", err))
		os.Exit(1)
	}
	defer deps.Close()

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	if err := run(ctx, deps, cmd, os.Args[2:]); err != nil {
		logger.Error("command failed", slog.String("command", cmd), slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, deps *Dependencies, cmd string, args []string) error {
	switch cmd {
	case "serve":
		return serve(ctx, deps)

	case "reconcile":
		report, err := deps.VaultService.Reconcile(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("reconciled %d blobs: %d added, %d removed, %d skipped\n",
			report.Total, report.Added, report.Removed, report.Skipped)
		return nil

	case "ingest":
		if len(args) != 1 {
			return fmt.Errorf("usage: vault ingest <file.pdf>")
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read PDF: %w", err)
		}
		res, err := deps.VaultService.IngestPDF(ctx, filepath.Base(args[0]), data)
		if err != nil {
			return err
		}
		if res.Skipped {
			fmt.Println("already vaulted, skipped")
			return nil
		}
		fmt.Printf("vaulted as %s\n", res.BlobID)
		return nil

	case "import":
		if len(args) != 1 {
			return fmt.Errorf("usage: vault import <dir>")
		}
		summary, err := deps.Importer.ImportDirectory(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("done: %d imported, %d skipped, %d failed\n",
			summary.Imported, summary.Skipped, summary.Failed)
		return nil

	case "import-csv":
		if len(args) != 1 {
			return fmt.Errorf("usage: vault import-csv <file>")
		}
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open CSV: %w", err)
		}
		defer f.Close()
		summary, err := deps.Importer.ImportCSV(ctx, f)
		if err != nil {
			return err
		}
		fmt.Printf("done: %d imported, %d skipped, %d failed\n",
			summary.Imported, summary.Skipped, summary.Failed)
		return nil

	case "export":
		if len(args) != 1 {
			return fmt.Errorf("usage: vault export <file.xlsx>")
		}
		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("failed to create workbook: %w", err)
		}
		defer f.Close()
		return deps.Exporter.WriteHistory(ctx, f)

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// serve starts the scheduler and the metrics endpoint, then waits for a
// shutdown signal.
func serve(ctx context.Context, deps *Dependencies) error {
	if deps.Config.Observability.MetricsEnabled {
		go func() {
			port := deps.Config.Observability.MetricsPort
			deps.Logger.Info("metrics listening", slog.Int("port", port))
			if err := metrics.Serve(port); err != nil {
				deps.Logger.Error("metrics server failed", slog.Any("error", err))
			}
		}()
	}

	if err := deps.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// Catch up on anything missed while the process was down.
	deps.Scheduler.RunNow()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		deps.Logger.Info("shutting down", slog.String("signal", sig.String()))
	case <-ctx.Done():
	}

	stopped := deps.Scheduler.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(30 * time.Second):
		deps.Logger.Warn("scheduler did not stop in time")
	}
	return nil
}
