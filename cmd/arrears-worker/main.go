package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"rette/internal/cli"
	"rette/internal/core"
	"rette/internal/services"
	"rette/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting arrears-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSnapshotRepository(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	seed := storage.LoadSeed(cfg.SeedDataDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One report at startup, then on the configured interval.
	reportArrears(ctx, logger, repo, seed)

	ticker := time.NewTicker(cfg.ArrearsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Arrears worker shutdown complete")
			return
		case <-ticker.C:
			reportArrears(ctx, logger, repo, seed)
		}
	}
}

// reportArrears loads the latest snapshot and logs every student still owing
// for the current billing period.
func reportArrears(ctx context.Context, logger *slog.Logger, repo *storage.SnapshotRepository, seed core.Collections) {
	now := time.Now()
	month, year := int(now.Month()), now.Year()

	collections := repo.Load(ctx, seed)
	report := services.ArrearsReport(collections, month, year)

	if len(report) == 0 {
		logger.Info("No students in arrears", "month", month, "year", year)
		return
	}

	var totalOwed int64
	for _, entry := range report {
		totalOwed += entry.Remaining.Cents
		logger.Info("Student in arrears",
			"student_id", entry.StudentID,
			"student_name", entry.StudentName,
			"plan_name", entry.PlanName,
			"total_paid_cents", entry.TotalPaid.Cents,
			"remaining_cents", entry.Remaining.Cents,
			"month", month,
			"year", year)
	}
	logger.Info("Arrears report complete",
		"students_in_arrears", len(report),
		"total_owed_cents", totalOwed,
		"month", month,
		"year", year)
}
