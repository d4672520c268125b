package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MelParker66/flowerama-vd2026/internal/config"
	"github.com/MelParker66/flowerama-vd2026/internal/db"
	"github.com/MelParker66/flowerama-vd2026/internal/handler"
	"github.com/MelParker66/flowerama-vd2026/internal/ingest"
	"github.com/MelParker66/flowerama-vd2026/internal/metrics"
	"github.com/MelParker66/flowerama-vd2026/internal/ports"
	"github.com/MelParker66/flowerama-vd2026/internal/repository"
	"github.com/MelParker66/flowerama-vd2026/internal/server"
	"github.com/MelParker66/flowerama-vd2026/internal/service"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sheet := ingest.Load(cfg.PlannedXLSX, logger)
	metrics.PlannedProducts.Set(float64(len(sheet.Planned)))
	overrides := repository.LoadOverrideStore(cfg.OverridesFile, logger)

	// Ledger journal (optional)
	var (
		journal ports.LedgerJournal
		health  ports.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		pg, err := db.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("failed to connect database", "err", err)
			os.Exit(1)
		}
		defer pg.Close()

		pj := repository.PostgresJournal{DB: pg}
		if err := pj.EnsureSchema(ctx); err != nil {
			logger.Error("failed to prepare ledger journal", "err", err)
			os.Exit(1)
		}
		journal, health = pj, pg
	}

	ledger := repository.NewLedger(journal)
	if journal != nil {
		n, err := ledger.Replay(ctx)
		if err != nil {
			logger.Error("failed to replay ledger journal", "err", err)
			os.Exit(1)
		}
		logger.Info("ledger journal replayed", "entries", n)
	}

	// services
	planning := service.NewPlanningService(sheet, overrides, logger)
	summary := service.SummaryService{Planning: planning, Ledger: ledger}

	// handlers
	healthHandler := handler.HealthHandler{DB: health}
	activityHandler := handler.ActivityHandler{Ledger: ledger, Logger: logger}
	plannedHandler := handler.PlannedHandler{Planning: planning, Logger: logger}
	historyHandler := handler.HistoryHandler{Ledger: ledger}
	dashboardHandler := handler.DashboardHandler{Summary: summary, Logger: logger}

	router := server.NewRouter(cfg, logger, healthHandler, activityHandler, plannedHandler, historyHandler, dashboardHandler)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
