package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"giaodich/internal/amqp"
	"giaodich/internal/cli"
	"giaodich/internal/config"
	"giaodich/internal/log"
	"giaodich/internal/report"
	"giaodich/internal/services"
	ports "giaodich/internal/sheets"
	gsheet "giaodich/internal/sheets/google"
	mem "giaodich/internal/sheets/memory"
	"giaodich/internal/storage"
	"giaodich/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting giaodich-worker")

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	// The worker reads what the server persisted, not its in-memory ledger.
	var dataset services.DatasetLoader = services.FileLoader(cfg.DataFile)
	if cfg.DataBackend == "sqlite" {
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		dataset = repo
	}

	exporter := newExporter(ctx, cfg, logger)

	window, err := report.ParseWindow(cfg.ReportWindow)
	if err != nil {
		logger.Error("Invalid report window", log.FieldError, err)
		os.Exit(1)
	}
	reportWorker := worker.NewReportWorker(dataset, exporter, window, worker.WithLogger(logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return reportWorker.Run(gctx, cfg.ExportInterval)
	})

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()

		g.Go(func() error {
			err := client.ConsumeTransactionEvents(gctx, reportWorker.HandleEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("Skipping AMQP event consumption - no AMQP_URL provided")
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		stop()
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete", log.FieldCount, reportWorker.Exported())
}

// newExporter returns the Google Sheets exporter when a spreadsheet is
// configured, and an in-process store otherwise.
func newExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) ports.ReportExporter {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, keeping reports in memory")
		return mem.New()
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleReportSheet,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	return client
}
