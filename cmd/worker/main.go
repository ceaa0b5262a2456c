package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/neura-assistant/internal/bootstrap"
	"github.com/kirillkom/neura-assistant/internal/config"
	"github.com/kirillkom/neura-assistant/internal/core/domain"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/watcher"
	"github.com/kirillkom/neura-assistant/internal/observability/logging"
	"github.com/kirillkom/neura-assistant/internal/observability/metrics"
)

const (
	serviceName    = "worker"
	processTimeout = 5 * time.Minute
)

var watchedExtensions = []string{".pdf", ".xlsx", ".txt", ".md"}

func main() {
	if err := config.LoadDotEnv(""); err != nil {
		slog.Warn("dotenv_load_failed", "error", err)
	}
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if cfg.PDFDir != "" {
		dirWatcher := watcher.New(cfg.PDFDir, watchedExtensions, 0)
		go func() {
			err := dirWatcher.Run(ctx, func(watchCtx context.Context, path string) error {
				doc, err := app.IngestUC.IngestFile(watchCtx, path)
				if err != nil {
					return err
				}
				slog.InfoContext(watchCtx, "watched_file_ingested", "path", path, "document_id", doc.ID)
				return nil
			})
			if err != nil {
				slog.Warn("directory_watcher_stopped", "dir", cfg.PDFDir, "error", err)
			}
		}()
	}

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, processTimeout)
		defer cancel()

		kind := metrics.DocumentKind("")
		if doc, err := app.Repo.GetByID(processCtx, documentID); err == nil {
			kind = metrics.DocumentKind(doc.Filename)
			workerMetrics.ObserveQueueLag(time.Since(doc.CreatedAt))
		} else if !domain.IsKind(err, domain.ErrDocumentNotFound) {
			slog.WarnContext(processCtx, "worker_queue_lag_lookup_failed", "document_id", documentID, "error", err)
		}

		started := time.Now()
		workerMetrics.StartDocument()
		err := app.ProcessUC.ProcessByID(processCtx, documentID)
		workerMetrics.FinishDocument(kind, time.Since(started), err)
		if err != nil {
			return err
		}
		if doc, lookupErr := app.Repo.GetByID(processCtx, documentID); lookupErr == nil {
			workerMetrics.ObserveIndexedChunks(kind, doc.ChunkCount)
		}
		return nil
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
