package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ent0n29/taskboard/internal/config"
	"github.com/ent0n29/taskboard/internal/httpapi"
	"github.com/ent0n29/taskboard/internal/logging"
	"github.com/ent0n29/taskboard/internal/observability"
	"github.com/ent0n29/taskboard/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(logger)

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	store := tasks.NewStore()
	if err := store.LoadFile(cfg.TasksFile); err != nil {
		metrics.Persistence.WithLabelValues("load", "error").Inc()
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("no task snapshot, starting empty", "path", cfg.TasksFile)
		} else {
			logger.Warn("task snapshot unreadable, starting empty", "path", cfg.TasksFile, "error", err)
		}
	} else {
		metrics.Persistence.WithLabelValues("load", "ok").Inc()
		logger.Info("task snapshot loaded", "path", cfg.TasksFile, "tasks", store.Len())
	}
	metrics.TasksStored.Set(float64(store.Len()))

	api := httpapi.New(cfg, store, metrics, logger)
	httpServer := &http.Server{
		Addr:     cfg.BindAddr,
		Handler:  api.Router(),
		ErrorLog: logging.StdLogger(logger, slog.LevelError),
	}

	go func() {
		logger.Info("server listening", "addr", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
		_ = httpServer.Close()
	}

	// Saved only after in-flight requests have drained.
	if cfg.PersistOnShutdown {
		if err := store.SaveFile(cfg.TasksFile); err != nil {
			metrics.Persistence.WithLabelValues("save", "error").Inc()
			logger.Error("task snapshot save failed", "path", cfg.TasksFile, "error", err)
		} else {
			metrics.Persistence.WithLabelValues("save", "ok").Inc()
			logger.Info("task snapshot saved", "path", cfg.TasksFile, "tasks", store.Len())
		}
	}

	logger.Info("shutdown complete")
}
