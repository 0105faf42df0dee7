package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockscan/internal/app"
	"github.com/mamadbah2/stockscan/internal/config"
	"github.com/mamadbah2/stockscan/internal/scheduler"
	"github.com/mamadbah2/stockscan/internal/server/handlers"
	"github.com/mamadbah2/stockscan/internal/server/router"
	"github.com/mamadbah2/stockscan/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	cat, err := app.BuildCatalog(initCtx, cfg, baseLogger)
	initCancel()
	if err != nil {
		baseLogger.Fatal("failed to init catalog", zap.String("source", cfg.Catalog.Source), zap.Error(err))
	}
	defer func() {
		if err := cat.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close catalog", zap.Error(err))
		}
	}()

	notifier := app.BuildNotifier(cfg, baseLogger)
	defer notifier.Close()
	workflow := app.BuildWorkflow(cfg, cat.Lookup, notifier, baseLogger)
	defer workflow.Controller.Close()

	if cat.Cache != nil {
		sched := scheduler.NewScheduler(cfg.Catalog.RefreshSchedule, cat.Cache, baseLogger.Named("scheduler"))
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	scanHandler := handlers.NewScanHandler(workflow.Controller, workflow.History, cat.Lister, baseLogger.Named("handlers.scan"))
	engine := router.New(scanHandler, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("catalog", cfg.Catalog.Source),
			zap.Duration("session_timeout", cfg.Scanner.SessionTimeout))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
