package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockscan/internal/app"
	"github.com/mamadbah2/stockscan/internal/config"
	"github.com/mamadbah2/stockscan/internal/scheduler"
	"github.com/mamadbah2/stockscan/internal/station"
	"github.com/mamadbah2/stockscan/pkg/logger"
)

func main() {
	envFile := flag.String("env", "", "path to a .env file")
	logFile := flag.String("log", "station.log", "file receiving JSON logs")
	flag.Parse()

	if err := run(*envFile, *logFile); err != nil {
		fmt.Fprintln(os.Stderr, "station:", err)
		os.Exit(1)
	}
}

func run(envFile, logFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	baseLogger, err := logger.NewFile(cfg.Log.Level, logFile)
	if err != nil {
		return err
	}
	defer func() { _ = baseLogger.Sync() }()

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	cat, err := app.BuildCatalog(initCtx, cfg, baseLogger)
	cancel()
	if err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}
	defer func() {
		if err := cat.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close catalog", zap.Error(err))
		}
	}()

	if cat.Cache != nil {
		sched := scheduler.NewScheduler(cfg.Catalog.RefreshSchedule, cat.Cache, baseLogger.Named("scheduler"))
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	toasts := station.NewChannelNotifier(32)
	notifier := app.BuildNotifier(cfg, baseLogger, toasts)
	defer notifier.Close()
	workflow := app.BuildWorkflow(cfg, cat.Lookup, notifier, baseLogger)
	defer workflow.Controller.Close()

	p := tea.NewProgram(station.New(workflow.Controller, workflow.History, toasts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run station: %w", err)
	}
	return nil
}
