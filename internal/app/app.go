// Package app assembles the scanning workflow from configuration.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockscan/internal/catalog"
	"github.com/mamadbah2/stockscan/internal/config"
	"github.com/mamadbah2/stockscan/internal/domain/models"
	"github.com/mamadbah2/stockscan/internal/repository/mongodb"
	"github.com/mamadbah2/stockscan/internal/repository/sheets"
	"github.com/mamadbah2/stockscan/internal/service/decoder"
	"github.com/mamadbah2/stockscan/internal/service/history"
	"github.com/mamadbah2/stockscan/internal/service/notify"
	"github.com/mamadbah2/stockscan/internal/service/scanning"
	whatsappclient "github.com/mamadbah2/stockscan/pkg/clients/whatsapp"
)

// Catalog bundles the configured catalog backend.
type Catalog struct {
	Lookup catalog.Catalog
	Lister catalog.Lister
	// Cache is nil when lookups go straight to the backend.
	Cache *catalog.Cache
	close func(ctx context.Context) error
}

// Close releases backend connections.
func (c *Catalog) Close(ctx context.Context) error {
	if c.close == nil {
		return nil
	}
	return c.close(ctx)
}

// BuildCatalog connects the catalog backend selected by cfg.Catalog.Source. Cached
// backends are loaded once before returning.
func BuildCatalog(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Catalog.Source {
	case config.CatalogMongoDB:
		repo, err := mongodb.NewCatalogRepository(ctx, cfg.MongoDB, logger.Named("repo.mongodb"))
		if err != nil {
			return nil, err
		}
		return &Catalog{Lookup: repo, Lister: repo, close: repo.Close}, nil

	case config.CatalogSheets:
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named("repo.sheets"))
		if err != nil {
			return nil, err
		}
		cache := catalog.NewCache(sheets.NewCatalogSource(repo, cfg.Sheets.CatalogRange, logger.Named("catalog.sheets")), logger.Named("catalog"))
		if err := cache.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("initial catalog load: %w", err)
		}
		return &Catalog{Lookup: cache, Lister: cache, Cache: cache}, nil

	case config.CatalogStatic:
		cache := catalog.NewCache(catalog.NewStaticSource(nil), logger.Named("catalog"))
		if err := cache.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("initial catalog load: %w", err)
		}
		return &Catalog{Lookup: cache, Lister: cache, Cache: cache}, nil

	default:
		return nil, fmt.Errorf("unsupported catalog source %q", cfg.Catalog.Source)
	}
}

// BuildNotifier always logs notifications and adds WhatsApp delivery of stock changes and
// expiries when configured. extra notifiers are appended to the fan-out. Close the result
// on shutdown so queued WhatsApp messages are delivered.
func BuildNotifier(cfg *config.Config, logger *zap.Logger, extra ...notify.Notifier) notify.Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}

	fanout := notify.Fanout{notify.NewLogNotifier(logger.Named("notify.log"))}
	if cfg.WhatsApp.Enabled() {
		fanout = append(fanout, notify.NewWhatsAppNotifier(
			whatsappclient.NewClient(cfg.WhatsApp),
			cfg.WhatsApp.NotifyTo,
			logger.Named("notify.whatsapp"),
			models.NotifyStockAdded, models.NotifyStockRemoved, models.NotifySessionExpired,
		))
		logger.Info("whatsapp notifications enabled")
	}
	return append(fanout, extra...)
}

// Workflow is the assembled scanning core.
type Workflow struct {
	Controller *scanning.Controller
	History    *history.Log
}

// BuildWorkflow wires decoder, history and controller over an existing catalog.
func BuildWorkflow(cfg *config.Config, cat catalog.Catalog, notifier notify.Notifier, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}

	log := history.NewLog(cfg.Scanner.HistoryCapacity)
	adapter := decoder.NewAdapter(cat, logger.Named("svc.decoder"))
	ctrl := scanning.NewController(adapter, log, notifier, cfg.Scanner.SessionTimeout, logger.Named("svc.scanning"))
	return &Workflow{Controller: ctrl, History: log}
}
