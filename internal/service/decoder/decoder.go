package decoder

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockscan/internal/catalog"
	"github.com/mamadbah2/stockscan/internal/domain/models"
)

// Resolver turns raw scan payloads into item references.
type Resolver interface {
	Resolve(ctx context.Context, payload string) models.ItemReference
}

// Adapter resolves payloads against a catalog. It never fails: unknown payloads and
// catalog errors both resolve to the "Unknown Item" reference.
type Adapter struct {
	catalog catalog.Catalog
	logger  *zap.Logger
}

// NewAdapter wires a decoder adapter over the given catalog.
func NewAdapter(c catalog.Catalog, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{catalog: c, logger: logger}
}

// Resolve implements Resolver.
func (a *Adapter) Resolve(ctx context.Context, payload string) models.ItemReference {
	code := strings.TrimSpace(payload)
	if code == "" {
		return models.UnknownItem(payload)
	}
	if a.catalog == nil {
		return models.UnknownItem(code)
	}

	item, ok, err := a.catalog.Lookup(ctx, code)
	if err != nil {
		a.logger.Warn("catalog lookup failed, treating payload as unknown", zap.String("payload", code), zap.Error(err))
		return models.UnknownItem(code)
	}
	if !ok {
		a.logger.Debug("payload not in catalog", zap.String("payload", code))
		return models.UnknownItem(code)
	}

	if item.Identifier == "" {
		item.Identifier = code
	}
	return item
}
