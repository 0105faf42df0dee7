// Package catalog provides item lookups for the scanning workflow and an in-memory
// cache over slower catalog backends.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockscan/internal/domain/models"
)

// Catalog resolves scanned identifiers to item references.
type Catalog interface {
	Lookup(ctx context.Context, identifier string) (models.ItemReference, bool, error)
}

// Source loads the whole catalog at once.
type Source interface {
	LoadItems(ctx context.Context) ([]models.ItemReference, error)
}

// Lister is implemented by catalogs able to enumerate their items.
type Lister interface {
	List(ctx context.Context) ([]models.ItemReference, error)
}

// Cache keeps a snapshot of a Source in memory. Lookups never touch the backend.
type Cache struct {
	source Source
	logger *zap.Logger
	now    func() time.Time

	mu        sync.RWMutex
	items     map[string]models.ItemReference
	refreshed time.Time
}

// NewCache builds an empty cache; call Refresh to populate it.
func NewCache(source Source, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		source: source,
		logger: logger,
		now:    time.Now,
		items:  make(map[string]models.ItemReference),
	}
}

// Refresh replaces the snapshot with the current contents of the source. On failure the
// previous snapshot is kept.
func (c *Cache) Refresh(ctx context.Context) error {
	items, err := c.source.LoadItems(ctx)
	if err != nil {
		return fmt.Errorf("load catalog items: %w", err)
	}

	next := make(map[string]models.ItemReference, len(items))
	for _, item := range items {
		if item.Identifier == "" {
			continue
		}
		if _, dup := next[item.Identifier]; dup {
			c.logger.Warn("duplicate catalog identifier, keeping first", zap.String("identifier", item.Identifier))
			continue
		}
		next[item.Identifier] = item
	}

	c.mu.Lock()
	c.items = next
	c.refreshed = c.now()
	c.mu.Unlock()

	c.logger.Info("catalog refreshed", zap.Int("items", len(next)))
	return nil
}

// Lookup implements Catalog.
func (c *Cache) Lookup(_ context.Context, identifier string) (models.ItemReference, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[identifier]
	return item, ok, nil
}

// List implements Lister, sorted by identifier.
func (c *Cache) List(_ context.Context) ([]models.ItemReference, error) {
	c.mu.RLock()
	out := make([]models.ItemReference, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out, nil
}

// RefreshedAt returns when the snapshot was last replaced.
func (c *Cache) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshed
}

// Filter keeps items whose identifier or display name contains search, case-insensitively.
func Filter(items []models.ItemReference, search string) []models.ItemReference {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return items
	}
	out := make([]models.ItemReference, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Identifier), needle) ||
			strings.Contains(strings.ToLower(item.DisplayName), needle) {
			out = append(out, item)
		}
	}
	return out
}
