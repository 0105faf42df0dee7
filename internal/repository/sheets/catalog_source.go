package sheets

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockscan/internal/domain/models"
)

// CatalogSource reads item references from a sheet laid out as
// identifier | name | quantity. Rows that do not parse are skipped.
type CatalogSource struct {
	repo       Repository
	sheetRange string
	logger     *zap.Logger
}

// NewCatalogSource wires a catalog source over the given range, e.g. "Catalog!A:C".
func NewCatalogSource(repository Repository, sheetRange string, logger *zap.Logger) *CatalogSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogSource{repo: repository, sheetRange: sheetRange, logger: logger}
}

// LoadItems implements catalog.Source.
func (s *CatalogSource) LoadItems(ctx context.Context) ([]models.ItemReference, error) {
	rows, err := s.repo.ReadRange(ctx, s.sheetRange)
	if err != nil {
		return nil, fmt.Errorf("load catalog range: %w", err)
	}

	items := make([]models.ItemReference, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}

		identifier := strings.TrimSpace(fmt.Sprint(row[0]))
		name := strings.TrimSpace(fmt.Sprint(row[1]))
		if identifier == "" || name == "" {
			continue
		}

		quantity := 0
		if len(row) > 2 {
			qty, err := parseQuantity(row[2])
			if err != nil {
				// The header row lands here too.
				s.logger.Debug("skip catalog row with invalid quantity", zap.Int("row", i+1), zap.Any("value", row[2]), zap.Error(err))
				continue
			}
			quantity = qty
		}

		items = append(items, models.ItemReference{
			Identifier:    identifier,
			DisplayName:   name,
			KnownQuantity: quantity,
		})
	}

	return items, nil
}

func parseQuantity(value interface{}) (int, error) {
	switch v := value.(type) {
	case float64:
		if v < 0 || v != math.Trunc(v) {
			return 0, fmt.Errorf("quantity %v is not a non-negative integer", v)
		}
		return int(v), nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("quantity %d is negative", v)
		}
		return v, nil
	case string:
		trimmed := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if trimmed == "" {
			return 0, nil
		}
		qty, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, err
		}
		if qty < 0 {
			return 0, fmt.Errorf("quantity %d is negative", qty)
		}
		return qty, nil
	default:
		return 0, fmt.Errorf("unsupported quantity type %T", value)
	}
}
