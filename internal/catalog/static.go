package catalog

import (
	"context"

	"github.com/mamadbah2/stockscan/internal/domain/models"
)

// SampleItems is the fixed stand-in table used when no catalog backend is configured.
var SampleItems = []models.ItemReference{
	{Identifier: "WDG-001", DisplayName: "Widget A", KnownQuantity: 150},
	{Identifier: "GDG-002", DisplayName: "Gadget B", KnownQuantity: 87},
	{Identifier: "TOL-003", DisplayName: "Tool C", KnownQuantity: 45},
	{Identifier: "PRT-004", DisplayName: "Part D", KnownQuantity: 230},
}

// StaticSource serves a fixed list of items.
type StaticSource struct {
	items []models.ItemReference
}

// NewStaticSource copies items into a Source. A nil slice means SampleItems.
func NewStaticSource(items []models.ItemReference) *StaticSource {
	if items == nil {
		items = SampleItems
	}
	cp := make([]models.ItemReference, len(items))
	copy(cp, items)
	return &StaticSource{items: cp}
}

// LoadItems implements Source.
func (s *StaticSource) LoadItems(context.Context) ([]models.ItemReference, error) {
	cp := make([]models.ItemReference, len(s.items))
	copy(cp, s.items)
	return cp, nil
}
