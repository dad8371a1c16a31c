package ports

import (
	"context"

	"github.com/njprem/tour_catalog_BackEnd/internal/domain"
)

// ItineraryCache stores hydrated itineraries per entity ref. Entries are
// written under the generation observed before the rows were loaded, and
// Invalidate advances the generation, so a fill that raced a write is never
// read back.
type ItineraryCache interface {
	Generation(ctx context.Context, ref domain.EntityRef) (uint64, error)
	// Get reports ok=false on a miss.
	Get(ctx context.Context, ref domain.EntityRef, gen uint64) (items []domain.ItineraryItem, ok bool, err error)
	Set(ctx context.Context, ref domain.EntityRef, gen uint64, items []domain.ItineraryItem) error
	Invalidate(ctx context.Context, ref domain.EntityRef) error
}
