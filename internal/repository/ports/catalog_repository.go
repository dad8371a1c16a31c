package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/tour_catalog_BackEnd/internal/domain"
)

// CatalogRepository gives read access to catalog rows that itinerary items
// link against. Unknown ids are omitted from the result, never an error.
type CatalogRepository interface {
	FindHotels(ctx context.Context, ids []uuid.UUID) ([]domain.HotelSummary, error)
	FindAttractions(ctx context.Context, ids []uuid.UUID) ([]domain.AttractionSummary, error)
	FindActivities(ctx context.Context, ids []uuid.UUID) ([]domain.CatalogActivity, error)
}
