package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/tour_catalog_BackEnd/internal/domain"
)

type ItineraryRepository interface {
	ListItems(ctx context.Context, ref domain.EntityRef) ([]domain.ItineraryItem, error)
	FindItem(ctx context.Context, id uuid.UUID) (*domain.ItineraryItem, error)
	// CreateItem stores the item together with its link sets and custom
	// activities. Either everything is stored or nothing is.
	CreateItem(ctx context.Context, item *domain.ItineraryItem) (*domain.ItineraryItem, error)
	UpdateItem(ctx context.Context, id uuid.UUID, fields domain.ItineraryItemFields, links domain.AssociationReplacement) (*domain.ItineraryItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ListLinks(ctx context.Context, itemIDs []uuid.UUID) ([]domain.ItineraryLink, error)

	ListActivities(ctx context.Context, itemIDs []uuid.UUID) ([]domain.ItineraryActivity, error)
	FindActivity(ctx context.Context, id uuid.UUID) (*domain.ItineraryActivity, error)
	CreateActivity(ctx context.Context, activity *domain.ItineraryActivity) (*domain.ItineraryActivity, error)
	UpdateActivity(ctx context.Context, id uuid.UUID, fields domain.ItineraryActivityFields) (*domain.ItineraryActivity, error)
	DeleteActivity(ctx context.Context, id uuid.UUID) error

	SetActivityOrder(ctx context.Context, order map[uuid.UUID]int) error
	SetDayNumbers(ctx context.Context, days map[uuid.UUID]int) error
	SetDates(ctx context.Context, dates map[uuid.UUID]time.Time) error
}
