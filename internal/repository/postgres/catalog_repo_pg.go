package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/tour_catalog_BackEnd/internal/domain"
	"github.com/njprem/tour_catalog_BackEnd/internal/repository/ports"
)

// CatalogRepository reads the catalog tables. Soft-deleted rows count as
// missing.
type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepo(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) FindHotels(ctx context.Context, ids []uuid.UUID) ([]domain.HotelSummary, error) {
	hotels := make([]domain.HotelSummary, 0, len(ids))
	if len(ids) == 0 {
		return hotels, nil
	}
	const query = `
		SELECT id, name, slug, city, star_rating, image_key
		FROM hotel
		WHERE id = ANY($1::uuid[]) AND deleted_at IS NULL
	`
	if err := r.db.SelectContext(ctx, &hotels, query, uuidArray(ids)); err != nil {
		return nil, err
	}
	return hotels, nil
}

func (r *CatalogRepository) FindAttractions(ctx context.Context, ids []uuid.UUID) ([]domain.AttractionSummary, error) {
	attractions := make([]domain.AttractionSummary, 0, len(ids))
	if len(ids) == 0 {
		return attractions, nil
	}
	const query = `
		SELECT id, name, slug, city, image_key
		FROM attraction
		WHERE id = ANY($1::uuid[]) AND deleted_at IS NULL
	`
	if err := r.db.SelectContext(ctx, &attractions, query, uuidArray(ids)); err != nil {
		return nil, err
	}
	return attractions, nil
}

func (r *CatalogRepository) FindActivities(ctx context.Context, ids []uuid.UUID) ([]domain.CatalogActivity, error) {
	activities := make([]domain.CatalogActivity, 0, len(ids))
	if len(ids) == 0 {
		return activities, nil
	}
	const query = `
		SELECT id, name, description, slug, is_active, created_at, updated_at
		FROM activity
		WHERE id = ANY($1::uuid[]) AND deleted_at IS NULL
	`
	if err := r.db.SelectContext(ctx, &activities, query, uuidArray(ids)); err != nil {
		return nil, err
	}
	return activities, nil
}

var _ ports.CatalogRepository = (*CatalogRepository)(nil)
