package domain

import (
	"time"

	"github.com/google/uuid"
)

type HotelSummary struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Slug       *string   `db:"slug" json:"slug,omitempty"`
	City       *string   `db:"city" json:"city,omitempty"`
	StarRating *int      `db:"star_rating" json:"star_rating,omitempty"`
	ImageKey   *string   `db:"image_key" json:"-"`
	ImageURL   *string   `db:"-" json:"image_url,omitempty"`
}

type AttractionSummary struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Name     string    `db:"name" json:"name"`
	Slug     *string   `db:"slug" json:"slug,omitempty"`
	City     *string   `db:"city" json:"city,omitempty"`
	ImageKey *string   `db:"image_key" json:"-"`
	ImageURL *string   `db:"-" json:"image_url,omitempty"`
}

// CatalogActivity is a reusable activity managed outside the itinerary and
// linked to items by id.
type CatalogActivity struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Slug        *string   `db:"slug" json:"slug,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
