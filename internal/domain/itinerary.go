package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EntityType string

const (
	EntityTypePackage   EntityType = "package"
	EntityTypeGroupTrip EntityType = "group_trip"
)

var ErrInvalidEntityType = errors.New("entity_type must be one of: package, group_trip")

func ParseEntityType(raw string) (EntityType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(EntityTypePackage):
		return EntityTypePackage, nil
	case string(EntityTypeGroupTrip):
		return EntityTypeGroupTrip, nil
	default:
		return "", ErrInvalidEntityType
	}
}

// EntityRef points an itinerary at its owning Package or GroupTrip. There is no
// foreign key behind it; Type decides which table ID belongs to.
type EntityRef struct {
	Type EntityType
	ID   uuid.UUID
}

func PackageRef(id uuid.UUID) EntityRef {
	return EntityRef{Type: EntityTypePackage, ID: id}
}

func GroupTripRef(id uuid.UUID) EntityRef {
	return EntityRef{Type: EntityTypeGroupTrip, ID: id}
}

func (r EntityRef) String() string {
	return string(r.Type) + ":" + r.ID.String()
}

type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
)

func (m MealType) Valid() bool {
	switch m {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner:
		return true
	default:
		return false
	}
}

type ItineraryItem struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	EntityType         EntityType `db:"entity_type" json:"entity_type"`
	EntityID           uuid.UUID  `db:"entity_id" json:"entity_id"`
	DayNumber          int        `db:"day_number" json:"day_number"`
	Date               *time.Time `db:"date" json:"date,omitempty"`
	Title              string     `db:"title" json:"title"`
	Description        *string    `db:"description" json:"description,omitempty"`
	Location           *string    `db:"location" json:"location,omitempty"`
	Latitude           *float64   `db:"latitude" json:"latitude,omitempty"`
	Longitude          *float64   `db:"longitude" json:"longitude,omitempty"`
	AccommodationNotes *string    `db:"accommodation_notes" json:"accommodation_notes,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`

	HotelIDs          []uuid.UUID `db:"-" json:"hotel_ids"`
	AttractionIDs     []uuid.UUID `db:"-" json:"attraction_ids"`
	LinkedActivityIDs []uuid.UUID `db:"-" json:"linked_activity_ids"`

	Hotels           []HotelSummary      `db:"-" json:"hotels"`
	Attractions      []AttractionSummary `db:"-" json:"attractions"`
	LinkedActivities []CatalogActivity   `db:"-" json:"linked_activities"`
	Activities       []ItineraryActivity `db:"-" json:"custom_activities"`
}

func (i ItineraryItem) Ref() EntityRef {
	return EntityRef{Type: i.EntityType, ID: i.EntityID}
}

type ItineraryActivity struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	ItineraryItemID     uuid.UUID  `db:"itinerary_item_id" json:"itinerary_item_id"`
	Time                *string    `db:"time" json:"time,omitempty"`
	ActivityTitle       string     `db:"activity_title" json:"activity_title"`
	ActivityDescription *string    `db:"activity_description" json:"activity_description,omitempty"`
	Location            *string    `db:"location" json:"location,omitempty"`
	AttractionID        *uuid.UUID `db:"attraction_id" json:"attraction_id,omitempty"`
	DurationHours       *float64   `db:"duration_hours" json:"duration_hours,omitempty"`
	IsMeal              bool       `db:"is_meal" json:"is_meal"`
	MealType            *MealType  `db:"meal_type" json:"meal_type,omitempty"`
	OrderIndex          int        `db:"order_index" json:"order_index"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`

	Attraction *AttractionSummary `db:"-" json:"attraction,omitempty"`
}

// ItineraryItemFields carries a partial update. Nil pointers leave the column
// untouched.
type ItineraryItemFields struct {
	DayNumber          *int
	Date               *time.Time
	Title              *string
	Description        *string
	Location           *string
	Latitude           *float64
	Longitude          *float64
	AccommodationNotes *string
}

func (f ItineraryItemFields) IsEmpty() bool {
	return f.DayNumber == nil && f.Date == nil && f.Title == nil && f.Description == nil &&
		f.Location == nil && f.Latitude == nil && f.Longitude == nil && f.AccommodationNotes == nil
}

type ItineraryActivityFields struct {
	Time                *string
	ActivityTitle       *string
	ActivityDescription *string
	Location            *string
	AttractionID        *uuid.UUID
	DurationHours       *float64
	IsMeal              *bool
	MealType            *MealType
	OrderIndex          *int
}

type LinkKind string

const (
	LinkKindHotel      LinkKind = "hotel"
	LinkKindAttraction LinkKind = "attraction"
	LinkKindActivity   LinkKind = "activity"
)

type ItineraryLink struct {
	ItemID   uuid.UUID `db:"itinerary_item_id"`
	Kind     LinkKind  `db:"kind"`
	TargetID uuid.UUID `db:"target_id"`
}

// AssociationReplacement describes which link sets an update rewrites. A nil
// slice pointer leaves that set untouched; a non-nil pointer (even to an empty
// slice) clears the set and re-adds the listed ids.
type AssociationReplacement struct {
	HotelIDs          *[]uuid.UUID
	AttractionIDs     *[]uuid.UUID
	LinkedActivityIDs *[]uuid.UUID
}

func (r AssociationReplacement) IsEmpty() bool {
	return r.HotelIDs == nil && r.AttractionIDs == nil && r.LinkedActivityIDs == nil
}

// ReplaceAssociations applies the replacement to item's id sets in place.
func (r AssociationReplacement) ReplaceAssociations(item *ItineraryItem) {
	if item == nil {
		return
	}
	if r.HotelIDs != nil {
		item.HotelIDs = append([]uuid.UUID{}, (*r.HotelIDs)...)
	}
	if r.AttractionIDs != nil {
		item.AttractionIDs = append([]uuid.UUID{}, (*r.AttractionIDs)...)
	}
	if r.LinkedActivityIDs != nil {
		item.LinkedActivityIDs = append([]uuid.UUID{}, (*r.LinkedActivityIDs)...)
	}
}
