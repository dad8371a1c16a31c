package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/tour_catalog_BackEnd/internal/domain"
	"github.com/njprem/tour_catalog_BackEnd/internal/service"
)

const dateLayout = "2006-01-02"

type activityRequest struct {
	Time                *string  `json:"time"`
	ActivityTitle       string   `json:"activity_title" validate:"required"`
	ActivityDescription *string  `json:"activity_description"`
	Location            *string  `json:"location"`
	AttractionID        *string  `json:"attraction_id" validate:"omitempty,uuid"`
	DurationHours       *float64 `json:"duration_hours" validate:"omitempty,gt=0,lte=24"`
	IsMeal              bool     `json:"is_meal"`
	MealType            *string  `json:"meal_type"`
	OrderIndex          int      `json:"order_index" validate:"min=0"`
}

type itemPayload struct {
	DayNumber          int               `json:"day_number" validate:"min=1"`
	Date               *string           `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Title              string            `json:"title" validate:"required"`
	Description        *string           `json:"description"`
	Location           *string           `json:"location"`
	Latitude           *float64          `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude          *float64          `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	AccommodationNotes *string           `json:"accommodation_notes"`
	HotelIDs           []string          `json:"hotel_ids" validate:"omitempty,dive,uuid"`
	AttractionIDs      []string          `json:"attraction_ids" validate:"omitempty,dive,uuid"`
	LinkedActivityIDs  []string          `json:"linked_activity_ids" validate:"omitempty,dive,uuid"`
	CustomActivities   []activityRequest `json:"custom_activities" validate:"omitempty,dive"`
}

type createItemRequest struct {
	EntityType string `json:"entity_type" validate:"required,oneof=package group_trip"`
	EntityID   string `json:"entity_id" validate:"required,uuid"`
	itemPayload
}

type bulkCreateRequest struct {
	EntityType string        `json:"entity_type" validate:"required,oneof=package group_trip"`
	EntityID   string        `json:"entity_id" validate:"required,uuid"`
	Items      []itemPayload `json:"items" validate:"required,min=1,dive"`
}

// updateItemRequest uses pointers throughout so absent keys can be told apart
// from zero values. An empty string clears a nullable text or date column.
type updateItemRequest struct {
	DayNumber          *int      `json:"day_number" validate:"omitempty,min=1"`
	Date               *string   `json:"date"`
	Title              *string   `json:"title"`
	Description        *string   `json:"description"`
	Location           *string   `json:"location"`
	Latitude           *float64  `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude          *float64  `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	AccommodationNotes *string   `json:"accommodation_notes"`
	HotelIDs           *[]string `json:"hotel_ids" validate:"omitempty,dive,uuid"`
	AttractionIDs      *[]string `json:"attraction_ids" validate:"omitempty,dive,uuid"`
	LinkedActivityIDs  *[]string `json:"linked_activity_ids" validate:"omitempty,dive,uuid"`
}

// updateActivityRequest follows the same presence rules as updateItemRequest;
// an empty attraction_id or meal_type clears the column.
type updateActivityRequest struct {
	Time                *string  `json:"time"`
	ActivityTitle       *string  `json:"activity_title"`
	ActivityDescription *string  `json:"activity_description"`
	Location            *string  `json:"location"`
	AttractionID        *string  `json:"attraction_id"`
	DurationHours       *float64 `json:"duration_hours" validate:"omitempty,gt=0,lte=24"`
	IsMeal              *bool    `json:"is_meal"`
	MealType            *string  `json:"meal_type"`
	OrderIndex          *int     `json:"order_index" validate:"omitempty,min=0"`
}

type reorderActivitiesRequest struct {
	ActivityIDs []string `json:"activity_ids" validate:"required,dive,uuid"`
}

type reorderItemsRequest struct {
	ItemIDs []string `json:"item_ids" validate:"required,dive,uuid"`
}

type generateDatesRequest struct {
	StartDate    string `json:"start_date" validate:"required,datetime=2006-01-02"`
	DurationDays int    `json:"duration_days" validate:"min=0"`
}

func (r activityRequest) toInput() (service.ItineraryActivityInput, error) {
	input := service.ItineraryActivityInput{
		Time:                r.Time,
		ActivityTitle:       r.ActivityTitle,
		ActivityDescription: r.ActivityDescription,
		Location:            r.Location,
		DurationHours:       r.DurationHours,
		IsMeal:              r.IsMeal,
		OrderIndex:          r.OrderIndex,
	}
	if r.AttractionID != nil && strings.TrimSpace(*r.AttractionID) != "" {
		id, err := uuid.Parse(strings.TrimSpace(*r.AttractionID))
		if err != nil {
			return input, fmt.Errorf("attraction_id must be a valid UUID")
		}
		input.AttractionID = &id
	}
	if r.MealType != nil {
		mt := domain.MealType(strings.ToLower(strings.TrimSpace(*r.MealType)))
		input.MealType = &mt
	}
	return input, nil
}

func (p itemPayload) toInput(ref domain.EntityRef) (service.ItineraryItemInput, error) {
	input := service.ItineraryItemInput{
		Ref:                ref,
		DayNumber:          p.DayNumber,
		Title:              p.Title,
		Description:        p.Description,
		Location:           p.Location,
		Latitude:           p.Latitude,
		Longitude:          p.Longitude,
		AccommodationNotes: p.AccommodationNotes,
	}
	if p.Date != nil && strings.TrimSpace(*p.Date) != "" {
		d, err := time.Parse(dateLayout, strings.TrimSpace(*p.Date))
		if err != nil {
			return input, fmt.Errorf("date must use YYYY-MM-DD format")
		}
		input.Date = &d
	}
	var err error
	if input.HotelIDs, err = parseIDList("hotel_ids", p.HotelIDs); err != nil {
		return input, err
	}
	if input.AttractionIDs, err = parseIDList("attraction_ids", p.AttractionIDs); err != nil {
		return input, err
	}
	if input.LinkedActivityIDs, err = parseIDList("linked_activity_ids", p.LinkedActivityIDs); err != nil {
		return input, err
	}
	input.Activities = make([]service.ItineraryActivityInput, 0, len(p.CustomActivities))
	for i, act := range p.CustomActivities {
		actInput, err := act.toInput()
		if err != nil {
			return input, fmt.Errorf("custom_activities[%d]: %w", i, err)
		}
		input.Activities = append(input.Activities, actInput)
	}
	return input, nil
}

func (r updateItemRequest) toUpdate() (service.ItineraryItemUpdate, error) {
	update := service.ItineraryItemUpdate{
		Fields: domain.ItineraryItemFields{
			DayNumber:          r.DayNumber,
			Title:              r.Title,
			Description:        r.Description,
			Location:           r.Location,
			Latitude:           r.Latitude,
			Longitude:          r.Longitude,
			AccommodationNotes: r.AccommodationNotes,
		},
	}
	if r.Date != nil {
		var d time.Time
		if raw := strings.TrimSpace(*r.Date); raw != "" {
			parsed, err := time.Parse(dateLayout, raw)
			if err != nil {
				return update, fmt.Errorf("date must use YYYY-MM-DD format")
			}
			d = parsed
		}
		update.Fields.Date = &d
	}

	var err error
	if update.Links.HotelIDs, err = parseOptionalIDList("hotel_ids", r.HotelIDs); err != nil {
		return update, err
	}
	if update.Links.AttractionIDs, err = parseOptionalIDList("attraction_ids", r.AttractionIDs); err != nil {
		return update, err
	}
	if update.Links.LinkedActivityIDs, err = parseOptionalIDList("linked_activity_ids", r.LinkedActivityIDs); err != nil {
		return update, err
	}
	return update, nil
}

func (r updateActivityRequest) toFields() (domain.ItineraryActivityFields, error) {
	fields := domain.ItineraryActivityFields{
		Time:                r.Time,
		ActivityTitle:       r.ActivityTitle,
		ActivityDescription: r.ActivityDescription,
		Location:            r.Location,
		DurationHours:       r.DurationHours,
		IsMeal:              r.IsMeal,
		OrderIndex:          r.OrderIndex,
	}
	if r.AttractionID != nil {
		id := uuid.Nil
		if raw := strings.TrimSpace(*r.AttractionID); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				return fields, fmt.Errorf("attraction_id must be a valid UUID")
			}
			id = parsed
		}
		fields.AttractionID = &id
	}
	if r.MealType != nil {
		mt := domain.MealType(strings.ToLower(strings.TrimSpace(*r.MealType)))
		fields.MealType = &mt
	}
	return fields, nil
}

func parseIDList(field string, raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%s must contain valid UUIDs", field)
		}
		out = append(out, id)
	}
	return out, nil
}

func parseOptionalIDList(field string, raw *[]string) (*[]uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	ids, err := parseIDList(field, *raw)
	if err != nil {
		return nil, err
	}
	return &ids, nil
}
