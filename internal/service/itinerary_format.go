package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/tour_catalog_BackEnd/internal/domain"
)

const dateLayout = "2006-01-02"

type HotelView struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Slug       *string   `json:"slug,omitempty"`
	City       *string   `json:"city,omitempty"`
	StarRating *int      `json:"star_rating,omitempty"`
	ImageURL   *string   `json:"image_url,omitempty"`
}

type AttractionView struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Slug     *string   `json:"slug,omitempty"`
	City     *string   `json:"city,omitempty"`
	ImageURL *string   `json:"image_url,omitempty"`
}

type LinkedActivityView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Slug        *string   `json:"slug,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ActivityView struct {
	ID                  uuid.UUID        `json:"id"`
	ItineraryItemID     uuid.UUID        `json:"itinerary_item_id"`
	Time                *string          `json:"time"`
	ActivityTitle       string           `json:"activity_title"`
	ActivityDescription *string          `json:"activity_description"`
	Location            *string          `json:"location"`
	AttractionID        *uuid.UUID       `json:"attraction_id"`
	Attraction          *AttractionView  `json:"attraction"`
	DurationHours       *float64         `json:"duration_hours"`
	IsMeal              bool             `json:"is_meal"`
	MealType            *domain.MealType `json:"meal_type"`
	OrderIndex          int              `json:"order_index"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

type ItineraryItemView struct {
	ID                 uuid.UUID            `json:"id"`
	EntityType         domain.EntityType    `json:"entity_type"`
	EntityID           uuid.UUID            `json:"entity_id"`
	DayNumber          int                  `json:"day_number"`
	Date               *string              `json:"date"`
	Title              string               `json:"title"`
	Description        *string              `json:"description"`
	Location           *string              `json:"location"`
	Latitude           *float64             `json:"latitude"`
	Longitude          *float64             `json:"longitude"`
	AccommodationNotes *string              `json:"accommodation_notes"`
	HotelIDs           []uuid.UUID          `json:"hotel_ids"`
	AttractionIDs      []uuid.UUID          `json:"attraction_ids"`
	LinkedActivityIDs  []uuid.UUID          `json:"linked_activity_ids"`
	Hotels             []HotelView          `json:"hotels"`
	Attractions        []AttractionView     `json:"attractions"`
	LinkedActivities   []LinkedActivityView `json:"linked_activities"`
	CustomActivities   []ActivityView       `json:"custom_activities"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// FormatItem projects a hydrated item into its response shape. It does not
// modify item, so repeated calls return equal views.
func FormatItem(item domain.ItineraryItem) ItineraryItemView {
	view := ItineraryItemView{
		ID:                 item.ID,
		EntityType:         item.EntityType,
		EntityID:           item.EntityID,
		DayNumber:          item.DayNumber,
		Title:              item.Title,
		Description:        item.Description,
		Location:           item.Location,
		Latitude:           item.Latitude,
		Longitude:          item.Longitude,
		AccommodationNotes: item.AccommodationNotes,
		HotelIDs:           append([]uuid.UUID{}, item.HotelIDs...),
		AttractionIDs:      append([]uuid.UUID{}, item.AttractionIDs...),
		LinkedActivityIDs:  append([]uuid.UUID{}, item.LinkedActivityIDs...),
		Hotels:             make([]HotelView, 0, len(item.Hotels)),
		Attractions:        make([]AttractionView, 0, len(item.Attractions)),
		LinkedActivities:   make([]LinkedActivityView, 0, len(item.LinkedActivities)),
		CustomActivities:   make([]ActivityView, 0, len(item.Activities)),
		CreatedAt:          item.CreatedAt,
		UpdatedAt:          item.UpdatedAt,
	}
	if item.Date != nil {
		formatted := item.Date.Format(dateLayout)
		view.Date = &formatted
	}
	for _, hotel := range item.Hotels {
		view.Hotels = append(view.Hotels, HotelView{
			ID:         hotel.ID,
			Name:       hotel.Name,
			Slug:       hotel.Slug,
			City:       hotel.City,
			StarRating: hotel.StarRating,
			ImageURL:   hotel.ImageURL,
		})
	}
	for _, attraction := range item.Attractions {
		view.Attractions = append(view.Attractions, formatAttraction(attraction))
	}
	for _, activity := range item.LinkedActivities {
		view.LinkedActivities = append(view.LinkedActivities, LinkedActivityView{
			ID:          activity.ID,
			Name:        activity.Name,
			Description: activity.Description,
			Slug:        activity.Slug,
			IsActive:    activity.IsActive,
			CreatedAt:   activity.CreatedAt,
			UpdatedAt:   activity.UpdatedAt,
		})
	}

	activities := append([]domain.ItineraryActivity(nil), item.Activities...)
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].OrderIndex < activities[j].OrderIndex
	})
	for _, activity := range activities {
		view.CustomActivities = append(view.CustomActivities, FormatActivity(activity))
	}
	return view
}

func FormatItems(items []domain.ItineraryItem) []ItineraryItemView {
	out := make([]ItineraryItemView, 0, len(items))
	for _, item := range items {
		out = append(out, FormatItem(item))
	}
	return out
}

func FormatActivity(activity domain.ItineraryActivity) ActivityView {
	view := ActivityView{
		ID:                  activity.ID,
		ItineraryItemID:     activity.ItineraryItemID,
		Time:                activity.Time,
		ActivityTitle:       activity.ActivityTitle,
		ActivityDescription: activity.ActivityDescription,
		Location:            activity.Location,
		AttractionID:        activity.AttractionID,
		DurationHours:       activity.DurationHours,
		IsMeal:              activity.IsMeal,
		MealType:            activity.MealType,
		OrderIndex:          activity.OrderIndex,
		CreatedAt:           activity.CreatedAt,
		UpdatedAt:           activity.UpdatedAt,
	}
	if activity.Attraction != nil {
		attraction := formatAttraction(*activity.Attraction)
		view.Attraction = &attraction
	}
	return view
}

func formatAttraction(a domain.AttractionSummary) AttractionView {
	return AttractionView{
		ID:       a.ID,
		Name:     a.Name,
		Slug:     a.Slug,
		City:     a.City,
		ImageURL: a.ImageURL,
	}
}

// hydrate loads link sets, custom activities and catalog summaries for items
// in place, using one query per relation regardless of len(items).
func (s *ItineraryService) hydrate(ctx context.Context, items []domain.ItineraryItem) error {
	if len(items) == 0 {
		return nil
	}
	itemIDs := make([]uuid.UUID, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for i := range items {
		itemIDs = append(itemIDs, items[i].ID)
		index[items[i].ID] = i
		items[i].HotelIDs = []uuid.UUID{}
		items[i].AttractionIDs = []uuid.UUID{}
		items[i].LinkedActivityIDs = []uuid.UUID{}
		items[i].Activities = []domain.ItineraryActivity{}
	}

	links, err := s.items.ListLinks(ctx, itemIDs)
	if err != nil {
		return fmt.Errorf("list itinerary links: %w", err)
	}
	for _, link := range links {
		i, ok := index[link.ItemID]
		if !ok {
			continue
		}
		switch link.Kind {
		case domain.LinkKindHotel:
			items[i].HotelIDs = append(items[i].HotelIDs, link.TargetID)
		case domain.LinkKindAttraction:
			items[i].AttractionIDs = append(items[i].AttractionIDs, link.TargetID)
		case domain.LinkKindActivity:
			items[i].LinkedActivityIDs = append(items[i].LinkedActivityIDs, link.TargetID)
		}
	}

	activities, err := s.items.ListActivities(ctx, itemIDs)
	if err != nil {
		return fmt.Errorf("list itinerary activities: %w", err)
	}
	for _, activity := range activities {
		if i, ok := index[activity.ItineraryItemID]; ok {
			items[i].Activities = append(items[i].Activities, activity)
		}
	}

	var hotelIDs, attractionIDs, activityIDs []uuid.UUID
	for _, item := range items {
		hotelIDs = append(hotelIDs, item.HotelIDs...)
		attractionIDs = append(attractionIDs, item.AttractionIDs...)
		activityIDs = append(activityIDs, item.LinkedActivityIDs...)
		for _, activity := range item.Activities {
			if activity.AttractionID != nil {
				attractionIDs = append(attractionIDs, *activity.AttractionID)
			}
		}
	}

	hotels, err := s.loadHotels(ctx, dedupeIDs(hotelIDs))
	if err != nil {
		return err
	}
	attractions, err := s.loadAttractions(ctx, dedupeIDs(attractionIDs))
	if err != nil {
		return err
	}
	catalogActivities, err := s.loadCatalogActivities(ctx, dedupeIDs(activityIDs))
	if err != nil {
		return err
	}

	for i := range items {
		items[i].Hotels = make([]domain.HotelSummary, 0, len(items[i].HotelIDs))
		for _, id := range items[i].HotelIDs {
			if hotel, ok := hotels[id]; ok {
				items[i].Hotels = append(items[i].Hotels, hotel)
			}
		}
		items[i].Attractions = make([]domain.AttractionSummary, 0, len(items[i].AttractionIDs))
		for _, id := range items[i].AttractionIDs {
			if attraction, ok := attractions[id]; ok {
				items[i].Attractions = append(items[i].Attractions, attraction)
			}
		}
		items[i].LinkedActivities = make([]domain.CatalogActivity, 0, len(items[i].LinkedActivityIDs))
		for _, id := range items[i].LinkedActivityIDs {
			if activity, ok := catalogActivities[id]; ok {
				items[i].LinkedActivities = append(items[i].LinkedActivities, activity)
			}
		}
		for j := range items[i].Activities {
			attachAttraction(&items[i].Activities[j], attractions)
		}
	}
	return nil
}

func (s *ItineraryService) hydrateActivity(ctx context.Context, activity *domain.ItineraryActivity) (*domain.ItineraryActivity, error) {
	if activity == nil || activity.AttractionID == nil {
		return activity, nil
	}
	attractions, err := s.loadAttractions(ctx, []uuid.UUID{*activity.AttractionID})
	if err != nil {
		return nil, err
	}
	attachAttraction(activity, attractions)
	return activity, nil
}

func attachAttraction(activity *domain.ItineraryActivity, attractions map[uuid.UUID]domain.AttractionSummary) {
	activity.Attraction = nil
	if activity.AttractionID == nil {
		return
	}
	if attraction, ok := attractions[*activity.AttractionID]; ok {
		activity.Attraction = &attraction
	}
}

func (s *ItineraryService) loadHotels(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.HotelSummary, error) {
	out := make(map[uuid.UUID]domain.HotelSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.catalog.FindHotels(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load hotels: %w", err)
	}
	for _, row := range rows {
		row.ImageURL = s.imageURL(row.ImageKey)
		out[row.ID] = row
	}
	return out, nil
}

func (s *ItineraryService) loadAttractions(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.AttractionSummary, error) {
	out := make(map[uuid.UUID]domain.AttractionSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.catalog.FindAttractions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load attractions: %w", err)
	}
	for _, row := range rows {
		row.ImageURL = s.imageURL(row.ImageKey)
		out[row.ID] = row
	}
	return out, nil
}

func (s *ItineraryService) loadCatalogActivities(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.CatalogActivity, error) {
	out := make(map[uuid.UUID]domain.CatalogActivity, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.catalog.FindActivities(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (s *ItineraryService) imageURL(key *string) *string {
	if key == nil || *key == "" || s.storage == nil {
		return nil
	}
	url := s.storage.PublicURL(*key)
	if url == "" {
		return nil
	}
	return &url
}
