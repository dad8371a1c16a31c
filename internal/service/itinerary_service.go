package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/njprem/tour_catalog_BackEnd/internal/domain"
	"github.com/njprem/tour_catalog_BackEnd/internal/repository/ports"
)

type ItineraryConfig struct {
	// StrictReferences rejects unknown hotel/attraction/activity ids instead of
	// silently dropping them.
	StrictReferences bool
	Cache            ports.ItineraryCache
	Storage          ports.ObjectStorage
	Logger           *zap.Logger
}

type ItineraryActivityInput struct {
	Time                *string
	ActivityTitle       string
	ActivityDescription *string
	Location            *string
	AttractionID        *uuid.UUID
	DurationHours       *float64
	IsMeal              bool
	MealType            *domain.MealType
	OrderIndex          int
}

type ItineraryItemInput struct {
	Ref                domain.EntityRef
	DayNumber          int
	Date               *time.Time
	Title              string
	Description        *string
	Location           *string
	Latitude           *float64
	Longitude          *float64
	AccommodationNotes *string
	HotelIDs           []uuid.UUID
	AttractionIDs      []uuid.UUID
	LinkedActivityIDs  []uuid.UUID
	Activities         []ItineraryActivityInput
}

type ItineraryItemUpdate struct {
	Fields domain.ItineraryItemFields
	Links  domain.AssociationReplacement
}

// ItineraryService is stateless; one instance serves every request.
type ItineraryService struct {
	items   ports.ItineraryRepository
	catalog ports.CatalogRepository
	cache   ports.ItineraryCache
	storage ports.ObjectStorage
	logger  *zap.Logger

	strictReferences bool
}

func NewItineraryService(items ports.ItineraryRepository, catalog ports.CatalogRepository, cfg ItineraryConfig) *ItineraryService {
	cache := cfg.Cache
	if cache == nil {
		cache = noopItineraryCache{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItineraryService{
		items:            items,
		catalog:          catalog,
		cache:            cache,
		storage:          cfg.Storage,
		logger:           logger,
		strictReferences: cfg.StrictReferences,
	}
}

func (s *ItineraryService) GetItineraryByEntity(ctx context.Context, ref domain.EntityRef) ([]domain.ItineraryItem, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}

	// The generation is read before the rows so a write committed while they
	// load leaves this fill under a generation nobody reads.
	gen, err := s.cache.Generation(ctx, ref)
	cacheable := err == nil
	if err != nil {
		s.logger.Warn("itinerary cache generation read failed", zap.String("ref", ref.String()), zap.Error(err))
	} else if cached, ok, err := s.cache.Get(ctx, ref, gen); err != nil {
		s.logger.Warn("itinerary cache read failed", zap.String("ref", ref.String()), zap.Error(err))
	} else if ok {
		return cached, nil
	}

	items, err := s.items.ListItems(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("list itinerary items: %w", err)
	}
	if err := s.hydrate(ctx, items); err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.Set(ctx, ref, gen, items); err != nil {
			s.logger.Warn("itinerary cache write failed", zap.String("ref", ref.String()), zap.Error(err))
		}
	}
	return items, nil
}

func (s *ItineraryService) GetItineraryItem(ctx context.Context, id uuid.UUID) (*domain.ItineraryItem, error) {
	item, err := s.findItem(ctx, id)
	if err != nil {
		return nil, err
	}
	items := []domain.ItineraryItem{*item}
	if err := s.hydrate(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (s *ItineraryService) CreateItineraryItem(ctx context.Context, input ItineraryItemInput) (*domain.ItineraryItem, error) {
	if err := validateItemInput(&input); err != nil {
		return nil, err
	}
	return s.createItem(ctx, input)
}

func (s *ItineraryService) createItem(ctx context.Context, input ItineraryItemInput) (*domain.ItineraryItem, error) {
	unknown := &UnknownReferencesError{}

	hotelIDs, err := s.resolveHotels(ctx, input.HotelIDs, unknown)
	if err != nil {
		return nil, err
	}
	attractionIDs, err := s.resolveAttractions(ctx, input.AttractionIDs, unknown)
	if err != nil {
		return nil, err
	}
	activityIDs, err := s.resolveActivities(ctx, input.LinkedActivityIDs, unknown)
	if err != nil {
		return nil, err
	}
	if s.strictReferences && !unknown.empty() {
		return nil, unknown
	}

	activityAttractions := make([]uuid.UUID, 0, len(input.Activities))
	for _, act := range input.Activities {
		if act.AttractionID != nil {
			activityAttractions = append(activityAttractions, *act.AttractionID)
		}
	}
	if err := s.requireAttractions(ctx, activityAttractions); err != nil {
		return nil, err
	}

	item := &domain.ItineraryItem{
		EntityType:         input.Ref.Type,
		EntityID:           input.Ref.ID,
		DayNumber:          input.DayNumber,
		Date:               input.Date,
		Title:              input.Title,
		Description:        input.Description,
		Location:           input.Location,
		Latitude:           input.Latitude,
		Longitude:          input.Longitude,
		AccommodationNotes: input.AccommodationNotes,
		HotelIDs:           hotelIDs,
		AttractionIDs:      attractionIDs,
		LinkedActivityIDs:  activityIDs,
		Activities:         make([]domain.ItineraryActivity, 0, len(input.Activities)),
	}
	for _, act := range input.Activities {
		item.Activities = append(item.Activities, activityFromInput(act))
	}

	created, err := s.items.CreateItem(ctx, item)
	if err != nil {
		return nil, classifyWriteError(err)
	}
	s.invalidate(ctx, input.Ref)

	return s.GetItineraryItem(ctx, created.ID)
}

func (s *ItineraryService) UpdateItineraryItem(ctx context.Context, id uuid.UUID, update ItineraryItemUpdate) (*domain.ItineraryItem, error) {
	existing, err := s.findItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateItemFields(&update.Fields); err != nil {
		return nil, err
	}

	links := domain.AssociationReplacement{}
	unknown := &UnknownReferencesError{}
	if update.Links.HotelIDs != nil {
		ids, err := s.resolveHotels(ctx, *update.Links.HotelIDs, unknown)
		if err != nil {
			return nil, err
		}
		links.HotelIDs = &ids
	}
	if update.Links.AttractionIDs != nil {
		ids, err := s.resolveAttractions(ctx, *update.Links.AttractionIDs, unknown)
		if err != nil {
			return nil, err
		}
		links.AttractionIDs = &ids
	}
	if update.Links.LinkedActivityIDs != nil {
		ids, err := s.resolveActivities(ctx, *update.Links.LinkedActivityIDs, unknown)
		if err != nil {
			return nil, err
		}
		links.LinkedActivityIDs = &ids
	}
	if s.strictReferences && !unknown.empty() {
		return nil, unknown
	}

	if !update.Fields.IsEmpty() || !links.IsEmpty() {
		if _, err := s.items.UpdateItem(ctx, id, update.Fields, links); err != nil {
			if isNotFound(err) {
				return nil, ErrItineraryItemNotFound
			}
			return nil, classifyWriteError(err)
		}
		s.invalidate(ctx, existing.Ref())
	}

	return s.GetItineraryItem(ctx, id)
}

func (s *ItineraryService) DeleteItineraryItem(ctx context.Context, id uuid.UUID) error {
	existing, err := s.findItem(ctx, id)
	if err != nil {
		return err
	}
	if err := s.items.DeleteItem(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrItineraryItemNotFound
		}
		return fmt.Errorf("delete itinerary item: %w", err)
	}
	s.invalidate(ctx, existing.Ref())
	return nil
}

func (s *ItineraryService) CreateActivity(ctx context.Context, itemID uuid.UUID, input ItineraryActivityInput) (*domain.ItineraryActivity, error) {
	item, err := s.findItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := validateActivityInput(&input); err != nil {
		return nil, err
	}
	if input.AttractionID != nil {
		if err := s.requireAttractions(ctx, []uuid.UUID{*input.AttractionID}); err != nil {
			return nil, err
		}
	}

	activity := activityFromInput(input)
	activity.ItineraryItemID = itemID
	created, err := s.items.CreateActivity(ctx, &activity)
	if err != nil {
		return nil, classifyWriteError(err)
	}
	s.invalidate(ctx, item.Ref())

	return s.hydrateActivity(ctx, created)
}

func (s *ItineraryService) UpdateActivity(ctx context.Context, id uuid.UUID, fields domain.ItineraryActivityFields) (*domain.ItineraryActivity, error) {
	existing, err := s.findActivity(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := mergeActivity(*existing, fields)
	if err := validateActivity(&merged); err != nil {
		return nil, err
	}
	if fields.Time != nil {
		fields.Time = clearable(merged.Time)
	}
	if fields.ActivityTitle != nil {
		fields.ActivityTitle = &merged.ActivityTitle
	}
	if fields.IsMeal != nil || fields.MealType != nil {
		// is_meal and meal_type are always stored as the pair that was validated.
		isMeal := merged.IsMeal
		mealType := domain.MealType("")
		if merged.MealType != nil {
			mealType = *merged.MealType
		}
		fields.IsMeal = &isMeal
		fields.MealType = &mealType
	}
	if fields.AttractionID != nil && *fields.AttractionID != uuid.Nil {
		if err := s.requireAttractions(ctx, []uuid.UUID{*fields.AttractionID}); err != nil {
			return nil, err
		}
	}

	updated, err := s.items.UpdateActivity(ctx, id, fields)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrItineraryActivityNotFound
		}
		return nil, classifyWriteError(err)
	}
	s.invalidateForItem(ctx, existing.ItineraryItemID)

	return s.hydrateActivity(ctx, updated)
}

func (s *ItineraryService) DeleteActivity(ctx context.Context, id uuid.UUID) error {
	existing, err := s.findActivity(ctx, id)
	if err != nil {
		return err
	}
	if err := s.items.DeleteActivity(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrItineraryActivityNotFound
		}
		return fmt.Errorf("delete itinerary activity: %w", err)
	}
	s.invalidateForItem(ctx, existing.ItineraryItemID)
	return nil
}

// BulkCreateItinerary creates one item per input, all owned by ref. Inputs are
// validated up front; storage failures part way leave earlier items in place
// and the created items are returned alongside the error.
func (s *ItineraryService) BulkCreateItinerary(ctx context.Context, ref domain.EntityRef, inputs []ItineraryItemInput) ([]domain.ItineraryItem, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	for i := range inputs {
		inputs[i].Ref = ref
		if err := validateItemInput(&inputs[i]); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}

	created := make([]domain.ItineraryItem, 0, len(inputs))
	for i, input := range inputs {
		item, err := s.createItem(ctx, input)
		if err != nil {
			return created, fmt.Errorf("item %d: %w", i, err)
		}
		created = append(created, *item)
	}
	return created, nil
}

// GenerateDatesForGroupTrip dates every item of the trip as
// start + (day_number - 1) days. durationDays is accepted for API
// compatibility and does not bound the result.
func (s *ItineraryService) GenerateDatesForGroupTrip(ctx context.Context, groupTripID uuid.UUID, start time.Time, durationDays int) (int, error) {
	if groupTripID == uuid.Nil {
		return 0, validationError("group trip id is required")
	}
	if durationDays < 0 {
		return 0, validationError("duration_days must not be negative")
	}

	ref := domain.GroupTripRef(groupTripID)
	items, err := s.items.ListItems(ctx, ref)
	if err != nil {
		return 0, fmt.Errorf("list itinerary items: %w", err)
	}

	base := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	dates := make(map[uuid.UUID]time.Time, len(items))
	for _, item := range items {
		dates[item.ID] = base.AddDate(0, 0, item.DayNumber-1)
	}
	if len(dates) == 0 {
		return 0, nil
	}
	if err := s.items.SetDates(ctx, dates); err != nil {
		return 0, fmt.Errorf("set itinerary dates: %w", err)
	}
	s.invalidate(ctx, ref)
	return len(dates), nil
}

func (s *ItineraryService) findItem(ctx context.Context, id uuid.UUID) (*domain.ItineraryItem, error) {
	item, err := s.items.FindItem(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrItineraryItemNotFound
		}
		return nil, fmt.Errorf("find itinerary item: %w", err)
	}
	if item == nil {
		return nil, ErrItineraryItemNotFound
	}
	return item, nil
}

func (s *ItineraryService) findActivity(ctx context.Context, id uuid.UUID) (*domain.ItineraryActivity, error) {
	activity, err := s.items.FindActivity(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrItineraryActivityNotFound
		}
		return nil, fmt.Errorf("find itinerary activity: %w", err)
	}
	if activity == nil {
		return nil, ErrItineraryActivityNotFound
	}
	return activity, nil
}

func (s *ItineraryService) invalidate(ctx context.Context, ref domain.EntityRef) {
	if err := s.cache.Invalidate(ctx, ref); err != nil {
		s.logger.Warn("itinerary cache invalidation failed", zap.String("ref", ref.String()), zap.Error(err))
	}
}

func (s *ItineraryService) invalidateForItem(ctx context.Context, itemID uuid.UUID) {
	item, err := s.items.FindItem(ctx, itemID)
	if err != nil || item == nil {
		s.logger.Warn("itinerary cache invalidation skipped", zap.String("item_id", itemID.String()), zap.Error(err))
		return
	}
	s.invalidate(ctx, item.Ref())
}

func (s *ItineraryService) resolveHotels(ctx context.Context, ids []uuid.UUID, unknown *UnknownReferencesError) ([]uuid.UUID, error) {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return []uuid.UUID{}, nil
	}
	rows, err := s.catalog.FindHotels(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load hotels: %w", err)
	}
	found := make(map[uuid.UUID]struct{}, len(rows))
	for _, row := range rows {
		found[row.ID] = struct{}{}
	}
	existing, missing := partitionIDs(ids, found)
	unknown.Hotels = append(unknown.Hotels, missing...)
	return existing, nil
}

func (s *ItineraryService) resolveAttractions(ctx context.Context, ids []uuid.UUID, unknown *UnknownReferencesError) ([]uuid.UUID, error) {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return []uuid.UUID{}, nil
	}
	rows, err := s.catalog.FindAttractions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load attractions: %w", err)
	}
	found := make(map[uuid.UUID]struct{}, len(rows))
	for _, row := range rows {
		found[row.ID] = struct{}{}
	}
	existing, missing := partitionIDs(ids, found)
	unknown.Attractions = append(unknown.Attractions, missing...)
	return existing, nil
}

func (s *ItineraryService) resolveActivities(ctx context.Context, ids []uuid.UUID, unknown *UnknownReferencesError) ([]uuid.UUID, error) {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return []uuid.UUID{}, nil
	}
	rows, err := s.catalog.FindActivities(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	found := make(map[uuid.UUID]struct{}, len(rows))
	for _, row := range rows {
		found[row.ID] = struct{}{}
	}
	existing, missing := partitionIDs(ids, found)
	unknown.Activities = append(unknown.Activities, missing...)
	return existing, nil
}

// requireAttractions fails when any custom activity points at a missing
// attraction, regardless of the strict reference setting.
func (s *ItineraryService) requireAttractions(ctx context.Context, ids []uuid.UUID) error {
	unknown := &UnknownReferencesError{}
	if _, err := s.resolveAttractions(ctx, ids, unknown); err != nil {
		return err
	}
	if !unknown.empty() {
		return unknown
	}
	return nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func partitionIDs(ids []uuid.UUID, found map[uuid.UUID]struct{}) (existing, missing []uuid.UUID) {
	existing = make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := found[id]; ok {
			existing = append(existing, id)
		} else {
			missing = append(missing, id)
		}
	}
	return existing, missing
}

func activityFromInput(input ItineraryActivityInput) domain.ItineraryActivity {
	return domain.ItineraryActivity{
		Time:                input.Time,
		ActivityTitle:       input.ActivityTitle,
		ActivityDescription: input.ActivityDescription,
		Location:            input.Location,
		AttractionID:        input.AttractionID,
		DurationHours:       input.DurationHours,
		IsMeal:              input.IsMeal,
		MealType:            input.MealType,
		OrderIndex:          input.OrderIndex,
	}
}

func mergeActivity(activity domain.ItineraryActivity, fields domain.ItineraryActivityFields) domain.ItineraryActivity {
	if fields.Time != nil {
		activity.Time = emptyToNil(fields.Time)
	}
	if fields.ActivityTitle != nil {
		activity.ActivityTitle = *fields.ActivityTitle
	}
	if fields.ActivityDescription != nil {
		activity.ActivityDescription = emptyToNil(fields.ActivityDescription)
	}
	if fields.Location != nil {
		activity.Location = emptyToNil(fields.Location)
	}
	if fields.AttractionID != nil {
		if *fields.AttractionID == uuid.Nil {
			activity.AttractionID = nil
		} else {
			id := *fields.AttractionID
			activity.AttractionID = &id
		}
	}
	if fields.DurationHours != nil {
		activity.DurationHours = fields.DurationHours
	}
	if fields.IsMeal != nil {
		activity.IsMeal = *fields.IsMeal
	}
	if fields.MealType != nil {
		if *fields.MealType == "" {
			activity.MealType = nil
		} else {
			mt := *fields.MealType
			activity.MealType = &mt
		}
	}
	if fields.OrderIndex != nil {
		activity.OrderIndex = *fields.OrderIndex
	}
	return activity
}

func validateRef(ref domain.EntityRef) error {
	if _, err := domain.ParseEntityType(string(ref.Type)); err != nil {
		return fmt.Errorf("%w: %s", ErrItineraryValidation, err.Error())
	}
	if ref.ID == uuid.Nil {
		return validationError("entity_id is required")
	}
	return nil
}

func validateItemInput(input *ItineraryItemInput) error {
	if err := validateRef(input.Ref); err != nil {
		return err
	}
	if input.DayNumber < 1 {
		return validationError("day_number must be at least 1")
	}
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return validationError("title is required")
	}
	if err := validateCoordinates(input.Latitude, input.Longitude); err != nil {
		return err
	}
	input.Description = emptyToNil(input.Description)
	input.Location = emptyToNil(input.Location)
	input.AccommodationNotes = emptyToNil(input.AccommodationNotes)
	for i := range input.Activities {
		if err := validateActivityInput(&input.Activities[i]); err != nil {
			return fmt.Errorf("custom_activities[%d]: %w", i, err)
		}
	}
	return nil
}

func validateItemFields(fields *domain.ItineraryItemFields) error {
	if fields.DayNumber != nil && *fields.DayNumber < 1 {
		return validationError("day_number must be at least 1")
	}
	if fields.Title != nil {
		trimmed := strings.TrimSpace(*fields.Title)
		if trimmed == "" {
			return validationError("title cannot be blank")
		}
		fields.Title = &trimmed
	}
	return validateCoordinates(fields.Latitude, fields.Longitude)
}

func validateCoordinates(lat, lng *float64) error {
	if lat != nil && (math.IsNaN(*lat) || *lat < -90 || *lat > 90) {
		return validationError("latitude must be between -90 and 90")
	}
	if lng != nil && (math.IsNaN(*lng) || *lng < -180 || *lng > 180) {
		return validationError("longitude must be between -180 and 180")
	}
	return nil
}

func validateActivityInput(input *ItineraryActivityInput) error {
	activity := activityFromInput(*input)
	if err := validateActivity(&activity); err != nil {
		return err
	}
	input.Time = activity.Time
	input.ActivityTitle = activity.ActivityTitle
	input.MealType = activity.MealType
	input.ActivityDescription = emptyToNil(input.ActivityDescription)
	input.Location = emptyToNil(input.Location)
	return nil
}

// validateActivity checks a complete activity row, including the rule that
// meal_type is present exactly when is_meal is set. It normalises title and
// time in place.
func validateActivity(activity *domain.ItineraryActivity) error {
	activity.ActivityTitle = strings.TrimSpace(activity.ActivityTitle)
	if activity.ActivityTitle == "" {
		return validationError("activity_title is required")
	}
	if activity.DurationHours != nil {
		d := *activity.DurationHours
		if math.IsNaN(d) || d <= 0 || d > 24 {
			return validationError("duration_hours must be greater than 0 and at most 24")
		}
	}
	if activity.Time != nil {
		normalized, err := normalizeClock(*activity.Time)
		if err != nil {
			return err
		}
		activity.Time = normalized
	}
	if activity.MealType != nil && *activity.MealType == "" {
		activity.MealType = nil
	}
	switch {
	case activity.IsMeal && activity.MealType == nil:
		return validationError("meal_type is required when is_meal is true")
	case !activity.IsMeal && activity.MealType != nil:
		return validationError("meal_type is only allowed when is_meal is true")
	case activity.MealType != nil && !activity.MealType.Valid():
		return validationError("meal_type must be one of: breakfast, lunch, dinner")
	}
	return nil
}

func normalizeClock(raw string) (*string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			out := t.Format("15:04")
			return &out, nil
		}
	}
	return nil, validationError("time must use HH:MM format")
}

// clearable turns a nil value into an empty string so the repository clears
// the column instead of leaving it untouched.
func clearable(ptr *string) *string {
	if ptr == nil {
		empty := ""
		return &empty
	}
	return ptr
}

func emptyToNil(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*ptr)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

type noopItineraryCache struct{}

func (noopItineraryCache) Generation(context.Context, domain.EntityRef) (uint64, error) {
	return 0, nil
}

func (noopItineraryCache) Get(context.Context, domain.EntityRef, uint64) ([]domain.ItineraryItem, bool, error) {
	return nil, false, nil
}

func (noopItineraryCache) Set(context.Context, domain.EntityRef, uint64, []domain.ItineraryItem) error {
	return nil
}

func (noopItineraryCache) Invalidate(context.Context, domain.EntityRef) error {
	return nil
}
