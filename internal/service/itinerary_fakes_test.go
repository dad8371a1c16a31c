package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/tour_catalog_BackEnd/internal/domain"
	"github.com/njprem/tour_catalog_BackEnd/internal/repository/ports"
)

type memoryItineraryRepository struct {
	items      map[uuid.UUID]*domain.ItineraryItem
	activities map[uuid.UUID]*domain.ItineraryActivity
	seq        map[uuid.UUID]int
	next       int

	listCalls   int
	createCalls int
	// failCreateOn makes the nth CreateItem call (1-based) return createErr.
	failCreateOn int
	createErr    error
}

func newMemoryItineraryRepository() *memoryItineraryRepository {
	return &memoryItineraryRepository{
		items:      map[uuid.UUID]*domain.ItineraryItem{},
		activities: map[uuid.UUID]*domain.ItineraryActivity{},
		seq:        map[uuid.UUID]int{},
	}
}

func (m *memoryItineraryRepository) stamp(id uuid.UUID) {
	m.next++
	m.seq[id] = m.next
}

func (m *memoryItineraryRepository) ListItems(_ context.Context, ref domain.EntityRef) ([]domain.ItineraryItem, error) {
	m.listCalls++
	out := []domain.ItineraryItem{}
	for _, item := range m.items {
		if item.Ref() == ref {
			out = append(out, m.scalarCopy(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayNumber != out[j].DayNumber {
			return out[i].DayNumber < out[j].DayNumber
		}
		return m.seq[out[i].ID] < m.seq[out[j].ID]
	})
	return out, nil
}

func (m *memoryItineraryRepository) FindItem(_ context.Context, id uuid.UUID) (*domain.ItineraryItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := m.scalarCopy(item)
	return &cp, nil
}

// scalarCopy mirrors what a row scan returns: no link sets or activities.
func (m *memoryItineraryRepository) scalarCopy(item *domain.ItineraryItem) domain.ItineraryItem {
	cp := *item
	cp.HotelIDs = nil
	cp.AttractionIDs = nil
	cp.LinkedActivityIDs = nil
	cp.Activities = nil
	cp.Hotels = nil
	cp.Attractions = nil
	cp.LinkedActivities = nil
	return cp
}

func (m *memoryItineraryRepository) CreateItem(_ context.Context, item *domain.ItineraryItem) (*domain.ItineraryItem, error) {
	m.createCalls++
	if m.failCreateOn > 0 && m.createCalls == m.failCreateOn {
		return nil, m.createErr
	}
	stored := *item
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	stored.HotelIDs = append([]uuid.UUID{}, item.HotelIDs...)
	stored.AttractionIDs = append([]uuid.UUID{}, item.AttractionIDs...)
	stored.LinkedActivityIDs = append([]uuid.UUID{}, item.LinkedActivityIDs...)
	stored.Activities = nil
	m.items[stored.ID] = &stored
	m.stamp(stored.ID)

	for _, act := range item.Activities {
		act.ItineraryItemID = stored.ID
		if _, err := m.CreateActivity(context.Background(), &act); err != nil {
			return nil, err
		}
	}
	cp := m.scalarCopy(&stored)
	return &cp, nil
}

func (m *memoryItineraryRepository) UpdateItem(_ context.Context, id uuid.UUID, fields domain.ItineraryItemFields, links domain.AssociationReplacement) (*domain.ItineraryItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if fields.DayNumber != nil {
		item.DayNumber = *fields.DayNumber
	}
	if fields.Date != nil {
		if fields.Date.IsZero() {
			item.Date = nil
		} else {
			d := *fields.Date
			item.Date = &d
		}
	}
	if fields.Title != nil {
		item.Title = *fields.Title
	}
	if fields.Description != nil {
		item.Description = blankToNil(*fields.Description)
	}
	if fields.Location != nil {
		item.Location = blankToNil(*fields.Location)
	}
	if fields.Latitude != nil {
		item.Latitude = fields.Latitude
	}
	if fields.Longitude != nil {
		item.Longitude = fields.Longitude
	}
	if fields.AccommodationNotes != nil {
		item.AccommodationNotes = blankToNil(*fields.AccommodationNotes)
	}
	links.ReplaceAssociations(item)
	item.UpdatedAt = time.Now()
	cp := m.scalarCopy(item)
	return &cp, nil
}

func (m *memoryItineraryRepository) DeleteItem(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	for actID, act := range m.activities {
		if act.ItineraryItemID == id {
			delete(m.activities, actID)
		}
	}
	return nil
}

func (m *memoryItineraryRepository) ListLinks(_ context.Context, itemIDs []uuid.UUID) ([]domain.ItineraryLink, error) {
	var out []domain.ItineraryLink
	for _, id := range itemIDs {
		item, ok := m.items[id]
		if !ok {
			continue
		}
		for _, target := range item.HotelIDs {
			out = append(out, domain.ItineraryLink{ItemID: id, Kind: domain.LinkKindHotel, TargetID: target})
		}
		for _, target := range item.AttractionIDs {
			out = append(out, domain.ItineraryLink{ItemID: id, Kind: domain.LinkKindAttraction, TargetID: target})
		}
		for _, target := range item.LinkedActivityIDs {
			out = append(out, domain.ItineraryLink{ItemID: id, Kind: domain.LinkKindActivity, TargetID: target})
		}
	}
	return out, nil
}

func (m *memoryItineraryRepository) ListActivities(_ context.Context, itemIDs []uuid.UUID) ([]domain.ItineraryActivity, error) {
	wanted := make(map[uuid.UUID]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = struct{}{}
	}
	out := []domain.ItineraryActivity{}
	for _, act := range m.activities {
		if _, ok := wanted[act.ItineraryItemID]; ok {
			out = append(out, *act)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return m.seq[out[i].ID] < m.seq[out[j].ID]
	})
	return out, nil
}

func (m *memoryItineraryRepository) FindActivity(_ context.Context, id uuid.UUID) (*domain.ItineraryActivity, error) {
	act, ok := m.activities[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *act
	return &cp, nil
}

func (m *memoryItineraryRepository) CreateActivity(_ context.Context, activity *domain.ItineraryActivity) (*domain.ItineraryActivity, error) {
	if _, ok := m.items[activity.ItineraryItemID]; !ok {
		return nil, sql.ErrNoRows
	}
	stored := *activity
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.activities[stored.ID] = &stored
	m.stamp(stored.ID)
	cp := stored
	return &cp, nil
}

func (m *memoryItineraryRepository) UpdateActivity(_ context.Context, id uuid.UUID, fields domain.ItineraryActivityFields) (*domain.ItineraryActivity, error) {
	act, ok := m.activities[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if fields.Time != nil {
		act.Time = blankToNil(*fields.Time)
	}
	if fields.ActivityTitle != nil {
		act.ActivityTitle = *fields.ActivityTitle
	}
	if fields.ActivityDescription != nil {
		act.ActivityDescription = blankToNil(*fields.ActivityDescription)
	}
	if fields.Location != nil {
		act.Location = blankToNil(*fields.Location)
	}
	if fields.AttractionID != nil {
		if *fields.AttractionID == uuid.Nil {
			act.AttractionID = nil
		} else {
			id := *fields.AttractionID
			act.AttractionID = &id
		}
	}
	if fields.DurationHours != nil {
		act.DurationHours = fields.DurationHours
	}
	if fields.IsMeal != nil {
		act.IsMeal = *fields.IsMeal
	}
	if fields.MealType != nil {
		if *fields.MealType == "" {
			act.MealType = nil
		} else {
			mt := *fields.MealType
			act.MealType = &mt
		}
	}
	if fields.OrderIndex != nil {
		act.OrderIndex = *fields.OrderIndex
	}
	cp := *act
	return &cp, nil
}

func (m *memoryItineraryRepository) DeleteActivity(_ context.Context, id uuid.UUID) error {
	if _, ok := m.activities[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.activities, id)
	return nil
}

func (m *memoryItineraryRepository) SetActivityOrder(_ context.Context, order map[uuid.UUID]int) error {
	for id, idx := range order {
		if act, ok := m.activities[id]; ok {
			act.OrderIndex = idx
		}
	}
	return nil
}

func (m *memoryItineraryRepository) SetDayNumbers(_ context.Context, days map[uuid.UUID]int) error {
	for id, day := range days {
		if item, ok := m.items[id]; ok {
			item.DayNumber = day
		}
	}
	return nil
}

func (m *memoryItineraryRepository) SetDates(_ context.Context, dates map[uuid.UUID]time.Time) error {
	for id, date := range dates {
		if item, ok := m.items[id]; ok {
			d := date
			item.Date = &d
		}
	}
	return nil
}

var _ ports.ItineraryRepository = (*memoryItineraryRepository)(nil)

type memoryCatalog struct {
	hotels      map[uuid.UUID]domain.HotelSummary
	attractions map[uuid.UUID]domain.AttractionSummary
	activities  map[uuid.UUID]domain.CatalogActivity
}

func newMemoryCatalog() *memoryCatalog {
	return &memoryCatalog{
		hotels:      map[uuid.UUID]domain.HotelSummary{},
		attractions: map[uuid.UUID]domain.AttractionSummary{},
		activities:  map[uuid.UUID]domain.CatalogActivity{},
	}
}

func (c *memoryCatalog) addHotel(name string) uuid.UUID {
	id := uuid.New()
	c.hotels[id] = domain.HotelSummary{ID: id, Name: name}
	return id
}

func (c *memoryCatalog) addAttraction(name string, imageKey *string) uuid.UUID {
	id := uuid.New()
	c.attractions[id] = domain.AttractionSummary{ID: id, Name: name, ImageKey: imageKey}
	return id
}

func (c *memoryCatalog) addActivity(name string) uuid.UUID {
	id := uuid.New()
	c.activities[id] = domain.CatalogActivity{ID: id, Name: name, IsActive: true}
	return id
}

func (c *memoryCatalog) FindHotels(_ context.Context, ids []uuid.UUID) ([]domain.HotelSummary, error) {
	var out []domain.HotelSummary
	for _, id := range ids {
		if row, ok := c.hotels[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (c *memoryCatalog) FindAttractions(_ context.Context, ids []uuid.UUID) ([]domain.AttractionSummary, error) {
	var out []domain.AttractionSummary
	for _, id := range ids {
		if row, ok := c.attractions[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (c *memoryCatalog) FindActivities(_ context.Context, ids []uuid.UUID) ([]domain.CatalogActivity, error) {
	var out []domain.CatalogActivity
	for _, id := range ids {
		if row, ok := c.activities[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

var _ ports.CatalogRepository = (*memoryCatalog)(nil)

type cachedItinerary struct {
	gen   uint64
	items []domain.ItineraryItem
}

type memoryCache struct {
	entries       map[domain.EntityRef]cachedItinerary
	generations   map[domain.EntityRef]uint64
	invalidations int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		entries:     map[domain.EntityRef]cachedItinerary{},
		generations: map[domain.EntityRef]uint64{},
	}
}

func (c *memoryCache) Generation(_ context.Context, ref domain.EntityRef) (uint64, error) {
	return c.generations[ref], nil
}

func (c *memoryCache) Get(_ context.Context, ref domain.EntityRef, gen uint64) ([]domain.ItineraryItem, bool, error) {
	entry, ok := c.entries[ref]
	if !ok || entry.gen != gen {
		return nil, false, nil
	}
	return entry.items, true, nil
}

func (c *memoryCache) Set(_ context.Context, ref domain.EntityRef, gen uint64, items []domain.ItineraryItem) error {
	c.entries[ref] = cachedItinerary{gen: gen, items: items}
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, ref domain.EntityRef) error {
	c.invalidations++
	c.generations[ref]++
	delete(c.entries, ref)
	return nil
}

var _ ports.ItineraryCache = (*memoryCache)(nil)

type prefixStorage struct {
	base string
}

func (prefixStorage) EnsureBucket(context.Context) error { return nil }

func (s prefixStorage) PublicURL(key string) string {
	return s.base + "/" + key
}

func blankToNil(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
