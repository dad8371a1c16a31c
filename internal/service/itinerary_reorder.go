package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/njprem/tour_catalog_BackEnd/internal/domain"
)

// ReorderActivities sets order_index to the position of each id in ids.
// Ids that do not belong to the item are skipped; activities the caller left
// out keep their previous index, so collisions are possible.
func (s *ItineraryService) ReorderActivities(ctx context.Context, itemID uuid.UUID, ids []uuid.UUID) error {
	item, err := s.findItem(ctx, itemID)
	if err != nil {
		return err
	}

	activities, err := s.items.ListActivities(ctx, []uuid.UUID{itemID})
	if err != nil {
		return fmt.Errorf("list itinerary activities: %w", err)
	}
	owned := make(map[uuid.UUID]struct{}, len(activities))
	for _, activity := range activities {
		owned[activity.ID] = struct{}{}
	}

	order := positionsOf(ids, owned, 0)
	if len(order) == 0 {
		return nil
	}
	if err := s.items.SetActivityOrder(ctx, order); err != nil {
		return fmt.Errorf("reorder itinerary activities: %w", err)
	}
	s.invalidate(ctx, item.Ref())
	return nil
}

// ReorderItineraryItems renumbers day_number 1-based following ids. Items of
// ref that are not listed keep their day_number, which may then repeat.
func (s *ItineraryService) ReorderItineraryItems(ctx context.Context, ref domain.EntityRef, ids []uuid.UUID) error {
	if err := validateRef(ref); err != nil {
		return err
	}

	items, err := s.items.ListItems(ctx, ref)
	if err != nil {
		return fmt.Errorf("list itinerary items: %w", err)
	}
	owned := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		owned[item.ID] = struct{}{}
	}

	days := positionsOf(ids, owned, 1)
	if len(days) == 0 {
		return nil
	}
	if err := s.items.SetDayNumbers(ctx, days); err != nil {
		return fmt.Errorf("reorder itinerary items: %w", err)
	}
	s.invalidate(ctx, ref)
	return nil
}

// positionsOf maps every owned id to base plus its index in ids. A repeated
// id ends up at its last position.
func positionsOf(ids []uuid.UUID, owned map[uuid.UUID]struct{}, base int) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(ids))
	for idx, id := range ids {
		if _, ok := owned[id]; !ok {
			continue
		}
		out[id] = base + idx
	}
	return out
}
