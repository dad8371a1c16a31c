package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/njprem/tour_catalog_BackEnd/internal/domain"
)

// mapCmdable backs the commands the cache uses with a map. Any other command
// panics through the nil embedded interface.
type mapCmdable struct {
	goredis.Cmdable
	values map[string]string
	ttls   map[string]time.Duration
}

func newMapCmdable() *mapCmdable {
	return &mapCmdable{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *mapCmdable) Get(_ context.Context, key string) *goredis.StringCmd {
	v, ok := m.values[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (m *mapCmdable) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		m.values[key] = string(v)
	case string:
		m.values[key] = v
	}
	m.ttls[key] = expiration
	return goredis.NewStatusResult("OK", nil)
}

func (m *mapCmdable) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := m.values[key]; ok {
			delete(m.values, key)
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func (m *mapCmdable) Incr(_ context.Context, key string) *goredis.IntCmd {
	n, _ := strconv.ParseInt(m.values[key], 10, 64)
	n++
	m.values[key] = strconv.FormatInt(n, 10)
	return goredis.NewIntResult(n, nil)
}

func TestItineraryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newMapCmdable()
	cache := NewItineraryCache(client, "test", time.Minute)
	ref := domain.GroupTripRef(uuid.New())

	gen, err := cache.Generation(ctx, ref)
	if err != nil || gen != 0 {
		t.Fatalf("expected generation 0 on empty cache, got %d err=%v", gen, err)
	}
	if _, ok, err := cache.Get(ctx, ref, gen); err != nil || ok {
		t.Fatalf("expected miss on empty cache, got ok=%v err=%v", ok, err)
	}

	items := []domain.ItineraryItem{{ID: uuid.New(), EntityType: ref.Type, EntityID: ref.ID, DayNumber: 1, Title: "Arrival"}}
	if err := cache.Set(ctx, ref, gen, items); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	key := "test:itinerary:group_trip:" + ref.ID.String() + ":0"
	if client.ttls[key] != time.Minute {
		t.Fatalf("expected ttl on key %s, got %v", key, client.ttls)
	}

	got, ok, err := cache.Get(ctx, ref, gen)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0].Title != "Arrival" || got[0].ID != items[0].ID {
		t.Fatalf("unexpected cached items %+v", got)
	}

	if err := cache.Invalidate(ctx, ref); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}
	next, err := cache.Generation(ctx, ref)
	if err != nil || next != 1 {
		t.Fatalf("expected generation 1 after invalidation, got %d err=%v", next, err)
	}
	if _, ok, _ := cache.Get(ctx, ref, next); ok {
		t.Fatalf("expected miss after invalidation")
	}
}

func TestItineraryCacheIgnoresFillFromOlderGeneration(t *testing.T) {
	ctx := context.Background()
	client := newMapCmdable()
	cache := NewItineraryCache(client, "test", time.Minute)
	ref := domain.PackageRef(uuid.New())

	readerGen, err := cache.Generation(ctx, ref)
	if err != nil {
		t.Fatalf("Generation returned error: %v", err)
	}
	// A write commits and invalidates while the reader is loading rows.
	if err := cache.Invalidate(ctx, ref); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}
	stale := []domain.ItineraryItem{{ID: uuid.New(), EntityType: ref.Type, EntityID: ref.ID, DayNumber: 1, Title: "Old"}}
	if err := cache.Set(ctx, ref, readerGen, stale); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	current, err := cache.Generation(ctx, ref)
	if err != nil {
		t.Fatalf("Generation returned error: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, ref, current); ok {
		t.Fatalf("expected fill from generation %d to stay invisible at generation %d", readerGen, current)
	}
}

func TestItineraryCacheDropsUndecodablePayload(t *testing.T) {
	ctx := context.Background()
	client := newMapCmdable()
	cache := NewItineraryCache(client, "", 0)
	ref := domain.PackageRef(uuid.New())
	key := "tourcat:itinerary:package:" + ref.ID.String() + ":0"
	client.values[key] = "{not json"

	if _, ok, err := cache.Get(ctx, ref, 0); err != nil || ok {
		t.Fatalf("expected corrupt entry to read as a miss, got ok=%v err=%v", ok, err)
	}
	if _, exists := client.values[key]; exists {
		t.Fatalf("expected corrupt entry to be deleted")
	}
}
