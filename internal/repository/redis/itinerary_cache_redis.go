package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/njprem/tour_catalog_BackEnd/internal/domain"
	"github.com/njprem/tour_catalog_BackEnd/internal/repository/ports"
)

const (
	defaultPrefix = "tourcat"
	itineraryKey  = "itinerary"
)

func NewClient(addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// ItineraryCache stores hydrated itineraries as JSON, one key per entity and
// generation.
type ItineraryCache struct {
	client goredis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewItineraryCache(client goredis.Cmdable, prefix string, ttl time.Duration) *ItineraryCache {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultPrefix
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ItineraryCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *ItineraryCache) Generation(ctx context.Context, ref domain.EntityRef) (uint64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(ref)).Uint64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *ItineraryCache) Get(ctx context.Context, ref domain.EntityRef, gen uint64) ([]domain.ItineraryItem, bool, error) {
	key := c.key(ref, gen)
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var items []domain.ItineraryItem
	if err := json.Unmarshal(raw, &items); err != nil {
		// A payload we cannot decode is treated as a miss and dropped.
		_ = c.client.Del(ctx, key).Err()
		return nil, false, nil
	}
	return items, true, nil
}

func (c *ItineraryCache) Set(ctx context.Context, ref domain.EntityRef, gen uint64, items []domain.ItineraryItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(ref, gen), raw, c.ttl).Err()
}

// Invalidate advances the generation. Entries under older generations are
// unreachable and expire with their TTL.
func (c *ItineraryCache) Invalidate(ctx context.Context, ref domain.EntityRef) error {
	return c.client.Incr(ctx, c.generationKey(ref)).Err()
}

func (c *ItineraryCache) key(ref domain.EntityRef, gen uint64) string {
	return strings.Join([]string{c.prefix, itineraryKey, string(ref.Type), ref.ID.String(), strconv.FormatUint(gen, 10)}, ":")
}

func (c *ItineraryCache) generationKey(ref domain.EntityRef) string {
	return strings.Join([]string{c.prefix, itineraryKey, "gen", string(ref.Type), ref.ID.String()}, ":")
}

var _ ports.ItineraryCache = (*ItineraryCache)(nil)
