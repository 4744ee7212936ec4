package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"ms-reservations/internal/models"
	"time"

	"github.com/go-redis/redis/v8"
)

const viewKeyPrefix = "restaurant_view:"

// Cache is a best-effort Redis cache for composed availability views. Read
// and write failures are swallowed; the store stays authoritative.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{Client: client, TTL: ttl}
}

func (c *Cache) GetView(restaurantID string) (*models.RestaurantWithAvailability, bool) {
	raw, err := c.Client.Get(context.Background(), viewKeyPrefix+restaurantID).Result()
	if err != nil {
		return nil, false
	}
	var view models.RestaurantWithAvailability
	if err := json.Unmarshal([]byte(raw), &view); err != nil {
		return nil, false
	}
	return &view, true
}

func (c *Cache) SetView(restaurantID string, view *models.RestaurantWithAvailability) {
	data, err := json.Marshal(view)
	if err != nil {
		return
	}
	c.Client.Set(context.Background(), viewKeyPrefix+restaurantID, data, c.TTL)
}

func (c *Cache) Invalidate(restaurantID string) {
	c.Client.Del(context.Background(), fmt.Sprintf("%s%s", viewKeyPrefix, restaurantID))
}
