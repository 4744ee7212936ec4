package cache_test

import (
	"context"
	"ms-reservations/internal/models"
	"ms-reservations/internal/restaurant/cache"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestCacheIntegration exercises the view cache against a real Redis container.
func TestCacheIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})

	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)

	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port.Port(),
		Password: "",
		DB:       0,
	})

	viewCache := cache.NewCache(client, 5*time.Minute)

	view := &models.RestaurantWithAvailability{
		Restaurant: models.Restaurant{
			ID:       "rest-1",
			Name:     "The Copper Pot",
			Location: "Lisbon",
		},
		AvailableDates: []models.AvailableDateWithSlots{
			{
				ID:   "date-1",
				Date: "2026-09-14",
				TimeSlots: []models.TimeSlot{
					{ID: "slot-1", AvailableDateID: "date-1", Time: "18:00", Price: 40},
					{ID: "slot-2", AvailableDateID: "date-1", Time: "20:30", Price: 55},
				},
			},
		},
	}

	// Miss before anything is written.
	cached, ok := viewCache.GetView("rest-1")
	assert.False(t, ok, "Expected a cache miss for an unseen restaurant")
	assert.Nil(t, cached)

	// Write then read back.
	viewCache.SetView("rest-1", view)

	cached, ok = viewCache.GetView("rest-1")
	require.True(t, ok, "Expected a cache hit after SetView")
	assert.Equal(t, view.Restaurant.Name, cached.Restaurant.Name)
	require.Len(t, cached.AvailableDates, 1)
	require.Len(t, cached.AvailableDates[0].TimeSlots, 2)
	assert.Equal(t, "20:30", cached.AvailableDates[0].TimeSlots[1].Time)

	// Invalidate drops the entry.
	viewCache.Invalidate("rest-1")

	_, ok = viewCache.GetView("rest-1")
	assert.False(t, ok, "Expected a cache miss after Invalidate")
}

// TestCacheSwallowsBackendErrors verifies that a dead Redis never surfaces an
// error to callers, only misses.
func TestCacheSwallowsBackendErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr: "127.0.0.1:1",
	})

	viewCache := cache.NewCache(client, time.Minute)

	view := &models.RestaurantWithAvailability{
		Restaurant: models.Restaurant{ID: "rest-1", Name: "The Copper Pot"},
	}

	viewCache.SetView("rest-1", view)
	viewCache.Invalidate("rest-1")

	cached, ok := viewCache.GetView("rest-1")
	assert.False(t, ok)
	assert.Nil(t, cached)
}
