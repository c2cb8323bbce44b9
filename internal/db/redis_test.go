package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/triptap-rides/internal/handoff"
	"github.com/ukydev/triptap-rides/internal/models"
)

func TestNewRedisHandoffStore_DefaultTTL(t *testing.T) {
	rdb := NewRedis("localhost:0")
	defer rdb.Close()
	s := NewRedisHandoffStore(rdb, 0)
	assert.Equal(t, handoff.DefaultTTL, s.ttl)
	assert.Error(t, s.Save(context.Background(), "", models.TripHandoff{}))
}

// Integration test (requires running Redis)
func TestRedisHandoffStore_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	rdb := NewRedis(addr)
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	s := NewRedisHandoffStore(rdb, time.Minute)
	defer s.Close(ctx)

	id := fmt.Sprintf("REQTEST%d", time.Now().UnixNano())
	want := models.TripHandoff{
		Origin:        "Punta Cana",
		Destination:   "Bavaro",
		VehicleType:   "Minivan",
		Fare:          28,
		CustomerName:  "Luis",
		ScheduledTime: "2026-10-16 08:30",
		CreatedAt:     time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Save(ctx, id, want))

	ttl, err := rdb.TTL(ctx, handoff.Key(id)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	got, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	n, err := s.Evict(ctx, want.CreatedAt.Add(time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	_, err = s.Load(ctx, id)
	assert.ErrorIs(t, err, handoff.ErrNotFound)
	require.NoError(t, s.Delete(ctx, id))
}
