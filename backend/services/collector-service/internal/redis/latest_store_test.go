package redisstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	libredis "powerlog/backend/libs/redis"
	"powerlog/backend/services/collector-service/internal/models"
)

func TestKey(t *testing.T) {
	if got := key("stat/medidorenergia/realtimepower"); got != "powerlog:latest:stat/medidorenergia/realtimepower" {
		t.Fatalf("unexpected key %q", got)
	}
}

// Runs against a real server only when POWERLOG_TEST_REDIS_ADDR is set.
func TestLatestStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("POWERLOG_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("POWERLOG_TEST_REDIS_ADDR not set")
	}
	client, err := libredis.NewRedisClient(addr, "", 0)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	store := NewLatestStore(client, time.Minute)
	topic := "test/" + time.Now().Format("150405.000000")
	t.Cleanup(func() { client.Del(ctx, key(topic)) })

	if _, err := store.Latest(ctx, topic); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	snap := models.Snapshot{
		DeviceID:   "meter-1",
		Topic:      topic,
		ReceivedAt: time.Now().UTC().Truncate(time.Millisecond),
		Columns:    models.Header.Fields(),
		Row:        models.Row{"12:00:01", "50.0"},
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	got, err := store.Latest(ctx, topic)
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if got.Row != snap.Row || got.DeviceID != snap.DeviceID || !got.ReceivedAt.Equal(snap.ReceivedAt) {
		t.Fatalf("snapshot mismatch: got %+v want %+v", got, snap)
	}
	if ttl := client.TTL(ctx, key(topic)).Val(); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %s", ttl)
	}
}
