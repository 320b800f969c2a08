package cache

import (
	"context"
	"testing"
	"time"

	"loan_portal_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestKeyIsDeterministicAndDistinct(t *testing.T) {
	v := []float64{2, 0, 0, 9_600_000, 12_000_000, 12, 778, 0, 0, 0, 0}

	if Key("rf-1", v) != Key("rf-1", v) {
		t.Error("identical inputs produced different keys")
	}
	if Key("rf-1", v) == Key("rf-2", v) {
		t.Error("different model versions share a key")
	}

	shifted := append([]float64(nil), v...)
	shifted[6] = 779
	if Key("rf-1", v) == Key("rf-1", shifted) {
		t.Error("different vectors share a key")
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewWithClient(client, time.Hour, logger.New("test"))

	ctx := context.Background()
	key := Key("rf-1", []float64{1, 2, 3})

	if got := c.Get(ctx, key); got != nil {
		t.Fatalf("empty cache returned %+v", got)
	}

	dec := &CachedDecision{
		Status:        "Approved",
		Confidence:    0.9,
		Probabilities: map[string]float64{"Approved": 0.9, "Rejected": 0.1},
		ModelVersion:  "rf-1",
	}
	c.Set(ctx, key, dec)

	got := c.Get(ctx, key)
	if got == nil {
		t.Fatal("cache miss after set")
	}
	if got.Status != dec.Status || got.Confidence != dec.Confidence {
		t.Errorf("round trip diverged: %+v", got)
	}
}

func TestExpiredEntryMisses(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewWithClient(client, time.Minute, logger.New("test"))

	ctx := context.Background()
	key := Key("rf-1", []float64{1})
	c.Set(ctx, key, &CachedDecision{Status: "Approved"})

	mr.FastForward(2 * time.Minute)
	if got := c.Get(ctx, key); got != nil {
		t.Fatalf("expired entry returned %+v", got)
	}
}

func TestNilCacheIsInert(t *testing.T) {
	var c *DecisionCache
	ctx := context.Background()
	if got := c.Get(ctx, "anything"); got != nil {
		t.Fatalf("nil cache returned %+v", got)
	}
	c.Set(ctx, "anything", &CachedDecision{})
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("nil cache ping: %v", err)
	}
}
