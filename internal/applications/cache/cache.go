package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"loan_portal_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// CachedDecision is the serialized form of a deterministic model decision.
type CachedDecision struct {
	Status        string             `json:"status"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
	ModelVersion  string             `json:"modelVersion"`
}

// DecisionCache stores model decisions keyed by model version and feature
// vector. The model is deterministic, so an identical vector under the same
// model always yields the identical decision; cache failures degrade to a
// fresh inference and are logged, never surfaced.
type DecisionCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// New connects to redis and returns a decision cache. A nil cache is a valid
// value for callers; every method tolerates it.
func New(redisURL string, ttl time.Duration, log *logger.Logger) (*DecisionCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return NewWithClient(redis.NewClient(opt), ttl, log), nil
}

// NewWithClient wraps an existing redis client. Tests use this with
// miniredis.
func NewWithClient(client *redis.Client, ttl time.Duration, log *logger.Logger) *DecisionCache {
	return &DecisionCache{client: client, ttl: ttl, log: log}
}

// Key derives the cache key for a feature vector under a model version. The
// vector is hashed bit-exactly; two vectors differing in any position get
// distinct keys.
func Key(modelVersion string, features []float64) string {
	h := sha256.New()
	h.Write([]byte(modelVersion))
	h.Write([]byte{0})
	for _, f := range features {
		h.Write([]byte(strconv.FormatFloat(f, 'b', -1, 64)))
		h.Write([]byte{0})
	}
	return "decision:" + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached decision for key, or nil on a miss.
func (c *DecisionCache) Get(ctx context.Context, key string) *CachedDecision {
	if c == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("decision cache read failed", "error", err)
		}
		return nil
	}
	var dec CachedDecision
	if err := json.Unmarshal(raw, &dec); err != nil {
		c.log.Warn("decision cache entry corrupt", "key", key, "error", err)
		return nil
	}
	return &dec
}

// Set stores a decision under key for the configured TTL.
func (c *DecisionCache) Set(ctx context.Context, key string, dec *CachedDecision) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(dec)
	if err != nil {
		c.log.Warn("decision cache marshal failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("decision cache write failed", "error", err)
	}
}

// Ping verifies the redis connection.
func (c *DecisionCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}
