// Package cache keeps recently read plans in Redis. Entries live for a
// tier-dependent TTL so that cold and archived plans fall out quickly.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"synapse/internal/registry/models"
	id "synapse/pkg/domain"
)

var lookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "synapse_plan_cache_lookups_total",
	Help: "Plan cache lookups by result",
}, []string{"result"})

const planKeyPrefix = "synapse:plan:"

// TTLFor returns how long a plan of the given tier stays cached.
func TTLFor(tier id.Tier) time.Duration {
	switch tier {
	case id.TierHot:
		return 15 * time.Minute
	case id.TierCold:
		return 5 * time.Minute
	default:
		return time.Minute
	}
}

// RedisCache is a read-through cache of plan records.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func planKey(planID id.PlanID) string {
	return planKeyPrefix + planID.String()
}

// Get returns the cached plan, or false on a miss.
func (c *RedisCache) Get(ctx context.Context, planID id.PlanID) (*models.Plan, bool, error) {
	raw, err := c.client.Get(ctx, planKey(planID)).Bytes()
	if errors.Is(err, redis.Nil) {
		lookups.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		lookups.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("read cached plan: %w", err)
	}
	var plan models.Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		lookups.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("decode cached plan: %w", err)
	}
	lookups.WithLabelValues("hit").Inc()
	return &plan, true, nil
}

func (c *RedisCache) Put(ctx context.Context, plan *models.Plan) error {
	raw, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return c.client.Set(ctx, planKey(plan.ID), raw, TTLFor(plan.Tier)).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, planID id.PlanID) error {
	return c.client.Del(ctx, planKey(planID)).Err()
}
