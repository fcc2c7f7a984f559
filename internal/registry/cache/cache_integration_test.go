//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"synapse/internal/registry/cache"
	"synapse/internal/registry/models"
	id "synapse/pkg/domain"
	"synapse/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.cache = cache.NewRedisCache(s.redis.Client)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) newPlan(tier id.Tier) *models.Plan {
	return &models.Plan{
		ID:          id.PlanID(uuid.New()),
		Title:       "cached",
		ContentHash: id.ContentHash{0x01},
		Tags:        []string{"a", "b"},
		Contributor: "GCONTRIB",
		Tier:        tier,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func (s *RedisCacheSuite) TestMissThenHit() {
	ctx := context.Background()
	plan := s.newPlan(id.TierHot)

	_, ok, err := s.cache.Get(ctx, plan.ID)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.cache.Put(ctx, plan))
	got, ok, err := s.cache.Get(ctx, plan.ID)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(plan.Title, got.Title)
	s.Equal(plan.Tags, got.Tags)
	s.Equal(plan.ContentHash, got.ContentHash)
}

func (s *RedisCacheSuite) TestTTLFollowsTier() {
	ctx := context.Background()
	plan := s.newPlan(id.TierArchive)
	s.Require().NoError(s.cache.Put(ctx, plan))

	ttl, err := s.redis.Client.TTL(ctx, "synapse:plan:"+plan.ID.String()).Result()
	s.Require().NoError(err)
	s.LessOrEqual(ttl, cache.TTLFor(id.TierArchive))
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisCacheSuite) TestInvalidate() {
	ctx := context.Background()
	plan := s.newPlan(id.TierCold)
	s.Require().NoError(s.cache.Put(ctx, plan))
	s.Require().NoError(s.cache.Invalidate(ctx, plan.ID))

	_, ok, err := s.cache.Get(ctx, plan.ID)
	s.Require().NoError(err)
	s.False(ok)
}
