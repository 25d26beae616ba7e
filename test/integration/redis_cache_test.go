package integration

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	appvaluation "github.com/turtacn/AgValue-Intelligence/internal/application/valuation"
	"github.com/turtacn/AgValue-Intelligence/internal/config"
	domainValuation "github.com/turtacn/AgValue-Intelligence/internal/domain/valuation"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/logging"
)

// startRedis launches a throwaway Redis container and returns its address.
func startRedis(t *testing.T, ctx context.Context) string {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func newRedisCache(t *testing.T, ctx context.Context) redis.Cache {
	t.Helper()

	addr := startRedis(t, ctx)
	rc, err := redis.NewClient(config.RedisConfig{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	return redis.NewCache(rc, logging.NewNopLogger(),
		redis.WithPrefix("agvalue-test:"),
		redis.WithDefaultTTL(time.Minute),
	)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	SkipIfNoIntegration(t)
	ctx := testContext(t)
	cache := newRedisCache(t, ctx)

	type doc struct {
		Make  string  `json:"make"`
		Value float64 `json:"value"`
	}

	require.NoError(t, cache.Set(ctx, "k1", doc{Make: "John Deere", Value: 162800}, time.Minute))

	var got doc
	require.NoError(t, cache.Get(ctx, "k1", &got))
	assert.Equal(t, "John Deere", got.Make)
	assert.Equal(t, 162800.0, got.Value)

	exists, err := cache.Exists(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, cache.Delete(ctx, "k1"))
	err = cache.Get(ctx, "k1", &got)
	assert.ErrorIs(t, err, redis.ErrCacheMiss)
}

func TestRedisCacheGetOrSetLoadsOnce(t *testing.T) {
	SkipIfNoIntegration(t)
	ctx := testContext(t)
	cache := newRedisCache(t, ctx)

	var loads atomic.Int32
	loader := func(ctx context.Context) (interface{}, error) {
		loads.Add(1)
		return map[string]string{"status": "fresh"}, nil
	}

	var first, second map[string]string
	require.NoError(t, cache.GetOrSet(ctx, "loaded", &first, time.Minute, loader))
	require.NoError(t, cache.GetOrSet(ctx, "loaded", &second, time.Minute, loader))

	assert.Equal(t, int32(1), loads.Load())
	assert.Equal(t, first, second)
}

// TestRedisCachedValuationSkipsSearch runs the application service against a
// real Redis and verifies the second identical request is served from cache.
func TestRedisCachedValuationSkipsSearch(t *testing.T) {
	SkipIfNoIntegration(t)
	ctx := testContext(t)
	cache := newRedisCache(t, ctx)

	searcher := &stubSearcher{passages: auctionPassages(time.Now())}
	service := appvaluation.NewService(searcher, domainValuation.NewDefaultEngine(),
		logging.NewNopLogger(), appvaluation.Options{Cache: cache})

	input := &appvaluation.EvaluateInput{Make: "John Deere", Model: "8370R", Year: 2019}

	first, err := service.Evaluate(ctx, input)
	require.NoError(t, err)

	second, err := service.Evaluate(ctx, &appvaluation.EvaluateInput{Make: "John Deere", Model: "8370R", Year: 2019})
	require.NoError(t, err)

	assert.Equal(t, int32(1), searcher.calls.Load())
	assert.Equal(t, first.Valuation.FairMarketValue, second.Valuation.FairMarketValue)
}
