package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/AgValue-Intelligence/internal/config"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/AgValue-Intelligence/pkg/errors"
)

type cachedValuation struct {
	FairMarketValue float64 `json:"fair_market_value"`
	Confidence      string  `json:"confidence_level"`
}

func newTestCache(t *testing.T) (Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(client, logging.NewNopLogger(), WithPrefix("test:")), mr
}

func TestCacheSetGetRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	want := cachedValuation{FairMarketValue: 162800, Confidence: "low"}
	require.NoError(t, cache.Set(ctx, "valuation:jd-8370r", want, time.Minute))

	var got cachedValuation
	require.NoError(t, cache.Get(ctx, "valuation:jd-8370r", &got))
	assert.Equal(t, want, got)
}

func TestCacheGetMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	var got cachedValuation
	err := cache.Get(context.Background(), "absent", &got)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestCacheKeyPrefix(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", cachedValuation{}, time.Minute))
	assert.True(t, mr.Exists("test:k"))
}

func TestCacheDeleteAndExists(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", cachedValuation{}, time.Minute))
	ok, err := cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, cache.Delete(ctx, "k"))
	ok, err = cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetOrSetLoadsOnMiss(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(ctx context.Context) (interface{}, error) {
		calls++
		return cachedValuation{FairMarketValue: 200000, Confidence: "high"}, nil
	}

	var got cachedValuation
	require.NoError(t, cache.GetOrSet(ctx, "k", &got, time.Minute, loader))
	assert.Equal(t, 200000.0, got.FairMarketValue)
	assert.Equal(t, 1, calls)

	// Second call hits the cache.
	var again cachedValuation
	require.NoError(t, cache.GetOrSet(ctx, "k", &again, time.Minute, loader))
	assert.Equal(t, got, again)
	assert.Equal(t, 1, calls)
}

func TestGetOrSetPropagatesLoaderError(t *testing.T) {
	cache, _ := newTestCache(t)

	wantErr := errors.InsufficientData("no comparable sales survived filtering")
	var got cachedValuation
	err := cache.GetOrSet(context.Background(), "k", &got, time.Minute, func(ctx context.Context) (interface{}, error) {
		return nil, wantErr
	})
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientData(err))
}

func TestGetOrSetCollapsesConcurrentMisses(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	var mu sync.Mutex
	calls := 0
	release := make(chan struct{})
	loader := func(ctx context.Context) (interface{}, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return cachedValuation{FairMarketValue: 100000}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var got cachedValuation
			assert.NoError(t, cache.GetOrSet(ctx, "shared", &got, time.Minute, loader))
		}()
	}

	// Let every goroutine reach the miss path before the loader returns.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestClientPingAfterClose(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, client.Close())
	assert.Error(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestNewClientConnectionFailure(t *testing.T) {
	_, err := NewClient(config.RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond}, logging.NewNopLogger())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCacheError))
}
