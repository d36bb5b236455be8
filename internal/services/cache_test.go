package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bobby-s-dev/cloudburst/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeImages struct {
	calls int
	err   error
}

func (f *fakeImages) SearchImage(_ context.Context, query string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("https://images.example/%s-%d.jpg", query, f.calls), nil
}

func newTestImageCache(src ImageSearcher, maxSize int) (*ImageCache, *clockwork.FakeClock, *observability.Metrics) {
	clock := clockwork.NewFakeClock()
	metrics := observability.NewMetricsForTesting()
	return NewImageCache(src, time.Hour, maxSize, clock, metrics, zap.NewNop()), clock, metrics
}

func TestImageCache_HitAndMiss(t *testing.T) {
	src := &fakeImages{}
	cache, _, metrics := newTestImageCache(src, 10)

	first, err := cache.SearchImage(context.Background(), "Paris")
	require.NoError(t, err)
	second, err := cache.SearchImage(context.Background(), " paris ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ImageCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ImageCache.WithLabelValues("miss")))
}

func TestImageCache_Expiry(t *testing.T) {
	src := &fakeImages{}
	cache, clock, _ := newTestImageCache(src, 10)

	_, err := cache.SearchImage(context.Background(), "Oslo")
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	_, ok := cache.Get("oslo")
	assert.True(t, ok)

	clock.Advance(2 * time.Minute)
	_, ok = cache.Get("oslo")
	assert.False(t, ok)

	_, err = cache.SearchImage(context.Background(), "Oslo")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestImageCache_FailuresAreNotCached(t *testing.T) {
	src := &fakeImages{err: errors.New("boom")}
	cache, _, _ := newTestImageCache(src, 10)

	_, err := cache.SearchImage(context.Background(), "Rome")
	assert.Error(t, err)

	src.err = nil
	url, err := cache.SearchImage(context.Background(), "Rome")
	require.NoError(t, err)
	assert.NotEmpty(t, url)
	assert.Equal(t, 2, src.calls)
}

func TestImageCache_EvictsOldestWhenFull(t *testing.T) {
	cache, clock, _ := newTestImageCache(&fakeImages{}, 2)

	cache.Set("a", "url-a")
	clock.Advance(time.Minute)
	cache.Set("b", "url-b")
	clock.Advance(time.Minute)
	cache.Set("c", "url-c")

	_, ok := cache.Get("a")
	assert.False(t, ok)
	_, ok = cache.Get("b")
	assert.True(t, ok)
	_, ok = cache.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, cache.GetStats()["image_items"])
}

func TestImageCache_Cleanup(t *testing.T) {
	cache, clock, _ := newTestImageCache(&fakeImages{}, 10)
	cache.Set("a", "url-a")

	clock.Advance(2 * time.Hour)
	cache.cleanup()

	assert.Equal(t, 0, cache.GetStats()["image_items"])
}

func TestImageCache_StopIsIdempotent(t *testing.T) {
	cache, _, _ := newTestImageCache(&fakeImages{}, 10)
	cache.StartCleanup()

	assert.NotPanics(t, func() {
		cache.Stop()
		cache.Stop()
	})
}
