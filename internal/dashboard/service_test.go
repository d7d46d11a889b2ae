package dashboard_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ekahanny/souvenir-tracking-be/internal/dashboard"
)

type countingRepo struct {
	builds  atomic.Int64
	summary dashboard.Summary
}

func (r *countingRepo) BuildSummary(ctx context.Context, recentLimit int) (dashboard.Summary, error) {
	r.builds.Add(1)
	return r.summary, nil
}

func newCachedService(t *testing.T) (*dashboard.Service, *countingRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := &countingRepo{summary: dashboard.Summary{TotalProducts: 3, TotalStock: 120}}
	return dashboard.NewService(repo, client, time.Minute, nil), repo, mr
}

func TestSummaryCachesInRedis(t *testing.T) {
	svc, repo, _ := newCachedService(t)
	ctx := context.Background()

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), first.TotalProducts)
	require.Equal(t, int64(1), repo.builds.Load())

	second, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, first.TotalStock, second.TotalStock)
	require.Equal(t, int64(1), repo.builds.Load(), "second read must come from cache")
}

func TestSummaryRebuildsAfterExpiry(t *testing.T) {
	svc, repo, mr := newCachedService(t)
	ctx := context.Background()

	_, err := svc.Summary(ctx)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), repo.builds.Load())
}

func TestInvalidateDropsCache(t *testing.T) {
	svc, repo, _ := newCachedService(t)
	ctx := context.Background()

	_, err := svc.Summary(ctx)
	require.NoError(t, err)
	svc.Invalidate(ctx)

	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), repo.builds.Load())
}

func TestSummaryWithoutCacheStillBuilds(t *testing.T) {
	repo := &countingRepo{summary: dashboard.Summary{TotalProducts: 1}}
	svc := dashboard.NewService(repo, nil, time.Minute, nil)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), summary.TotalProducts)
}
