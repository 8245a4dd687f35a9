package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

type fakeCache struct {
	reports  map[models.MeetingType]*models.MeetingReport
	failSet  bool
	evicted  []models.MeetingType
	getCalls int
}

func newFakeCache() *fakeCache {
	return &fakeCache{reports: make(map[models.MeetingType]*models.MeetingReport)}
}

func (c *fakeCache) CachedReport(_ context.Context, t models.MeetingType) (*models.MeetingReport, error) {
	c.getCalls++
	return c.reports[t], nil
}

func (c *fakeCache) CacheReport(_ context.Context, r *models.MeetingReport) error {
	if c.failSet {
		return errors.New("redis down")
	}
	c.reports[r.Type] = r
	return nil
}

func (c *fakeCache) EvictReport(_ context.Context, t models.MeetingType) error {
	delete(c.reports, t)
	c.evicted = append(c.evicted, t)
	return nil
}

func TestReportStoreLatestWins(t *testing.T) {
	ctx := context.Background()
	rs := NewReportStore(NewMemoryStore(), nil, zerolog.Nop())

	got, err := rs.Get(ctx, models.MeetingDaily)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, rs.Save(ctx, report("r1", models.MeetingDaily, base)))
	require.NoError(t, rs.Save(ctx, report("r2", models.MeetingDaily, base)))

	got, err = rs.Get(ctx, models.MeetingDaily)
	require.NoError(t, err)
	assert.Equal(t, "r2", got.ID)

	recent, err := rs.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestReportStoreReadThroughCache(t *testing.T) {
	ctx := context.Background()
	ds := NewMemoryStore()
	require.NoError(t, ds.SaveMeetingReport(ctx, report("r1", models.MeetingWeekly, base)))

	cache := newFakeCache()
	rs := NewReportStore(ds, cache, zerolog.Nop())

	got, err := rs.Get(ctx, models.MeetingWeekly)
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, "r1", cache.reports[models.MeetingWeekly].ID, "miss fills the cache")

	require.NoError(t, rs.Save(ctx, report("r2", models.MeetingWeekly, base)))
	assert.Equal(t, "r2", cache.reports[models.MeetingWeekly].ID)
}

func TestReportStoreEvictsOnCacheWriteFailure(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	cache.reports[models.MeetingDaily] = report("stale", models.MeetingDaily, base)
	cache.failSet = true
	rs := NewReportStore(NewMemoryStore(), cache, zerolog.Nop())

	require.NoError(t, rs.Save(ctx, report("fresh", models.MeetingDaily, base)))
	assert.Equal(t, []models.MeetingType{models.MeetingDaily}, cache.evicted)

	got, err := rs.Get(ctx, models.MeetingDaily)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.ID)
}
