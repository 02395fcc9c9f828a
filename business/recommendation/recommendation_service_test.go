package recommendation

import (
	"context"
	"errors"
	"math"
	"myPropertyHub/domain"
	"myPropertyHub/pkg/logger"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// observeLogs routes the package logger into memory for the rest of the test.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(zap.NewNop()) })

	return logs
}

func propertyIDsOf(recs []domain.Recommendation) []uint64 {
	ids := make([]uint64, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.PropertyID)
	}
	return ids
}

func TestGetRecommendations_ColdStart(t *testing.T) {
	popular := property(1, 2, domain.PropertyTypeHouse, domain.ListingTypeSale, "Depok", 100, 2, 250)
	quiet := property(2, 3, domain.PropertyTypeLand, domain.ListingTypeRent, "Bogor", 50, 0, 40)

	props := &fakePropertyRepo{pool: []domain.Property{popular, quiet}}
	recs := newFakeRecommendationRepo(popular, quiet)
	svc := newTestService(&fakeBehaviorRepo{}, props, recs, nil)

	got, err := svc.GetRecommendations(context.Background(), 1, 10, false)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, []uint64{popular.ID, quiet.ID}, propertyIDsOf(got))
	assert.Equal(t, 0.10*math.Min(1, 250.0/100), got[0].Score)
	assert.Equal(t, 0.10*math.Min(1, 40.0/100), got[1].Score)
	assert.Equal(t, "Popular on the marketplace.", got[0].Reason)
	assert.Equal(t, fallbackReason, got[1].Reason)

	f := props.lastFilter()
	assert.Nil(t, f.PropertyTypes)
	assert.Nil(t, f.Locations)
	assert.Nil(t, f.ListingTypes)
	assert.Nil(t, f.MinPrice)

	for _, r := range got {
		assert.NotZero(t, r.ID)
		assert.Equal(t, uint(1), r.UserID)
		assert.Equal(t, "2026-06-15", r.DayBucket)
		assert.Equal(t, defaultModelVersion, r.ModelVersion)
		assert.Equal(t, testNow, r.CreatedAt)
		require.NotNil(t, r.Property)
		assert.Equal(t, r.PropertyID, r.Property.ID)
		assert.Equal(t, 0, r.Context["view_count"])
		assert.Equal(t, 2, r.Context["candidate_pool"])
	}
}

func TestGetRecommendations_WarmScenario(t *testing.T) {
	var views []domain.RecentlyViewed
	for i, price := range []float64{5_000_000, 6_000_000, 8_000_000} {
		viewed := property(uint64(100+i), 9, domain.PropertyTypeApartment, domain.ListingTypeSale, "Kemang", price, 0, 0)
		views = append(views, viewOf(viewed))
	}

	target := property(1, 2, domain.PropertyTypeApartment, domain.ListingTypeRent, "Kemang", 6_500_000, 3, 40)
	other := property(2, 2, domain.PropertyTypeHouse, domain.ListingTypeRent, "Depok", 20_000_000, 3, 100)

	props := &fakePropertyRepo{pool: []domain.Property{other, target}}
	svc := newTestService(&fakeBehaviorRepo{views: views}, props, newFakeRecommendationRepo(target, other), nil)

	got, err := svc.GetRecommendations(context.Background(), 1, 10, false)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, target.ID, got[0].PropertyID)
	assert.InDelta(t, 0.65+0.10*0.4, got[0].Score, 1e-9)
	assert.InDelta(t, 0.10, got[1].Score, 1e-9)

	f := props.lastFilter()
	assert.Equal(t, []string{domain.PropertyTypeApartment}, f.PropertyTypes)
	assert.Equal(t, []string{"Kemang"}, f.Locations)
	assert.Equal(t, []string{domain.ListingTypeSale}, f.ListingTypes)
	assert.Nil(t, f.Bedrooms)
	assert.InDelta(t, 4_400_000, *f.MinPrice, 1e-6)
	assert.InDelta(t, 8_600_000, *f.MaxPrice, 1e-6)
}

func TestGetRecommendations_CacheHitAndRefresh(t *testing.T) {
	p1 := property(1, 2, domain.PropertyTypeHouse, domain.ListingTypeSale, "Depok", 100, 2, 90)
	p2 := property(2, 2, domain.PropertyTypeHouse, domain.ListingTypeSale, "Depok", 100, 2, 10)

	props := &fakePropertyRepo{pool: []domain.Property{p1, p2}}
	recs := newFakeRecommendationRepo(p1, p2)
	svc := newTestService(&fakeBehaviorRepo{}, props, recs, nil)
	ctx := context.Background()

	first, err := svc.GetRecommendations(ctx, 1, 10, false)
	require.NoError(t, err)

	second, err := svc.GetRecommendations(ctx, 1, 10, false)
	require.NoError(t, err)

	assert.Equal(t, 1, props.calls)
	assert.Equal(t, 1, recs.saveCalls)
	assert.Equal(t, 2, recs.count())
	assert.Equal(t, propertyIDsOf(first), propertyIDsOf(second))
	assert.Equal(t, first[0].ID, second[0].ID)

	refreshed, err := svc.GetRecommendations(ctx, 1, 10, true)
	require.NoError(t, err)
	assert.Equal(t, 2, props.calls)
	assert.Equal(t, 2, recs.saveCalls)
	assert.Equal(t, 2, recs.count(), "same day regeneration must not add rows")
	assert.Equal(t, first[0].ID, refreshed[0].ID)
}

func TestGetRecommendations_StaleCacheRegenerates(t *testing.T) {
	p := property(1, 2, domain.PropertyTypeHouse, domain.ListingTypeSale, "Depok", 100, 2, 90)
	props := &fakePropertyRepo{pool: []domain.Property{p}}
	recs := newFakeRecommendationRepo(p)
	svc := newTestService(&fakeBehaviorRepo{}, props, recs, nil)

	_, err := svc.GetRecommendations(context.Background(), 1, 10, false)
	require.NoError(t, err)

	later := testNow.Add(2 * time.Hour)
	svc.now = func() time.Time { return later }

	_, err = svc.GetRecommendations(context.Background(), 1, 10, false)
	require.NoError(t, err)
	assert.Equal(t, 2, props.calls)
	assert.Equal(t, 1, recs.count(), "still the same day bucket")
}

func TestGetRecommendations_CacheSkipsNoLongerEligible(t *testing.T) {
	keep := property(1, 2, domain.PropertyTypeHouse, domain.ListingTypeSale, "Depok", 100, 2, 90)
	gone := property(2, 2, domain.PropertyTypeHouse, domain.ListingTypeSale, "Depok", 100, 2, 95)

	props := &fakePropertyRepo{pool: []domain.Property{keep, gone}}
	recs := newFakeRecommendationRepo(keep, gone)
	svc := newTestService(&fakeBehaviorRepo{}, props, recs, nil)

	_, err := svc.GetRecommendations(context.Background(), 1, 10, false)
	require.NoError(t, err)

	gone.IsActive = false
	recs.properties[gone.ID] = gone

	got, err := svc.GetRecommendations(context.Background(), 1, 10, false)
	require.NoError(t, err)
	assert.Equal(t, []uint64{keep.ID}, propertyIDsOf(got))
	assert.Equal(t, 1, props.calls)
}

func TestGetRecommendations_ExcludesIneligibleCandidates(t *testing.T) {
	own := property(1, 1, domain.PropertyTypeHouse, domain.ListingTypeSale, "Depok", 100, 2, 1000)
	rejected := property(2, 2, domain.PropertyTypeHouse, domain.ListingTypeSale, "Depok", 100, 2, 1000)
	rejected.Status = domain.PropertyStatusRejected
	fine := property(3, 2, domain.PropertyTypeHouse, domain.ListingTypeSale, "Depok", 100, 2, 1)

	props := &fakePropertyRepo{pool: []domain.Property{own, rejected, fine}}
	svc := newTestService(&fakeBehaviorRepo{}, props, newFakeRecommendationRepo(own, rejected, fine), nil)

	got, err := svc.GetRecommendations(context.Background(), 1, 10, false)
	require.NoError(t, err)
	assert.Equal(t, []uint64{fine.ID}, propertyIDsOf(got))
	assert.Equal(t, uint(1), props.lastFilter().ExcludeOwnerID)
}

func TestGetRecommendations_Limits(t *testing.T) {
	pool := make([]domain.Property, 0, 60)
	for i := 0; i < 60; i++ {
		pool = append(pool, property(uint64(i+1), 2, domain.PropertyTypeHouse, domain.ListingTypeSale, "Depok", 100, 2, int64(i)))
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "default", limit: 0, want: defaultLimit},
		{name: "explicit", limit: 3, want: 3},
		{name: "capped", limit: 500, want: defaultMaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CandidateLimit = 100
			svc := NewService(&fakeBehaviorRepo{}, &fakePropertyRepo{pool: pool}, newFakeRecommendationRepo(pool...), nil, cfg)

			got, err := svc.GetRecommendations(context.Background(), 1, tt.limit, true)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestGetRecommendations_BehaviorFailuresDegrade(t *testing.T) {
	p := property(1, 2, domain.PropertyTypeHouse, domain.ListingTypeSale, "Depok", 100, 2, 50)
	behavior := &fakeBehaviorRepo{
		viewsErr:     errors.New("views down"),
		shortlistErr: errors.New("shortlist down"),
		alertsErr:    errors.New("alerts down"),
	}
	props := &fakePropertyRepo{pool: []domain.Property{p}}
	svc := newTestService(behavior, props, newFakeRecommendationRepo(p), nil)
	logs := observeLogs(t)

	got, err := svc.GetRecommendations(context.Background(), 1, 10, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0.10*math.Min(1, 50.0/100), got[0].Score)
	assert.Nil(t, props.lastFilter().PropertyTypes)

	failed := logs.FilterMessage("recommendation_behavior_lookup_failed").All()
	require.Len(t, failed, 3)
	var sources []string
	for _, e := range failed {
		assert.Equal(t, zapcore.WarnLevel, e.Level)
		sources = append(sources, e.ContextMap()["source"].(string))
	}
	assert.Equal(t, []string{"recent_views", "shortlist", "alerts"}, sources)

	generated := logs.FilterMessage("recommendation_generate").All()
	require.Len(t, generated, 1)
	assert.Equal(t, true, generated[0].ContextMap()["cold_start"])
}

func TestGetRecommendations_HardFailures(t *testing.T) {
	p := property(1, 2, domain.PropertyTypeHouse, domain.ListingTypeSale, "Depok", 100, 2, 50)

	t.Run("candidate query", func(t *testing.T) {
		queryErr := errors.New("relation properties does not exist")
		recs := newFakeRecommendationRepo(p)
		svc := newTestService(&fakeBehaviorRepo{}, &fakePropertyRepo{err: queryErr}, recs, nil)

		_, err := svc.GetRecommendations(context.Background(), 1, 10, false)
		assert.ErrorIs(t, err, queryErr)
		assert.Equal(t, 0, recs.saveCalls)
	})

	t.Run("persistence", func(t *testing.T) {
		saveErr := errors.New("deadlock detected")
		recs := newFakeRecommendationRepo(p)
		recs.saveErr = saveErr
		svc := newTestService(&fakeBehaviorRepo{}, &fakePropertyRepo{pool: []domain.Property{p}}, recs, nil)

		_, err := svc.GetRecommendations(context.Background(), 1, 10, false)
		assert.ErrorIs(t, err, saveErr)
		assert.Equal(t, 0, recs.count())
	})

	t.Run("cache lookup", func(t *testing.T) {
		recs := newFakeRecommendationRepo(p)
		recs.findErr = errors.New("connection refused")
		svc := newTestService(&fakeBehaviorRepo{}, &fakePropertyRepo{pool: []domain.Property{p}}, recs, nil)

		_, err := svc.GetRecommendations(context.Background(), 1, 10, false)
		assert.ErrorIs(t, err, recs.findErr)
	})
}

func TestGetRecommendations_EmptyPool(t *testing.T) {
	recs := newFakeRecommendationRepo()
	svc := newTestService(&fakeBehaviorRepo{}, &fakePropertyRepo{}, recs, nil)

	got, err := svc.GetRecommendations(context.Background(), 1, 10, false)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 0, recs.saveCalls)
}

func TestGetRecommendations_InvalidInput(t *testing.T) {
	svc := newTestService(&fakeBehaviorRepo{}, &fakePropertyRepo{}, newFakeRecommendationRepo(), nil)

	_, err := svc.GetRecommendations(context.Background(), 0, 10, false)
	assert.ErrorIs(t, err, ErrInvalidUserID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.GetRecommendations(ctx, 1, 10, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetRecommendations_Guard(t *testing.T) {
	p := property(1, 2, domain.PropertyTypeHouse, domain.ListingTypeSale, "Depok", 100, 2, 50)

	t.Run("acquired lock is released", func(t *testing.T) {
		guard := &fakeGuard{acquired: true}
		svc := newTestService(&fakeBehaviorRepo{}, &fakePropertyRepo{pool: []domain.Property{p}}, newFakeRecommendationRepo(p), guard)

		_, err := svc.GetRecommendations(context.Background(), 1, 10, false)
		require.NoError(t, err)
		assert.Equal(t, 1, guard.acquires)
		assert.Equal(t, 1, guard.releases)
	})

	t.Run("guard error falls through to generation", func(t *testing.T) {
		guard := &fakeGuard{err: errors.New("redis: connection refused")}
		props := &fakePropertyRepo{pool: []domain.Property{p}}
		svc := newTestService(&fakeBehaviorRepo{}, props, newFakeRecommendationRepo(p), guard)

		got, err := svc.GetRecommendations(context.Background(), 1, 10, false)
		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, 1, props.calls)
	})

	t.Run("busy lock serves the concurrent result", func(t *testing.T) {
		recs := newFakeRecommendationRepo(p)
		props := &fakePropertyRepo{pool: []domain.Property{p}}
		guard := &fakeGuard{onAcquire: func() {
			_, _ = recs.SaveDaily(context.Background(), []domain.Recommendation{{
				UserID:       1,
				PropertyID:   p.ID,
				DayBucket:    dayBucket(testNow),
				Score:        0.05,
				ModelVersion: defaultModelVersion,
				CreatedAt:    testNow,
			}})
		}}
		svc := newTestService(&fakeBehaviorRepo{}, props, recs, guard)

		got, err := svc.GetRecommendations(context.Background(), 1, 10, false)
		require.NoError(t, err)
		assert.Equal(t, []uint64{p.ID}, propertyIDsOf(got))
		assert.Equal(t, 0, props.calls)
		assert.Equal(t, 1, recs.count())
	})

	t.Run("busy lock with nothing persisted generates", func(t *testing.T) {
		guard := &fakeGuard{}
		props := &fakePropertyRepo{pool: []domain.Property{p}}
		recs := newFakeRecommendationRepo(p)
		svc := newTestService(&fakeBehaviorRepo{}, props, recs, guard)

		got, err := svc.GetRecommendations(context.Background(), 1, 10, false)
		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, 1, props.calls)
		assert.Equal(t, 0, guard.releases)
	})
}
