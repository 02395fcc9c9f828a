package recommendation

import (
	"context"
	"fmt"
	"myPropertyHub/domain"
	"sort"
	"sync"
	"time"
)

type fakeBehaviorRepo struct {
	views     []domain.RecentlyViewed
	shortlist []domain.Shortlist
	alerts    []domain.PropertyAlert

	viewsErr, shortlistErr, alertsErr error
}

func (f *fakeBehaviorRepo) GetRecentViews(ctx context.Context, userID uint, limit int) ([]domain.RecentlyViewed, error) {
	if f.viewsErr != nil {
		return nil, f.viewsErr
	}
	return f.views, nil
}

func (f *fakeBehaviorRepo) GetShortlist(ctx context.Context, userID uint, limit int) ([]domain.Shortlist, error) {
	if f.shortlistErr != nil {
		return nil, f.shortlistErr
	}
	return f.shortlist, nil
}

func (f *fakeBehaviorRepo) GetActiveAlerts(ctx context.Context, userID uint) ([]domain.PropertyAlert, error) {
	if f.alertsErr != nil {
		return nil, f.alertsErr
	}
	return f.alerts, nil
}

// fakePropertyRepo returns its pool unfiltered so tests can check that the
// service re-applies the eligibility rules.
type fakePropertyRepo struct {
	mu      sync.Mutex
	pool    []domain.Property
	err     error
	calls   int
	filters []domain.PropertyFilter
}

func (f *fakePropertyRepo) QueryApprovedActiveProperties(ctx context.Context, filter domain.PropertyFilter) ([]domain.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Property, len(f.pool))
	copy(out, f.pool)
	return out, nil
}

func (f *fakePropertyRepo) lastFilter() domain.PropertyFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filters[len(f.filters)-1]
}

// fakeRecommendationRepo is an in-memory store keyed like the real unique
// index. properties backs the FindFresh join.
type fakeRecommendationRepo struct {
	mu         sync.Mutex
	rows       []domain.Recommendation
	nextID     uint
	properties map[uint64]domain.Property

	saveCalls int
	saveErr   error
	findErr   error
	updates   []map[string]interface{}
}

func newFakeRecommendationRepo(props ...domain.Property) *fakeRecommendationRepo {
	f := &fakeRecommendationRepo{properties: map[uint64]domain.Property{}}
	for _, p := range props {
		f.properties[p.ID] = p
	}
	return f
}

func (f *fakeRecommendationRepo) FindFresh(ctx context.Context, userID uint, since time.Time, limit int) ([]domain.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return nil, f.findErr
	}

	var out []domain.Recommendation
	for _, r := range f.rows {
		if r.UserID != userID || r.CreatedAt.Before(since) {
			continue
		}
		if p, ok := f.properties[r.PropertyID]; ok {
			r.Property = &p
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRecommendationRepo) SaveDaily(ctx context.Context, recs []domain.Recommendation) ([]domain.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saveCalls++
	if f.saveErr != nil {
		return nil, f.saveErr
	}

	out := make([]domain.Recommendation, 0, len(recs))
	for _, r := range recs {
		if existing, ok := f.find(r.UserID, r.PropertyID, r.DayBucket); ok {
			out = append(out, existing)
			continue
		}
		f.nextID++
		r.ID = f.nextID
		r.Property = nil
		f.rows = append(f.rows, r)
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRecommendationRepo) find(userID uint, propertyID uint64, bucket string) (domain.Recommendation, bool) {
	for _, r := range f.rows {
		if r.UserID == userID && r.PropertyID == propertyID && r.DayBucket == bucket {
			return r, true
		}
	}
	return domain.Recommendation{}, false
}

func (f *fakeRecommendationRepo) FindByIDForUser(ctx context.Context, id, userID uint) (domain.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.rows {
		if r.ID == id && r.UserID == userID {
			return r, nil
		}
	}
	return domain.Recommendation{}, ErrRecommendationNotFound
}

func (f *fakeRecommendationRepo) UpdateFields(ctx context.Context, id, userID uint, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.rows {
		r := &f.rows[i]
		if r.ID != id || r.UserID != userID {
			continue
		}
		f.updates = append(f.updates, fields)
		for k, v := range fields {
			switch k {
			case "shown_at":
				t := v.(time.Time)
				r.ShownAt = &t
			case "clicked":
				r.Clicked = v.(bool)
			case "clicked_at":
				t := v.(time.Time)
				r.ClickedAt = &t
			case "feedback_score":
				s := v.(int)
				r.FeedbackScore = &s
			case "is_relevant":
				b := v.(bool)
				r.IsRelevant = &b
			default:
				return fmt.Errorf("unexpected column %q", k)
			}
		}
		return nil
	}
	return ErrRecommendationNotFound
}

func (f *fakeRecommendationRepo) MarkEngagement(ctx context.Context, userID uint, propertyID uint64, flagColumn, timeColumn string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for i := range f.rows {
		r := &f.rows[i]
		if r.UserID != userID || r.PropertyID != propertyID {
			continue
		}
		switch flagColumn {
		case "contacted":
			if !r.Contacted {
				r.Contacted, r.ContactedAt = true, &at
				n++
			}
		case "shortlisted":
			if !r.Shortlisted {
				r.Shortlisted, r.ShortlistedAt = true, &at
				n++
			}
		default:
			return 0, fmt.Errorf("unexpected column %q", flagColumn)
		}
	}
	return n, nil
}

func (f *fakeRecommendationRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeGuard struct {
	acquired  bool
	err       error
	onAcquire func()
	acquires  int
	releases  int
}

func (g *fakeGuard) Acquire(ctx context.Context, userID uint) (func(), bool, error) {
	g.acquires++
	if g.onAcquire != nil {
		g.onAcquire()
	}
	if g.err != nil || !g.acquired {
		return nil, false, g.err
	}
	return func() { g.releases++ }, true, nil
}

var testNow = time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC)

func newTestService(b *fakeBehaviorRepo, p *fakePropertyRepo, r *fakeRecommendationRepo, g GenerationGuard) *Service {
	cfg := DefaultConfig()
	cfg.LockWait = time.Millisecond

	svc := NewService(b, p, r, g, cfg)
	svc.now = func() time.Time { return testNow }
	return svc
}

func property(id uint64, owner uint, typ, listing, location string, price float64, bedrooms int, views int64) domain.Property {
	return domain.Property{
		ID:           id,
		OwnerID:      owner,
		Title:        fmt.Sprintf("%s #%d", typ, id),
		PropertyType: typ,
		ListingType:  listing,
		Location:     location,
		Price:        price,
		Bedrooms:     bedrooms,
		Status:       domain.PropertyStatusApproved,
		IsActive:     true,
		ViewCount:    views,
	}
}
