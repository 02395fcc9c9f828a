package recommendation

import (
	"context"
	"fmt"
	"myPropertyHub/domain"
	"myPropertyHub/pkg/logger"
	"time"

	"gorm.io/datatypes"
)

// ---- Repository interfaces ----

type BehaviorRepository interface {
	GetRecentViews(ctx context.Context, userID uint, limit int) ([]domain.RecentlyViewed, error)
	GetShortlist(ctx context.Context, userID uint, limit int) ([]domain.Shortlist, error)
	GetActiveAlerts(ctx context.Context, userID uint) ([]domain.PropertyAlert, error)
}

type PropertyRepository interface {
	QueryApprovedActiveProperties(ctx context.Context, filter domain.PropertyFilter) ([]domain.Property, error)
}

type RecommendationRepository interface {
	// FindFresh returns the user's rows created at or after since whose property
	// is still recommendable, best score first, with Property preloaded.
	FindFresh(ctx context.Context, userID uint, since time.Time, limit int) ([]domain.Recommendation, error)

	// SaveDaily inserts every row that has no (user, property, day bucket) twin
	// yet and returns the surviving rows in input order. It is atomic.
	SaveDaily(ctx context.Context, recs []domain.Recommendation) ([]domain.Recommendation, error)

	FindByIDForUser(ctx context.Context, id, userID uint) (domain.Recommendation, error)
	UpdateFields(ctx context.Context, id, userID uint, fields map[string]interface{}) error

	// MarkEngagement sets flagColumn=true and timeColumn=at on the user's rows
	// for propertyID where the flag is still false.
	MarkEngagement(ctx context.Context, userID uint, propertyID uint64, flagColumn, timeColumn string, at time.Time) (int64, error)
}

// GenerationGuard serializes generation per user across instances. It is an
// optimization only; the unique index stays the arbiter of duplicates.
type GenerationGuard interface {
	Acquire(ctx context.Context, userID uint) (release func(), acquired bool, err error)
}

// ---- Service ----

type Service struct {
	behaviorRepo BehaviorRepository
	propertyRepo PropertyRepository
	recoRepo     RecommendationRepository
	guard        GenerationGuard
	cfg          Config
	now          func() time.Time
}

func NewService(
	behaviorRepo BehaviorRepository,
	propertyRepo PropertyRepository,
	recoRepo RecommendationRepository,
	guard GenerationGuard,
	cfg Config,
) *Service {
	return &Service{
		behaviorRepo: behaviorRepo,
		propertyRepo: propertyRepo,
		recoRepo:     recoRepo,
		guard:        guard,
		cfg:          cfg.withDefaults(),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// pipelineInput is built once per request and passed to every stage.
type pipelineInput struct {
	userID  uint
	limit   int
	refresh bool
	now     time.Time
	traceID string
}

func dayBucket(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// GetRecommendations serves fresh persisted recommendations when available and
// otherwise runs the full pipeline. refresh skips the cache.
func (s *Service) GetRecommendations(
	ctx context.Context,
	userID uint,
	limit int,
	refresh bool,
) ([]domain.Recommendation, error) {

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if userID == 0 {
		return nil, ErrInvalidUserID
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	in := pipelineInput{
		userID:  userID,
		limit:   limit,
		refresh: refresh,
		now:     s.now(),
		traceID: TraceIDFromContext(ctx),
	}

	if refresh {
		CacheLookupsTotal.WithLabelValues("bypass").Inc()
	} else {
		recs, err := s.lookupCache(ctx, in)
		if err != nil {
			return nil, err
		}
		if len(recs) > 0 {
			CacheLookupsTotal.WithLabelValues("hit").Inc()
			logger.Debug("recommendation_cache_hit",
				"trace_id", in.traceID,
				"user_id", userID,
				"count", len(recs),
			)
			return recs, nil
		}
		CacheLookupsTotal.WithLabelValues("miss").Inc()
	}

	if s.guard != nil {
		release, acquired, err := s.guard.Acquire(ctx, userID)
		switch {
		case err != nil:
			logger.Warn("recommendation_guard_unavailable",
				"trace_id", in.traceID,
				"user_id", userID,
				"error", err,
			)
		case acquired:
			defer release()
		case !refresh:
			if recs, ok := s.awaitConcurrentGeneration(ctx, in); ok {
				return recs, nil
			}
		}
	}

	recs, err := s.generate(ctx, in)
	if err != nil {
		logger.Error("recommendation_generation_failed",
			"trace_id", in.traceID,
			"user_id", userID,
			"error", err,
		)
		return nil, err
	}

	return recs, nil
}

func (s *Service) lookupCache(ctx context.Context, in pipelineInput) ([]domain.Recommendation, error) {
	since := in.now.Add(-s.cfg.FreshnessWindow)

	rows, err := s.recoRepo.FindFresh(ctx, in.userID, since, in.limit)
	if err != nil {
		return nil, fmt.Errorf("lookup cached recommendations: %w", err)
	}

	out := make([]domain.Recommendation, 0, len(rows))
	for _, r := range rows {
		if r.Property != nil && !r.Property.Recommendable(in.userID) {
			continue
		}
		out = append(out, r)
	}

	return out, nil
}

// awaitConcurrentGeneration gives a concurrent request for the same user a
// short window to persist its rows, then re-reads the cache.
func (s *Service) awaitConcurrentGeneration(ctx context.Context, in pipelineInput) ([]domain.Recommendation, bool) {
	timer := time.NewTimer(s.cfg.LockWait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, false
	case <-timer.C:
	}

	recs, err := s.lookupCache(ctx, in)
	if err != nil || len(recs) == 0 {
		return nil, false
	}

	CacheLookupsTotal.WithLabelValues("hit").Inc()
	return recs, true
}

func (s *Service) generate(ctx context.Context, in pipelineInput) ([]domain.Recommendation, error) {
	behavior := s.aggregateBehavior(ctx, in)
	prefs := BuildPreferences(behavior)

	candidates, err := s.retrieveCandidates(ctx, in, prefs)
	if err != nil {
		return nil, err
	}
	CandidatePoolSize.Observe(float64(len(candidates)))

	scored, err := scoreCandidates(ctx, candidates, prefs, s.cfg.ScoringWorkers)
	if err != nil {
		return nil, err
	}
	top := rankCandidates(scored, in.limit)

	logger.Debug("recommendation_generate",
		"trace_id", in.traceID,
		"user_id", in.userID,
		"samples", behavior.SampleCount(),
		"soft_filter", prefs.HasSoftSignal(),
		"cold_start", prefs.IsEmpty(),
		"candidate_count", len(candidates),
		"returned", len(top),
	)

	if len(top) == 0 {
		return []domain.Recommendation{}, nil
	}

	genCtx := s.generationContext(in, behavior, prefs, len(candidates))
	bucket := dayBucket(in.now)

	rows := make([]domain.Recommendation, 0, len(top))
	for _, c := range top {
		rows = append(rows, domain.Recommendation{
			UserID:       in.userID,
			PropertyID:   c.Property.ID,
			DayBucket:    bucket,
			Score:        c.Score,
			Factors:      factorsJSON(c.Factors),
			Reason:       c.Reason,
			ModelVersion: s.cfg.ModelVersion,
			Context:      genCtx,
			CreatedAt:    in.now,
			UpdatedAt:    in.now,
		})
	}

	saved, err := s.recoRepo.SaveDaily(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("persist recommendations: %w", err)
	}

	byID := make(map[uint64]domain.Property, len(top))
	for _, c := range top {
		byID[c.Property.ID] = c.Property
	}
	for i := range saved {
		if p, ok := byID[saved[i].PropertyID]; ok {
			saved[i].Property = &p
		}
	}

	GeneratedTotal.Add(float64(len(saved)))

	return saved, nil
}

func (s *Service) generationContext(in pipelineInput, b Behavior, prefs PreferenceModel, pool int) datatypes.JSONMap {
	ctxMap := datatypes.JSONMap{
		"generated_at":    in.now.Format(time.RFC3339),
		"view_count":      len(b.Views),
		"shortlist_count": len(b.Shortlist),
		"alert_count":     len(b.Alerts),
		"candidate_pool":  pool,
		"refresh":         in.refresh,
	}
	if in.traceID != "" {
		ctxMap["trace_id"] = in.traceID
	}
	if prefs.AreaRange != nil {
		ctxMap["area_min"] = prefs.AreaRange.Min
		ctxMap["area_max"] = prefs.AreaRange.Max
	}

	return ctxMap
}

func factorsJSON(factors map[string]float64) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(factors))
	for k, v := range factors {
		out[k] = v
	}
	return out
}
