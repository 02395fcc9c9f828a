package recommendation

import (
	"context"
	"myPropertyHub/domain"
	"myPropertyHub/pkg/logger"
)

// Behavior is the bounded slice of a user's history the pipeline works from.
type Behavior struct {
	Views     []domain.RecentlyViewed
	Shortlist []domain.Shortlist
	Alerts    []domain.PropertyAlert
}

func (b Behavior) SampleCount() int {
	return len(b.Views) + len(b.Shortlist) + len(b.Alerts)
}

// aggregateBehavior never fails: a user whose history cannot be read still gets
// popularity-ranked recommendations.
func (s *Service) aggregateBehavior(ctx context.Context, in pipelineInput) Behavior {
	var b Behavior

	views, err := s.behaviorRepo.GetRecentViews(ctx, in.userID, s.cfg.ViewLimit)
	if err != nil {
		s.degrade(in, "recent_views", err)
	} else {
		b.Views = views
	}

	shortlist, err := s.behaviorRepo.GetShortlist(ctx, in.userID, s.cfg.ShortlistLimit)
	if err != nil {
		s.degrade(in, "shortlist", err)
	} else {
		b.Shortlist = shortlist
	}

	alerts, err := s.behaviorRepo.GetActiveAlerts(ctx, in.userID)
	if err != nil {
		s.degrade(in, "alerts", err)
	} else {
		b.Alerts = alerts
	}

	return b
}

func (s *Service) degrade(in pipelineInput, source string, err error) {
	DegradedLookupsTotal.WithLabelValues(source).Inc()
	logger.Warn("recommendation_behavior_lookup_failed",
		"trace_id", in.traceID,
		"user_id", in.userID,
		"source", source,
		"error", err,
	)
}
