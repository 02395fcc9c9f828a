package recommendation

import (
	"context"
	"fmt"
	"myPropertyHub/domain"
	"myPropertyHub/pkg/logger"
)

const (
	minFeedbackScore = 1
	maxFeedbackScore = 5
)

func (s *Service) loadOwned(ctx context.Context, id, userID uint) (domain.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Recommendation{}, fmt.Errorf("context error: %w", err)
	}
	if id == 0 {
		return domain.Recommendation{}, ErrInvalidRecommendationID
	}
	if userID == 0 {
		return domain.Recommendation{}, ErrRecommendationNotFound
	}

	return s.recoRepo.FindByIDForUser(ctx, id, userID)
}

// MarkShown stamps shown_at with the current time. Calling it again only moves
// the timestamp.
func (s *Service) MarkShown(ctx context.Context, id, userID uint) error {
	rec, err := s.loadOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.recoRepo.UpdateFields(ctx, rec.ID, userID, map[string]interface{}{
		"shown_at": s.now(),
	}); err != nil {
		return fmt.Errorf("mark shown: %w", err)
	}

	s.recordFeedback(ctx, "shown", rec)
	return nil
}

func (s *Service) MarkClicked(ctx context.Context, id, userID uint) error {
	rec, err := s.loadOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.recoRepo.UpdateFields(ctx, rec.ID, userID, map[string]interface{}{
		"clicked":    true,
		"clicked_at": s.now(),
	}); err != nil {
		return fmt.Errorf("mark clicked: %w", err)
	}

	s.recordFeedback(ctx, "clicked", rec)
	return nil
}

// SubmitFeedback stores an explicit 1..5 rating and, when given, the relevance
// flag. Scores outside the range are rejected before anything is loaded.
func (s *Service) SubmitFeedback(ctx context.Context, id, userID uint, feedbackScore int, isRelevant *bool) error {
	if feedbackScore < minFeedbackScore || feedbackScore > maxFeedbackScore {
		return ErrInvalidFeedbackScore
	}

	rec, err := s.loadOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	fields := map[string]interface{}{
		"feedback_score": feedbackScore,
	}
	if isRelevant != nil {
		fields["is_relevant"] = *isRelevant
	}

	if err := s.recoRepo.UpdateFields(ctx, rec.ID, userID, fields); err != nil {
		return fmt.Errorf("submit feedback: %w", err)
	}

	s.recordFeedback(ctx, "rated", rec)
	return nil
}

// MarkContacted is called by the inquiry feature when a user contacts the
// owner of a property; every earlier recommendation of it gets the credit.
func (s *Service) MarkContacted(ctx context.Context, userID uint, propertyID uint64) error {
	return s.markEngagement(ctx, "contacted", userID, propertyID, "contacted", "contacted_at")
}

// MarkShortlisted is called by the shortlist feature.
func (s *Service) MarkShortlisted(ctx context.Context, userID uint, propertyID uint64) error {
	return s.markEngagement(ctx, "shortlisted", userID, propertyID, "shortlisted", "shortlisted_at")
}

func (s *Service) markEngagement(
	ctx context.Context,
	event string,
	userID uint,
	propertyID uint64,
	flagColumn, timeColumn string,
) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if userID == 0 {
		return ErrInvalidUserID
	}

	n, err := s.recoRepo.MarkEngagement(ctx, userID, propertyID, flagColumn, timeColumn, s.now())
	if err != nil {
		return fmt.Errorf("mark %s: %w", event, err)
	}
	if n > 0 {
		FeedbackEventsTotal.WithLabelValues(event).Add(float64(n))
	}

	logger.Debug("recommendation_engagement",
		"trace_id", TraceIDFromContext(ctx),
		"user_id", userID,
		"property_id", propertyID,
		"event", event,
		"rows", n,
	)

	return nil
}

func (s *Service) recordFeedback(ctx context.Context, event string, rec domain.Recommendation) {
	FeedbackEventsTotal.WithLabelValues(event).Inc()

	logger.Debug("recommendation_feedback",
		"trace_id", TraceIDFromContext(ctx),
		"user_id", rec.UserID,
		"recommendation_id", rec.ID,
		"property_id", rec.PropertyID,
		"event", event,
	)
}
