package recommendation

import "errors"

var (
	// ErrRecommendationNotFound is returned both for unknown ids and for ids that
	// belong to another user.
	ErrRecommendationNotFound = errors.New("recommendation not found")

	ErrInvalidFeedbackScore    = errors.New("feedback score must be between 1 and 5")
	ErrInvalidRecommendationID = errors.New("invalid recommendation id")
	ErrInvalidUserID           = errors.New("invalid user id")
)
