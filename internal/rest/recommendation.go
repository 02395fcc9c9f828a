package rest

import (
	"context"
	"errors"
	"myPropertyHub/business/recommendation"
	"myPropertyHub/domain"
	"myPropertyHub/pkg/logger"
	"myPropertyHub/pkg/metrics"
	"net/http"
	"strconv"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const errGenerateMessage = "failed to generate recommendations"

type (
	RecommendationHandler struct {
		validate              *validator.Validate
		recommendationService RecommendationService
	}

	RecommendationService interface {
		GetRecommendations(ctx context.Context, userID uint, limit int, refresh bool) ([]domain.Recommendation, error)
		MarkShown(ctx context.Context, id, userID uint) error
		MarkClicked(ctx context.Context, id, userID uint) error
		SubmitFeedback(ctx context.Context, id, userID uint, feedbackScore int, isRelevant *bool) error
	}

	RecommendationQuery struct {
		N       int  `query:"n" validate:"omitempty,min=1,max=50"`
		Refresh bool `query:"refresh"`
	}

	RecommendationFeedbackRequest struct {
		FeedbackScore int   `json:"feedback_score" validate:"required,min=1,max=5"`
		IsRelevant    *bool `json:"is_relevant"`
	}

	ResponseError struct {
		Message string `json:"message"`
	}
)

func NewRecommendationHandler(svc RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		validate:              validator.New(),
		recommendationService: svc,
	}
}

// GET /api/v1/recommendations?n=10&refresh=false
func (h *RecommendationHandler) List(c echo.Context) error {
	start := time.Now()
	defer observe("list", start, c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var q RecommendationQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	recs, err := h.recommendationService.GetRecommendations(requestContext(c), userID, q.N, q.Refresh)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(recs))
}

// POST /api/v1/recommendations/:id/shown
func (h *RecommendationHandler) Shown(c echo.Context) error {
	start := time.Now()
	defer observe("shown", start, c)

	userID, id, ok := h.ownedTarget(c)
	if !ok {
		return nil
	}

	if err := h.recommendationService.MarkShown(requestContext(c), id, userID); err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("recommendation marked as shown"))
}

// POST /api/v1/recommendations/:id/click
func (h *RecommendationHandler) Click(c echo.Context) error {
	start := time.Now()
	defer observe("click", start, c)

	userID, id, ok := h.ownedTarget(c)
	if !ok {
		return nil
	}

	if err := h.recommendationService.MarkClicked(requestContext(c), id, userID); err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("recommendation click recorded"))
}

// POST /api/v1/recommendations/:id/feedback
func (h *RecommendationHandler) Feedback(c echo.Context) error {
	start := time.Now()
	defer observe("feedback", start, c)

	userID, id, ok := h.ownedTarget(c)
	if !ok {
		return nil
	}

	var req RecommendationFeedbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.recommendationService.SubmitFeedback(requestContext(c), id, userID, req.FeedbackScore, req.IsRelevant); err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("feedback recorded"))
}

// ownedTarget reads the authenticated user and the :id path param. When it
// returns false the response has already been written.
func (h *RecommendationHandler) ownedTarget(c echo.Context) (uint, uint, bool) {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		_ = c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
		return 0, 0, false
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		_ = c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid recommendation id"})
		return 0, 0, false
	}

	return userID, uint(id), true
}

func requestContext(c echo.Context) context.Context {
	traceID := c.Response().Header().Get(echo.HeaderXRequestID)
	if traceID == "" {
		traceID = c.Request().Header.Get(echo.HeaderXRequestID)
	}

	return recommendation.WithTraceID(c.Request().Context(), traceID)
}

func writeServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, recommendation.ErrRecommendationNotFound):
		return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
	case errors.Is(err, recommendation.ErrInvalidFeedbackScore),
		errors.Is(err, recommendation.ErrInvalidRecommendationID),
		errors.Is(err, recommendation.ErrInvalidUserID):
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	logger.Error("recommendation_request_failed",
		"trace_id", recommendation.TraceIDFromContext(requestContext(c)),
		"path", c.Path(),
		"error", err,
	)
	return c.JSON(http.StatusInternalServerError, ResponseError{Message: errGenerateMessage})
}

func observe(route string, start time.Time, c echo.Context) {
	metrics.HandlerLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	metrics.HandlerRequests.WithLabelValues(route, strconv.Itoa(c.Response().Status)).Inc()
}
