package postgres

import (
	"context"
	"fmt"
	"myPropertyHub/business/recommendation"
	"myPropertyHub/domain"

	"gorm.io/gorm"
)

// BehaviorRepository reads the browsing, shortlist and alert tables.
type BehaviorRepository struct {
	DB *gorm.DB
}

var _ recommendation.BehaviorRepository = (*BehaviorRepository)(nil)

func NewBehaviorRepository(db *gorm.DB) *BehaviorRepository {
	return &BehaviorRepository{DB: db}
}

func (r *BehaviorRepository) GetRecentViews(ctx context.Context, userID uint, limit int) ([]domain.RecentlyViewed, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var views []domain.RecentlyViewed
	if err := r.DB.WithContext(ctx).
		Preload("Property").
		Where("user_id = ?", userID).
		Order("viewed_at DESC").
		Limit(limit).
		Find(&views).Error; err != nil {
		return nil, fmt.Errorf("failed to query recently_viewed: %w", err)
	}

	return views, nil
}

func (r *BehaviorRepository) GetShortlist(ctx context.Context, userID uint, limit int) ([]domain.Shortlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var entries []domain.Shortlist
	if err := r.DB.WithContext(ctx).
		Preload("Property").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to query shortlists: %w", err)
	}

	return entries, nil
}

func (r *BehaviorRepository) GetActiveAlerts(ctx context.Context, userID uint) ([]domain.PropertyAlert, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var alerts []domain.PropertyAlert
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to query property_alerts: %w", err)
	}

	return alerts, nil
}
