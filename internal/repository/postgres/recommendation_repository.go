package postgres

import (
	"context"
	"errors"
	"fmt"
	"myPropertyHub/business/recommendation"
	"myPropertyHub/domain"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecommendationRepository struct {
	DB *gorm.DB
}

var _ recommendation.RecommendationRepository = (*RecommendationRepository)(nil)

func NewRecommendationRepository(db *gorm.DB) *RecommendationRepository {
	return &RecommendationRepository{DB: db}
}

// engagement columns MarkEngagement may touch, flag -> timestamp.
var engagementColumns = map[string]string{
	"contacted":   "contacted_at",
	"shortlisted": "shortlisted_at",
}

func (r *RecommendationRepository) FindFresh(
	ctx context.Context,
	userID uint,
	since time.Time,
	limit int,
) ([]domain.Recommendation, error) {

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if limit <= 0 {
		limit = 10
	}

	var recs []domain.Recommendation
	if err := r.DB.WithContext(ctx).
		Select("recommendations.*").
		Joins("JOIN properties ON properties.id = recommendations.property_id").
		Where("recommendations.user_id = ? AND recommendations.created_at >= ?", userID, since).
		Where("properties.status = ? AND properties.is_active = ? AND properties.owner_id <> ?",
			domain.PropertyStatusApproved, true, userID).
		Order("recommendations.score DESC").
		Order("recommendations.id ASC").
		Limit(limit).
		Preload("Property").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to query fresh recommendations: %w", err)
	}

	return recs, nil
}

// SaveDaily relies on the (user_id, property_id, day_bucket) unique index:
// INSERT ... ON CONFLICT DO NOTHING lets the store settle concurrent writers,
// then the surviving row is read back. All rows commit or none do. Rows are
// written in property_id order so concurrent transactions take index locks
// in the same order; the result keeps the input order.
func (r *RecommendationRepository) SaveDaily(
	ctx context.Context,
	recs []domain.Recommendation,
) ([]domain.Recommendation, error) {

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	order := make([]int, len(recs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return recs[order[a]].PropertyID < recs[order[b]].PropertyID
	})

	out := make([]domain.Recommendation, len(recs))

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, i := range order {
			row := recs[i]
			if _, err := insertDaily(tx, &row); err != nil {
				return err
			}
			out[i] = row
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// insertDaily inserts row unless its (user, property, day) key already exists,
// in which case row is replaced by the stored one. inserted reports which.
func insertDaily(tx *gorm.DB, row *domain.Recommendation) (inserted bool, err error) {
	row.ID = 0
	row.Property = nil

	res := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "property_id"},
			{Name: "day_bucket"},
		},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert recommendation: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	var existing domain.Recommendation
	if err := tx.
		Where("user_id = ? AND property_id = ? AND day_bucket = ?",
			row.UserID, row.PropertyID, row.DayBucket).
		First(&existing).Error; err != nil {
		return false, fmt.Errorf("failed to load existing recommendation: %w", err)
	}
	*row = existing

	return false, nil
}

func (r *RecommendationRepository) FindByIDForUser(ctx context.Context, id, userID uint) (domain.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Recommendation{}, fmt.Errorf("context error: %w", err)
	}

	var rec domain.Recommendation
	err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Recommendation{}, recommendation.ErrRecommendationNotFound
		}
		return domain.Recommendation{}, fmt.Errorf("failed to find recommendation: %w", err)
	}

	return rec, nil
}

func (r *RecommendationRepository) UpdateFields(ctx context.Context, id, userID uint, fields map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).
		Model(&domain.Recommendation{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update recommendation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return recommendation.ErrRecommendationNotFound
	}

	return nil
}

func (r *RecommendationRepository) MarkEngagement(
	ctx context.Context,
	userID uint,
	propertyID uint64,
	flagColumn, timeColumn string,
	at time.Time,
) (int64, error) {

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}
	if col, ok := engagementColumns[flagColumn]; !ok || col != timeColumn {
		return 0, fmt.Errorf("unsupported engagement column %q", flagColumn)
	}

	result := r.DB.WithContext(ctx).
		Model(&domain.Recommendation{}).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		Where(clause.Eq{Column: clause.Column{Name: flagColumn}, Value: false}).
		Updates(map[string]interface{}{
			flagColumn: true,
			timeColumn: at,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark %s: %w", flagColumn, result.Error)
	}

	return result.RowsAffected, nil
}
