package postgres

import (
	"context"
	"fmt"
	"myPropertyHub/business/recommendation"
	"myPropertyHub/domain"
	"strings"

	"gorm.io/gorm"
)

type PropertyRepository struct {
	DB *gorm.DB
}

var _ recommendation.PropertyRepository = (*PropertyRepository)(nil)

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{
		DB: db,
	}
}

// QueryApprovedActiveProperties runs the candidate query: approved, active,
// not owned by the requester; type/location/listing type OR-ed when any is
// given; price and bedrooms as hard bounds.
func (r *PropertyRepository) QueryApprovedActiveProperties(
	ctx context.Context,
	filter domain.PropertyFilter,
) ([]domain.Property, error) {

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	q := r.DB.WithContext(ctx).
		Model(&domain.Property{}).
		Where("status = ? AND is_active = ?", domain.PropertyStatusApproved, true)

	if filter.ExcludeOwnerID != 0 {
		q = q.Where("owner_id <> ?", filter.ExcludeOwnerID)
	}

	var (
		soft []string
		args []interface{}
	)
	if len(filter.PropertyTypes) > 0 {
		soft = append(soft, "property_type IN ?")
		args = append(args, filter.PropertyTypes)
	}
	if len(filter.Locations) > 0 {
		soft = append(soft, "location IN ?")
		args = append(args, filter.Locations)
	}
	if len(filter.ListingTypes) > 0 {
		soft = append(soft, "listing_type IN ?")
		args = append(args, filter.ListingTypes)
	}
	if len(soft) > 0 {
		q = q.Where("("+strings.Join(soft, " OR ")+")", args...)
	}

	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}
	if len(filter.Bedrooms) > 0 {
		q = q.Where("bedrooms IN ?", filter.Bedrooms)
	}

	var props []domain.Property
	if err := q.
		Order("is_featured DESC").
		Order("view_count DESC").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&props).Error; err != nil {
		return nil, fmt.Errorf("failed to query candidate properties: %w", err)
	}

	return props, nil
}
