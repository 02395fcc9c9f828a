package recommendation

import (
	"context"
	"fmt"
	"myPropertyHub/domain"
)

// priceBufferRatio widens the preferred price range on both ends so that
// near-budget listings are still retrieved.
const priceBufferRatio = 0.2

// buildFilter turns preferences into the single bounded candidate query.
// Type, location and listing type are OR-ed together; price and bedrooms are
// hard constraints when present.
func buildFilter(prefs PreferenceModel, userID uint, limit int) domain.PropertyFilter {
	filter := domain.PropertyFilter{
		ExcludeOwnerID: userID,
		Limit:          limit,
	}

	if prefs.HasSoftSignal() {
		filter.PropertyTypes = prefs.PropertyTypes.Sorted()
		filter.Locations = prefs.Locations.Sorted()
		filter.ListingTypes = prefs.ListingTypes.Sorted()
	}

	if prefs.PriceRange != nil {
		buffer := priceBufferRatio * prefs.PriceRange.Span()
		minPrice := prefs.PriceRange.Min - buffer
		maxPrice := prefs.PriceRange.Max + buffer
		if !prefs.PriceOpenBelow {
			filter.MinPrice = &minPrice
		}
		if !prefs.PriceOpenAbove {
			filter.MaxPrice = &maxPrice
		}
	}

	if len(prefs.BedroomCounts) > 0 {
		filter.Bedrooms = prefs.BedroomCounts.Sorted()
	}

	return filter
}

// retrieveCandidates returns the pool in store order (featured, popularity,
// recency). Errors are returned as-is; an empty pool is a valid result.
func (s *Service) retrieveCandidates(
	ctx context.Context,
	in pipelineInput,
	prefs PreferenceModel,
) ([]domain.Property, error) {

	qctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	filter := buildFilter(prefs, in.userID, s.cfg.CandidateLimit)

	props, err := s.propertyRepo.QueryApprovedActiveProperties(qctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}

	// eligibility is re-checked on top of the store filter
	out := make([]domain.Property, 0, len(props))
	for _, p := range props {
		if p.Recommendable(in.userID) {
			out = append(out, p)
		}
	}
	if len(out) > s.cfg.CandidateLimit {
		out = out[:s.cfg.CandidateLimit]
	}

	return out, nil
}
