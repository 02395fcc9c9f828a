package recommendation

import (
	"context"
	"fmt"
	"math"
	"myPropertyHub/domain"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Facet weights. They are fixed and sum to TotalFacetWeight whether or not a
// facet carried any signal; a facet without signal contributes zero.
const (
	WeightPropertyType = 0.25
	WeightLocation     = 0.20
	WeightListingType  = 0.15
	WeightPrice        = 0.20
	WeightBedrooms     = 0.10
	WeightPopularity   = 0.10

	TotalFacetWeight = 1.0
)

// popularitySaturation is the view count at which the popularity term maxes out.
const popularitySaturation = 100.0

// partialCredit is the display value for price/bedroom facets that did not match.
const partialCredit = 0.5

const fallbackReason = "Based on your browsing history"

const defaultRankLimit = 20

type ScoredCandidate struct {
	Property domain.Property
	Score    float64
	Factors  map[string]float64
	Reason   string
}

// ScoreCandidate is pure: identical inputs always produce identical output,
// including the reason text.
func ScoreCandidate(p domain.Property, prefs PreferenceModel) ScoredCandidate {
	typeMatch := boolScore(prefs.PropertyTypes.Has(p.PropertyType))
	locationMatch := boolScore(prefs.Locations.Has(p.Location))
	listingMatch := boolScore(prefs.ListingTypes.Has(p.ListingType))
	bedroomMatch := boolScore(prefs.BedroomCounts.Has(p.Bedrooms))
	price := priceProximity(p.Price, prefs.PriceRange)
	popularity := popularityScore(p.ViewCount)

	sum := 0.0
	sum += WeightPropertyType * typeMatch
	sum += WeightLocation * locationMatch
	sum += WeightListingType * listingMatch
	sum += WeightPrice * price
	sum += WeightBedrooms * bedroomMatch
	sum += WeightPopularity * popularity

	score := clamp01(sum / TotalFacetWeight)

	priceDisplay := partialCredit
	if prefs.PriceRange != nil && prefs.PriceRange.Contains(p.Price) {
		priceDisplay = 1
	}
	bedroomDisplay := partialCredit
	if bedroomMatch == 1 {
		bedroomDisplay = 1
	}

	factors := map[string]float64{
		domain.FactorPropertyType: typeMatch,
		domain.FactorLocation:     locationMatch,
		domain.FactorListingType:  listingMatch,
		domain.FactorPrice:        priceDisplay,
		domain.FactorBedrooms:     bedroomDisplay,
		domain.FactorPopularity:   popularity,
	}

	return ScoredCandidate{
		Property: p,
		Score:    score,
		Factors:  factors,
		Reason:   buildReason(p, factors),
	}
}

func boolScore(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}

// priceProximity is 1 at the midpoint of the preferred range and falls off
// linearly, reaching 0 one full span away. A zero-width range only rewards an
// exact price.
func priceProximity(price float64, r *Range) float64 {
	if r == nil {
		return 0
	}

	span := r.Span()
	distance := math.Abs(price - r.Midpoint())
	if span <= 0 {
		return boolScore(distance == 0)
	}

	return clamp01(1 - math.Min(1, distance/span))
}

func popularityScore(viewCount int64) float64 {
	if viewCount <= 0 {
		return 0
	}
	return math.Min(1, float64(viewCount)/popularitySaturation)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// buildReason lists, in a fixed order, every factor that fully matched.
func buildReason(p domain.Property, factors map[string]float64) string {
	clauses := make([]string, 0, 7)

	if factors[domain.FactorPropertyType] == 1 {
		clauses = append(clauses, fmt.Sprintf("matches your interest in %s listings", p.PropertyType))
	}
	if factors[domain.FactorLocation] == 1 {
		clauses = append(clauses, fmt.Sprintf("located in %s", p.Location))
	}
	if factors[domain.FactorListingType] == 1 {
		clauses = append(clauses, fmt.Sprintf("available for %s", p.ListingType))
	}
	if factors[domain.FactorPrice] == 1 {
		clauses = append(clauses, "within your price range")
	}
	if factors[domain.FactorBedrooms] == 1 {
		if p.Bedrooms == 1 {
			clauses = append(clauses, "has the 1 bedroom you are looking for")
		} else {
			clauses = append(clauses, fmt.Sprintf("has the %d bedrooms you are looking for", p.Bedrooms))
		}
	}
	if factors[domain.FactorPopularity] == 1 {
		clauses = append(clauses, "popular on the marketplace")
	}
	if p.IsFeatured {
		clauses = append(clauses, "featured listing")
	}

	if len(clauses) == 0 {
		return fallbackReason
	}

	reason := strings.Join(clauses, "; ")
	return strings.ToUpper(reason[:1]) + reason[1:] + "."
}

// scoreCandidates scores the pool on a bounded worker group. Output keeps the
// input order so ranking ties fall back to the retriever's ordering.
func scoreCandidates(
	ctx context.Context,
	candidates []domain.Property,
	prefs PreferenceModel,
	workers int,
) ([]ScoredCandidate, error) {

	out := make([]ScoredCandidate, len(candidates))
	if len(candidates) == 0 {
		return out, nil
	}
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = ScoreCandidate(candidates[i], prefs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}

	return out, nil
}

// rankCandidates sorts by score descending, keeps retriever order on ties,
// and truncates to limit (defaultRankLimit when limit <= 0).
func rankCandidates(scored []ScoredCandidate, limit int) []ScoredCandidate {
	ranked := make([]ScoredCandidate, len(scored))
	copy(ranked, scored)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if limit <= 0 {
		limit = defaultRankLimit
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}
