package recommendation

import (
	"math"
	"sort"
	"strings"
)

// StringSet is an unordered set of facet values.
type StringSet map[string]struct{}

func (s StringSet) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	s[v] = struct{}{}
}

func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the members in lexical order so queries and logs are stable.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

type IntSet map[int]struct{}

func (s IntSet) add(v int) {
	if v <= 0 {
		return
	}
	s[v] = struct{}{}
}

func (s IntSet) Has(v int) bool {
	_, ok := s[v]
	return ok
}

func (s IntSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r Range) Span() float64 {
	return r.Max - r.Min
}

func (r Range) Midpoint() float64 {
	return (r.Min + r.Max) / 2
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// rangeBuilder tracks a running min/max. It stays absent until a finite,
// positive value is folded in.
type rangeBuilder struct {
	r  Range
	ok bool
}

func (b *rangeBuilder) add(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return
	}
	if !b.ok {
		b.r = Range{Min: v, Max: v}
		b.ok = true
		return
	}
	b.r.Min = math.Min(b.r.Min, v)
	b.r.Max = math.Max(b.r.Max, v)
}

func (b *rangeBuilder) result() *Range {
	if !b.ok {
		return nil
	}
	r := b.r
	return &r
}

// PreferenceModel is the facet summary of one user's behavior. An empty set or
// nil range means "no signal" and must not constrain retrieval or scoring.
type PreferenceModel struct {
	PropertyTypes StringSet
	ListingTypes  StringSet
	Locations     StringSet
	BedroomCounts IntSet
	PriceRange    *Range
	AreaRange     *Range

	// Set when an active alert leaves that side of its price range open.
	// Retrieval then leaves the matching bound unconstrained.
	PriceOpenBelow bool
	PriceOpenAbove bool
}

// HasSoftSignal reports whether any facet used by the OR retrieval filter is set.
func (p PreferenceModel) HasSoftSignal() bool {
	return len(p.PropertyTypes) > 0 || len(p.Locations) > 0 || len(p.ListingTypes) > 0
}

func (p PreferenceModel) IsEmpty() bool {
	return !p.HasSoftSignal() && len(p.BedroomCounts) == 0 && p.PriceRange == nil
}

// BuildPreferences reduces behavior to facets. Views and shortlist entries add
// categorical facets; only views contribute price and area bounds. Alerts add
// their declared criteria, including each price bound on its own; a one-sided
// alert also marks the other side of the price range as open.
func BuildPreferences(b Behavior) PreferenceModel {
	prefs := PreferenceModel{
		PropertyTypes: StringSet{},
		ListingTypes:  StringSet{},
		Locations:     StringSet{},
		BedroomCounts: IntSet{},
	}

	var price, area rangeBuilder

	for _, v := range b.Views {
		if v.Property == nil {
			continue
		}
		p := v.Property
		prefs.PropertyTypes.add(p.PropertyType)
		prefs.ListingTypes.add(p.ListingType)
		prefs.Locations.add(p.Location)
		prefs.BedroomCounts.add(p.Bedrooms)
		price.add(p.Price)
		area.add(p.Area)
	}

	for _, s := range b.Shortlist {
		if s.Property == nil {
			continue
		}
		p := s.Property
		prefs.PropertyTypes.add(p.PropertyType)
		prefs.ListingTypes.add(p.ListingType)
		prefs.Locations.add(p.Location)
		prefs.BedroomCounts.add(p.Bedrooms)
	}

	for _, a := range b.Alerts {
		if !a.IsActive {
			continue
		}
		prefs.PropertyTypes.add(a.PropertyType)
		prefs.ListingTypes.add(a.ListingType)
		prefs.Locations.add(a.Location)
		if a.Bedrooms != nil {
			prefs.BedroomCounts.add(*a.Bedrooms)
		}
		if a.MinPrice != nil {
			price.add(*a.MinPrice)
		}
		if a.MaxPrice != nil {
			price.add(*a.MaxPrice)
		}
		switch {
		case a.MinPrice != nil && a.MaxPrice == nil:
			prefs.PriceOpenAbove = true
		case a.MinPrice == nil && a.MaxPrice != nil:
			prefs.PriceOpenBelow = true
		}
	}

	prefs.PriceRange = price.result()
	prefs.AreaRange = area.result()

	return prefs
}
