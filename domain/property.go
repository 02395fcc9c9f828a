package domain

import (
	"time"
)

// CREATE TABLE public.properties (
//     id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     owner_id        BIGINT NOT NULL,
//     title           TEXT NOT NULL,
//     property_type   TEXT NOT NULL,
//     listing_type    TEXT NOT NULL,
//     location        TEXT NOT NULL,
//     price           NUMERIC NOT NULL,
//     area            NUMERIC,
//     bedrooms        INT,
//     status          TEXT NOT NULL DEFAULT 'pending',
//     is_active       BOOLEAN NOT NULL DEFAULT true,
//     is_featured     BOOLEAN NOT NULL DEFAULT false,
//     view_count      BIGINT NOT NULL DEFAULT 0,
//     created_at      TIMESTAMPTZ DEFAULT NOW(),
//     updated_at      TIMESTAMPTZ DEFAULT NOW()
// );
//
// Owned by the listing service. The recommendation engine only reads it.

const (
	PropertyStatusPending  = "pending"
	PropertyStatusApproved = "approved"
	PropertyStatusRejected = "rejected"
)

const (
	PropertyTypeApartment  = "apartment"
	PropertyTypeHouse      = "house"
	PropertyTypeVilla      = "villa"
	PropertyTypeLand       = "land"
	PropertyTypeCommercial = "commercial"
)

const (
	ListingTypeSale = "sale"
	ListingTypeRent = "rent"
)

type Property struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID      uint      `gorm:"column:owner_id;not null;index" json:"owner_id"`
	Title        string    `gorm:"column:title;type:text" json:"title"`
	PropertyType string    `gorm:"column:property_type;type:text;index" json:"property_type"`
	ListingType  string    `gorm:"column:listing_type;type:text" json:"listing_type"`
	Location     string    `gorm:"column:location;type:text;index" json:"location"`
	Price        float64   `gorm:"column:price;type:numeric" json:"price"`
	Area         float64   `gorm:"column:area;type:numeric" json:"area"`
	Bedrooms     int       `gorm:"column:bedrooms" json:"bedrooms"`
	Status       string    `gorm:"column:status;type:text;default:pending" json:"status"`
	IsActive     bool      `gorm:"column:is_active;default:true" json:"is_active"`
	IsFeatured   bool      `gorm:"column:is_featured;default:false" json:"is_featured"`
	ViewCount    int64     `gorm:"column:view_count;default:0" json:"view_count"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Property) TableName() string {
	return "properties"
}

// Recommendable reports whether the property may be shown to userID.
func (p Property) Recommendable(userID uint) bool {
	return p.Status == PropertyStatusApproved && p.IsActive && p.OwnerID != userID
}

// PropertyFilter is the query the candidate retriever hands to the property store.
// Empty slices and nil bounds mean "do not filter on this facet".
type PropertyFilter struct {
	// Soft facets: a candidate must match at least one populated facet.
	PropertyTypes []string
	Locations     []string
	ListingTypes  []string

	// Hard facets.
	Bedrooms []int
	MinPrice *float64
	MaxPrice *float64

	ExcludeOwnerID uint
	Limit          int
}
