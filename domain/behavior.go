package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Behavior tables are written by the browsing, shortlist and alert features.
// They are read-only here.

type RecentlyViewed struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint      `gorm:"column:user_id;not null;index:idx_recently_viewed_user_time,priority:1" json:"user_id"`
	PropertyID uint64    `gorm:"column:property_id;not null" json:"property_id"`
	ViewedAt   time.Time `gorm:"column:viewed_at;index:idx_recently_viewed_user_time,priority:2,sort:desc" json:"viewed_at"`
	Property   *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

func (RecentlyViewed) TableName() string {
	return "recently_viewed"
}

type Shortlist struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint           `gorm:"column:user_id;not null;index" json:"user_id"`
	PropertyID uint64         `gorm:"column:property_id;not null" json:"property_id"`
	Folder     string         `gorm:"column:folder;type:text" json:"folder,omitempty"`
	Tags       datatypes.JSON `gorm:"column:tags" json:"tags,omitempty"`
	Notes      string         `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedAt  time.Time      `gorm:"column:created_at" json:"created_at"`
	Property   *Property      `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

func (Shortlist) TableName() string {
	return "shortlists"
}

// PropertyAlert is a saved search. Nil bounds mean the user left the field open.
type PropertyAlert struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint      `gorm:"column:user_id;not null;index" json:"user_id"`
	Name         string    `gorm:"column:name;type:text" json:"name"`
	PropertyType string    `gorm:"column:property_type;type:text" json:"property_type,omitempty"`
	ListingType  string    `gorm:"column:listing_type;type:text" json:"listing_type,omitempty"`
	Location     string    `gorm:"column:location;type:text" json:"location,omitempty"`
	MinPrice     *float64  `gorm:"column:min_price;type:numeric" json:"min_price,omitempty"`
	MaxPrice     *float64  `gorm:"column:max_price;type:numeric" json:"max_price,omitempty"`
	Bedrooms     *int      `gorm:"column:bedrooms" json:"bedrooms,omitempty"`
	IsActive     bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (PropertyAlert) TableName() string {
	return "property_alerts"
}
