package domain

import (
	"time"

	"gorm.io/datatypes"
)

// CREATE TABLE public.recommendations (
//     id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     user_id         BIGINT NOT NULL,
//     property_id     BIGINT NOT NULL,
//     day_bucket      TEXT NOT NULL,
//     score           NUMERIC NOT NULL CHECK (score >= 0 AND score <= 1),
//     factors         JSONB,
//     reason          TEXT,
//     model_version   TEXT NOT NULL,
//     context         JSONB,
//     shown_at        TIMESTAMPTZ,
//     clicked         BOOLEAN NOT NULL DEFAULT false,
//     clicked_at      TIMESTAMPTZ,
//     contacted       BOOLEAN NOT NULL DEFAULT false,
//     contacted_at    TIMESTAMPTZ,
//     shortlisted     BOOLEAN NOT NULL DEFAULT false,
//     shortlisted_at  TIMESTAMPTZ,
//     feedback_score  SMALLINT CHECK (feedback_score BETWEEN 1 AND 5),
//     is_relevant     BOOLEAN,
//     created_at      TIMESTAMPTZ DEFAULT NOW(),
//     updated_at      TIMESTAMPTZ DEFAULT NOW(),
//     CONSTRAINT uq_recommendations_user_property_day UNIQUE (user_id, property_id, day_bucket)
// );

const (
	FactorPropertyType = "property_type"
	FactorLocation     = "location"
	FactorListingType  = "listing_type"
	FactorPrice        = "price"
	FactorBedrooms     = "bedrooms"
	FactorPopularity   = "popularity"
)

// Recommendation is an append-only record of one property suggested to one user.
// At most one row exists per (user, property, day bucket).
type Recommendation struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     uint   `gorm:"column:user_id;not null;uniqueIndex:uq_recommendations_user_property_day,priority:1;index:idx_recommendations_user_created,priority:1" json:"user_id"`
	PropertyID uint64 `gorm:"column:property_id;not null;uniqueIndex:uq_recommendations_user_property_day,priority:2" json:"property_id"`
	DayBucket  string `gorm:"column:day_bucket;type:text;not null;uniqueIndex:uq_recommendations_user_property_day,priority:3" json:"day_bucket"`

	Score        float64           `gorm:"column:score;not null" json:"score"`
	Factors      datatypes.JSONMap `gorm:"column:factors" json:"factors"`
	Reason       string            `gorm:"column:reason;type:text" json:"reason"`
	ModelVersion string            `gorm:"column:model_version;type:text;not null" json:"model_version"`
	Context      datatypes.JSONMap `gorm:"column:context" json:"context,omitempty"`

	ShownAt       *time.Time `gorm:"column:shown_at" json:"shown_at,omitempty"`
	Clicked       bool       `gorm:"column:clicked;default:false" json:"clicked"`
	ClickedAt     *time.Time `gorm:"column:clicked_at" json:"clicked_at,omitempty"`
	Contacted     bool       `gorm:"column:contacted;default:false" json:"contacted"`
	ContactedAt   *time.Time `gorm:"column:contacted_at" json:"contacted_at,omitempty"`
	Shortlisted   bool       `gorm:"column:shortlisted;default:false" json:"shortlisted"`
	ShortlistedAt *time.Time `gorm:"column:shortlisted_at" json:"shortlisted_at,omitempty"`
	FeedbackScore *int       `gorm:"column:feedback_score" json:"feedback_score,omitempty"`
	IsRelevant    *bool      `gorm:"column:is_relevant" json:"is_relevant,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;index:idx_recommendations_user_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`

	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

func (Recommendation) TableName() string {
	return "recommendations"
}
