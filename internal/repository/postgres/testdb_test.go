package postgres

import (
	"fmt"
	"myPropertyHub/domain"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database on a single connection.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return openTestDB(t, fmt.Sprintf("file:%s?mode=memory&cache=shared", name), 1)
}

// newConcurrentTestDB opens a file-backed WAL database with several
// connections, so transactions from different goroutines really overlap.
func newConcurrentTestDB(t *testing.T, conns int) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "recommendations.db")
	return openTestDB(t, path+"?_journal_mode=WAL&_busy_timeout=10000", conns)
}

func openTestDB(t *testing.T, dsn string, conns int) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(conns)
	sqlDB.SetMaxIdleConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&domain.Property{},
		&domain.RecentlyViewed{},
		&domain.Shortlist{},
		&domain.PropertyAlert{},
		&domain.Recommendation{},
	))

	return db
}

type propertySeed struct {
	owner    uint
	typ      string
	listing  string
	location string
	price    float64
	bedrooms int
	status   string
	inactive bool
	featured bool
	views    int64
}

func seedProperty(t *testing.T, db *gorm.DB, s propertySeed) domain.Property {
	t.Helper()

	if s.status == "" {
		s.status = domain.PropertyStatusApproved
	}
	p := domain.Property{
		OwnerID:      s.owner,
		Title:        s.typ + " in " + s.location,
		PropertyType: s.typ,
		ListingType:  s.listing,
		Location:     s.location,
		Price:        s.price,
		Bedrooms:     s.bedrooms,
		Status:       s.status,
		IsActive:     true,
		IsFeatured:   s.featured,
		ViewCount:    s.views,
	}
	require.NoError(t, db.Create(&p).Error)

	// is_active has a column default, so false must be written explicitly.
	if s.inactive {
		require.NoError(t, db.Model(&p).Update("is_active", false).Error)
		p.IsActive = false
	}

	return p
}
