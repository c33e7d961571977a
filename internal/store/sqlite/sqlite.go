// Package sqlite stores POI records and the file hash ledger in SQLite through
// gorm and the pure-Go glebarez driver. Locations are kept as plain
// longitude/latitude columns.
package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/JonMunkholm/poi-importer/internal/core"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// insertChunk keeps each INSERT under SQLite's bound-parameter limit.
const insertChunk = 500

type poiModel struct {
	ID            int64     `gorm:"primaryKey"`
	ExternalID    string    `gorm:"size:255;not null;index"`
	Name          string    `gorm:"size:255;not null"`
	Description   string    `gorm:"not null;default:''"`
	Category      string    `gorm:"size:255;not null;index"`
	Longitude     float64   `gorm:"not null"`
	Latitude      float64   `gorm:"not null"`
	Ratings       []float64 `gorm:"serializer:json;not null"`
	AverageRating float64   `gorm:"not null"`
	CreatedAt     time.Time
}

func (poiModel) TableName() string { return "points_of_interest" }

type fileHashModel struct {
	ID         int64     `gorm:"primaryKey"`
	FileHash   string    `gorm:"size:64;not null;uniqueIndex"`
	RecordedAt time.Time `gorm:"autoCreateTime"`
}

func (fileHashModel) TableName() string { return "file_hashes" }

// Store implements core.Store, core.Ledger and core.Browser.
type Store struct {
	db *gorm.DB
}

// Open opens the database at dsn (":memory:" for a throwaway one) and, when
// migrate is set, creates the tables.
func Open(dsn string, migrate bool) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One connection: SQLite serializes writers and ":memory:" is per connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if migrate {
		if err := db.AutoMigrate(&poiModel{}, &fileHashModel{}); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to auto migrate: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InsertMany writes records in one transaction. Rows rejected by a uniqueness
// constraint are skipped and not counted.
func (s *Store) InsertMany(ctx context.Context, records []core.POIRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	models := make([]poiModel, len(records))
	for i, rec := range records {
		models[i] = poiModel{
			ExternalID:    rec.ExternalID,
			Name:          rec.Name,
			Description:   rec.Description,
			Category:      rec.Category,
			Longitude:     rec.Location.Longitude,
			Latitude:      rec.Location.Latitude,
			Ratings:       rec.Ratings,
			AverageRating: rec.AverageRating,
		}
	}

	var inserted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&models, insertChunk)
		inserted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("insert records: %w", err)
	}
	return int(inserted), nil
}

// Contains reports whether hash is in the ledger.
func (s *Store) Contains(ctx context.Context, hash string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&fileHashModel{}).Where("file_hash = ?", hash).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("query file hash: %w", err)
	}
	return count > 0, nil
}

// Record adds hash to the ledger. A known hash is left untouched.
func (s *Store) Record(ctx context.Context, hash string) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "file_hash"}}, DoNothing: true}).
		Create(&fileHashModel{FileHash: hash}).Error
	if err != nil {
		return fmt.Errorf("insert file hash: %w", err)
	}
	return nil
}

// ListPOIs returns one page of records, newest first.
func (s *Store) ListPOIs(ctx context.Context, f core.POIFilter) (core.POIPage, error) {
	q := s.db.WithContext(ctx).Model(&poiModel{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		if id, err := strconv.ParseInt(f.Search, 10, 64); err == nil {
			q = q.Where("external_id = ? OR id = ?", f.Search, id)
		} else {
			q = q.Where("external_id = ?", f.Search)
		}
	}

	var page core.POIPage
	if err := q.Session(&gorm.Session{}).Count(&page.Total).Error; err != nil {
		return core.POIPage{}, fmt.Errorf("count records: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	var rows []poiModel
	if err := q.Session(&gorm.Session{}).Order("id DESC").Limit(limit).Offset(max(f.Offset, 0)).Find(&rows).Error; err != nil {
		return core.POIPage{}, fmt.Errorf("query records: %w", err)
	}

	page.Items = make([]core.StoredPOI, len(rows))
	for i, m := range rows {
		page.Items[i] = core.StoredPOI{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			POIRecord: core.POIRecord{
				ExternalID:    m.ExternalID,
				Name:          m.Name,
				Description:   m.Description,
				Category:      m.Category,
				Location:      core.Point{Longitude: m.Longitude, Latitude: m.Latitude},
				Ratings:       m.Ratings,
				AverageRating: m.AverageRating,
			},
		}
	}
	return page, nil
}
