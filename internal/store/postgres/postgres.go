// Package postgres stores POI records and the file hash ledger in PostgreSQL
// with PostGIS, through a pgx connection pool.
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/poi-importer/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PoolConfig tunes the connection pool. Zero values keep the pgx defaults.
type PoolConfig struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Connect parses url, applies cfg and verifies the connection with a ping.
func Connect(ctx context.Context, url string, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

const insertPOI = `
INSERT INTO points_of_interest
	(external_id, name, description, category, location, ratings, average_rating)
VALUES
	($1, $2, $3, $4, ST_SetSRID(ST_MakePoint($5, $6), 4326), $7, $8)
ON CONFLICT DO NOTHING`

// Store implements core.Store, core.Ledger and core.Browser.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InsertMany writes records in one transaction using a pipelined batch.
// Rows rejected by a uniqueness constraint are skipped and not counted.
func (s *Store) InsertMany(ctx context.Context, records []core.POIRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	inserted := 0
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range records {
			batch.Queue(insertPOI,
				rec.ExternalID,
				rec.Name,
				rec.Description,
				rec.Category,
				rec.Location.Longitude,
				rec.Location.Latitude,
				rec.Ratings,
				rec.AverageRating,
			)
		}

		results := tx.SendBatch(ctx, batch)
		for i := range records {
			tag, err := results.Exec()
			if err != nil {
				results.Close()
				return fmt.Errorf("insert record %d (external_id %q): %w", i+1, records[i].ExternalID, err)
			}
			inserted += int(tag.RowsAffected())
		}
		return results.Close()
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// Contains reports whether hash is in the file_hashes ledger.
func (s *Store) Contains(ctx context.Context, hash string) (bool, error) {
	return containsHash(ctx, s.pool, hash)
}

// Record adds hash to the ledger. A known hash is left untouched.
func (s *Store) Record(ctx context.Context, hash string) error {
	return recordHash(ctx, s.pool, hash)
}

func containsHash(ctx context.Context, db DBTX, hash string) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM file_hashes WHERE file_hash = $1)`, hash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query file hash: %w", err)
	}
	return exists, nil
}

func recordHash(ctx context.Context, db DBTX, hash string) error {
	_, err := db.Exec(ctx,
		`INSERT INTO file_hashes (file_hash) VALUES ($1) ON CONFLICT (file_hash) DO NOTHING`, hash,
	)
	if err != nil {
		return fmt.Errorf("insert file hash: %w", err)
	}
	return nil
}

// ListPOIs returns one page of records, newest first.
func (s *Store) ListPOIs(ctx context.Context, f core.POIFilter) (core.POIPage, error) {
	where, args := buildFilter(f)

	var page core.POIPage
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM points_of_interest"+where, args...).Scan(&page.Total); err != nil {
		return core.POIPage{}, fmt.Errorf("count records: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
SELECT id, external_id, name, description, category,
       ST_X(location), ST_Y(location), ratings, average_rating, created_at
FROM points_of_interest%s
ORDER BY id DESC
LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, max(f.Offset, 0))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return core.POIPage{}, fmt.Errorf("query records: %w", err)
	}

	page.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.StoredPOI, error) {
		var p core.StoredPOI
		err := row.Scan(
			&p.ID, &p.ExternalID, &p.Name, &p.Description, &p.Category,
			&p.Location.Longitude, &p.Location.Latitude, &p.Ratings, &p.AverageRating, &p.CreatedAt,
		)
		return p, err
	})
	if err != nil {
		return core.POIPage{}, fmt.Errorf("scan records: %w", err)
	}
	return page, nil
}

// buildFilter returns the WHERE clause and its positional arguments.
func buildFilter(f core.POIFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.Category != "" {
		args = append(args, f.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, f.Search)
		cond := fmt.Sprintf("external_id = $%d", len(args))
		if id, err := strconv.ParseInt(f.Search, 10, 64); err == nil {
			args = append(args, id)
			cond = fmt.Sprintf("(%s OR id = $%d)", cond, len(args))
		}
		clauses = append(clauses, cond)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
