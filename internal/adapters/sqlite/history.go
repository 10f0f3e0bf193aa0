// Package sqlite stores trilateration results in a local SQLite file for
// the command line client.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/samirrijal/pinpoint/internal/core/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS locations (
	id          TEXT PRIMARY KEY,
	result_lat  DOUBLE NOT NULL,
	result_lon  DOUBLE NOT NULL,
	origin_lat  DOUBLE NOT NULL,
	origin_lon  DOUBLE NOT NULL,
	refs        TEXT NOT NULL,
	amenities   TEXT NOT NULL DEFAULT '[]',
	area        TEXT NOT NULL DEFAULT '',
	distances   TEXT NOT NULL,
	unit        TEXT NOT NULL,
	residuals   TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_locations_created_at ON locations (created_at DESC);
`

// History implements ports.LocationRepository on SQLite.
type History struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// single writer keeps SQLite free of SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &History{db: db}, nil
}

// Insert stores loc, assigning an id when it has none.
func (h *History) Insert(ctx context.Context, loc *domain.Location) error {
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}
	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = time.Now().UTC()
	}

	refs, err := json.Marshal(loc.References)
	if err != nil {
		return err
	}
	amenities, err := json.Marshal(loc.Amenities)
	if err != nil {
		return err
	}
	distances, err := json.Marshal(loc.Distances)
	if err != nil {
		return err
	}
	residuals, err := json.Marshal(loc.Residuals)
	if err != nil {
		return err
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO locations (id, result_lat, result_lon, origin_lat, origin_lon, refs, amenities, area, distances, unit, residuals, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loc.ID, loc.Result.Lat, loc.Result.Lon, loc.Origin.Lat, loc.Origin.Lon,
		string(refs), string(amenities), loc.Area, string(distances), loc.Unit, string(residuals), loc.CreatedAt,
	)
	return err
}

const selectLocation = `SELECT id, result_lat, result_lon, origin_lat, origin_lon, refs, amenities, area, distances, unit, residuals, created_at FROM locations`

// GetByID returns the location with id.
func (h *History) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	loc, err := scanLocation(h.db.QueryRowContext(ctx, selectLocation+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: location %s", domain.ErrNotFound, id)
	}
	return loc, err
}

// ListRecent returns the newest locations first.
func (h *History) ListRecent(ctx context.Context, limit int) ([]domain.Location, error) {
	rows, err := h.db.QueryContext(ctx, selectLocation+` ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locs []domain.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locs = append(locs, *loc)
	}
	return locs, rows.Err()
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLocation(row scanner) (*domain.Location, error) {
	var (
		loc                                   domain.Location
		refs, amenities, distances, residuals string
	)
	if err := row.Scan(
		&loc.ID, &loc.Result.Lat, &loc.Result.Lon, &loc.Origin.Lat, &loc.Origin.Lon,
		&refs, &amenities, &loc.Area, &distances, &loc.Unit, &residuals, &loc.CreatedAt,
	); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		src string
		dst any
	}{
		{refs, &loc.References},
		{amenities, &loc.Amenities},
		{distances, &loc.Distances},
		{residuals, &loc.Residuals},
	} {
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return nil, fmt.Errorf("decode location %s: %w", loc.ID, err)
		}
	}
	return &loc, nil
}
