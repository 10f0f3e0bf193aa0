package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/pinpoint/internal/core/domain"
)

// LocationRepo implements ports.LocationRepository with pgx and PostGIS.
type LocationRepo struct {
	db *DB
}

// NewLocationRepo creates a new LocationRepo.
func NewLocationRepo(db *DB) *LocationRepo {
	return &LocationRepo{db: db}
}

const selectLocation = `
	SELECT id,
	       ST_Y(result::geometry) AS result_lat, ST_X(result::geometry) AS result_lon,
	       ST_Y(origin::geometry) AS origin_lat, ST_X(origin::geometry) AS origin_lon,
	       "references", amenities, area, distances, unit, residuals, created_at
	FROM locations`

// Insert stores a location. If loc.ID is empty the database assigns one.
func (r *LocationRepo) Insert(ctx context.Context, loc *domain.Location) error {
	amenities := loc.Amenities
	if amenities == nil {
		amenities = []string{}
	}

	var id any
	if loc.ID != "" {
		id = loc.ID
	}

	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO locations (id, result, origin, "references", amenities, area, distances, unit, residuals, created_at)
		VALUES (
			COALESCE($1::uuid, gen_random_uuid()),
			ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography,
			ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography,
			$6, $7, $8, $9, $10, $11, $12
		)
		RETURNING id
	`, id,
		loc.Result.Lon, loc.Result.Lat,
		loc.Origin.Lon, loc.Origin.Lat,
		loc.References, amenities, loc.Area, loc.Distances[:], loc.Unit, loc.Residuals[:], loc.CreatedAt,
	).Scan(&loc.ID)
}

// GetByID returns a location by UUID.
func (r *LocationRepo) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	loc, err := scanLocation(r.db.Pool.QueryRow(ctx, selectLocation+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: location %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// ListRecent returns the newest locations first.
func (r *LocationRepo) ListRecent(ctx context.Context, limit int) ([]domain.Location, error) {
	rows, err := r.db.Pool.Query(ctx, selectLocation+` ORDER BY created_at DESC LIMIT $1`, limit)
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

func scanLocation(row pgx.Row) (*domain.Location, error) {
	var (
		loc       domain.Location
		distances []float64
		residuals []float64
	)
	err := row.Scan(
		&loc.ID,
		&loc.Result.Lat, &loc.Result.Lon,
		&loc.Origin.Lat, &loc.Origin.Lon,
		&loc.References, &loc.Amenities, &loc.Area, &distances, &loc.Unit, &residuals, &loc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	copy(loc.Distances[:], distances)
	copy(loc.Residuals[:], residuals)
	if len(loc.Amenities) == 0 {
		loc.Amenities = nil
	}
	return &loc, nil
}
