package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"noisemap/backend/services/laeq-service/internal/models"
)

// HexRepository resolves points to hex cells and reads the precomputed hex view.
type HexRepository struct {
	db *sql.DB
}

// NewHexRepository returns repository.
func NewHexRepository(db *sql.DB) *HexRepository {
	return &HexRepository{db: db}
}

// ResolveCell returns the hex cell containing (lat, lng).
func (r *HexRepository) ResolveCell(ctx context.Context, lat, lng float64) (models.Cell, error) {
	const query = `
		SELECT hex_id::text, ST_AsGeoJSON(geom)
		FROM hex_005_e2f8
		WHERE ST_Contains(geom, ST_SetSRID(ST_MakePoint($1, $2), 4326))
		LIMIT 1
	`
	var (
		cell    models.Cell
		geoJSON sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, lng, lat).Scan(&cell.ID, &geoJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Cell{}, models.ErrCellNotFound
	}
	if err != nil {
		return models.Cell{}, fmt.Errorf("resolve cell: %w", err)
	}
	if geoJSON.Valid {
		cell.Polygon = models.OuterRing([]byte(geoJSON.String))
	}
	return cell, nil
}

// UpstreamLAeq returns the LAeq stored in the hex materialized view. It is reported next to,
// never instead of, the recomputed value.
func (r *HexRepository) UpstreamLAeq(ctx context.Context, cellID string) (float64, error) {
	const query = `
		SELECT laeq
		FROM hex_005_e2f8
		WHERE hex_id::text = $1
	`
	var v sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, query, cellID).Scan(&v); err != nil {
		return 0, err
	}
	if !v.Valid {
		return 0, sql.ErrNoRows
	}
	return v.Float64, nil
}
