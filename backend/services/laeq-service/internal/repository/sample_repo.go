package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"noisemap/backend/libs/laeq"
	"noisemap/backend/services/laeq-service/internal/models"
)

// SampleRepository reads raw noise samples from the PostGIS noise table.
type SampleRepository struct {
	db *sql.DB
}

// NewSampleRepository returns repository.
func NewSampleRepository(db *sql.DB) *SampleRepository {
	return &SampleRepository{db: db}
}

// Samples returns the samples whose coordinate lies in cell with from <= time <= to. A NULL
// level comes back as NaN so the aggregation can count it as rejected.
func (r *SampleRepository) Samples(ctx context.Context, cell models.Cell, from, to time.Time) (laeq.Series, error) {
	const query = `
		SELECT n.time, n.noise_level
		FROM noise_spatial_table n
		JOIN hex_005_e2f8 h ON ST_Intersects(n.coordinate, h.geom)
		WHERE h.hex_id::text = $1
		  AND n.time >= $2 AND n.time <= $3
		ORDER BY n.time
	`
	rows, err := r.db.QueryContext(ctx, query, cell.ID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out laeq.Series
	for rows.Next() {
		var (
			ts    time.Time
			level sql.NullFloat64
		)
		if err := rows.Scan(&ts, &level); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		v := math.NaN()
		if level.Valid {
			v = level.Float64
		}
		out = append(out, laeq.Sample{Time: ts, LevelDb: v})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return out, nil
}
