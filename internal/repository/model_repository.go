package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jengzang/records-timeline/internal/database"
	"github.com/jengzang/records-timeline/internal/models"
)

// ModelRepository stores learned region activity models.
// Cell IDs are stored as the int64 bit pattern of the s2 cell id.
type ModelRepository struct {
	db *sql.DB
}

// NewModelRepository creates a new model repository
func NewModelRepository(db *sql.DB) *ModelRepository {
	return &ModelRepository{db: db}
}

// LoadModels returns the models of one region cell. An unknown cell yields an empty slice.
func (r *ModelRepository) LoadModels(ctx context.Context, cellID uint64) ([]models.ActivityModel, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT cell_id, activity_type, mean_speed, speed_sd, sample_count, updated_at
		FROM activity_models WHERE cell_id = ? ORDER BY activity_type`, int64(cellID))
	if err != nil {
		return nil, fmt.Errorf("failed to query activity models: %w", err)
	}
	defer rows.Close()

	var result []models.ActivityModel
	for rows.Next() {
		var (
			m         models.ActivityModel
			cell      int64
			updatedAt int64
		)
		if err := rows.Scan(&cell, &m.ActivityType, &m.MeanSpeed, &m.SpeedSD, &m.SampleCount, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity model: %w", err)
		}
		m.CellID = uint64(cell)
		m.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity models: %w", err)
	}

	return result, nil
}

// ReplaceAll swaps the whole model table for rows
func (r *ModelRepository) ReplaceAll(ctx context.Context, rows []models.ActivityModel) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM activity_models"); err != nil {
			return fmt.Errorf("failed to clear activity models: %w", err)
		}
		return saveModels(ctx, tx, rows)
	})
}

// SaveModels upserts rows
func (r *ModelRepository) SaveModels(ctx context.Context, rows []models.ActivityModel) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		return saveModels(ctx, tx, rows)
	})
}

// CountCells returns the number of distinct region cells with a model
func (r *ModelRepository) CountCells(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT cell_id) FROM activity_models").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count model cells: %w", err)
	}
	return n, nil
}

func saveModels(ctx context.Context, tx *sql.Tx, rows []models.ActivityModel) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO activity_models
		(cell_id, activity_type, mean_speed, speed_sd, sample_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare activity model insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range rows {
		_, err := stmt.ExecContext(ctx, int64(m.CellID), m.ActivityType, m.MeanSpeed, m.SpeedSD,
			m.SampleCount, m.UpdatedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to save activity model for cell %d: %w", m.CellID, err)
		}
	}
	return nil
}
