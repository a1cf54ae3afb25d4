package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jengzang/records-timeline/internal/database"
	"github.com/jengzang/records-timeline/internal/models"
)

// SampleRepository handles database operations for samples
type SampleRepository struct {
	db *sql.DB
}

// NewSampleRepository creates a new sample repository
func NewSampleRepository(db *sql.DB) *SampleRepository {
	return &SampleRepository{db: db}
}

const sampleColumns = `id, date_ms, latitude, longitude, altitude, horizontal_accuracy, speed, course,
	activity_type, recording_state`

// InsertBatch upserts samples by ID in one transaction and returns how many were written.
// Dates are stored with millisecond precision.
func (r *SampleRepository) InsertBatch(ctx context.Context, samples []*models.Sample) (int, error) {
	written := 0
	err := database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO samples (`+sampleColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare sample insert: %w", err)
		}
		defer stmt.Close()

		for _, s := range samples {
			if s == nil {
				continue
			}
			if s.ID == uuid.Nil {
				s.ID = uuid.New()
			}

			var lat, lon, alt, acc, speed, course sql.NullFloat64
			if loc := s.Location; loc != nil {
				lat = sql.NullFloat64{Float64: loc.Latitude, Valid: true}
				lon = sql.NullFloat64{Float64: loc.Longitude, Valid: true}
				alt = sql.NullFloat64{Float64: loc.Altitude, Valid: true}
				acc = sql.NullFloat64{Float64: loc.HorizontalAccuracy, Valid: true}
				speed = sql.NullFloat64{Float64: loc.Speed, Valid: true}
				course = sql.NullFloat64{Float64: loc.Course, Valid: true}
			}

			_, err := stmt.ExecContext(ctx, s.ID.String(), s.Date.UnixMilli(),
				lat, lon, alt, acc, speed, course, s.ActivityType, s.RecordingState)
			if err != nil {
				return fmt.Errorf("failed to insert sample %s: %w", s.ID, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// GetSamples retrieves samples inside the filter's unix-second range, oldest first
func (r *SampleRepository) GetSamples(ctx context.Context, filter models.SampleFilter) ([]*models.Sample, error) {
	query := `SELECT ` + sampleColumns + ` FROM samples WHERE 1=1`
	var args []interface{}

	if filter.StartTime > 0 {
		query += " AND date_ms >= ?"
		args = append(args, filter.StartTime*1000)
	}
	if filter.EndTime > 0 {
		query += " AND date_ms < ?"
		args = append(args, (filter.EndTime+1)*1000)
	}
	query += " ORDER BY date_ms, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return r.query(ctx, query, args...)
}

// GetSamplesInRange retrieves samples with from <= date <= to, oldest first
func (r *SampleRepository) GetSamplesInRange(ctx context.Context, from, to time.Time) ([]*models.Sample, error) {
	query := `SELECT ` + sampleColumns + ` FROM samples
		WHERE date_ms >= ? AND date_ms <= ?
		ORDER BY date_ms, id`
	return r.query(ctx, query, from.UnixMilli(), to.UnixMilli())
}

// GetSampleByID retrieves a single sample by ID
func (r *SampleRepository) GetSampleByID(ctx context.Context, id uuid.UUID) (*models.Sample, error) {
	samples, err := r.query(ctx, `SELECT `+sampleColumns+` FROM samples WHERE id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, nil
	}
	return samples[0], nil
}

// Count returns the number of stored samples
func (r *SampleRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM samples").Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return total, nil
}

func (r *SampleRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.Sample, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []*models.Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate samples: %w", err)
	}

	return samples, nil
}

func scanSample(rows *sql.Rows) (*models.Sample, error) {
	var (
		s                              models.Sample
		id                             string
		dateMs                         int64
		lat, lon, alt, acc, sp, course sql.NullFloat64
	)
	err := rows.Scan(&id, &dateMs, &lat, &lon, &alt, &acc, &sp, &course, &s.ActivityType, &s.RecordingState)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sample: %w", err)
	}

	s.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sample id %q: %w", id, err)
	}
	s.Date = time.UnixMilli(dateMs).UTC()

	if lat.Valid && lon.Valid {
		s.Location = &models.Location{
			Latitude:           lat.Float64,
			Longitude:          lon.Float64,
			Altitude:           alt.Float64,
			HorizontalAccuracy: acc.Float64,
			Speed:              sp.Float64,
			Course:             course.Float64,
		}
	}

	return &s, nil
}
