package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jengzang/records-timeline/internal/database"
	"github.com/jengzang/records-timeline/internal/models"
)

// SegmentRepository handles database operations for segment summaries
type SegmentRepository struct {
	db *sql.DB
}

// NewSegmentRepository creates a new segment repository
func NewSegmentRepository(db *sql.DB) *SegmentRepository {
	return &SegmentRepository{db: db}
}

const segmentColumns = `id, item_id, item_kind, activity_type, recording_state, sample_count,
	start_time, end_time, duration_seconds, distance_meters, center_lat, center_lon,
	radius_mean, radius_sd, classified_type, classifier_score, is_valid, is_worth_keeping,
	algo_version, created_at`

// rangeOverlap matches summaries that overlap (from, to) or lie inside [from, to].
// Summaries that only touch an edge are left alone. Args: to, from, from, to.
const rangeOverlap = `(start_time < ? AND end_time > ?) OR (start_time >= ? AND end_time <= ?)`

// CoveringRange widens [startTime, endTime] to the span of the stored summaries
// that overlap it
func (r *SegmentRepository) CoveringRange(ctx context.Context, startTime, endTime int64) (int64, int64, error) {
	var minStart, maxEnd sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		"SELECT MIN(start_time), MAX(end_time) FROM segment_summaries WHERE "+rangeOverlap,
		endTime, startTime, startTime, endTime,
	).Scan(&minStart, &maxEnd)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query covering range: %w", err)
	}

	if minStart.Valid && minStart.Int64 < startTime {
		startTime = minStart.Int64
	}
	if maxEnd.Valid && maxEnd.Int64 > endTime {
		endTime = maxEnd.Int64
	}
	return startTime, endTime, nil
}

// ReplaceRange deletes the summaries overlapping [startTime, endTime] and inserts
// summaries in their place, atomically. Returns the number inserted.
func (r *SegmentRepository) ReplaceRange(ctx context.Context, startTime, endTime int64, summaries []models.SegmentSummary) (int, error) {
	inserted := 0
	err := database.Transaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM segment_summaries WHERE "+rangeOverlap,
			endTime, startTime, startTime, endTime); err != nil {
			return fmt.Errorf("failed to delete segments: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO segment_summaries (
			item_id, item_kind, activity_type, recording_state, sample_count,
			start_time, end_time, duration_seconds, distance_meters, center_lat, center_lon,
			radius_mean, radius_sd, classified_type, classifier_score, is_valid, is_worth_keeping,
			algo_version, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare segment insert: %w", err)
		}
		defer stmt.Close()

		for _, s := range summaries {
			_, err := stmt.ExecContext(ctx,
				s.ItemID, s.ItemKind, s.ActivityType, s.RecordingState, s.SampleCount,
				s.StartTime, s.EndTime, s.DurationSeconds, s.DistanceMeters, s.CenterLat, s.CenterLon,
				s.RadiusMean, s.RadiusSD, s.ClassifiedType, s.ClassifierScore, s.IsValid, s.IsWorthKeeping,
				s.AlgoVersion, s.CreatedAt.Unix(),
			)
			if err != nil {
				return fmt.Errorf("failed to insert segment: %w", err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// GetSegments retrieves segment summaries with filtering and pagination
func (r *SegmentRepository) GetSegments(ctx context.Context, filter models.SegmentFilter) ([]models.SegmentSummary, int64, error) {
	var conditions []string
	var args []interface{}

	if filter.ActivityType != "" {
		conditions = append(conditions, "activity_type = ?")
		args = append(args, filter.ActivityType)
	}
	if filter.ItemKind != "" {
		conditions = append(conditions, "item_kind = ?")
		args = append(args, strings.ToUpper(filter.ItemKind))
	}
	if filter.StartTime > 0 {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, filter.StartTime)
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "end_time <= ?")
		args = append(args, filter.EndTime)
	}
	if filter.MinDistance > 0 {
		conditions = append(conditions, "distance_meters >= ?")
		args = append(args, filter.MinDistance)
	}
	if filter.MinDuration > 0 {
		conditions = append(conditions, "duration_seconds >= ?")
		args = append(args, filter.MinDuration)
	}
	if filter.KeepersOnly {
		conditions = append(conditions, "is_worth_keeping = 1")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM segment_summaries"+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count segments: %w", err)
	}

	filter.Normalize()
	offset := (filter.Page - 1) * filter.PageSize
	query := "SELECT " + segmentColumns + " FROM segment_summaries" + where +
		" ORDER BY start_time, id LIMIT ? OFFSET ?"
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	var segments []models.SegmentSummary
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, 0, err
		}
		segments = append(segments, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate segments: %w", err)
	}

	return segments, total, nil
}

// GetSegmentByID retrieves a single segment summary by ID
func (r *SegmentRepository) GetSegmentByID(ctx context.Context, id int64) (*models.SegmentSummary, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+segmentColumns+" FROM segment_summaries WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get segment: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanSegment(rows)
}

func scanSegment(rows *sql.Rows) (*models.SegmentSummary, error) {
	var (
		s         models.SegmentSummary
		lat, lon  sql.NullFloat64
		createdAt int64
	)
	err := rows.Scan(
		&s.ID, &s.ItemID, &s.ItemKind, &s.ActivityType, &s.RecordingState, &s.SampleCount,
		&s.StartTime, &s.EndTime, &s.DurationSeconds, &s.DistanceMeters, &lat, &lon,
		&s.RadiusMean, &s.RadiusSD, &s.ClassifiedType, &s.ClassifierScore, &s.IsValid, &s.IsWorthKeeping,
		&s.AlgoVersion, &createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan segment: %w", err)
	}

	if lat.Valid && lon.Valid {
		s.CenterLat = &lat.Float64
		s.CenterLon = &lon.Float64
	}
	s.CreatedAt = time.Unix(createdAt, 0).UTC()

	return &s, nil
}
