package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vendora/marketplace-api/internal/models"
)

// BookingRepository handles persistence of booking patterns and their
// generated occurrences.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs the repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// CreatePattern persists a new booking pattern.
func (r *BookingRepository) CreatePattern(ctx context.Context, pattern *models.BookingPattern) error {
	if pattern.ID == "" {
		pattern.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if pattern.CreatedAt.IsZero() {
		pattern.CreatedAt = now
	}
	pattern.UpdatedAt = now
	const query = `INSERT INTO booking_patterns (id, seller_id, title, recurrence_type, start_date, end_date, date_limit,
        start_time, duration_minutes, interval_days, days_of_week, day_of_month, monthly_day_policy,
        occurrence_limit, timezone, created_occurrences, created_at, updated_at)
        VALUES (:id, :seller_id, :title, :recurrence_type, :start_date, :end_date, :date_limit,
        :start_time, :duration_minutes, :interval_days, :days_of_week, :day_of_month, :monthly_day_policy,
        :occurrence_limit, :timezone, :created_occurrences, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pattern); err != nil {
		return fmt.Errorf("create pattern: %w", err)
	}
	return nil
}

// FindPatternByID returns a pattern by its ID.
func (r *BookingRepository) FindPatternByID(ctx context.Context, id string) (*models.BookingPattern, error) {
	const query = `SELECT id, seller_id, title, recurrence_type, start_date, end_date, date_limit,
        start_time, duration_minutes, interval_days, days_of_week, day_of_month, monthly_day_policy,
        occurrence_limit, timezone, created_occurrences, created_at, updated_at
        FROM booking_patterns WHERE id = $1`
	var pattern models.BookingPattern
	if err := r.db.GetContext(ctx, &pattern, query, id); err != nil {
		return nil, err
	}
	return &pattern, nil
}

// ListPatterns returns a seller's patterns, newest first.
func (r *BookingRepository) ListPatterns(ctx context.Context, sellerID string, page, pageSize int) ([]models.BookingPattern, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT id, seller_id, title, recurrence_type, start_date, end_date, date_limit,
        start_time, duration_minutes, interval_days, days_of_week, day_of_month, monthly_day_policy,
        occurrence_limit, timezone, created_occurrences, created_at, updated_at
        FROM booking_patterns WHERE seller_id = $1 ORDER BY created_at DESC LIMIT %d OFFSET %d`, pageSize, offset)

	var patterns []models.BookingPattern
	if err := r.db.SelectContext(ctx, &patterns, query, sellerID); err != nil {
		return nil, 0, fmt.Errorf("list patterns: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM booking_patterns WHERE seller_id = $1", sellerID); err != nil {
		return nil, 0, fmt.Errorf("count patterns: %w", err)
	}
	return patterns, total, nil
}

// CreateOccurrences inserts a generated batch and advances the pattern's
// counter in the same transaction. The unique (pattern_id, sequence_index)
// constraint makes a concurrent double-generation fail here instead of
// writing duplicates; the caller maps that failure to a conflict.
func (r *BookingRepository) CreateOccurrences(ctx context.Context, patternID string, occurrences []models.BookingOccurrence) error {
	if len(occurrences) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin occurrence insert: %w", err)
	}
	defer tx.Rollback()

	const insert = `INSERT INTO booking_occurrences (id, pattern_id, sequence_index, start_at, end_at, status, created_at, updated_at)
        VALUES (:id, :pattern_id, :sequence_index, :start_at, :end_at, :status, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range occurrences {
		occ := &occurrences[i]
		if occ.ID == "" {
			occ.ID = uuid.NewString()
		}
		if occ.Status == "" {
			occ.Status = models.OccurrenceStatusScheduled
		}
		occ.CreatedAt = now
		occ.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, insert, occ); err != nil {
			return fmt.Errorf("insert occurrence: %w", err)
		}
	}

	const bump = `UPDATE booking_patterns SET created_occurrences = created_occurrences + $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, bump, patternID, len(occurrences), now); err != nil {
		return fmt.Errorf("advance pattern counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit occurrence insert: %w", err)
	}
	return nil
}

// ListOccurrences returns a pattern's occurrences in sequence order.
func (r *BookingRepository) ListOccurrences(ctx context.Context, patternID string) ([]models.BookingOccurrence, error) {
	const query = `SELECT id, pattern_id, sequence_index, start_at, end_at, status, created_at, updated_at
        FROM booking_occurrences WHERE pattern_id = $1 ORDER BY sequence_index ASC`
	var occurrences []models.BookingOccurrence
	if err := r.db.SelectContext(ctx, &occurrences, query, patternID); err != nil {
		return nil, fmt.Errorf("list occurrences: %w", err)
	}
	return occurrences, nil
}

// CancelFrom cancels scheduled occurrences starting at or after the given
// instant and returns how many rows changed. Already cancelled rows are
// untouched, which keeps the operation idempotent.
func (r *BookingRepository) CancelFrom(ctx context.Context, patternID string, from time.Time) (int, error) {
	const query = `UPDATE booking_occurrences SET status = $3, updated_at = $4
        WHERE pattern_id = $1 AND start_at >= $2 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, patternID, from, models.OccurrenceStatusCancelled, time.Now().UTC(), models.OccurrenceStatusScheduled)
	if err != nil {
		return 0, fmt.Errorf("cancel occurrences: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cancelled occurrences: %w", err)
	}
	return int(affected), nil
}

// ShiftFrom moves scheduled occurrences at or after the given instant by
// a number of calendar days, preserving relative spacing, and marks them
// rescheduled. The arithmetic runs on local wall time in the given
// timezone, so a shift window crossing a DST transition keeps the booked
// hour instead of drifting by the offset change.
func (r *BookingRepository) ShiftFrom(ctx context.Context, patternID string, from time.Time, days int, timezone string) (int, error) {
	const query = `UPDATE booking_occurrences
        SET start_at = (start_at AT TIME ZONE $4 + make_interval(days => $3)) AT TIME ZONE $4,
            end_at = (end_at AT TIME ZONE $4 + make_interval(days => $3)) AT TIME ZONE $4,
            status = $5, updated_at = $6
        WHERE pattern_id = $1 AND start_at >= $2 AND status = $7`
	res, err := r.db.ExecContext(ctx, query, patternID, from, days, timezone,
		models.OccurrenceStatusRescheduled, time.Now().UTC(), models.OccurrenceStatusScheduled)
	if err != nil {
		return 0, fmt.Errorf("shift occurrences: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count shifted occurrences: %w", err)
	}
	return int(affected), nil
}
