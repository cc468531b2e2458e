package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vendora/marketplace-api/internal/models"
)

// CourseRepository handles persistence of courses and their sections.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create persists a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, seller_id, title, description, drip_enabled, drip_cadence, drip_interval, active, created_at, updated_at)
        VALUES (:id, :seller_id, :title, :description, :drip_enabled, :drip_cadence, :drip_interval, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, seller_id, title, description, drip_enabled, drip_cadence, drip_interval, active, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns courses, optionally restricted to one seller.
func (r *CourseRepository) List(ctx context.Context, sellerID string, page, pageSize int) ([]models.Course, int, error) {
	base := `FROM courses WHERE active = TRUE`
	var args []interface{}
	if sellerID != "" {
		base += fmt.Sprintf(" AND seller_id = $%d", len(args)+1)
		args = append(args, sellerID)
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT id, seller_id, title, description, drip_enabled, drip_cadence, drip_interval, active, created_at, updated_at
        %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base, pageSize, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// UpdateDrip replaces the course's drip configuration.
func (r *CourseRepository) UpdateDrip(ctx context.Context, id string, cfg models.DripConfig) error {
	const query = `UPDATE courses SET drip_enabled = $2, drip_cadence = $3, drip_interval = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, cfg.Enabled, cfg.Cadence, cfg.IntervalCount, time.Now().UTC()); err != nil {
		return fmt.Errorf("update drip config: %w", err)
	}
	return nil
}

// CreateSection persists a new course section.
func (r *CourseRepository) CreateSection(ctx context.Context, section *models.CourseSection) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = now
	const query = `INSERT INTO course_sections (id, course_id, title, order_index, locked, unlock_after_days, created_at, updated_at)
        VALUES (:id, :course_id, :title, :order_index, :locked, :unlock_after_days, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// ListSections returns a course's sections ordered by position.
func (r *CourseRepository) ListSections(ctx context.Context, courseID string) ([]models.CourseSection, error) {
	const query = `SELECT id, course_id, title, order_index, locked, unlock_after_days, created_at, updated_at
        FROM course_sections WHERE course_id = $1 ORDER BY order_index ASC`
	var sections []models.CourseSection
	if err := r.db.SelectContext(ctx, &sections, query, courseID); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// OrderIndexExists checks whether a course already has a section at the
// given position.
func (r *CourseRepository) OrderIndexExists(ctx context.Context, courseID string, orderIndex int) (bool, error) {
	const query = `SELECT 1 FROM course_sections WHERE course_id = $1 AND order_index = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, courseID, orderIndex); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check order index: %w", err)
	}
	return true, nil
}

// MaxOrderIndex returns the highest order index in use, or -1 when the
// course has no sections yet.
func (r *CourseRepository) MaxOrderIndex(ctx context.Context, courseID string) (int, error) {
	const query = `SELECT COALESCE(MAX(order_index), -1) FROM course_sections WHERE course_id = $1`
	var max int
	if err := r.db.GetContext(ctx, &max, query, courseID); err != nil {
		return 0, fmt.Errorf("max order index: %w", err)
	}
	return max, nil
}

// UpdateSectionLocks writes computed lock state back per section in one
// transaction so a refresh is all-or-nothing.
func (r *CourseRepository) UpdateSectionLocks(ctx context.Context, courseID string, entries []models.UnlockScheduleEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin lock update: %w", err)
	}
	defer tx.Rollback()

	const query = `UPDATE course_sections SET locked = $3, unlock_after_days = $4, updated_at = $5 WHERE id = $1 AND course_id = $2`
	now := time.Now().UTC()
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, query, entry.SectionID, courseID, entry.Locked, entry.UnlockAfterDays, now); err != nil {
			return fmt.Errorf("update section lock: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lock update: %w", err)
	}
	return nil
}
