package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vendora/marketplace-api/internal/dto"
	"github.com/vendora/marketplace-api/internal/models"
	appErrors "github.com/vendora/marketplace-api/pkg/errors"
)

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, sellerID string, page, pageSize int) ([]models.Course, int, error)
	UpdateDrip(ctx context.Context, id string, cfg models.DripConfig) error
	CreateSection(ctx context.Context, section *models.CourseSection) error
	ListSections(ctx context.Context, courseID string) ([]models.CourseSection, error)
	OrderIndexExists(ctx context.Context, courseID string, orderIndex int) (bool, error)
	MaxOrderIndex(ctx context.Context, courseID string) (int, error)
	UpdateSectionLocks(ctx context.Context, courseID string, entries []models.UnlockScheduleEntry) error
}

type courseEnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ExistsActive(ctx context.Context, courseID, userID string) (bool, error)
}

// CourseService orchestrates courses, sections and drip scheduling.
type CourseService struct {
	repo        courseRepository
	enrollments courseEnrollmentRepository
	cache       *CacheService
	cacheTTL    time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, enrollments courseEnrollmentRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		repo:        repo,
		enrollments: enrollments,
		cache:       cache,
		cacheTTL:    cacheTTL,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock.
func (s *CourseService) WithClock(now func() time.Time) *CourseService {
	if now != nil {
		s.now = now
	}
	return s
}

// Create registers a new course for a seller. Drip starts disabled;
// sellers opt in through the drip config endpoint.
func (s *CourseService) Create(ctx context.Context, sellerID string, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		SellerID:    sellerID,
		Title:       req.Title,
		Description: req.Description,
		DripEnabled: false,
		DripCadence: models.DripCadenceNone,
		Active:      true,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Get returns a course by ID.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// List returns courses with pagination metadata.
func (s *CourseService) List(ctx context.Context, sellerID string, page, pageSize int) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, sellerID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	return courses, pagination, nil
}

// UpdateDrip replaces a course's drip configuration and invalidates any
// cached schedules derived from the old settings.
func (s *CourseService) UpdateDrip(ctx context.Context, courseID, sellerID string, req dto.UpdateDripConfigRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drip payload")
	}
	cadence := models.DripCadence(req.Cadence)
	if req.Enabled && cadence != models.DripCadenceNone && req.IntervalCount < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "intervalCount must be at least 1 when drip is enabled")
	}

	course, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if sellerID != "" && course.SellerID != sellerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another seller")
	}

	cfg := models.DripConfig{Enabled: req.Enabled, Cadence: cadence, IntervalCount: req.IntervalCount}
	if err := s.repo.UpdateDrip(ctx, courseID, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update drip config")
	}
	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, scheduleCachePattern(courseID)); err != nil {
			s.logger.Warn("schedule cache invalidation failed", zap.String("course_id", courseID), zap.Error(err))
		}
	}

	course.DripEnabled = cfg.Enabled
	course.DripCadence = cfg.Cadence
	course.DripInterval = cfg.IntervalCount
	return course, nil
}

// AddSection appends a section to a course. Order indexes are unique per
// course; omitting the index appends after the current last section.
func (s *CourseService) AddSection(ctx context.Context, courseID, sellerID string, req dto.CreateSectionRequest) (*models.CourseSection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if sellerID != "" && course.SellerID != sellerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another seller")
	}

	var orderIndex int
	if req.OrderIndex != nil {
		orderIndex = *req.OrderIndex
		exists, err := s.repo.OrderIndexExists(ctx, courseID, orderIndex)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate section position")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("section at position %d already exists", orderIndex))
		}
	} else {
		max, err := s.repo.MaxOrderIndex(ctx, courseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to determine section position")
		}
		orderIndex = max + 1
	}

	section := &models.CourseSection{
		CourseID:   courseID,
		Title:      req.Title,
		OrderIndex: orderIndex,
		Locked:     orderIndex > 0 && course.DripEnabled && course.DripCadence != models.DripCadenceNone,
	}
	if err := s.repo.CreateSection(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, scheduleCachePattern(courseID)); err != nil {
			s.logger.Warn("schedule cache invalidation failed", zap.String("course_id", courseID), zap.Error(err))
		}
	}
	return section, nil
}

// Enroll registers a learner on a course. JoinedAt is set now and anchors
// every subsequent schedule computation for that learner.
func (s *CourseService) Enroll(ctx context.Context, courseID string, req dto.EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course is inactive")
	}
	exists, err := s.enrollments.ExistsActive(ctx, courseID, req.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user already enrolled in course")
	}
	enrollment := &models.Enrollment{
		CourseID: courseID,
		UserID:   req.UserID,
		JoinedAt: s.now(),
		Status:   models.EnrollmentStatusActive,
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	return enrollment, nil
}

// Schedule computes the unlock schedule for a course. With an enrollment
// ID the schedule is anchored at that learner's join date; without one it
// is anchored at the current instant, which is what a seller previewing
// the course sees. The boolean reports whether the result came from cache.
func (s *CourseService) Schedule(ctx context.Context, courseID, enrollmentID string) (*dto.UnlockScheduleResponse, bool, error) {
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, false, err
	}

	anchor := s.now()
	if enrollmentID != "" {
		enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, false, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
			}
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
		}
		if enrollment.CourseID != courseID {
			return nil, false, appErrors.Clone(appErrors.ErrValidation, "enrollment does not belong to course")
		}
		anchor = enrollment.JoinedAt
	}

	cacheKey := scheduleCacheKey(courseID, enrollmentID)
	if s.cache.Enabled() {
		var cached dto.UnlockScheduleResponse
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, true, nil
		}
	}

	sections, err := s.repo.ListSections(ctx, courseID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
	}

	entries := ComputeUnlockSchedule(course.DripConfig(), sections, anchor)
	titles := make(map[string]string, len(sections))
	for _, section := range sections {
		titles[section.ID] = section.Title
	}

	resp := &dto.UnlockScheduleResponse{
		CourseID:    courseID,
		AnchoredAt:  anchor,
		DripEnabled: course.DripEnabled && course.DripCadence != models.DripCadenceNone,
		Entries:     make([]dto.UnlockScheduleItem, 0, len(entries)),
	}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, dto.UnlockScheduleItem{
			SectionID:       entry.SectionID,
			Title:           titles[entry.SectionID],
			OrderIndex:      entry.OrderIndex,
			UnlockAfterDays: entry.UnlockAfterDays,
			UnlockDate:      entry.UnlockDate,
			Locked:          entry.Locked,
		})
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, resp, s.cacheTTL); err != nil {
			s.logger.Warn("schedule cache write failed", zap.String("course_id", courseID), zap.Error(err))
		}
	}
	return resp, false, nil
}

// RefreshLocks recomputes the schedule anchored at now and persists the
// locked flags and day offsets back onto the sections.
func (s *CourseService) RefreshLocks(ctx context.Context, courseID, sellerID string) (*dto.RefreshLocksResponse, error) {
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if sellerID != "" && course.SellerID != sellerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another seller")
	}

	sections, err := s.repo.ListSections(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
	}

	entries := ComputeUnlockSchedule(course.DripConfig(), sections, s.now())
	if err := s.repo.UpdateSectionLocks(ctx, courseID, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist section locks")
	}
	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, scheduleCachePattern(courseID)); err != nil {
			s.logger.Warn("schedule cache invalidation failed", zap.String("course_id", courseID), zap.Error(err))
		}
	}
	return &dto.RefreshLocksResponse{CourseID: courseID, Updated: len(entries)}, nil
}

func scheduleCacheKey(courseID, enrollmentID string) string {
	if enrollmentID == "" {
		return fmt.Sprintf("courses:%s:schedule:preview", courseID)
	}
	return fmt.Sprintf("courses:%s:schedule:%s", courseID, enrollmentID)
}

func scheduleCachePattern(courseID string) string {
	return fmt.Sprintf("courses:%s:schedule:*", courseID)
}
