package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vendora/marketplace-api/internal/dto"
	"github.com/vendora/marketplace-api/internal/models"
	appErrors "github.com/vendora/marketplace-api/pkg/errors"
)

type bookingRepository interface {
	CreatePattern(ctx context.Context, pattern *models.BookingPattern) error
	FindPatternByID(ctx context.Context, id string) (*models.BookingPattern, error)
	ListPatterns(ctx context.Context, sellerID string, page, pageSize int) ([]models.BookingPattern, int, error)
	CreateOccurrences(ctx context.Context, patternID string, occurrences []models.BookingOccurrence) error
	ListOccurrences(ctx context.Context, patternID string) ([]models.BookingOccurrence, error)
	CancelFrom(ctx context.Context, patternID string, from time.Time) (int, error)
	ShiftFrom(ctx context.Context, patternID string, from time.Time, days int, timezone string) (int, error)
}

// BookingService orchestrates recurring booking patterns and their
// generated occurrences.
type BookingService struct {
	repo             bookingRepository
	metrics          *MetricsService
	maxBatchSize     int
	defaultBatchSize int
	validator        *validator.Validate
	logger           *zap.Logger
}

// NewBookingService constructs BookingService.
func NewBookingService(repo bookingRepository, metrics *MetricsService, maxBatchSize, defaultBatchSize int, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBatchSize < 1 {
		maxBatchSize = 100
	}
	if defaultBatchSize < 1 || defaultBatchSize > maxBatchSize {
		defaultBatchSize = 10
	}
	return &BookingService{
		repo:             repo,
		metrics:          metrics,
		maxBatchSize:     maxBatchSize,
		defaultBatchSize: defaultBatchSize,
		validator:        validate,
		logger:           logger,
	}
}

// CreatePattern validates and persists a new booking pattern. The
// recurrence type is fixed at creation; the shape is probed with a dry
// expansion so impossible patterns fail here, not at generation time.
func (s *BookingService) CreatePattern(ctx context.Context, sellerID string, req dto.CreatePatternRequest) (*models.BookingPattern, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pattern payload")
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must be YYYY-MM-DD")
	}

	pattern := &models.BookingPattern{
		SellerID:           sellerID,
		Title:              req.Title,
		RecurrenceType:     models.RecurrenceType(req.RecurrenceType),
		StartDate:          startDate,
		StartTime:          req.StartTime,
		DurationMinutes:    req.DurationMinutes,
		IntervalDays:       req.IntervalDays,
		DayOfMonth:         req.DayOfMonth,
		MonthlyDayPolicy:   models.MonthlyDayPolicy(req.MonthlyDayPolicy),
		OccurrenceLimit:    req.OccurrenceLimit,
		Timezone:           req.Timezone,
		CreatedOccurrences: 0,
	}
	if pattern.MonthlyDayPolicy == "" {
		pattern.MonthlyDayPolicy = models.MonthlyDayClamp
	}
	if len(req.DaysOfWeek) > 0 {
		pattern.DaysOfWeek = make(pq.Int64Array, 0, len(req.DaysOfWeek))
		for _, d := range req.DaysOfWeek {
			pattern.DaysOfWeek = append(pattern.DaysOfWeek, int64(d))
		}
	}
	if req.EndDate != "" {
		endDate, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must be YYYY-MM-DD")
		}
		if endDate.Before(startDate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "endDate precedes startDate")
		}
		pattern.EndDate = &endDate
	}
	if req.DateLimit != "" {
		dateLimit, err := time.Parse("2006-01-02", req.DateLimit)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "dateLimit must be YYYY-MM-DD")
		}
		if dateLimit.Before(startDate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "dateLimit precedes startDate")
		}
		pattern.DateLimit = &dateLimit
	}

	probe, err := expandOccurrences(*pattern, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(probe) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "pattern produces no occurrences within its limits")
	}

	if err := s.repo.CreatePattern(ctx, pattern); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create pattern")
	}
	return pattern, nil
}

// GetPattern returns a pattern by ID.
func (s *BookingService) GetPattern(ctx context.Context, id string) (*models.BookingPattern, error) {
	pattern, err := s.repo.FindPatternByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pattern not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pattern")
	}
	return pattern, nil
}

// ListPatterns returns a seller's patterns with pagination metadata.
func (s *BookingService) ListPatterns(ctx context.Context, sellerID string, page, pageSize int) ([]models.BookingPattern, *models.Pagination, error) {
	patterns, total, err := s.repo.ListPatterns(ctx, sellerID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list patterns")
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return patterns, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// GenerateNext expands and persists the next batch of occurrences. The
// pattern's counter is snapshotted before expansion, so two overlapping
// calls compute the same batch and the second insert fails on the
// sequence-index constraint instead of double-booking.
func (s *BookingService) GenerateNext(ctx context.Context, patternID, sellerID string, req dto.GenerateOccurrencesRequest) (*dto.GenerateOccurrencesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}
	count := req.Count
	if count <= 0 {
		count = s.defaultBatchSize
	}
	if count > s.maxBatchSize {
		count = s.maxBatchSize
	}

	pattern, err := s.GetPattern(ctx, patternID)
	if err != nil {
		return nil, err
	}
	if sellerID != "" && pattern.SellerID != sellerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "pattern belongs to another seller")
	}

	slots, err := expandOccurrences(*pattern, pattern.CreatedOccurrences, count)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPatternExhausted, "")
	}

	occurrences := make([]models.BookingOccurrence, 0, len(slots))
	for _, slot := range slots {
		occurrences = append(occurrences, models.BookingOccurrence{
			PatternID:     patternID,
			SequenceIndex: slot.SequenceIndex,
			StartAt:       slot.StartAt,
			EndAt:         slot.EndAt,
			Status:        models.OccurrenceStatusScheduled,
		})
	}
	if err := s.repo.CreateOccurrences(ctx, patternID, occurrences); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "occurrences already generated for this window")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist occurrences")
	}
	s.metrics.RecordOccurrencesGenerated(string(pattern.RecurrenceType), len(occurrences))

	resp := &dto.GenerateOccurrencesResponse{
		PatternID: patternID,
		Generated: len(occurrences),
		Total:     pattern.CreatedOccurrences + len(occurrences),
		Items:     make([]dto.OccurrenceItem, 0, len(occurrences)),
	}
	for _, occ := range occurrences {
		resp.Items = append(resp.Items, dto.OccurrenceItem{
			ID:            occ.ID,
			SequenceIndex: occ.SequenceIndex,
			StartAt:       occ.StartAt,
			EndAt:         occ.EndAt,
			Status:        string(occ.Status),
		})
	}
	return resp, nil
}

// ListOccurrences returns the pattern's generated occurrences.
func (s *BookingService) ListOccurrences(ctx context.Context, patternID string) ([]models.BookingOccurrence, error) {
	if _, err := s.GetPattern(ctx, patternID); err != nil {
		return nil, err
	}
	occurrences, err := s.repo.ListOccurrences(ctx, patternID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list occurrences")
	}
	return occurrences, nil
}

// CancelFuture cancels every scheduled occurrence starting on or after
// the given date. Running it twice is harmless; the second call reports
// zero cancellations.
func (s *BookingService) CancelFuture(ctx context.Context, patternID, sellerID string, req dto.CancelFutureRequest) (*dto.CancelFutureResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancel payload")
	}
	pattern, err := s.GetPattern(ctx, patternID)
	if err != nil {
		return nil, err
	}
	if sellerID != "" && pattern.SellerID != sellerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "pattern belongs to another seller")
	}

	from, err := s.patternDate(pattern, req.FromDate)
	if err != nil {
		return nil, err
	}
	cancelled, err := s.repo.CancelFrom(ctx, patternID, from)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel occurrences")
	}
	return &dto.CancelFutureResponse{PatternID: patternID, Cancelled: cancelled}, nil
}

// RescheduleFuture shifts scheduled occurrences on or after FromDate by
// the offset between the pattern's start date and the new one, keeping
// the relative spacing between occurrences intact.
func (s *BookingService) RescheduleFuture(ctx context.Context, patternID, sellerID string, req dto.RescheduleRequest) (*dto.RescheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}
	pattern, err := s.GetPattern(ctx, patternID)
	if err != nil {
		return nil, err
	}
	if sellerID != "" && pattern.SellerID != sellerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "pattern belongs to another seller")
	}

	newStart, err := time.Parse("2006-01-02", req.NewStartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "newStartDate must be YYYY-MM-DD")
	}
	from, err := s.patternDate(pattern, req.FromDate)
	if err != nil {
		return nil, err
	}

	// The shift is a calendar-day count applied in the pattern's
	// timezone so the booked wall-clock hour survives a DST boundary
	// inside the shift window.
	days := daysBetween(pattern.StartDate, newStart)
	if days == 0 {
		return &dto.RescheduleResponse{PatternID: patternID, Rescheduled: 0}, nil
	}

	shifted, err := s.repo.ShiftFrom(ctx, patternID, from, days, pattern.Timezone)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reschedule occurrences")
	}
	return &dto.RescheduleResponse{PatternID: patternID, Rescheduled: shifted}, nil
}

// patternDate interprets a YYYY-MM-DD boundary at midnight in the
// pattern's timezone so "from the 10th" means the seller's 10th.
func (s *BookingService) patternDate(pattern *models.BookingPattern, raw string) (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "fromDate must be YYYY-MM-DD")
	}
	loc, err := time.LoadLocation(pattern.Timezone)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "pattern has an unknown timezone")
	}
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, loc), nil
}

// isUniqueViolation detects a Postgres duplicate-key failure.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
