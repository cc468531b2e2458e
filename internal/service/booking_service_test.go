package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/marketplace-api/internal/dto"
	"github.com/vendora/marketplace-api/internal/models"
	appErrors "github.com/vendora/marketplace-api/pkg/errors"
)

type mockBookingRepo struct {
	patterns        map[string]*models.BookingPattern
	created         []models.BookingOccurrence
	createErr       error
	createOccErr    error
	listOccurrences []models.BookingOccurrence
	cancelled       int
	cancelledFrom   time.Time
	shifted         int
	shiftedDays     int
	shiftedZone     string
	shiftedFrom     time.Time
}

func (m *mockBookingRepo) CreatePattern(ctx context.Context, pattern *models.BookingPattern) error {
	if m.createErr != nil {
		return m.createErr
	}
	pattern.ID = "p1"
	return nil
}

func (m *mockBookingRepo) FindPatternByID(ctx context.Context, id string) (*models.BookingPattern, error) {
	if p, ok := m.patterns[id]; ok {
		copy := *p
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBookingRepo) ListPatterns(ctx context.Context, sellerID string, page, pageSize int) ([]models.BookingPattern, int, error) {
	var out []models.BookingPattern
	for _, p := range m.patterns {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockBookingRepo) CreateOccurrences(ctx context.Context, patternID string, occurrences []models.BookingOccurrence) error {
	if m.createOccErr != nil {
		return m.createOccErr
	}
	m.created = append(m.created, occurrences...)
	if p, ok := m.patterns[patternID]; ok {
		p.CreatedOccurrences += len(occurrences)
	}
	return nil
}

func (m *mockBookingRepo) ListOccurrences(ctx context.Context, patternID string) ([]models.BookingOccurrence, error) {
	return m.listOccurrences, nil
}

func (m *mockBookingRepo) CancelFrom(ctx context.Context, patternID string, from time.Time) (int, error) {
	m.cancelledFrom = from
	return m.cancelled, nil
}

func (m *mockBookingRepo) ShiftFrom(ctx context.Context, patternID string, from time.Time, days int, timezone string) (int, error) {
	m.shiftedFrom = from
	m.shiftedDays = days
	m.shiftedZone = timezone
	return m.shifted, nil
}

func dailyPattern(created int) *models.BookingPattern {
	return &models.BookingPattern{
		ID:                 "p1",
		SellerID:           "seller-1",
		Title:              "Yoga class",
		RecurrenceType:     models.RecurrenceDaily,
		StartDate:          time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		StartTime:          "10:00",
		DurationMinutes:    45,
		Timezone:           "UTC",
		CreatedOccurrences: created,
	}
}

func TestBookingServiceCreatePattern(t *testing.T) {
	repo := &mockBookingRepo{}
	svc := NewBookingService(repo, NewMetricsService(), 50, 10, nil, nil)

	pattern, err := svc.CreatePattern(context.Background(), "seller-1", dto.CreatePatternRequest{
		Title:           "Weekly consult",
		RecurrenceType:  "WEEKLY",
		StartDate:       "2025-01-01",
		StartTime:       "10:00",
		DurationMinutes: 30,
		DaysOfWeek:      []int{1, 3},
		Timezone:        "UTC",
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", pattern.ID)
	assert.Equal(t, models.MonthlyDayClamp, pattern.MonthlyDayPolicy)
	assert.Equal(t, "seller-1", pattern.SellerID)
}

func TestBookingServiceCreatePatternRejectsImpossibleShape(t *testing.T) {
	repo := &mockBookingRepo{}
	svc := NewBookingService(repo, NewMetricsService(), 50, 10, nil, nil)

	_, err := svc.CreatePattern(context.Background(), "seller-1", dto.CreatePatternRequest{
		Title:           "Ghost series",
		RecurrenceType:  "WEEKLY",
		StartDate:       "2025-01-01",
		StartTime:       "10:00",
		DurationMinutes: 30,
		Timezone:        "UTC",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceCreatePatternRejectsEndBeforeStart(t *testing.T) {
	repo := &mockBookingRepo{}
	svc := NewBookingService(repo, NewMetricsService(), 50, 10, nil, nil)

	_, err := svc.CreatePattern(context.Background(), "seller-1", dto.CreatePatternRequest{
		Title:           "Backwards",
		RecurrenceType:  "DAILY",
		StartDate:       "2025-02-01",
		EndDate:         "2025-01-01",
		StartTime:       "10:00",
		DurationMinutes: 30,
		Timezone:        "UTC",
	})
	assert.Error(t, err)
}

func TestBookingServiceGenerateNext(t *testing.T) {
	repo := &mockBookingRepo{patterns: map[string]*models.BookingPattern{"p1": dailyPattern(0)}}
	svc := NewBookingService(repo, NewMetricsService(), 50, 10, nil, nil)

	resp, err := svc.GenerateNext(context.Background(), "p1", "seller-1", dto.GenerateOccurrencesRequest{Count: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Generated)
	assert.Equal(t, 3, resp.Total)
	require.Len(t, repo.created, 3)
	assert.Equal(t, 0, repo.created[0].SequenceIndex)
	assert.Equal(t, models.OccurrenceStatusScheduled, repo.created[0].Status)
}

func TestBookingServiceGenerateNextResumesFromCounter(t *testing.T) {
	repo := &mockBookingRepo{patterns: map[string]*models.BookingPattern{"p1": dailyPattern(5)}}
	svc := NewBookingService(repo, NewMetricsService(), 50, 10, nil, nil)

	resp, err := svc.GenerateNext(context.Background(), "p1", "", dto.GenerateOccurrencesRequest{Count: 2})
	require.NoError(t, err)
	assert.Equal(t, 7, resp.Total)
	assert.Equal(t, 5, repo.created[0].SequenceIndex)
	assert.Equal(t, "2025-01-06", repo.created[0].StartAt.Format("2006-01-02"))
}

func TestBookingServiceGenerateNextClampsCount(t *testing.T) {
	repo := &mockBookingRepo{patterns: map[string]*models.BookingPattern{"p1": dailyPattern(0)}}
	svc := NewBookingService(repo, NewMetricsService(), 5, 2, nil, nil)

	resp, err := svc.GenerateNext(context.Background(), "p1", "", dto.GenerateOccurrencesRequest{Count: 500})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Generated)

	resp, err = svc.GenerateNext(context.Background(), "p1", "", dto.GenerateOccurrencesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Generated)
}

func TestBookingServiceGenerateNextExhausted(t *testing.T) {
	p := dailyPattern(3)
	p.OccurrenceLimit = 3
	repo := &mockBookingRepo{patterns: map[string]*models.BookingPattern{"p1": p}}
	svc := NewBookingService(repo, NewMetricsService(), 50, 10, nil, nil)

	_, err := svc.GenerateNext(context.Background(), "p1", "", dto.GenerateOccurrencesRequest{Count: 2})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPatternExhausted.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceGenerateNextDuplicateWindow(t *testing.T) {
	repo := &mockBookingRepo{
		patterns: map[string]*models.BookingPattern{"p1": dailyPattern(0)},
		createOccErr: fmt.Errorf("insert occurrence: %w", &pq.Error{
			Code:       "23505",
			Constraint: "booking_occurrences_pattern_seq",
		}),
	}
	svc := NewBookingService(repo, NewMetricsService(), 50, 10, nil, nil)

	_, err := svc.GenerateNext(context.Background(), "p1", "", dto.GenerateOccurrencesRequest{Count: 2})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceGenerateNextForbiddenForOtherSeller(t *testing.T) {
	repo := &mockBookingRepo{patterns: map[string]*models.BookingPattern{"p1": dailyPattern(0)}}
	svc := NewBookingService(repo, NewMetricsService(), 50, 10, nil, nil)

	_, err := svc.GenerateNext(context.Background(), "p1", "seller-2", dto.GenerateOccurrencesRequest{Count: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceCancelFuture(t *testing.T) {
	repo := &mockBookingRepo{
		patterns:  map[string]*models.BookingPattern{"p1": dailyPattern(10)},
		cancelled: 4,
	}
	svc := NewBookingService(repo, NewMetricsService(), 50, 10, nil, nil)

	resp, err := svc.CancelFuture(context.Background(), "p1", "seller-1", dto.CancelFutureRequest{FromDate: "2025-01-05"})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Cancelled)
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), repo.cancelledFrom.UTC())
}

func TestBookingServiceRescheduleFuture(t *testing.T) {
	repo := &mockBookingRepo{
		patterns: map[string]*models.BookingPattern{"p1": dailyPattern(10)},
		shifted:  6,
	}
	svc := NewBookingService(repo, NewMetricsService(), 50, 10, nil, nil)

	resp, err := svc.RescheduleFuture(context.Background(), "p1", "", dto.RescheduleRequest{
		NewStartDate: "2025-01-04",
		FromDate:     "2025-01-10",
	})
	require.NoError(t, err)
	assert.Equal(t, 6, resp.Rescheduled)
	assert.Equal(t, 3, repo.shiftedDays)
	assert.Equal(t, "UTC", repo.shiftedZone)
}

func TestBookingServiceRescheduleNoopForSameStart(t *testing.T) {
	repo := &mockBookingRepo{patterns: map[string]*models.BookingPattern{"p1": dailyPattern(10)}}
	svc := NewBookingService(repo, NewMetricsService(), 50, 10, nil, nil)

	resp, err := svc.RescheduleFuture(context.Background(), "p1", "", dto.RescheduleRequest{
		NewStartDate: "2025-01-01",
		FromDate:     "2025-01-10",
	})
	require.NoError(t, err)
	assert.Zero(t, resp.Rescheduled)
	assert.Zero(t, repo.shiftedDays)
}

func TestBookingServiceGetPatternNotFound(t *testing.T) {
	repo := &mockBookingRepo{patterns: map[string]*models.BookingPattern{}}
	svc := NewBookingService(repo, NewMetricsService(), 50, 10, nil, nil)

	_, err := svc.GetPattern(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
