package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/marketplace-api/internal/models"
)

func TestCreateOccurrencesBumpsCounterInOneTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	occurrences := []models.BookingOccurrence{
		{PatternID: "p1", SequenceIndex: 0, StartAt: start, EndAt: start.Add(time.Hour)},
		{PatternID: "p1", SequenceIndex: 1, StartAt: start.AddDate(0, 0, 1), EndAt: start.AddDate(0, 0, 1).Add(time.Hour)},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO booking_occurrences").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO booking_occurrences").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE booking_patterns SET created_occurrences").
		WithArgs("p1", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateOccurrences(context.Background(), "p1", occurrences)
	require.NoError(t, err)
	assert.NotEmpty(t, occurrences[0].ID)
	assert.Equal(t, models.OccurrenceStatusScheduled, occurrences[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOccurrencesRollsBackOnConstraint(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	occurrences := []models.BookingOccurrence{
		{PatternID: "p1", SequenceIndex: 0, StartAt: start, EndAt: start.Add(time.Hour)},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO booking_occurrences").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.CreateOccurrences(context.Background(), "p1", occurrences)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOccurrencesEmptyBatchIsNoop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	err := repo.CreateOccurrences(context.Background(), "p1", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindPatternByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "seller_id", "title", "recurrence_type", "start_date", "end_date", "date_limit",
		"start_time", "duration_minutes", "interval_days", "days_of_week", "day_of_month", "monthly_day_policy",
		"occurrence_limit", "timezone", "created_occurrences", "created_at", "updated_at",
	}).AddRow("p1", "seller-1", "Yoga", "WEEKLY", now, nil, nil,
		"10:00", 60, 0, "{1,3}", 0, "CLAMP", 0, "UTC", 4, now, now)
	mock.ExpectQuery("SELECT (.+) FROM booking_patterns WHERE id").
		WithArgs("p1").
		WillReturnRows(rows)

	pattern, err := repo.FindPatternByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.RecurrenceWeekly, pattern.RecurrenceType)
	assert.Equal(t, 4, pattern.CreatedOccurrences)
	assert.Equal(t, []int64{1, 3}, []int64(pattern.DaysOfWeek))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelFromOnlyTouchesScheduled(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE booking_occurrences SET status").
		WithArgs("p1", from, string(models.OccurrenceStatusCancelled), sqlmock.AnyArg(), string(models.OccurrenceStatusScheduled)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	cancelled, err := repo.CancelFrom(context.Background(), "p1", from)
	require.NoError(t, err)
	assert.Equal(t, 3, cancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftFromMarksRescheduled(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE booking_occurrences").
		WithArgs("p1", from, 3, "America/New_York", string(models.OccurrenceStatusRescheduled), sqlmock.AnyArg(), string(models.OccurrenceStatusScheduled)).
		WillReturnResult(sqlmock.NewResult(0, 5))

	shifted, err := repo.ShiftFrom(context.Background(), "p1", from, 3, "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, 5, shifted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
