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

func TestCourseFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "seller_id", "title", "description", "drip_enabled", "drip_cadence", "drip_interval", "active", "created_at", "updated_at"}).
		AddRow("c1", "seller-1", "Go from scratch", "", true, "DAILY", 2, true, now, now)
	mock.ExpectQuery("SELECT (.+) FROM courses WHERE id").
		WithArgs("c1").
		WillReturnRows(rows)

	course, err := repo.FindByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, models.DripCadenceDaily, course.DripCadence)
	assert.True(t, course.DripEnabled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseUpdateDrip(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("UPDATE courses SET drip_enabled").
		WithArgs("c1", true, models.DripCadenceWeekly, 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateDrip(context.Background(), "c1", models.DripConfig{Enabled: true, Cadence: models.DripCadenceWeekly, IntervalCount: 1})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseOrderIndexExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("SELECT 1 FROM course_sections").
		WithArgs("c1", 2).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.OrderIndexExists(context.Background(), "c1", 2)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseOrderIndexAbsentIsNotAnError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("SELECT 1 FROM course_sections").
		WithArgs("c1", 7).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.OrderIndexExists(context.Background(), "c1", 7)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseMaxOrderIndexEmptyCourse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(-1))

	max, err := repo.MaxOrderIndex(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, -1, max)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseUpdateSectionLocksSingleTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	entries := []models.UnlockScheduleEntry{
		{SectionID: "s1", Locked: false, UnlockAfterDays: 0},
		{SectionID: "s2", Locked: true, UnlockAfterDays: 2},
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE course_sections SET locked").
		WithArgs("s1", "c1", false, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE course_sections SET locked").
		WithArgs("s2", "c1", true, 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateSectionLocks(context.Background(), "c1", entries)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseUpdateSectionLocksRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE course_sections SET locked").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.UpdateSectionLocks(context.Background(), "c1", []models.UnlockScheduleEntry{{SectionID: "s1"}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
