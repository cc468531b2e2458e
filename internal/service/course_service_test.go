package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/marketplace-api/internal/dto"
	"github.com/vendora/marketplace-api/internal/models"
	appErrors "github.com/vendora/marketplace-api/pkg/errors"
)

type mockCourseRepo struct {
	courses       map[string]*models.Course
	sections      []models.CourseSection
	indexExists   bool
	maxOrderIndex int
	dripUpdated   *models.DripConfig
	lockedEntries []models.UnlockScheduleEntry
	createdSect   *models.CourseSection
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	course.ID = "c1"
	return nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) List(ctx context.Context, sellerID string, page, pageSize int) ([]models.Course, int, error) {
	var out []models.Course
	for _, c := range m.courses {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockCourseRepo) UpdateDrip(ctx context.Context, id string, cfg models.DripConfig) error {
	m.dripUpdated = &cfg
	return nil
}

func (m *mockCourseRepo) CreateSection(ctx context.Context, section *models.CourseSection) error {
	section.ID = "s-new"
	m.createdSect = section
	return nil
}

func (m *mockCourseRepo) ListSections(ctx context.Context, courseID string) ([]models.CourseSection, error) {
	return m.sections, nil
}

func (m *mockCourseRepo) OrderIndexExists(ctx context.Context, courseID string, orderIndex int) (bool, error) {
	return m.indexExists, nil
}

func (m *mockCourseRepo) MaxOrderIndex(ctx context.Context, courseID string) (int, error) {
	return m.maxOrderIndex, nil
}

func (m *mockCourseRepo) UpdateSectionLocks(ctx context.Context, courseID string, entries []models.UnlockScheduleEntry) error {
	m.lockedEntries = entries
	return nil
}

type mockEnrollmentRepo struct {
	enrollments map[string]*models.Enrollment
	active      bool
	created     *models.Enrollment
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.ID = "e1"
	m.created = enrollment
	return nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		copy := *e
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ExistsActive(ctx context.Context, courseID, userID string) (bool, error) {
	return m.active, nil
}

func dripCourse() *models.Course {
	return &models.Course{
		ID:           "c1",
		SellerID:     "seller-1",
		Title:        "Go from scratch",
		DripEnabled:  true,
		DripCadence:  models.DripCadenceDaily,
		DripInterval: 2,
		Active:       true,
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCourseServiceCreateStartsWithoutDrip(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := NewCourseService(repo, &mockEnrollmentRepo{}, nil, 0, nil, nil)

	course, err := svc.Create(context.Background(), "seller-1", dto.CreateCourseRequest{Title: "Intro"})
	require.NoError(t, err)
	assert.False(t, course.DripEnabled)
	assert.Equal(t, models.DripCadenceNone, course.DripCadence)
	assert.True(t, course.Active)
}

func TestCourseServiceUpdateDrip(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]*models.Course{"c1": dripCourse()}}
	svc := NewCourseService(repo, &mockEnrollmentRepo{}, nil, 0, nil, nil)

	course, err := svc.UpdateDrip(context.Background(), "c1", "seller-1", dto.UpdateDripConfigRequest{
		Enabled:       true,
		Cadence:       "WEEKLY",
		IntervalCount: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DripCadenceWeekly, course.DripCadence)
	require.NotNil(t, repo.dripUpdated)
	assert.True(t, repo.dripUpdated.Enabled)
}

func TestCourseServiceUpdateDripRequiresInterval(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]*models.Course{"c1": dripCourse()}}
	svc := NewCourseService(repo, &mockEnrollmentRepo{}, nil, 0, nil, nil)

	_, err := svc.UpdateDrip(context.Background(), "c1", "seller-1", dto.UpdateDripConfigRequest{
		Enabled: true,
		Cadence: "DAILY",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceUpdateDripForbiddenForOtherSeller(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]*models.Course{"c1": dripCourse()}}
	svc := NewCourseService(repo, &mockEnrollmentRepo{}, nil, 0, nil, nil)

	_, err := svc.UpdateDrip(context.Background(), "c1", "seller-2", dto.UpdateDripConfigRequest{
		Enabled: false,
		Cadence: "NONE",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceAddSectionAppends(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]*models.Course{"c1": dripCourse()}, maxOrderIndex: 2}
	svc := NewCourseService(repo, &mockEnrollmentRepo{}, nil, 0, nil, nil)

	section, err := svc.AddSection(context.Background(), "c1", "seller-1", dto.CreateSectionRequest{Title: "Chapter 4"})
	require.NoError(t, err)
	assert.Equal(t, 3, section.OrderIndex)
	assert.True(t, section.Locked)
}

func TestCourseServiceAddSectionExplicitIndexConflict(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]*models.Course{"c1": dripCourse()}, indexExists: true}
	svc := NewCourseService(repo, &mockEnrollmentRepo{}, nil, 0, nil, nil)

	idx := 1
	_, err := svc.AddSection(context.Background(), "c1", "seller-1", dto.CreateSectionRequest{Title: "Dup", OrderIndex: &idx})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceAddSectionFirstSectionUnlocked(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]*models.Course{"c1": dripCourse()}, maxOrderIndex: -1}
	svc := NewCourseService(repo, &mockEnrollmentRepo{}, nil, 0, nil, nil)

	section, err := svc.AddSection(context.Background(), "c1", "seller-1", dto.CreateSectionRequest{Title: "Chapter 1"})
	require.NoError(t, err)
	assert.Equal(t, 0, section.OrderIndex)
	assert.False(t, section.Locked)
}

func TestCourseServiceEnroll(t *testing.T) {
	joined := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	repo := &mockCourseRepo{courses: map[string]*models.Course{"c1": dripCourse()}}
	enrollments := &mockEnrollmentRepo{}
	svc := NewCourseService(repo, enrollments, nil, 0, nil, nil).WithClock(fixedClock(joined))

	enrollment, err := svc.Enroll(context.Background(), "c1", dto.EnrollRequest{UserID: "buyer-1"})
	require.NoError(t, err)
	assert.Equal(t, joined, enrollment.JoinedAt)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
}

func TestCourseServiceEnrollTwiceConflicts(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]*models.Course{"c1": dripCourse()}}
	svc := NewCourseService(repo, &mockEnrollmentRepo{active: true}, nil, 0, nil, nil)

	_, err := svc.Enroll(context.Background(), "c1", dto.EnrollRequest{UserID: "buyer-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceEnrollInactiveCourse(t *testing.T) {
	course := dripCourse()
	course.Active = false
	repo := &mockCourseRepo{courses: map[string]*models.Course{"c1": course}}
	svc := NewCourseService(repo, &mockEnrollmentRepo{}, nil, 0, nil, nil)

	_, err := svc.Enroll(context.Background(), "c1", dto.EnrollRequest{UserID: "buyer-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceScheduleAnchoredAtEnrollment(t *testing.T) {
	joined := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	repo := &mockCourseRepo{
		courses: map[string]*models.Course{"c1": dripCourse()},
		sections: []models.CourseSection{
			{ID: "s1", CourseID: "c1", Title: "Basics", OrderIndex: 0},
			{ID: "s2", CourseID: "c1", Title: "Structs", OrderIndex: 1},
		},
	}
	enrollments := &mockEnrollmentRepo{enrollments: map[string]*models.Enrollment{
		"e1": {ID: "e1", CourseID: "c1", UserID: "buyer-1", JoinedAt: joined},
	}}
	svc := NewCourseService(repo, enrollments, nil, 0, nil, nil)

	resp, cached, err := svc.Schedule(context.Background(), "c1", "e1")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, joined, resp.AnchoredAt)
	assert.True(t, resp.DripEnabled)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "Basics", resp.Entries[0].Title)
	assert.False(t, resp.Entries[0].Locked)
	assert.True(t, resp.Entries[1].Locked)
	assert.Equal(t, 4, resp.Entries[1].UnlockAfterDays)
}

func TestCourseServiceScheduleRejectsForeignEnrollment(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]*models.Course{"c1": dripCourse()}}
	enrollments := &mockEnrollmentRepo{enrollments: map[string]*models.Enrollment{
		"e1": {ID: "e1", CourseID: "other-course", UserID: "buyer-1"},
	}}
	svc := NewCourseService(repo, enrollments, nil, 0, nil, nil)

	_, _, err := svc.Schedule(context.Background(), "c1", "e1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceRefreshLocks(t *testing.T) {
	now := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	repo := &mockCourseRepo{
		courses: map[string]*models.Course{"c1": dripCourse()},
		sections: []models.CourseSection{
			{ID: "s1", CourseID: "c1", OrderIndex: 0},
			{ID: "s2", CourseID: "c1", OrderIndex: 1},
			{ID: "s3", CourseID: "c1", OrderIndex: 2},
		},
	}
	svc := NewCourseService(repo, &mockEnrollmentRepo{}, nil, 0, nil, nil).WithClock(fixedClock(now))

	resp, err := svc.RefreshLocks(context.Background(), "c1", "seller-1")
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Updated)
	require.Len(t, repo.lockedEntries, 3)
	assert.False(t, repo.lockedEntries[0].Locked)
	assert.True(t, repo.lockedEntries[2].Locked)
}
