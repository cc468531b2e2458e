package dto

import "time"

// CreateCourseRequest registers a new course for a seller.
type CreateCourseRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

// UpdateDripConfigRequest replaces a course's drip-release settings.
// Cadence NONE means every section is available immediately.
type UpdateDripConfigRequest struct {
	Enabled       bool   `json:"enabled"`
	Cadence       string `json:"cadence" validate:"required,oneof=NONE DAILY WEEKLY"`
	IntervalCount int    `json:"intervalCount" validate:"omitempty,min=1"`
}

// CreateSectionRequest appends a section to a course.
type CreateSectionRequest struct {
	Title      string `json:"title" validate:"required"`
	OrderIndex *int   `json:"orderIndex" validate:"omitempty,min=0"`
}

// EnrollRequest registers a learner on a course.
type EnrollRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// ScheduleQuery selects whose unlock schedule to compute.
type ScheduleQuery struct {
	EnrollmentID string `form:"enrollmentId" json:"enrollmentId"`
}

// UnlockScheduleResponse returns the computed release plan for a course.
type UnlockScheduleResponse struct {
	CourseID    string               `json:"courseId"`
	AnchoredAt  time.Time            `json:"anchoredAt"`
	DripEnabled bool                 `json:"dripEnabled"`
	Entries     []UnlockScheduleItem `json:"entries"`
}

// UnlockScheduleItem is one section's computed unlock slot.
type UnlockScheduleItem struct {
	SectionID       string     `json:"sectionId"`
	Title           string     `json:"title"`
	OrderIndex      int        `json:"orderIndex"`
	UnlockAfterDays int        `json:"unlockAfterDays"`
	UnlockDate      *time.Time `json:"unlockDate,omitempty"`
	Locked          bool       `json:"locked"`
}

// RefreshLocksResponse reports how many sections were re-persisted.
type RefreshLocksResponse struct {
	CourseID string `json:"courseId"`
	Updated  int    `json:"updated"`
}
