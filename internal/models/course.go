package models

import "time"

// DripCadence is the unit of time between successive section unlocks.
type DripCadence string

const (
	DripCadenceNone   DripCadence = "NONE"
	DripCadenceDaily  DripCadence = "DAILY"
	DripCadenceWeekly DripCadence = "WEEKLY"
)

// Course is a sellable course with optional drip-content release.
type Course struct {
	ID            string      `db:"id" json:"id"`
	SellerID      string      `db:"seller_id" json:"seller_id"`
	Title         string      `db:"title" json:"title"`
	Description   string      `db:"description" json:"description"`
	DripEnabled   bool        `db:"drip_enabled" json:"drip_enabled"`
	DripCadence   DripCadence `db:"drip_cadence" json:"drip_cadence"`
	DripInterval  int         `db:"drip_interval" json:"drip_interval"`
	Active        bool        `db:"active" json:"active"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// DripConfig returns the course's drip settings as a standalone value.
func (c Course) DripConfig() DripConfig {
	return DripConfig{
		Enabled:       c.DripEnabled,
		Cadence:       c.DripCadence,
		IntervalCount: c.DripInterval,
	}
}

// DripConfig captures the release cadence for course sections.
type DripConfig struct {
	Enabled       bool        `json:"enabled"`
	Cadence       DripCadence `json:"cadence"`
	IntervalCount int         `json:"interval_count"`
}

// CourseSection is one unit of course content released in order.
type CourseSection struct {
	ID              string    `db:"id" json:"id"`
	CourseID        string    `db:"course_id" json:"course_id"`
	Title           string    `db:"title" json:"title"`
	OrderIndex      int       `db:"order_index" json:"order_index"`
	Locked          bool      `db:"locked" json:"locked"`
	UnlockAfterDays int       `db:"unlock_after_days" json:"unlock_after_days"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// UnlockScheduleEntry is the computed release slot for one section.
// It is derived on demand and never persisted as-is; callers write the
// locked/unlock_after_days fields back per section when refreshing.
type UnlockScheduleEntry struct {
	SectionID       string     `json:"section_id"`
	OrderIndex      int        `json:"order_index"`
	UnlockAfterDays int        `json:"unlock_after_days"`
	UnlockDate      *time.Time `json:"unlock_date,omitempty"`
	Locked          bool       `json:"locked"`
}

// EnrollmentStatus represents the lifecycle of a course enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

// Enrollment registers a learner on a course; JoinedAt anchors the
// drip-unlock schedule for that learner.
type Enrollment struct {
	ID       string           `db:"id" json:"id"`
	CourseID string           `db:"course_id" json:"course_id"`
	UserID   string           `db:"user_id" json:"user_id"`
	JoinedAt time.Time        `db:"joined_at" json:"joined_at"`
	Status   EnrollmentStatus `db:"status" json:"status"`
}
