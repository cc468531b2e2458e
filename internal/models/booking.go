package models

import (
	"time"

	"github.com/lib/pq"
)

// RecurrenceType enumerates the supported booking cadences.
type RecurrenceType string

const (
	RecurrenceDaily    RecurrenceType = "DAILY"
	RecurrenceWeekly   RecurrenceType = "WEEKLY"
	RecurrenceBiweekly RecurrenceType = "BIWEEKLY"
	RecurrenceMonthly  RecurrenceType = "MONTHLY"
	RecurrenceCustom   RecurrenceType = "CUSTOM"
)

// MonthlyDayPolicy decides what happens when DayOfMonth does not exist in
// a month (e.g. day 31 in February): clamp to the month's last day, or
// skip the month entirely.
type MonthlyDayPolicy string

const (
	MonthlyDayClamp MonthlyDayPolicy = "CLAMP"
	MonthlyDaySkip  MonthlyDayPolicy = "SKIP"
)

// BookingPattern defines a recurring booking series. The recurrence type
// is immutable after creation; changing cadence means creating a new
// pattern and cancelling the old one's future occurrences.
type BookingPattern struct {
	ID                 string           `db:"id" json:"id"`
	SellerID           string           `db:"seller_id" json:"seller_id"`
	Title              string           `db:"title" json:"title"`
	RecurrenceType     RecurrenceType   `db:"recurrence_type" json:"recurrence_type"`
	StartDate          time.Time        `db:"start_date" json:"start_date"`
	EndDate            *time.Time       `db:"end_date" json:"end_date,omitempty"`
	DateLimit          *time.Time       `db:"date_limit" json:"date_limit,omitempty"`
	StartTime          string           `db:"start_time" json:"start_time"`
	DurationMinutes    int              `db:"duration_minutes" json:"duration_minutes"`
	IntervalDays       int              `db:"interval_days" json:"interval_days,omitempty"`
	DaysOfWeek         pq.Int64Array    `db:"days_of_week" json:"days_of_week,omitempty"`
	DayOfMonth         int              `db:"day_of_month" json:"day_of_month,omitempty"`
	MonthlyDayPolicy   MonthlyDayPolicy `db:"monthly_day_policy" json:"monthly_day_policy,omitempty"`
	OccurrenceLimit    int              `db:"occurrence_limit" json:"occurrence_limit,omitempty"`
	Timezone           string           `db:"timezone" json:"timezone"`
	CreatedOccurrences int              `db:"created_occurrences" json:"created_occurrences"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// OccurrenceStatus tracks the lifecycle of a generated occurrence.
type OccurrenceStatus string

const (
	OccurrenceStatusScheduled   OccurrenceStatus = "SCHEDULED"
	OccurrenceStatusCancelled   OccurrenceStatus = "CANCELLED"
	OccurrenceStatusRescheduled OccurrenceStatus = "RESCHEDULED"
)

// BookingOccurrence is one concrete slot generated from a pattern.
// (pattern_id, sequence_index) is unique so a double-generation race
// fails at write time instead of producing duplicate bookings.
type BookingOccurrence struct {
	ID            string           `db:"id" json:"id"`
	PatternID     string           `db:"pattern_id" json:"pattern_id"`
	SequenceIndex int              `db:"sequence_index" json:"sequence_index"`
	StartAt       time.Time        `db:"start_at" json:"start_at"`
	EndAt         time.Time        `db:"end_at" json:"end_at"`
	Status        OccurrenceStatus `db:"status" json:"status"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}
