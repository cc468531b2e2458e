package dto

import "time"

// CreatePatternRequest defines a recurring booking series. Exactly the
// fields required by the chosen recurrence type must be supplied;
// anything else is rejected before generation begins.
type CreatePatternRequest struct {
	Title            string `json:"title" validate:"required"`
	RecurrenceType   string `json:"recurrenceType" validate:"required,oneof=DAILY WEEKLY BIWEEKLY MONTHLY CUSTOM"`
	StartDate        string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate          string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	DateLimit        string `json:"dateLimit" validate:"omitempty,datetime=2006-01-02"`
	StartTime        string `json:"startTime" validate:"required,datetime=15:04"`
	DurationMinutes  int    `json:"durationMinutes" validate:"required,min=1"`
	IntervalDays     int    `json:"intervalDays" validate:"omitempty,min=1"`
	DaysOfWeek       []int  `json:"daysOfWeek" validate:"omitempty,dive,min=0,max=6"`
	DayOfMonth       int    `json:"dayOfMonth" validate:"omitempty,min=1,max=31"`
	MonthlyDayPolicy string `json:"monthlyDayPolicy" validate:"omitempty,oneof=CLAMP SKIP"`
	OccurrenceLimit  int    `json:"occurrenceLimit" validate:"omitempty,min=1"`
	Timezone         string `json:"timezone" validate:"required"`
}

// GenerateOccurrencesRequest asks for the next batch of occurrences.
type GenerateOccurrencesRequest struct {
	Count int `json:"count" validate:"omitempty,min=1"`
}

// GenerateOccurrencesResponse returns the freshly generated batch.
type GenerateOccurrencesResponse struct {
	PatternID string           `json:"patternId"`
	Generated int              `json:"generated"`
	Total     int              `json:"total"`
	Items     []OccurrenceItem `json:"items"`
}

// OccurrenceItem is one concrete booking slot.
type OccurrenceItem struct {
	ID            string    `json:"id,omitempty"`
	SequenceIndex int       `json:"sequenceIndex"`
	StartAt       time.Time `json:"startAt"`
	EndAt         time.Time `json:"endAt"`
	Status        string    `json:"status,omitempty"`
}

// CancelFutureRequest cancels all occurrences on or after FromDate.
type CancelFutureRequest struct {
	FromDate string `json:"fromDate" validate:"required,datetime=2006-01-02"`
}

// CancelFutureResponse reports the number of cancelled occurrences.
type CancelFutureResponse struct {
	PatternID string `json:"patternId"`
	Cancelled int    `json:"cancelled"`
}

// RescheduleRequest shifts pending occurrences to a new effective start.
type RescheduleRequest struct {
	NewStartDate string `json:"newStartDate" validate:"required,datetime=2006-01-02"`
	FromDate     string `json:"fromDate" validate:"required,datetime=2006-01-02"`
}

// RescheduleResponse reports how many occurrences were shifted.
type RescheduleResponse struct {
	PatternID   string `json:"patternId"`
	Rescheduled int    `json:"rescheduled"`
}
