package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/marketplace-api/internal/models"
)

func basePattern(rt models.RecurrenceType) models.BookingPattern {
	return models.BookingPattern{
		ID:              "p1",
		RecurrenceType:  rt,
		StartDate:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		StartTime:       "09:30",
		DurationMinutes: 60,
		Timezone:        "UTC",
	}
}

func slotDates(slots []occurrenceSlot) []string {
	dates := make([]string, 0, len(slots))
	for _, s := range slots {
		dates = append(dates, s.StartAt.Format("2006-01-02"))
	}
	return dates
}

func TestExpandDaily(t *testing.T) {
	p := basePattern(models.RecurrenceDaily)

	slots, err := expandOccurrences(p, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01", "2025-01-02", "2025-01-03"}, slotDates(slots))

	first := slots[0]
	assert.Equal(t, 0, first.SequenceIndex)
	assert.Equal(t, 9, first.StartAt.Hour())
	assert.Equal(t, 30, first.StartAt.Minute())
	assert.Equal(t, first.StartAt.Add(time.Hour), first.EndAt)
}

func TestExpandWeeklyStartsMidWeek(t *testing.T) {
	// 2025-01-01 is a Wednesday; Monday and Wednesday are requested. The
	// first occurrence is the start date itself, then the walk wraps into
	// the following week.
	p := basePattern(models.RecurrenceWeekly)
	p.DaysOfWeek = []int64{1, 3}

	slots, err := expandOccurrences(p, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01", "2025-01-06", "2025-01-08"}, slotDates(slots))
}

func TestExpandBiweekly(t *testing.T) {
	p := basePattern(models.RecurrenceBiweekly)
	p.DaysOfWeek = []int64{3}

	slots, err := expandOccurrences(p, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01", "2025-01-15", "2025-01-29"}, slotDates(slots))
}

func TestExpandMonthlyClampsShortMonths(t *testing.T) {
	p := basePattern(models.RecurrenceMonthly)
	p.StartDate = time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	p.DayOfMonth = 31
	p.MonthlyDayPolicy = models.MonthlyDayClamp

	slots, err := expandOccurrences(p, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-31", "2025-02-28", "2025-03-31", "2025-04-30"}, slotDates(slots))
}

func TestExpandMonthlySkipsShortMonths(t *testing.T) {
	p := basePattern(models.RecurrenceMonthly)
	p.StartDate = time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	p.DayOfMonth = 31
	p.MonthlyDayPolicy = models.MonthlyDaySkip

	slots, err := expandOccurrences(p, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-31", "2025-03-31", "2025-05-31"}, slotDates(slots))
}

func TestExpandMonthlyByWeekday(t *testing.T) {
	p := basePattern(models.RecurrenceMonthly)
	p.DaysOfWeek = []int64{5}

	slots, err := expandOccurrences(p, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-03", "2025-02-07", "2025-03-07"}, slotDates(slots))
}

func TestExpandMonthlyByWeekdayStartAfterLastMatch(t *testing.T) {
	// 2025-01-30 is a Thursday and January's last Wednesday is the
	// 29th, so month indexing starts at February. Each index must land
	// in its own month; no two occurrences may share a day.
	p := basePattern(models.RecurrenceMonthly)
	p.StartDate = time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC)
	p.DaysOfWeek = []int64{3}

	slots, err := expandOccurrences(p, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-02-05", "2025-03-05", "2025-04-02"}, slotDates(slots))
}

func TestExpandMonthlySkipDeepResume(t *testing.T) {
	// Only seven months a year have a 31st, so occurrence 90 sits about
	// thirteen years out. The month walk has to reach it instead of
	// reporting the pattern exhausted.
	p := basePattern(models.RecurrenceMonthly)
	p.StartDate = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p.DayOfMonth = 31
	p.MonthlyDayPolicy = models.MonthlyDaySkip

	slots, err := expandOccurrences(p, 90, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"2037-12-31", "2038-01-31"}, slotDates(slots))
}

func TestExpandCustomInterval(t *testing.T) {
	p := basePattern(models.RecurrenceCustom)
	p.IntervalDays = 10

	slots, err := expandOccurrences(p, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01", "2025-01-11", "2025-01-21"}, slotDates(slots))
}

func TestExpandHonoursOccurrenceLimit(t *testing.T) {
	p := basePattern(models.RecurrenceDaily)
	p.OccurrenceLimit = 3

	slots, err := expandOccurrences(p, 2, 5)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 2, slots[0].SequenceIndex)
	assert.Equal(t, "2025-01-03", slots[0].StartAt.Format("2006-01-02"))
}

func TestExpandHonoursEndDate(t *testing.T) {
	p := basePattern(models.RecurrenceDaily)
	end := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	p.EndDate = &end

	slots, err := expandOccurrences(p, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01", "2025-01-02", "2025-01-03"}, slotDates(slots))
}

func TestExpandTighterOfEndDateAndDateLimit(t *testing.T) {
	p := basePattern(models.RecurrenceDaily)
	end := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	limit := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	p.EndDate = &end
	p.DateLimit = &limit

	slots, err := expandOccurrences(p, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01", "2025-01-02"}, slotDates(slots))
}

func TestExpandResumesFromCheckpoint(t *testing.T) {
	p := basePattern(models.RecurrenceWeekly)
	p.DaysOfWeek = []int64{1, 3}

	full, err := expandOccurrences(p, 0, 4)
	require.NoError(t, err)
	resumed, err := expandOccurrences(p, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, full[2:], resumed)
}

func TestExpandRespectsPatternTimezone(t *testing.T) {
	p := basePattern(models.RecurrenceDaily)
	p.Timezone = "America/New_York"

	slots, err := expandOccurrences(p, 0, 1)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "America/New_York", slots[0].StartAt.Location().String())
	assert.Equal(t, 9, slots[0].StartAt.Hour())
}

func TestExpandBiweeklyAcrossDSTChange(t *testing.T) {
	// US DST starts 2025-03-09; the fortnight parity must not shift when
	// a week is only 167 hours long.
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	p := basePattern(models.RecurrenceBiweekly)
	p.Timezone = "America/New_York"
	p.StartDate = time.Date(2025, 3, 5, 0, 0, 0, 0, loc)
	p.DaysOfWeek = []int64{3}

	slots, err := expandOccurrences(p, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-05", "2025-03-19", "2025-04-02"}, slotDates(slots))
}

func TestExpandValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.BookingPattern)
	}{
		{"weekly without days", func(p *models.BookingPattern) {
			p.RecurrenceType = models.RecurrenceWeekly
		}},
		{"monthly without day or weekdays", func(p *models.BookingPattern) {
			p.RecurrenceType = models.RecurrenceMonthly
		}},
		{"monthly day out of range", func(p *models.BookingPattern) {
			p.RecurrenceType = models.RecurrenceMonthly
			p.DayOfMonth = 32
		}},
		{"custom without interval", func(p *models.BookingPattern) {
			p.RecurrenceType = models.RecurrenceCustom
		}},
		{"zero duration", func(p *models.BookingPattern) {
			p.DurationMinutes = 0
		}},
		{"unknown recurrence", func(p *models.BookingPattern) {
			p.RecurrenceType = "YEARLY"
		}},
		{"bad timezone", func(p *models.BookingPattern) {
			p.Timezone = "Mars/Olympus"
		}},
		{"bad start time", func(p *models.BookingPattern) {
			p.StartTime = "9h30"
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := basePattern(models.RecurrenceDaily)
			tc.mutate(&p)
			_, err := expandOccurrences(p, 0, 3)
			assert.Error(t, err)
		})
	}
}

func TestExpandRejectsBadWindow(t *testing.T) {
	p := basePattern(models.RecurrenceDaily)

	_, err := expandOccurrences(p, -1, 3)
	assert.Error(t, err)
	_, err = expandOccurrences(p, 0, 0)
	assert.Error(t, err)
}
