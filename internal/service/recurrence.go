package service

import (
	"fmt"
	"time"

	"github.com/vendora/marketplace-api/internal/models"
	appErrors "github.com/vendora/marketplace-api/pkg/errors"
)

// occurrenceSlot is a generated-but-not-yet-persisted booking slot.
type occurrenceSlot struct {
	SequenceIndex int
	StartAt       time.Time
	EndAt         time.Time
}

// expandOccurrences generates up to requestCount new occurrences for the
// pattern, starting at sequence index alreadyCreated. The date limit and
// the occurrence limit are hard ceilings: the batch stops early rather
// than exceed either. Calling twice with the same arguments yields the
// same slots, which makes retries after a partial persistence failure
// safe.
func expandOccurrences(p models.BookingPattern, alreadyCreated, requestCount int) ([]occurrenceSlot, error) {
	if err := validatePattern(p); err != nil {
		return nil, err
	}
	if alreadyCreated < 0 || requestCount < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid generation window")
	}

	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown timezone %q", p.Timezone))
	}
	startHour, startMinute, err := parseClock(p.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startTime must be HH:MM")
	}

	start := dateIn(p.StartDate, loc)
	cutoff := dateCeiling(p, loc)

	slots := make([]occurrenceSlot, 0, requestCount)
	for k := alreadyCreated; ; k++ {
		if p.OccurrenceLimit > 0 && k >= p.OccurrenceLimit {
			break
		}

		day, ok := occurrenceDate(p, start, k)
		if !ok {
			break
		}
		if cutoff != nil && day.After(*cutoff) {
			break
		}

		startAt := time.Date(day.Year(), day.Month(), day.Day(), startHour, startMinute, 0, 0, loc)
		slots = append(slots, occurrenceSlot{
			SequenceIndex: k,
			StartAt:       startAt,
			EndAt:         startAt.Add(time.Duration(p.DurationMinutes) * time.Minute),
		})
		if len(slots) == requestCount {
			break
		}
	}
	return slots, nil
}

// validatePattern rejects shapes that could never produce an occurrence.
// "No occurrences possible" is an error the caller can show the user,
// not a silent empty result.
func validatePattern(p models.BookingPattern) error {
	if p.DurationMinutes < 1 {
		return appErrors.Clone(appErrors.ErrValidation, "durationMinutes must be at least 1")
	}
	switch p.RecurrenceType {
	case models.RecurrenceDaily:
	case models.RecurrenceWeekly, models.RecurrenceBiweekly:
		if len(p.DaysOfWeek) == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "select at least one day of week")
		}
	case models.RecurrenceMonthly:
		if len(p.DaysOfWeek) == 0 && (p.DayOfMonth < 1 || p.DayOfMonth > 31) {
			return appErrors.Clone(appErrors.ErrValidation, "monthly pattern needs dayOfMonth or daysOfWeek")
		}
	case models.RecurrenceCustom:
		if p.IntervalDays < 1 {
			return appErrors.Clone(appErrors.ErrValidation, "custom pattern needs intervalDays of at least 1")
		}
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown recurrence type %q", p.RecurrenceType))
	}
	return nil
}

// occurrenceDate resolves the calendar day of the k-th occurrence
// (zero-based) relative to the pattern start. The boolean is false when
// the cadence can produce no day for that index.
func occurrenceDate(p models.BookingPattern, start time.Time, k int) (time.Time, bool) {
	switch p.RecurrenceType {
	case models.RecurrenceDaily:
		return start.AddDate(0, 0, k), true
	case models.RecurrenceCustom:
		return start.AddDate(0, 0, k*p.IntervalDays), true
	case models.RecurrenceWeekly:
		return nthMatchingDay(start, p.DaysOfWeek, k, false)
	case models.RecurrenceBiweekly:
		return nthMatchingDay(start, p.DaysOfWeek, k, true)
	case models.RecurrenceMonthly:
		if len(p.DaysOfWeek) > 0 {
			return nthMonthlyWeekday(start, p.DaysOfWeek, k)
		}
		return nthMonthlyDay(start, p.DayOfMonth, p.MonthlyDayPolicy, k)
	}
	return time.Time{}, false
}

// nthMatchingDay walks forward from start and returns the k-th calendar
// day whose weekday is in days. For the biweekly cadence only days in
// even-numbered week offsets count, with weeks aligned to the week
// containing start.
func nthMatchingDay(start time.Time, days []int64, k int, everyOtherWeek bool) (time.Time, bool) {
	wanted := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		wanted[time.Weekday(d)] = true
	}
	if len(wanted) == 0 {
		return time.Time{}, false
	}

	weekAnchor := start.AddDate(0, 0, -int(start.Weekday()))
	matched := 0
	// With at least one wanted weekday a week (or fortnight) always
	// yields a match, so the walk terminates well inside this bound.
	limit := (k + 1) * 15
	for offset := 0; offset <= limit; offset++ {
		day := start.AddDate(0, 0, offset)
		if !wanted[day.Weekday()] {
			continue
		}
		if everyOtherWeek {
			weekOffset := daysBetween(weekAnchor, day) / 7
			if weekOffset%2 != 0 {
				continue
			}
		}
		if matched == k {
			return day, true
		}
		matched++
	}
	return time.Time{}, false
}

// nthMonthlyDay returns the occurrence day for month offset lookups by
// day-of-month. Months whose target day precedes the start date do not
// count; under the SKIP policy short months do not count either.
func nthMonthlyDay(start time.Time, dayOfMonth int, policy models.MonthlyDayPolicy, k int) (time.Time, bool) {
	matched := 0
	// Under SKIP with dayOfMonth 31 only seven months a year match, so
	// the month walk must scale with k rather than use a flat margin.
	for offset := 0; offset <= (k+1)*24; offset++ {
		first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location()).AddDate(0, offset, 0)
		last := daysInMonth(first)
		day := dayOfMonth
		if day > last {
			if policy == models.MonthlyDaySkip {
				continue
			}
			day = last
		}
		candidate := time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, start.Location())
		if candidate.Before(start) {
			continue
		}
		if matched == k {
			return candidate, true
		}
		matched++
	}
	return time.Time{}, false
}

// nthMonthlyWeekday yields one occurrence per month: the first day of
// the month (on or after the start date for the first month) whose
// weekday is in days. When the start date falls after the last matching
// weekday of its own month, month indexing begins at the following
// month; the shift applies to every k so consecutive indices land in
// consecutive months.
func nthMonthlyWeekday(start time.Time, days []int64, k int) (time.Time, bool) {
	wanted := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		wanted[time.Weekday(d)] = true
	}
	if len(wanted) == 0 {
		return time.Time{}, false
	}

	shift := 0
	if _, ok := monthlyWeekdayMatch(start, wanted, 0); !ok {
		shift = 1
	}
	return monthlyWeekdayMatch(start, wanted, k+shift)
}

// monthlyWeekdayMatch returns the first wanted weekday in the month
// `offset` months after the start's month, restricted to days on or
// after start. A month contains every weekday, so only offset zero can
// come up empty.
func monthlyWeekdayMatch(start time.Time, wanted map[time.Weekday]bool, offset int) (time.Time, bool) {
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location()).AddDate(0, offset, 0)
	from := first
	if start.After(first) {
		from = start
	}
	for day := from; day.Month() == first.Month(); day = day.AddDate(0, 0, 1) {
		if wanted[day.Weekday()] {
			return day, true
		}
	}
	return time.Time{}, false
}

// dateCeiling returns the last allowed occurrence day, honouring
// whichever of dateLimit/endDate is tighter.
func dateCeiling(p models.BookingPattern, loc *time.Location) *time.Time {
	var ceiling *time.Time
	if p.EndDate != nil {
		d := dateIn(*p.EndDate, loc)
		ceiling = &d
	}
	if p.DateLimit != nil {
		d := dateIn(*p.DateLimit, loc)
		if ceiling == nil || d.Before(*ceiling) {
			ceiling = &d
		}
	}
	return ceiling
}

func dateIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// daysBetween counts calendar days, immune to DST-shortened days.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func parseClock(raw string) (int, int, error) {
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, 0, err
	}
	return parsed.Hour(), parsed.Minute(), nil
}
