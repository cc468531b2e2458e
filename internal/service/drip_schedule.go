package service

import (
	"sort"
	"time"

	"github.com/vendora/marketplace-api/internal/models"
)

// ComputeUnlockSchedule derives the release slot for every section of a
// course. It is a pure function of the drip config, the section list and
// the anchor instant; callers persist the resulting locked flags.
//
// When drip is disabled (or cadence is NONE) every section is available
// immediately. Otherwise sections are ordered by OrderIndex and unlock
// one cadence step at a time. The section at OrderIndex 0 is always
// unlocked so a learner can start the moment they enroll, whatever its
// computed offset says.
func ComputeUnlockSchedule(cfg models.DripConfig, sections []models.CourseSection, now time.Time) []models.UnlockScheduleEntry {
	entries := make([]models.UnlockScheduleEntry, 0, len(sections))

	if !cfg.Enabled || cfg.Cadence == models.DripCadenceNone {
		for _, section := range sections {
			entries = append(entries, models.UnlockScheduleEntry{
				SectionID:       section.ID,
				OrderIndex:      section.OrderIndex,
				UnlockAfterDays: 0,
				UnlockDate:      nil,
				Locked:          false,
			})
		}
		return entries
	}

	ordered := make([]models.CourseSection, len(sections))
	copy(ordered, sections)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})

	// An interval below 1 would collapse the whole schedule onto day
	// zero, contradicting the cadence the seller asked for. Construction
	// rejects it; this clamp only guards callers that bypass validation.
	interval := cfg.IntervalCount
	if interval < 1 {
		interval = 1
	}

	anchor := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for i, section := range ordered {
		days := interval * (i + 1)
		if cfg.Cadence == models.DripCadenceWeekly {
			days = interval * 7 * (i + 1)
		}
		unlockDate := anchor.AddDate(0, 0, days)

		entries = append(entries, models.UnlockScheduleEntry{
			SectionID:       section.ID,
			OrderIndex:      section.OrderIndex,
			UnlockAfterDays: days,
			UnlockDate:      &unlockDate,
			Locked:          section.OrderIndex > 0,
		})
	}
	return entries
}
