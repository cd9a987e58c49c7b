// Package analytics derives charting aggregates from historical timer
// sessions. The database narrows rows to the caller's window; the
// shaping here (zero-fill, bucketing, classification, streaks) is pure
// so the result contracts hold regardless of data sparsity: a window of
// N days always yields N day entries, the hour histogram always has its
// seven bands, and all three outcome categories are always present.
package analytics

import (
	"time"

	"github.com/zeroscroll/zeroscroll/internal/models"
)

const dayFormat = "2006-01-02"

// All calendar math is anchored to UTC so a session lands on the same
// chart day no matter which server renders it.

type DayTotal struct {
	Date    string  `json:"date"`
	Minutes float64 `json:"minutes"`
}

type HourBucket struct {
	Label   string  `json:"label"`
	Minutes float64 `json:"minutes"`
}

type OutcomeCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

const (
	OutcomeCompleted  = "Completed"
	OutcomeEndedEarly = "Ended Early"
	OutcomeDiscarded  = "Discarded"
)

// hourBands are the seven fixed histogram bands, contiguous and
// non-overlapping over the full day. Until holds the first hour of the
// next band.
var hourBands = []struct {
	Label string
	Until int
}{
	{"12-6AM", 6},
	{"6-9AM", 9},
	{"9-12PM", 12},
	{"12-3PM", 15},
	{"3-6PM", 18},
	{"6-9PM", 21},
	{"9PM-12AM", 24},
}

// WindowStart returns UTC midnight of the first day of a trailing
// window of `days` calendar days ending today (inclusive).
func WindowStart(now time.Time, days int) time.Time {
	day := now.UTC().Truncate(24 * time.Hour)
	return day.AddDate(0, 0, -(days - 1))
}

func qualifying(s models.Session) bool {
	return s.CountsTowardStats
}

func minutes(s models.Session) float64 {
	if s.ActualDuration == nil {
		return 0
	}
	return *s.ActualDuration
}

// FocusConsistency groups qualifying sessions' actual minutes by the
// UTC calendar day of their start time. The result has exactly `days`
// entries in ascending date order, zero-filled.
func FocusConsistency(sessions []models.Session, now time.Time, days int) []DayTotal {
	byDay := make(map[string]float64)

	for _, s := range sessions {
		if !qualifying(s) {
			continue
		}
		byDay[s.StartTime.UTC().Format(dayFormat)] += minutes(s)
	}

	start := WindowStart(now, days)
	result := make([]DayTotal, 0, days)

	for i := 0; i < days; i++ {
		key := start.AddDate(0, 0, i).Format(dayFormat)
		result = append(result, DayTotal{Date: key, Minutes: byDay[key]})
	}

	return result
}

// FocusHours sums qualifying sessions' actual minutes into the seven
// fixed time-of-day bands, keyed by the UTC hour of the start time. All
// seven buckets are always present, in band order.
func FocusHours(sessions []models.Session) []HourBucket {
	totals := make([]float64, len(hourBands))

	for _, s := range sessions {
		if !qualifying(s) {
			continue
		}
		totals[bandIndex(s.StartTime.UTC().Hour())] += minutes(s)
	}

	result := make([]HourBucket, len(hourBands))
	for i, band := range hourBands {
		result[i] = HourBucket{Label: band.Label, Minutes: totals[i]}
	}

	return result
}

func bandIndex(hour int) int {
	for i, band := range hourBands {
		if hour < band.Until {
			return i
		}
	}
	return len(hourBands) - 1
}

// Outcome classifies a session into exactly one of the three mutually
// exclusive outcome categories. Anything that is neither a completed
// nor an ended-early qualifying session defaults to Discarded.
func Outcome(s models.Session) string {
	switch {
	case s.Completed && s.CountsTowardStats:
		return OutcomeCompleted
	case !s.Completed && s.CountsTowardStats:
		return OutcomeEndedEarly
	default:
		return OutcomeDiscarded
	}
}

// SessionOutcomes counts every session in the window (discarded ones
// included) per outcome category. All three categories are always
// present, in a fixed order, so the counts sum to len(sessions).
func SessionOutcomes(sessions []models.Session) []OutcomeCount {
	counts := map[string]int{}

	for _, s := range sessions {
		counts[Outcome(s)]++
	}

	return []OutcomeCount{
		{Label: OutcomeCompleted, Count: counts[OutcomeCompleted]},
		{Label: OutcomeEndedEarly, Count: counts[OutcomeEndedEarly]},
		{Label: OutcomeDiscarded, Count: counts[OutcomeDiscarded]},
	}
}

// CurrentStreak counts consecutive UTC calendar days with at least one
// qualifying session, walking backward from today. The walk stops at
// the first gap; a gap on today itself yields 0, since today simply has
// not been counted yet.
func CurrentStreak(startTimes []time.Time, now time.Time) int {
	active := make(map[string]bool, len(startTimes))
	for _, t := range startTimes {
		active[t.UTC().Format(dayFormat)] = true
	}

	streak := 0
	day := now.UTC().Truncate(24 * time.Hour)

	for active[day.Format(dayFormat)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}

	return streak
}
