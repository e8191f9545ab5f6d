package TaskEngine

import (
	"time"

	"Firewatch/Models"
)

// Occurrence is one candidate due instant for one target asset. AssetID 0
// means the check applies org-wide rather than to a specific asset.
type Occurrence struct {
	DueAt   time.Time
	AssetID uint
}

// Expand turns a schedule into the ordered sequence of due occurrences that
// fall on or after both the schedule's start date and today, and strictly
// before horizonDays from now (the window end is exclusive, so a weekly
// schedule starting today with a 14-day horizon yields exactly two
// occurrences). The exclusive end is intentional, not an off-by-one: an
// inclusive end would admit the boundary day twice across consecutive
// nightly runs. Recurrence is date-based: every occurrence is normalized
// to the start of its calendar day.
//
// Monthly, quarterly and annual schedules anchor to the start date's
// day-of-month and clamp to the last day of shorter months, so a schedule
// anchored to the 31st fires on Feb 28/29 rather than skipping February.
// Weekly schedules stay anchored to the start date's weekday.
//
// An inactive schedule, a start date beyond the horizon, or a non-positive
// horizon all yield an empty sequence. Expansion itself has no side
// effects; it is purely a function of schedule, horizon and "now".
func Expand(schedule Models.CheckSchedule, now time.Time, horizonDays int) ([]Occurrence, error) {
	if _, ok := Models.RRuleForFrequency(schedule.Frequency); !ok {
		return nil, &ValidationError{ScheduleID: schedule.ID, Field: "frequency", Reason: "unknown value " + schedule.Frequency}
	}
	if schedule.StartDate.IsZero() {
		return nil, &ValidationError{ScheduleID: schedule.ID, Field: "start_date", Reason: "missing"}
	}
	assetIDs, err := schedule.TargetAssets()
	if err != nil {
		return nil, &ValidationError{ScheduleID: schedule.ID, Field: "asset_ids", Reason: err.Error()}
	}

	if !schedule.Active || horizonDays <= 0 {
		return nil, nil
	}

	start := StartOfDay(schedule.StartDate)
	windowStart := StartOfDay(now)
	if start.After(windowStart) {
		windowStart = start
	}
	windowEnd := StartOfDay(now).AddDate(0, 0, horizonDays)

	var dueDays []time.Time
	for n := 0; ; n++ {
		occ := occurrenceAt(start, schedule.Frequency, n)
		if !occ.Before(windowEnd) {
			break
		}
		if occ.Before(windowStart) {
			continue
		}
		dueDays = append(dueDays, occ)
	}

	var occurrences []Occurrence
	for _, day := range dueDays {
		if len(assetIDs) == 0 {
			occurrences = append(occurrences, Occurrence{DueAt: day})
			continue
		}
		for _, assetID := range assetIDs {
			occurrences = append(occurrences, Occurrence{DueAt: day, AssetID: assetID})
		}
	}
	return occurrences, nil
}

// occurrenceAt computes the n-th occurrence from the anchor date. Month
// arithmetic always restarts from the anchor so a day-31 schedule regains
// its anchor day after passing through a short month.
func occurrenceAt(start time.Time, frequency string, n int) time.Time {
	switch frequency {
	case Models.FrequencyDaily:
		return start.AddDate(0, 0, n)
	case Models.FrequencyWeekly:
		return start.AddDate(0, 0, 7*n)
	case Models.FrequencyMonthly:
		return addMonthsClamped(start, n)
	case Models.FrequencyQuarterly:
		return addMonthsClamped(start, 3*n)
	default: // annual, validated before expansion
		return addMonthsClamped(start, 12*n)
	}
}

// addMonthsClamped advances by whole months keeping the anchor day-of-month,
// clamped to the last day of the target month. time.AddDate would normalize
// Jan 31 + 1 month into Mar 2/3, which is exactly the bug this avoids.
func addMonthsClamped(t time.Time, months int) time.Time {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	target := firstOfMonth.AddDate(0, months, 0)

	day := t.Day()
	if last := daysInMonth(target.Year(), target.Month()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartOfDay truncates an instant to midnight in its own location. All due
// dates and calendar comparisons in the engine work at day granularity.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two instants fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
