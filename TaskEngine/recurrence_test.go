package TaskEngine_test

import (
	"errors"
	"testing"
	"time"

	"Firewatch/Models"
	"Firewatch/TaskEngine"
)

func dueDays(occurrences []TaskEngine.Occurrence) []time.Time {
	var days []time.Time
	for _, occ := range occurrences {
		days = append(days, occ.DueAt)
	}
	return days
}

func assertDays(t *testing.T, got []time.Time, want ...time.Time) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occurrence %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExpandWeekly(t *testing.T) {
	// Monday 2024-01-01, 14-day horizon: exactly the 1st and the 8th.
	// The window end is exclusive, so the 15th is not a candidate.
	schedule := makeSchedule(t, 1, Models.FrequencyWeekly, date(2024, time.January, 1))
	occurrences, err := TaskEngine.Expand(schedule, date(2024, time.January, 1), 14)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	assertDays(t, dueDays(occurrences),
		date(2024, time.January, 1),
		date(2024, time.January, 8),
	)
}

func TestExpandDailyStartsMidWindow(t *testing.T) {
	// Past occurrences before "now" are never candidates
	schedule := makeSchedule(t, 1, Models.FrequencyDaily, date(2024, time.January, 1))
	occurrences, err := TaskEngine.Expand(schedule, date(2024, time.January, 10), 3)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	assertDays(t, dueDays(occurrences),
		date(2024, time.January, 10),
		date(2024, time.January, 11),
		date(2024, time.January, 12),
	)
}

func TestExpandMonthlyClampsShortMonths(t *testing.T) {
	// Anchored to the 31st: February yields the last day of February and
	// March regains the 31st instead of drifting.
	schedule := makeSchedule(t, 1, Models.FrequencyMonthly, date(2024, time.January, 31))
	occurrences, err := TaskEngine.Expand(schedule, date(2024, time.January, 31), 91)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	assertDays(t, dueDays(occurrences),
		date(2024, time.January, 31),
		date(2024, time.February, 29), // leap year
		date(2024, time.March, 31),
		date(2024, time.April, 30),
	)
}

func TestExpandMonthlyClampNonLeapYear(t *testing.T) {
	schedule := makeSchedule(t, 1, Models.FrequencyMonthly, date(2023, time.January, 31))
	occurrences, err := TaskEngine.Expand(schedule, date(2023, time.January, 31), 59)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	assertDays(t, dueDays(occurrences),
		date(2023, time.January, 31),
		date(2023, time.February, 28),
	)
}

func TestExpandQuarterly(t *testing.T) {
	schedule := makeSchedule(t, 1, Models.FrequencyQuarterly, date(2024, time.January, 15))
	occurrences, err := TaskEngine.Expand(schedule, date(2024, time.January, 15), 200)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	assertDays(t, dueDays(occurrences),
		date(2024, time.January, 15),
		date(2024, time.April, 15),
		date(2024, time.July, 15),
	)
}

func TestExpandAnnualLeapDayAnchor(t *testing.T) {
	schedule := makeSchedule(t, 1, Models.FrequencyAnnual, date(2024, time.February, 29))
	occurrences, err := TaskEngine.Expand(schedule, date(2024, time.February, 29), 400)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	assertDays(t, dueDays(occurrences),
		date(2024, time.February, 29),
		date(2025, time.February, 28),
	)
}

func TestExpandAssetCrossProduct(t *testing.T) {
	schedule := makeSchedule(t, 1, Models.FrequencyDaily, date(2024, time.March, 4), 11, 12)
	occurrences, err := TaskEngine.Expand(schedule, date(2024, time.March, 4), 2)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	want := []TaskEngine.Occurrence{
		{DueAt: date(2024, time.March, 4), AssetID: 11},
		{DueAt: date(2024, time.March, 4), AssetID: 12},
		{DueAt: date(2024, time.March, 5), AssetID: 11},
		{DueAt: date(2024, time.March, 5), AssetID: 12},
	}
	if len(occurrences) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(occurrences), len(want))
	}
	for i := range want {
		if !occurrences[i].DueAt.Equal(want[i].DueAt) || occurrences[i].AssetID != want[i].AssetID {
			t.Errorf("occurrence %d: got %+v, want %+v", i, occurrences[i], want[i])
		}
	}
}

func TestExpandEmptyResults(t *testing.T) {
	now := date(2024, time.June, 1)

	inactive := makeSchedule(t, 1, Models.FrequencyDaily, now)
	inactive.Active = false

	future := makeSchedule(t, 2, Models.FrequencyDaily, date(2024, time.December, 1))

	tests := []struct {
		name     string
		schedule Models.CheckSchedule
		horizon  int
	}{
		{"inactive schedule", inactive, 30},
		{"start beyond horizon", future, 30},
		{"zero horizon", makeSchedule(t, 3, Models.FrequencyDaily, now), 0},
		{"negative horizon", makeSchedule(t, 4, Models.FrequencyDaily, now), -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occurrences, err := TaskEngine.Expand(tt.schedule, now, tt.horizon)
			if err != nil {
				t.Fatalf("expand: %v", err)
			}
			if len(occurrences) != 0 {
				t.Fatalf("got %d occurrences, want none", len(occurrences))
			}
		})
	}
}

func TestExpandValidation(t *testing.T) {
	now := date(2024, time.June, 1)

	badFrequency := makeSchedule(t, 9, "fortnightly", now)
	noStart := makeSchedule(t, 10, Models.FrequencyDaily, time.Time{})

	for _, schedule := range []Models.CheckSchedule{badFrequency, noStart} {
		_, err := TaskEngine.Expand(schedule, now, 30)
		var verr *TaskEngine.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("schedule %d: got %v, want ValidationError", schedule.ID, err)
		}
		if verr.ScheduleID != schedule.ID {
			t.Errorf("error carries schedule %d, want %d", verr.ScheduleID, schedule.ID)
		}
	}
}
