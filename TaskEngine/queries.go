package TaskEngine

import (
	"time"

	"Firewatch/Models"
)

// Read-side categorization of a task set for presentation. Every function
// here is a pure function of (tasks, now, user); nothing is mutated and no
// store is touched. Date buckets compare calendar days, so a task due
// earlier today is "due today", not overdue. Open tasks are those not yet
// completed, whether or not someone has started them.

func isOpen(task Models.CheckTask) bool {
	return task.Status != Models.TaskStatusCompleted
}

// DueToday returns open tasks due on the same calendar day as now.
func DueToday(tasks []Models.CheckTask, now time.Time) []Models.CheckTask {
	var out []Models.CheckTask
	for _, task := range tasks {
		if isOpen(task) && SameDay(task.DueAt, now) {
			out = append(out, task)
		}
	}
	return out
}

// Overdue returns open tasks whose due day has already passed.
func Overdue(tasks []Models.CheckTask, now time.Time) []Models.CheckTask {
	today := StartOfDay(now)
	var out []Models.CheckTask
	for _, task := range tasks {
		if isOpen(task) && StartOfDay(task.DueAt).Before(today) {
			out = append(out, task)
		}
	}
	return out
}

// Upcoming returns open tasks due strictly after today and within
// windowDays from now.
func Upcoming(tasks []Models.CheckTask, now time.Time, windowDays int) []Models.CheckTask {
	today := StartOfDay(now)
	cutoff := today.AddDate(0, 0, windowDays)
	var out []Models.CheckTask
	for _, task := range tasks {
		due := StartOfDay(task.DueAt)
		if isOpen(task) && due.After(today) && !due.After(cutoff) {
			out = append(out, task)
		}
	}
	return out
}

// Completed returns finished tasks.
func Completed(tasks []Models.CheckTask) []Models.CheckTask {
	var out []Models.CheckTask
	for _, task := range tasks {
		if task.Status == Models.TaskStatusCompleted {
			out = append(out, task)
		}
	}
	return out
}

// ClaimedByMe returns open tasks the given user currently holds a live
// claim on. Expired claims are invisible here, same as everywhere else.
func ClaimedByMe(tasks []Models.CheckTask, now time.Time, userID uint) []Models.CheckTask {
	var out []Models.CheckTask
	for _, task := range tasks {
		if isOpen(task) && task.ClaimedBy == userID && HasActiveClaim(task, now) {
			out = append(out, task)
		}
	}
	return out
}

// ClaimedByOther returns open tasks another user holds a live claim on,
// used to warn before duplicating someone's inspection.
func ClaimedByOther(tasks []Models.CheckTask, now time.Time, userID uint) []Models.CheckTask {
	var out []Models.CheckTask
	for _, task := range tasks {
		if isOpen(task) && task.ClaimedBy != 0 && task.ClaimedBy != userID && HasActiveClaim(task, now) {
			out = append(out, task)
		}
	}
	return out
}

// Summary is the dashboard rollup of one org's task set.
type Summary struct {
	DueToday  int `json:"due_today"`
	Overdue   int `json:"overdue"`
	Upcoming  int `json:"upcoming"`
	Completed int `json:"completed"`
	Mine      int `json:"mine"`
}

// Summarize counts each category over the same task set with one "now".
func Summarize(tasks []Models.CheckTask, now time.Time, userID uint, upcomingWindowDays int) Summary {
	return Summary{
		DueToday:  len(DueToday(tasks, now)),
		Overdue:   len(Overdue(tasks, now)),
		Upcoming:  len(Upcoming(tasks, now, upcomingWindowDays)),
		Completed: len(Completed(tasks)),
		Mine:      len(ClaimedByMe(tasks, now, userID)),
	}
}
