package CronJobs

import (
	"context"
	"fmt"
	"log"

	"Firewatch/Models"
	"Firewatch/Notifications"
	"Firewatch/Slack"
	"Firewatch/TaskEngine"
	"Firewatch/email"

	"github.com/robfig/cron/v3"
)

// TaskGenerator runs the recurring check pipeline on a schedule: a daily
// generation pass that materializes due tasks for every active schedule,
// and an hourly sweep that clears expired claims. The sweep is advisory
// housekeeping; claimability is decided at read time either way.
type TaskGenerator struct {
	cronScheduler *cron.Cron
	materializer  *TaskEngine.Materializer
	claims        *TaskEngine.ClaimManager
	scheduleStore TaskEngine.ScheduleStore
	taskStore     TaskEngine.TaskStore
	generateJobID cron.EntryID
	sweepJobID    cron.EntryID
	digestJobID   cron.EntryID
}

// NewTaskGenerator creates the generator with the given horizon in days.
func NewTaskGenerator(taskStore TaskEngine.TaskStore, scheduleStore TaskEngine.ScheduleStore, horizonDays int) *TaskGenerator {
	clock := TaskEngine.SystemClock()
	materializer := TaskEngine.NewMaterializer(taskStore, clock)
	if horizonDays > 0 {
		materializer.Horizon = horizonDays
	}
	return &TaskGenerator{
		cronScheduler: cron.New(cron.WithSeconds()),
		materializer:  materializer,
		claims:        TaskEngine.NewClaimManager(taskStore, clock),
		scheduleStore: scheduleStore,
		taskStore:     taskStore,
	}
}

// Start registers and starts the scheduled jobs. Generation runs daily at
// 02:00, the claim sweep hourly on the hour.
func (g *TaskGenerator) Start() error {
	var err error
	g.generateJobID, err = g.cronScheduler.AddFunc("0 0 2 * * *", func() {
		log.Println("Running scheduled task generation")
		g.RunGeneration()
	})
	if err != nil {
		return fmt.Errorf("error scheduling generation job: %w", err)
	}

	g.sweepJobID, err = g.cronScheduler.AddFunc("0 0 * * * *", func() {
		g.RunClaimSweep()
	})
	if err != nil {
		return fmt.Errorf("error scheduling claim sweep: %w", err)
	}

	g.digestJobID, err = g.cronScheduler.AddFunc("0 0 8 * * *", func() {
		g.RunDailyDigests()
	})
	if err != nil {
		return fmt.Errorf("error scheduling digest job: %w", err)
	}

	g.cronScheduler.Start()
	log.Println("Task generator started - generation daily at 2:00 AM, claim sweep hourly, digests at 8:00 AM")
	return nil
}

// UpdateGenerationSchedule moves the generation job to a new cron spec
// without restarting the process.
func (g *TaskGenerator) UpdateGenerationSchedule(spec string) error {
	newID, err := g.cronScheduler.AddFunc(spec, func() {
		log.Println("Running scheduled task generation")
		g.RunGeneration()
	})
	if err != nil {
		return fmt.Errorf("error rescheduling generation job: %w", err)
	}
	g.cronScheduler.Remove(g.generateJobID)
	g.generateJobID = newID
	log.Printf("Task generation rescheduled to %q", spec)
	return nil
}

// Stop terminates the scheduled jobs.
func (g *TaskGenerator) Stop() {
	if g.cronScheduler != nil {
		g.cronScheduler.Stop()
		log.Println("Task generator stopped")
	}
}

// RunGeneration materializes due tasks for every active schedule of every
// organization. One failing schedule never blocks the rest of the batch.
func (g *TaskGenerator) RunGeneration() {
	ctx := context.Background()

	var orgs []Models.Organization
	if err := Models.DB.Find(&orgs).Error; err != nil {
		log.Printf("Task generation: failed to list organizations: %v", err)
		return
	}

	totalCreated := 0
	for _, org := range orgs {
		created, err := g.GenerateForOrg(ctx, org.ID)
		if err != nil {
			log.Printf("Task generation: org %d finished with errors: %v", org.ID, err)
		}
		totalCreated += created
	}
	log.Printf("Task generation complete: %d new tasks", totalCreated)
}

// GenerateForOrg runs the materializer over one organization's active
// schedules and reports how many tasks were created. The returned error is
// the first per-schedule failure, after every schedule has been attempted.
func (g *TaskGenerator) GenerateForOrg(ctx context.Context, orgID uint) (int, error) {
	schedules, err := g.scheduleStore.ActiveSchedulesByOrg(ctx, orgID)
	if err != nil {
		return 0, fmt.Errorf("listing schedules for org %d: %w", orgID, err)
	}
	if len(schedules) == 0 {
		return 0, nil
	}

	existing, err := g.taskStore.TasksByOrg(ctx, orgID)
	if err != nil {
		return 0, fmt.Errorf("listing tasks for org %d: %w", orgID, err)
	}

	created := 0
	var firstErr error
	for _, schedule := range schedules {
		newTasks, err := g.materializer.Materialize(ctx, schedule, existing)
		if err != nil {
			log.Printf("Task generation: schedule %d: %v", schedule.ID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
		created += len(newTasks)
		// Feed fresh tasks back so later schedules dedup against them too
		existing = append(existing, newTasks...)
	}
	return created, firstErr
}

// RunDailyDigests sends the morning compliance summaries: Slack digest and
// overdue email for managers, push reminders for inspectors. Each channel
// fails independently; an unconfigured channel just logs and moves on.
func (g *TaskGenerator) RunDailyDigests() {
	var orgs []Models.Organization
	if err := Models.DB.Find(&orgs).Error; err != nil {
		log.Printf("Daily digests: failed to list organizations: %v", err)
		return
	}

	for _, org := range orgs {
		if err := Slack.SendComplianceDigest(Models.DB, org.ID); err != nil {
			log.Printf("Daily digests: slack digest for org %d: %v", org.ID, err)
		}
		if err := email.SendOverdueDigest(Models.DB, org.ID); err != nil {
			log.Printf("Daily digests: overdue email for org %d: %v", org.ID, err)
		}
		if err := Notifications.SendDueTaskReminders(Models.DB, org.ID); err != nil {
			log.Printf("Daily digests: push reminders for org %d: %v", org.ID, err)
		}
	}
}

// RunClaimSweep clears expired claims across all organizations.
func (g *TaskGenerator) RunClaimSweep() {
	ctx := context.Background()

	var orgs []Models.Organization
	if err := Models.DB.Find(&orgs).Error; err != nil {
		log.Printf("Claim sweep: failed to list organizations: %v", err)
		return
	}

	total := 0
	for _, org := range orgs {
		tasks, err := g.taskStore.TasksByOrg(ctx, org.ID)
		if err != nil {
			log.Printf("Claim sweep: failed to list tasks for org %d: %v", org.ID, err)
			continue
		}
		released, err := g.claims.SweepExpired(ctx, tasks)
		if err != nil {
			log.Printf("Claim sweep: org %d finished with errors: %v", org.ID, err)
		}
		total += released
	}
	if total > 0 {
		log.Printf("Claim sweep released %d expired claims", total)
	}
}
