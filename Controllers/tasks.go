package Controllers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"Firewatch/Models"
	"Firewatch/TaskEngine"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskController handles check task endpoints: categorized listings, the
// claim lifecycle and the complete-check workflow.
type TaskController struct {
	DB     *gorm.DB
	store  *Models.GormTaskStore
	claims *TaskEngine.ClaimManager
	clock  TaskEngine.Clock
}

// NewTaskController creates a new TaskController
func NewTaskController(db *gorm.DB) *TaskController {
	store := Models.NewGormTaskStore(db)
	clock := TaskEngine.SystemClock()
	return &TaskController{
		DB:     db,
		store:  store,
		claims: TaskEngine.NewClaimManager(store, clock),
		clock:  clock,
	}
}

// GetTasks lists the org's tasks, optionally filtered by category:
// due_today, overdue, upcoming, completed, mine, others.
func (c *TaskController) GetTasks(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)

	tasks, err := c.store.TasksByOrg(context.Background(), user.OrgID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve tasks"})
	}

	now := c.clock.Now()
	windowDays := 7
	if w, err := strconv.Atoi(ctx.Query("window_days")); err == nil && w > 0 {
		windowDays = w
	}

	switch ctx.Query("category") {
	case "due_today":
		tasks = TaskEngine.DueToday(tasks, now)
	case "overdue":
		tasks = TaskEngine.Overdue(tasks, now)
	case "upcoming":
		tasks = TaskEngine.Upcoming(tasks, now, windowDays)
	case "completed":
		tasks = TaskEngine.Completed(tasks)
	case "mine":
		tasks = TaskEngine.ClaimedByMe(tasks, now, user.ID)
	case "others":
		tasks = TaskEngine.ClaimedByOther(tasks, now, user.ID)
	}
	return ctx.JSON(tasks)
}

// GetSummary returns the dashboard counts for the org's task set
func (c *TaskController) GetSummary(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)

	tasks, err := c.store.TasksByOrg(context.Background(), user.OrgID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve tasks"})
	}
	return ctx.JSON(TaskEngine.Summarize(tasks, c.clock.Now(), user.ID, 7))
}

type AdhocTaskRequest struct {
	SiteID     uint   `json:"site_id"`
	AssetID    uint   `json:"asset_id"`
	TemplateID uint   `json:"template_id" validate:"required"`
	DueAt      string `json:"due_at" validate:"required,datetime=2006-01-02"`
}

// CreateAdhocTask schedules a one-off check outside any recurring schedule
func (c *TaskController) CreateAdhocTask(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)

	var req AdhocTaskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": validationMessages(err)})
	}
	dueAt, err := time.Parse("2006-01-02", req.DueAt)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid due date"})
	}

	task := Models.CheckTask{
		OrgID:      user.OrgID,
		SiteID:     req.SiteID,
		AssetID:    req.AssetID,
		TemplateID: req.TemplateID,
		DueAt:      dueAt,
		Status:     Models.TaskStatusPending,
	}
	if err := c.store.InsertTask(context.Background(), &task); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create task"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(task)
}

// ClaimTask takes the task for the calling user. A live claim held by
// someone else is refused, same as OpenTask; expired claims are fair game.
func (c *TaskController) ClaimTask(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)
	task, ok := c.loadTask(ctx, user)
	if !ok {
		return nil
	}

	if TaskEngine.HasActiveClaim(task, c.clock.Now()) && task.ClaimedBy != user.ID {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      "Task is being worked on",
			"claimed_by": task.ClaimedByName,
		})
	}

	if err := c.claims.Claim(context.Background(), &task, user.ID, user.Name); err != nil {
		if errors.Is(err, TaskEngine.ErrTaskCompleted) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Task is already completed"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to claim task"})
	}
	return ctx.JSON(task)
}

// ReleaseTask gives the task back to the pool. Releasing a claim that has
// already expired or moved on quietly succeeds.
func (c *TaskController) ReleaseTask(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)
	task, ok := c.loadTask(ctx, user)
	if !ok {
		return nil
	}

	if err := c.claims.Release(context.Background(), &task, user.ID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to release task"})
	}
	return ctx.JSON(task)
}

// OpenTask is called when the user opens the check form. The task is
// auto-claimed unless another user holds a live claim on it.
func (c *TaskController) OpenTask(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)
	task, ok := c.loadTask(ctx, user)
	if !ok {
		return nil
	}

	err := c.claims.OpenForCompletion(context.Background(), &task, user.ID, user.Name)
	if errors.Is(err, TaskEngine.ErrTaskCompleted) {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Task is already completed"})
	}
	if errors.Is(err, TaskEngine.ErrClaimHeld) {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      "Task is being worked on",
			"claimed_by": task.ClaimedByName,
		})
	}
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open task"})
	}

	var template Models.CheckTemplate
	c.DB.First(&template, task.TemplateID)
	return ctx.JSON(fiber.Map{"task": task, "template": template})
}

type CompleteTaskRequest struct {
	Answers    datatypes.JSON `json:"answers" validate:"required"`
	PhotoPaths datatypes.JSON `json:"photo_paths"`
	Latitude   float64        `json:"latitude"`
	Longitude  float64        `json:"longitude"`
	Signature  string         `json:"signature"`
	Passed     *bool          `json:"passed" validate:"required"`
	Defect     string         `json:"defect"` // description when the check failed
}

// CompleteTask records the check entry and closes the task. Completion is
// written exactly once; a second attempt gets a conflict. Failed checks
// with a defect description raise a defect against the asset.
func (c *TaskController) CompleteTask(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)
	task, ok := c.loadTask(ctx, user)
	if !ok {
		return nil
	}
	if task.Status == Models.TaskStatusCompleted {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Task is already completed"})
	}

	var req CompleteTaskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": validationMessages(err)})
	}

	entry := Models.CheckEntry{
		Reference:   uuid.NewString(),
		OrgID:       task.OrgID,
		SiteID:      task.SiteID,
		AssetID:     task.AssetID,
		TemplateID:  task.TemplateID,
		TaskID:      task.ID,
		CompletedBy: user.ID,
		Answers:     req.Answers,
		PhotoPaths:  req.PhotoPaths,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Signature:   req.Signature,
		Passed:      *req.Passed,
	}
	if err := c.DB.Create(&entry).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save check entry"})
	}

	now := c.clock.Now()
	err := c.store.UpdateTaskFields(context.Background(), task.ID, map[string]interface{}{
		"status":       Models.TaskStatusCompleted,
		"completed_at": now,
		"completed_by": user.ID,
		"entry_id":     entry.ID,
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to close task"})
	}

	if !*req.Passed && req.Defect != "" {
		defect := Models.Defect{
			OrgID:       task.OrgID,
			SiteID:      task.SiteID,
			AssetID:     task.AssetID,
			EntryID:     entry.ID,
			Title:       "Failed check",
			Description: req.Defect,
			Severity:    Models.SeverityMedium,
			Status:      Models.DefectOpen,
			RaisedBy:    user.ID,
		}
		if err := c.DB.Create(&defect).Error; err != nil {
			// The entry is already saved; report the defect failure without undoing it
			return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
				"entry":   entry,
				"warning": "Check recorded but defect could not be raised",
			})
		}
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"entry": entry})
}

// loadTask fetches the task from the path parameter, scoped to the caller's
// org. Writes the error response itself and returns ok=false on failure.
func (c *TaskController) loadTask(ctx *fiber.Ctx, user Models.User) (Models.CheckTask, bool) {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
		return Models.CheckTask{}, false
	}

	var task Models.CheckTask
	if err := c.DB.Where("id = ? AND org_id = ?", id, user.OrgID).First(&task).Error; err != nil {
		ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
		return Models.CheckTask{}, false
	}
	return task, true
}
