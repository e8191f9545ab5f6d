package Controllers

import (
	"context"
	"strconv"
	"time"

	"Firewatch/Models"
	"Firewatch/TaskEngine"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ScheduleController handles recurring check schedule endpoints
type ScheduleController struct {
	DB           *gorm.DB
	materializer *TaskEngine.Materializer
	taskStore    *Models.GormTaskStore
}

// NewScheduleController creates a new ScheduleController
func NewScheduleController(db *gorm.DB) *ScheduleController {
	store := Models.NewGormTaskStore(db)
	return &ScheduleController{
		DB:           db,
		materializer: TaskEngine.NewMaterializer(store, TaskEngine.SystemClock()),
		taskStore:    store,
	}
}

type ScheduleRequest struct {
	SiteID     uint   `json:"site_id"`
	TemplateID uint   `json:"template_id" validate:"required"`
	Frequency  string `json:"frequency" validate:"required,oneof=daily weekly monthly quarterly annual"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	AssetIDs   []uint `json:"asset_ids"`
}

// GetSchedules lists the caller's organization's schedules
func (c *ScheduleController) GetSchedules(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)

	var schedules []Models.CheckSchedule
	if err := c.DB.Where("org_id = ?", user.OrgID).Find(&schedules).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve schedules"})
	}
	return ctx.JSON(schedules)
}

// CreateSchedule creates a recurring check schedule. The rrule column is
// derived from the frequency by the model hook, never sent by the client.
func (c *ScheduleController) CreateSchedule(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)

	var req ScheduleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": validationMessages(err)})
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start date"})
	}

	schedule := Models.CheckSchedule{
		OrgID:      user.OrgID,
		SiteID:     req.SiteID,
		TemplateID: req.TemplateID,
		Frequency:  req.Frequency,
		StartDate:  startDate,
		Active:     true,
	}
	if err := schedule.SetTargetAssets(req.AssetIDs); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid asset list"})
	}

	if err := c.DB.Create(&schedule).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create schedule"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(schedule)
}

// UpdateSchedule edits frequency, start date, scope or target assets
func (c *ScheduleController) UpdateSchedule(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule ID"})
	}

	var schedule Models.CheckSchedule
	if err := c.DB.Where("id = ? AND org_id = ?", id, user.OrgID).First(&schedule).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}

	var req ScheduleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": validationMessages(err)})
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start date"})
	}

	schedule.SiteID = req.SiteID
	schedule.TemplateID = req.TemplateID
	schedule.Frequency = req.Frequency
	schedule.StartDate = startDate
	if err := schedule.SetTargetAssets(req.AssetIDs); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid asset list"})
	}

	// Save, not Updates: the BeforeSave hook must re-derive the rrule
	if err := c.DB.Save(&schedule).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update schedule"})
	}
	return ctx.JSON(schedule)
}

// ToggleActive flips whether the schedule keeps generating tasks
func (c *ScheduleController) ToggleActive(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule ID"})
	}

	var schedule Models.CheckSchedule
	if err := c.DB.Where("id = ? AND org_id = ?", id, user.OrgID).First(&schedule).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}

	schedule.Active = !schedule.Active
	if err := c.DB.Save(&schedule).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update schedule"})
	}
	return ctx.JSON(schedule)
}

// DeleteSchedule soft deletes a schedule. Tasks already materialized from
// it are left intact; only future generation stops.
func (c *ScheduleController) DeleteSchedule(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule ID"})
	}

	var schedule Models.CheckSchedule
	if err := c.DB.Where("id = ? AND org_id = ?", id, user.OrgID).First(&schedule).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}

	c.DB.Delete(&schedule)
	return ctx.JSON(fiber.Map{"message": "Schedule deleted, existing tasks kept"})
}

// RunNow materializes the schedule immediately instead of waiting for the
// nightly generation job. Safe to call repeatedly.
func (c *ScheduleController) RunNow(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule ID"})
	}

	var schedule Models.CheckSchedule
	if err := c.DB.Where("id = ? AND org_id = ?", id, user.OrgID).First(&schedule).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}

	existing, err := c.taskStore.TasksByOrg(context.Background(), user.OrgID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load existing tasks"})
	}

	created, err := c.materializer.Materialize(context.Background(), schedule, existing)
	if err != nil {
		// Partial success still reports what was created
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   err.Error(),
			"created": len(created),
		})
	}
	return ctx.JSON(fiber.Map{"created": len(created)})
}
