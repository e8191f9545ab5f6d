package Controllers

import (
	"strconv"
	"time"

	"Firewatch/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DrillController handles fire drill and training log endpoints
type DrillController struct {
	DB *gorm.DB
}

// NewDrillController creates a new DrillController
func NewDrillController(db *gorm.DB) *DrillController {
	return &DrillController{DB: db}
}

// GetDrills lists the org's fire drills, newest first
func (c *DrillController) GetDrills(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)

	query := c.DB.Where("org_id = ?", user.OrgID)
	if siteID, err := strconv.Atoi(ctx.Query("site_id")); err == nil {
		query = query.Where("site_id = ?", siteID)
	}

	var drills []Models.FireDrill
	if err := query.Order("conducted_at DESC").Find(&drills).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve drills"})
	}
	return ctx.JSON(drills)
}

type DrillRequest struct {
	SiteID         uint           `json:"site_id" validate:"required"`
	ConductedAt    string         `json:"conducted_at" validate:"required,datetime=2006-01-02"`
	EvacuationSecs int            `json:"evacuation_secs" validate:"required,min=1"`
	HeadCount      int            `json:"head_count"`
	Issues         datatypes.JSON `json:"issues"`
	Notes          string         `json:"notes"`
}

// LogDrill records an evacuation drill
func (c *DrillController) LogDrill(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)

	var req DrillRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": validationMessages(err)})
	}
	conductedAt, err := time.Parse("2006-01-02", req.ConductedAt)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid drill date"})
	}

	drill := Models.FireDrill{
		OrgID:          user.OrgID,
		SiteID:         req.SiteID,
		ConductedAt:    conductedAt,
		ConductedBy:    user.ID,
		EvacuationSecs: req.EvacuationSecs,
		HeadCount:      req.HeadCount,
		Issues:         req.Issues,
		Notes:          req.Notes,
	}
	if err := c.DB.Create(&drill).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to log drill"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(drill)
}

// GetTraining lists the org's training records
func (c *DrillController) GetTraining(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)

	var records []Models.TrainingRecord
	if err := c.DB.Where("org_id = ?", user.OrgID).Order("completed_at DESC").Find(&records).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve training records"})
	}
	return ctx.JSON(records)
}

type TrainingRequest struct {
	UserID      uint   `json:"user_id" validate:"required"`
	Course      string `json:"course" validate:"required"`
	Provider    string `json:"provider"`
	CompletedAt string `json:"completed_at" validate:"required,datetime=2006-01-02"`
	ExpiresAt   string `json:"expires_at" validate:"omitempty,datetime=2006-01-02"`
	Certificate string `json:"certificate"`
}

// LogTraining records delivered fire-safety training
func (c *DrillController) LogTraining(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)

	var req TrainingRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": validationMessages(err)})
	}
	completedAt, err := time.Parse("2006-01-02", req.CompletedAt)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid completion date"})
	}

	record := Models.TrainingRecord{
		OrgID:       user.OrgID,
		UserID:      req.UserID,
		Course:      req.Course,
		Provider:    req.Provider,
		CompletedAt: completedAt,
		Certificate: req.Certificate,
	}
	if req.ExpiresAt != "" {
		expiresAt, err := time.Parse("2006-01-02", req.ExpiresAt)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid expiry date"})
		}
		record.ExpiresAt = &expiresAt
	}

	if err := c.DB.Create(&record).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to log training"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(record)
}
