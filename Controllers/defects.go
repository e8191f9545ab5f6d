package Controllers

import (
	"log"
	"strconv"
	"time"

	"Firewatch/Models"
	"Firewatch/Slack"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DefectController handles defect tracking endpoints
type DefectController struct {
	DB *gorm.DB
}

// NewDefectController creates a new DefectController
func NewDefectController(db *gorm.DB) *DefectController {
	return &DefectController{DB: db}
}

// GetDefects lists defects, optionally filtered by status or site
func (c *DefectController) GetDefects(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)

	query := c.DB.Where("org_id = ?", user.OrgID)
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if siteID, err := strconv.Atoi(ctx.Query("site_id")); err == nil {
		query = query.Where("site_id = ?", siteID)
	}

	var defects []Models.Defect
	if err := query.Order("created_at DESC").Find(&defects).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve defects"})
	}
	return ctx.JSON(defects)
}

type DefectRequest struct {
	SiteID      uint   `json:"site_id" validate:"required"`
	AssetID     uint   `json:"asset_id"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Severity    string `json:"severity" validate:"required,oneof=low medium high critical"`
}

// CreateDefect raises a defect manually. Critical defects are escalated to
// the org's Slack channel immediately.
func (c *DefectController) CreateDefect(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)

	var req DefectRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": validationMessages(err)})
	}

	defect := Models.Defect{
		OrgID:       user.OrgID,
		SiteID:      req.SiteID,
		AssetID:     req.AssetID,
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
		Status:      Models.DefectOpen,
		RaisedBy:    user.ID,
	}
	if err := c.DB.Create(&defect).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create defect"})
	}

	if defect.Severity == Models.SeverityCritical {
		if err := Slack.EscalateDefect(c.DB, defect, user.Name); err != nil {
			log.Printf("Failed to escalate defect %d to Slack: %v", defect.ID, err)
		}
	}

	return ctx.Status(fiber.StatusCreated).JSON(defect)
}

// UpdateDefect moves a defect through its workflow
func (c *DefectController) UpdateDefect(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid defect ID"})
	}

	var defect Models.Defect
	if err := c.DB.Where("id = ? AND org_id = ?", id, user.OrgID).First(&defect).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Defect not found"})
	}
	if defect.Status == Models.DefectResolved {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Defect is already resolved"})
	}

	var input Models.Defect
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	c.DB.Model(&defect).Updates(Models.Defect{
		Title:       input.Title,
		Description: input.Description,
		Severity:    input.Severity,
		Status:      input.Status,
	})
	return ctx.JSON(defect)
}

// ResolveDefect closes a defect with a resolution note
func (c *DefectController) ResolveDefect(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid defect ID"})
	}

	var defect Models.Defect
	if err := c.DB.Where("id = ? AND org_id = ?", id, user.OrgID).First(&defect).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Defect not found"})
	}
	if defect.Status == Models.DefectResolved {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Defect is already resolved"})
	}

	var input struct {
		Resolution string `json:"resolution"`
	}
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	now := time.Now()
	c.DB.Model(&defect).Updates(map[string]interface{}{
		"status":      Models.DefectResolved,
		"resolved_by": user.ID,
		"resolved_at": now,
		"resolution":  input.Resolution,
	})
	return ctx.JSON(defect)
}
