package Controllers

import (
	"fmt"
	"time"

	"Firewatch/Models"
	"Firewatch/Reports"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ReportController serves compliance exports
type ReportController struct {
	DB *gorm.DB
}

// NewReportController creates a new ReportController
func NewReportController(db *gorm.DB) *ReportController {
	return &ReportController{DB: db}
}

// DownloadComplianceReport streams the org's compliance workbook as an
// Excel download.
func (c *ReportController) DownloadComplianceReport(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)

	buffer, err := Reports.BuildComplianceWorkbook(c.DB, user.OrgID, time.Now())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build report"})
	}

	filename := fmt.Sprintf("compliance_report_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	return ctx.Send(buffer.Bytes())
}
