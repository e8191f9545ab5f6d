package Controllers

import (
	"strconv"

	"Firewatch/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SiteController handles site and asset endpoints
type SiteController struct {
	DB *gorm.DB
}

// NewSiteController creates a new SiteController
func NewSiteController(db *gorm.DB) *SiteController {
	return &SiteController{DB: db}
}

// GetSites lists the caller's organization's sites
func (c *SiteController) GetSites(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)

	var sites []Models.Site
	if err := c.DB.Where("org_id = ?", user.OrgID).Find(&sites).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve sites"})
	}
	return ctx.JSON(sites)
}

// CreateSite registers a new site
func (c *SiteController) CreateSite(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)

	var input Models.Site
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	site := Models.Site{
		OrgID:     user.OrgID,
		Name:      input.Name,
		Address:   input.Address,
		Postcode:  input.Postcode,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
	}
	if err := c.DB.Create(&site).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create site"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(site)
}

// UpdateSite edits a site's details
func (c *SiteController) UpdateSite(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid site ID"})
	}

	var site Models.Site
	if err := c.DB.Where("id = ? AND org_id = ?", id, user.OrgID).First(&site).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Site not found"})
	}

	var input Models.Site
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	c.DB.Model(&site).Updates(Models.Site{
		Name:      input.Name,
		Address:   input.Address,
		Postcode:  input.Postcode,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
	})
	return ctx.JSON(site)
}

// GetAssets lists assets, optionally filtered by site or type
func (c *SiteController) GetAssets(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)

	query := c.DB.Where("org_id = ?", user.OrgID)
	if siteID, err := strconv.Atoi(ctx.Query("site_id")); err == nil {
		query = query.Where("site_id = ?", siteID)
	}
	if assetType := ctx.Query("type"); assetType != "" {
		query = query.Where("type = ?", assetType)
	}

	var assets []Models.Asset
	if err := query.Find(&assets).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve assets"})
	}
	return ctx.JSON(assets)
}

type AssetRequest struct {
	SiteID   uint   `json:"site_id" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=fire_door extinguisher alarm_panel emergency_light sprinkler"`
	Name     string `json:"name" validate:"required"`
	Location string `json:"location"`
	SerialNo string `json:"serial_no"`
}

// CreateAsset registers a physical safety asset at a site
func (c *SiteController) CreateAsset(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)

	var req AssetRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": validationMessages(err)})
	}

	asset := Models.Asset{
		OrgID:    user.OrgID,
		SiteID:   req.SiteID,
		Type:     req.Type,
		Name:     req.Name,
		Location: req.Location,
		SerialNo: req.SerialNo,
	}
	if err := c.DB.Create(&asset).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create asset"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(asset)
}

// DecommissionAsset takes an asset out of service without deleting its history
func (c *SiteController) DecommissionAsset(ctx *fiber.Ctx) error {
	user := ctx.Locals("user").(Models.User)
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid asset ID"})
	}

	var asset Models.Asset
	if err := c.DB.Where("id = ? AND org_id = ?", id, user.OrgID).First(&asset).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Asset not found"})
	}

	asset.Decommissioned = true
	if err := c.DB.Save(&asset).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update asset"})
	}
	return ctx.JSON(asset)
}
