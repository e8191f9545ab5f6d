package Models

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// FCMToken is a push-notification device token registered by a user's
// mobile session. One user may hold several (phone + tablet).
type FCMToken struct {
	gorm.Model
	UserID uint   `json:"user_id"`
	Value  string `json:"value" gorm:"uniqueIndex"`
}

type UpdateTokenRequest struct {
	Value string `json:"value" validate:"required"`
}

// UpdateToken registers or refreshes the calling user's device token
func UpdateToken(c *fiber.Ctx) error {
	var req UpdateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Value == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Token value is required",
		})
	}

	user, ok := c.Locals("user").(User)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Not logged in",
		})
	}

	var token FCMToken
	err := DB.Where("value = ?", req.Value).FirstOrCreate(&token, FCMToken{
		UserID: user.ID,
		Value:  req.Value,
	}).Error

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create/update token",
		})
	}

	// Token may have been registered by a previous account on the same device
	if token.UserID != user.ID {
		token.UserID = user.ID
		if err := DB.Save(&token).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update token",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Token updated successfully",
	})
}

// TokensForUsers returns the registered device tokens for a set of users.
func TokensForUsers(userIDs []uint) ([]FCMToken, error) {
	var tokens []FCMToken
	if err := DB.Where("user_id IN ?", userIDs).Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}
