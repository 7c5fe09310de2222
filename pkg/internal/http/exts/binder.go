package exts

import (
	"strings"

	"github.com/bibliofeed/bibliofeed/pkg/internal/models"
	"github.com/bibliofeed/bibliofeed/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func BindAndValidate(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if errs := services.ValidateStruct(out); len(errs) > 0 {
		return fiber.NewError(fiber.StatusBadRequest, strings.Join(errs, "; "))
	}
	return nil
}

// EnsureAuthenticated guards every core operation; the gateway middleware
// populates the local when the request carries a valid identity.
func EnsureAuthenticated(c *fiber.Ctx) error {
	if _, ok := c.Locals("user").(models.Account); !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "you need to be authenticated to do this")
	}
	return nil
}
