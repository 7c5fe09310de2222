package api

import (
	"github.com/bibliofeed/bibliofeed/pkg/internal/http/exts"
	"github.com/bibliofeed/bibliofeed/pkg/internal/models"
	"github.com/gofiber/fiber/v2"
)

func (ctrl *Controller) getMe(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)

	return c.JSON(user)
}

func (ctrl *Controller) getUser(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}

	account, err := ctrl.Accounts.GetAccountWithName(c.Params("name"))
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(account)
}
