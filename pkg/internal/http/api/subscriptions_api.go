package api

import (
	"fmt"

	"github.com/bibliofeed/bibliofeed/pkg/internal/http/exts"
	"github.com/bibliofeed/bibliofeed/pkg/internal/models"
	"github.com/gofiber/fiber/v2"
)

func (ctrl *Controller) listFollowing(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)

	subscriptions, err := ctrl.Subscriptions.ListFollowing(user)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(subscriptions)
}

func (ctrl *Controller) listFollowers(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)

	subscriptions, err := ctrl.Subscriptions.ListFollowers(user)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(subscriptions)
}

func (ctrl *Controller) follow(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)

	var data struct {
		Username string `json:"username" validate:"required"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	subscription, err := ctrl.Subscriptions.Follow(user, data.Username)
	if err != nil {
		return mapServiceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      fmt.Sprintf("you now follow %s", data.Username),
		"subscription": subscription,
	})
}

// unfollow is idempotent: removing an edge that is not there is still a
// success, only an unknown username is an error.
func (ctrl *Controller) unfollow(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)

	target, err := ctrl.Accounts.GetAccountWithName(c.Params("name"))
	if err != nil {
		return mapServiceError(err)
	}

	if err := ctrl.Subscriptions.Unfollow(user, target); err != nil {
		return mapServiceError(err)
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("you no longer follow %s", target.Name),
	})
}
