package api

import (
	"time"

	"github.com/bibliofeed/bibliofeed/pkg/internal/http/exts"
	"github.com/bibliofeed/bibliofeed/pkg/internal/models"
	"github.com/gofiber/fiber/v2"
)

// The feed is merged in memory from per-type queries, so page boundaries
// across mixed types are approximate; the cursor (unix milliseconds) keeps
// successive pages from overlapping.
func (ctrl *Controller) getFeed(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)

	limit := c.QueryInt("take", 20)
	cursor := feedCursor(c)

	feed, err := ctrl.Feed.GetFeed(user, limit, cursor)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(feed)
}

func (ctrl *Controller) listOwnPosts(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)

	limit := c.QueryInt("take", 20)
	cursor := feedCursor(c)

	feed, err := ctrl.Feed.ListOwnPosts(user, limit, cursor)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(feed)
}

func feedCursor(c *fiber.Ctx) *time.Time {
	raw := c.QueryInt("cursor", 0)
	if raw <= 0 {
		return nil
	}
	cursor := time.UnixMilli(int64(raw))
	return &cursor
}
