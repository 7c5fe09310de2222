package api

import (
	"fmt"
	"strings"

	"github.com/bibliofeed/bibliofeed/pkg/internal/http/exts"
	"github.com/bibliofeed/bibliofeed/pkg/internal/models"
	"github.com/bibliofeed/bibliofeed/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func (ctrl *Controller) getReview(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}

	id, _ := c.ParamsInt("reviewId", 0)
	review, err := ctrl.Reviews.GetReview(uint(id))
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(review)
}

func (ctrl *Controller) createReview(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)
	ticketID, _ := c.ParamsInt("ticketId", 0)

	var data services.ReviewPayload
	if err := c.BodyParser(&data); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if errs := services.ValidateReviewPayload(data); len(errs) > 0 {
		return fiber.NewError(fiber.StatusBadRequest, strings.Join(errs, "; "))
	}

	review, err := ctrl.Reviews.NewReview(user, uint(ticketID), data)
	if err != nil {
		return mapServiceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": fmt.Sprintf("review %q created", review.Title),
		"review":  review,
	})
}

func (ctrl *Controller) updateReview(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)
	id, _ := c.ParamsInt("reviewId", 0)

	review, err := ctrl.Reviews.GetOwnedReview(uint(id), user)
	if err != nil {
		return mapServiceError(err)
	}

	var data services.ReviewPayload
	if err := c.BodyParser(&data); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if errs := services.ValidateReviewPayload(data); len(errs) > 0 {
		return fiber.NewError(fiber.StatusBadRequest, strings.Join(errs, "; "))
	}

	review, err = ctrl.Reviews.EditReview(review, data)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("review %q updated", review.Title),
		"review":  review,
	})
}

func (ctrl *Controller) deleteReview(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)
	id, _ := c.ParamsInt("reviewId", 0)

	review, err := ctrl.Reviews.GetOwnedReview(uint(id), user)
	if err != nil {
		return mapServiceError(err)
	}

	if err := ctrl.Reviews.DeleteReview(review); err != nil {
		return mapServiceError(err)
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("review %q deleted", review.Title),
	})
}
