package api

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bibliofeed/bibliofeed/pkg/internal/http/exts"
	"github.com/bibliofeed/bibliofeed/pkg/internal/models"
	"github.com/bibliofeed/bibliofeed/pkg/internal/services"
	"github.com/bibliofeed/bibliofeed/pkg/internal/storage"
	"github.com/gofiber/fiber/v2"
)

func (ctrl *Controller) listTickets(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)

	take := c.QueryInt("take", 10)
	offset := c.QueryInt("offset", 0)

	count, err := ctrl.Tickets.CountTickets(user.ID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	items, err := ctrl.Tickets.ListTickets(user.ID, take, offset)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(fiber.Map{
		"count": count,
		"data":  items,
	})
}

func (ctrl *Controller) getTicket(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}

	id, _ := c.ParamsInt("ticketId", 0)
	ticket, err := ctrl.Tickets.GetTicket(uint(id))
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(ticket)
}

func (ctrl *Controller) createTicket(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)

	payload, image, err := ctrl.ticketPayloadFromRequest(c)
	if err != nil {
		return err
	}

	ticket, err := ctrl.Tickets.NewTicket(user, payload, image)
	if err != nil {
		return mapServiceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": fmt.Sprintf("ticket %q created", ticket.Title),
		"ticket":  ticket,
	})
}

func (ctrl *Controller) updateTicket(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)
	id, _ := c.ParamsInt("ticketId", 0)

	ticket, err := ctrl.Tickets.GetOwnedTicket(uint(id), user)
	if err != nil {
		return mapServiceError(err)
	}

	payload, image, err := ctrl.ticketPayloadFromRequest(c)
	if err != nil {
		return err
	}

	ticket, err = ctrl.Tickets.EditTicket(ticket, payload, image)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("ticket %q updated", ticket.Title),
		"ticket":  ticket,
	})
}

func (ctrl *Controller) deleteTicket(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)
	id, _ := c.ParamsInt("ticketId", 0)

	ticket, err := ctrl.Tickets.GetOwnedTicket(uint(id), user)
	if err != nil {
		return mapServiceError(err)
	}

	if err := ctrl.Tickets.DeleteTicket(ticket); err != nil {
		return mapServiceError(err)
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("ticket %q deleted", ticket.Title),
	})
}

func (ctrl *Controller) createTicketWithReview(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)

	ticketPayload, reviewPayload, image, err := ctrl.withReviewRequest(c)
	if err != nil {
		return err
	}

	ticket, errs := ctrl.Workflow.CreateTicketWithReview(user, ticketPayload, reviewPayload, image)
	if len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": errs,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": fmt.Sprintf("ticket %q and its review created", ticket.Title),
		"ticket":  ticket,
	})
}

func (ctrl *Controller) updateTicketWithReview(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)
	id, _ := c.ParamsInt("ticketId", 0)

	ticket, err := ctrl.Tickets.GetOwnedTicket(uint(id), user)
	if err != nil {
		return mapServiceError(err)
	}

	ticketPayload, reviewPayload, image, err := ctrl.withReviewRequest(c)
	if err != nil {
		return err
	}

	updated, errs := ctrl.Workflow.UpdateTicketWithReview(user, ticket, ticketPayload, reviewPayload, image)
	if len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": errs,
		})
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("ticket %q and its review updated", updated.Title),
		"ticket":  updated,
	})
}

// withReviewRequest reads the combined ticket-plus-review payload, either as
// JSON or as a multipart form with an optional image part. Exactly one review
// per ticket; the len constraint is the cardinality check, the review fields
// themselves are validated inside the workflow so a bad review rolls the
// ticket back too.
func (ctrl *Controller) withReviewRequest(c *fiber.Ctx) (services.TicketPayload, services.ReviewPayload, *storage.SavedImage, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		ticketPayload, image, err := ctrl.ticketPayloadFromRequest(c)
		if err != nil {
			return ticketPayload, services.ReviewPayload{}, nil, err
		}

		rating, err := strconv.Atoi(c.FormValue("rating"))
		if err != nil {
			return ticketPayload, services.ReviewPayload{}, nil,
				fiber.NewError(fiber.StatusBadRequest, "rating: must be a number")
		}

		return ticketPayload, services.ReviewPayload{
			Title:   c.FormValue("review_title"),
			Rating:  rating,
			Content: c.FormValue("content"),
		}, image, nil
	}

	var data struct {
		Ticket  services.TicketPayload   `json:"ticket"`
		Reviews []services.ReviewPayload `json:"reviews" validate:"required,len=1"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return data.Ticket, services.ReviewPayload{}, nil, err
	}

	return data.Ticket, data.Reviews[0], nil, nil
}

// ticketPayloadFromRequest accepts either a JSON body or a multipart form
// with an optional image part; the image is normalized and stored before the
// ticket row exists, the sweeper reclaims it if the request dies in between.
func (ctrl *Controller) ticketPayloadFromRequest(c *fiber.Ctx) (services.TicketPayload, *storage.SavedImage, error) {
	var payload services.TicketPayload
	var image *storage.SavedImage

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		payload.Title = c.FormValue("title")
		payload.Description = c.FormValue("description")

		if header, err := c.FormFile("image"); err == nil && header != nil {
			file, err := header.Open()
			if err != nil {
				return payload, nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			defer file.Close()

			raw, err := io.ReadAll(file)
			if err != nil {
				return payload, nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
			}

			image, err = ctrl.Store.Save(raw, header.Filename)
			if err != nil {
				return payload, nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
		}
	} else if err := c.BodyParser(&payload); err != nil {
		return payload, nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if errs := services.ValidateTicketPayload(payload); len(errs) > 0 {
		return payload, image, fiber.NewError(fiber.StatusBadRequest, strings.Join(errs, "; "))
	}

	return payload, image, nil
}
