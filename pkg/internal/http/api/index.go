package api

import (
	"errors"

	"github.com/bibliofeed/bibliofeed/pkg/internal/services"
	"github.com/bibliofeed/bibliofeed/pkg/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type Controller struct {
	Accounts      *services.AccountService
	Subscriptions *services.SubscriptionService
	Tickets       *services.TicketService
	Reviews       *services.ReviewService
	Workflow      *services.WorkflowService
	Feed          *services.FeedService
	Store         *storage.Store
	Logger        zerolog.Logger
}

func MapAPIs(app *fiber.App, ctrl *Controller, baseURL string) {
	api := app.Group(baseURL)
	{
		users := api.Group("/users")
		{
			users.Get("/me", ctrl.getMe)
			users.Get("/:name", ctrl.getUser)
		}

		subscriptions := api.Group("/subscriptions")
		{
			subscriptions.Get("/following", ctrl.listFollowing)
			subscriptions.Get("/followers", ctrl.listFollowers)
			subscriptions.Post("/", ctrl.follow)
			subscriptions.Delete("/:name", ctrl.unfollow)
		}

		tickets := api.Group("/tickets")
		{
			tickets.Get("/", ctrl.listTickets)
			tickets.Post("/", ctrl.createTicket)
			tickets.Post("/with-review", ctrl.createTicketWithReview)
			tickets.Get("/:ticketId", ctrl.getTicket)
			tickets.Put("/:ticketId", ctrl.updateTicket)
			tickets.Put("/:ticketId/with-review", ctrl.updateTicketWithReview)
			tickets.Delete("/:ticketId", ctrl.deleteTicket)
			tickets.Post("/:ticketId/review", ctrl.createReview)
		}

		reviews := api.Group("/reviews")
		{
			reviews.Get("/:reviewId", ctrl.getReview)
			reviews.Put("/:reviewId", ctrl.updateReview)
			reviews.Delete("/:reviewId", ctrl.deleteReview)
		}

		feed := api.Group("/feed")
		{
			feed.Get("/", ctrl.getFeed)
			feed.Get("/me", ctrl.listOwnPosts)
		}
	}
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrSelfFollow),
		errors.Is(err, services.ErrAlreadyFollowing),
		errors.Is(err, services.ErrDuplicateSubscription):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
