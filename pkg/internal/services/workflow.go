package services

import (
	"errors"
	"fmt"

	"github.com/bibliofeed/bibliofeed/pkg/internal/models"
	"github.com/bibliofeed/bibliofeed/pkg/internal/storage"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WorkflowService couples a ticket with its single review as one unit of
// work. Either both rows land or neither does; no observer may see a ticket
// whose review failed validation.
type WorkflowService struct {
	db     *gorm.DB
	store  *storage.Store
	logger zerolog.Logger
}

func NewWorkflowService(db *gorm.DB, store *storage.Store, logger zerolog.Logger) *WorkflowService {
	return &WorkflowService{db: db, store: store, logger: logger}
}

// CreateTicketWithReview persists the ticket first (the review needs its
// id), validates the review payload inside the same transaction, and aborts
// the whole scope when it fails. A nil ticket with a non-empty error list
// means nothing was written.
func (s *WorkflowService) CreateTicketWithReview(actor models.Account, ticketPayload TicketPayload, reviewPayload ReviewPayload, image *storage.SavedImage) (*models.Ticket, []string) {
	var out models.Ticket
	var collected []string

	err := s.db.Transaction(func(tx *gorm.DB) error {
		out = models.Ticket{
			Title:       ticketPayload.Title,
			Description: ticketPayload.Description,
			AccountID:   actor.ID,
		}
		if image != nil {
			out.Image = &image.FileName
			out.ImageMeta = image.Meta
		}
		if err := tx.Create(&out).Error; err != nil {
			return err
		}

		if errs := ValidateReviewPayload(reviewPayload); len(errs) > 0 {
			collected = errs
			return ErrTransactionAborted
		}

		review := models.Review{
			Title:     reviewPayload.Title,
			Rating:    reviewPayload.Rating,
			Content:   reviewPayload.Content,
			AccountID: actor.ID,
			TicketID:  out.ID,
		}
		if err := tx.Create(&review).Error; err != nil {
			return err
		}

		out.Review = &review
		return nil
	})

	if errors.Is(err, ErrTransactionAborted) {
		s.logger.Warn().Str("actor", actor.Name).Strs("errors", collected).
			Msg("Review validation failed, ticket creation rolled back.")
		return nil, collected
	}
	if err != nil {
		s.logger.Error().Err(err).Str("actor", actor.Name).
			Msg("An error occurred when creating ticket with review...")
		return nil, []string{"an unexpected error occurred", fmt.Sprintf("%v", err)}
	}

	s.logger.Info().Uint("ticket", out.ID).Str("actor", actor.Name).
		Msg("Ticket and its review created.")
	return &out, nil
}

// UpdateTicketWithReview applies both updates in one transaction and rolls
// the whole thing back when the review payload is invalid, surfacing every
// error together. Callers who want the ticket saved regardless can use the
// plain ticket update followed by a review update instead.
func (s *WorkflowService) UpdateTicketWithReview(actor models.Account, ticket models.Ticket, ticketPayload TicketPayload, reviewPayload ReviewPayload, image *storage.SavedImage) (*models.Ticket, []string) {
	var collected []string
	var replaced string

	err := s.db.Transaction(func(tx *gorm.DB) error {
		ticket.Title = ticketPayload.Title
		ticket.Description = ticketPayload.Description
		if image != nil {
			if ticket.Image != nil {
				replaced = *ticket.Image
			}
			ticket.Image = &image.FileName
			ticket.ImageMeta = image.Meta
		}
		if err := tx.Omit(clause.Associations).Save(&ticket).Error; err != nil {
			return err
		}

		if errs := ValidateReviewPayload(reviewPayload); len(errs) > 0 {
			collected = errs
			return ErrTransactionAborted
		}

		// The lookup is keyed by ticket, not author: the combined form
		// edits whatever review the ticket carries, including a reply
		// another account wrote. That review keeps its own author.
		var review models.Review
		if err := tx.Where("ticket_id = ?", ticket.ID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				review = models.Review{AccountID: actor.ID, TicketID: ticket.ID}
			} else {
				return err
			}
		}

		review.Title = reviewPayload.Title
		review.Rating = reviewPayload.Rating
		review.Content = reviewPayload.Content
		if err := tx.Save(&review).Error; err != nil {
			return err
		}

		ticket.Review = &review
		return nil
	})

	if errors.Is(err, ErrTransactionAborted) {
		s.logger.Warn().Str("actor", actor.Name).Uint("ticket", ticket.ID).Strs("errors", collected).
			Msg("Review validation failed, ticket update rolled back.")
		return nil, collected
	}
	if err != nil {
		s.logger.Error().Err(err).Str("actor", actor.Name).Uint("ticket", ticket.ID).
			Msg("An error occurred when updating ticket with review...")
		return nil, []string{"an unexpected error occurred", fmt.Sprintf("%v", err)}
	}

	if len(replaced) > 0 {
		if err := s.store.Delete(replaced); err != nil {
			s.logger.Warn().Err(err).Str("file", replaced).
				Msg("Unable to remove replaced ticket image...")
		}
	}

	return &ticket, nil
}
