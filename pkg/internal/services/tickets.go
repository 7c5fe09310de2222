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

// FilterTicketWithAuthor scopes a query to tickets owned by the given
// account. Every read feeding an update or delete must go through it;
// ownership is an authorization boundary, not a convenience filter.
func FilterTicketWithAuthor(tx *gorm.DB, accountID uint) *gorm.DB {
	return tx.Where("account_id = ?", accountID)
}

type TicketService struct {
	db     *gorm.DB
	store  *storage.Store
	logger zerolog.Logger
}

func NewTicketService(db *gorm.DB, store *storage.Store, logger zerolog.Logger) *TicketService {
	return &TicketService{db: db, store: store, logger: logger}
}

func (s *TicketService) GetTicket(id uint) (models.Ticket, error) {
	var ticket models.Ticket
	if err := s.db.Preload("Account").Preload("Review").Preload("Review.Account").
		Where("id = ?", id).
		First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ticket, ErrNotFound
		}
		return ticket, fmt.Errorf("unable to get ticket: %v", err)
	}
	return ticket, nil
}

// GetOwnedTicket is the mutating-path lookup: a ticket belonging to someone
// else is indistinguishable from one that does not exist.
func (s *TicketService) GetOwnedTicket(id uint, actor models.Account) (models.Ticket, error) {
	var ticket models.Ticket
	if err := FilterTicketWithAuthor(s.db, actor.ID).
		Preload("Review").
		Where("id = ?", id).
		First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ticket, ErrNotFound
		}
		return ticket, fmt.Errorf("unable to get ticket: %v", err)
	}
	return ticket, nil
}

func (s *TicketService) CountTickets(accountID uint) (int64, error) {
	var count int64
	if err := FilterTicketWithAuthor(s.db.Model(&models.Ticket{}), accountID).
		Count(&count).Error; err != nil {
		return count, err
	}
	return count, nil
}

func (s *TicketService) ListTickets(accountID uint, take int, offset int) ([]models.Ticket, error) {
	if take <= 0 || take > 100 {
		take = 100
	}

	var tickets []models.Ticket
	if err := FilterTicketWithAuthor(s.db, accountID).
		Preload("Review").
		Limit(take).Offset(offset).
		Order("created_at DESC").
		Find(&tickets).Error; err != nil {
		return tickets, fmt.Errorf("unable to list tickets: %v", err)
	}
	return tickets, nil
}

func (s *TicketService) NewTicket(actor models.Account, payload TicketPayload, image *storage.SavedImage) (models.Ticket, error) {
	ticket := models.Ticket{
		Title:       payload.Title,
		Description: payload.Description,
		AccountID:   actor.ID,
	}
	if image != nil {
		ticket.Image = &image.FileName
		ticket.ImageMeta = image.Meta
	}

	if err := s.db.Create(&ticket).Error; err != nil {
		return ticket, fmt.Errorf("unable to create ticket: %v", err)
	}

	s.logger.Info().Uint("ticket", ticket.ID).Str("author", actor.Name).Msg("Ticket created.")
	return ticket, nil
}

// EditTicket updates the fields and swaps the image; the superseded file is
// removed after the row is saved, tolerating it being gone already.
func (s *TicketService) EditTicket(ticket models.Ticket, payload TicketPayload, image *storage.SavedImage) (models.Ticket, error) {
	var replaced string
	ticket.Title = payload.Title
	ticket.Description = payload.Description
	if image != nil {
		if ticket.Image != nil {
			replaced = *ticket.Image
		}
		ticket.Image = &image.FileName
		ticket.ImageMeta = image.Meta
	}

	if err := s.db.Omit(clause.Associations).Save(&ticket).Error; err != nil {
		return ticket, fmt.Errorf("unable to update ticket: %v", err)
	}

	if len(replaced) > 0 {
		if err := s.store.Delete(replaced); err != nil {
			s.logger.Warn().Err(err).Str("file", replaced).
				Msg("Unable to remove replaced ticket image...")
		}
	}

	return ticket, nil
}

// DeleteTicket removes the ticket and its review in one transaction, then
// its image file. The file removal sits outside the transaction: a commit
// followed by a failed unlink leaves an orphan file for the sweeper, never
// an orphan review.
func (s *TicketService) DeleteTicket(ticket models.Ticket) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ticket_id = ?", ticket.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return tx.Delete(&ticket).Error
	})
	if err != nil {
		return fmt.Errorf("unable to delete ticket: %v", err)
	}

	if ticket.Image != nil {
		if err := s.store.Delete(*ticket.Image); err != nil {
			s.logger.Warn().Err(err).Str("file", *ticket.Image).
				Msg("Unable to remove deleted ticket image...")
		}
	}

	s.logger.Info().Uint("ticket", ticket.ID).Msg("Ticket deleted with its review.")
	return nil
}
