package services

import (
	"errors"
	"fmt"

	"github.com/bibliofeed/bibliofeed/pkg/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FilterReviewWithAuthor scopes a query to reviews written by the given
// account; same authorization boundary as FilterTicketWithAuthor.
func FilterReviewWithAuthor(tx *gorm.DB, accountID uint) *gorm.DB {
	return tx.Where("account_id = ?", accountID)
}

type ReviewService struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewReviewService(db *gorm.DB, logger zerolog.Logger) *ReviewService {
	return &ReviewService{db: db, logger: logger}
}

func (s *ReviewService) GetReview(id uint) (models.Review, error) {
	var review models.Review
	if err := s.db.Preload("Account").Preload("Ticket").Preload("Ticket.Account").
		Where("id = ?", id).
		First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return review, ErrNotFound
		}
		return review, fmt.Errorf("unable to get review: %v", err)
	}
	return review, nil
}

func (s *ReviewService) GetOwnedReview(id uint, actor models.Account) (models.Review, error) {
	var review models.Review
	if err := FilterReviewWithAuthor(s.db, actor.ID).
		Preload("Ticket").
		Where("id = ?", id).
		First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return review, ErrNotFound
		}
		return review, fmt.Errorf("unable to get review: %v", err)
	}
	return review, nil
}

func (s *ReviewService) ListReviews(accountID uint, take int, offset int) ([]models.Review, error) {
	if take <= 0 || take > 100 {
		take = 100
	}

	var reviews []models.Review
	if err := FilterReviewWithAuthor(s.db, accountID).
		Preload("Ticket").
		Limit(take).Offset(offset).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return reviews, fmt.Errorf("unable to list reviews: %v", err)
	}
	return reviews, nil
}

// NewReview answers an existing ticket. The unique index on ticket_id keeps
// a ticket at one review even when two answers race; the loser surfaces as
// a duplicate.
func (s *ReviewService) NewReview(actor models.Account, ticketID uint, payload ReviewPayload) (models.Review, error) {
	var ticket models.Ticket
	if err := s.db.Where("id = ?", ticketID).First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Review{}, ErrNotFound
		}
		return models.Review{}, fmt.Errorf("unable to find ticket to review: %v", err)
	}

	review := models.Review{
		Title:     payload.Title,
		Rating:    payload.Rating,
		Content:   payload.Content,
		AccountID: actor.ID,
		TicketID:  ticket.ID,
	}

	if err := s.db.Create(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return review, fmt.Errorf("ticket #%d already has a review", ticket.ID)
		}
		return review, fmt.Errorf("unable to create review: %v", err)
	}

	s.logger.Info().Uint("review", review.ID).Uint("ticket", ticket.ID).
		Str("author", actor.Name).Msg("Review created.")
	return review, nil
}

func (s *ReviewService) EditReview(review models.Review, payload ReviewPayload) (models.Review, error) {
	review.Title = payload.Title
	review.Rating = payload.Rating
	review.Content = payload.Content

	if err := s.db.Omit(clause.Associations).Save(&review).Error; err != nil {
		return review, fmt.Errorf("unable to update review: %v", err)
	}
	return review, nil
}

func (s *ReviewService) DeleteReview(review models.Review) error {
	if err := s.db.Delete(&review).Error; err != nil {
		return fmt.Errorf("unable to delete review: %v", err)
	}
	return nil
}
