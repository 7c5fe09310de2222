package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/bibliofeed/bibliofeed/pkg/internal/models"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

const (
	FeedEntryTicket = "ticket"
	FeedEntryReview = "review"
)

// FeedEntry is the tagged union the feed is made of. Data holds the concrete
// entity so callers can render type-specific affordances; CreatedAt is the
// shared sort key.
type FeedEntry struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	CreatedAt time.Time `json:"created_at"`

	// tie-break for entries created in the same instant
	id uint
}

// FeedService merges tickets and reviews into one chronological sequence per
// viewer. The merge happens in memory over separately bounded queries, so
// page boundaries across the mixed types are approximate; the cursor keeps
// successive pages consistent enough for display.
type FeedService struct {
	db            *gorm.DB
	subscriptions *SubscriptionService
	logger        zerolog.Logger
}

func NewFeedService(db *gorm.DB, subscriptions *SubscriptionService, logger zerolog.Logger) *FeedService {
	return &FeedService{db: db, subscriptions: subscriptions, logger: logger}
}

// ListOwnPosts is the viewer's own wall: their tickets and their reviews,
// newest first.
func (s *FeedService) ListOwnPosts(viewer models.Account, limit int, cursor *time.Time) ([]FeedEntry, error) {
	var feed []FeedEntry

	tickets, err := s.listTickets(s.ticketScope([]uint{viewer.ID}, cursor), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load own tickets: %v", err)
	}
	feed = append(feed, tickets...)

	reviews, err := s.listReviews(s.reviewScope([]uint{viewer.ID}, cursor), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load own reviews: %v", err)
	}
	feed = append(feed, reviews...)

	return sortAndClip(feed, limit), nil
}

// GetFeed is the subscription view: everything posted by the viewer and the
// accounts they follow, plus reviews that answer the viewer's own tickets
// even when their author is not followed. Followed authors are excluded from
// the reply set so those reviews are not counted twice.
func (s *FeedService) GetFeed(viewer models.Account, limit int, cursor *time.Time) ([]FeedEntry, error) {
	followed, err := s.subscriptions.ListFollowedIDs(viewer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve followed set: %v", err)
	}
	authors := append([]uint{viewer.ID}, followed...)

	var feed []FeedEntry

	tickets, err := s.listTickets(s.ticketScope(authors, cursor), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets: %v", err)
	}
	feed = append(feed, tickets...)

	reviews, err := s.listReviews(s.reviewScope(authors, cursor), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %v", err)
	}
	feed = append(feed, reviews...)

	replies, err := s.listReviews(s.replyScope(viewer.ID, authors, cursor), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load replies to own tickets: %v", err)
	}
	feed = append(feed, replies...)

	return sortAndClip(feed, limit), nil
}

func (s *FeedService) ticketScope(authors []uint, cursor *time.Time) *gorm.DB {
	tx := s.db.Where("account_id IN ?", authors)
	if cursor != nil {
		tx = tx.Where("created_at < ?", *cursor)
	}
	return tx
}

func (s *FeedService) reviewScope(authors []uint, cursor *time.Time) *gorm.DB {
	tx := s.db.Where("reviews.account_id IN ?", authors)
	if cursor != nil {
		tx = tx.Where("reviews.created_at < ?", *cursor)
	}
	return tx
}

// replyScope selects reviews written on the viewer's tickets by authors the
// viewer does not already see via subscriptions.
func (s *FeedService) replyScope(viewerID uint, followedAuthors []uint, cursor *time.Time) *gorm.DB {
	tx := s.db.
		Joins("JOIN tickets ON tickets.id = reviews.ticket_id").
		Where("tickets.account_id = ?", viewerID).
		Where("reviews.account_id NOT IN ?", followedAuthors)
	if cursor != nil {
		tx = tx.Where("reviews.created_at < ?", *cursor)
	}
	return tx
}

func (s *FeedService) listTickets(tx *gorm.DB, limit int) ([]FeedEntry, error) {
	var tickets []models.Ticket
	if err := tx.
		Preload("Account").Preload("Review").
		Order("created_at DESC").
		Limit(normalizeFeedLimit(limit)).
		Find(&tickets).Error; err != nil {
		return nil, err
	}

	return lo.Map(tickets, func(ticket models.Ticket, _ int) FeedEntry {
		return FeedEntry{
			Type:      FeedEntryTicket,
			Data:      ticket,
			CreatedAt: ticket.CreatedAt,
			id:        ticket.ID,
		}
	}), nil
}

func (s *FeedService) listReviews(tx *gorm.DB, limit int) ([]FeedEntry, error) {
	var reviews []models.Review
	if err := tx.Model(&models.Review{}).
		Preload("Account").Preload("Ticket").Preload("Ticket.Account").
		Order("reviews.created_at DESC").
		Limit(normalizeFeedLimit(limit)).
		Find(&reviews).Error; err != nil {
		return nil, err
	}

	return lo.Map(reviews, func(review models.Review, _ int) FeedEntry {
		return FeedEntry{
			Type:      FeedEntryReview,
			Data:      review,
			CreatedAt: review.CreatedAt,
			id:        review.ID,
		}
	}), nil
}

// sortAndClip orders the merged sequence newest first, ties broken by id
// descending so the order is total and stable across requests.
func sortAndClip(feed []FeedEntry, limit int) []FeedEntry {
	sort.Slice(feed, func(i, j int) bool {
		if !feed[i].CreatedAt.Equal(feed[j].CreatedAt) {
			return feed[i].CreatedAt.After(feed[j].CreatedAt)
		}
		return feed[i].id > feed[j].id
	})

	if limit > 0 && len(feed) > limit {
		feed = feed[:limit]
	}
	return feed
}

func normalizeFeedLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}
