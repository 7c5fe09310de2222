package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bibliofeed/bibliofeed/pkg/internal/models"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

const followedSetTTL = 5 * time.Minute

// SubscriptionService owns the directed follow graph between accounts.
type SubscriptionService struct {
	db       *gorm.DB
	accounts *AccountService
	marshal  *marshaler.Marshaler
	logger   zerolog.Logger
}

func NewSubscriptionService(db *gorm.DB, accounts *AccountService, cacheStore store.StoreInterface, logger zerolog.Logger) *SubscriptionService {
	return &SubscriptionService{
		db:       db,
		accounts: accounts,
		marshal:  marshaler.New(cache.New[any](cacheStore)),
		logger:   logger,
	}
}

// Follow resolves the target by username and creates the edge. The checks
// run in a fixed order and the first failure wins: unknown user, then
// self-follow, then an already existing edge. The composite unique index
// still backstops the race between two concurrent follows; a constraint hit
// comes back as ErrDuplicateSubscription.
func (s *SubscriptionService) Follow(follower models.Account, targetName string) (models.Subscription, error) {
	var subscription models.Subscription

	target, err := s.accounts.GetAccountWithName(targetName)
	if err != nil {
		s.logger.Warn().Str("follower", follower.Name).Str("target", targetName).
			Msg("Attempt to follow an unknown user...")
		return subscription, err
	}

	if target.ID == follower.ID {
		s.logger.Warn().Str("follower", follower.Name).Msg("Attempt to follow itself...")
		return subscription, ErrSelfFollow
	}

	if err := s.db.Where("follower_id = ? AND followed_id = ?", follower.ID, target.ID).
		First(&subscription).Error; err == nil {
		return subscription, ErrAlreadyFollowing
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return subscription, fmt.Errorf("unable to check subscription is exists or not: %v", err)
	}

	subscription = models.Subscription{
		FollowerID: follower.ID,
		FollowedID: target.ID,
	}

	if err := s.db.Create(&subscription).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return subscription, ErrDuplicateSubscription
		}
		return subscription, fmt.Errorf("unable to create subscription: %v", err)
	}

	s.invalidateFollowedSet(follower.ID)
	s.logger.Info().Str("follower", follower.Name).Str("target", target.Name).
		Msg("Subscription created.")

	return subscription, nil
}

// Unfollow removes the edge when present and succeeds either way; deletion
// is set-removal, not record-must-exist. Scoped to the follower so nobody
// can drop someone else's edge.
func (s *SubscriptionService) Unfollow(follower models.Account, target models.Account) error {
	if err := s.db.Where("follower_id = ? AND followed_id = ?", follower.ID, target.ID).
		Delete(&models.Subscription{}).Error; err != nil {
		return fmt.Errorf("unable to remove subscription: %v", err)
	}

	s.invalidateFollowedSet(follower.ID)
	return nil
}

func (s *SubscriptionService) ListFollowing(user models.Account) ([]models.Subscription, error) {
	var subscriptions []models.Subscription
	if err := s.db.Where("follower_id = ?", user.ID).
		Order("id ASC").
		Preload("Followed").
		Find(&subscriptions).Error; err != nil {
		return nil, fmt.Errorf("unable to list following: %v", err)
	}
	return subscriptions, nil
}

func (s *SubscriptionService) ListFollowers(user models.Account) ([]models.Subscription, error) {
	var subscriptions []models.Subscription
	if err := s.db.Where("followed_id = ?", user.ID).
		Order("id ASC").
		Preload("Follower").
		Find(&subscriptions).Error; err != nil {
		return nil, fmt.Errorf("unable to list followers: %v", err)
	}
	return subscriptions, nil
}

// ListFollowedIDs returns the set of account ids the viewer follows, memoized
// for a short window since the feed recomputes it on every request.
func (s *SubscriptionService) ListFollowedIDs(viewer models.Account) ([]uint, error) {
	ctx := context.Background()
	cacheKey := followedSetCacheKey(viewer.ID)

	if cached, err := s.marshal.Get(ctx, cacheKey, new([]uint)); err == nil {
		return *cached.(*[]uint), nil
	}

	var subscriptions []models.Subscription
	if err := s.db.Where("follower_id = ?", viewer.ID).Find(&subscriptions).Error; err != nil {
		return nil, fmt.Errorf("unable to list followed ids: %v", err)
	}

	ids := lo.Map(subscriptions, func(item models.Subscription, _ int) uint {
		return item.FollowedID
	})

	_ = s.marshal.Set(ctx, cacheKey, ids, store.WithExpiration(followedSetTTL))

	return ids, nil
}

func (s *SubscriptionService) invalidateFollowedSet(followerID uint) {
	if err := s.marshal.Delete(context.Background(), followedSetCacheKey(followerID)); err != nil {
		s.logger.Debug().Err(err).Uint("follower", followerID).
			Msg("Unable to invalidate followed set cache...")
	}
}

func followedSetCacheKey(followerID uint) string {
	return fmt.Sprintf("feed-followed-set#%d", followerID)
}
