package services

import (
	"time"

	"github.com/bibliofeed/bibliofeed/pkg/internal/models"
	"github.com/bibliofeed/bibliofeed/pkg/internal/storage"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// CleanupService reclaims image files no ticket references anymore, for
// example when a request died between the file write and the row commit.
// The grace period keeps the sweeper away from files an in-flight request
// wrote but whose ticket row has not committed yet.
type CleanupService struct {
	db     *gorm.DB
	store  *storage.Store
	grace  time.Duration
	logger zerolog.Logger
}

func NewCleanupService(db *gorm.DB, store *storage.Store, grace time.Duration, logger zerolog.Logger) *CleanupService {
	return &CleanupService{db: db, store: store, grace: grace, logger: logger}
}

func (s *CleanupService) SweepOrphanImages() {
	var referenced []string
	if err := s.db.Model(&models.Ticket{}).
		Where("image IS NOT NULL").
		Pluck("image", &referenced).Error; err != nil {
		s.logger.Error().Err(err).Msg("An error occurred when listing referenced images...")
		return
	}

	removed, err := s.store.Sweep(referenced, s.grace)
	if err != nil {
		s.logger.Error().Err(err).Msg("An error occurred when sweeping orphan images...")
		return
	}
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("Swept orphan ticket images.")
	}
}
