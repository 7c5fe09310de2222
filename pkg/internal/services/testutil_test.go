package services

import (
	"fmt"
	"testing"

	"github.com/bibliofeed/bibliofeed/pkg/internal/cache"
	"github.com/bibliofeed/bibliofeed/pkg/internal/database"
	"github.com/bibliofeed/bibliofeed/pkg/internal/models"
	"github.com/bibliofeed/bibliofeed/pkg/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db            *gorm.DB
	accounts      *AccountService
	subscriptions *SubscriptionService
	tickets       *TicketService
	reviews       *ReviewService
	workflow      *WorkflowService
	feed          *FeedService
	store         *storage.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// one shared-cache memory database per test, so parallel tests never
	// see each other's rows
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.NewGorm(database.Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, database.RunMigration(db))

	cacheStore, err := cache.NewStore()
	require.NoError(t, err)

	logger := zerolog.Nop()

	store, err := storage.NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	accounts := NewAccountService(db, logger)
	subscriptions := NewSubscriptionService(db, accounts, cacheStore, logger)

	return &testEnv{
		db:            db,
		accounts:      accounts,
		subscriptions: subscriptions,
		tickets:       NewTicketService(db, store, logger),
		reviews:       NewReviewService(db, logger),
		workflow:      NewWorkflowService(db, store, logger),
		feed:          NewFeedService(db, subscriptions, logger),
		store:         store,
	}
}

func (env *testEnv) mustAccount(t *testing.T, name string) models.Account {
	t.Helper()
	account := models.Account{Name: name, Nick: name}
	require.NoError(t, env.db.Create(&account).Error)
	return account
}
