package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	pkg "github.com/bibliofeed/bibliofeed/pkg/internal"
	"github.com/bibliofeed/bibliofeed/pkg/internal/cache"
	"github.com/bibliofeed/bibliofeed/pkg/internal/database"
	"github.com/bibliofeed/bibliofeed/pkg/internal/http"
	"github.com/bibliofeed/bibliofeed/pkg/internal/http/api"
	"github.com/bibliofeed/bibliofeed/pkg/internal/services"
	"github.com/bibliofeed/bibliofeed/pkg/internal/storage"
	"github.com/fatih/color"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	// Booting screen
	fmt.Println(color.YellowString(" ____  _ _     _ _        __               _\n| __ )(_) |__ | (_) ___  / _| ___  ___  __| |\n|  _ \\| | '_ \\| | |/ _ \\| |_ / _ \\/ _ \\/ _` |\n| |_) | | |_) | | | (_) |  _|  __/  __/ (_| |\n|____/|_|_.__/|_|_|\\___/|_|  \\___|\\___|\\__,_|"))
	fmt.Printf("%s v%s\n", color.New(color.FgHiYellow).Add(color.Bold).Sprintf("Bibliofeed"), pkg.AppVersion)
	fmt.Printf("The social book review service\n")
	color.HiBlack("=====================================================\n")

	// Configure settings
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")

	viper.SetDefault("bind", "0.0.0.0:8445")
	viper.SetDefault("database.driver", "postgres")
	viper.SetDefault("storage.uploads", "./uploads")
	viper.SetDefault("cleaner.interval", "@every 60m")
	viper.SetDefault("cleaner.grace", "60m")

	// Load settings
	if err := viper.ReadInConfig(); err != nil {
		logger.Panic().Err(err).Msg("An error occurred when loading settings.")
	}

	// Connect to database
	db, err := database.NewGorm(database.Config{
		Driver: viper.GetString("database.driver"),
		DSN:    viper.GetString("database.dsn"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("An error occurred when connecting to database.")
	}
	if err := database.RunMigration(db); err != nil {
		logger.Fatal().Err(err).Msg("An error occurred when running database auto migration.")
	}

	// Local cache
	cacheStore, err := cache.NewStore()
	if err != nil {
		logger.Fatal().Err(err).Msg("An error occurred when initializing local cache.")
	}

	// Image store
	store, err := storage.NewStore(viper.GetString("storage.uploads"), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("An error occurred when initializing image storage.")
	}

	// Services
	accounts := services.NewAccountService(db, logger)
	subscriptions := services.NewSubscriptionService(db, accounts, cacheStore, logger)
	tickets := services.NewTicketService(db, store, logger)
	reviews := services.NewReviewService(db, logger)
	workflow := services.NewWorkflowService(db, store, logger)
	feed := services.NewFeedService(db, subscriptions, logger)
	cleaner := services.NewCleanupService(db, store, viper.GetDuration("cleaner.grace"), logger)

	// Configure timed tasks
	quartz := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&logger)))
	quartz.AddFunc(viper.GetString("cleaner.interval"), cleaner.SweepOrphanImages)
	quartz.Start()

	// Server
	server := http.NewServer(&api.Controller{
		Accounts:      accounts,
		Subscriptions: subscriptions,
		Tickets:       tickets,
		Reviews:       reviews,
		Workflow:      workflow,
		Feed:          feed,
		Store:         store,
		Logger:        logger,
	}, accounts, logger)
	go server.Listen(viper.GetString("bind"))

	// Messages
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	quartz.Stop()
	if err := server.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("An error occurred when shutting down http server.")
	}
}
