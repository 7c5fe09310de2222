package http

import (
	"github.com/bibliofeed/bibliofeed/pkg/internal/http/api"
	"github.com/bibliofeed/bibliofeed/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
)

type App struct {
	app    *fiber.App
	logger zerolog.Logger
}

func NewServer(ctrl *api.Controller, accounts *services.AccountService, logger zerolog.Logger) *App {
	app := fiber.New(fiber.Config{
		AppName:               "Bibliofeed",
		ServerHeader:          "Bibliofeed",
		DisableStartupMessage: true,
		BodyLimit:             16 * 1024 * 1024,
		JSONEncoder:           jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder:           jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
	})

	app.Use(gatewayAuth(accounts, logger))

	api.MapAPIs(app, ctrl, "/api")

	return &App{app: app, logger: logger}
}

func (s *App) Listen(addr string) {
	if err := s.app.Listen(addr); err != nil {
		s.logger.Fatal().Err(err).Msg("An error occurred when starting http server.")
	}
}

func (s *App) Shutdown() error {
	return s.app.Shutdown()
}

// gatewayAuth consumes the identity the authentication gateway forwards on
// trusted headers and exposes it as the request's current user. No header
// means anonymous; every core handler then fails EnsureAuthenticated.
func gatewayAuth(accounts *services.AccountService, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Get("X-Account-Name")
		if len(name) == 0 {
			return c.Next()
		}

		account, err := accounts.UpsertAccount(name, c.Get("X-Account-Nick"))
		if err != nil {
			logger.Warn().Err(err).Str("name", name).
				Msg("Unable to resolve gateway account, treating request as anonymous...")
			return c.Next()
		}

		c.Locals("user", account)
		return c.Next()
	}
}
