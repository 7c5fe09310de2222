package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bibliofeed/bibliofeed/pkg/internal/cache"
	"github.com/bibliofeed/bibliofeed/pkg/internal/database"
	"github.com/bibliofeed/bibliofeed/pkg/internal/http/api"
	"github.com/bibliofeed/bibliofeed/pkg/internal/models"
	"github.com/bibliofeed/bibliofeed/pkg/internal/services"
	"github.com/bibliofeed/bibliofeed/pkg/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverEnv struct {
	server *App
	store  *storage.Store
}

func newTestServer(t *testing.T) *serverEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.NewGorm(database.Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, database.RunMigration(db))

	cacheStore, err := cache.NewStore()
	require.NoError(t, err)

	logger := zerolog.Nop()
	store, err := storage.NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	accounts := services.NewAccountService(db, logger)
	subscriptions := services.NewSubscriptionService(db, accounts, cacheStore, logger)

	ctrl := &api.Controller{
		Accounts:      accounts,
		Subscriptions: subscriptions,
		Tickets:       services.NewTicketService(db, store, logger),
		Reviews:       services.NewReviewService(db, logger),
		Workflow:      services.NewWorkflowService(db, store, logger),
		Feed:          services.NewFeedService(db, subscriptions, logger),
		Store:         store,
		Logger:        logger,
	}

	return &serverEnv{server: NewServer(ctrl, accounts, logger), store: store}
}

func TestAnonymousRequestsAreRejected(t *testing.T) {
	env := newTestServer(t)

	for _, path := range []string{"/api/tickets", "/api/feed", "/api/subscriptions/following"} {
		resp, err := env.server.app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestGatewayIdentityReachesHandlers(t *testing.T) {
	env := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/tickets", nil)
	req.Header.Set("X-Account-Name", "alice")
	req.Header.Set("X-Account-Nick", "Alice")

	resp, err := env.server.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Zero(t, body.Count)
}

func TestCreateTicketWithReviewAcceptsMultipartImage(t *testing.T) {
	env := newTestServer(t)

	img := image.NewRGBA(image.Rect(0, 0, 800, 600))
	for x := 0; x < 800; x += 40 {
		for y := 0; y < 600; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var encoded bytes.Buffer
	require.NoError(t, png.Encode(&encoded, img))

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	require.NoError(t, writer.WriteField("title", "The Left Hand of Darkness"))
	require.NoError(t, writer.WriteField("description", "is the cover edition worth it?"))
	require.NoError(t, writer.WriteField("review_title", "Absolutely"))
	require.NoError(t, writer.WriteField("rating", "5"))
	require.NoError(t, writer.WriteField("content", "the edition holds up"))
	part, err := writer.CreateFormFile("image", "cover.png")
	require.NoError(t, err)
	_, err = part.Write(encoded.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/tickets/with-review", &form)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Account-Name", "alice")

	resp, err := env.server.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Ticket models.Ticket `json:"ticket"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Ticket.Image)
	require.FileExists(t, env.store.Path(*body.Ticket.Image))
	require.NotNil(t, body.Ticket.Review)
	assert.Equal(t, 5, body.Ticket.Review.Rating)
}

func TestWithReviewCardinalityMessage(t *testing.T) {
	env := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/tickets/with-review",
		strings.NewReader(`{"ticket":{"title":"Lonely ticket"}}`))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	req.Header.Set("X-Account-Name", "alice")

	resp, err := env.server.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "reviews: this field is required")
}
