package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())

	var captured string
	app.Get("/ping", func(c *fiber.Ctx) error {
		captured, _ = c.Locals(RequestIDLocalKey).(string)
		return c.SendString("pong")
	})

	req := httptest.NewRequest(fiber.MethodGet, "/ping", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	header := resp.Header.Get(RequestIDHeader)
	assert.NotEmpty(t, header)
	assert.Equal(t, header, captured)

	_, parseErr := uuid.Parse(header)
	assert.NoError(t, parseErr)
}

func TestRequestID_PreservesIncoming(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})

	req := httptest.NewRequest(fiber.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "incoming-id-123")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "incoming-id-123", resp.Header.Get(RequestIDHeader))
}

func TestLogger_RecordsRequestFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	app := fiber.New()
	app.Use(RequestID())
	app.Use(Logger(log))
	app.Get("/client/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(fiber.MethodGet, "/client/42", nil)
	req.Header.Set(RequestIDHeader, "req-1")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "http_request", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, fiber.MethodGet, fields["method"])
	assert.Equal(t, "/client/42", fields["path"])
	assert.Equal(t, int64(fiber.StatusOK), fields["status"])
}
