package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/suportebot/helpdesk/internal/observability"
	"github.com/suportebot/helpdesk/pkg/util"
)

func testApp() (*fiber.App, *observability.Metrics) {
	app := fiber.New()
	metrics := observability.NewMetrics()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 5*time.Second)
	return app, metrics
}

func decodeBody(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&payload))
	return payload
}

func TestErrorEnvelope(t *testing.T) {
	app, metrics := testApp()
	app.Get("/boom", func(_ *fiber.Ctx) error {
		return util.NewNotFound("Chamado", nil)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 404, resp.StatusCode)
	payload := decodeBody(t, resp.Body)
	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "Chamado não encontrado", payload["message"])

	snapshot := metrics.Snapshot()
	assert.Equal(t, int64(1), snapshot["http_errors_NOT_FOUND"])
}

func TestErrorEnvelopeIncludesDetails(t *testing.T) {
	app, _ := testApp()
	app.Get("/invalid", func(_ *fiber.Ctx) error {
		return util.NewValidationError("Dados inválidos", map[string]any{"campo": "titulo"})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/invalid", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 400, resp.StatusCode)
	payload := decodeBody(t, resp.Body)
	details, ok := payload["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "titulo", details["campo"])
}

func TestPanicBecomesInternalError(t *testing.T) {
	app, _ := testApp()
	app.Get("/panic", func(_ *fiber.Ctx) error {
		panic("unexpected")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/panic", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 500, resp.StatusCode)
	payload := decodeBody(t, resp.Body)
	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "Erro interno do servidor. Tente novamente.", payload["message"])
}

type stubLimiter struct {
	counts map[string]int
}

func (l *stubLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if l.counts == nil {
		l.counts = make(map[string]int)
	}
	l.counts[key]++
	return l.counts[key] <= limit, nil
}

func TestRateLimitCapsPerAddress(t *testing.T) {
	app, _ := testApp()
	app.Use(RateLimit(&stubLimiter{}, 2, time.Hour))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, 200, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 429, resp.StatusCode)
	payload := decodeBody(t, resp.Body)
	assert.Equal(t, false, payload["success"])

	// Health probes stay reachable past the limit.
	probe, err := app.Test(httptest.NewRequest("GET", "/health/live", nil))
	require.NoError(t, err)
	probe.Body.Close()
	assert.Equal(t, 200, probe.StatusCode)
}

func TestSuccessPassesThrough(t *testing.T) {
	app, _ := testApp()
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	payload := decodeBody(t, resp.Body)
	assert.Equal(t, true, payload["success"])
}
