package middleware

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kanban-board/internal/service"
	"kanban-board/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testApp(tokens *service.TokenIssuer) *fiber.App {
	log := logger.NewNop()
	app := fiber.New()
	app.Use(ErrorHandler(log))
	app.Use(RequestLogger(log))
	whoami := func(c *fiber.Ctx) error { return c.SendString(UserID(c)) }
	app.Get("/private", UseToken(tokens, log), whoami)
	app.Get("/socket", UseSocketToken(tokens, log), whoami)
	app.Get("/panic", func(c *fiber.Ctx) error { panic("boom") })
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestUseToken(t *testing.T) {
	tokens := service.NewTokenIssuer("secret", time.Hour)
	app := testApp(tokens)
	token, err := tokens.Issue("u1", "u1@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	status, body := do(t, app, req)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "u1", body)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing", "", "No token provided"},
		{"wrong scheme", "Basic " + token, "Invalid token format"},
		{"extra parts", "Bearer a b", "Invalid token format"},
		{"bad token", "Bearer nope", "Invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			status, body := do(t, app, req)
			assert.Equal(t, http.StatusUnauthorized, status)
			var env map[string]any
			require.NoError(t, json.Unmarshal([]byte(body), &env))
			assert.Equal(t, tt.want, env["message"])
			assert.Equal(t, false, env["success"])
		})
	}
}

func TestUseSocketToken(t *testing.T) {
	tokens := service.NewTokenIssuer("secret", time.Hour)
	app := testApp(tokens)
	token, err := tokens.Issue("u2", "u2@example.com")
	require.NoError(t, err)

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/socket?token="+token, nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "u2", body)

	status, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/socket", nil))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestErrorHandlerRecoversPanics(t *testing.T) {
	app := testApp(service.NewTokenIssuer("secret", time.Hour))
	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.JSONEq(t, `{"message":"Internal server error","success":false,"status":500}`, body)
}

func TestRequestLoggerOmitsQueryToken(t *testing.T) {
	tokens := service.NewTokenIssuer("secret", time.Hour)
	core, logs := observer.New(zap.InfoLevel)
	log := logger.NewNop()
	log.Request = zap.New(core)

	app := fiber.New()
	app.Use(RequestLogger(log))
	app.Get("/ws", UseSocketToken(tokens, log), func(c *fiber.Ctx) error { return c.SendString(UserID(c)) })

	token, err := tokens.Issue("u3", "u3@example.com")
	require.NoError(t, err)
	status, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
	require.Equal(t, http.StatusOK, status)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/ws", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	for _, v := range fields {
		assert.NotContains(t, fmt.Sprint(v), token)
	}
}
