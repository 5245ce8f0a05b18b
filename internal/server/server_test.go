package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pr-poehali-dev/messenger-design-project/config"
	"github.com/pr-poehali-dev/messenger-design-project/internal/handler"
	"github.com/pr-poehali-dev/messenger-design-project/internal/services"
	"github.com/pr-poehali-dev/messenger-design-project/internal/testutil"
	"github.com/pr-poehali-dev/messenger-design-project/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestServer(t *testing.T, checks map[string]HealthCheck) http.Handler {
	t.Helper()
	cfg := &config.Config{AppMode: TestMode, AppPort: "0", BcryptCost: bcrypt.MinCost}
	store := testutil.NewMemoryStore()

	srv := New(cfg, logger.NewNop())
	srv.SetupRoutes(&Handlers{
		Auth:     handler.NewAuthHandler(services.NewAuthService(store, cfg, nil, logger.NewNop())),
		Chats:    handler.NewChatHandler(services.NewChatService(store)),
		Messages: handler.NewMessageHandler(services.NewMessageService(store)),
	}, checks)
	return srv.Handler()
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_Preflight(t *testing.T) {
	h := newTestServer(t, nil)

	for _, path := range []string{"/auth", "/chats", "/messages"} {
		w := serve(h, http.MethodOptions, path, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Empty(t, w.Body.String(), path)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"), path)
		assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"), path)
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	h := newTestServer(t, nil)

	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
		w := serve(h, method, "/messages", "")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestServer_EndToEnd(t *testing.T) {
	h := newTestServer(t, nil)

	w := serve(h, http.MethodPost, "/auth", `{"action":"register","email":"a@example.com","username":"a","password":"p"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(h, http.MethodGet, "/chats?user_id=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"chats":[]}`, w.Body.String())
}

func TestServer_Health(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	w := serve(newTestServer(t, map[string]HealthCheck{"database": ok}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","checks":{"database":"ok"}}`, w.Body.String())

	w = serve(newTestServer(t, map[string]HealthCheck{"database": ok, "redis": down}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"database":"ok","redis":"connection refused"}}`, w.Body.String())
}

func TestServer_PingAndMetrics(t *testing.T) {
	h := newTestServer(t, nil)

	w := serve(h, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())

	w = serve(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "messenger_http_requests_total")
}
