package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/sweet-shop/internal/api/http/handlers"
	"github.com/spec-kit/sweet-shop/internal/auth"
	"github.com/spec-kit/sweet-shop/internal/config"
	"github.com/spec-kit/sweet-shop/internal/events"
	"github.com/spec-kit/sweet-shop/internal/observability"
	"github.com/spec-kit/sweet-shop/internal/repository"
	"github.com/spec-kit/sweet-shop/internal/service"
)

func newTestServer(t *testing.T, rateLimit config.RateLimitConfig) *fiber.App {
	t.Helper()
	logger := zap.NewNop()
	authCfg := config.AuthConfig{
		AccessSecret:          "test-access",
		RefreshSecret:         "test-refresh",
		AccessTokenTTLMinutes: 15,
		RefreshTokenTTLDays:   7,
		BcryptCost:            bcrypt.MinCost,
		AllowRoleSignup:       true,
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	service.NewStockAlertService(dispatcher, logger, metrics, config.InventoryConfig{LowStockThreshold: 1}).RegisterHandlers()

	authService := service.NewAuthService(authCfg, service.AuthDependencies{
		UserRepo: repository.NewMemoryUserRepository(),
		Logger:   logger,
	})
	inventory := service.NewInventoryService(repository.NewMemorySweetRepository(), dispatcher, logger)

	return NewApp("Sweet Shop Test",
		MiddlewareConfig{
			Logger:    logger,
			Metrics:   metrics,
			RateLimit: rateLimit,
			CORS:      config.CORSConfig{AllowOrigins: []string{"http://localhost:3000"}},
		},
		RouteConfig{
			Health:         handlers.NewHealthHandler("Sweet Shop Test", "test", nil, nil),
			Auth:           handlers.NewAuthHandler(authService),
			Sweets:         handlers.NewSweetsHandler(inventory),
			AuthMiddleware: auth.NewAuthMiddleware(authService),
			Metrics:        metrics.Handler(),
		},
	)
}

type apiResponse struct {
	status int
	body   []byte
}

func (r apiResponse) object(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (r apiResponse) list(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) apiResponse {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return apiResponse{status: resp.StatusCode, body: raw}
}

func register(t *testing.T, app *fiber.App, name, email, role string) string {
	t.Helper()
	resp := call(t, app, http.MethodPost, "/auth/register", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": "password123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	return resp.object(t)["access_token"].(string)
}

func createSweet(t *testing.T, app *fiber.App, token string, body map[string]any) map[string]any {
	t.Helper()
	resp := call(t, app, http.MethodPost, "/sweets", token, body)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	return resp.object(t)
}

func TestRegisterAndLogin(t *testing.T) {
	app := newTestServer(t, config.RateLimitConfig{})

	resp := call(t, app, http.MethodPost, "/auth/register", "", map[string]any{
		"name": "Ann", "email": "ann@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.status)
	body := resp.object(t)
	assert.Equal(t, "bearer", body["token_type"])
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "ann@example.com", user["email"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, user, "password_hash")

	dup := call(t, app, http.MethodPost, "/auth/register", "", map[string]any{
		"name": "Ann", "email": "ann@example.com", "password": "password456",
	})
	assert.Equal(t, http.StatusBadRequest, dup.status)
	assert.Equal(t, "Email already registered", dup.object(t)["detail"])

	login := call(t, app, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "ann@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, login.status)
	token := login.object(t)["access_token"].(string)

	me := call(t, app, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, me.status)
	assert.Equal(t, "ann@example.com", me.object(t)["email"])

	wrong := call(t, app, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "ann@example.com", "password": "not-the-password",
	})
	unknown := call(t, app, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "ghost@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, wrong.status)
	assert.Equal(t, http.StatusUnauthorized, unknown.status)
	assert.Equal(t, wrong.body, unknown.body)
}

func TestRegisterValidation(t *testing.T) {
	app := newTestServer(t, config.RateLimitConfig{})

	resp := call(t, app, http.MethodPost, "/auth/register", "", map[string]any{
		"name": "Ann", "email": "not-an-email", "password": "short",
	})
	require.Equal(t, http.StatusBadRequest, resp.status)
	body := resp.object(t)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")

	malformed := call(t, app, http.MethodPost, "/auth/register", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, malformed.status)

	// 40 runes but 80 bytes.
	multibyte := call(t, app, http.MethodPost, "/auth/register", "", map[string]any{
		"name": "Ann", "email": "ann@example.com", "password": strings.Repeat("é", 40),
	})
	require.Equal(t, http.StatusBadRequest, multibyte.status)
	assert.Equal(t, "VALIDATION_FAILED", multibyte.object(t)["code"])
	assert.Equal(t, "Password must not exceed 72 bytes", multibyte.object(t)["detail"])
}

func TestRefreshToken(t *testing.T) {
	app := newTestServer(t, config.RateLimitConfig{})
	resp := call(t, app, http.MethodPost, "/auth/register", "", map[string]any{
		"name": "Ann", "email": "ann@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.status)
	body := resp.object(t)

	refreshed := call(t, app, http.MethodPost, "/auth/refresh", "", map[string]any{
		"refresh_token": body["refresh_token"],
	})
	require.Equal(t, http.StatusOK, refreshed.status)

	rejected := call(t, app, http.MethodPost, "/auth/refresh", "", map[string]any{
		"refresh_token": body["access_token"],
	})
	assert.Equal(t, http.StatusUnauthorized, rejected.status)

	asAccess := call(t, app, http.MethodGet, "/auth/me", body["refresh_token"].(string), nil)
	assert.Equal(t, http.StatusUnauthorized, asAccess.status)
}

func TestPurchaseFlow(t *testing.T) {
	app := newTestServer(t, config.RateLimitConfig{})
	adminToken := register(t, app, "Root", "root@example.com", "admin")
	userToken := register(t, app, "Ann", "ann@example.com", "")

	sweet := createSweet(t, app, adminToken, map[string]any{
		"name": "Fudge", "category": "Candy", "price": 2.5, "quantity": 1,
	})
	id := sweet["id"].(string)
	assert.Nil(t, sweet["description"])

	bought := call(t, app, http.MethodPost, "/sweets/"+id+"/purchase", userToken, nil)
	require.Equal(t, http.StatusOK, bought.status)
	assert.EqualValues(t, 0, bought.object(t)["quantity"])

	again := call(t, app, http.MethodPost, "/sweets/"+id+"/purchase", userToken, nil)
	require.Equal(t, http.StatusBadRequest, again.status)
	assert.Equal(t, "Sweet is out of stock", again.object(t)["detail"])

	anonymous := call(t, app, http.MethodPost, "/sweets/"+id+"/purchase", "", nil)
	assert.Equal(t, http.StatusUnauthorized, anonymous.status)

	missing := call(t, app, http.MethodPost, "/sweets/does-not-exist/purchase", userToken, nil)
	assert.Equal(t, http.StatusNotFound, missing.status)

	forbidden := call(t, app, http.MethodPost, "/sweets/"+id+"/restock", userToken, map[string]any{"quantity": 5})
	assert.Equal(t, http.StatusForbidden, forbidden.status)

	invalid := call(t, app, http.MethodPost, "/sweets/"+id+"/restock", adminToken, map[string]any{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, invalid.status)

	oversized := call(t, app, http.MethodPost, "/sweets/"+id+"/restock", adminToken, map[string]any{"quantity": int64(1) << 40})
	require.Equal(t, http.StatusBadRequest, oversized.status)
	assert.Equal(t, "VALIDATION_FAILED", oversized.object(t)["code"])

	restocked := call(t, app, http.MethodPost, "/sweets/"+id+"/restock", adminToken, map[string]any{"quantity": 5})
	require.Equal(t, http.StatusOK, restocked.status)
	assert.EqualValues(t, 5, restocked.object(t)["quantity"])
}

func TestSweetAdminGating(t *testing.T) {
	app := newTestServer(t, config.RateLimitConfig{})
	userToken := register(t, app, "Ann", "ann@example.com", "user")
	body := map[string]any{"name": "Fudge", "category": "Candy", "price": 2.5, "quantity": 1}

	assert.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodPost, "/sweets", "", body).status)
	assert.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodPost, "/sweets", "bogus", body).status)

	forbidden := call(t, app, http.MethodPost, "/sweets", userToken, body)
	assert.Equal(t, http.StatusForbidden, forbidden.status)
	assert.Equal(t, "FORBIDDEN", forbidden.object(t)["code"])

	list := call(t, app, http.MethodGet, "/sweets", "", nil)
	require.Equal(t, http.StatusOK, list.status)
	assert.Equal(t, "[]", string(list.body))
}

func TestSweetCRUD(t *testing.T) {
	app := newTestServer(t, config.RateLimitConfig{})
	adminToken := register(t, app, "Root", "root@example.com", "admin")

	invalid := call(t, app, http.MethodPost, "/sweets", adminToken, map[string]any{
		"name": "Fudge", "category": "Candy", "price": -1, "quantity": 1,
	})
	require.Equal(t, http.StatusBadRequest, invalid.status)
	assert.Contains(t, invalid.object(t)["errors"], "price")

	sweet := createSweet(t, app, adminToken, map[string]any{
		"name": "Fudge", "category": "Candy", "description": "rich", "price": 2.5, "quantity": 3,
	})
	id := sweet["id"].(string)

	first := call(t, app, http.MethodGet, "/sweets/"+id, "", nil)
	second := call(t, app, http.MethodGet, "/sweets/"+id, "", nil)
	require.Equal(t, http.StatusOK, first.status)
	assert.Equal(t, first.body, second.body)

	updated := call(t, app, http.MethodPut, "/sweets/"+id, adminToken, map[string]any{"price": 3.0, "name": nil})
	require.Equal(t, http.StatusOK, updated.status)
	got := updated.object(t)
	assert.EqualValues(t, 3.0, got["price"])
	assert.Equal(t, "Fudge", got["name"])
	assert.Equal(t, "rich", got["description"])
	assert.EqualValues(t, 3, got["quantity"])

	cleared := call(t, app, http.MethodPut, "/sweets/"+id, adminToken, map[string]any{"description": ""})
	require.Equal(t, http.StatusOK, cleared.status)
	assert.Nil(t, cleared.object(t)["description"])

	assert.Equal(t, http.StatusNotFound, call(t, app, http.MethodPut, "/sweets/missing", adminToken, map[string]any{"price": 1}).status)

	deleted := call(t, app, http.MethodDelete, "/sweets/"+id, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, deleted.status)
	assert.Empty(t, deleted.body)

	gone := call(t, app, http.MethodGet, "/sweets/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, gone.status)
	assert.Equal(t, "Sweet not found", gone.object(t)["detail"])
	assert.Equal(t, http.StatusNotFound, call(t, app, http.MethodDelete, "/sweets/"+id, adminToken, nil).status)
}

func TestSearch(t *testing.T) {
	app := newTestServer(t, config.RateLimitConfig{})
	adminToken := register(t, app, "Root", "root@example.com", "admin")
	for _, s := range []map[string]any{
		{"name": "Milk Chocolate", "category": "Chocolate", "price": 2.0, "quantity": 5},
		{"name": "Dark Chocolate", "category": "Chocolate", "price": 4.0, "quantity": 5},
		{"name": "Chocolate Fudge", "category": "Candy", "price": 3.0, "quantity": 5},
		{"name": "Lemon Drop", "category": "Candy", "price": 1.0, "quantity": 5},
	} {
		createSweet(t, app, adminToken, s)
	}

	byName := call(t, app, http.MethodGet, "/sweets/search?name=CHOCOLATE", "", nil)
	require.Equal(t, http.StatusOK, byName.status)
	assert.Len(t, byName.list(t), 3)

	combined := call(t, app, http.MethodGet, "/sweets/search?name=chocolate&category=Chocolate&minPrice=3&maxPrice=4", "", nil)
	require.Equal(t, http.StatusOK, combined.status)
	results := combined.list(t)
	require.Len(t, results, 1)
	assert.Equal(t, "Dark Chocolate", results[0]["name"])

	empty := call(t, app, http.MethodGet, "/sweets/search?minPrice=10&maxPrice=1", "", nil)
	require.Equal(t, http.StatusOK, empty.status)
	assert.Equal(t, "[]", string(empty.body))

	bad := call(t, app, http.MethodGet, "/sweets/search?minPrice=cheap", "", nil)
	assert.Equal(t, http.StatusBadRequest, bad.status)

	all := call(t, app, http.MethodGet, "/sweets", "", nil)
	names := []string{}
	for _, s := range all.list(t) {
		names = append(names, s["name"].(string))
	}
	assert.Equal(t, []string{"Milk Chocolate", "Dark Chocolate", "Chocolate Fudge", "Lemon Drop"}, names)
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestServer(t, config.RateLimitConfig{})

	root := call(t, app, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, root.status)
	assert.Equal(t, map[string]any{"status": "ok", "app": "Sweet Shop Test"}, root.object(t))

	ready := call(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, ready.status)

	unknown := call(t, app, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, unknown.status)
	assert.Equal(t, "NOT_FOUND", unknown.object(t)["code"])

	metrics := call(t, app, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, metrics.status)
	assert.Contains(t, string(metrics.body), "sweetshop_http_requests_total")
}

func TestRateLimit(t *testing.T) {
	app := newTestServer(t, config.RateLimitConfig{RPS: 0.001, Burst: 1})

	assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/sweets", "", nil).status)
	limited := call(t, app, http.MethodGet, "/sweets", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, limited.status)
	assert.Equal(t, "RATE_LIMITED", limited.object(t)["code"])
}
