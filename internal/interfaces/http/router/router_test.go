package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/returns/backend/internal/infrastructure/auth"
	"github.com/returns/backend/internal/infrastructure/config"
	"github.com/returns/backend/internal/interfaces/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestEngine builds the full route tree. Handlers have no backing
// services; requests stop at the middleware under test.
func newTestEngine() *gin.Engine {
	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{
			Secret:                "router-test-secret",
			AccessTokenExpiration: time.Hour,
			Issuer:                "test",
		},
	}
	jwtService := auth.NewJWTService(cfg.JWT)
	handlers := Handlers{
		Returns: handler.NewReturnRequestHandler(nil),
		Orders:  handler.NewOrderHandler(nil, nil),
		Webhook: handler.NewWebhookHandler(nil, "router-webhook-secret"),
		System:  handler.NewSystemHandler(nil),
	}
	return New(cfg, zap.NewNop(), jwtService, handlers).Setup()
}

func TestHealthRouteIsPublic(t *testing.T) {
	engine := newTestEngine()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStoreRoutesRequireAuth(t *testing.T) {
	engine := newTestEngine()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/store/return-requests"},
		{http.MethodGet, "/store/return-requests"},
		{http.MethodGet, "/store/return-requests/123"},
		{http.MethodPost, "/store/orders/123/cancel"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(rt.method, rt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	engine := newTestEngine()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "router-test-secret",
		AccessTokenExpiration: time.Hour,
		Issuer:                "test",
	})
	token, _, err := jwtService.GenerateToken(uuid.New(), auth.RoleCustomer)
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/return-requests", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWebhookRouteRejectsMissingSecret(t *testing.T) {
	// The configured secret is non-empty, so a request without the
	// x-shiprocket-webhook-secret header is turned away.
	engine := newTestEngine()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/custom/shiprocket/webhook", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnknownRouteIs404(t *testing.T) {
	engine := newTestEngine()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
