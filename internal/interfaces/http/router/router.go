package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/returns/backend/internal/infrastructure/auth"
	"github.com/returns/backend/internal/infrastructure/config"
	"github.com/returns/backend/internal/infrastructure/logger"
	"github.com/returns/backend/internal/interfaces/http/handler"
	"github.com/returns/backend/internal/interfaces/http/middleware"
)

// Handlers bundles everything the router mounts
type Handlers struct {
	Returns *handler.ReturnRequestHandler
	Orders  *handler.OrderHandler
	Webhook *handler.WebhookHandler
	System  *handler.SystemHandler
}

// Router wires HTTP routes onto a gin engine
type Router struct {
	cfg        *config.Config
	log        *zap.Logger
	jwtService *auth.JWTService
	handlers   Handlers
}

// New creates a new Router
func New(cfg *config.Config, log *zap.Logger, jwtService *auth.JWTService, handlers Handlers) *Router {
	return &Router{
		cfg:        cfg,
		log:        log,
		jwtService: jwtService,
		handlers:   handlers,
	}
}

// Setup builds the gin engine with all middleware and routes
func (r *Router) Setup() *gin.Engine {
	if r.cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(r.cfg.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(r.cfg.HTTP.TrustedProxies)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(r.log))
	engine.Use(logger.Recovery(r.log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())
	if r.cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(r.cfg.HTTP.MaxBodySize))
	}

	engine.GET("/health", r.handlers.System.Health)

	store := engine.Group("/store",
		middleware.RequireAuth(r.jwtService),
		middleware.RequireRole(auth.RoleCustomer))
	{
		store.POST("/return-requests", r.handlers.Returns.Create)
		store.GET("/return-requests", r.handlers.Returns.ListOwn)
		store.GET("/return-requests/:id", r.handlers.Returns.GetOwn)
		store.POST("/orders/:id/cancel", r.handlers.Orders.Cancel)
	}

	admin := engine.Group("/admin",
		middleware.RequireAuth(r.jwtService),
		middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/return-requests", r.handlers.Returns.List)
		admin.GET("/return-requests/:id", r.handlers.Returns.GetByID)
		admin.POST("/return-requests/:id/approve", r.handlers.Returns.Approve)
		admin.POST("/return-requests/:id/reject", r.handlers.Returns.Reject)
		admin.POST("/return-requests/:id/initiate-pickup", r.handlers.Returns.InitiatePickup)
		admin.POST("/return-requests/:id/mark-received", r.handlers.Returns.MarkReceived)
		admin.POST("/return-requests/:id/mark-refunded", r.handlers.Returns.MarkRefunded)
		admin.POST("/orders/:id/ship", r.handlers.Orders.Ship)
		admin.GET("/shipments/track/:awb", r.handlers.Orders.Track)
	}

	// Webhooks authenticate with a shared secret, not JWT.
	engine.POST("/custom/shiprocket/webhook", r.handlers.Webhook.Receive)

	return engine
}
