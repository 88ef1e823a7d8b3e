package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"coursehub/internal/auth"
	"coursehub/internal/handler"
	"coursehub/internal/hub"
	"coursehub/internal/middleware"
	"coursehub/internal/notify"
)

// Deps is everything the HTTP surface needs. It is built once in main and
// handed to the router; handlers reach shared state only through it.
type Deps struct {
	Dispatcher *notify.Dispatcher
	Registry   *hub.Registry
	Decoder    middleware.TokenDecoder
	Logger     *zap.Logger

	SendBuffer int
	// EmitLimiter guards notification emission. nil disables the limit. The
	// caller owns it and must Stop it.
	EmitLimiter *middleware.RateLimiter
}

func NewRouter(deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger.Named("http")))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	wsHandler := &handler.WebSocketHandler{
		Registry:   deps.Registry,
		Decoder:    deps.Decoder,
		SendBuffer: deps.SendBuffer,
		Logger:     logger.Named("ws"),
	}
	r.GET("/ws", wsHandler.Serve)
	r.GET("/ws/", wsHandler.Serve)

	notificationHandler := &handler.NotificationHandler{Dispatcher: deps.Dispatcher, Logger: logger.Named("http")}

	protected := r.Group("/v1")
	protected.Use(middleware.RequireAuth(deps.Decoder))
	protected.GET("/notifications", notificationHandler.List)

	admin := protected.Group("")
	admin.Use(middleware.RequireAccess(auth.AccessAdmin))
	admin.GET("/ws/online", wsHandler.Online)

	emit := []gin.HandlerFunc{}
	if deps.EmitLimiter != nil {
		emit = append(emit, middleware.RateLimit(deps.EmitLimiter, logger.Named("http")))
	}
	emit = append(emit, notificationHandler.Emit)
	admin.POST("/notifications", emit...)

	return r
}
