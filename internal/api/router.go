package api

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/guttosm/pricebook/internal/middleware"
)

// RouterOptions tunes the global middlewares and optional routes.
type RouterOptions struct {
	// RequestTimeout bounds each request context. Zero disables it.
	RequestTimeout time.Duration
	// RateLimitPerMinute is the per-client budget. Zero disables limiting.
	RateLimitPerMinute int
	// EnableFetch mounts POST /api/quote/fetch.
	EnableFetch bool
}

// NewRouter creates a Gin engine with routes configured.
// It receives a Handler instance with all business logic already injected.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, ErrorHandler, RateLimiter, Timeout).
//   - Mounts Swagger docs (/swagger/*any).
//   - Configures the /api routes.
//
// Note:
//   - Health and readiness endpoints (/healthz, /readyz) are registered in app.InitializeApp().
func NewRouter(handler *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
		middleware.RateLimiter(opts.RateLimitPerMinute, time.Minute),
		middleware.Timeout(opts.RequestTimeout),
	)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	{
		api.POST("/prices", handler.RecordPrice)
		api.GET("/quote", handler.GetQuote)
		api.GET("/history", handler.GetHistory)
		if opts.EnableFetch {
			api.POST("/quote/fetch", handler.FetchQuote)
		}
	}

	return router
}
