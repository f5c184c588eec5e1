package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/pricebook/config"
	"github.com/guttosm/pricebook/internal/api"
	"github.com/guttosm/pricebook/internal/service"
	"github.com/guttosm/pricebook/internal/storage"
	"github.com/guttosm/pricebook/internal/upstream"
)

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Opens and migrates the price store (sqlite or postgres).
//   - Builds repository, quote service and, when configured, the upstream client.
//   - Configures the Gin router with all API routes.
//   - Registers health and readiness probes.
//   - Provides a cleanup function that closes the store exactly once.
func InitializeApp(ctx context.Context, cfg config.Config) (*gin.Engine, func(), error) {
	db, err := storeOpener(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize price store: %w", err)
	}

	repo := storage.NewPriceRepository(db)

	var opts []service.Option
	if cfg.Upstream.Enabled() {
		opts = append(opts, service.WithQuoteSource(
			upstream.New(cfg.Upstream.URL, upstream.WithTimeout(cfg.Upstream.Timeout)),
		))
	}
	svc := service.NewQuoteService(repo, opts...)

	router := api.NewRouter(api.NewHandler(svc), api.RouterOptions{
		RequestTimeout:     cfg.Server.RequestTimeout,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		EnableFetch:        cfg.Upstream.Enabled(),
	})

	api.NewHealthHandler(db.PingContext).Register(router)

	cleanup := func() {
		_ = db.Close()
	}

	return router, cleanup, nil
}
