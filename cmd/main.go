package main

//
//  @title           pricebook API
//  @version         1.0
//  @description     Stock price ingestion and retrieval service.
//  @termsOfService  https://github.com/guttosm/pricebook
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/pricebook
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        prices
//  @tag.description Record prices and query latest quote and history
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/pricebook/config"
	_ "github.com/guttosm/pricebook/docs" // swagger docs
	"github.com/guttosm/pricebook/internal/app"
	"github.com/guttosm/pricebook/internal/importer"
	"github.com/guttosm/pricebook/internal/logger"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown waits for SIGINT/SIGTERM, drains in-flight requests and
// only then runs cleanup, so the store is never closed under a live request.
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Error().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// runImport posts every valid entry of file to the server at serverURL.
func runImport(ctx context.Context, file, serverURL string, parallel int) error {
	logger.L().Info().Str("file", file).Str("server", serverURL).Msg("running import")
	n, err := importer.ImportFile(ctx, file, serverURL, parallel)
	if err != nil {
		return err
	}
	logger.L().Info().Int("stored", n).Msg("import completed successfully")
	return nil
}

// main is the entry point of the pricebook application.
//
// Modes (selected via --mode flag):
//   - api:    Starts the REST API backed by the configured price store.
//   - import: Posts prices from a JSON or CSV file to a running server.
//
// Flags:
//   - --mode:     Execution mode ("api" or "import"). Default: "api".
//   - --file:     Input file for import mode. Default: "./data/test-prices.json".
//   - --server:   Base URL of the server for import mode. Defaults to IMPORT_SERVER_URL.
//   - --parallel: Concurrent requests in import mode (1 keeps file order).
//   - --port:     Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	ctx := context.Background()

	config.LoadConfig()
	logger.Init()

	mode := flag.String("mode", "api", "Mode: api or import")
	file := flag.String("file", "./data/test-prices.json", "JSON or ;-separated CSV file to import")
	server := flag.String("server", config.AppConfig.Import.ServerURL, "Server base URL for import mode")
	parallel := flag.Int("parallel", 1, "Concurrent requests in import mode (1-16)")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "import":
		if err := runImport(ctx, *file, *server, *parallel); err != nil {
			logger.L().Fatal().Err(err).Msg("import failed")
		}

	case "api":
		logger.L().Info().Str("driver", config.AppConfig.Storage.Driver).Msg("starting API server")

		router, cleanup, err := app.InitializeApp(ctx, config.AppConfig)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		srv := startServer(router, *port)
		gracefulShutdown(ctx, srv, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
