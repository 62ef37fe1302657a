package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/marketplace-settlement/internal/config"
	"github.com/fairyhunter13/marketplace-settlement/internal/handler"
	"github.com/fairyhunter13/marketplace-settlement/internal/repository"
	"github.com/fairyhunter13/marketplace-settlement/internal/service"
	"github.com/fairyhunter13/marketplace-settlement/internal/validator"
	"github.com/fairyhunter13/marketplace-settlement/pkg/database"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	initLogger(cfg)

	// Create context for startup
	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database schema")
	}

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Marketplace Settlement Engine",
		ReadTimeout:  30 * time.Second,  // Max time to read request
		WriteTimeout: 30 * time.Second,  // Max time to write response
		IdleTimeout:  120 * time.Second, // Max time for keep-alive connections
		BodyLimit:    1 * 1024 * 1024,   // 1MB body limit (explicit, prevents large payloads)
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())

	// Initialize validator
	validate := validator.New()

	// Repositories (layered architecture)
	shopRepo := repository.NewShopRepository(pool)
	listingRepo := repository.NewListingRepository(pool)
	currencyRepo := repository.NewCurrencyRepository(pool)
	templateRepo := repository.NewTemplateRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	claimRepo := repository.NewClaimRepository(pool)
	receiptRepo := repository.NewReceiptRepository(pool)
	transferRepo := repository.NewTransferRepository(pool)
	eventRepo := repository.NewEventRepository(pool)

	// Services
	shopService := service.NewShopService(pool, shopRepo, eventRepo)
	catalogService := service.NewCatalogService(pool, shopRepo, listingRepo, templateRepo, eventRepo)
	currencyService := service.NewCurrencyService(pool, shopRepo, currencyRepo, eventRepo)
	discountService := service.NewDiscountService(pool, shopRepo, listingRepo, templateRepo, ticketRepo, claimRepo, eventRepo)
	checkoutService := service.NewCheckoutService(pool, shopRepo, listingRepo, currencyRepo, templateRepo, ticketRepo, claimRepo, receiptRepo, transferRepo, eventRepo)

	// Handlers
	shopHandler := handler.NewShopHandler(shopService, validate)
	catalogHandler := handler.NewCatalogHandler(catalogService, validate)
	currencyHandler := handler.NewCurrencyHandler(currencyService, validate)
	discountHandler := handler.NewDiscountHandler(discountService, validate)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, validate)

	// Health handler
	healthHandler := handler.NewHealthHandler(pool)
	app.Get("/health", healthHandler.Check)

	// Shop routes
	app.Post("/api/shops", shopHandler.CreateShop)
	app.Get("/api/shops/:shopID", shopHandler.GetShop)
	app.Post("/api/shops/:shopID/disable", shopHandler.DisableShop)
	app.Put("/api/shops/:shopID/owner", shopHandler.UpdateOwner)

	// Listing routes
	app.Post("/api/shops/:shopID/listings", catalogHandler.AddListing)
	app.Get("/api/shops/:shopID/listings/:listingID", catalogHandler.GetListing)
	app.Put("/api/shops/:shopID/listings/:listingID/stock", catalogHandler.SetStock)
	app.Delete("/api/shops/:shopID/listings/:listingID", catalogHandler.RemoveListing)
	app.Put("/api/shops/:shopID/listings/:listingID/spotlight", catalogHandler.AttachSpotlight)
	app.Delete("/api/shops/:shopID/listings/:listingID/spotlight", catalogHandler.ClearSpotlight)

	// Currency routes
	app.Post("/api/shops/:shopID/currencies", currencyHandler.RegisterCurrency)
	app.Delete("/api/shops/:shopID/currencies/:currency", currencyHandler.DeregisterCurrency)

	// Discount template routes
	app.Post("/api/shops/:shopID/templates", discountHandler.CreateTemplate)
	app.Put("/api/shops/:shopID/templates/:templateID", discountHandler.UpdateTemplate)
	app.Post("/api/shops/:shopID/templates/:templateID/toggle", discountHandler.ToggleTemplate)
	app.Post("/api/shops/:shopID/templates/:templateID/claim", discountHandler.ClaimTicket)
	app.Post("/api/shops/:shopID/templates/:templateID/prune-claims", discountHandler.PruneClaims)

	// Quote and checkout routes
	app.Post("/api/shops/:shopID/quote", checkoutHandler.PreviewQuote)
	app.Post("/api/shops/:shopID/buy", checkoutHandler.Buy)
	app.Post("/api/shops/:shopID/buy-with-discount", checkoutHandler.BuyWithDiscount)
	app.Post("/api/shops/:shopID/claim-and-buy", checkoutHandler.ClaimAndBuy)

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close database pool AFTER server shutdown (even if shutdown timed out)
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		// JSON output for production
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
