package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"modamarket/internal/auth"
	"modamarket/internal/config"
	"modamarket/internal/database"
	"modamarket/internal/events"
	"modamarket/internal/handler"
	"modamarket/internal/media"
	"modamarket/internal/repository"
	"modamarket/internal/router"
	"modamarket/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting modamarket API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	shippingRepo := repository.NewShippingRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	hasher := auth.NewBcryptHasher(0)
	tokens, err := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	uploader := newUploader(ctx, cfg.Media, logger)

	publisher := newPublisher(cfg.Events, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	// Services
	authService := service.NewAuthService(userRepo, hasher, tokens, logger)
	userService := service.NewUserService(userRepo, hasher, logger)
	productService := service.NewProductService(productRepo, userRepo, logger)
	cartService := service.NewCartService(cartRepo, productRepo, cfg.App.CartTTL, logger)
	shippingService := service.NewShippingService(shippingRepo, userRepo, logger)
	orderService := service.NewOrderService(
		service.OrderRepositories{
			Orders:   orderRepo,
			Carts:    cartRepo,
			Products: productRepo,
			Users:    userRepo,
			Shipping: shippingRepo,
		},
		uploader,
		publisher,
		service.OrderOptions{Location: cfg.App.Location(), MaxProofBytes: cfg.Media.MaxUploadBytes},
		logger,
	)

	sweeper := service.NewCartSweeper(cartRepo, cfg.App.CartSweepInterval, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	handlers := router.Handlers{
		Auth:     handler.NewAuthHandler(authService, logger),
		User:     handler.NewUserHandler(userService, logger),
		Product:  handler.NewProductHandler(productService, logger),
		Cart:     handler.NewCartHandler(cartService, logger),
		Shipping: handler.NewShippingHandler(shippingService, logger),
		Order:    handler.NewOrderHandler(orderService, cfg.Media.MaxUploadBytes, logger),
		Upload:   handler.NewUploadHandler(uploader, cfg.Media.MaxUploadBytes, logger),
	}

	// The local directory is served even with S3 on, since it backs failed uploads.
	opts := router.Options{AllowedOrigins: cfg.Server.AllowedOrigins, UploadsDir: cfg.Media.LocalDir}
	mux := router.New(handlers, tokens, opts, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newUploader prefers S3 and keeps the local directory as a fallback.
func newUploader(ctx context.Context, cfg config.MediaConfig, logger zerolog.Logger) media.Uploader {
	local := media.NewFileUploader(cfg.LocalDir, cfg.LocalBaseURL(), logger)
	if !cfg.S3Enabled {
		logger.Info().Str("dir", cfg.LocalDir).Msg("storing images on the local file system (S3 disabled)")
		return local
	}

	s3Uploader, err := media.NewS3Uploader(ctx, cfg.Bucket, cfg.Region, cfg.Prefix, cfg.PublicBaseURL, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 uploader, falling back to local file system only")
		return local
	}
	return media.NewFallbackUploader(s3Uploader, local, logger)
}

func newPublisher(cfg config.EventsConfig, logger zerolog.Logger) events.Publisher {
	if cfg.KafkaEnabled {
		return events.NewKafkaPublisher(cfg.Brokers, cfg.Topic, logger)
	}
	return events.NewLogPublisher(logger)
}
