package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketdash/internal/config"
	appmiddleware "marketdash/internal/middleware"
	"marketdash/internal/modules/catalog"
	"marketdash/internal/modules/delivery"
	"marketdash/internal/modules/order"
	"marketdash/internal/modules/users"
	"marketdash/internal/realtime"
	"marketdash/pkg/notify"
	"marketdash/pkg/payment"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg)
	logger.Info().Msg("starting marketdash API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}

	// Repositories
	userRepo := users.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	orderRepo := order.NewRepository(pool)

	// Realtime hub: the one connection manager every publisher is handed.
	hub := realtime.NewHub(logger)

	// Outbound integrations
	paymentSvc := payment.NewStripeService(cfg.StripeAPIKey)
	var notifier order.NotifierInterface
	if cfg.SESSender != "" {
		emailNotifier, err := notify.NewEmailNotifier(ctx, cfg.SESRegion, cfg.SESSender, userRepo, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("email notifier disabled")
		} else {
			notifier = emailNotifier
		}
	}

	// Services
	userSvc := users.NewService(userRepo, cfg.JWTSecret, logger)
	catalogSvc := catalog.NewService(catalogRepo, logger)
	orderSvc := order.NewService(orderRepo, catalogSvc, hub, paymentSvc, notifier, logger)
	deliverySvc := delivery.NewService(orderSvc, userRepo, hub, logger)

	// Handlers
	userHandler := users.NewHandler(userSvc)
	catalogHandler := catalog.NewHandler(catalogSvc)
	orderHandler := order.NewHandler(orderSvc)
	deliveryHandler := delivery.NewHandler(deliverySvc)
	wsHandler := realtime.NewHandler(hub, orderSvc, cfg.JWTSecret, cfg.ClientOrigin, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))

	userHandler.RegisterPublicRoutes(e)
	wsHandler.RegisterRoutes(e)

	api := e.Group("", appmiddleware.Auth(cfg.JWTSecret))
	userHandler.RegisterRoutes(api)
	catalogHandler.RegisterRoutes(api)
	orderHandler.RegisterRoutes(api)
	deliveryHandler.RegisterRoutes(api)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("address", server.Addr).Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
