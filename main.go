package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kariqs/smart-inventory/controllers"
	"github.com/Kariqs/smart-inventory/initializers"
	"github.com/Kariqs/smart-inventory/middlewares"
	"github.com/Kariqs/smart-inventory/routes"
	"github.com/Kariqs/smart-inventory/services"
	"github.com/Kariqs/smart-inventory/utils"
	"github.com/Kariqs/smart-inventory/views"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := initializers.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger := initializers.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	logger.Info().Str("environment", cfg.App.Environment).Msg("Smart inventory starting...")

	db, err := initializers.ConnectToDB(cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := initializers.SyncDatabase(db, logger); err != nil {
		logger.Fatal().Err(err).Msg("Failed to sync database")
	}

	mailer, err := utils.NewMailer(cfg.Mail, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to configure mail")
	}

	ctx := context.Background()
	var images services.ImageStore
	if cfg.Storage.S3Bucket != "" {
		store, err := services.NewS3ImageStore(ctx, cfg.Storage.S3Bucket)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to configure image storage")
		}
		images = store
	} else {
		logger.Warn().Msg("S3_BUCKET not set, product image uploads are disabled")
	}

	products := services.NewProductService(db, logger, images)
	categories := services.NewCategoryService(db, logger)
	orders := services.NewOrderService(db, logger, cfg.App.RequireCancelToken)
	accounts := services.NewAccountService(db, mailer, services.AccountConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
		BaseURL:   cfg.App.BaseURL,
	}, logger)
	dashboard := services.NewDashboardService(products, categories, orders)

	if err := initializers.SeedDatabase(ctx, db, accounts, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Failed to seed database")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	server := gin.New()
	server.Use(middlewares.RequestLogger(logger), middlewares.Recovery(logger))
	server.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", middlewares.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	server.Use(middlewares.Authenticate(cfg.Auth.JWTSecret))
	server.SetHTMLTemplate(views.Templates())

	routes.DefaultRoutes(server, controllers.NewHomeController(dashboard, logger))
	routes.AuthRoutes(server, controllers.NewAuthController(accounts, categories, cfg.Auth.TokenTTL, cfg.IsProduction(), logger))
	routes.ProductRoutes(server, controllers.NewProductController(products, categories, logger))
	routes.CategoryRoutes(server, controllers.NewCategoryController(categories, logger))
	routes.OrderRoutes(server, controllers.NewOrderController(orders, products, mailer, cfg.App.BaseURL, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      server,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Shutdown failed")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info().Msg("Server stopped")
}
