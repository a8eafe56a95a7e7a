package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/cache"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/config"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/database"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/handler"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/middleware"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/repository"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/scheduler"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/service"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/sse"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/utils"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/pkg/sunlux"
)

// main is the application entrypoint for the ESL sync engine.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting esl sync engine")

	utils.SetJWTSecret(cfg.JWTSecret)

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 4. Initialize repositories
	productRepo := repository.NewProductRepository(db)
	tagRepo := repository.NewTagRepository(db)
	logRepo := repository.NewAPILogRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)
	syncStore := repository.NewSyncStore(db)

	// 5. Initialize the vendor client: tokens live in Redis, every call is
	// audited through the log repository.
	tokenCache := cache.NewTokenCache(redisClient)
	gateway := sunlux.NewClient(sunlux.Config{
		BaseURL: cfg.Sunlux.BaseURL,
		UID:     cfg.Sunlux.UID,
		SID:     cfg.Sunlux.SID,
		Key:     cfg.Sunlux.Key,
	}, tokenCache, logRepo)
	if !gateway.Configured() {
		log.Warn().Msg("SUNLUX credentials not configured, vendor calls will fail until they are set")
	}

	// 6. Initialize SSE hub and job scheduler
	hub := sse.NewHub()
	notifier := sse.NewHubNotifier(hub)
	jobs := scheduler.New()

	// 7. Initialize services
	allocatorSvc := service.NewAllocatorService(gateway)
	syncSvc := service.NewSyncService(gateway, syncStore, allocatorSvc, notifier,
		cfg.Engine.RetryAttempts, cfg.Engine.RetryBackoff)
	triggerSvc := service.NewTriggerService(jobs, syncSvc, notifier, cfg.Engine.DebounceDelay)
	productSvc := service.NewProductService(productRepo, syncStore, triggerSvc)
	tagSvc := service.NewTagService(gateway, tagRepo, syncStore, notifier, cfg.Engine.TagPageSize)
	reassignSvc := service.NewReassignService(syncStore, triggerSvc,
		cfg.Engine.DebounceDelay, cfg.Engine.DisplacedDelay)
	settingsSvc := service.NewSettingsService(gateway)
	authSvc := service.NewAuthService(adminRepo)

	if err := authSvc.EnsureAdmin(cfg.Admin.Username, cfg.Admin.Password); err != nil {
		log.Error().Err(err).Msg("failed to seed admin account")
		os.Exit(1)
	}

	// 8. Initialize handlers
	handlers := &Handlers{
		Health:   handler.NewHealthHandler(db, gateway),
		Auth:     handler.NewAuthHandler(authSvc),
		Product:  handler.NewProductHandler(productSvc),
		Tag:      handler.NewTagHandler(tagSvc),
		Reassign: handler.NewReassignHandler(reassignSvc),
		Log:      handler.NewLogHandler(logRepo),
		Settings: handler.NewSettingsHandler(settingsSvc),
		SSE:      handler.NewSSEHandler(hub),
	}

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, middleware.NewJWTMiddleware())

	// 10. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 11. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 12. Shutdown HTTP server, then drain scheduled sync jobs
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := jobs.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Scheduler forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Product  *handler.ProductHandler
	Tag      *handler.TagHandler
	Reassign *handler.ReassignHandler
	Log      *handler.LogHandler
	Settings *handler.SettingsHandler
	SSE      *handler.SSEHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// SSE authenticates via query token inside the handler
	router.GET("/v1/admin/events", handlers.SSE.Stream)

	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", handlers.Auth.Login)
	admin.Use(jwtMiddleware.Handle())
	{
		// Catalog
		admin.GET("/products", handlers.Product.GetProducts)
		admin.POST("/products", handlers.Product.CreateProduct)
		admin.GET("/products/:id", handlers.Product.GetProduct)
		admin.PUT("/products/:id", handlers.Product.UpdateProduct)
		admin.DELETE("/products/:id", handlers.Product.DeleteProduct)

		// Sync operations
		admin.POST("/products/sync", handlers.Product.BulkSync)
		admin.POST("/products/generate-barcodes", handlers.Product.GenerateBarcodes)
		admin.POST("/products/:id/sync", handlers.Product.SyncProduct)
		admin.POST("/products/:id/reassign-preview", handlers.Reassign.Preview)
		admin.POST("/products/:id/reassign", handlers.Reassign.Reassign)

		// Tag inventory
		admin.GET("/tags", handlers.Tag.GetTags)
		admin.GET("/tags/stats", handlers.Tag.GetTagStats)
		admin.POST("/tags/fetch", handlers.Tag.FetchTags)
		admin.POST("/tags/:id/bind", handlers.Tag.BindTag)

		// Audit trail
		admin.GET("/logs", handlers.Log.GetLogs)

		// Vendor connectivity
		admin.POST("/settings/test-connection", handlers.Settings.TestConnection)
		admin.POST("/settings/clear-token", handlers.Settings.ClearToken)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
