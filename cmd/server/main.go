package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Store log handler (ERROR+ async batch)
	storeLogHandler := logging.NewStoreHandler(db, 5*time.Second)
	slog.SetDefault(slog.New(logging.NewContextHandler(logging.NewMultiHandler(
		logging.NewStdoutHandler(cfg.LogLevel),
		storeLogHandler,
	))))

	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cfg.LogRetentionDays, cleanupDone)

	provider, err := newIdentityProvider(cfg, db)
	if err != nil {
		slog.Error("identity provider setup failed", "provider", cfg.IdentityProvider, "error", err)
		os.Exit(1)
	}

	// Repositories and services
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)

	accessService := services.NewAccessService(provider, userRepo)
	userService := services.NewUserService(userRepo, productRepo, provider)
	productService := services.NewProductService(productRepo)
	authService := services.NewAuthService(provider, userRepo)

	if cfg.BootstrapEnabled() {
		bootstrapAdmin(cfg, userService)
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	app := newApp(cfg)
	routes.Setup(app, accessService, routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		Users:   handlers.NewUserHandler(userService),
		Product: handlers.NewProductHandler(productService),
		Health:  handlers.NewHealthHandler(db, cfg.IdentityProvider),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "identity_provider", cfg.IdentityProvider)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	storeLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func newApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler(cfg.IsDevelopment()),
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace:  cfg.IsDevelopment(),
		StackTraceHandler: handlers.RecordPanicStack,
	}))
	app.Use(requestid.New())
	app.Use(middleware.RequestContext())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})
	app.Use(middleware.Timeout(cfg.UpstreamTimeout))

	return app
}

func newIdentityProvider(cfg *config.Config, db *gorm.DB) (identity.Provider, error) {
	if cfg.IdentityProvider == config.ProviderSupabase {
		return identity.NewSupabaseProvider(identity.SupabaseOptions{
			URL:            cfg.SupabaseURL,
			AnonKey:        cfg.SupabaseAnonKey,
			ServiceRoleKey: cfg.SupabaseServiceRoleKey,
			Timeout:        cfg.UpstreamTimeout,
		}), nil
	}

	if err := database.MigrateIdentity(db); err != nil {
		return nil, err
	}
	return identity.NewLocalProvider(db, identity.LocalOptions{
		Secret:        cfg.JWTSecret,
		AccessExpiry:  cfg.JWTAccessExpiry,
		RefreshExpiry: cfg.JWTRefreshExpiry,
	})
}

func bootstrapAdmin(cfg *config.Config, userService *services.UserService) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.UpstreamTimeout)
	defer cancel()

	admin, created, err := userService.Bootstrap(ctx, cfg.BootstrapAdminName, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword)
	switch {
	case err != nil:
		slog.Error("bootstrap administrator failed", "operation", "bootstrap admin", "error", err)
	case created:
		slog.Info("bootstrap administrator created", "user_id", admin.ID, "email", admin.Email)
	default:
		slog.Info("administrator already present, bootstrap skipped")
	}
}
