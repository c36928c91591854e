package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/persistence"
	paymentUseCase "github.com/amirhossein-jamali/payment-reconciler/internal/domain/usecase/payment"

	"github.com/amirhossein-jamali/payment-reconciler/internal/infrastructure/adapter/acquirer"
	"github.com/amirhossein-jamali/payment-reconciler/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/payment-reconciler/internal/infrastructure/adapter/api/routes"
	"github.com/amirhossein-jamali/payment-reconciler/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/payment-reconciler/internal/infrastructure/adapter/database/migration"
	"github.com/amirhossein-jamali/payment-reconciler/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/payment-reconciler/internal/infrastructure/adapter/repository"
	timeProvider "github.com/amirhossein-jamali/payment-reconciler/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/payment-reconciler/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate essential configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create logger
	appLogger := logger.NewZapLogger(cfg.Environment == config.Production)
	appLogger.SetLevel(logger.ParseLevel(cfg.Logger.Level))

	// Initialize time provider
	tp := timeProvider.NewRealTimeProvider()

	// Select the transaction store
	var store persistence.PaymentStore
	var dbConn *database.Connection
	switch cfg.Database.Driver {
	case "postgres":
		dbConfig := &database.Config{
			Driver:          cfg.Database.Driver,
			Host:            cfg.Database.Host,
			Port:            database.ParsePort(cfg.Database.Port),
			Username:        cfg.Database.Username,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
			QueryTimeout:    cfg.Database.QueryTimeout,
			LogLevel:        cfg.Logger.Level,
		}

		dbConn, err = database.NewConnection(dbConfig, appLogger, tp)
		if err != nil {
			appLogger.Error("Failed to connect to database", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}

		// Run migrations
		migrationMgr := migration.NewMigrationManager(dbConn.DB, appLogger)
		if err := migrationMgr.MigrateAll(); err != nil {
			appLogger.Error("Failed to run migrations", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}

		store = repository.NewPaymentRepository(dbConn.DB, tp, appLogger)
	default:
		store = repository.NewMemoryPaymentStore(tp)
	}
	if dbConn != nil {
		defer func() {
			if err := dbConn.Close(); err != nil {
				appLogger.Error("Failed to close database connection", map[string]any{
					"error": err.Error(),
				})
			}
		}()
	}

	// Initialize the acquirer gateway client
	acquirerClient := acquirer.NewClient(acquirer.Config{
		APIURL:          cfg.Acquirer.APIURL,
		APIKey:          cfg.Acquirer.APIKey,
		S2SToken:        cfg.Acquirer.S2SToken,
		BrandID:         cfg.Acquirer.BrandID,
		SuccessRedirect: cfg.Acquirer.SuccessRedirect,
		FailureRedirect: cfg.Acquirer.FailureRedirect,
		RequestTimeout:  cfg.Acquirer.RequestTimeout,
	}, appLogger)

	// Initialize use case
	paymentService := paymentUseCase.NewService(
		store,
		acquirerClient,
		gateway.Product{Name: cfg.Product.Name, Price: cfg.Product.Price},
		tp,
		appLogger,
	)

	// Initialize API handlers
	paymentHandler := handler.NewPaymentHandler(paymentService, appLogger)

	// Initialize Gin router
	router := gin.New()

	// Setup middlewares
	routes.SetupMiddlewares(router, appLogger)

	// Setup routes
	routes.SetupRoutes(router, paymentHandler)

	// Create HTTP server with configurable timeout values
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		appLogger.Info("Starting server", map[string]any{
			"port":  cfg.Server.Port,
			"env":   cfg.Environment,
			"store": cfg.Database.Driver,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Failed to start server", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	// Create a deadline to wait for
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Shutdown the server
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	appLogger.Info("Server exited gracefully", nil)
}

// validateConfig ensures all required configuration values are present
func validateConfig(cfg *config.Config) error {
	var missingConfigs []string

	// Validate server configuration
	if cfg.Server.Port == 0 {
		missingConfigs = append(missingConfigs, "server.port")
	}

	if cfg.Server.ReadTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.readTimeout")
	}

	if cfg.Server.WriteTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.writeTimeout")
	}

	if cfg.Server.ShutdownTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.shutdownTimeout")
	}

	// Validate acquirer configuration
	if cfg.Acquirer.APIURL == "" {
		missingConfigs = append(missingConfigs, "acquirer.apiUrl (or PR_ACQUIRER_API_URL environment variable)")
	}

	if cfg.Acquirer.APIKey == "" {
		missingConfigs = append(missingConfigs, "acquirer.apiKey (or PR_ACQUIRER_API_KEY environment variable)")
	}

	if cfg.Acquirer.S2SToken == "" {
		missingConfigs = append(missingConfigs, "acquirer.s2sToken (or PR_ACQUIRER_S2S_TOKEN environment variable)")
	}

	if cfg.Acquirer.BrandID == "" {
		missingConfigs = append(missingConfigs, "acquirer.brandId (or PR_ACQUIRER_BRAND_ID environment variable)")
	}

	// Validate store configuration
	switch cfg.Database.Driver {
	case "memory":
		// Nothing more to check; the store lives in process memory.
	case "postgres":
		if cfg.Database.Host == "" {
			missingConfigs = append(missingConfigs, "database.host (or PR_DB_HOST environment variable)")
		}
		if cfg.Database.Port == "" {
			missingConfigs = append(missingConfigs, "database.port (or PR_DB_PORT environment variable)")
		}
		if cfg.Database.Username == "" {
			missingConfigs = append(missingConfigs, "database.username (or PR_DB_USERNAME environment variable)")
		}
		if cfg.Database.Password == "" {
			missingConfigs = append(missingConfigs, "database.password (or PR_DB_PASSWORD environment variable)")
		}
		if cfg.Database.Database == "" {
			missingConfigs = append(missingConfigs, "database.database (or PR_DB_NAME environment variable)")
		}
	default:
		return fmt.Errorf("invalid database.driver value: %s, must be one of: memory, postgres", cfg.Database.Driver)
	}

	// Validate product configuration
	if cfg.Product.Name == "" {
		missingConfigs = append(missingConfigs, "product.name")
	}

	if cfg.Product.Price <= 0 {
		missingConfigs = append(missingConfigs, "product.price")
	}

	// Environment should be set with a valid value
	if cfg.Environment == "" {
		missingConfigs = append(missingConfigs, "environment")
	} else if cfg.Environment != config.Development &&
		cfg.Environment != config.Production &&
		cfg.Environment != config.Test {
		return fmt.Errorf("invalid environment value: %s, must be one of: %s, %s, or %s",
			cfg.Environment, config.Development, config.Production, config.Test)
	}

	// Logger configuration
	if cfg.Logger.Level == "" {
		missingConfigs = append(missingConfigs, "logger.level")
	}

	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configurations: %v", missingConfigs)
	}

	// If we're in production, warn about settings that are fine in
	// development but risky against real money movement.
	if cfg.Environment == config.Production {
		var warnings []string

		if cfg.Database.Driver == "memory" {
			warnings = append(warnings, "database.driver 'memory' loses transaction state on restart")
		}

		if cfg.Database.Driver == "postgres" && cfg.Database.SSLMode == "disable" {
			warnings = append(warnings, "database.sslMode should not be 'disable' in production")
		}

		if cfg.Server.ReadTimeout < 5*time.Second {
			warnings = append(warnings, "server.readTimeout is too low for production")
		}

		if cfg.Server.WriteTimeout < 5*time.Second {
			warnings = append(warnings, "server.writeTimeout is too low for production")
		}

		if len(warnings) > 0 {
			log.Printf("Warning: potential issues in production configuration: %v", warnings)
		}
	}

	return nil
}
