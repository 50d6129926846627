package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/fintrackr/recon_engine/internal/core/services"
	"github.com/fintrackr/recon_engine/internal/handlers"
	"github.com/fintrackr/recon_engine/internal/middleware"
	"github.com/fintrackr/recon_engine/internal/platform/config"
	"github.com/fintrackr/recon_engine/internal/repositories/database/pgsql"
	"github.com/fintrackr/recon_engine/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), cors.Default())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	r.GET("/health", handlers.GetHome)

	setupAPIV1Routes(r, cfg, dbPool)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending "up" migrations over a temporary
// database/sql connection using the pgx stdlib driver.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := migrationDB.Ping(); err != nil {
		migrationDB.Close()
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		migrationDB.Close()
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		migrationDB.Close()
		return err
	}

	upErr := m.Up()
	sourceErr, dbErr := m.Close()
	if upErr != nil && upErr != migrate.ErrNoChange {
		return upErr
	}
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

func setupAPIV1Routes(r *gin.Engine, cfg *config.Config, dbPool *pgxpool.Pool) {
	// All v1 routes require the tenant header
	v1 := r.Group("/api/v1", middleware.TenantMiddleware())

	repos := pgsql.NewRepositoryContainer(dbPool)

	normalizer := services.NewNormalizer()
	balanceService := services.NewBalanceService(repos.Accounts, repos.People, repos.Transactions, normalizer)
	cashbackService := services.NewCashbackService(repos.Accounts, repos.People, repos.Transactions, normalizer)
	debtService := services.NewDebtService(repos.People, repos.Transactions,
		services.WithSurplusPolicy(services.SurplusPolicy(cfg.SurplusPolicy)))
	reconService := services.NewReconciliationService(
		balanceService, cashbackService, debtService,
		repos.Accounts, repos.People,
		services.WithWorkers(cfg.ReconWorkers),
		services.WithStoreTimeout(cfg.StoreTimeout),
	)

	reconHandler := handlers.NewReconHandler(reconService, reconService, cashbackService, debtService)
	handlers.RegisterReconRoutes(v1, reconHandler, recomputeRateLimit(cfg))
}

// recomputeRateLimit throttles recompute triggers per client IP. A full
// fan-out reads every transaction the tenant has, so triggers are cheap to
// request and expensive to serve.
func recomputeRateLimit(cfg *config.Config) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimitRecompute)
	if err != nil {
		rate, _ = limiter.NewRateFromFormatted("10-M")
	}
	store := memory.NewStore()
	return middleware.RateLimit(limiter.New(store, rate))
}
