package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "recon-ledger/docs"
	"recon-ledger/internal/cache"
	"recon-ledger/internal/config"
	"recon-ledger/internal/database"
	"recon-ledger/internal/debtcase"
	"recon-ledger/internal/handler"
	"recon-ledger/internal/lock"
	"recon-ledger/internal/matcher"
	"recon-ledger/internal/middleware"
	"recon-ledger/internal/repository"
	"recon-ledger/internal/service"
	"recon-ledger/pkg/logger"
)

// @title Return Reconciliation and Debt Collection API
// @version 1.0
// @description Matches return and bank statement imports against orders, keeps the verified return ledger, and tracks debt collection cases

// @host localhost:8080
// @BasePath /
// @schemes http https

type handlers struct {
	recon     *handler.ReconciliationHandler
	statement *handler.StatementHandler
	debt      *handler.DebtHandler
	summary   *handler.SummaryHandler
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.App.LogLevel)
	logger.GetLogger().Info("Starting Return Reconciliation Service")

	location, err := cfg.App.Location()
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Invalid timezone")
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	logger.GetLogger().Info("Database connection established")

	if cfg.App.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logger.GetLogger().WithError(err).Fatal("Failed to run migrations")
		}
	}

	// Redis backs the per-order lock and the summary cache. Without it the
	// store's optimistic check is the only concurrency guard and summaries
	// are computed on every request.
	var (
		locker       debtcase.Locker = lock.Noop{}
		summaryCache service.SummaryCache
	)
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.GetLogger().WithError(err).Fatal("Failed to connect to redis")
		}

		locker = lock.NewOrderLocker(rdb, cfg.Redis.LockTTL)
		summaryCache = cache.NewSummaryCache(rdb, cfg.Redis.SummaryTTL)
		logger.GetLogger().WithField("addr", cfg.Redis.Addr).Info("Redis connection established")
	} else {
		logger.GetLogger().Warn("REDIS_ADDR not set, running without order locks and summary cache")
	}

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	statementRepo := repository.NewStatementRepository(db)
	directory := repository.NewDirectoryRepository(db)

	m := matcher.NewMatcher(cfg.Match.AmountTolerance)

	// Initialize services
	reconService := service.NewReconciliationService(orderRepo, ledgerRepo, m, cfg.App.AtomicConfirm, summaryCache)
	statementService := service.NewStatementService(orderRepo, ledgerRepo, statementRepo, directory, m, location, cfg.App.BatchSize)
	debtService := service.NewDebtService(orderRepo, attemptRepo, directory, locker, summaryCache, location)
	summaryService := service.NewSummaryService(orderRepo, attemptRepo, ledgerRepo, summaryCache, location)

	// Initialize handlers
	if err := handler.RegisterValidators(); err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to register validators")
	}
	h := handlers{
		recon:     handler.NewReconciliationHandler(reconService),
		statement: handler.NewStatementHandler(statementService),
		debt:      handler.NewDebtHandler(debtService),
		summary:   handler.NewSummaryHandler(summaryService),
	}

	// Setup router
	router := setupRouter(h, func(ctx context.Context) error { return db.PingContext(ctx) })

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.GetLogger().WithField("address", addr).Info("Server starting")

	if err := router.Run(addr); err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to start server")
	}
}

func setupRouter(h handlers, ping func(ctx context.Context) error) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		if err := ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		reconcile := v1.Group("/reconcile")
		{
			reconcile.POST("/match", h.recon.Match)
			reconcile.POST("/confirm", h.recon.Confirm)
			reconcile.GET("/pending", h.recon.Pending)
			reconcile.GET("/batches/:batch_id", h.recon.BatchRecords)
			reconcile.GET("/orders/:order_id/records", h.recon.OrderRecords)
		}

		statements := v1.Group("/statements")
		{
			statements.POST("", h.statement.Create)
			statements.GET("/:id", h.statement.Get)
		}

		cases := v1.Group("/debt/cases")
		{
			cases.GET("", h.debt.List)
			cases.GET("/export", h.debt.Export)
			cases.GET("/:order_id", h.debt.Get)
			cases.POST("/:order_id/attempts", h.debt.RecordAttempt)
			cases.POST("/:order_id/close", h.debt.Close)
			cases.POST("/:order_id/reopen", h.debt.Reopen)
		}

		v1.GET("/summary", h.summary.Get)
	}

	return router
}
