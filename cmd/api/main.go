package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fauzanhr/pharmastock-service/config"
	"github.com/fauzanhr/pharmastock-service/internal/auth"
	"github.com/fauzanhr/pharmastock-service/internal/idempotency"
	"github.com/fauzanhr/pharmastock-service/internal/logger"
	"github.com/fauzanhr/pharmastock-service/internal/notify"
	"github.com/fauzanhr/pharmastock-service/migrations"

	delH "github.com/fauzanhr/pharmastock-service/internal/delivery/handler"
	delRepoPkg "github.com/fauzanhr/pharmastock-service/internal/delivery/repository"
	delUCPkg "github.com/fauzanhr/pharmastock-service/internal/delivery/usecase"

	invH "github.com/fauzanhr/pharmastock-service/internal/inventory/handler"
	invRepoPkg "github.com/fauzanhr/pharmastock-service/internal/inventory/repository"
	invUCPkg "github.com/fauzanhr/pharmastock-service/internal/inventory/usecase"

	locRepoPkg "github.com/fauzanhr/pharmastock-service/internal/location/repository"

	saleH "github.com/fauzanhr/pharmastock-service/internal/sale/handler"
	saleRepoPkg "github.com/fauzanhr/pharmastock-service/internal/sale/repository"
	saleUCPkg "github.com/fauzanhr/pharmastock-service/internal/sale/usecase"

	trfH "github.com/fauzanhr/pharmastock-service/internal/transfer/handler"
	trfRepoPkg "github.com/fauzanhr/pharmastock-service/internal/transfer/repository"
	trfUCPkg "github.com/fauzanhr/pharmastock-service/internal/transfer/usecase"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	appLogger := logger.New(cfg.Logger, cfg.Server.AppEnv)
	defer appLogger.Sync()

	// 3. Connect to Database
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second)
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Run Migrations
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		appLogger.Fatal("Could not set migration dialect", zap.Error(err))
	}
	if err := goose.Up(db.DB, "."); err != nil {
		appLogger.Fatal("Could not run migrations", zap.Error(err))
	}

	// 5. Initialize Redis (optional: empty addr disables idempotency claims and event publishing)
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			appLogger.Warn("Could not reach Redis, continuing without it", zap.Error(err))
			redisClient = nil
		} else {
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 6. Initialize Repositories
	locRepo := locRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	trfRepo := trfRepoPkg.NewPGRepository(db)
	delRepo := delRepoPkg.NewPGRepository(db)
	saleRepo := saleRepoPkg.NewPGRepository(db)

	// 7. Initialize Collaborators
	notifier := notify.NewRedisNotifier(redisClient, appLogger)
	auditor := notify.NewLogAuditor(appLogger)
	guard := idempotency.NewGuard(redisClient)

	// 8. Initialize UseCases
	invUC := invUCPkg.NewInventoryUseCase(invRepo, locRepo, auditor, appLogger)
	trfUC := trfUCPkg.NewTransferUseCase(trfRepo, invRepo, locRepo, notifier, auditor, appLogger)
	delUC := delUCPkg.NewDeliveryUseCase(delRepo, invRepo, trfRepo, locRepo, notifier, auditor, appLogger)
	saleUC := saleUCPkg.NewSaleUseCase(saleRepo, locRepo, auditor, appLogger)

	// 9. Initialize Handlers
	invHandler := invH.NewInventoryHandler(invUC, appLogger)
	trfHandler := trfH.NewTransferHandler(trfUC, appLogger)
	delHandler := delH.NewDeliveryHandler(delUC, appLogger)
	saleHandler := saleH.NewSaleHandler(saleUC, appLogger)

	// 10. HTTP Router
	if cfg.Server.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(auth.Middleware(), guard.Middleware())
	invHandler.Register(api)
	trfHandler.Register(api)
	delHandler.Register(api)
	saleHandler.Register(api)

	// 11. Start Server
	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:    port,
		Handler: router,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("forced shutdown", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
