package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	catalogapp "github.com/pharmacy/backend/internal/application/catalog"
	inventoryapp "github.com/pharmacy/backend/internal/application/inventory"
	partnerapp "github.com/pharmacy/backend/internal/application/partner"
	"github.com/pharmacy/backend/internal/infrastructure/auth"
	"github.com/pharmacy/backend/internal/infrastructure/cache"
	"github.com/pharmacy/backend/internal/infrastructure/config"
	"github.com/pharmacy/backend/internal/infrastructure/logger"
	"github.com/pharmacy/backend/internal/infrastructure/persistence"
	"github.com/pharmacy/backend/internal/infrastructure/telemetry"
	"github.com/pharmacy/backend/internal/interfaces/http/handler"
	"github.com/pharmacy/backend/internal/interfaces/http/middleware"
	"github.com/pharmacy/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting pharmacy backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	middleware.SetupValidator()

	// Telemetry
	ctx := context.Background()
	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	if cfg.Telemetry.Enabled {
		dbTracing := telemetry.DefaultDBTracingConfig()
		dbTracing.Enabled = true
		if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}

	// Repositories
	medicineRepo := persistence.NewGormMedicineRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	summaryRepo := persistence.NewGormSummaryRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Application services
	summaries := inventoryapp.NewSummaryService(batchRepo, summaryRepo, log)
	if cfg.Redis.Enabled {
		summaryCache, err := cache.NewRedisSummaryCache(&cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := summaryCache.Close(); err != nil {
				log.Error("Error closing Redis connection", zap.Error(err))
			}
		}()
		summaries.SetCache(summaryCache)
		log.Info("Summary cache enabled", zap.Duration("ttl", cfg.Redis.SummaryTTL))
	}

	stockEngine := inventoryapp.NewStockTransactionService(txScope, medicineRepo, summaries, log)
	stockQueries := inventoryapp.NewStockQueryService(medicineRepo, batchRepo, ledgerRepo, summaries, log)
	medicineService := catalogapp.NewMedicineService(medicineRepo, batchRepo, log)
	supplierService := partnerapp.NewSupplierService(supplierRepo, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP layer
	r, err := router.New(cfg, log)
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	if cfg.JWT.Secret != "" {
		r.Use(middleware.JWTAuth(middleware.JWTConfig{
			Service: jwtService,
			Logger:  log,
			SkipPaths: []string{
				"/api/v1/system/ping",
				"/api/v1/system/info",
			},
		}))
	} else {
		log.Warn("JWT secret not configured, API authentication disabled")
	}

	systemHandler := handler.NewSystemHandler(db)
	r.Register(handler.NewStockHandler(stockEngine, stockQueries, cfg.Stock.ExpiryWarningDays)).
		Register(handler.NewMedicineHandler(medicineService)).
		Register(handler.NewSupplierHandler(supplierService)).
		Register(systemHandler)
	r.GET("/health", systemHandler.Health)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        r.Engine(),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
