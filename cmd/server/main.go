package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tradeops/masterdata/internal/application/datasync"
	hscodeapp "github.com/tradeops/masterdata/internal/application/hscode"
	pricingapp "github.com/tradeops/masterdata/internal/application/pricing"
	tariffapp "github.com/tradeops/masterdata/internal/application/tariff"
	"github.com/tradeops/masterdata/internal/infrastructure/config"
	"github.com/tradeops/masterdata/internal/infrastructure/logger"
	"github.com/tradeops/masterdata/internal/infrastructure/scheduler"
	"github.com/tradeops/masterdata/internal/infrastructure/store"
	"github.com/tradeops/masterdata/internal/infrastructure/watcher"
	"github.com/tradeops/masterdata/internal/interfaces/http/handler"
	"github.com/tradeops/masterdata/internal/interfaces/http/middleware"
	"github.com/tradeops/masterdata/internal/interfaces/http/router"
)

//	@title			Master Data Sync API
//	@version		1.0
//	@description	Reference data synchronization and caching engine for import/export trade operations: watched CSV masters, versioned in-memory snapshots, HS code search, tariff decisions, landed-cost pricing.

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting master data sync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Materialize the configured datasets
	datasets, err := cfg.DatasetList()
	if err != nil {
		log.Fatal("Invalid dataset configuration", zap.Error(err))
	}
	keys := make([]string, 0, len(datasets))
	for _, ds := range datasets {
		keys = append(keys, ds.Key)
	}

	// Initialize the snapshot store and the sync pipeline
	snapshots := store.New(keys, log)

	syncService, err := datasync.New(datasync.Config{
		Scheduler: scheduler.Config{
			Interval:       cfg.Sync.Interval,
			JobTimeout:     cfg.Sync.JobTimeout,
			MaxAttempts:    cfg.Sync.MaxAttempts,
			RetryBaseDelay: cfg.Sync.RetryBaseDelay,
			RetryMaxDelay:  cfg.Sync.RetryMaxDelay,
		},
		Watcher: watcher.Config{
			Debounce:     cfg.Sync.Debounce,
			PollInterval: cfg.Sync.PollInterval,
		},
		MappingThreshold: cfg.Sync.MappingThreshold,
	}, datasets, snapshots, log)
	if err != nil {
		log.Fatal("Failed to build sync pipeline", zap.Error(err))
	}

	if err := syncService.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sync pipeline", zap.Error(err))
	}
	defer func() {
		if err := syncService.Stop(context.Background()); err != nil {
			log.Error("Error stopping sync pipeline", zap.Error(err))
		}
	}()
	log.Info("Sync pipeline started",
		zap.Int("datasets", len(datasets)),
		zap.Duration("interval", cfg.Sync.Interval),
	)

	// Initialize the consumer services over the snapshot store
	hscodeService := hscodeapp.New(snapshots, log)
	tariffService := tariffapp.New(snapshots, log)
	pricingService := pricingapp.New(tariffService, log)

	// Initialize HTTP handlers
	masterdataHandler := handler.NewMasterdataHandler(syncService)
	hscodeHandler := handler.NewHSCodeHandler(hscodeService)
	tariffHandler := handler.NewTariffHandler(tariffService)
	pricingHandler := handler.NewPricingHandler(pricingService)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Env, syncService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
		MaxAge:       12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(syncService))

	// Mount the API routes
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(masterdataHandler).
		Register(hscodeHandler).
		Register(tariffHandler).
		Register(pricingHandler).
		Register(systemHandler).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports dataset readiness: healthy once every registered
// dataset has a published snapshot
func healthHandler(sync *datasync.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		overviews := sync.Overviews()
		loaded := 0
		for _, ov := range overviews {
			if !ov.Snapshot.NeverLoaded {
				loaded++
			}
		}
		if loaded < len(overviews) {
			logger.GetGinLogger(c).Warn("Health check failed",
				zap.Int("loaded", loaded),
				zap.Int("total", len(overviews)),
			)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"datasets": gin.H{"loaded": loaded, "total": len(overviews)},
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"datasets": gin.H{"loaded": loaded, "total": len(overviews)},
		})
	}
}
