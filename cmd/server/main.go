package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ledgerapp "github.com/bookkeep/backend/internal/application/ledger"
	reportapp "github.com/bookkeep/backend/internal/application/report"
	ledgerdomain "github.com/bookkeep/backend/internal/domain/ledger"
	"github.com/bookkeep/backend/internal/infrastructure/config"
	"github.com/bookkeep/backend/internal/infrastructure/logger"
	"github.com/bookkeep/backend/internal/infrastructure/persistence"
	"github.com/bookkeep/backend/internal/infrastructure/storage"
	"github.com/bookkeep/backend/internal/interfaces/http/handler"
	"github.com/bookkeep/backend/internal/interfaces/http/middleware"
	"github.com/bookkeep/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.NewFromAppConfig(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting bookkeeping backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize snapshot storage
	store, err := newStorage(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize storage", zap.Error(err))
	}

	// Load the persisted ledger into memory
	ledgerStore := persistence.NewLedgerStore()
	snapshot, err := store.Load(context.Background())
	if err != nil {
		log.Fatal("Failed to load ledger snapshot", zap.Error(err))
	}
	if err := ledgerStore.Seed(snapshot); err != nil {
		log.Fatal("Failed to seed ledger store", zap.Error(err))
	}
	invoices, expenses := ledgerStore.Counts()
	log.Info("Ledger loaded",
		zap.String("driver", cfg.Storage.Driver),
		zap.String("path", cfg.Storage.Path),
		zap.Int("invoices", invoices),
		zap.Int("expenses", expenses),
	)

	// Initialize application services
	ledgerService := ledgerapp.NewLedgerService(ledgerStore, store, log)
	queryService := ledgerapp.NewQueryService(ledgerStore)
	reportService := reportapp.NewReportService(ledgerStore, cfg.Report.EstimatedTaxRate, log)

	// Initialize HTTP handlers
	invoiceHandler := handler.NewInvoiceHandler(ledgerService)
	expenseHandler := handler.NewExpenseHandler(ledgerService)
	recordHandler := handler.NewRecordHandler(ledgerService, queryService)
	reportHandler := handler.NewReportHandler(reportService)
	systemHandler := handler.NewSystemHandler(ledgerStore)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID, panic recovery, request logging, CORS
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORS(middleware.CORSFromAppConfig(cfg.HTTP)))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.RegisterGroup("/ledger", invoiceHandler, expenseHandler, recordHandler)
	r.Register(reportHandler)
	r.Register(systemHandler)
	r.Setup()

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

	// Periodically flush unsaved changes to storage
	autosaveDone := make(chan struct{})
	if cfg.Storage.Autosave {
		go autosaveLoop(cfg.Storage.AutosaveInterval, ledgerService, log, autosaveDone)
	} else {
		close(autosaveDone)
	}

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

	if cfg.Storage.Autosave {
		close(autosaveDone)
	}

	// Final flush so nothing recorded in memory is lost
	if saved, err := ledgerService.Flush(ctx); err != nil {
		log.Error("Final flush failed", zap.Error(err))
	} else if saved {
		log.Info("Ledger snapshot saved on shutdown")
	}

	log.Info("Server exited gracefully")
}

// newStorage selects the snapshot backend from configuration.
func newStorage(cfg *config.Config, log *zap.Logger) (ledgerdomain.Storage, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		return storage.NewSQLiteStorage(cfg.Storage.Path, log)
	default:
		return storage.NewJSONFileStorage(cfg.Storage.Path, log), nil
	}
}

func autosaveLoop(interval time.Duration, svc *ledgerapp.LedgerService, log *zap.Logger, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			saved, err := svc.Flush(ctx)
			cancel()
			if err != nil {
				log.Error("Autosave failed", zap.Error(err))
			} else if saved {
				log.Debug("Autosave completed")
			}
		case <-done:
			return
		}
	}
}
