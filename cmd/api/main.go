package main

import (
	"context"
	"log"
	"net/http"

	"github.com/punchamoorthee/storeops/internal/api"
	"github.com/punchamoorthee/storeops/internal/config"
	"github.com/punchamoorthee/storeops/internal/service"
	"github.com/punchamoorthee/storeops/internal/store"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Unable to build logger: %v", err)
	}
	defer logger.Sync()

	// Catalog backend
	var catalog service.CatalogAdmin
	switch cfg.CatalogBackend {
	case config.BackendPostgres:
		if err := store.RunMigrations(cfg.DBSource, cfg.MigrationsPath); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
		pg, err := store.NewPostgresCatalog(context.Background(), cfg.DBSource)
		if err != nil {
			logger.Fatal("unable to connect to database", zap.Error(err))
		}
		defer pg.Close()
		catalog = pg
	default:
		xc, err := store.NewXLSXCatalog(cfg.ProductsFile)
		if err != nil {
			logger.Fatal("unable to open product file", zap.String("path", cfg.ProductsFile), zap.Error(err))
		}
		catalog = xc
	}

	auditor, err := service.NewAuditor(cfg.AuditLog)
	if err != nil {
		logger.Fatal("unable to open audit log", zap.String("path", cfg.AuditLog), zap.Error(err))
	}
	defer auditor.Sync()

	// Initialize Layers
	customers := store.NewCustomerDirectory(cfg.CustomersFile)
	history := store.NewHistoryLedger(cfg.HistoryDir)
	sessions := service.NewSessionService(customers, logger.Named("sessions"))
	checkout := service.NewCheckoutService(catalog, history,
		service.WithDiscount(cfg.DiscountRate),
		service.WithAttempts(cfg.CheckoutAttempts),
		service.WithLogger(logger.Named("checkout")),
	)
	handler := api.NewHandler(
		service.NewCatalogService(catalog, auditor),
		service.NewCustomerService(customers, history, sessions, auditor, logger.Named("customers")),
		sessions,
		checkout,
		logger.Named("api"),
	)

	logger.Info("server starting",
		zap.String("port", cfg.Port),
		zap.String("catalog_backend", cfg.CatalogBackend),
		zap.String("data_dir", cfg.DataDir),
	)
	if err := http.ListenAndServe(":"+cfg.Port, handler.Router()); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
