package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	BackendXLSX     = "xlsx"
	BackendPostgres = "postgres"
)

type Config struct {
	DataDir        string
	ProductsFile   string
	CustomersFile  string
	HistoryDir     string
	AuditLog       string
	CatalogBackend string
	DBSource       string
	MigrationsPath string
	Port           string
	Env            string

	DiscountRate     decimal.Decimal
	CheckoutAttempts int
}

func Load() (*Config, error) {
	dataDir := getenv("DATA_DIR", "database")

	cfg := &Config{
		DataDir:        dataDir,
		ProductsFile:   getenv("PRODUCTS_FILE", filepath.Join(dataDir, "products.xlsx")),
		CustomersFile:  getenv("CUSTOMERS_FILE", filepath.Join(dataDir, "customer.csv")),
		HistoryDir:     getenv("HISTORY_DIR", filepath.Join(dataDir, "DATABASE")),
		AuditLog:       getenv("AUDIT_LOG", filepath.Join(dataDir, "log.txt")),
		CatalogBackend: getenv("CATALOG_BACKEND", BackendXLSX),
		DBSource:       os.Getenv("DB_SOURCE"),
		MigrationsPath: getenv("MIGRATIONS_PATH", "migrations"),
		Port:           getenv("SERVER_PORT", "8080"),
		Env:            getenv("ENVIRONMENT", "development"),
	}

	switch cfg.CatalogBackend {
	case BackendXLSX:
	case BackendPostgres:
		if cfg.DBSource == "" {
			return nil, fmt.Errorf("DB_SOURCE environment variable is required for the %s backend", BackendPostgres)
		}
	default:
		return nil, fmt.Errorf("unknown CATALOG_BACKEND %q", cfg.CatalogBackend)
	}

	rate, err := decimal.NewFromString(getenv("STORE_DISCOUNT_RATE", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_DISCOUNT_RATE: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("STORE_DISCOUNT_RATE must be in [0, 1), got %s", rate)
	}
	cfg.DiscountRate = rate

	attempts, err := strconv.Atoi(getenv("CHECKOUT_ATTEMPTS", "3"))
	if err != nil || attempts < 1 {
		return nil, fmt.Errorf("CHECKOUT_ATTEMPTS must be a positive integer")
	}
	cfg.CheckoutAttempts = attempts

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
