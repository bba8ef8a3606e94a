package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/punchamoorthee/storeops/internal/config"
	"github.com/punchamoorthee/storeops/internal/domain"
	"github.com/punchamoorthee/storeops/internal/store"
	"github.com/shopspring/decimal"
)

var (
	totalProducts  int
	totalCustomers int
	initialStock   int
)

func init() {
	flag.IntVar(&totalProducts, "products", 100, "Number of products to seed")
	flag.IntVar(&totalCustomers, "customers", 50, "Number of customers to seed")
	flag.IntVar(&initialStock, "stock", 1000, "Initial stock per product")
}

func main() {
	flag.Parse()
	if err := validateFlags(); err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()

	log.Println("--- Seeding Store ---")

	products := generateProducts(totalProducts, initialStock)
	switch cfg.CatalogBackend {
	case config.BackendPostgres:
		seedPostgres(ctx, cfg, products)
	default:
		seedXLSX(ctx, cfg, products)
	}

	seedCustomers(ctx, cfg)
}

func validateFlags() error {
	switch {
	case totalProducts < 0:
		return fmt.Errorf("-products must not be negative, got %d", totalProducts)
	case totalCustomers < 0:
		return fmt.Errorf("-customers must not be negative, got %d", totalCustomers)
	case initialStock < 0:
		return fmt.Errorf("-stock must not be negative, got %d", initialStock)
	}
	return nil
}

func seedPostgres(ctx context.Context, cfg *config.Config, products []domain.Product) {
	if err := store.RunMigrations(cfg.DBSource, cfg.MigrationsPath); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}
	catalog, err := store.NewPostgresCatalog(ctx, cfg.DBSource)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer catalog.Close()

	existing, err := catalog.ListAll(ctx)
	if err != nil {
		log.Fatalf("Reading catalog failed: %v", err)
	}
	if len(existing) >= len(products) {
		log.Printf("Catalog already has %d products. Skipping.", len(existing))
		return
	}

	// Bulk insert using CopyFrom
	n, err := catalog.CopyProducts(ctx, products[len(existing):])
	if err != nil {
		log.Fatalf("Bulk insert failed: %v", err)
	}
	log.Printf("Successfully seeded %d products.", n)
}

func seedXLSX(ctx context.Context, cfg *config.Config, products []domain.Product) {
	catalog, err := store.NewXLSXCatalog(cfg.ProductsFile)
	if err != nil {
		log.Fatalf("Unable to open %s: %v", cfg.ProductsFile, err)
	}

	added := 0
	for _, p := range products {
		err := catalog.AddProduct(ctx, p)
		if errors.Is(err, store.ErrDuplicateProduct) {
			continue
		}
		if err != nil {
			log.Fatalf("Adding %s failed: %v", p.ID, err)
		}
		added++
	}
	log.Printf("Successfully seeded %d products into %s.", added, cfg.ProductsFile)
}

func seedCustomers(ctx context.Context, cfg *config.Config) {
	dir := store.NewCustomerDirectory(cfg.CustomersFile)
	added := 0
	for i := 1; i <= totalCustomers; i++ {
		email := fmt.Sprintf("shopper%d@example.com", i)
		_, err := dir.Register(ctx, fmt.Sprintf("Shopper %d", i), email, "")
		if errors.Is(err, store.ErrDuplicateCustomer) {
			continue
		}
		if err != nil {
			log.Fatalf("Registering %s failed: %v", email, err)
		}
		added++
	}
	log.Printf("Successfully seeded %d customers into %s.", added, cfg.CustomersFile)
}

// generateProducts builds ids P0001.. with prices cycling 0.99 to 9.99.
func generateProducts(n, stock int) []domain.Product {
	products := make([]domain.Product, 0, n)
	for i := 1; i <= n; i++ {
		cents := int64(99 + (i%10)*100)
		products = append(products, domain.Product{
			ID:    fmt.Sprintf("P%04d", i),
			Name:  fmt.Sprintf("Product %d", i),
			Price: decimal.New(cents, -2),
			Stock: stock,
		})
	}
	return products
}
