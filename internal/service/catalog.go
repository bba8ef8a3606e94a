package service

import (
	"context"
	"fmt"

	"github.com/punchamoorthee/storeops/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService is the admin and browsing surface over a product store.
type CatalogService struct {
	store   CatalogAdmin
	auditor *Auditor
}

func NewCatalogService(store CatalogAdmin, auditor *Auditor) *CatalogService {
	return &CatalogService{store: store, auditor: auditor}
}

func (s *CatalogService) List(ctx context.Context) ([]domain.Product, error) {
	return s.store.ListAll(ctx)
}

func (s *CatalogService) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.store.Find(ctx, id)
}

func (s *CatalogService) Add(ctx context.Context, p domain.Product) (domain.Product, error) {
	return WithAudit(s.auditor, "add_product", func() (domain.Product, error) {
		if err := s.store.AddProduct(ctx, p); err != nil {
			return domain.Product{}, err
		}
		return p, nil
	}, zap.String("product_id", p.ID))
}

func (s *CatalogService) Remove(ctx context.Context, id string) error {
	_, err := WithAudit(s.auditor, "remove_product", func() (struct{}, error) {
		return struct{}{}, s.store.RemoveProduct(ctx, id)
	}, zap.String("product_id", id))
	return err
}

func (s *CatalogService) RemoveByName(ctx context.Context, name string) error {
	_, err := WithAudit(s.auditor, "remove_product_by_name", func() (struct{}, error) {
		return struct{}{}, s.store.RemoveProductByName(ctx, name)
	}, zap.String("product_name", name))
	return err
}

// Stats summarises the catalog. An empty catalog yields the zero value.
func (s *CatalogService) Stats(ctx context.Context) (domain.ProductStats, error) {
	products, err := s.store.ListAll(ctx)
	if err != nil {
		return domain.ProductStats{}, fmt.Errorf("listing products: %w", err)
	}
	return ComputeStats(products), nil
}

// ComputeStats derives min, max and mean price and stock.
func ComputeStats(products []domain.Product) domain.ProductStats {
	if len(products) == 0 {
		return domain.ProductStats{}
	}

	st := domain.ProductStats{
		Count:    len(products),
		MinPrice: products[0].Price,
		MaxPrice: products[0].Price,
		MinStock: products[0].Stock,
		MaxStock: products[0].Stock,
	}
	priceSum := decimal.Zero
	stockSum := 0
	for _, p := range products {
		st.MinPrice = decimal.Min(st.MinPrice, p.Price)
		st.MaxPrice = decimal.Max(st.MaxPrice, p.Price)
		st.MinStock = min(st.MinStock, p.Stock)
		st.MaxStock = max(st.MaxStock, p.Stock)
		priceSum = priceSum.Add(p.Price)
		stockSum += p.Stock
	}
	n := decimal.NewFromInt(int64(len(products)))
	st.AvgPrice = priceSum.Div(n).Round(2)
	st.AvgStock = float64(stockSum) / float64(len(products))
	return st
}

// CheckAvailability reports whether id has at least qty units in stock.
func (s *CatalogService) CheckAvailability(ctx context.Context, id string, qty int) (bool, error) {
	if qty <= 0 {
		return false, &Error{Kind: KindInvalidQuantity, ProductID: id, Requested: qty}
	}
	p, err := s.store.Find(ctx, id)
	if err != nil {
		return false, err
	}
	return p.Stock >= qty, nil
}
