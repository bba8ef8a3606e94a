package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/punchamoorthee/storeops/internal/domain"
	"github.com/shopspring/decimal"
)

var productColumns = []string{"id", "name", "price", "stock"}

// ValidateProduct enforces the field rules every catalog backend relies on.
func ValidateProduct(p domain.Product) error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("%w: id is required", ErrInvalidProduct)
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: price must be non-negative", ErrInvalidProduct)
	case p.Stock < 0:
		return fmt.Errorf("%w: stock must be non-negative", ErrInvalidProduct)
	}
	return nil
}

// parseProductRows turns a header row plus data rows into products.
// Columns are located by header name, so their order does not matter.
func parseProductRows(rows [][]string) ([]domain.Product, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	idx := make(map[string]int, len(productColumns))
	for i, h := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range productColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedFile, col)
		}
	}

	cell := func(row []string, col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	products := make([]domain.Product, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		line := n + 2

		price, err := decimal.NewFromString(cell(row, "price"))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: price: %v", ErrMalformedFile, line, err)
		}
		stock, err := parseStock(cell(row, "stock"))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: stock: %v", ErrMalformedFile, line, err)
		}

		p := domain.Product{
			ID:    cell(row, "id"),
			Name:  cell(row, "name"),
			Price: price,
			Stock: stock,
		}
		if err := ValidateProduct(p); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedFile, line, err)
		}
		products = append(products, p)
	}
	return products, nil
}

// parseStock accepts "7" as well as the "7.0" spreadsheets like to produce.
func parseStock(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("%s is not a whole number", s)
	}
	return int(d.IntPart()), nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func indexOfProduct(products []domain.Product, id string) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
