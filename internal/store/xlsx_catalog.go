package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"

	"github.com/punchamoorthee/storeops/internal/domain"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/singleflight"
)

const productSheet = "Sheet1"

// XLSXCatalog keeps the product catalog in a spreadsheet with the columns
// id | name | price | stock. Every operation goes back to the file, so several
// processes can share it; writers hold an exclusive advisory lock.
type XLSXCatalog struct {
	path  string
	guard *fileGuard
	reads singleflight.Group
}

// NewXLSXCatalog opens the spreadsheet at path, creating it with a header row
// if it does not exist yet.
func NewXLSXCatalog(path string) (*XLSXCatalog, error) {
	c := &XLSXCatalog{path: path, guard: newFileGuard(path)}
	err := c.guard.withWrite(func() error {
		if _, err := os.Stat(c.path); err == nil {
			return nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return c.save(nil)
	})
	if err != nil {
		return nil, fmt.Errorf("initialize catalog %s: %w", path, err)
	}
	return c, nil
}

func (c *XLSXCatalog) Path() string {
	return c.path
}

// ListAll returns every product in file order. Concurrent callers share a
// single read of the file.
func (c *XLSXCatalog) ListAll(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err, _ := c.reads.Do("all", func() (interface{}, error) {
		var products []domain.Product
		err := c.guard.withRead(func() error {
			var err error
			products, err = c.load()
			return err
		})
		return products, err
	})
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return slices.Clone(v.([]domain.Product)), nil
}

func (c *XLSXCatalog) Find(ctx context.Context, id string) (domain.Product, error) {
	products, err := c.ListAll(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	if i := indexOfProduct(products, id); i >= 0 {
		return products[i], nil
	}
	return domain.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
}

// AdjustStock applies stock += delta under the write lock, refusing any change
// that would leave the stock negative.
func (c *XLSXCatalog) AdjustStock(ctx context.Context, id string, delta int) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	var updated domain.Product
	err := c.mutate(func(products []domain.Product) ([]domain.Product, error) {
		i := indexOfProduct(products, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		if products[i].Stock+delta < 0 {
			return nil, fmt.Errorf("%w: %s has %d, adjustment %d", ErrInsufficientStock, id, products[i].Stock, delta)
		}
		products[i].Stock += delta
		updated = products[i]
		return products, nil
	})
	return updated, err
}

func (c *XLSXCatalog) AddProduct(ctx context.Context, p domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateProduct(p); err != nil {
		return err
	}
	return c.mutate(func(products []domain.Product) ([]domain.Product, error) {
		if indexOfProduct(products, p.ID) >= 0 {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProduct, p.ID)
		}
		return append(products, p), nil
	})
}

func (c *XLSXCatalog) RemoveProduct(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.remove(func(p domain.Product) bool { return p.ID == id }, id)
}

// RemoveProductByName removes every product carrying exactly this name.
func (c *XLSXCatalog) RemoveProductByName(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.remove(func(p domain.Product) bool { return p.Name == name }, name)
}

func (c *XLSXCatalog) remove(match func(domain.Product) bool, key string) error {
	return c.mutate(func(products []domain.Product) ([]domain.Product, error) {
		kept := slices.DeleteFunc(products, match)
		if len(kept) == len(products) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, key)
		}
		return kept, nil
	})
}

// mutate runs a read-modify-write cycle under the exclusive lock. fn returning
// an error leaves the file untouched.
func (c *XLSXCatalog) mutate(fn func([]domain.Product) ([]domain.Product, error)) error {
	defer c.reads.Forget("all")
	return c.guard.withWrite(func() error {
		products, err := c.load()
		if err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}
		n := len(products)
		products, err = fn(products)
		if err != nil {
			return err
		}
		if err := c.save(products); err != nil {
			return fmt.Errorf("write catalog (%d -> %d rows): %w", n, len(products), err)
		}
		return nil
	})
}

func (c *XLSXCatalog) load() ([]domain.Product, error) {
	f, err := excelize.OpenFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrMalformedFile, c.path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return parseProductRows(rows)
}

func (c *XLSXCatalog) save(products []domain.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(productColumns))
	for i, col := range productColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(productSheet, "A1", &header); err != nil {
		return err
	}
	for i, p := range products {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{p.ID, p.Name, p.Price.InexactFloat64(), p.Stock}
		if err := f.SetSheetRow(productSheet, cell, &row); err != nil {
			return err
		}
	}
	return writeFileAtomic(c.path, func(w io.Writer) error {
		return f.Write(w)
	})
}
