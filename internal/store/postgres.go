package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/punchamoorthee/storeops/internal/domain"
	"github.com/shopspring/decimal"
)

// PostgresCatalog is the SQL alternative to XLSXCatalog. Stock changes take a
// row lock, so concurrent checkouts against the same product serialize.
type PostgresCatalog struct {
	Db *pgxpool.Pool
}

func NewPostgresCatalog(ctx context.Context, connString string) (*PostgresCatalog, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &PostgresCatalog{Db: pool}, nil
}

func (s *PostgresCatalog) Close() {
	s.Db.Close()
}

// ListAll returns every product ordered by id.
func (s *PostgresCatalog) ListAll(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.Db.Query(ctx, "SELECT id, name, price::text, stock FROM products ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Find retrieves a single product by id.
func (s *PostgresCatalog) Find(ctx context.Context, id string) (domain.Product, error) {
	row := s.Db.QueryRow(ctx, "SELECT id, name, price::text, stock FROM products WHERE id = $1", id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return p, err
}

// AdjustStock locks the product row, checks the resulting level and applies
// the delta inside one transaction.
func (s *PostgresCatalog) AdjustStock(ctx context.Context, id string, delta int) (domain.Product, error) {
	tx, err := s.Db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return domain.Product{}, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := scanProduct(tx.QueryRow(ctx,
		"SELECT id, name, price::text, stock FROM products WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		return domain.Product{}, fmt.Errorf("lock acquisition failed: %w", err)
	}

	if p.Stock+delta < 0 {
		return domain.Product{}, fmt.Errorf("%w: %s has %d, adjustment %d", ErrInsufficientStock, id, p.Stock, delta)
	}

	if _, err = tx.Exec(ctx, "UPDATE products SET stock = stock + $1 WHERE id = $2", delta, id); err != nil {
		return domain.Product{}, fmt.Errorf("stock update failed: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return domain.Product{}, fmt.Errorf("tx commit failed: %w", err)
	}

	p.Stock += delta
	return p, nil
}

func (s *PostgresCatalog) AddProduct(ctx context.Context, p domain.Product) error {
	if err := ValidateProduct(p); err != nil {
		return err
	}
	_, err := s.Db.Exec(ctx,
		"INSERT INTO products (id, name, price, stock) VALUES ($1, $2, $3::numeric, $4)",
		p.ID, p.Name, p.Price.String(), p.Stock,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrDuplicateProduct, p.ID)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *PostgresCatalog) RemoveProduct(ctx context.Context, id string) error {
	return s.deleteWhere(ctx, "DELETE FROM products WHERE id = $1", id)
}

func (s *PostgresCatalog) RemoveProductByName(ctx context.Context, name string) error {
	return s.deleteWhere(ctx, "DELETE FROM products WHERE name = $1", name)
}

func (s *PostgresCatalog) deleteWhere(ctx context.Context, query, key string) error {
	tag, err := s.Db.Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, key)
	}
	return nil
}

// CopyProducts bulk-loads products with COPY. The whole batch is validated
// before anything is sent.
func (s *PostgresCatalog) CopyProducts(ctx context.Context, products []domain.Product) (int64, error) {
	rows := make([][]interface{}, 0, len(products))
	for _, p := range products {
		if err := ValidateProduct(p); err != nil {
			return 0, err
		}
		var price pgtype.Numeric
		if err := price.Scan(p.Price.String()); err != nil {
			return 0, fmt.Errorf("product %s: price: %w", p.ID, err)
		}
		rows = append(rows, []interface{}{p.ID, p.Name, price, int32(p.Stock)})
	}
	return s.Db.CopyFrom(ctx,
		pgx.Identifier{"products"},
		[]string{"id", "name", "price", "stock"},
		pgx.CopyFromRows(rows),
	)
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p     domain.Product
		price string
		stock int32
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &stock); err != nil {
		return domain.Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: price %q: %w", p.ID, price, err)
	}
	p.Price = d
	p.Stock = int(stock)
	return p, nil
}
