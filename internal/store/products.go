package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/store-backoffice/internal/models"
)

const productColumns = `id, name, description, price, stock_quantity, image_reference, created_at, updated_at`

func scanProduct(row rowScanner, p *models.Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.StockQuantity,
		&p.ImageReference,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (s *Store) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	created := &models.Product{}

	query := `
		INSERT INTO products (name, description, price, stock_quantity, image_reference, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + productColumns

	err := scanProduct(s.db.QueryRowContext(ctx, query,
		product.Name,
		product.Description,
		product.Price.Round(2),
		product.StockQuantity,
		product.ImageReference,
	), created)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return created, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product := &models.Product{}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	if err := scanProduct(s.db.QueryRowContext(ctx, query, id), product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func (s *Store) ListProducts(ctx context.Context, page, pageSize int) (*models.OffsetPage[models.Product], error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		if err := scanProduct(rows, &product); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return models.NewOffsetPage(products, total, page, pageSize), nil
}

// LockProduct reads the product row under FOR UPDATE so concurrent
// checkouts touching the same product queue behind this transaction.
func (t *txStore) LockProduct(ctx context.Context, id int64) (*models.Product, error) {
	product := &models.Product{}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	if err := scanProduct(t.q.QueryRowContext(ctx, query, id), product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrProductNotFound
		}
		return nil, fmt.Errorf("lock product: %w", err)
	}

	return product, nil
}

func (t *txStore) DecrementStock(ctx context.Context, id int64, quantity int) error {
	result, err := t.q.ExecContext(ctx,
		`UPDATE products
		 SET stock_quantity = stock_quantity - $1,
		     updated_at = NOW()
		 WHERE id = $2
		   AND stock_quantity >= $1`,
		quantity, id)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrInsufficientStock
	}

	return nil
}

func (t *txStore) IncrementStock(ctx context.Context, id int64, quantity int) error {
	result, err := t.q.ExecContext(ctx,
		`UPDATE products
		 SET stock_quantity = stock_quantity + $1,
		     updated_at = NOW()
		 WHERE id = $2`,
		quantity, id)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrProductNotFound
	}

	return nil
}
