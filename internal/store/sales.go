package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/safar/store-backoffice/internal/database"
	"github.com/safar/store-backoffice/internal/models"
)

const saleColumns = `id, invoice_number, payment_method, amount_paid, total_amount, created_at`

func scanSale(row rowScanner, s *models.Sale) error {
	return row.Scan(
		&s.ID,
		&s.InvoiceNumber,
		&s.PaymentMethod,
		&s.AmountPaid,
		&s.TotalAmount,
		&s.CreatedAt,
	)
}

// InsertSale uses ON CONFLICT DO NOTHING on the invoice number so a
// collision leaves the transaction usable for another attempt.
func (t *txStore) InsertSale(ctx context.Context, sale *models.Sale) error {
	err := t.q.QueryRowContext(ctx,
		`INSERT INTO sales (invoice_number, payment_method, amount_paid, total_amount, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (invoice_number) DO NOTHING
		 RETURNING id`,
		sale.InvoiceNumber, sale.PaymentMethod, sale.AmountPaid, sale.TotalAmount, sale.CreatedAt,
	).Scan(&sale.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrDuplicateInvoice
		}
		if database.IsCheckViolation(err) {
			return &models.PaymentError{Total: sale.TotalAmount, Paid: sale.AmountPaid}
		}
		return fmt.Errorf("create sale: %w", err)
	}

	for i := range sale.Items {
		item := &sale.Items[i]
		err := t.q.QueryRowContext(ctx,
			`INSERT INTO sale_items (sale_id, product_id, product_name, product_image, unit_price, quantity, subtotal)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			sale.ID, item.ProductID, item.ProductName, item.ProductImage, item.UnitPrice, item.Quantity, item.Subtotal,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("create sale item: %w", err)
		}
	}

	return nil
}

func (s *Store) GetSale(ctx context.Context, id int64) (*models.Sale, error) {
	return s.getSale(ctx, `id = $1`, id)
}

func (s *Store) GetSaleByInvoice(ctx context.Context, invoiceNumber string) (*models.Sale, error) {
	return s.getSale(ctx, `invoice_number = $1`, invoiceNumber)
}

func (s *Store) getSale(ctx context.Context, where string, arg any) (*models.Sale, error) {
	sale := &models.Sale{}

	query := `SELECT ` + saleColumns + ` FROM sales WHERE ` + where

	if err := scanSale(s.db.QueryRowContext(ctx, query, arg), sale); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrSaleNotFound
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	items, err := s.loadSaleItems(ctx, []int64{sale.ID})
	if err != nil {
		return nil, err
	}
	sale.Items = items[sale.ID]

	return sale, nil
}

func (s *Store) ListSales(ctx context.Context) ([]models.Sale, error) {
	return s.querySales(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY created_at DESC, id DESC`)
}

func (s *Store) ListSalesBetween(ctx context.Context, from, to time.Time) ([]models.Sale, error) {
	return s.querySales(ctx,
		`SELECT `+saleColumns+`
		 FROM sales
		 WHERE created_at >= $1 AND created_at < $2
		 ORDER BY created_at, id`,
		from, to)
}

func (s *Store) querySales(ctx context.Context, query string, args ...any) ([]models.Sale, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := []models.Sale{}
	for rows.Next() {
		var sale models.Sale
		if err := scanSale(rows, &sale); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if len(sales) == 0 {
		return sales, nil
	}

	ids := make([]int64, len(sales))
	for i, sale := range sales {
		ids[i] = sale.ID
	}
	items, err := s.loadSaleItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].Items = items[sales[i].ID]
	}

	return sales, nil
}

func (s *Store) loadSaleItems(ctx context.Context, saleIDs []int64) (map[int64][]models.LineItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sale_id, product_id, product_name, product_image, unit_price, quantity, subtotal
		 FROM sale_items
		 WHERE sale_id = ANY($1)
		 ORDER BY sale_id, id`,
		pq.Array(saleIDs))
	if err != nil {
		return nil, fmt.Errorf("get sale items: %w", err)
	}
	defer rows.Close()

	items := make(map[int64][]models.LineItem, len(saleIDs))
	for rows.Next() {
		var (
			item   models.LineItem
			saleID int64
		)
		err := rows.Scan(
			&item.ID,
			&saleID,
			&item.ProductID,
			&item.ProductName,
			&item.ProductImage,
			&item.UnitPrice,
			&item.Quantity,
			&item.Subtotal,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		items[saleID] = append(items[saleID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}
