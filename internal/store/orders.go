package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/safar/store-backoffice/internal/models"
)

const orderSelect = `
	SELECT o.id, o.user_id, u.name, u.email, o.status, o.payment_method, o.payment_status,
	       o.shipping_full_name, o.shipping_phone, o.shipping_address, o.shipping_city, o.shipping_county,
	       o.order_notes, o.total_amount, o.created_at, o.updated_at
	FROM orders o
	JOIN users u ON u.id = o.user_id`

func scanOrder(row rowScanner, o *models.Order) error {
	return row.Scan(
		&o.ID,
		&o.UserID,
		&o.UserName,
		&o.UserEmail,
		&o.Status,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.Shipping.FullName,
		&o.Shipping.Phone,
		&o.Shipping.Address,
		&o.Shipping.City,
		&o.Shipping.County,
		&o.Notes,
		&o.TotalAmount,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}

func (t *txStore) InsertOrder(ctx context.Context, order *models.Order) error {
	err := t.q.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, status, payment_method, payment_status,
		                     shipping_full_name, shipping_phone, shipping_address, shipping_city, shipping_county,
		                     order_notes, total_amount, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id`,
		order.UserID,
		order.Status,
		order.PaymentMethod,
		order.PaymentStatus,
		order.Shipping.FullName,
		order.Shipping.Phone,
		order.Shipping.Address,
		order.Shipping.City,
		order.Shipping.County,
		order.Notes,
		order.TotalAmount,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		err := t.q.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, product_name, product_image, unit_price, quantity, subtotal)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			order.ID, item.ProductID, item.ProductName, item.ProductImage, item.UnitPrice, item.Quantity, item.Subtotal,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
	}

	return nil
}

// LockOrder holds the order row until commit. Concurrent cancellations of
// the same order serialise here, so stock is restored at most once.
func (t *txStore) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}

	query := orderSelect + ` WHERE o.id = $1 FOR UPDATE OF o`

	if err := scanOrder(t.q.QueryRowContext(ctx, query, id), order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}

	items, err := loadOrderItems(ctx, t.q, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return order, nil
}

func (t *txStore) UpdateOrder(ctx context.Context, order *models.Order) error {
	result, err := t.q.ExecContext(ctx,
		`UPDATE orders
		 SET status = $1, payment_status = $2, updated_at = $3
		 WHERE id = $4`,
		order.Status, order.PaymentStatus, order.UpdatedAt, order.ID)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrOrderNotFound
	}

	return nil
}

func (t *txStore) DeleteOrder(ctx context.Context, id int64) error {
	result, err := t.q.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrOrderNotFound
	}

	return nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}

	if err := scanOrder(s.db.QueryRowContext(ctx, orderSelect+` WHERE o.id = $1`, id), order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := loadOrderItems(ctx, s.db, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return order, nil
}

// ListUserOrders is keyset-paginated on (created_at, id), newest first.
func (s *Store) ListUserOrders(ctx context.Context, userID int64, cursor string, limit int) (*models.CursorPage[models.Order], error) {
	cursorData, err := models.DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	query := orderSelect + `
		WHERE o.user_id = $1
		  AND (o.created_at, o.id) < ($2, $3)
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $4`

	orders, err := s.queryOrders(ctx, query, userID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = models.EncodeCursor(models.OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	if orders == nil {
		orders = []models.Order{}
	}

	return &models.CursorPage[models.Order]{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (s *Store) ListOrders(ctx context.Context, page, pageSize int) (*models.OffsetPage[models.Order], error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	offset := (page - 1) * pageSize
	query := orderSelect + `
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $1 OFFSET $2`

	orders, err := s.queryOrders(ctx, query, pageSize, offset)
	if err != nil {
		return nil, err
	}

	return models.NewOffsetPage(orders, total, page, pageSize), nil
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := loadOrderItems(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

func loadOrderItems(ctx context.Context, q querier, orderIDs []int64) (map[int64][]models.LineItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, product_image, unit_price, quantity, subtotal
		 FROM order_items
		 WHERE order_id = ANY($1)
		 ORDER BY order_id, id`,
		pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	items := make(map[int64][]models.LineItem, len(orderIDs))
	for rows.Next() {
		var (
			item    models.LineItem
			orderID int64
		)
		err := rows.Scan(
			&item.ID,
			&orderID,
			&item.ProductID,
			&item.ProductName,
			&item.ProductImage,
			&item.UnitPrice,
			&item.Quantity,
			&item.Subtotal,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items[orderID] = append(items[orderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}
