// Package inventory owns per-product stock quantities. All mutations go
// through a Ledger bound to the caller's transaction.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/safar/store-backoffice/internal/models"
	"go.uber.org/zap"
)

// Stock is the row-level access a Ledger needs from the enclosing
// transaction.
type Stock interface {
	// LockProduct reads a product and holds a write lock on it until the
	// transaction ends. Returns models.ErrProductNotFound if absent.
	LockProduct(ctx context.Context, productID int64) (*models.Product, error)
	// DecrementStock subtracts quantity only if enough units remain, otherwise
	// it returns models.ErrInsufficientStock and changes nothing.
	DecrementStock(ctx context.Context, productID int64, quantity int) error
	// IncrementStock adds quantity. Returns models.ErrProductNotFound if the
	// product no longer exists.
	IncrementStock(ctx context.Context, productID int64, quantity int) error
}

type Ledger struct {
	stock  Stock
	logger *zap.Logger
}

func NewLedger(stock Stock, logger *zap.Logger) *Ledger {
	return &Ledger{stock: stock, logger: logger}
}

// Reserve checks that productID has at least quantity units and takes them.
// On failure no stock is changed. The returned product reflects the
// decremented quantity.
func (l *Ledger) Reserve(ctx context.Context, productID int64, quantity int) (*models.Product, error) {
	if quantity < 1 {
		return nil, models.ErrInvalidQuantity
	}

	product, err := l.stock.LockProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			return nil, fmt.Errorf("%w: id %d", models.ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("lock product %d: %w", productID, err)
	}

	if product.StockQuantity < quantity {
		return nil, &models.StockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.StockQuantity,
			Requested:   quantity,
		}
	}

	if err := l.stock.DecrementStock(ctx, productID, quantity); err != nil {
		if errors.Is(err, models.ErrInsufficientStock) {
			return nil, &models.StockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.StockQuantity,
				Requested:   quantity,
			}
		}
		return nil, fmt.Errorf("decrement stock for product %d: %w", productID, err)
	}

	product.StockQuantity -= quantity
	return product, nil
}

// Restore gives quantity units back to productID. A product deleted since
// the reservation is skipped and reported as false.
func (l *Ledger) Restore(ctx context.Context, productID int64, quantity int) (bool, error) {
	if quantity < 1 {
		return false, models.ErrInvalidQuantity
	}

	err := l.stock.IncrementStock(ctx, productID, quantity)
	if errors.Is(err, models.ErrProductNotFound) {
		l.logger.Warn("Skipping stock restore for missing product",
			zap.Int64("product_id", productID),
			zap.Int("quantity", quantity))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("restore stock for product %d: %w", productID, err)
	}

	return true, nil
}
