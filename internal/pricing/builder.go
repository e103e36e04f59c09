package pricing

import (
	"context"

	"github.com/safar/store-backoffice/internal/models"
	"github.com/shopspring/decimal"
)

// Reserver takes stock for a line. *inventory.Ledger satisfies it.
type Reserver interface {
	Reserve(ctx context.Context, productID int64, quantity int) (*models.Product, error)
}

// Build prices requests in order against the current catalog, reserving
// stock for each line as it goes. It stops at the first failure; undoing
// the reservations already made is left to the caller's transaction.
func Build(ctx context.Context, reserver Reserver, requests []models.ItemRequest) ([]models.LineItem, decimal.Decimal, error) {
	if len(requests) == 0 {
		return nil, decimal.Zero, models.ErrEmptyCart
	}

	items := make([]models.LineItem, 0, len(requests))
	total := decimal.Zero

	for _, req := range requests {
		if req.Quantity < 1 {
			return nil, decimal.Zero, models.ErrInvalidQuantity
		}

		product, err := reserver.Reserve(ctx, req.ProductID, req.Quantity)
		if err != nil {
			return nil, decimal.Zero, err
		}

		item := NewLineItem(product, req.Quantity)
		items = append(items, item)
		total = total.Add(item.Subtotal)
	}

	return items, total, nil
}

// NewLineItem snapshots product at quantity units.
func NewLineItem(product *models.Product, quantity int) models.LineItem {
	return models.LineItem{
		ProductID:    product.ID,
		ProductName:  product.Name,
		ProductImage: product.ImageReference,
		UnitPrice:    product.Price,
		Quantity:     quantity,
		Subtotal:     product.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}
