package service

import (
	"context"
	"time"

	"github.com/safar/store-backoffice/internal/inventory"
	"github.com/safar/store-backoffice/internal/models"
)

// Tx is the view of the datastore inside one transaction. Everything done
// through it commits or rolls back together.
type Tx interface {
	inventory.Stock

	// InsertOrder writes the order header and items and fills in their ids.
	InsertOrder(ctx context.Context, order *models.Order) error
	// LockOrder loads an order with its items and locks the order row.
	LockOrder(ctx context.Context, id int64) (*models.Order, error)
	// UpdateOrder persists status, payment status and updated_at.
	UpdateOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, id int64) error

	// InsertSale writes the sale and its items. It returns
	// models.ErrDuplicateInvoice, leaving the transaction usable, when the
	// invoice number is already taken.
	InsertSale(ctx context.Context, sale *models.Sale) error
}

type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	CreateUser(ctx context.Context, email, name string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, page, pageSize int) (*models.OffsetPage[models.Product], error)

	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID int64, cursor string, limit int) (*models.CursorPage[models.Order], error)
	ListOrders(ctx context.Context, page, pageSize int) (*models.OffsetPage[models.Order], error)

	GetSale(ctx context.Context, id int64) (*models.Sale, error)
	GetSaleByInvoice(ctx context.Context, invoiceNumber string) (*models.Sale, error)
	ListSales(ctx context.Context) ([]models.Sale, error)
	// ListSalesBetween returns sales created in [from, to), oldest first.
	ListSalesBetween(ctx context.Context, from, to time.Time) ([]models.Sale, error)
}

type InvoiceGenerator interface {
	Next() (string, error)
}
