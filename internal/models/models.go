package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Product struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Price          decimal.Decimal `json:"price"`
	StockQuantity  int             `json:"stock_quantity"`
	ImageReference string          `json:"image_reference,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// LineItem is a priced snapshot of a product taken when the parent order or
// sale was created. It is never refreshed from the catalog afterwards.
type LineItem struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// ItemRequest is one requested (product, quantity) pair of a cart or basket.
type ItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type ShippingInfo struct {
	FullName string `json:"shipping_full_name"`
	Phone    string `json:"shipping_phone"`
	Address  string `json:"shipping_address"`
	City     string `json:"shipping_city"`
	County   string `json:"shipping_county"`
}

type Order struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	UserName      string          `json:"user_name"`
	UserEmail     string          `json:"user_email"`
	Status        OrderStatus     `json:"status"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Shipping      ShippingInfo    `json:"shipping"`
	Notes         string          `json:"order_notes,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Cancellable   bool            `json:"cancellable"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Items         []LineItem      `json:"items"`
}

// Sale is a point-of-sale transaction. It has no lifecycle: once written it
// is never updated.
type Sale struct {
	ID            int64             `json:"id"`
	InvoiceNumber string            `json:"invoice_number"`
	PaymentMethod SalePaymentMethod `json:"payment_method"`
	AmountPaid    decimal.Decimal   `json:"amount_paid"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	CreatedAt     time.Time         `json:"created_at"`
	Items         []LineItem        `json:"items"`
}

// MoneyScale is the number of decimal places money is stored with.
const MoneyScale = 2

// ValidMoney reports whether d can be stored at MoneyScale without rounding.
func ValidMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

// Change is the amount handed back to the customer.
func (s *Sale) Change() decimal.Decimal {
	return s.AmountPaid.Sub(s.TotalAmount)
}

// SumSubtotals adds up the subtotals of items.
func SumSubtotals(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal)
	}
	return total
}
