package events

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/safar/store-backoffice/internal/models"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	OrderCreated              EventType = "order.created"
	OrderCancelled            EventType = "order.cancelled"
	OrderStatusChanged        EventType = "order.status_changed"
	OrderPaymentStatusChanged EventType = "order.payment_status_changed"
	OrderDeleted              EventType = "order.deleted"
	SaleCompleted             EventType = "sale.completed"
)

// Event is the envelope written to the events topic. Key is the partition
// key: the order id or the invoice number.
type Event struct {
	EventID   string      `json:"event_id"`
	Type      EventType   `json:"type"`
	Key       string      `json:"-"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type OrderPayload struct {
	OrderID       int64                `json:"order_id"`
	UserID        int64                `json:"user_id"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	Items         []models.LineItem    `json:"items,omitempty"`
}

type SalePayload struct {
	SaleID        int64                    `json:"sale_id"`
	InvoiceNumber string                   `json:"invoice_number"`
	PaymentMethod models.SalePaymentMethod `json:"payment_method"`
	TotalAmount   decimal.Decimal          `json:"total_amount"`
	AmountPaid    decimal.Decimal          `json:"amount_paid"`
	Items         []models.LineItem        `json:"items"`
}

func NewOrderEvent(t EventType, order *models.Order) Event {
	return Event{
		EventID:   uuid.New().String(),
		Type:      t,
		Key:       orderKey(order.ID),
		Timestamp: time.Now().UTC(),
		Payload: OrderPayload{
			OrderID:       order.ID,
			UserID:        order.UserID,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
			TotalAmount:   order.TotalAmount,
			Items:         order.Items,
		},
	}
}

func NewSaleEvent(sale *models.Sale) Event {
	return Event{
		EventID:   uuid.New().String(),
		Type:      SaleCompleted,
		Key:       sale.InvoiceNumber,
		Timestamp: time.Now().UTC(),
		Payload: SalePayload{
			SaleID:        sale.ID,
			InvoiceNumber: sale.InvoiceNumber,
			PaymentMethod: sale.PaymentMethod,
			TotalAmount:   sale.TotalAmount,
			AmountPaid:    sale.AmountPaid,
			Items:         sale.Items,
		},
	}
}

func orderKey(id int64) string {
	return "ORDER#" + strconv.FormatInt(id, 10)
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
