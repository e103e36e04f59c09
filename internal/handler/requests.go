package handler

import (
	"strings"

	"github.com/safar/store-backoffice/internal/models"
	"github.com/safar/store-backoffice/internal/service"
	"github.com/shopspring/decimal"
)

type ItemRequest struct {
	ProductID int64 `json:"productId" binding:"required,gt=0"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

type CreateOrderRequest struct {
	PaymentMethod    string        `json:"paymentMethod" binding:"required"`
	ShippingFullName string        `json:"shippingFullName" binding:"required"`
	ShippingPhone    string        `json:"shippingPhone" binding:"required,kephone"`
	ShippingAddress  string        `json:"shippingAddress" binding:"required"`
	ShippingCity     string        `json:"shippingCity" binding:"required"`
	ShippingCounty   string        `json:"shippingCounty" binding:"required"`
	OrderNotes       string        `json:"orderNotes"`
	Items            []ItemRequest `json:"items" binding:"dive"`
}

func (r CreateOrderRequest) toService() service.CreateOrderRequest {
	return service.CreateOrderRequest{
		PaymentMethod: models.PaymentMethod(strings.ToUpper(strings.TrimSpace(r.PaymentMethod))),
		Shipping: models.ShippingInfo{
			FullName: strings.TrimSpace(r.ShippingFullName),
			Phone:    strings.TrimSpace(r.ShippingPhone),
			Address:  strings.TrimSpace(r.ShippingAddress),
			City:     strings.TrimSpace(r.ShippingCity),
			County:   strings.TrimSpace(r.ShippingCounty),
		},
		Notes: r.OrderNotes,
		Items: toItems(r.Items),
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
}

type SaleRequest struct {
	PaymentMethod string           `json:"paymentMethod" binding:"required"`
	AmountPaid    *decimal.Decimal `json:"amountPaid" binding:"required"`
	Items         []ItemRequest    `json:"items" binding:"dive"`
}

func (r SaleRequest) toService() service.SaleRequest {
	return service.SaleRequest{
		PaymentMethod: r.PaymentMethod,
		AmountPaid:    *r.AmountPaid,
		Items:         toItems(r.Items),
	}
}

type CreateProductRequest struct {
	Name           string           `json:"name" binding:"required"`
	Description    string           `json:"description"`
	Price          *decimal.Decimal `json:"price" binding:"required"`
	StockQuantity  int              `json:"stockQuantity" binding:"gte=0"`
	ImageReference string           `json:"imageReference"`
}

type CreateUserRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
}

func toItems(reqs []ItemRequest) []models.ItemRequest {
	items := make([]models.ItemRequest, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, models.ItemRequest{ProductID: r.ProductID, Quantity: r.Quantity})
	}
	return items
}
