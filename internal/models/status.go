package models

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "UNPAID"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// PaymentMethod is how a customer order is paid for.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentMpesa          PaymentMethod = "MPESA"
	PaymentCreditCard     PaymentMethod = "CREDIT_CARD"
	PaymentBankTransfer   PaymentMethod = "BANK_TRANSFER"
)

// SalePaymentMethod is how a point-of-sale basket is paid for.
type SalePaymentMethod string

const (
	SalePaymentCash  SalePaymentMethod = "CASH"
	SalePaymentCard  SalePaymentMethod = "CARD"
	SalePaymentMpesa SalePaymentMethod = "MPESA"
)

var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusConfirmed:  1,
	OrderStatusProcessing: 2,
	OrderStatusShipped:    3,
	OrderStatusDelivered:  4,
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusRank[s]
	return ok || s == OrderStatusCancelled
}

// Final reports whether a user can no longer cancel an order in this status.
func (s OrderStatus) Final() bool {
	return s == OrderStatusCancelled || s == OrderStatusShipped || s == OrderStatusDelivered
}

// CanTransitionTo reports whether an administrator may move an order from s
// to next. Fulfilment only moves forward, CANCELLED is reachable from any
// state before SHIPPED, and CANCELLED and DELIVERED are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !next.Valid() || s == next {
		return false
	}
	if s == OrderStatusCancelled || s == OrderStatusDelivered {
		return false
	}
	if next == OrderStatusCancelled {
		return s != OrderStatusShipped
	}
	return orderStatusRank[next] > orderStatusRank[s]
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo follows UNPAID -> PAID -> REFUNDED.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusUnpaid:
		return next == PaymentStatusPaid
	case PaymentStatusPaid:
		return next == PaymentStatusRefunded
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentMpesa, PaymentCreditCard, PaymentBankTransfer:
		return true
	}
	return false
}

// ParseSalePaymentMethod accepts the method name in any letter case.
func ParseSalePaymentMethod(s string) (SalePaymentMethod, error) {
	m := SalePaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case SalePaymentCash, SalePaymentCard, SalePaymentMpesa:
		return m, nil
	}
	return "", ErrInvalidPaymentMethod
}

// IsCancellable reports whether the owner may still cancel the order at now.
func (o *Order) IsCancellable(now time.Time, window time.Duration) bool {
	return now.Before(o.CreatedAt.Add(window)) && !o.Status.Final()
}
