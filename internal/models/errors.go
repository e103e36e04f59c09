package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrSaleNotFound    = errors.New("sale not found")

	ErrValidation       = errors.New("validation error")
	ErrEmptyCart        = fmt.Errorf("%w: cart cannot be empty", ErrValidation)
	ErrInvalidQuantity  = fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	ErrInvalidDateRange = fmt.Errorf("%w: start date cannot be after end date", ErrValidation)

	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInsufficientPayment  = errors.New("insufficient payment")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	ErrInvalidStateTransition    = errors.New("invalid state transition")
	ErrAlreadyCancelled          = fmt.Errorf("%w: order is already cancelled", ErrInvalidStateTransition)
	ErrNotCancellable            = fmt.Errorf("%w: order can no longer be cancelled", ErrInvalidStateTransition)
	ErrCancellationWindowExpired = fmt.Errorf("%w: cancellation window has expired", ErrInvalidStateTransition)

	ErrInvoiceGenerationFailed = errors.New("invoice number generation failed")
	ErrDuplicateInvoice        = errors.New("duplicate invoice number")
)

// StockError reports a reservation that asked for more units than a product
// had on hand.
type StockError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q (id %d): available %d, requested %d",
		e.ProductName, e.ProductID, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// PaymentError reports a sale whose amount paid does not cover its total.
type PaymentError struct {
	Total decimal.Decimal
	Paid  decimal.Decimal
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("insufficient payment: total %s, paid %s", e.Total.StringFixed(2), e.Paid.StringFixed(2))
}

func (e *PaymentError) Unwrap() error { return ErrInsufficientPayment }

type ErrorKind string

const (
	KindNotFound                ErrorKind = "not_found"
	KindValidation              ErrorKind = "validation_error"
	KindInsufficientStock       ErrorKind = "insufficient_stock"
	KindInsufficientPayment     ErrorKind = "insufficient_payment"
	KindInvalidPaymentMethod    ErrorKind = "invalid_payment_method"
	KindInvalidStateTransition  ErrorKind = "invalid_state_transition"
	KindInvoiceGenerationFailed ErrorKind = "invoice_generation_failed"
	KindPersistence             ErrorKind = "persistence_failure"
)

// KindOf maps err onto the error taxonomy. Anything unrecognised is a
// persistence failure.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrSaleNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInsufficientStock):
		return KindInsufficientStock
	case errors.Is(err, ErrInsufficientPayment):
		return KindInsufficientPayment
	case errors.Is(err, ErrInvalidPaymentMethod):
		return KindInvalidPaymentMethod
	case errors.Is(err, ErrInvalidStateTransition):
		return KindInvalidStateTransition
	case errors.Is(err, ErrInvoiceGenerationFailed):
		return KindInvoiceGenerationFailed
	}
	return KindPersistence
}

// IsTimeout reports whether err came from an expired or cancelled context.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
