package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/safar/store-backoffice/internal/events"
	"github.com/safar/store-backoffice/internal/invoice"
	"github.com/safar/store-backoffice/internal/models"
	"github.com/safar/store-backoffice/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedInvoices struct {
	mu      sync.Mutex
	numbers []string
	calls   int
}

func (s *scriptedInvoices) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.numbers) == 0 {
		return "", errors.New("script exhausted")
	}
	n := s.numbers[0]
	if len(s.numbers) > 1 {
		s.numbers = s.numbers[1:]
	}
	return n, nil
}

func saleRequest(method, paid string, items ...models.ItemRequest) service.SaleRequest {
	return service.SaleRequest{
		PaymentMethod: method,
		AmountPaid:    decimal.RequireFromString(paid),
		Items:         items,
	}
}

func TestProcessSaleChange(t *testing.T) {
	tests := []struct {
		name       string
		paid       string
		wantChange string
	}{
		{"exact payment", "30.00", "0.00"},
		{"overpayment", "50.00", "20.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			coffee := f.product(t, "Coffee", "10.00", 5)
			svc := service.NewSaleService(f.deps)

			receipt, err := svc.ProcessSale(context.Background(),
				saleRequest("cash", tt.paid, models.ItemRequest{ProductID: coffee.ID, Quantity: 3}))
			require.NoError(t, err)

			assert.Equal(t, "30.00", receipt.TotalAmount.StringFixed(2))
			assert.Equal(t, tt.wantChange, receipt.Change.StringFixed(2))
			assert.Equal(t, models.SalePaymentCash, receipt.Sale.PaymentMethod)
			assert.True(t, invoice.Valid(receipt.InvoiceNumber), receipt.InvoiceNumber)
			assert.Equal(t, receipt.InvoiceNumber, receipt.Sale.InvoiceNumber)
			assert.Equal(t, 2, f.stockOf(t, coffee.ID))
			assert.Equal(t, []events.EventType{events.SaleCompleted}, f.publisher.Types())
		})
	}
}

func TestProcessSaleStoresAmountAtCentScale(t *testing.T) {
	f := newFixture(t)
	coffee := f.product(t, "Coffee", "10.00", 5)
	svc := service.NewSaleService(f.deps)
	ctx := context.Background()

	receipt, err := svc.ProcessSale(ctx,
		saleRequest("cash", "10.500", models.ItemRequest{ProductID: coffee.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "0.50", receipt.Change.StringFixed(2))

	stored, err := svc.GetSale(ctx, receipt.Sale.ID)
	require.NoError(t, err)
	assert.True(t, stored.AmountPaid.Equal(receipt.AmountPaid))
	assert.Equal(t, int32(-models.MoneyScale), stored.AmountPaid.Exponent())

	_, err = svc.ProcessSale(ctx,
		saleRequest("cash", "10.004", models.ItemRequest{ProductID: coffee.ID, Quantity: 1}))
	require.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, 4, f.stockOf(t, coffee.ID))
}

func TestProcessSaleInsufficientPayment(t *testing.T) {
	f := newFixture(t)
	coffee := f.product(t, "Coffee", "10.00", 5)
	svc := service.NewSaleService(f.deps)

	_, err := svc.ProcessSale(context.Background(),
		saleRequest("CARD", "20.00", models.ItemRequest{ProductID: coffee.ID, Quantity: 3}))
	require.ErrorIs(t, err, models.ErrInsufficientPayment)

	var payErr *models.PaymentError
	require.True(t, errors.As(err, &payErr))
	assert.Equal(t, "30.00", payErr.Total.StringFixed(2))
	assert.Equal(t, "20.00", payErr.Paid.StringFixed(2))

	assert.Equal(t, 5, f.stockOf(t, coffee.ID))
	sales, err := svc.ListSales(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestProcessSaleValidation(t *testing.T) {
	f := newFixture(t)
	coffee := f.product(t, "Coffee", "10.00", 5)
	svc := service.NewSaleService(f.deps)
	line := models.ItemRequest{ProductID: coffee.ID, Quantity: 1}

	tests := []struct {
		name string
		req  service.SaleRequest
		want error
	}{
		{"unknown method", saleRequest("CHEQUE", "10.00", line), models.ErrInvalidPaymentMethod},
		{"empty basket", saleRequest("MPESA", "10.00"), models.ErrEmptyCart},
		{"negative amount", saleRequest("MPESA", "-1.00", line), models.ErrValidation},
		{"sub-cent amount", saleRequest("MPESA", "10.004", line), models.ErrValidation},
		{"unknown product", saleRequest("MPESA", "10.00", models.ItemRequest{ProductID: 404, Quantity: 1}), models.ErrProductNotFound},
		{"too many units", saleRequest("MPESA", "100.00", models.ItemRequest{ProductID: coffee.ID, Quantity: 6}), models.ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ProcessSale(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, 5, f.stockOf(t, coffee.ID))
}

func TestProcessSaleRetriesInvoiceCollision(t *testing.T) {
	f := newFixture(t)
	coffee := f.product(t, "Coffee", "10.00", 5)
	invoices := &scriptedInvoices{numbers: []string{
		"INV-20260311-AAAAAAAA",
		"INV-20260311-AAAAAAAA",
		"INV-20260311-BBBBBBBB",
	}}
	f.deps.Invoices = invoices
	svc := service.NewSaleService(f.deps)
	ctx := context.Background()

	first, err := svc.ProcessSale(ctx, saleRequest("CASH", "10.00", models.ItemRequest{ProductID: coffee.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "INV-20260311-AAAAAAAA", first.InvoiceNumber)

	second, err := svc.ProcessSale(ctx, saleRequest("CASH", "10.00", models.ItemRequest{ProductID: coffee.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "INV-20260311-BBBBBBBB", second.InvoiceNumber)
	assert.Equal(t, 3, invoices.calls)
	assert.Equal(t, 3, f.stockOf(t, coffee.ID))

	found, err := svc.GetSaleByInvoice(ctx, "INV-20260311-BBBBBBBB")
	require.NoError(t, err)
	assert.Equal(t, second.Sale.ID, found.ID)
}

func TestProcessSaleGivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	coffee := f.product(t, "Coffee", "10.00", 5)
	invoices := &scriptedInvoices{numbers: []string{"INV-20260311-AAAAAAAA"}}
	f.deps.Invoices = invoices
	svc := service.NewSaleService(f.deps)
	ctx := context.Background()

	_, err := svc.ProcessSale(ctx, saleRequest("CASH", "10.00", models.ItemRequest{ProductID: coffee.ID, Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.ProcessSale(ctx, saleRequest("CASH", "10.00", models.ItemRequest{ProductID: coffee.ID, Quantity: 1}))
	require.ErrorIs(t, err, models.ErrInvoiceGenerationFailed)
	assert.Equal(t, 4, invoices.calls)
	assert.Equal(t, 4, f.stockOf(t, coffee.ID))
}

func TestProcessSaleInvoiceSourceFailure(t *testing.T) {
	f := newFixture(t)
	coffee := f.product(t, "Coffee", "10.00", 5)
	f.deps.Invoices = &scriptedInvoices{}
	svc := service.NewSaleService(f.deps)

	_, err := svc.ProcessSale(context.Background(), saleRequest("CASH", "10.00", models.ItemRequest{ProductID: coffee.ID, Quantity: 1}))
	assert.ErrorIs(t, err, models.ErrInvoiceGenerationFailed)
	assert.Equal(t, 5, f.stockOf(t, coffee.ID))
}

func TestSaleLookups(t *testing.T) {
	f := newFixture(t)
	coffee := f.product(t, "Coffee", "10.00", 5)
	svc := service.NewSaleService(f.deps)
	ctx := context.Background()

	receipt, err := svc.ProcessSale(ctx, saleRequest("MPESA", "10.00", models.ItemRequest{ProductID: coffee.ID, Quantity: 1}))
	require.NoError(t, err)

	got, err := svc.GetSale(ctx, receipt.Sale.ID)
	require.NoError(t, err)
	assert.Equal(t, receipt.InvoiceNumber, got.InvoiceNumber)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Coffee", got.Items[0].ProductName)

	_, err = svc.GetSale(ctx, 999)
	assert.ErrorIs(t, err, models.ErrSaleNotFound)

	_, err = svc.GetSaleByInvoice(ctx, "INV-19990101-ZZZZZZZZ")
	assert.ErrorIs(t, err, models.ErrSaleNotFound)
}

func TestSalesReports(t *testing.T) {
	f := newFixture(t)
	coffee := f.product(t, "Coffee", "10.00", 100)
	svc := service.NewSaleService(f.deps)
	ctx := context.Background()

	// 2026-03-11 is a Wednesday.
	for _, at := range []time.Time{
		time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC),
		time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 11, 8, 30, 0, 0, time.UTC),
	} {
		f.clock.Set(at)
		_, err := svc.ProcessSale(ctx, saleRequest("CASH", "10.00", models.ItemRequest{ProductID: coffee.ID, Quantity: 1}))
		require.NoError(t, err)
	}
	f.clock.Set(t0)

	today, err := svc.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, today.Count)
	assert.Equal(t, "10.00", today.TotalRevenue.StringFixed(2))

	week, err := svc.ThisWeek(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, week.Count)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), week.StartDate)

	month, err := svc.ThisMonth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, month.Count)
	assert.Equal(t, "40.00", month.TotalRevenue.StringFixed(2))

	span, err := svc.Range(ctx, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, span.Count)
	assert.True(t, span.Sales[0].CreatedAt.Before(span.Sales[1].CreatedAt))

	empty, err := svc.Range(ctx, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, empty.Count)
	assert.NotNil(t, empty.Sales)
	assert.True(t, empty.TotalRevenue.IsZero())

	_, err = svc.Range(ctx, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, models.ErrInvalidDateRange)

	all, err := svc.ListSales(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestSalesReportUsesBusinessTimezone(t *testing.T) {
	f := newFixture(t)
	coffee := f.product(t, "Coffee", "10.00", 100)
	nairobi := time.FixedZone("EAT", 3*60*60)
	f.deps.Location = nairobi
	svc := service.NewSaleService(f.deps)
	ctx := context.Background()

	// 22:30 UTC on the 10th is already the 11th in Nairobi.
	f.clock.Set(time.Date(2026, 3, 10, 22, 30, 0, 0, time.UTC))
	_, err := svc.ProcessSale(ctx, saleRequest("CASH", "10.00", models.ItemRequest{ProductID: coffee.ID, Quantity: 1}))
	require.NoError(t, err)

	f.clock.Set(t0)
	today, err := svc.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, today.Count)
}
