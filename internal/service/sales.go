package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/safar/store-backoffice/internal/events"
	"github.com/safar/store-backoffice/internal/inventory"
	"github.com/safar/store-backoffice/internal/models"
	"github.com/safar/store-backoffice/internal/pricing"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SaleRequest struct {
	PaymentMethod string
	AmountPaid    decimal.Decimal
	Items         []models.ItemRequest
}

// Receipt is what the till shows once a sale has committed.
type Receipt struct {
	Sale          *models.Sale    `json:"sale"`
	InvoiceNumber string          `json:"invoiceNumber"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	Change        decimal.Decimal `json:"change"`
}

type SalesReport struct {
	Sales        []models.Sale   `json:"sales"`
	Count        int             `json:"count"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	StartDate    time.Time       `json:"startDate"`
	EndDate      time.Time       `json:"endDate"`
}

type SaleService struct {
	store       Store
	publisher   events.Publisher
	logger      *zap.Logger
	clock       func() time.Time
	loc         *time.Location
	invoices    InvoiceGenerator
	maxAttempts int
	txTimeout   time.Duration
}

func NewSaleService(deps Deps) *SaleService {
	deps = deps.withDefaults()
	return &SaleService{
		store:       deps.Store,
		publisher:   deps.Publisher,
		logger:      deps.Logger,
		clock:       deps.Clock,
		loc:         deps.Location,
		invoices:    deps.Invoices,
		maxAttempts: deps.Checkout.InvoiceMaxAttempts,
		txTimeout:   deps.Checkout.TxTimeout,
	}
}

// ProcessSale rings up a point-of-sale basket. The stock decrements, the
// sale header and its items commit together or not at all.
func (s *SaleService) ProcessSale(ctx context.Context, req SaleRequest) (*Receipt, error) {
	method, err := models.ParseSalePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: %q, must be CASH, CARD, or MPESA", err, req.PaymentMethod)
	}
	if len(req.Items) == 0 {
		return nil, models.ErrEmptyCart
	}
	if req.AmountPaid.IsNegative() {
		return nil, fmt.Errorf("%w: amount paid cannot be negative", models.ErrValidation)
	}
	if !models.ValidMoney(req.AmountPaid) {
		return nil, fmt.Errorf("%w: amount paid cannot have more than %d decimal places", models.ErrValidation, models.MoneyScale)
	}
	amountPaid := req.AmountPaid.Round(models.MoneyScale)

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var sale *models.Sale
	err = s.store.InTx(ctx, func(tx Tx) error {
		ledger := inventory.NewLedger(tx, s.logger)
		items, total, err := pricing.Build(ctx, ledger, req.Items)
		if err != nil {
			return err
		}

		if amountPaid.LessThan(total) {
			return &models.PaymentError{Total: total, Paid: amountPaid}
		}

		sale = &models.Sale{
			PaymentMethod: method,
			AmountPaid:    amountPaid,
			TotalAmount:   total,
			CreatedAt:     s.clock(),
			Items:         items,
		}
		return s.insertWithInvoice(ctx, tx, sale)
	})
	if err != nil {
		s.logger.Warn("Sale failed",
			zap.String("payment_method", string(method)),
			zap.Int("items", len(req.Items)),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Sale completed",
		zap.Int64("sale_id", sale.ID),
		zap.String("invoice_number", sale.InvoiceNumber),
		zap.String("total_amount", sale.TotalAmount.StringFixed(2)))

	publish(ctx, s.publisher, s.logger, events.NewSaleEvent(sale))

	return &Receipt{
		Sale:          sale,
		InvoiceNumber: sale.InvoiceNumber,
		TotalAmount:   sale.TotalAmount,
		AmountPaid:    sale.AmountPaid,
		Change:        sale.Change(),
	}, nil
}

// insertWithInvoice draws invoice numbers until one is accepted by the
// datastore's unique constraint or the attempts run out.
func (s *SaleService) insertWithInvoice(ctx context.Context, tx Tx, sale *models.Sale) error {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		number, err := s.invoices.Next()
		if err != nil {
			return fmt.Errorf("%w: %v", models.ErrInvoiceGenerationFailed, err)
		}

		sale.InvoiceNumber = number
		err = tx.InsertSale(ctx, sale)
		if err == nil {
			return nil
		}
		if !errors.Is(err, models.ErrDuplicateInvoice) {
			return err
		}

		s.logger.Warn("Invoice number collision",
			zap.String("invoice_number", number),
			zap.Int("attempt", attempt))
	}

	sale.InvoiceNumber = ""
	return fmt.Errorf("%w: no unique number after %d attempts", models.ErrInvoiceGenerationFailed, s.maxAttempts)
}

func (s *SaleService) GetSale(ctx context.Context, id int64) (*models.Sale, error) {
	return s.store.GetSale(ctx, id)
}

func (s *SaleService) GetSaleByInvoice(ctx context.Context, invoiceNumber string) (*models.Sale, error) {
	return s.store.GetSaleByInvoice(ctx, invoiceNumber)
}

func (s *SaleService) ListSales(ctx context.Context) ([]models.Sale, error) {
	sales, err := s.store.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	if sales == nil {
		sales = []models.Sale{}
	}
	return sales, nil
}

// Today reports sales since local midnight.
func (s *SaleService) Today(ctx context.Context) (*SalesReport, error) {
	start := startOfDay(s.clock(), s.loc)
	return s.report(ctx, start, start.AddDate(0, 0, 1))
}

// ThisWeek reports sales for the current Monday to Sunday week.
func (s *SaleService) ThisWeek(ctx context.Context) (*SalesReport, error) {
	today := startOfDay(s.clock(), s.loc)
	offset := (int(today.Weekday()) + 6) % 7
	start := today.AddDate(0, 0, -offset)
	return s.report(ctx, start, start.AddDate(0, 0, 7))
}

func (s *SaleService) ThisMonth(ctx context.Context) (*SalesReport, error) {
	now := s.clock().In(s.loc)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	return s.report(ctx, start, start.AddDate(0, 1, 0))
}

// Range reports sales from the start of startDate through the end of
// endDate, both read as calendar days in the business time zone.
func (s *SaleService) Range(ctx context.Context, startDate, endDate time.Time) (*SalesReport, error) {
	start := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, s.loc)
	end := time.Date(endDate.Year(), endDate.Month(), endDate.Day(), 0, 0, 0, 0, s.loc)
	if start.After(end) {
		return nil, models.ErrInvalidDateRange
	}
	return s.report(ctx, start, end.AddDate(0, 0, 1))
}

func (s *SaleService) report(ctx context.Context, from, to time.Time) (*SalesReport, error) {
	sales, err := s.store.ListSalesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if sales == nil {
		sales = []models.Sale{}
	}

	revenue := decimal.Zero
	for _, sale := range sales {
		revenue = revenue.Add(sale.TotalAmount)
	}

	return &SalesReport{
		Sales:        sales,
		Count:        len(sales),
		TotalRevenue: revenue,
		StartDate:    from,
		EndDate:      to,
	}, nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
