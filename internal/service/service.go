package service

import (
	"context"
	"time"

	"github.com/safar/store-backoffice/internal/config"
	"github.com/safar/store-backoffice/internal/events"
	"github.com/safar/store-backoffice/internal/invoice"
	"go.uber.org/zap"
)

// Deps carries the collaborators shared by the services. Zero values are
// replaced with working defaults.
type Deps struct {
	Store     Store
	Publisher events.Publisher
	Logger    *zap.Logger
	Checkout  config.CheckoutConfig
	Location  *time.Location
	Clock     func() time.Time
	Invoices  InvoiceGenerator
}

func (d Deps) withDefaults() Deps {
	if d.Publisher == nil {
		d.Publisher = events.NopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Checkout.TxTimeout <= 0 {
		d.Checkout.TxTimeout = 5 * time.Second
	}
	if d.Checkout.CancellationWindow <= 0 {
		d.Checkout.CancellationWindow = 24 * time.Hour
	}
	if d.Checkout.InvoiceMaxAttempts < 1 {
		d.Checkout.InvoiceMaxAttempts = 3
	}
	if d.Invoices == nil {
		d.Invoices = invoice.NewGenerator(d.Location, invoice.WithClock(d.Clock))
	}
	return d
}

// publish sends event without failing the caller; the transaction it
// describes has already committed.
func publish(ctx context.Context, p events.Publisher, logger *zap.Logger, event events.Event) {
	if id, ok := RequestIDFromContext(ctx); ok {
		event.RequestID = id
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.Warn("Event not published",
			zap.String("type", string(event.Type)),
			zap.String("key", event.Key),
			zap.Error(err))
	}
}

type requestIDKey struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}
