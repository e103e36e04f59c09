package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/safar/store-backoffice/internal/config"
	"github.com/safar/store-backoffice/internal/events"
	"github.com/safar/store-backoffice/internal/memstore"
	"github.com/safar/store-backoffice/internal/models"
	"github.com/safar/store-backoffice/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]events.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type fixture struct {
	store     *memstore.Store
	clock     *testClock
	publisher *recordingPublisher
	deps      service.Deps
}

var t0 = time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &testClock{now: t0}
	store := memstore.New(memstore.WithClock(clock.Now))
	publisher := &recordingPublisher{}

	return &fixture{
		store:     store,
		clock:     clock,
		publisher: publisher,
		deps: service.Deps{
			Store:     store,
			Publisher: publisher,
			Logger:    zap.NewNop(),
			Checkout: config.CheckoutConfig{
				TxTimeout:          5 * time.Second,
				CancellationWindow: 24 * time.Hour,
				InvoiceMaxAttempts: 3,
			},
			Location: time.UTC,
			Clock:    clock.Now,
		},
	}
}

func (f *fixture) product(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	p, err := f.store.CreateProduct(context.Background(), &models.Product{
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := f.store.CreateUser(context.Background(), email, "Test User")
	require.NoError(t, err)
	return u
}

func (f *fixture) stockOf(t *testing.T, productID int64) int {
	t.Helper()
	p, err := f.store.GetProduct(context.Background(), productID)
	require.NoError(t, err)
	return p.StockQuantity
}

func shipping() models.ShippingInfo {
	return models.ShippingInfo{
		FullName: "Wanjiku Kamau",
		Phone:    "0712345678",
		Address:  "Moi Avenue 12",
		City:     "Nairobi",
		County:   "Nairobi",
	}
}

func orderRequest(items ...models.ItemRequest) service.CreateOrderRequest {
	return service.CreateOrderRequest{
		PaymentMethod: models.PaymentMpesa,
		Shipping:      shipping(),
		Items:         items,
	}
}
