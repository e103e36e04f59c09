// Package memstore is an in-process datastore for local runs and tests.
// Transactions are serialised on one mutex and work on a private copy of
// the data that replaces the live copy only when the callback succeeds.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/safar/store-backoffice/internal/models"
	"github.com/safar/store-backoffice/internal/service"
	"github.com/shopspring/decimal"
)

type state struct {
	users    map[int64]models.User
	products map[int64]models.Product
	orders   map[int64]models.Order
	sales    map[int64]models.Sale

	userSeq    int64
	productSeq int64
	orderSeq   int64
	saleSeq    int64
	itemSeq    int64
}

func newState() *state {
	return &state{
		users:    make(map[int64]models.User),
		products: make(map[int64]models.Product),
		orders:   make(map[int64]models.Order),
		sales:    make(map[int64]models.Sale),
	}
}

func (st *state) clone() *state {
	c := *st
	c.users = make(map[int64]models.User, len(st.users))
	for id, u := range st.users {
		c.users[id] = u
	}
	c.products = make(map[int64]models.Product, len(st.products))
	for id, p := range st.products {
		c.products[id] = p
	}
	c.orders = make(map[int64]models.Order, len(st.orders))
	for id, o := range st.orders {
		c.orders[id] = copyOrder(o)
	}
	c.sales = make(map[int64]models.Sale, len(st.sales))
	for id, s := range st.sales {
		c.sales[id] = copySale(s)
	}
	return &c
}

type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

var _ service.Store = (*Store)(nil)

type Option func(*Store)

// WithClock sets the clock used for user and product timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{st: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSeeded returns a store holding a demo customer and a small catalog.
func NewSeeded(opts ...Option) *Store {
	s := New(opts...)
	ctx := context.Background()

	_, _ = s.CreateUser(ctx, "demo@example.com", "Demo Customer")
	for _, p := range []struct {
		name  string
		price string
		stock int
	}{
		{"Kenya AA Coffee 500g", "950.00", 40},
		{"Loose Leaf Tea 250g", "320.50", 60},
		{"Honey 1kg", "1200.00", 15},
		{"Maize Flour 2kg", "210.00", 120},
		{"Cooking Oil 1L", "385.75", 80},
	} {
		_, _ = s.CreateProduct(ctx, &models.Product{
			Name:          p.name,
			Price:         decimal.RequireFromString(p.price),
			StockQuantity: p.stock,
		})
	}
	return s
}

// InTx runs fn against a private copy of the data and publishes the copy
// only if fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(tx service.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &txStore{st: s.st.clone(), now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.st = tx.st
	return nil
}

func (s *Store) CreateUser(_ context.Context, email, name string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.st.users {
		if strings.EqualFold(u.Email, email) {
			return nil, fmt.Errorf("%w: email %s already registered", models.ErrValidation, email)
		}
	}

	now := s.now()
	s.st.userSeq++
	user := models.User{
		ID:        s.st.userSeq,
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.st.users[user.ID] = user
	return &user, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.st.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.st.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (s *Store) CreateProduct(_ context.Context, product *models.Product) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.st.productSeq++
	p := *product
	p.ID = s.st.productSeq
	p.Price = p.Price.Round(2)
	p.CreatedAt = now
	p.UpdatedAt = now
	s.st.products[p.ID] = p
	return &p, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.st.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	return &p, nil
}

func (s *Store) ListProducts(_ context.Context, page, pageSize int) (*models.OffsetPage[models.Product], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]models.Product, 0, len(s.st.products))
	for _, p := range s.st.products {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b models.Product) int {
		return compareNewest(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})

	return models.NewOffsetPage(window(products, page, pageSize), int64(len(products)), page, pageSize), nil
}

func (s *Store) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.st.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	o = s.st.withUser(copyOrder(o))
	return &o, nil
}

func (s *Store) ListUserOrders(_ context.Context, userID int64, cursor string, limit int) (*models.CursorPage[models.Order], error) {
	after, err := models.DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []models.Order
	for _, o := range s.st.orders {
		if o.UserID == userID && after.After(&o) {
			orders = append(orders, o)
		}
	}
	slices.SortFunc(orders, func(a, b models.Order) int {
		return compareNewest(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})

	page := &models.CursorPage[models.Order]{Items: []models.Order{}}
	if len(orders) > limit {
		orders = orders[:limit]
		page.HasMore = true
	}
	for _, o := range orders {
		page.Items = append(page.Items, s.st.withUser(copyOrder(o)))
	}
	if page.HasMore {
		last := orders[len(orders)-1]
		page.NextCursor = models.EncodeCursor(models.OrderCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

func (s *Store) ListOrders(_ context.Context, page, pageSize int) (*models.OffsetPage[models.Order], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make([]models.Order, 0, len(s.st.orders))
	for _, o := range s.st.orders {
		orders = append(orders, o)
	}
	slices.SortFunc(orders, func(a, b models.Order) int {
		return compareNewest(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})

	items := window(orders, page, pageSize)
	for i := range items {
		items[i] = s.st.withUser(copyOrder(items[i]))
	}
	return models.NewOffsetPage(items, int64(len(orders)), page, pageSize), nil
}

func (s *Store) GetSale(_ context.Context, id int64) (*models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.st.sales[id]
	if !ok {
		return nil, models.ErrSaleNotFound
	}
	sale = copySale(sale)
	return &sale, nil
}

func (s *Store) GetSaleByInvoice(_ context.Context, invoiceNumber string) (*models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sale := range s.st.sales {
		if sale.InvoiceNumber == invoiceNumber {
			sale = copySale(sale)
			return &sale, nil
		}
	}
	return nil, models.ErrSaleNotFound
}

func (s *Store) ListSales(_ context.Context) ([]models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sales := make([]models.Sale, 0, len(s.st.sales))
	for _, sale := range s.st.sales {
		sales = append(sales, copySale(sale))
	}
	slices.SortFunc(sales, func(a, b models.Sale) int {
		return compareNewest(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	return sales, nil
}

func (s *Store) ListSalesBetween(_ context.Context, from, to time.Time) ([]models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sales := []models.Sale{}
	for _, sale := range s.st.sales {
		if !sale.CreatedAt.Before(from) && sale.CreatedAt.Before(to) {
			sales = append(sales, copySale(sale))
		}
	}
	slices.SortFunc(sales, func(a, b models.Sale) int {
		return -compareNewest(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	return sales, nil
}

func (st *state) withUser(o models.Order) models.Order {
	if u, ok := st.users[o.UserID]; ok {
		o.UserName = u.Name
		o.UserEmail = u.Email
	}
	return o
}

// compareNewest orders by created_at then id, both descending.
func compareNewest(aAt time.Time, aID int64, bAt time.Time, bID int64) int {
	if c := bAt.Compare(aAt); c != 0 {
		return c
	}
	switch {
	case aID > bID:
		return -1
	case aID < bID:
		return 1
	}
	return 0
}

func window[T any](items []T, page, pageSize int) []T {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := min(start+pageSize, len(items))
	return slices.Clone(items[start:end])
}

func copyOrder(o models.Order) models.Order {
	o.Items = slices.Clone(o.Items)
	return o
}

func copySale(s models.Sale) models.Sale {
	s.Items = slices.Clone(s.Items)
	return s
}
