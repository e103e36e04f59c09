package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/safar/store-backoffice/internal/models"
	"github.com/safar/store-backoffice/internal/service"
)

type txStore struct {
	st  *state
	now func() time.Time
}

var _ service.Tx = (*txStore)(nil)

func (t *txStore) LockProduct(_ context.Context, id int64) (*models.Product, error) {
	p, ok := t.st.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	return &p, nil
}

func (t *txStore) DecrementStock(_ context.Context, id int64, quantity int) error {
	p, ok := t.st.products[id]
	if !ok {
		return models.ErrProductNotFound
	}
	if p.StockQuantity < quantity {
		return &models.StockError{ProductID: id, ProductName: p.Name, Available: p.StockQuantity, Requested: quantity}
	}
	p.StockQuantity -= quantity
	p.UpdatedAt = t.now()
	t.st.products[id] = p
	return nil
}

func (t *txStore) IncrementStock(_ context.Context, id int64, quantity int) error {
	p, ok := t.st.products[id]
	if !ok {
		return models.ErrProductNotFound
	}
	p.StockQuantity += quantity
	p.UpdatedAt = t.now()
	t.st.products[id] = p
	return nil
}

func (t *txStore) InsertOrder(_ context.Context, order *models.Order) error {
	if _, ok := t.st.users[order.UserID]; !ok {
		return fmt.Errorf("insert order: %w", models.ErrUserNotFound)
	}

	t.st.orderSeq++
	order.ID = t.st.orderSeq
	for i := range order.Items {
		t.st.itemSeq++
		order.Items[i].ID = t.st.itemSeq
	}
	t.st.orders[order.ID] = copyOrder(*order)
	return nil
}

func (t *txStore) LockOrder(_ context.Context, id int64) (*models.Order, error) {
	o, ok := t.st.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	o = t.st.withUser(copyOrder(o))
	return &o, nil
}

func (t *txStore) UpdateOrder(_ context.Context, order *models.Order) error {
	o, ok := t.st.orders[order.ID]
	if !ok {
		return models.ErrOrderNotFound
	}
	o.Status = order.Status
	o.PaymentStatus = order.PaymentStatus
	o.UpdatedAt = order.UpdatedAt
	t.st.orders[o.ID] = o
	return nil
}

func (t *txStore) DeleteOrder(_ context.Context, id int64) error {
	if _, ok := t.st.orders[id]; !ok {
		return models.ErrOrderNotFound
	}
	delete(t.st.orders, id)
	return nil
}

func (t *txStore) InsertSale(_ context.Context, sale *models.Sale) error {
	for _, existing := range t.st.sales {
		if existing.InvoiceNumber == sale.InvoiceNumber {
			return models.ErrDuplicateInvoice
		}
	}
	if sale.AmountPaid.LessThan(sale.TotalAmount) {
		return &models.PaymentError{Total: sale.TotalAmount, Paid: sale.AmountPaid}
	}

	t.st.saleSeq++
	sale.ID = t.st.saleSeq
	for i := range sale.Items {
		t.st.itemSeq++
		sale.Items[i].ID = t.st.itemSeq
	}
	t.st.sales[sale.ID] = copySale(*sale)
	return nil
}
