package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/safar/store-backoffice/internal/events"
	"github.com/safar/store-backoffice/internal/inventory"
	"github.com/safar/store-backoffice/internal/models"
	"github.com/safar/store-backoffice/internal/pricing"
	"go.uber.org/zap"
)

type CreateOrderRequest struct {
	PaymentMethod models.PaymentMethod
	Shipping      models.ShippingInfo
	Notes         string
	Items         []models.ItemRequest
}

type OrderService struct {
	store     Store
	publisher events.Publisher
	logger    *zap.Logger
	clock     func() time.Time
	window    time.Duration
	txTimeout time.Duration
}

func NewOrderService(deps Deps) *OrderService {
	deps = deps.withDefaults()
	return &OrderService{
		store:     deps.Store,
		publisher: deps.Publisher,
		logger:    deps.Logger,
		clock:     deps.Clock,
		window:    deps.Checkout.CancellationWindow,
		txTimeout: deps.Checkout.TxTimeout,
	}
}

// CreateOrder checks out a cart for the user identified by email. Stock
// reservation, pricing and the order write share one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, email string, req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, models.ErrEmptyCart
	}
	if !req.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidPaymentMethod, req.PaymentMethod)
	}
	if err := validateShipping(req.Shipping); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	order := &models.Order{
		UserID:        user.ID,
		UserName:      user.Name,
		UserEmail:     user.Email,
		Status:        models.OrderStatusPending,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: models.PaymentStatusUnpaid,
		Shipping:      req.Shipping,
		Notes:         strings.TrimSpace(req.Notes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.store.InTx(ctx, func(tx Tx) error {
		ledger := inventory.NewLedger(tx, s.logger)
		items, total, err := pricing.Build(ctx, ledger, req.Items)
		if err != nil {
			return err
		}

		order.Items = items
		order.TotalAmount = total
		return tx.InsertOrder(ctx, order)
	})
	if err != nil {
		s.logger.Warn("Checkout failed",
			zap.Int64("user_id", user.ID),
			zap.Int("items", len(req.Items)),
			zap.Error(err))
		return nil, err
	}

	order.Cancellable = order.IsCancellable(s.clock(), s.window)

	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)))

	publish(ctx, s.publisher, s.logger, events.NewOrderEvent(events.OrderCreated, order))
	return order, nil
}

// CancelOrder cancels one of the user's own orders within the cancellation
// window and puts its stock back.
func (s *OrderService) CancelOrder(ctx context.Context, email string, orderID int64) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.store.InTx(ctx, func(tx Tx) error {
		var err error
		order, err = tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != user.ID {
			return models.ErrOrderNotFound
		}

		switch {
		case order.Status == models.OrderStatusCancelled:
			return models.ErrAlreadyCancelled
		case order.Status == models.OrderStatusShipped, order.Status == models.OrderStatusDelivered:
			return fmt.Errorf("%w: order has already been %s", models.ErrNotCancellable, strings.ToLower(string(order.Status)))
		}

		now := s.clock()
		if now.After(order.CreatedAt.Add(s.window)) {
			return models.ErrCancellationWindowExpired
		}

		if err := s.restoreStock(ctx, tx, order); err != nil {
			return err
		}

		order.Status = models.OrderStatusCancelled
		order.UpdatedAt = now
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	order.Cancellable = false

	s.logger.Info("Order cancelled",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", user.ID))

	publish(ctx, s.publisher, s.logger, events.NewOrderEvent(events.OrderCancelled, order))
	return order, nil
}

func (s *OrderService) GetUserOrder(ctx context.Context, email string, orderID int64) (*models.Order, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.ID {
		return nil, models.ErrOrderNotFound
	}

	s.decorate(order)
	return order, nil
}

// ListUserOrders pages through the user's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, email, cursor string, limit int) (*models.CursorPage[models.Order], error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	_, limit = NormalizePage(1, limit)
	page, err := s.store.ListUserOrders(ctx, user.ID, cursor, limit)
	if err != nil {
		return nil, err
	}

	for i := range page.Items {
		s.decorate(&page.Items[i])
	}
	return page, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.decorate(order)
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, page, pageSize int) (*models.OffsetPage[models.Order], error) {
	page, pageSize = NormalizePage(page, pageSize)
	result, err := s.store.ListOrders(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	for i := range result.Items {
		s.decorate(&result.Items[i])
	}
	return result, nil
}

// UpdateStatus moves an order along the fulfilment state machine. Setting
// the current status again is a no-op. Cancelling restores stock.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", models.ErrValidation, status)
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var (
		order    *models.Order
		previous models.OrderStatus
	)
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		order, err = tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}

		previous = order.Status
		if previous == status {
			return nil
		}
		if !previous.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", models.ErrInvalidStateTransition, previous, status)
		}

		if status == models.OrderStatusCancelled {
			if err := s.restoreStock(ctx, tx, order); err != nil {
				return err
			}
		}

		order.Status = status
		order.UpdatedAt = s.clock()
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.decorate(order)
	if previous == status {
		return order, nil
	}

	s.logger.Info("Order status updated",
		zap.Int64("order_id", order.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)))

	eventType := events.OrderStatusChanged
	if status == models.OrderStatusCancelled {
		eventType = events.OrderCancelled
	}
	publish(ctx, s.publisher, s.logger, events.NewOrderEvent(eventType, order))
	return order, nil
}

// UpdatePaymentStatus follows UNPAID -> PAID -> REFUNDED.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID int64, status models.PaymentStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", models.ErrValidation, status)
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var (
		order   *models.Order
		changed bool
	)
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		order, err = tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}

		if order.PaymentStatus == status {
			return nil
		}
		if !order.PaymentStatus.CanTransitionTo(status) {
			return fmt.Errorf("%w: payment %s -> %s", models.ErrInvalidStateTransition, order.PaymentStatus, status)
		}

		order.PaymentStatus = status
		order.UpdatedAt = s.clock()
		changed = true
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.decorate(order)
	if changed {
		s.logger.Info("Order payment status updated",
			zap.Int64("order_id", order.ID),
			zap.String("payment_status", string(status)))
		publish(ctx, s.publisher, s.logger, events.NewOrderEvent(events.OrderPaymentStatusChanged, order))
	}
	return order, nil
}

// DeleteOrder removes an order and its items. Stock is not restored;
// cancelling is the way to release an order's stock.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var order *models.Order
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		order, err = tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		return tx.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Order deleted", zap.Int64("order_id", orderID))
	publish(ctx, s.publisher, s.logger, events.NewOrderEvent(events.OrderDeleted, order))
	return nil
}

func (s *OrderService) restoreStock(ctx context.Context, tx Tx, order *models.Order) error {
	ledger := inventory.NewLedger(tx, s.logger)
	for _, item := range order.Items {
		if _, err := ledger.Restore(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) decorate(order *models.Order) {
	order.Cancellable = order.IsCancellable(s.clock(), s.window)
}

func validateShipping(info models.ShippingInfo) error {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"full name", info.FullName},
		{"phone", info.Phone},
		{"address", info.Address},
		{"city", info.City},
		{"county", info.County},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: shipping %s required", models.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}
