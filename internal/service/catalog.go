package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/safar/store-backoffice/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// CatalogService manages the products and users that checkouts reference.
type CatalogService struct {
	store  Store
	logger *zap.Logger
}

func NewCatalogService(deps Deps) *CatalogService {
	deps = deps.withDefaults()
	return &CatalogService{store: deps.Store, logger: deps.Logger}
}

func (s *CatalogService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	product.Name = strings.TrimSpace(product.Name)
	switch {
	case product.Name == "":
		return nil, fmt.Errorf("%w: product name is required", models.ErrValidation)
	case product.Price.IsNegative():
		return nil, fmt.Errorf("%w: price cannot be negative", models.ErrValidation)
	case !models.ValidMoney(product.Price):
		return nil, fmt.Errorf("%w: price cannot have more than %d decimal places", models.ErrValidation, models.MoneyScale)
	case product.StockQuantity < 0:
		return nil, fmt.Errorf("%w: stock quantity cannot be negative", models.ErrValidation)
	}

	product.Price = product.Price.Round(models.MoneyScale)
	created, err := s.store.CreateProduct(ctx, product)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.Int64("product_id", created.ID),
		zap.Int("stock_quantity", created.StockQuantity))
	return created, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context, page, pageSize int) (*models.OffsetPage[models.Product], error) {
	page, pageSize = NormalizePage(page, pageSize)
	return s.store.ListProducts(ctx, page, pageSize)
}

func (s *CatalogService) CreateUser(ctx context.Context, email, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email %q", models.ErrValidation, email)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrValidation)
	}

	user, err := s.store.CreateUser(ctx, email, name)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User created", zap.Int64("user_id", user.ID))
	return user, nil
}

func (s *CatalogService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

// NormalizePage clamps offset paging parameters to sane bounds.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
