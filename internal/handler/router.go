package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/safar/store-backoffice/internal/middleware"
	"github.com/safar/store-backoffice/internal/service"
	"go.uber.org/zap"
)

type Services struct {
	Orders  *service.OrderService
	Sales   *service.SaleService
	Catalog *service.CatalogService
}

type RouterConfig struct {
	AdminAPIKey string
	// HealthCheck probes the datastore. Nil means always healthy.
	HealthCheck func(ctx context.Context) error
}

func NewRouter(svcs Services, cfg RouterConfig, logger *zap.Logger) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	orderHandler := NewOrderHandler(svcs.Orders, logger)
	adminHandler := NewAdminOrderHandler(svcs.Orders, logger)
	saleHandler := NewSaleHandler(svcs.Sales, logger)
	catalogHandler := NewCatalogHandler(svcs.Catalog, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "healthy", "service": "store-backoffice"}
		if cfg.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.HealthCheck(ctx); err != nil {
				logger.Error("Health check failed",
					zap.String("request_id", middleware.GetRequestID(c)),
					zap.Error(err))
				status["status"] = "unhealthy"
				c.JSON(http.StatusServiceUnavailable, status)
				return
			}
		}
		c.JSON(http.StatusOK, status)
	})

	orders := router.Group("/orders", middleware.Identity())
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.POST("/:id/cancel", orderHandler.CancelOrder)
	}

	admin := router.Group("/admin", middleware.AdminKey(cfg.AdminAPIKey))
	{
		admin.GET("/orders", adminHandler.ListOrders)
		admin.GET("/orders/:id", adminHandler.GetOrder)
		admin.PATCH("/orders/:id/status", adminHandler.UpdateStatus)
		admin.PATCH("/orders/:id/payment-status", adminHandler.UpdatePaymentStatus)
		admin.DELETE("/orders/:id", adminHandler.DeleteOrder)
	}

	sales := router.Group("/sales")
	{
		sales.POST("/checkout", saleHandler.Checkout)
		sales.GET("", saleHandler.ListSales)
		sales.GET("/today", saleHandler.Today)
		sales.GET("/week", saleHandler.ThisWeek)
		sales.GET("/month", saleHandler.ThisMonth)
		sales.GET("/range", saleHandler.Range)
		sales.GET("/invoice/:invoiceNumber", saleHandler.GetSaleByInvoice)
		sales.GET("/:id", saleHandler.GetSale)
	}

	router.POST("/products", catalogHandler.CreateProduct)
	router.GET("/products", catalogHandler.ListProducts)
	router.GET("/products/:id", catalogHandler.GetProduct)
	router.POST("/users", catalogHandler.CreateUser)
	router.GET("/users/:id", catalogHandler.GetUser)

	return router, nil
}
