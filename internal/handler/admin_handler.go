package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/safar/store-backoffice/internal/models"
	"github.com/safar/store-backoffice/internal/service"
	"go.uber.org/zap"
)

// AdminOrderHandler exposes back-office order management.
type AdminOrderHandler struct {
	orderService *service.OrderService
	logger       *zap.Logger
}

func NewAdminOrderHandler(orderService *service.OrderService, logger *zap.Logger) *AdminOrderHandler {
	return &AdminOrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

func (h *AdminOrderHandler) ListOrders(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	pageSize, err := queryInt(c, "page_size", service.DefaultPageSize)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.orderService.ListOrders(c.Request.Context(), page, pageSize)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AdminOrderHandler) GetOrder(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *AdminOrderHandler) UpdateStatus(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	status := models.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	order, err := h.orderService.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *AdminOrderHandler) UpdatePaymentStatus(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	status := models.PaymentStatus(strings.ToUpper(strings.TrimSpace(req.PaymentStatus)))
	order, err := h.orderService.UpdatePaymentStatus(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *AdminOrderHandler) DeleteOrder(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.orderService.DeleteOrder(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order deleted",
	})
}
