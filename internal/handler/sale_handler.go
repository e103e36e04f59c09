package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/safar/store-backoffice/internal/models"
	"github.com/safar/store-backoffice/internal/service"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type SaleHandler struct {
	saleService *service.SaleService
	logger      *zap.Logger
}

func NewSaleHandler(saleService *service.SaleService, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
		logger:      logger,
	}
}

func (h *SaleHandler) Checkout(c *gin.Context) {
	var req SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	receipt, err := h.saleService.ProcessSale(c.Request.Context(), req.toService())
	if err != nil {
		respondErrorWith(c, h.logger, err, saleStatus)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

func (h *SaleHandler) ListSales(c *gin.Context) {
	sales, err := h.saleService.ListSales(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, sales)
}

func (h *SaleHandler) GetSale(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, sale)
}

func (h *SaleHandler) GetSaleByInvoice(c *gin.Context) {
	sale, err := h.saleService.GetSaleByInvoice(c.Request.Context(), c.Param("invoiceNumber"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, sale)
}

func (h *SaleHandler) Today(c *gin.Context) {
	report, err := h.saleService.Today(c.Request.Context())
	h.report(c, report, err)
}

func (h *SaleHandler) ThisWeek(c *gin.Context) {
	report, err := h.saleService.ThisWeek(c.Request.Context())
	h.report(c, report, err)
}

func (h *SaleHandler) ThisMonth(c *gin.Context) {
	report, err := h.saleService.ThisMonth(c.Request.Context())
	h.report(c, report, err)
}

func (h *SaleHandler) Range(c *gin.Context) {
	start, err := queryDate(c, "start")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	end, err := queryDate(c, "end")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	report, err := h.saleService.Range(c.Request.Context(), start, end)
	h.report(c, report, err)
}

func (h *SaleHandler) report(c *gin.Context, report *service.SalesReport, err error) {
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sales":        report.Sales,
		"count":        report.Count,
		"totalRevenue": report.TotalRevenue,
		"startDate":    report.StartDate.Format(dateLayout),
		"endDate":      report.EndDate.AddDate(0, 0, -1).Format(dateLayout),
	})
}

func queryDate(c *gin.Context, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: %s date is required", models.ErrValidation, key)
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be formatted YYYY-MM-DD", models.ErrValidation, key)
	}
	return t, nil
}
