package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safar/store-backoffice/internal/models"
	"github.com/safar/store-backoffice/internal/service"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
	logger         *zap.Logger
}

func NewCatalogHandler(catalogService *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), &models.Product{
		Name:           req.Name,
		Description:    req.Description,
		Price:          *req.Price,
		StockQuantity:  req.StockQuantity,
		ImageReference: req.ImageReference,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
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

	result, err := h.catalogService.ListProducts(c.Request.Context(), page, pageSize)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	user, err := h.catalogService.CreateUser(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *CatalogHandler) GetUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	user, err := h.catalogService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
