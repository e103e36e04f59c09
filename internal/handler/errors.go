package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/safar/store-backoffice/internal/middleware"
	"github.com/safar/store-backoffice/internal/models"
	"go.uber.org/zap"
)

var kindStatus = map[models.ErrorKind]int{
	models.KindNotFound:                http.StatusNotFound,
	models.KindValidation:              http.StatusBadRequest,
	models.KindInsufficientStock:       http.StatusConflict,
	models.KindInsufficientPayment:     http.StatusBadRequest,
	models.KindInvalidPaymentMethod:    http.StatusBadRequest,
	models.KindInvalidStateTransition:  http.StatusConflict,
	models.KindInvoiceGenerationFailed: http.StatusInternalServerError,
	models.KindPersistence:             http.StatusInternalServerError,
}

// saleStatus overrides kindStatus for point-of-sale checkout, where a basket
// the shelf cannot fill is a bad request rather than a conflict.
var saleStatus = map[models.ErrorKind]int{
	models.KindInsufficientStock: http.StatusBadRequest,
}

// respondError writes the structured error body for err. Persistence
// failures never leak driver messages to the caller.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	respondErrorWith(c, logger, err, nil)
}

// respondErrorWith is respondError with per-route status overrides.
func respondErrorWith(c *gin.Context, logger *zap.Logger, err error, overrides map[models.ErrorKind]int) {
	kind := models.KindOf(err)
	status, ok := overrides[kind]
	if !ok {
		status = kindStatus[kind]
	}
	message := err.Error()

	if kind == models.KindPersistence {
		if models.IsTimeout(err) {
			status = http.StatusServiceUnavailable
			message = "request timed out, nothing was changed"
		} else {
			message = "internal error"
		}
		logger.Error("Request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	body := gin.H{
		"success": false,
		"error":   message,
		"kind":    kind,
	}

	var stockErr *models.StockError
	if errors.As(err, &stockErr) {
		body["productId"] = stockErr.ProductID
		body["available"] = stockErr.Available
		body["requested"] = stockErr.Requested
	}

	var payErr *models.PaymentError
	if errors.As(err, &payErr) {
		body["totalAmount"] = payErr.Total
		body["amountPaid"] = payErr.Paid
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// respondBindError turns a request decoding or validation failure into a
// validation error response.
func respondBindError(c *gin.Context, logger *zap.Logger, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		err = fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(msgs, "; "))
	} else {
		err = fmt.Errorf("%w: invalid request body: %v", models.ErrValidation, err)
	}
	respondError(c, logger, err)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "kephone":
		return field + " must be a valid Kenyan phone number"
	case "email":
		return field + " must be a valid email address"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
