package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-checkout/internal/domain"
	cartsvc "storefront-checkout/internal/service/cart"
)

var errBadRequest = errors.New("invalid request body")

// writeError maps service errors onto HTTP responses. Backend failures are
// reported generically; details stay in the log.
func (h *handlers) writeError(c *gin.Context, err error) {
	var (
		valErr     *domain.ValidationError
		partialErr *domain.PartialUpdateError
	)
	switch {
	case errors.As(err, &valErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "form": valErr.Form, "fields": valErr.Fields})
	case errors.As(err, &partialErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":           "address only partially saved",
			"code":            "PARTIAL_UPDATE",
			"billingUpdated":  partialErr.BillingUpdated,
			"shippingUpdated": partialErr.ShippingUpdated,
		})
	case errors.Is(err, errBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "EMAIL_ALREADY_EXISTS", "next": "login"})
	case errors.Is(err, domain.ErrSubmitInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "SUBMIT_IN_FLIGHT"})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotReady), errors.Is(err, domain.ErrEmptyCart), errors.Is(err, domain.ErrMissingCustomer):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, cartsvc.ErrInvalidQuantity), errors.Is(err, cartsvc.ErrInvalidOption):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, cartsvc.ErrOutOfStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "OUT_OF_STOCK"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		h.logger.Printf("httpserver: %s %s err=%v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
