package handler

import (
	"errors"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// PaymentFinder returns a customer's payment by gateway reference.
type PaymentFinder interface {
	Lookup(reference string, customerID uint) (*models.Payment, error)
}

type PaymentHandler struct {
	payments PaymentFinder
}

func NewPaymentHandler(payments PaymentFinder) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Get serves GET /api/v1/payments/:reference. The success page uses it to show the
// settled payment after the redirect.
func (h *PaymentHandler) Get(c *gin.Context) {
	p, err := h.payments.Lookup(c.Param("reference"), middleware.GetCustomerID(c))
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p})
}
