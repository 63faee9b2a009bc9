package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/models"

	"github.com/gin-gonic/gin"
)

type CustomerProfileStore interface {
	GetByID(id uint) (*models.Customer, error)
	SetFCMToken(id uint, token string) error
}

type MeHandler struct {
	customers CustomerProfileStore
}

func NewMeHandler(customers CustomerProfileStore) *MeHandler {
	return &MeHandler{customers: customers}
}

func (h *MeHandler) GetProfile(c *gin.Context) {
	cust, err := h.customers.GetByID(middleware.GetCustomerID(c))
	if err != nil || cust == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": cust})
}

// RegisterFCMToken saves the device token payment confirmations are pushed to.
func (h *MeHandler) RegisterFCMToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}
	if err := h.customers.SetFCMToken(middleware.GetCustomerID(c), req.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
