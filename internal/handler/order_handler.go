package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/pkg/location"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStore interface {
	Create(o *models.Order) error
	GetForCustomer(id, customerID uint) (*models.Order, error)
	ListByCustomer(customerID uint, limit, offset int) ([]models.Order, error)
}

type BranchLookup interface {
	GetByID(id uint) (*models.Branch, error)
}

type OrderHandler struct {
	orders   OrderStore
	branches BranchLookup
	currency string
}

func NewOrderHandler(orders OrderStore, branches BranchLookup, currency string) *OrderHandler {
	return &OrderHandler{orders: orders, branches: branches, currency: currency}
}

// CreateOrderRequest carries prices already quoted by the pricing API.
type CreateOrderRequest struct {
	BranchID           uint    `json:"branch_id" binding:"required"`
	SubtotalPesewas    int64   `json:"subtotal_pesewas" binding:"required,gt=0"`
	DeliveryFeePesewas int64   `json:"delivery_fee_pesewas" binding:"gte=0"`
	DeliveryLatitude   float64 `json:"delivery_latitude" binding:"gte=-90,lte=90"`
	DeliveryLongitude  float64 `json:"delivery_longitude" binding:"gte=-180,lte=180"`
	DeliveryAddress    string  `json:"delivery_address" binding:"max=255"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	branch, err := h.branches.GetByID(req.BranchID)
	if err != nil || branch == nil || !branch.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "branch not found"})
		return
	}
	o := &models.Order{
		Number:             newOrderNumber(),
		CustomerID:         middleware.GetCustomerID(c),
		BranchID:           branch.ID,
		SubtotalPesewas:    req.SubtotalPesewas,
		DeliveryFeePesewas: req.DeliveryFeePesewas,
		TotalPesewas:       req.SubtotalPesewas + req.DeliveryFeePesewas,
		Currency:           h.currency,
		DeliveryLatitude:   req.DeliveryLatitude,
		DeliveryLongitude:  req.DeliveryLongitude,
		DeliveryAddress:    strings.TrimSpace(req.DeliveryAddress),
		Status:             domain.OrderStatusPlaced,
		PaymentStatus:      domain.PaymentStatusPending,
	}
	if req.DeliveryLatitude != 0 || req.DeliveryLongitude != 0 {
		o.DistanceKm = location.RoundKm(location.HaversineKm(branch.Latitude, branch.Longitude, req.DeliveryLatitude, req.DeliveryLongitude))
	}
	if err := h.orders.Create(o); err != nil {
		log.Printf("[ORDER] create failed customer=%d branch=%d: %v", o.CustomerID, o.BranchID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": o})
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	o, err := h.orders.GetForCustomer(uint(id), middleware.GetCustomerID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

func (h *OrderHandler) List(c *gin.Context) {
	limit, offset := paging(c)
	list, err := h.orders.ListByCustomer(middleware.GetCustomerID(c), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
