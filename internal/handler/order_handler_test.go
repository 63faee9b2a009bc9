package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeBranches struct {
	list []models.Branch
}

func (f *fakeBranches) GetByID(id uint) (*models.Branch, error) {
	for i := range f.list {
		if f.list[i].ID == id {
			return &f.list[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBranches) Search(filters repository.BranchFilters, now time.Time) ([]repository.BranchResult, error) {
	return repository.FilterBranches(f.list, filters, now), nil
}

var accraBranches = []models.Branch{
	{ID: 1, Name: "Osu", ShopName: "Papaye", Vertical: domain.VerticalRestaurant, Latitude: 5.5560, Longitude: -0.1820, OpeningHours: "Daily 10:00-23:00", IsActive: true},
	{ID: 2, Name: "Airport", ShopName: "Ernest Chemists", Vertical: domain.VerticalPharmacy, Latitude: 5.6050, Longitude: -0.1700, OpeningHours: "24/7", IsActive: true},
	{ID: 3, Name: "Old", ShopName: "Gone", Vertical: domain.VerticalGrocery, IsActive: false},
}

func authedRouter(t *testing.T, customerID uint) (*gin.Engine, *gin.RouterGroup, string) {
	t.Helper()
	r := gin.New()
	g := r.Group("/api/v1", middleware.AuthRequired(&testJWT))
	tok, err := auth.GenerateAccessToken(&testJWT, customerID, "a@b.co")
	require.NoError(t, err)
	return r, g, tok
}

func call(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOrderHandler_CreateGetList(t *testing.T) {
	orders := newFakeOrders()
	h := NewOrderHandler(orders, &fakeBranches{list: accraBranches}, "GHS")
	r, g, tok := authedRouter(t, 7)
	g.POST("/orders", h.Create)
	g.GET("/orders", h.List)
	g.GET("/orders/:id", h.Get)

	w := call(r, http.MethodPost, "/api/v1/orders", tok, gin.H{
		"branch_id":            1,
		"subtotal_pesewas":     4000,
		"delivery_fee_pesewas": 550,
		"delivery_latitude":    5.6037,
		"delivery_longitude":   -0.1870,
		"delivery_address":     " Ring Road ",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Order models.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	o := created.Order
	require.Equal(t, int64(4550), o.TotalPesewas)
	require.Equal(t, domain.PaymentStatusPending, o.PaymentStatus)
	require.Equal(t, domain.OrderStatusPlaced, o.Status)
	require.Equal(t, "Ring Road", o.DeliveryAddress)
	require.Equal(t, uint(7), o.CustomerID)
	require.InDelta(t, 5.3, o.DistanceKm, 0.1)
	require.Regexp(t, `^ORD-[0-9A-F]{12}$`, o.Number)

	w = call(r, http.MethodGet, "/api/v1/orders/1", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = call(r, http.MethodGet, "/api/v1/orders", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), o.Number)

	_, _, other := authedRouter(t, 8)
	w = call(r, http.MethodGet, "/api/v1/orders/1", other, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = call(r, http.MethodPost, "/api/v1/orders", tok, gin.H{"branch_id": 3, "subtotal_pesewas": 100})
	require.Equal(t, http.StatusNotFound, w.Code)
	w = call(r, http.MethodPost, "/api/v1/orders", tok, gin.H{"branch_id": 1, "subtotal_pesewas": 0})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBranchHandler_List(t *testing.T) {
	h := NewBranchHandler(&fakeBranches{list: accraBranches})
	h.now = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }
	r := gin.New()
	r.GET("/api/v1/branches", h.List)

	w := call(r, http.MethodGet, "/api/v1/branches?lat=5.6037&lng=-0.1870&radius_km=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Branches []struct {
			Branch     models.Branch `json:"branch"`
			IsOpen     bool          `json:"is_open"`
			DistanceKm *float64      `json:"distance_km"`
		} `json:"branches"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Branches, 2)
	// the pharmacy is open at 08:00, the restaurant opens at 10:00
	require.Equal(t, uint(2), resp.Branches[0].Branch.ID)
	require.True(t, resp.Branches[0].IsOpen)
	require.False(t, resp.Branches[1].IsOpen)
	require.NotNil(t, resp.Branches[0].DistanceKm)

	w = call(r, http.MethodGet, "/api/v1/branches?vertical=pharmacy&open_now=true", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Ernest Chemists")
	require.NotContains(t, w.Body.String(), "Papaye")
	require.NotContains(t, w.Body.String(), "distance_km")

	require.Equal(t, http.StatusBadRequest, call(r, http.MethodGet, "/api/v1/branches?vertical=bakery", "", nil).Code)
	require.Equal(t, http.StatusBadRequest, call(r, http.MethodGet, "/api/v1/branches?lat=abc&lng=1", "", nil).Code)
	require.Equal(t, http.StatusBadRequest, call(r, http.MethodGet, "/api/v1/branches?lat=5&lng=1&radius_km=-2", "", nil).Code)
}
