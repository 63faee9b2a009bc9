package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/config"
	"storefront/internal/checkout"
	"storefront/pkg/gateway"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestNewGateway(t *testing.T) {
	require.IsType(t, gateway.StubGateway{}, NewGateway(&config.GatewayConfig{Mode: "stub"}))
	require.IsType(t, &gateway.Client{}, NewGateway(&config.GatewayConfig{Mode: "http", ChargeURL: "http://x/charge", Timeout: time.Second}))
}

func TestSetupRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Load()
	sessions := checkout.NewStore(time.Minute, nil)
	defer sessions.Close()
	r := Setup(cfg, nil, sessions, gateway.StubGateway{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok","open_sessions":0}`, w.Body.String())

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/orders"},
		{http.MethodPost, "/api/v1/orders/1/payment-session"},
		{http.MethodGet, "/api/v1/payment-sessions/abc"},
		{http.MethodPost, "/api/v1/payment-sessions/abc/verify"},
		{http.MethodDelete, "/api/v1/payment-sessions/abc"},
		{http.MethodGet, "/api/v1/payments/ref-1"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(route.method, route.path, nil))
		require.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}
