package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/stretchr/testify/require"
)

type fakePaymentFinder struct {
	byRef map[string]models.Payment
	err   error
}

func (f *fakePaymentFinder) Lookup(ref string, customerID uint) (*models.Payment, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.byRef[ref]
	if !ok || p.CustomerID != customerID {
		return nil, service.ErrPaymentNotFound
	}
	return &p, nil
}

func TestPaymentHandler_Get(t *testing.T) {
	finder := &fakePaymentFinder{byRef: map[string]models.Payment{
		"r1": {ID: 1, CustomerID: 7, OrderID: 5, AmountCents: 4550, ProviderRef: "r1", Status: domain.PaymentStatusCompleted},
	}}
	h := NewPaymentHandler(finder)
	r, g, tok := authedRouter(t, 7)
	g.GET("/payments/:reference", h.Get)

	w := call(r, http.MethodGet, "/api/v1/payments/r1", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Payment models.Payment `json:"payment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, domain.PaymentStatusCompleted, resp.Payment.Status)
	require.Equal(t, int64(4550), resp.Payment.AmountCents)

	_, _, other := authedRouter(t, 8)
	require.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/api/v1/payments/r1", other, nil).Code)
	require.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/api/v1/payments/nope", tok, nil).Code)

	finder.err = errors.New("db down")
	require.Equal(t, http.StatusInternalServerError, call(r, http.MethodGet, "/api/v1/payments/r1", tok, nil).Code)
}
