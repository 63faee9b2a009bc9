package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client calls the charge, OTP and verify endpoints over HTTPS.
type Client struct {
	ChargeURL string
	OTPURL    string
	VerifyURL string
	client    *http.Client
}

func NewClient(chargeURL, otpURL, verifyURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		ChargeURL: chargeURL,
		OTPURL:    otpURL,
		VerifyURL: verifyURL,
		client:    &http.Client{Timeout: timeout},
	}
}

var errMissingEndpoint = errors.New("gateway: endpoint not configured")

type chargeBody struct {
	Amount      json.Number    `json:"amount"`
	MobileMoney mobileMoneyReq `json:"mobile_money"`
	CustomerID  uint           `json:"customerId"`
	OrderID     string         `json:"orderId"`
}

type mobileMoneyReq struct {
	Phone    string `json:"phone"`
	Provider string `json:"provider"`
}

// FormatCedis renders pesewas as a cedi amount with two decimals.
func FormatCedis(pesewas int64) string {
	return strconv.FormatFloat(float64(pesewas)/100, 'f', 2, 64)
}

// Charge creates a mobile-money charge.
func (c *Client) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if c.ChargeURL == "" {
		return nil, errMissingEndpoint
	}
	body, _ := json.Marshal(chargeBody{
		Amount:      json.Number(FormatCedis(req.AmountPesewas)),
		MobileMoney: mobileMoneyReq{Phone: req.Phone, Provider: req.Network.Code()},
		CustomerID:  req.CustomerID,
		OrderID:     req.OrderID,
	})
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ChargeURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	log.Printf("[CHARGE] POST %s order_id=%s provider=%s amount=%s", c.ChargeURL, req.OrderID, req.Network.Code(), FormatCedis(req.AmountPesewas))
	respBody, status, err := c.do(apiReq)
	if err != nil {
		return nil, err
	}
	log.Printf("[CHARGE] response status=%d body=%s", status, string(respBody))
	if !ok2xx(status) {
		return nil, &StatusError{Endpoint: "charge", Code: status, Body: string(respBody)}
	}
	return decodeCharge(respBody)
}

// SubmitOTP answers an OTP challenge for reference. An invalid_otp rejection is reported as an
// OTPResult even when the backend pairs it with a 4xx status.
func (c *Client) SubmitOTP(ctx context.Context, otp, reference string) (*OTPResult, error) {
	if c.OTPURL == "" {
		return nil, errMissingEndpoint
	}
	u, err := withQuery(c.OTPURL, url.Values{"otp": {otp}, "reference": {reference}})
	if err != nil {
		return nil, err
	}
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	log.Printf("[CHARGE OTP] GET reference=%s", reference)
	respBody, status, err := c.do(apiReq)
	if err != nil {
		return nil, err
	}
	log.Printf("[CHARGE OTP] response status=%d body=%s", status, string(respBody))
	if !ok2xx(status) {
		if out, derr := decodeOTP(respBody); derr == nil && out.Outcome == OTPInvalid {
			return out, nil
		}
		return nil, &StatusError{Endpoint: "otp", Code: status, Body: string(respBody)}
	}
	return decodeOTP(respBody)
}

// VerifyPayment asks whether the charge behind reference has been approved.
func (c *Client) VerifyPayment(ctx context.Context, reference string) (*VerifyResult, error) {
	if c.VerifyURL == "" {
		return nil, errMissingEndpoint
	}
	u, err := withQuery(c.VerifyURL, url.Values{"reference": {reference}})
	if err != nil {
		return nil, err
	}
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	log.Printf("[CHARGE VERIFY] GET reference=%s", reference)
	respBody, status, err := c.do(apiReq)
	if err != nil {
		return nil, err
	}
	log.Printf("[CHARGE VERIFY] response status=%d body=%s", status, string(respBody))
	if !ok2xx(status) {
		return nil, &StatusError{Endpoint: "verify", Code: status, Body: string(respBody)}
	}
	return decodeVerify(respBody)
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func withQuery(raw string, q url.Values) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	existing := u.Query()
	for k, vs := range q {
		existing[k] = vs
	}
	u.RawQuery = existing.Encode()
	return u.String(), nil
}

func ok2xx(code int) bool { return code >= 200 && code < 300 }
