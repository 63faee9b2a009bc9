// Package gateway talks to the mobile-money charge endpoints exposed by the storefront backend.
//
// A charge goes through up to three calls: Charge starts it, SubmitOTP answers an OTP
// challenge when the network asks for one, and VerifyPayment confirms that the subscriber
// approved the debit on their phone. Responses are decoded into typed outcomes at this
// boundary; callers never walk the raw JSON.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Network is a Ghanaian mobile-money operator.
type Network string

const (
	NetworkMTN        Network = "MTN"
	NetworkAirtelTigo Network = "AirtelTigo"
	NetworkTelecel    Network = "Telecel"
)

// Networks lists the operators in display order.
var Networks = []Network{NetworkMTN, NetworkAirtelTigo, NetworkTelecel}

// Code returns the provider code the gateway expects.
func (n Network) Code() string {
	switch n {
	case NetworkMTN:
		return "mtn"
	case NetworkAirtelTigo:
		return "atl"
	case NetworkTelecel:
		return "vod"
	default:
		return ""
	}
}

func (n Network) Valid() bool { return n.Code() != "" }

// ParseNetwork accepts a display name or a gateway code, case-insensitively.
func ParseNetwork(s string) (Network, error) {
	s = strings.TrimSpace(s)
	for _, n := range Networks {
		if strings.EqualFold(s, string(n)) || strings.EqualFold(s, n.Code()) {
			return n, nil
		}
	}
	switch strings.ToLower(s) {
	case "airtel", "tigo", "airtel-tigo", "airtel tigo":
		return NetworkAirtelTigo, nil
	case "vodafone", "telecel-cash":
		return NetworkTelecel, nil
	}
	return "", fmt.Errorf("unknown mobile money network %q", s)
}

// Gateway statuses.
const (
	StatusSendOTP    = "send_otp"
	StatusPayOffline = "pay_offline"
	StatusSuccess    = "success"
	CodeInvalidOTP   = "invalid_otp"
)

var (
	ErrMalformedResponse = errors.New("gateway: malformed response")
	ErrUnexpectedStatus  = errors.New("gateway: unexpected status")
)

// StatusError is returned when an endpoint answers with a non-2xx HTTP status.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway %s: %d %s", e.Endpoint, e.Code, e.Body)
}

type ChargeRequest struct {
	AmountPesewas int64
	Phone         string
	Network       Network
	CustomerID    uint
	OrderID       string
}

// ChargeOutcome is the next step the gateway asks for after a charge is created.
type ChargeOutcome int

const (
	ChargeSendOTP ChargeOutcome = iota + 1
	ChargePayOffline
)

type ChargeResult struct {
	Outcome     ChargeOutcome
	Reference   string
	DisplayText string
}

type OTPOutcome int

const (
	// OTPPayOffline means the OTP was accepted and the subscriber must now approve on their handset.
	OTPPayOffline OTPOutcome = iota + 1
	OTPInvalid
	OTPRejected
)

type OTPResult struct {
	Outcome OTPOutcome
	Message string
}

type VerifyResult struct {
	Status  string
	Success bool
}

// Gateway is implemented by Client and StubGateway.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	SubmitOTP(ctx context.Context, otp, reference string) (*OTPResult, error)
	VerifyPayment(ctx context.Context, reference string) (*VerifyResult, error)
}
