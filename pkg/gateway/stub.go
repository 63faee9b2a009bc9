package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// StubOTP is the only OTP StubGateway accepts.
const StubOTP = "123456"

// StubGateway is a no-network gateway for development. MTN charges ask for an OTP,
// the other networks go straight to offline authorization, and every stub reference verifies.
type StubGateway struct{}

func (StubGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	ref := fmt.Sprintf("stub_%d_%d", time.Now().UnixNano(), req.CustomerID)
	if req.Network == NetworkMTN {
		return &ChargeResult{Outcome: ChargeSendOTP, Reference: ref, DisplayText: "Enter the OTP sent to " + req.Phone}, nil
	}
	return &ChargeResult{Outcome: ChargePayOffline, Reference: ref, DisplayText: "Approve the prompt on your phone"}, nil
}

func (StubGateway) SubmitOTP(ctx context.Context, otp, reference string) (*OTPResult, error) {
	if otp != StubOTP {
		return &OTPResult{Outcome: OTPInvalid, Message: "Invalid OTP provided"}, nil
	}
	return &OTPResult{Outcome: OTPPayOffline}, nil
}

func (StubGateway) VerifyPayment(ctx context.Context, reference string) (*VerifyResult, error) {
	if strings.HasPrefix(reference, "stub_") {
		return &VerifyResult{Status: StatusSuccess, Success: true}, nil
	}
	return &VerifyResult{Status: "failed"}, nil
}
