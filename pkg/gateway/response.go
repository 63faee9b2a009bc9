package gateway

import (
	"encoding/json"
	"fmt"
)

// envelope mirrors the backend's nesting: {response:{status, result:{data:{...}, code, message}}}.
// Some function stacks wrap the whole thing once more under result1.
type envelope struct {
	Result1  *envelope        `json:"result1"`
	Response *responseSection `json:"response"`
}

type responseSection struct {
	Status json.RawMessage `json:"status"`
	Result *resultSection  `json:"result"`
}

type resultSection struct {
	Data    *dataSection `json:"data"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
}

type dataSection struct {
	Status      string `json:"status"`
	DisplayText string `json:"display_text"`
	Reference   string `json:"reference"`
}

func decodeResult(body []byte) (*resultSection, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	e := &env
	for e.Response == nil && e.Result1 != nil {
		e = e.Result1
	}
	if e.Response == nil || e.Response.Result == nil {
		return nil, fmt.Errorf("%w: missing response.result", ErrMalformedResponse)
	}
	return e.Response.Result, nil
}

func decodeCharge(body []byte) (*ChargeResult, error) {
	res, err := decodeResult(body)
	if err != nil {
		return nil, err
	}
	if res.Data == nil {
		return nil, fmt.Errorf("%w: missing result.data", ErrMalformedResponse)
	}
	out := &ChargeResult{Reference: res.Data.Reference, DisplayText: res.Data.DisplayText}
	switch res.Data.Status {
	case StatusSendOTP:
		out.Outcome = ChargeSendOTP
	case StatusPayOffline:
		out.Outcome = ChargePayOffline
	default:
		return nil, fmt.Errorf("%w: charge status %q", ErrUnexpectedStatus, res.Data.Status)
	}
	if out.Reference == "" {
		return nil, fmt.Errorf("%w: charge without reference", ErrMalformedResponse)
	}
	return out, nil
}

func decodeOTP(body []byte) (*OTPResult, error) {
	res, err := decodeResult(body)
	if err != nil {
		return nil, err
	}
	if res.Data != nil && res.Data.Status == StatusPayOffline {
		return &OTPResult{Outcome: OTPPayOffline}, nil
	}
	if res.Code == CodeInvalidOTP {
		return &OTPResult{Outcome: OTPInvalid, Message: res.Message}, nil
	}
	return &OTPResult{Outcome: OTPRejected, Message: res.Message}, nil
}

func decodeVerify(body []byte) (*VerifyResult, error) {
	res, err := decodeResult(body)
	if err != nil {
		return nil, err
	}
	if res.Data == nil {
		return nil, fmt.Errorf("%w: missing result.data", ErrMalformedResponse)
	}
	return &VerifyResult{Status: res.Data.Status, Success: res.Data.Status == StatusSuccess}, nil
}
