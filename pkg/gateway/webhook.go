package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// WebhookEvent is a charge notification pushed by the gateway. Both the flat
// {reference, status} form and the {event, data:{reference, status}} form are accepted.
type WebhookEvent struct {
	Event     string
	Reference string
	Status    string
}

type webhookPayload struct {
	Event     string `json:"event"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Data      *struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
	} `json:"data"`
}

func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	ev := &WebhookEvent{Event: p.Event, Reference: p.Reference, Status: p.Status}
	if p.Data != nil {
		if ev.Reference == "" {
			ev.Reference = p.Data.Reference
		}
		if ev.Status == "" {
			ev.Status = p.Data.Status
		}
	}
	return ev, nil
}

// Succeeded reports whether the event confirms the charge.
func (e *WebhookEvent) Succeeded() bool {
	if e.Event == "charge.success" {
		return true
	}
	s := strings.ToLower(e.Status)
	return s == StatusSuccess || s == "completed"
}

// Failed reports whether the event says the charge will not complete.
func (e *WebhookEvent) Failed() bool {
	if e.Event == "charge.failed" {
		return true
	}
	switch strings.ToLower(e.Status) {
	case "failed", "declined", "reversed":
		return true
	}
	return false
}

// VerifySignature checks a hex HMAC-SHA256 of body under secret.
func VerifySignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
