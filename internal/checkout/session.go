// Package checkout drives a single mobile-money charge attempt from number entry to
// confirmation.
//
// A Session moves through three steps:
//
//	CollectingMethod --charge send_otp--> AwaitingOtp --otp pay_offline--> AwaitingOfflineAuth
//	CollectingMethod --charge pay_offline-------------------------------> AwaitingOfflineAuth
//
// Charge failures reset to CollectingMethod. AwaitingOfflineAuth ends when the customer
// asks to verify and the gateway reports success; the session then calls its Hooks and
// is finished. Every other failure leaves the session where it was with a message to show.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/url"
	"regexp"
	"sync"
	"time"

	"storefront/pkg/gateway"
)

// Step is the dialog screen a session is currently showing.
type Step int

const (
	StepCollectingMethod Step = iota + 1
	StepAwaitingOtp
	StepAwaitingOfflineAuth
)

func (s Step) String() string {
	switch s {
	case StepCollectingMethod:
		return "collecting_method"
	case StepAwaitingOtp:
		return "awaiting_otp"
	case StepAwaitingOfflineAuth:
		return "awaiting_offline_auth"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// DefaultCooldown is how long Verify stays disabled after entering AwaitingOfflineAuth.
const DefaultCooldown = 15 * time.Second

// Messages shown to the customer.
const (
	MsgChargeFailed = "We couldn't start the payment. Please check the number and try again."
	MsgOTPFailed    = "We couldn't verify the OTP. Please try again."
	MsgVerifyRetry  = "Payment not confirmed yet. Approve the prompt on your phone, then tap Verify Payment again."
)

var (
	ErrInvalidPhone    = errors.New("phone must be 10 digits starting with 0")
	ErrInvalidNetwork  = errors.New("select a mobile money network")
	ErrInvalidOTP      = errors.New("otp must be 6 digits")
	ErrWrongStep       = errors.New("operation not allowed in the current step")
	ErrBusy            = errors.New("a request for this payment is already in progress")
	ErrCoolingDown     = errors.New("verification is not available yet")
	ErrFinished        = errors.New("payment session already finished")
	ErrChargeFailed    = errors.New("charge could not be started")
	ErrOTPRejected     = errors.New("otp rejected")
	ErrPaymentNotFinal = errors.New("payment not confirmed")
)

var (
	phonePattern = regexp.MustCompile(`^0\d{9}$`)
	otpPattern   = regexp.MustCompile(`^\d{6}$`)
)

func ValidPhone(phone string) bool { return phonePattern.MatchString(phone) }
func ValidOTP(otp string) bool     { return otpPattern.MatchString(otp) }

// Clock returns the current time; tests substitute a fake one.
type Clock func() time.Time

// Completion describes a verified payment.
type Completion struct {
	SessionID  string
	OrderID    uint
	CustomerID uint
	Reference  string
	Network    gateway.Network
	Phone      string
	Amount     int64
}

// Hooks are called once when the gateway confirms the payment. Navigate receives the
// success route for the client to follow.
type Hooks struct {
	Navigate   func(path string)
	OnComplete func(ctx context.Context, c Completion)
	// OnCharge is called after a charge is created, before the step changes.
	OnCharge func(ctx context.Context, s ChargeStarted)
}

// ChargeStarted describes a charge the gateway accepted.
type ChargeStarted struct {
	SessionID  string
	OrderID    uint
	CustomerID uint
	Reference  string
	Network    gateway.Network
	Phone      string
	Amount     int64
}

// Params carries the order details and timings a new session is opened with.
type Params struct {
	ID          string
	OrderID     uint
	OrderNumber string
	CustomerID  uint
	Amount      int64 // pesewas
	Cooldown    time.Duration
	SuccessPath string
	Clock       Clock
	Hooks       Hooks
}

// Session is one charge attempt. All methods are safe for concurrent use; at most one
// gateway call runs at a time and concurrent callers get ErrBusy.
type Session struct {
	mu sync.Mutex

	id          string
	orderID     uint
	orderNumber string
	customerID  uint
	amount      int64
	cooldown    time.Duration
	successPath string
	clock       Clock
	hooks       Hooks
	gw          gateway.Gateway

	step          Step
	phone         string
	network       gateway.Network
	reference     string
	displayText   string
	loading       bool
	verifying     bool
	verifyAfter   time.Time
	fieldError    string
	notice        string
	finished      bool
	cancelled     bool
	redirect      string
	lastTouchedAt time.Time
}

// NewSession opens a session on the method selection step.
func NewSession(gw gateway.Gateway, p Params) *Session {
	if p.Cooldown <= 0 {
		p.Cooldown = DefaultCooldown
	}
	if p.SuccessPath == "" {
		p.SuccessPath = "/checkout/success"
	}
	if p.Clock == nil {
		p.Clock = time.Now
	}
	return &Session{
		id:            p.ID,
		orderID:       p.OrderID,
		orderNumber:   p.OrderNumber,
		customerID:    p.CustomerID,
		amount:        p.Amount,
		cooldown:      p.Cooldown,
		successPath:   p.SuccessPath,
		clock:         p.Clock,
		hooks:         p.Hooks,
		gw:            gw,
		step:          StepCollectingMethod,
		lastTouchedAt: p.Clock(),
	}
}

func (s *Session) ID() string       { return s.id }
func (s *Session) CustomerID() uint { return s.customerID }
func (s *Session) OrderID() uint    { return s.orderID }

// CanConfirm reports whether the confirm control is enabled for the given input.
func (s *Session) CanConfirm(phone, network string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canConfirmLocked(phone, network)
}

func (s *Session) canConfirmLocked(phone, network string) bool {
	if s.finished || s.cancelled || s.loading || s.step != StepCollectingMethod {
		return false
	}
	if !ValidPhone(phone) {
		return false
	}
	n, err := gateway.ParseNetwork(network)
	return err == nil && n.Valid()
}

// Confirm starts a charge for phone on network.
func (s *Session) Confirm(ctx context.Context, phone, network string) error {
	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.step != StepCollectingMethod {
		s.mu.Unlock()
		return ErrWrongStep
	}
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	if !ValidPhone(phone) {
		s.fieldError = ErrInvalidPhone.Error()
		s.mu.Unlock()
		return ErrInvalidPhone
	}
	n, err := gateway.ParseNetwork(network)
	if err != nil {
		s.fieldError = ErrInvalidNetwork.Error()
		s.mu.Unlock()
		return ErrInvalidNetwork
	}
	s.phone, s.network = phone, n
	s.loading = true
	s.fieldError, s.notice = "", ""
	req := gateway.ChargeRequest{
		AmountPesewas: s.amount,
		Phone:         phone,
		Network:       n,
		CustomerID:    s.customerID,
		OrderID:       s.orderNumber,
	}
	s.touchLocked()
	s.mu.Unlock()

	res, err := s.gw.Charge(ctx, req)

	s.mu.Lock()
	s.loading = false
	if err != nil || res == nil {
		log.Printf("[CHECKOUT] session=%s charge failed: %v", s.id, err)
		s.resetLocked()
		s.notice = MsgChargeFailed
		s.mu.Unlock()
		if err == nil {
			err = gateway.ErrMalformedResponse
		}
		return fmt.Errorf("%w: %v", ErrChargeFailed, err)
	}
	// The charge exists on the gateway even if the dialog was cancelled meanwhile,
	// so it is still recorded.
	s.reference = res.Reference
	s.displayText = res.DisplayText
	started := ChargeStarted{
		SessionID:  s.id,
		OrderID:    s.orderID,
		CustomerID: s.customerID,
		Reference:  res.Reference,
		Network:    n,
		Phone:      phone,
		Amount:     s.amount,
	}
	switch res.Outcome {
	case gateway.ChargeSendOTP:
		s.step = StepAwaitingOtp
	default:
		s.enterOfflineAuthLocked()
	}
	log.Printf("[CHECKOUT] session=%s order=%d reference=%s step=%s", s.id, s.orderID, s.reference, s.step)
	onCharge := s.hooks.OnCharge
	s.mu.Unlock()

	if onCharge != nil {
		onCharge(ctx, started)
	}
	return nil
}

// VerifyOTP answers the gateway's OTP challenge. Malformed input never reaches the gateway.
func (s *Session) VerifyOTP(ctx context.Context, otp string) error {
	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.step != StepAwaitingOtp {
		s.mu.Unlock()
		return ErrWrongStep
	}
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	if !ValidOTP(otp) {
		s.fieldError = ErrInvalidOTP.Error()
		s.mu.Unlock()
		return ErrInvalidOTP
	}
	s.loading = true
	s.fieldError, s.notice = "", ""
	ref := s.reference
	s.touchLocked()
	s.mu.Unlock()

	res, err := s.gw.SubmitOTP(ctx, otp, ref)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if s.cancelled {
		return ErrFinished
	}
	if err != nil || res == nil {
		log.Printf("[CHECKOUT] session=%s otp verify failed: %v", s.id, err)
		s.fieldError = MsgOTPFailed
		return fmt.Errorf("%w: %v", ErrOTPRejected, err)
	}
	switch res.Outcome {
	case gateway.OTPPayOffline:
		s.enterOfflineAuthLocked()
		return nil
	case gateway.OTPInvalid:
		s.fieldError = res.Message
		if s.fieldError == "" {
			s.fieldError = MsgOTPFailed
		}
		return fmt.Errorf("%w: %s", ErrOTPRejected, s.fieldError)
	default:
		s.fieldError = MsgOTPFailed
		return ErrOTPRejected
	}
}

// ChangeNumber abandons the OTP challenge and returns to number entry.
func (s *Session) ChangeNumber() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	if s.step != StepAwaitingOtp {
		return ErrWrongStep
	}
	if s.loading {
		return ErrBusy
	}
	s.resetLocked()
	return nil
}

// Done asks the gateway whether the customer approved the charge. On success the hooks run
// exactly once and the session is finished; otherwise Verify is available again right away.
func (s *Session) Done(ctx context.Context) error {
	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.step != StepAwaitingOfflineAuth {
		s.mu.Unlock()
		return ErrWrongStep
	}
	if s.verifying {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.clock().Before(s.verifyAfter) {
		s.mu.Unlock()
		return ErrCoolingDown
	}
	s.verifying = true
	s.notice = ""
	ref := s.reference
	s.touchLocked()
	s.mu.Unlock()

	res, err := s.gw.VerifyPayment(ctx, ref)

	s.mu.Lock()
	s.verifying = false
	if err != nil || res == nil || !res.Success {
		status := ""
		if res != nil {
			status = res.Status
		}
		log.Printf("[CHECKOUT] session=%s reference=%s not confirmed status=%q err=%v", s.id, ref, status, err)
		s.notice = MsgVerifyRetry
		s.mu.Unlock()
		return ErrPaymentNotFinal
	}
	if s.finished {
		s.mu.Unlock()
		return nil
	}
	s.finished = true
	s.redirect = s.successPath + "?reference=" + url.QueryEscape(ref)
	done := Completion{
		SessionID:  s.id,
		OrderID:    s.orderID,
		CustomerID: s.customerID,
		Reference:  ref,
		Network:    s.network,
		Phone:      s.phone,
		Amount:     s.amount,
	}
	redirect := s.redirect
	hooks := s.hooks
	log.Printf("[CHECKOUT] session=%s reference=%s confirmed", s.id, ref)
	s.mu.Unlock()

	if hooks.Navigate != nil {
		hooks.Navigate(redirect)
	}
	if hooks.OnComplete != nil {
		hooks.OnComplete(ctx, done)
	}
	return nil
}

// CloseDecision is what closing the payment dialog should do.
type CloseDecision int

const (
	// CloseNow closes without asking.
	CloseNow CloseDecision = iota
	// ConfirmCancel asks the customer to confirm abandoning the payment.
	ConfirmCancel
	// CloseBlocked ignores the close while a verification is in flight.
	CloseBlocked
)

func (d CloseDecision) String() string {
	switch d {
	case ConfirmCancel:
		return "confirm_cancel"
	case CloseBlocked:
		return "blocked"
	default:
		return "close"
	}
}

// RequestClose reports whether the dialog may close now or must ask the customer first.
func (s *Session) RequestClose() CloseDecision {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.finished || s.cancelled || s.step == StepCollectingMethod:
		return CloseNow
	case s.verifying:
		return CloseBlocked
	default:
		return ConfirmCancel
	}
}

// Cancel abandons the session. The charge, if any, stays pending on the gateway.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finished && !s.cancelled {
		log.Printf("[CHECKOUT] session=%s cancelled at step=%s reference=%s", s.id, s.step, s.reference)
	}
	s.cancelled = true
}

// MarkConfirmed finishes the session when confirmation arrived through another channel
// (gateway webhook). Hooks are not called; the caller already handled completion.
func (s *Session) MarkConfirmed(reference string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished || s.cancelled || reference == "" || reference != s.reference {
		return false
	}
	s.finished = true
	s.redirect = s.successPath + "?reference=" + url.QueryEscape(reference)
	return true
}

func (s *Session) Reference() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reference
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

func (s *Session) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// LastTouched is the time of the last customer action; the store evicts on it.
func (s *Session) LastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTouchedAt
}

// View is the render state of a session.
type View struct {
	ID          string `json:"id"`
	OrderID     uint   `json:"order_id"`
	Step        int    `json:"step"`
	StepName    string `json:"step_name"`
	Amount      string `json:"amount"`
	Phone       string `json:"phone,omitempty"`
	Provider    string `json:"provider,omitempty"`
	Reference   string `json:"reference,omitempty"`
	DisplayText string `json:"display_text,omitempty"`
	Loading     bool   `json:"loading"`
	Verifying   bool   `json:"verifying"`
	CanVerify   bool   `json:"can_verify"`
	Countdown   int    `json:"countdown"`
	FieldError  string `json:"field_error,omitempty"`
	Notice      string `json:"notice,omitempty"`
	Finished    bool   `json:"finished"`
	Cancelled   bool   `json:"cancelled"`
	Redirect    string `json:"redirect,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	countdown := s.countdownLocked()
	return View{
		ID:          s.id,
		OrderID:     s.orderID,
		Step:        int(s.step),
		StepName:    s.step.String(),
		Amount:      gateway.FormatCedis(s.amount),
		Phone:       s.phone,
		Provider:    string(s.network),
		Reference:   s.reference,
		DisplayText: s.displayText,
		Loading:     s.loading,
		Verifying:   s.verifying,
		CanVerify:   s.step == StepAwaitingOfflineAuth && countdown == 0 && !s.verifying && !s.finished && !s.cancelled,
		Countdown:   countdown,
		FieldError:  s.fieldError,
		Notice:      s.notice,
		Finished:    s.finished,
		Cancelled:   s.cancelled,
		Redirect:    s.redirect,
	}
}

// countdownLocked is the whole seconds left before Verify unlocks, rounded up.
func (s *Session) countdownLocked() int {
	if s.step != StepAwaitingOfflineAuth {
		return 0
	}
	left := s.verifyAfter.Sub(s.clock())
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

func (s *Session) enterOfflineAuthLocked() {
	s.step = StepAwaitingOfflineAuth
	s.verifyAfter = s.clock().Add(s.cooldown)
}

// resetLocked returns to number entry; the reference of the abandoned charge is dropped.
func (s *Session) resetLocked() {
	s.step = StepCollectingMethod
	s.reference = ""
	s.displayText = ""
	s.verifyAfter = time.Time{}
	s.fieldError = ""
}

func (s *Session) usableLocked() error {
	if s.finished || s.cancelled {
		return ErrFinished
	}
	return nil
}

func (s *Session) touchLocked() { s.lastTouchedAt = s.clock() }
