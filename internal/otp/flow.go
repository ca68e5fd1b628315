// Package otp drives the six-slot verification code screen: input handling,
// auto-submit, resend and post-verification routing.
package otp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"github.com/developia-II/vendora-onboarding/internal/navigation"
	"github.com/developia-II/vendora-onboarding/internal/session"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// API is the subset of the remote client used by the flow.
type API interface {
	VerifyOTP(ctx context.Context, token, code string) error
	ResendOTP(ctx context.Context, email string) (string, error)
}

// Flow is one verification screen. All methods are safe for concurrent use;
// verify and resend are single-flight and exclude each other.
//
// Before routing, a successful verification re-reads the stored access token
// and treats its absence as a lost session. The reset-password source is the
// exception: it may verify without a session and skips that checkpoint.
type Flow struct {
	api       API
	sessions  *session.Manager
	nav       navigation.Navigator
	notify    navigation.Notifier
	challenge domain.OTPChallenge
	log       *logrus.Entry

	limiter *rate.Limiter

	mu        sync.Mutex
	slots     [domain.OTPLength]string
	focus     int
	verifying bool
	resending bool
	done      bool
}

type Option func(*Flow)

// WithResendCooldown enforces a minimum interval between resend requests.
// Zero or negative leaves resend unthrottled on the client.
func WithResendCooldown(d time.Duration) Option {
	return func(f *Flow) {
		if d > 0 {
			f.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

func NewFlow(api API, sessions *session.Manager, nav navigation.Navigator, notify navigation.Notifier, challenge domain.OTPChallenge, opts ...Option) *Flow {
	f := &Flow{
		api:       api,
		sessions:  sessions,
		nav:       nav,
		notify:    notify,
		challenge: challenge,
		log:       logrus.WithFields(logrus.Fields{"component": "otp", "source": challenge.Source}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Slots returns a copy of the current slot values.
func (f *Flow) Slots() [domain.OTPLength]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slots
}

// Focus is the index of the slot that receives the next digit.
func (f *Flow) Focus() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focus
}

// Code joins the slots.
func (f *Flow) Code() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.slots[:], "")
}

// Busy reports whether verify or resend is in flight. The screen disables
// input while it is true.
func (f *Flow) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verifying || f.resending
}

func (f *Flow) complete() bool {
	for _, s := range f.slots {
		if s == "" {
			return false
		}
	}
	return true
}

// Enter writes input starting at slot index. A single digit fills one slot
// and advances focus; longer input is treated as a paste across the
// following slots. Non-digits are dropped. When the last empty slot is
// filled the code is submitted. Input is ignored while verify or resend is
// in flight.
func (f *Flow) Enter(ctx context.Context, index int, input string) error {
	f.mu.Lock()
	if f.done || f.verifying || f.resending || index < 0 || index >= domain.OTPLength {
		f.mu.Unlock()
		return nil
	}
	wrote := false
	i := index
	for _, r := range input {
		if r < '0' || r > '9' {
			continue
		}
		if i >= domain.OTPLength {
			break
		}
		f.slots[i] = string(r)
		wrote = true
		i++
	}
	if !wrote {
		f.mu.Unlock()
		return nil
	}
	if i >= domain.OTPLength {
		i = domain.OTPLength - 1
	}
	f.focus = i
	ready := f.complete()
	f.mu.Unlock()

	if !ready {
		return nil
	}
	return f.Submit(ctx)
}

// Backspace clears slot index. On an already empty slot focus moves to the
// previous slot and clears it.
func (f *Flow) Backspace(index int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifying || f.resending || index < 0 || index >= domain.OTPLength {
		return
	}
	if f.slots[index] != "" {
		f.slots[index] = ""
		f.focus = index
		return
	}
	if index > 0 {
		f.slots[index-1] = ""
		f.focus = index - 1
	}
}

// Submit verifies the current code. It is the manual fallback for auto-submit.
func (f *Flow) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.verifying || f.resending {
		f.mu.Unlock()
		return domain.ErrBusy
	}
	if !f.complete() {
		f.mu.Unlock()
		err := domain.NewValidationError("otp", "enter all 6 digits")
		f.notify.Alert(navigation.Alert{Severity: navigation.SeverityError, Title: "Incomplete code", Message: err.Reason})
		return err
	}
	code := strings.Join(f.slots[:], "")
	f.verifying = true
	f.mu.Unlock()

	err := f.verify(ctx, code)

	f.mu.Lock()
	f.verifying = false
	if err == nil {
		f.done = true
	}
	f.mu.Unlock()
	return err
}

func (f *Flow) verify(ctx context.Context, code string) error {
	token, ok, err := f.sessions.AccessToken(ctx)
	if err != nil {
		return f.sessionLost(fmt.Errorf("%w: %w", domain.ErrSessionLost, err))
	}
	if !ok && f.challenge.Source != domain.OTPSourceResetPassword {
		return f.sessionLost(domain.ErrSessionLost)
	}

	if err := f.api.VerifyOTP(ctx, token, code); err != nil {
		err = classifyVerify(err)
		f.log.WithError(err).Info("verification rejected")
		f.notify.Alert(navigation.Alert{
			Severity: navigation.SeverityError,
			Title:    "Verification failed",
			Message:  verifyMessage(err),
		})
		return err
	}

	if f.challenge.Source != domain.OTPSourceResetPassword {
		if err := f.sessions.Confirm(ctx); err != nil {
			return f.sessionLost(err)
		}
	}

	route, params := NextRoute(f.challenge)
	f.log.WithField("route", route).Info("verification succeeded")
	f.nav.Navigate(route, params)
	return nil
}

func (f *Flow) sessionLost(err error) error {
	f.log.WithError(err).Warn("session missing at verification checkpoint")
	f.notify.Alert(navigation.Alert{
		Severity: navigation.SeverityError,
		Title:    "Session lost",
		Message:  "Your session could not be found. Please register or sign in again.",
		Actions:  []navigation.Action{navigation.ReLogin},
	})
	f.nav.Navigate(navigation.RouteRegister, nil)
	return err
}

// classifyVerify maps verification failures by status: 400 is a wrong code,
// 404 an unknown or expired challenge, anything else a generic failure.
func classifyVerify(err error) error {
	var re *domain.RemoteError
	if !errors.As(err, &re) {
		return err
	}
	switch re.Status {
	case http.StatusBadRequest:
		return re.WithKind(domain.ErrInvalidCode)
	case http.StatusNotFound:
		return re.WithKind(domain.ErrChallengeExpired)
	default:
		return re.WithKind(domain.ErrVerificationFailed)
	}
}

func verifyMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCode):
		return domain.UserMessage(err, "The code you entered is incorrect.")
	case errors.Is(err, domain.ErrChallengeExpired):
		return domain.UserMessage(err, "This code has expired. Request a new one.")
	}
	return domain.UserMessage(err, "We could not verify your code. Please try again.")
}

// Resend requests a new code for the challenge contact.
func (f *Flow) Resend(ctx context.Context) error {
	f.mu.Lock()
	if f.verifying || f.resending {
		f.mu.Unlock()
		return domain.ErrBusy
	}
	if f.limiter != nil && !f.limiter.Allow() {
		f.mu.Unlock()
		f.notify.Alert(navigation.Alert{
			Severity: navigation.SeverityError,
			Title:    "Please wait",
			Message:  "Wait a moment before requesting another code.",
		})
		return domain.ErrRateLimited
	}
	f.resending = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.resending = false
		f.mu.Unlock()
	}()

	msg, err := f.api.ResendOTP(ctx, f.challenge.Contact)
	if err != nil {
		title := "Could not resend code"
		if errors.Is(err, domain.ErrRateLimited) {
			title = "Too many requests"
		}
		f.notify.Alert(navigation.Alert{
			Severity: navigation.SeverityError,
			Title:    title,
			Message:  domain.UserMessage(err, "Please try again later."),
		})
		return err
	}
	if msg == "" {
		msg = "A new code has been sent."
	}
	f.notify.Alert(navigation.Alert{Severity: navigation.SeverityInfo, Title: "Code sent", Message: msg})
	return nil
}

// NextRoute is where a verified challenge leads.
func NextRoute(c domain.OTPChallenge) (navigation.Route, navigation.Params) {
	switch {
	case c.Source == domain.OTPSourceResetPassword:
		return navigation.RouteCreatePassword, navigation.Params{"mode": "reset", "contact": c.Contact}
	case c.IsEmailContact():
		return navigation.RouteVerificationSuccess, navigation.Params{
			"email": c.Contact,
			"role":  c.Role,
			"name":  c.Name,
		}
	default:
		return navigation.RouteCreatePassword, navigation.Params{"mode": "create", "contact": c.Contact}
	}
}
