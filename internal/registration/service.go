// Package registration creates accounts (or logs in), persists the session
// tokens with write-then-verify and hands off to OTP verification.
package registration

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"github.com/developia-II/vendora-onboarding/internal/navigation"
	"github.com/developia-II/vendora-onboarding/internal/remote"
	"github.com/developia-II/vendora-onboarding/internal/session"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateTokensExtracted
	StatePersisting
	StateVerified
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateTokensExtracted:
		return "tokens_extracted"
	case StatePersisting:
		return "persisting"
	case StateVerified:
		return "verified"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// DefaultSettleDelay is the pause between persisting tokens and the final read-back.
const DefaultSettleDelay = 300 * time.Millisecond

// AuthAPI is the subset of the remote client used here.
type AuthAPI interface {
	Register(ctx context.Context, in remote.RegisterRequest) (*remote.AuthResponse, error)
	Login(ctx context.Context, in remote.LoginRequest) (*remote.AuthResponse, error)
}

// Input is what the registration screen collects.
type Input struct {
	Name            string `json:"name"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"required,oneof=customer vendor"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Service is one registration screen's flow instance.
type Service struct {
	api      AuthAPI
	sessions *session.Manager
	nav      navigation.Navigator
	notify   navigation.Notifier
	log      *logrus.Entry

	// SettleDelay and Sleep are exported for tests.
	SettleDelay time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	state   State
	failure error
}

func NewService(api AuthAPI, sessions *session.Manager, nav navigation.Navigator, notify navigation.Notifier) *Service {
	return &Service{
		api:         api,
		sessions:    sessions,
		nav:         nav,
		notify:      notify,
		log:         logrus.WithField("component", "registration"),
		SettleDelay: DefaultSettleDelay,
		Sleep:       sleepCtx,
	}
}

// State returns the current state and, when failed, the reason.
func (s *Service) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.failure
}

func (s *Service) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// begin is the single-flight guard.
func (s *Service) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateSubmitting, StateTokensExtracted, StatePersisting, StateVerified:
		return false
	}
	s.state = StateSubmitting
	s.failure = nil
	return true
}

func (s *Service) fail(err error) error {
	s.mu.Lock()
	s.state = StateFailed
	s.failure = err
	s.mu.Unlock()
	s.log.WithError(err).Warn("registration flow failed")
	s.notify.Alert(alertFor(err))
	return err
}

// Register creates the account and, on success, navigates to OTP verification.
func (s *Service) Register(ctx context.Context, in Input) error {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if err := validateInput(in); err != nil {
		s.notify.Alert(alertFor(err))
		return err
	}
	if !s.begin() {
		return domain.ErrBusy
	}

	resp, err := s.api.Register(ctx, remote.RegisterRequest{
		Email:           in.Email,
		Password:        in.Password,
		PasswordConfirm: in.PasswordConfirm,
		Role:            in.Role,
	})
	if err != nil {
		return s.fail(err)
	}
	if err := s.persist(ctx, resp, in.Email); err != nil {
		return s.fail(err)
	}

	s.setState(StateComplete)
	s.log.WithField("role", in.Role).Info("registration complete")
	s.nav.Navigate(navigation.RouteOTP, navigation.Params{
		"email":  in.Email,
		"role":   in.Role,
		"name":   in.Name,
		"source": string(domain.OTPSourceEmail),
	})
	return nil
}

// Login signs an existing account in and persists its tokens. Navigation
// afterwards is the caller's decision.
func (s *Service) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validate.Var(email, "required,email"); err != nil {
		verr := domain.NewValidationError("email", "a valid email is required")
		s.notify.Alert(alertFor(verr))
		return verr
	}
	if password == "" {
		verr := domain.NewValidationError("password", "password is required")
		s.notify.Alert(alertFor(verr))
		return verr
	}
	if !s.begin() {
		return domain.ErrBusy
	}

	resp, err := s.api.Login(ctx, remote.LoginRequest{Email: email, Password: password})
	if err != nil {
		return s.fail(err)
	}
	if err := s.persist(ctx, resp, email); err != nil {
		return s.fail(err)
	}
	s.setState(StateComplete)
	return nil
}

// persist runs token extraction, write-then-verify, the settle delay and the
// final read-back.
func (s *Service) persist(ctx context.Context, resp *remote.AuthResponse, email string) error {
	tokens, ok := resp.Tokens()
	if !ok {
		return domain.ErrAuthTokenMissing
	}
	s.setState(StateTokensExtracted)
	if err := tokens.Validate(); err != nil {
		return err
	}

	s.setState(StatePersisting)
	if err := s.sessions.Establish(ctx, tokens, email); err != nil {
		return err
	}
	s.setState(StateVerified)

	if err := s.Sleep(ctx, s.SettleDelay); err != nil {
		return err
	}
	return s.sessions.Confirm(ctx)
}

func validateInput(in Input) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return domain.NewValidationError(fe.Field(), reasonFor(fe))
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "eqfield":
		return "passwords do not match"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return "is invalid"
}

func alertFor(err error) navigation.Alert {
	switch {
	case errors.Is(err, domain.ErrAuthTokenMissing):
		return navigation.Alert{
			Severity: navigation.SeverityError,
			Title:    "Registration succeeded but login failed",
			Message:  "Your account was created. Please sign in to continue.",
			Actions:  []navigation.Action{navigation.ReLogin},
		}
	case errors.Is(err, domain.ErrAuthTokenFormat):
		return navigation.Alert{
			Severity: navigation.SeverityError,
			Title:    "Login failed",
			Message:  "The server returned an unusable session. Please sign in again.",
			Actions:  []navigation.Action{navigation.ReLogin},
		}
	case errors.Is(err, domain.ErrStorageWrite), errors.Is(err, domain.ErrStorageVerification):
		return navigation.Alert{
			Severity: navigation.SeverityError,
			Title:    "Could not save your session",
			Message:  "Your device storage did not accept the session. Please sign in again.",
			Actions:  []navigation.Action{navigation.ReLogin},
		}
	case errors.Is(err, domain.ErrSessionLost):
		return navigation.Alert{
			Severity: navigation.SeverityError,
			Title:    "Session lost",
			Message:  domain.ErrSessionLost.Error(),
			Actions:  []navigation.Action{navigation.ReLogin},
		}
	case errors.Is(err, domain.ErrValidation):
		return navigation.Alert{Severity: navigation.SeverityError, Title: "Check your details", Message: domain.UserMessage(err, "")}
	}
	return navigation.Alert{
		Severity: navigation.SeverityError,
		Title:    "Registration failed",
		Message:  domain.UserMessage(err, "Something went wrong. Please try again."),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
