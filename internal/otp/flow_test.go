package otp_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"github.com/developia-II/vendora-onboarding/internal/navigation"
	"github.com/developia-II/vendora-onboarding/internal/otp"
	"github.com/developia-II/vendora-onboarding/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu          sync.Mutex
	codes       []string
	tokens      []string
	verifyErr   error
	resendCalls int
	resendErr   error
	resendMsg   string

	// When set, calls wait for the gate to be closed.
	verifyGate chan struct{}
	resendGate chan struct{}
}

func (f *fakeAPI) VerifyOTP(ctx context.Context, token, code string) error {
	if f.verifyGate != nil {
		<-f.verifyGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, code)
	f.tokens = append(f.tokens, token)
	return f.verifyErr
}

func (f *fakeAPI) ResendOTP(ctx context.Context, email string) (string, error) {
	if f.resendGate != nil {
		<-f.resendGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resendCalls++
	return f.resendMsg, f.resendErr
}

type recorder struct {
	mu     sync.Mutex
	routes []navigation.Route
	params []navigation.Params
	alerts []navigation.Alert
}

func (r *recorder) Navigate(route navigation.Route, params navigation.Params) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
	r.params = append(r.params, params)
}

func (r *recorder) Alert(a navigation.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
}

const token = "tok_1234567890"

var emailChallenge = domain.OTPChallenge{Contact: "a@b.com", Source: domain.OTPSourceEmail, Role: "vendor", Name: "Ada"}

func newFlow(t *testing.T, api *fakeAPI, challenge domain.OTPChallenge, withToken bool, opts ...otp.Option) (*otp.Flow, *recorder) {
	t.Helper()
	store := session.NewMemoryStore()
	if withToken {
		require.NoError(t, store.Set(context.Background(), domain.KeyAuthToken, token))
	}
	rec := &recorder{}
	return otp.NewFlow(api, session.NewManager(store, nil), rec, rec, challenge, opts...), rec
}

func TestAutoSubmit_ExactlyOnce(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	flow, rec := newFlow(t, api, emailChallenge, true)

	for i, d := range []string{"1", "2", "3", "4", "5", "6"} {
		require.NoError(t, flow.Enter(ctx, i, d))
	}

	assert.Equal(t, []string{"123456"}, api.codes)
	assert.Equal(t, []string{token}, api.tokens)
	require.Equal(t, []navigation.Route{navigation.RouteVerificationSuccess}, rec.routes)
	assert.Equal(t, navigation.Params{"email": "a@b.com", "role": "vendor", "name": "Ada"}, rec.params[0])
	assert.True(t, flow.Verified())

	// Further input after success is ignored.
	require.NoError(t, flow.Enter(ctx, 5, "9"))
	assert.Len(t, api.codes, 1)
}

func TestAutoSubmit_ClearedSlotBlocksSubmit(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	flow, _ := newFlow(t, api, emailChallenge, true)

	for i, d := range []string{"1", "2", "3", "4", "5"} {
		require.NoError(t, flow.Enter(ctx, i, d))
	}
	flow.Backspace(2)
	require.NoError(t, flow.Enter(ctx, 5, "6"))

	assert.Empty(t, api.codes)
	assert.Equal(t, "12456", flow.Code())
}

func TestFocusAndBackspace(t *testing.T) {
	ctx := context.Background()
	flow, _ := newFlow(t, &fakeAPI{}, emailChallenge, true)

	require.NoError(t, flow.Enter(ctx, 0, "1"))
	assert.Equal(t, 1, flow.Focus())
	require.NoError(t, flow.Enter(ctx, 1, "x"))
	assert.Equal(t, 1, flow.Focus())

	flow.Backspace(1)
	assert.Equal(t, 0, flow.Focus())
	assert.Equal(t, "", flow.Slots()[0])
}

func TestPaste(t *testing.T) {
	api := &fakeAPI{}
	flow, _ := newFlow(t, api, emailChallenge, true)

	require.NoError(t, flow.Enter(context.Background(), 0, "12-34 56"))
	assert.Equal(t, []string{"123456"}, api.codes)
}

func TestInvalidCodeKeepsDigits(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{verifyErr: &domain.RemoteError{Status: http.StatusBadRequest, Message: "Invalid OTP", Kind: domain.ErrRemoteValidation}}
	flow, rec := newFlow(t, api, emailChallenge, true)

	err := flow.Enter(ctx, 0, "000000")
	require.ErrorIs(t, err, domain.ErrInvalidCode)
	assert.Equal(t, "000000", flow.Code())
	assert.False(t, flow.Busy())
	assert.Empty(t, rec.routes)
	require.Len(t, rec.alerts, 1)
	assert.Equal(t, "Invalid OTP", rec.alerts[0].Message)

	// Retry through the fallback button.
	api.verifyErr = nil
	require.NoError(t, flow.Submit(ctx))
	assert.Len(t, api.codes, 2)
}

func TestVerifyStatusMapping(t *testing.T) {
	cases := map[int]error{
		http.StatusBadRequest:          domain.ErrInvalidCode,
		http.StatusNotFound:            domain.ErrChallengeExpired,
		http.StatusUnprocessableEntity: domain.ErrVerificationFailed,
		http.StatusInternalServerError: domain.ErrVerificationFailed,
	}
	for status, want := range cases {
		t.Run(http.StatusText(status), func(t *testing.T) {
			api := &fakeAPI{verifyErr: &domain.RemoteError{Status: status, Kind: domain.ErrRemote}}
			flow, _ := newFlow(t, api, emailChallenge, true)
			err := flow.Enter(context.Background(), 0, "123456")
			require.ErrorIs(t, err, want)
		})
	}
}

func TestCheckpoint_MissingTokenRedirects(t *testing.T) {
	api := &fakeAPI{}
	flow, rec := newFlow(t, api, emailChallenge, false)

	err := flow.Enter(context.Background(), 0, "123456")
	require.ErrorIs(t, err, domain.ErrSessionLost)
	assert.Empty(t, api.codes)
	assert.Equal(t, []navigation.Route{navigation.RouteRegister}, rec.routes)
	require.Len(t, rec.alerts, 1)
	assert.Equal(t, []navigation.Action{navigation.ReLogin}, rec.alerts[0].Actions)
}

func TestResetPasswordSkipsCheckpoint(t *testing.T) {
	api := &fakeAPI{}
	challenge := domain.OTPChallenge{Contact: "a@b.com", Source: domain.OTPSourceResetPassword}
	flow, rec := newFlow(t, api, challenge, false)

	require.NoError(t, flow.Enter(context.Background(), 0, "123456"))
	assert.Equal(t, []navigation.Route{navigation.RouteCreatePassword}, rec.routes)
	assert.Equal(t, "reset", rec.params[0]["mode"])
}

func TestNextRoute(t *testing.T) {
	cases := []struct {
		name      string
		challenge domain.OTPChallenge
		route     navigation.Route
		mode      string
	}{
		{"reset", domain.OTPChallenge{Contact: "a@b.com", Source: domain.OTPSourceResetPassword}, navigation.RouteCreatePassword, "reset"},
		{"email", domain.OTPChallenge{Contact: "a@b.com", Source: domain.OTPSourceEmail}, navigation.RouteVerificationSuccess, ""},
		{"phone source with email contact", domain.OTPChallenge{Contact: "a@b.com", Source: domain.OTPSourcePhone}, navigation.RouteVerificationSuccess, ""},
		{"phone", domain.OTPChallenge{Contact: "+2348031234567", Source: domain.OTPSourcePhone}, navigation.RouteCreatePassword, "create"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			route, params := otp.NextRoute(tc.challenge)
			assert.Equal(t, tc.route, route)
			assert.Equal(t, tc.mode, params["mode"])
		})
	}
}

func TestResend(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		api := &fakeAPI{resendMsg: "OTP sent"}
		flow, rec := newFlow(t, api, emailChallenge, true)
		require.NoError(t, flow.Resend(context.Background()))
		require.Len(t, rec.alerts, 1)
		assert.Equal(t, "OTP sent", rec.alerts[0].Message)
	})

	t.Run("rate limited", func(t *testing.T) {
		api := &fakeAPI{resendErr: &domain.RemoteError{Status: http.StatusTooManyRequests, Message: "Please wait 30 seconds", Kind: domain.ErrRateLimited}}
		flow, rec := newFlow(t, api, emailChallenge, true)
		err := flow.Resend(context.Background())
		require.ErrorIs(t, err, domain.ErrRateLimited)
		require.Len(t, rec.alerts, 1)
		assert.Equal(t, "Please wait 30 seconds", rec.alerts[0].Message)
		assert.False(t, flow.Busy())
	})

	t.Run("client cooldown", func(t *testing.T) {
		api := &fakeAPI{}
		flow, _ := newFlow(t, api, emailChallenge, true, otp.WithResendCooldown(time.Hour))
		require.NoError(t, flow.Resend(context.Background()))
		require.ErrorIs(t, flow.Resend(context.Background()), domain.ErrRateLimited)
		assert.Equal(t, 1, api.resendCalls)
	})
}

func TestResend_BlockedWhileVerifying(t *testing.T) {
	api := &fakeAPI{verifyGate: make(chan struct{})}
	flow, _ := newFlow(t, api, emailChallenge, true)

	verified := make(chan error, 1)
	go func() { verified <- flow.Enter(context.Background(), 0, "123456") }()
	require.Eventually(t, flow.Busy, time.Second, time.Millisecond)

	require.ErrorIs(t, flow.Resend(context.Background()), domain.ErrBusy)

	close(api.verifyGate)
	require.NoError(t, <-verified)
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Zero(t, api.resendCalls)
	assert.Equal(t, []string{"123456"}, api.codes)
}

func TestDigitsIgnoredWhileResending(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{resendMsg: "OTP sent", resendGate: make(chan struct{})}
	flow, rec := newFlow(t, api, emailChallenge, true)

	resent := make(chan error, 1)
	go func() { resent <- flow.Resend(ctx) }()
	require.Eventually(t, flow.Busy, time.Second, time.Millisecond)

	for i, d := range []string{"1", "2", "3", "4", "5", "6"} {
		require.NoError(t, flow.Enter(ctx, i, d))
	}
	assert.Empty(t, flow.Code(), "no slot is written while the resend runs")
	require.ErrorIs(t, flow.Submit(ctx), domain.ErrBusy)

	close(api.resendGate)
	require.NoError(t, <-resent)

	// Once the resend is done the full code submits as usual.
	for i, d := range []string{"1", "2", "3", "4", "5", "6"} {
		require.NoError(t, flow.Enter(ctx, i, d))
	}
	api.mu.Lock()
	assert.Equal(t, []string{"123456"}, api.codes)
	api.mu.Unlock()
	assert.True(t, flow.Verified())
	assert.Equal(t, []navigation.Route{navigation.RouteVerificationSuccess}, rec.routes)
}

func TestRun(t *testing.T) {
	api := &fakeAPI{}
	flow, rec := newFlow(t, api, emailChallenge, true)

	events := make(chan otp.Event, 8)
	for i, d := range []string{"9", "8", "7"} {
		events <- otp.DigitEntered{Index: i, Input: d}
	}
	events <- otp.Backspace{Index: 3}
	events <- otp.DigitEntered{Index: 2, Input: "7"}
	events <- otp.DigitEntered{Index: 3, Input: "654"}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, flow.Run(ctx, events))
	assert.Equal(t, []string{"987654"}, api.codes)
	assert.Len(t, rec.routes, 1)
}
