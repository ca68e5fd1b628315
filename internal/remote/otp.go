package remote

import (
	"context"
	"net/http"
	"strings"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
)

type verifyOTPResponse struct {
	Success  bool   `json:"success"`
	Verified bool   `json:"verified"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

func (r verifyOTPResponse) ok() bool {
	if r.Success || r.Verified {
		return true
	}
	switch strings.ToLower(r.Status) {
	case "success", "verified", "ok":
		return true
	}
	return false
}

// VerifyOTP confirms code for the session identified by token. Status codes
// are returned as *domain.RemoteError; the OTP flow classifies them.
func (c *Client) VerifyOTP(ctx context.Context, token, code string) error {
	var out verifyOTPResponse
	if err := c.postJSON(ctx, PathVerifyOTP, token, map[string]string{"otp": code}, &out); err != nil {
		return err
	}
	if !out.ok() {
		return &domain.RemoteError{Status: http.StatusOK, Message: out.Message, Kind: domain.ErrVerificationFailed}
	}
	return nil
}

// ResendOTP asks for a new code and returns the server message.
func (c *Client) ResendOTP(ctx context.Context, email string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.postJSON(ctx, PathResendOTP, "", map[string]string{"email": email}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}
