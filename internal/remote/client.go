// Package remote is the HTTP client for the Vendora auth, OTP, vendor
// application and categories APIs.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseSize = 1 << 20

	PathRegister            = "/register"
	PathLogin               = "/login"
	PathRefreshToken        = "/refresh-token"
	PathVerifyOTP           = "/otp/verify"
	PathResendOTP           = "/otp/resend"
	PathVendorApplications  = "/vendor/applications"
	PathCategories          = "/categories"
	headerRequestID         = "X-Request-ID"
	contentTypeJSON         = "application/json"
	defaultErrorMessageSize = 200
)

// Client talks to the remote APIs rooted at BaseURL (e.g. http://host/api/v1).
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	log        *logrus.Entry
}

// NewClient returns a client with the given timeout (15s when zero).
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		log:        logrus.WithField("component", "remote"),
	}
}

type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// KindForStatus classifies an HTTP error status.
func KindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return domain.ErrSessionExpired
	case status == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case status >= 400 && status < 500:
		return domain.ErrRemoteValidation
	default:
		return domain.ErrRemote
	}
}

func (c *Client) postJSON(ctx context.Context, path, token string, in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, token, bytes.NewReader(raw), contentTypeJSON, out)
}

func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", contentTypeJSON)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := uuid.NewString()
	req.Header.Set(headerRequestID, requestID)

	log := c.log.WithFields(logrus.Fields{"method": method, "path": path, "request_id": requestID})
	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.WithError(err).Warn("request failed")
		return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", domain.ErrNetwork, err)
	}
	log.WithFields(logrus.Fields{"status": resp.StatusCode, "took": time.Since(start)}).Debug("request done")

	if resp.StatusCode >= 400 {
		return &domain.RemoteError{
			Status:  resp.StatusCode,
			Message: errorMessage(raw),
			Kind:    KindForStatus(resp.StatusCode),
		}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", domain.ErrRemote, path, err)
	}
	return nil
}

// errorMessage extracts a user-facing message from an error body.
func errorMessage(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
		return ""
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > defaultErrorMessageSize {
		msg = msg[:defaultErrorMessageSize]
	}
	return msg
}

// unsuccessful turns a 2xx envelope with success=false into a RemoteError.
func unsuccessful(status int, success *bool, message string) error {
	if success == nil || *success {
		return nil
	}
	return &domain.RemoteError{Status: status, Message: message, Kind: domain.ErrRemoteValidation}
}

// IsStatus reports whether err is a RemoteError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var re *domain.RemoteError
	return errors.As(err, &re) && re.Status == status
}
