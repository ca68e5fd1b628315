package domain

import (
	"context"
	"strings"
)

// Keys persisted in the session store.
const (
	KeyAuthToken               = "authToken"
	KeyRefreshToken            = "refreshToken"
	KeyUserEmail               = "userEmail"
	KeyVendorApplicationID     = "vendorApplicationId"
	KeyVendorApplicationStatus = "vendorApplicationStatus"
	KeyHasCompletedVendorSetup = "hasCompletedVendorSetup"
	KeyVendorApplicationDraft  = "vendorApplicationDraft"
)

// MinAccessTokenLength is the shortest trimmed access token accepted.
const MinAccessTokenLength = 10

// SessionTokens is the credential pair returned on registration or login.
type SessionTokens struct {
	AccessToken  string
	RefreshToken string
}

// Validate trims the access token and checks its minimum length.
func (t SessionTokens) Validate() error {
	access := strings.TrimSpace(t.AccessToken)
	if access == "" {
		return ErrAuthTokenMissing
	}
	if len(access) < MinAccessTokenLength {
		return ErrAuthTokenFormat
	}
	return nil
}

// SessionStore is durable, process-wide string key/value storage.
// Get reports a missing key with ok=false and a nil error.
type SessionStore interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Remove(ctx context.Context, keys ...string) error
}
