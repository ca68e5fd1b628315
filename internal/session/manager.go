package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// SetVerified writes value under key and immediately reads it back.
// A failed write is ErrStorageWrite; a missing or different read-back is
// ErrStorageVerification.
func SetVerified(ctx context.Context, store domain.SessionStore, key, value string) error {
	if err := store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("%w: set %q: %w", domain.ErrStorageWrite, key, err)
	}
	got, ok, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: read back %q: %w", domain.ErrStorageVerification, key, err)
	}
	if !ok || got != value {
		return fmt.Errorf("%w: %q not visible after write", domain.ErrStorageVerification, key)
	}
	return nil
}

// Refresher exchanges a refresh token for a new token pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (domain.SessionTokens, error)
}

// Manager is the explicit session object passed to every flow. The durable
// store is the source of truth; the manager keeps only non-secret identity in memory.
type Manager struct {
	store     domain.SessionStore
	refresher Refresher
	log       *logrus.Entry

	mu            sync.RWMutex
	email         string
	authenticated bool
}

// NewManager builds a manager over store. refresher may be nil, in which case
// Recover can only pick up a token written by another flow.
func NewManager(store domain.SessionStore, refresher Refresher) *Manager {
	return &Manager{
		store:     store,
		refresher: refresher,
		log:       logrus.WithField("component", "session"),
	}
}

// Store exposes the underlying durable store.
func (m *Manager) Store() domain.SessionStore { return m.store }

// Hydrate loads the durable session into memory. Call once at start-up.
func (m *Manager) Hydrate(ctx context.Context) error {
	token, ok, err := m.store.Get(ctx, domain.KeyAuthToken)
	if err != nil {
		return fmt.Errorf("session: hydrate: %w", err)
	}
	email, _, err := m.store.Get(ctx, domain.KeyUserEmail)
	if err != nil {
		return fmt.Errorf("session: hydrate: %w", err)
	}
	if email == "" && ok {
		email = EmailFromToken(token)
	}

	m.mu.Lock()
	m.authenticated = ok && token != ""
	m.email = email
	m.mu.Unlock()

	m.log.WithField("authenticated", ok).Debug("session hydrated")
	return nil
}

// Establish validates tokens and persists them with write-then-verify.
// email may be empty; the token's email claim is used when present.
func (m *Manager) Establish(ctx context.Context, tokens domain.SessionTokens, email string) error {
	if err := tokens.Validate(); err != nil {
		return err
	}
	access := strings.TrimSpace(tokens.AccessToken)
	if err := SetVerified(ctx, m.store, domain.KeyAuthToken, access); err != nil {
		return err
	}
	if rt := strings.TrimSpace(tokens.RefreshToken); rt != "" {
		if err := SetVerified(ctx, m.store, domain.KeyRefreshToken, rt); err != nil {
			return err
		}
	}
	if email == "" {
		email = EmailFromToken(access)
	}
	if email != "" {
		if err := m.store.Set(ctx, domain.KeyUserEmail, email); err != nil {
			return fmt.Errorf("%w: set %q: %w", domain.ErrStorageWrite, domain.KeyUserEmail, err)
		}
	}

	m.mu.Lock()
	m.authenticated = true
	if email != "" {
		m.email = email
	}
	m.mu.Unlock()
	return nil
}

// AccessToken re-reads the token from the durable store.
func (m *Manager) AccessToken(ctx context.Context) (string, bool, error) {
	token, ok, err := m.store.Get(ctx, domain.KeyAuthToken)
	if err != nil {
		return "", false, err
	}
	if !ok || strings.TrimSpace(token) == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Confirm is the read-back checkpoint before entering an authenticated screen.
func (m *Manager) Confirm(ctx context.Context) error {
	_, ok, err := m.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSessionLost, err)
	}
	if !ok {
		m.mu.Lock()
		m.authenticated = false
		m.mu.Unlock()
		return domain.ErrSessionLost
	}
	return nil
}

// Email returns the authenticated user's email, falling back to the store.
func (m *Manager) Email(ctx context.Context) string {
	m.mu.RLock()
	email := m.email
	m.mu.RUnlock()
	if email != "" {
		return email
	}
	email, _, _ = m.store.Get(ctx, domain.KeyUserEmail)
	return email
}

func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.authenticated
}

// Recover runs the single recovery attempt after a 401 on stale. It first
// re-reads the store in case another flow already replaced the token, then
// falls back to the refresh token. Any failure is ErrSessionExpired.
func (m *Manager) Recover(ctx context.Context, stale string) (string, error) {
	current, ok, err := m.AccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSessionExpired, err)
	}
	if ok && current != stale {
		m.log.Info("picked up a newer access token from storage")
		return current, nil
	}
	if m.refresher == nil {
		return "", domain.ErrSessionExpired
	}
	rt, ok, err := m.store.Get(ctx, domain.KeyRefreshToken)
	if err != nil || !ok || rt == "" {
		return "", domain.ErrSessionExpired
	}
	tokens, err := m.refresher.Refresh(ctx, rt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSessionExpired, err)
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = rt
	}
	if err := m.Establish(ctx, tokens, m.Email(ctx)); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSessionExpired, err)
	}
	m.log.Info("access token refreshed")
	return strings.TrimSpace(tokens.AccessToken), nil
}

// Logout removes the durable credentials and identity and clears the
// in-memory session.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.authenticated = false
	m.email = ""
	m.mu.Unlock()
	if err := m.store.Remove(ctx, domain.KeyAuthToken, domain.KeyRefreshToken, domain.KeyUserEmail); err != nil {
		return fmt.Errorf("session: logout: %w", err)
	}
	return nil
}

type emailClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// EmailFromToken reads the email claim of a JWT without verifying it. The
// client cannot verify server signatures; the value is only a display hint.
func EmailFromToken(token string) string {
	var claims emailClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return ""
	}
	return claims.Email
}
