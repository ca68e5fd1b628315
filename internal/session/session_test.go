package session_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"github.com/developia-II/vendora-onboarding/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// laggyStore accepts writes but never makes them visible.
type laggyStore struct{ *session.MemoryStore }

func (laggyStore) Set(ctx context.Context, key, value string) error { return nil }

// brokenStore rejects every write.
type brokenStore struct{ *session.MemoryStore }

func (brokenStore) Set(ctx context.Context, key, value string) error {
	return errors.New("quota exceeded")
}

type fakeRefresher struct {
	calls  int
	tokens domain.SessionTokens
	err    error
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (domain.SessionTokens, error) {
	f.calls++
	return f.tokens, f.err
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := session.NewMemoryStore()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, "a", "1"))
	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", v)

	require.NoError(t, s.Remove(ctx, "a", "never-set"))
	require.NoError(t, s.Remove(ctx, "a"))
	_, ok, _ = s.Get(ctx, "a")
	assert.False(t, ok)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	s, err := session.OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, domain.KeyAuthToken, "tok_1234567890"))
	require.NoError(t, s.Set(ctx, domain.KeyUserEmail, "a@b.com"))
	require.NoError(t, s.Remove(ctx, domain.KeyUserEmail))

	reopened, err := session.OpenFileStore(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get(ctx, domain.KeyAuthToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok_1234567890", v)

	_, ok, _ = reopened.Get(ctx, domain.KeyUserEmail)
	assert.False(t, ok)
}

func TestSetVerified_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := session.NewMemoryStore()

	for n := domain.MinAccessTokenLength; n < 64; n += 7 {
		token := strings.Repeat("x", n) + fmt.Sprint(n)
		require.NoError(t, session.SetVerified(ctx, s, domain.KeyAuthToken, token))
		got, ok, err := s.Get(ctx, domain.KeyAuthToken)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, token, got)
	}
}

func TestSetVerified_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("write rejected", func(t *testing.T) {
		err := session.SetVerified(ctx, brokenStore{session.NewMemoryStore()}, domain.KeyAuthToken, "tok_1234567890")
		require.ErrorIs(t, err, domain.ErrStorageWrite)
		require.NotErrorIs(t, err, domain.ErrStorageVerification)
	})

	t.Run("write not visible", func(t *testing.T) {
		err := session.SetVerified(ctx, laggyStore{session.NewMemoryStore()}, domain.KeyAuthToken, "tok_1234567890")
		require.ErrorIs(t, err, domain.ErrStorageVerification)
		require.NotErrorIs(t, err, domain.ErrStorageWrite)
	})
}

func TestManager_EstablishAndLogout(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	m := session.NewManager(store, nil)

	err := m.Establish(ctx, domain.SessionTokens{AccessToken: "short"}, "a@b.com")
	require.ErrorIs(t, err, domain.ErrAuthTokenFormat)
	_, ok, _ := store.Get(ctx, domain.KeyAuthToken)
	require.False(t, ok, "short token must not be stored")

	require.NoError(t, m.Establish(ctx, domain.SessionTokens{AccessToken: "  tok_1234567890 ", RefreshToken: "ref_1"}, "a@b.com"))
	require.True(t, m.Authenticated())
	require.NoError(t, m.Confirm(ctx))
	token, ok, err := m.AccessToken(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok_1234567890", token)
	assert.Equal(t, "a@b.com", m.Email(ctx))

	require.NoError(t, m.Logout(ctx))
	assert.False(t, m.Authenticated())
	require.ErrorIs(t, m.Confirm(ctx), domain.ErrSessionLost)
	_, ok, _ = store.Get(ctx, domain.KeyRefreshToken)
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, domain.KeyUserEmail)
	assert.False(t, ok, "identity is removed with the tokens")
	assert.Empty(t, m.Email(ctx))
}

func TestManager_Hydrate(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()

	claims := jwt.MapClaims{"email": "vendor@shop.ng", "sub": "u1"}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, domain.KeyAuthToken, signed))

	m := session.NewManager(store, nil)
	require.NoError(t, m.Hydrate(ctx))
	assert.True(t, m.Authenticated())
	assert.Equal(t, "vendor@shop.ng", m.Email(ctx))
}

func TestManager_Recover(t *testing.T) {
	ctx := context.Background()

	t.Run("newer token already stored", func(t *testing.T) {
		store := session.NewMemoryStore()
		ref := &fakeRefresher{}
		m := session.NewManager(store, ref)
		require.NoError(t, store.Set(ctx, domain.KeyAuthToken, "tok_newer_123"))

		token, err := m.Recover(ctx, "tok_stale_123")
		require.NoError(t, err)
		assert.Equal(t, "tok_newer_123", token)
		assert.Zero(t, ref.calls)
	})

	t.Run("refresh succeeds", func(t *testing.T) {
		store := session.NewMemoryStore()
		ref := &fakeRefresher{tokens: domain.SessionTokens{AccessToken: "tok_refreshed_1"}}
		m := session.NewManager(store, ref)
		require.NoError(t, m.Establish(ctx, domain.SessionTokens{AccessToken: "tok_stale_123", RefreshToken: "ref_1"}, "a@b.com"))

		token, err := m.Recover(ctx, "tok_stale_123")
		require.NoError(t, err)
		assert.Equal(t, "tok_refreshed_1", token)
		assert.Equal(t, 1, ref.calls)

		rt, _, _ := store.Get(ctx, domain.KeyRefreshToken)
		assert.Equal(t, "ref_1", rt, "refresh token kept when the server does not rotate it")
	})

	t.Run("no refresh token", func(t *testing.T) {
		store := session.NewMemoryStore()
		m := session.NewManager(store, &fakeRefresher{})
		require.NoError(t, store.Set(ctx, domain.KeyAuthToken, "tok_stale_123"))

		_, err := m.Recover(ctx, "tok_stale_123")
		require.ErrorIs(t, err, domain.ErrSessionExpired)
	})

	t.Run("refresh rejected", func(t *testing.T) {
		store := session.NewMemoryStore()
		ref := &fakeRefresher{err: &domain.RemoteError{Status: 401, Kind: domain.ErrSessionExpired}}
		m := session.NewManager(store, ref)
		require.NoError(t, m.Establish(ctx, domain.SessionTokens{AccessToken: "tok_stale_123", RefreshToken: "ref_1"}, ""))

		_, err := m.Recover(ctx, "tok_stale_123")
		require.ErrorIs(t, err, domain.ErrSessionExpired)
	})
}
