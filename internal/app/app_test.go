package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/developia-II/vendora-onboarding/internal/config"
	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"github.com/developia-II/vendora-onboarding/internal/vendorsetup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, backend string) *config.Config {
	return &config.Config{
		APIBaseURL:       "http://127.0.0.1:1/api/v1",
		SessionBackend:   backend,
		SessionFile:      filepath.Join(t.TempDir(), "session.json"),
		SessionNamespace: "test",
	}
}

func TestNew_FileBackendHydrates(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.BackendFile)

	store, _, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, domain.KeyAuthToken, "a-stored-access-token"))
	require.NoError(t, store.Set(ctx, domain.KeyUserEmail, "ada@example.com"))

	a, err := New(ctx, cfg, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(ctx) })

	assert.True(t, a.Sessions.Authenticated())
	assert.Equal(t, "ada@example.com", a.Sessions.Email(ctx))
	assert.Equal(t, cfg.SessionSettle, a.Registration.SettleDelay)
}

func TestNew_MemoryBackend(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t, config.BackendMemory), nil, nil)
	require.NoError(t, err)
	assert.False(t, a.Sessions.Authenticated())
	assert.NoError(t, a.Close(ctx))

	w := a.NewWizard(nil)
	require.NoError(t, w.Load(ctx))
	assert.Error(t, w.Pick(ctx, vendorsetup.SlotIdentityDocument, vendorsetup.SourceGallery))

	flow := a.NewOTPFlow(domain.OTPChallenge{Contact: "ada@example.com", Source: domain.OTPSourceEmail})
	assert.False(t, flow.Verified())
}

func TestOpenStore_Unknown(t *testing.T) {
	_, _, err := OpenStore(context.Background(), testConfig(t, "etcd"))
	assert.Error(t, err)
}

func TestPathPicker(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "id.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o600))

	p := PathPicker{Image: path}
	ref, err := p.PickImage(ctx)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "id.png", ref.Name)
	assert.Equal(t, "image/png", ref.MimeType)

	ref, err = p.PickDocument(ctx)
	assert.NoError(t, err)
	assert.Nil(t, ref, "an empty path is a cancelled pick")

	_, err = PathPicker{Image: filepath.Join(t.TempDir(), "missing.png")}.PickImage(ctx)
	assert.Error(t, err)
}
