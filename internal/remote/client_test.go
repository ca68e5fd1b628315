package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"github.com/developia-II/vendora-onboarding/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) *remote.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return remote.NewClient(srv.URL, time.Second)
}

func TestRegister_TokenKeyNaming(t *testing.T) {
	bodies := map[string]string{
		"short keys": `{"success":true,"data":{"tokens":{"access":"tok_1234567890","refresh":"ref_1"}}}`,
		"long keys":  `{"success":true,"data":{"tokens":{"access_token":"tok_1234567890","refresh_token":"ref_1"}}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, remote.PathRegister, r.URL.Path)
				assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
				var in map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
				assert.Equal(t, "Abcd123!", in["password_confirm"])
				w.Write([]byte(body))
			})

			out, err := client.Register(context.Background(), remote.RegisterRequest{
				Email: "a@b.com", Password: "Abcd123!", PasswordConfirm: "Abcd123!", Role: "vendor",
			})
			require.NoError(t, err)
			tokens, ok := out.Tokens()
			require.True(t, ok)
			assert.Equal(t, "tok_1234567890", tokens.AccessToken)
			assert.Equal(t, "ref_1", tokens.RefreshToken)
		})
	}
}

func TestRegister_OnlyCanonicalShape(t *testing.T) {
	// Tokens at the top level are not part of the contract.
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"tokens":{"access":"tok_1234567890"},"data":{}}`))
	})
	out, err := client.Register(context.Background(), remote.RegisterRequest{Email: "a@b.com"})
	require.NoError(t, err)
	_, ok := out.Tokens()
	assert.False(t, ok)
}

func TestRegister_Unsuccessful(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"email already in use"}`))
	})
	_, err := client.Register(context.Background(), remote.RegisterRequest{Email: "a@b.com"})
	require.ErrorIs(t, err, domain.ErrRemoteValidation)
	assert.Equal(t, "email already in use", err.Error())
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		kind   error
	}{
		{http.StatusBadRequest, domain.ErrRemoteValidation},
		{http.StatusUnauthorized, domain.ErrSessionExpired},
		{http.StatusNotFound, domain.ErrRemoteValidation},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
		{http.StatusBadGateway, domain.ErrRemote},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(`{"success":false,"message":"server says no"}`))
			})
			_, err := client.ResendOTP(context.Background(), "a@b.com")
			require.ErrorIs(t, err, tc.kind)
			require.True(t, remote.IsStatus(err, tc.status))
			assert.Equal(t, "server says no", err.Error())
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := remote.NewClient(url, time.Second)
	err := client.VerifyOTP(context.Background(), "tok", "123456")
	require.ErrorIs(t, err, domain.ErrNetwork)
}

func TestVerifyOTP(t *testing.T) {
	t.Run("accepted shapes", func(t *testing.T) {
		for _, body := range []string{`{"success":true}`, `{"verified":true}`, `{"status":"verified"}`} {
			client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer tok_1234567890", r.Header.Get("Authorization"))
				w.Write([]byte(body))
			})
			require.NoError(t, client.VerifyOTP(context.Background(), "tok_1234567890", "123456"), body)
		}
	})

	t.Run("2xx without confirmation", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"message":"pending"}`))
		})
		err := client.VerifyOTP(context.Background(), "tok", "123456")
		require.ErrorIs(t, err, domain.ErrVerificationFailed)
	})
}

func TestSubmitVendorApplication(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, remote.PathVendorApplications, r.URL.Path)
		assert.Equal(t, "Bearer tok_1234567890", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "NG", r.FormValue(remote.FieldCountry))
		assert.Equal(t, "fashion,beauty", r.FormValue(remote.FieldBusinessType))

		f, hdr, err := r.FormFile(remote.FieldIdentityDocument)
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "id.png", hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
		content, _ := io.ReadAll(f)
		assert.Equal(t, "png-bytes", string(content))

		w.Write([]byte(`{"success":true,"data":{"id":"v1","status":"submitted"}}`))
	})

	doc := func(name, ct, content string) remote.Document {
		return remote.Document{FileName: name, ContentType: ct, Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		}}
	}
	rec, err := client.SubmitVendorApplication(context.Background(), "tok_1234567890", remote.VendorApplication{
		BusinessName:        "Ada Stores",
		BusinessType:        "fashion,beauty",
		Country:             "NG",
		IdentityDocument:    doc("id.png", "image/png", "png-bytes"),
		BusinessCertificate: doc("cert.pdf", "application/pdf", "pdf-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.VendorApplicationRecord{ID: "v1", Status: "submitted"}, rec)
}

func TestSubmitVendorApplication_OpenFailure(t *testing.T) {
	client := remote.NewClient("http://127.0.0.1:1", time.Second)
	_, err := client.SubmitVendorApplication(context.Background(), "tok", remote.VendorApplication{
		IdentityDocument: remote.Document{FileName: "id.png", Open: func() (io.ReadCloser, error) {
			return nil, errors.New("permission denied")
		}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity_document")
}

func TestListCategories(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"success":true,"data":[{"id":"c1","name":"Fashion","slug":"fashion","full_path":"Fashion","product_count":3}]}`))
	})
	cats, err := client.ListCategories(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "fashion", cats[0].Slug)
	assert.Equal(t, 3, cats[0].ProductCount)
}

func TestRefresh(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "ref_1", in["refresh_token"])
		w.Write([]byte(`{"success":true,"data":{"tokens":{"access_token":"tok_new_12345"}}}`))
	})
	tokens, err := client.Refresh(context.Background(), "ref_1")
	require.NoError(t, err)
	assert.Equal(t, "tok_new_12345", tokens.AccessToken)
}
