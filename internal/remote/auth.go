package remote

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
)

type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Role            string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair accepts both {access, refresh} and {access_token, refresh_token}.
type TokenPair struct {
	Access  string
	Refresh string
}

func (p *TokenPair) UnmarshalJSON(b []byte) error {
	var raw struct {
		Access       string `json:"access"`
		Refresh      string `json:"refresh"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Access = raw.Access
	if p.Access == "" {
		p.Access = raw.AccessToken
	}
	p.Refresh = raw.Refresh
	if p.Refresh == "" {
		p.Refresh = raw.RefreshToken
	}
	return nil
}

func (p TokenPair) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"access": p.Access, "refresh": p.Refresh})
}

// AuthResponse is the one accepted shape of /register, /login and
// /refresh-token: tokens live under data.tokens and nowhere else.
type AuthResponse struct {
	Success *bool     `json:"success"`
	Message string    `json:"message"`
	Data    *AuthData `json:"data"`
}

type AuthData struct {
	Tokens *TokenPair `json:"tokens"`
}

// Tokens returns the token pair, or ok=false when the access token is absent.
func (r *AuthResponse) Tokens() (domain.SessionTokens, bool) {
	if r == nil || r.Data == nil || r.Data.Tokens == nil || r.Data.Tokens.Access == "" {
		return domain.SessionTokens{}, false
	}
	return domain.SessionTokens{
		AccessToken:  r.Data.Tokens.Access,
		RefreshToken: r.Data.Tokens.Refresh,
	}, true
}

func (c *Client) Register(ctx context.Context, in RegisterRequest) (*AuthResponse, error) {
	return c.auth(ctx, PathRegister, in)
}

func (c *Client) Login(ctx context.Context, in LoginRequest) (*AuthResponse, error) {
	return c.auth(ctx, PathLogin, in)
}

func (c *Client) auth(ctx context.Context, path string, in any) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.postJSON(ctx, path, "", in, &out); err != nil {
		return nil, err
	}
	if err := unsuccessful(http.StatusOK, out.Success, out.Message); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh implements session.Refresher.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (domain.SessionTokens, error) {
	out, err := c.auth(ctx, PathRefreshToken, map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return domain.SessionTokens{}, err
	}
	tokens, ok := out.Tokens()
	if !ok {
		return domain.SessionTokens{}, domain.ErrAuthTokenMissing
	}
	return tokens, nil
}
