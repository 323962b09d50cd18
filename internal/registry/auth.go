package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Register creates a developer account. The registry answers 201 with the
// account's one-time recovery keys.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	resp, err := c.Post(ctx, APIPrefix+"/auth/register", WithJSON(req))
	if err != nil {
		return nil, err
	}
	if err := expectStatus(resp, http.StatusCreated, "developer registration"); err != nil {
		return nil, err
	}
	var out RegisterResponse
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode registration response: %w", err)
	}
	return &out, nil
}

// Login performs the OAuth2 password flow for a developer. The endpoint
// takes form data; the username field carries the email.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	form.Set("grant_type", "password")

	resp, err := c.Post(ctx, APIPrefix+"/auth/login", WithForm(form))
	if err != nil {
		return nil, err
	}
	if err := expectStatus(resp, http.StatusOK, "developer login"); err != nil {
		return nil, err
	}
	var out TokenResponse
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("developer login: no access_token in response")
	}
	return &out, nil
}

// AgentToken performs the OAuth2 client-credentials flow for an agent.
func (c *Client) AgentToken(ctx context.Context, clientID, clientSecret string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)

	resp, err := c.Post(ctx, APIPrefix+"/auth/token", WithForm(form))
	if err != nil {
		return nil, err
	}
	if err := expectStatus(resp, http.StatusOK, "agent token"); err != nil {
		return nil, err
	}
	var out TokenResponse
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &out, nil
}

// TokenClaims is the subset of JWT claims worth surfacing in logs.
type TokenClaims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// PeekClaims decodes a platform access token without verifying its
// signature. The harness holds no signing keys; this exists only to report
// who a token belongs to and when it dies.
func PeekClaims(token string) (*TokenClaims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", parsed.Claims)
	}

	out := &TokenClaims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
