package suites

import (
	"context"
	"net/http"

	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

// OnboardingSuite exercises the onboarding router: bootstrap token
// issuance, the unified create_agent flow, and single-use token
// enforcement.
type OnboardingSuite struct{}

func (s *OnboardingSuite) Router() string { return "onboarding" }

func (s *OnboardingSuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	reg := env.RegistryA
	apiKey := env.Config.Admin.APIKey

	// Token request needs a privileged API key; a missing key is refused.
	resp, err := reg.Post(ctx, registry.APIPrefix+"/onboard/bootstrap/request-token",
		registry.WithJSON(registry.BootstrapTokenRequest{AgentTypeHint: "test"}))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", "/onboard/bootstrap/request-token (no key)",
		http.StatusUnauthorized, http.StatusForbidden)

	resp, err = reg.Post(ctx, registry.APIPrefix+"/onboard/bootstrap/request-token",
		registry.WithAPIKey(apiKey),
		registry.WithJSON(registry.BootstrapTokenRequest{
			AgentTypeHint: "test",
			RequestedBy:   "cerberus",
			Description:   "onboarding suite token",
		}))
	if err != nil {
		return err
	}
	var bootstrapToken string
	if rec.CheckStatus(resp, http.StatusOK, "POST", "/onboard/bootstrap/request-token") {
		if tok, ok := resp.Field("bootstrap_token"); ok {
			bootstrapToken, _ = tok.(string)
		}
		rec.Check(bootstrapToken != "", "POST", "/onboard/bootstrap/request-token (body)",
			"missing bootstrap_token")
	}

	if bootstrapToken != "" {
		hri := "test/" + uniqueName("onboard")
		req := registry.CreateAgentRequest{
			AgentDIDMethod: "cos",
			AgentCard:      sampleCard(hri, uniqueName("onboard_agent")),
		}
		resp, err = reg.Post(ctx, registry.APIPrefix+"/onboard/create_agent",
			registry.WithBootstrapToken(bootstrapToken), registry.WithJSON(req))
		if err != nil {
			return err
		}
		if rec.CheckStatus(resp, http.StatusCreated, "POST", "/onboard/create_agent") {
			rec.Check(resp.HasFields("agent_did", "client_id", "client_secret"),
				"POST", "/onboard/create_agent (body)", "incomplete identity in response")
		}

		// Bootstrap tokens are single-use.
		resp, err = reg.Post(ctx, registry.APIPrefix+"/onboard/create_agent",
			registry.WithBootstrapToken(bootstrapToken), registry.WithJSON(req))
		if err != nil {
			return err
		}
		checkIn(rec, resp, "POST", "/onboard/create_agent (reused token)",
			http.StatusConflict, http.StatusUnauthorized, http.StatusBadRequest)
	}

	// A fabricated token never authenticates.
	resp, err = reg.Post(ctx, registry.APIPrefix+"/onboard/register",
		registry.WithBootstrapToken("bst_invalid_token_12345"),
		registry.WithJSON(map[string]any{"agent_did_method": "cos"}))
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusUnauthorized, "POST", "/onboard/register (invalid token)")

	return nil
}
