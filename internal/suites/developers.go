package suites

import (
	"context"
	"fmt"
	"net/http"

	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

// DevelopersSuite exercises the developers router: profile, owned agents
// and their balances, API key management, and the TEG summary.
type DevelopersSuite struct{}

func (s *DevelopersSuite) Router() string { return "developers" }

func (s *DevelopersSuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	reg := env.RegistryA

	dev, err := newDeveloper(ctx, env, "developers")
	if err != nil {
		return err
	}

	resp, err := reg.Get(ctx, registry.APIPrefix+"/developers/me",
		registry.WithBearer(dev.Token))
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusOK, "GET", "/developers/me") {
		email, _ := resp.Field("email")
		rec.Check(email == dev.Email, "GET", "/developers/me (body)",
			fmt.Sprintf("email mismatch: got %v", email))
	}

	resp, err = reg.Get(ctx, registry.APIPrefix+"/developers/me/agents",
		registry.WithBearer(dev.Token))
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusOK, "GET", "/developers/me/agents")

	// Batch balance lookup: unknown DIDs come back as per-entry errors
	// inside a 200, never as a request failure.
	resp, err = reg.Post(ctx, registry.APIPrefix+"/developers/me/agents/balances",
		registry.WithBearer(dev.Token),
		registry.WithJSON(map[string]any{
			"agent_dids": []string{"did:cos:cerberus-batch-a", "did:cos:cerberus-batch-b"},
		}))
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusOK, "POST", "/developers/me/agents/balances") {
		_, hasBalances := resp.Field("balances")
		rec.Check(hasBalances, "POST", "/developers/me/agents/balances (body)",
			"missing balances map")
	}

	// Batches are capped at 50 agents.
	overLimit := make([]string, 51)
	for i := range overLimit {
		overLimit[i] = fmt.Sprintf("did:cos:cerberus-batch-%d", i)
	}
	resp, err = reg.Post(ctx, registry.APIPrefix+"/developers/me/agents/balances",
		registry.WithBearer(dev.Token),
		registry.WithJSON(map[string]any{"agent_dids": overLimit}))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", "/developers/me/agents/balances (batch limit)",
		http.StatusBadRequest, http.StatusUnprocessableEntity)

	// Per-agent balance for an agent this developer does not own.
	resp, err = reg.Get(ctx, registry.APIPrefix+"/developers/me/agents/did:cos:not-owned/balance",
		registry.WithBearer(dev.Token))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/developers/me/agents/{agent_did}/balance (not owned)",
		http.StatusNotFound, http.StatusForbidden)

	// API key lifecycle.
	resp, err = reg.Post(ctx, registry.APIPrefix+"/developers/me/apikeys",
		registry.WithBearer(dev.Token),
		registry.WithJSON(map[string]any{"description": "cerberus suite key"}))
	if err != nil {
		return err
	}
	var keyID string
	if checkIn(rec, resp, "POST", "/developers/me/apikeys", http.StatusOK, http.StatusCreated) {
		if id, ok := resp.Field("id"); ok {
			keyID = fmt.Sprintf("%v", id)
		} else if id, ok := resp.Field("key_id"); ok {
			keyID = fmt.Sprintf("%v", id)
		}
	}

	resp, err = reg.Get(ctx, registry.APIPrefix+"/developers/me/apikeys",
		registry.WithBearer(dev.Token))
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusOK, "GET", "/developers/me/apikeys")

	if keyID != "" {
		resp, err = reg.Delete(ctx, registry.APIPrefix+"/developers/me/apikeys/"+keyID,
			registry.WithBearer(dev.Token))
		if err != nil {
			return err
		}
		checkIn(rec, resp, "DELETE", "/developers/me/apikeys/{key_id}",
			http.StatusOK, http.StatusNoContent)
	}

	resp, err = reg.Get(ctx, registry.APIPrefix+"/developers/me/teg-summary",
		registry.WithBearer(dev.Token))
	if err != nil {
		return err
	}
	// The summary aggregates from the TEG layer; 503 means the layer is
	// down, which the endpoint reports honestly.
	checkIn(rec, resp, "GET", "/developers/me/teg-summary",
		http.StatusOK, http.StatusServiceUnavailable)

	resp, err = reg.Get(ctx, registry.APIPrefix+"/developers/me")
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/developers/me (no auth)",
		http.StatusUnauthorized, http.StatusForbidden)

	return nil
}
