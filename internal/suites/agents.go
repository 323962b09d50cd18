package suites

import (
	"context"
	"fmt"
	"net/http"

	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

// AgentsSuite exercises the agents router. Every endpoint requires agent
// authentication, so the suite provisions a fresh agent first.
type AgentsSuite struct{}

func (s *AgentsSuite) Router() string { return "agents" }

func (s *AgentsSuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	agent, err := provisionAgent(ctx, env, "cerberus/"+uniqueName("agents"), uniqueName("agents_agent"))
	if err != nil {
		return fmt.Errorf("agent provisioning: %w", err)
	}
	rec.Infof("provisioned agent %s", agent.AgentDID)

	tok, err := env.RegistryA.AgentToken(ctx, agent.ClientID, agent.ClientSecret)
	if err != nil {
		return fmt.Errorf("agent token: %w", err)
	}
	rec.Pass("POST", "/auth/agent/token")

	// Identity of the authenticated agent.
	resp, err := env.RegistryA.Get(ctx, registry.APIPrefix+"/agents/me",
		registry.WithBearer(tok.AccessToken))
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusOK, "GET", "/agents/me") {
		did, _ := resp.Field("agent_did")
		rec.Check(did == agent.AgentDID, "GET", "/agents/me (body)",
			fmt.Sprintf("agent_did mismatch: got %v", did))
	}

	resp, err = env.RegistryA.Get(ctx, registry.APIPrefix+"/agents/health",
		registry.WithBearer(tok.AccessToken))
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusOK, "GET", "/agents/health")

	resp, err = env.RegistryA.Post(ctx, registry.APIPrefix+"/agents/heartbeat",
		registry.WithBearer(tok.AccessToken))
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusOK, "POST", "/agents/heartbeat")

	// Unauthenticated access is refused.
	resp, err = env.RegistryA.Get(ctx, registry.APIPrefix+"/agents/me")
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/agents/me (no auth)", http.StatusUnauthorized, http.StatusForbidden)

	return nil
}
