package suites

import (
	"context"
	"fmt"
	"net/http"

	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

// ReputationSignalSuite exercises the per-transaction reputation signal
// endpoints. Signals attach to real token transactions; with a synthetic
// transaction id the platform answers 404, which confirms the route and
// its validation order.
type ReputationSignalSuite struct{}

func (s *ReputationSignalSuite) Router() string { return "reputation_signal" }

func (s *ReputationSignalSuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	reg := env.RegistryA

	agent, err := provisionAgent(ctx, env, "cerberus/"+uniqueName("repsignal"), uniqueName("repsignal_agent"))
	if err != nil {
		return fmt.Errorf("agent provisioning: %w", err)
	}
	tok, err := env.RegistryA.AgentToken(ctx, agent.ClientID, agent.ClientSecret)
	if err != nil {
		return fmt.Errorf("agent token: %w", err)
	}
	bearer := registry.WithBearer(tok.AccessToken)

	path := registry.APIPrefix + "/token/test-txn-cerberus/reputation-signal"

	resp, err := reg.Post(ctx, path, bearer,
		registry.WithJSON(map[string]any{
			"signal_value": 1,
			"reason":       "Excellent service, fast response",
		}))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", "/token/{transaction_id}/reputation-signal (+1)",
		http.StatusOK, http.StatusNotFound, http.StatusServiceUnavailable)

	resp, err = reg.Get(ctx, path, bearer)
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/token/{transaction_id}/reputation-signal",
		http.StatusOK, http.StatusNotFound, http.StatusServiceUnavailable)

	resp, err = reg.Post(ctx, path, bearer,
		registry.WithJSON(map[string]any{
			"signal_value": -1,
			"reason":       "Poor service quality",
		}))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", "/token/{transaction_id}/reputation-signal (-1)",
		http.StatusOK, http.StatusNotFound, http.StatusConflict, http.StatusServiceUnavailable)

	// Signals are +1 or -1 only.
	resp, err = reg.Post(ctx, path, bearer,
		registry.WithJSON(map[string]any{
			"signal_value": 5,
			"reason":       "Invalid signal",
		}))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", "/token/{transaction_id}/reputation-signal (invalid value)",
		http.StatusUnprocessableEntity, http.StatusBadRequest)

	resp, err = reg.Post(ctx, path,
		registry.WithJSON(map[string]any{"signal_value": 1, "reason": "no auth"}))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", "/token/{transaction_id}/reputation-signal (no auth)",
		http.StatusUnauthorized, http.StatusForbidden)

	return nil
}
