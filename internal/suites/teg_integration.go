package suites

import (
	"context"
	"net/http"

	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

// TEGIntegrationSuite exercises the registry's TEG proxy router. The
// proxy forwards to the TEG layer and reports 503 when that layer is
// down, so every check accepts 503 alongside its success status.
type TEGIntegrationSuite struct{}

func (s *TEGIntegrationSuite) Router() string { return "teg_integration" }

func (s *TEGIntegrationSuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	reg := env.RegistryA

	dev, err := newDeveloper(ctx, env, "teg")
	if err != nil {
		return err
	}
	bearer := registry.WithBearer(dev.Token)

	resp, err := reg.Get(ctx, registry.APIPrefix+"/teg/balance", bearer)
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/teg/balance", http.StatusOK, http.StatusServiceUnavailable)

	resp, err = reg.Get(ctx, registry.APIPrefix+"/teg/transactions",
		bearer, registry.WithQuery("limit", "10"))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/teg/transactions?limit=10",
		http.StatusOK, http.StatusServiceUnavailable)

	// A fresh developer has no funds; 400 is the insufficient-balance
	// refusal.
	resp, err = reg.Post(ctx, registry.APIPrefix+"/teg/transfer", bearer,
		registry.WithJSON(map[string]any{
			"receiver_agent_id": "did:cos:cerberus-receiver",
			"amount":            "1.0",
			"message":           "cerberus transfer probe",
		}))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", "/teg/transfer",
		http.StatusOK, http.StatusBadRequest, http.StatusServiceUnavailable)

	resp, err = reg.Post(ctx, registry.APIPrefix+"/teg/system-transfer", bearer,
		registry.WithJSON(map[string]any{"amount": "1.0", "direction": "to_system"}))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", "/teg/system-transfer",
		http.StatusOK, http.StatusBadRequest, http.StatusServiceUnavailable)

	resp, err = reg.Get(ctx, registry.APIPrefix+"/teg/fees/config", bearer)
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/teg/fees/config", http.StatusOK, http.StatusServiceUnavailable)

	resp, err = reg.Get(ctx, registry.APIPrefix+"/teg/policies", bearer)
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/teg/policies", http.StatusOK, http.StatusServiceUnavailable)

	resp, err = reg.Get(ctx, registry.APIPrefix+"/teg/treasury/balance", bearer)
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/teg/treasury/balance",
		http.StatusOK, http.StatusForbidden, http.StatusServiceUnavailable)

	resp, err = reg.Post(ctx, registry.APIPrefix+"/teg/attestations/submit", bearer,
		registry.WithJSON(map[string]any{
			"attestation_type": "identity",
			"attestation_data": map[string]any{"verified": true},
		}))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", "/teg/attestations/submit",
		http.StatusCreated, http.StatusServiceUnavailable)

	resp, err = reg.Post(ctx, registry.APIPrefix+"/teg/disputes/log", bearer,
		registry.WithJSON(map[string]any{
			"defendant_did": "did:cos:cerberus-teg-defendant",
			"reason":        "endpoint verification",
		}))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", "/teg/disputes/log",
		http.StatusCreated, http.StatusServiceUnavailable)

	resp, err = reg.Get(ctx, registry.APIPrefix+"/teg/agents/did:agentvault:test_agent/reputation", bearer)
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/teg/agents/{did}/reputation",
		http.StatusOK, http.StatusNotFound, http.StatusServiceUnavailable)

	resp, err = reg.Post(ctx, registry.APIPrefix+"/teg/transactions/test-txn-123/reputation-signal",
		bearer, registry.WithJSON(map[string]any{"signal_value": 1}))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", "/teg/transactions/{id}/reputation-signal",
		http.StatusOK, http.StatusNotFound, http.StatusServiceUnavailable)

	// The proxy itself demands authentication before forwarding.
	resp, err = reg.Get(ctx, registry.APIPrefix+"/teg/balance")
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/teg/balance (no auth)",
		http.StatusUnauthorized, http.StatusForbidden)

	return nil
}
