package suites

import (
	"context"
	"net/http"

	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

// StakingSuite exercises the staking router. Stake and unstake take the
// amount as a query parameter, not a body field.
type StakingSuite struct{}

func (s *StakingSuite) Router() string { return "staking" }

func (s *StakingSuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	reg := env.RegistryA

	dev, err := newDeveloper(ctx, env, "staking")
	if err != nil {
		return err
	}

	resp, err := reg.Get(ctx, registry.APIPrefix+"/staking/balance",
		registry.WithBearer(dev.Token))
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusOK, "GET", "/staking/balance") {
		rec.Check(resp.HasFields("agent_did", "liquid_balance", "staked_balance", "total_balance"),
			"GET", "/staking/balance (body)", "missing balance fields")
	}

	resp, err = reg.Get(ctx, registry.APIPrefix+"/staking/status",
		registry.WithBearer(dev.Token))
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusOK, "GET", "/staking/status") {
		rec.Check(resp.HasFields("system_status") || resp.HasFields("integration_active"),
			"GET", "/staking/status (body)", "missing status fields")
	}

	// A fresh account holds no tokens, so stake may be refused for
	// insufficient balance. Either outcome proves the endpoint.
	resp, err = reg.Post(ctx, registry.APIPrefix+"/staking/stake",
		registry.WithBearer(dev.Token), registry.WithQuery("amount", "10"))
	if err != nil {
		return err
	}
	if checkIn(rec, resp, "POST", "/staking/stake?amount=10", http.StatusOK, http.StatusBadRequest) &&
		resp.StatusCode == http.StatusOK {
		rec.Check(resp.HasFields("transaction_id", "amount"),
			"POST", "/staking/stake (body)", "missing transaction fields")
	}

	resp, err = reg.Post(ctx, registry.APIPrefix+"/staking/unstake",
		registry.WithBearer(dev.Token), registry.WithQuery("amount", "5"))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", "/staking/unstake?amount=5", http.StatusOK, http.StatusBadRequest)

	// Staking endpoints require authentication.
	resp, err = reg.Get(ctx, registry.APIPrefix+"/staking/balance")
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/staking/balance (no auth)",
		http.StatusUnauthorized, http.StatusForbidden)

	return nil
}
