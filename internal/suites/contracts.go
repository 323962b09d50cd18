package suites

import (
	"context"
	"fmt"
	"net/http"

	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

// ContractsSuite exercises the contracts router: the full upgrade-contract
// lifecycle (PROPOSED, ACCEPTED, PENDING_MERGE, COMPLETED), per-agent
// listings, and malpractice disputes.
type ContractsSuite struct{}

func (s *ContractsSuite) Router() string { return "contracts" }

func (s *ContractsSuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	reg := env.RegistryA

	clientDID := "did:cos:cerberus-client-agent"
	upgraderDID := "did:cos:cerberus-upgrader-agent"

	contract := map[string]any{
		"client_agent_did":     clientDID,
		"scope_description":    "Refactor authentication module to use JWT tokens instead of API keys",
		"source_code_repo_url": "https://github.com/example/agent-repo",
		"source_code_branch":   "main",
		"acceptance_criteria": map[string]any{
			"type": "automated_tests",
			"requirements": []string{
				"All existing tests must pass",
				"JWT authentication must be implemented",
				"Backwards compatibility maintained",
			},
			"test_suite":         "tests/auth_test.py",
			"coverage_threshold": 90,
		},
		"payment_amount": 1000,
	}

	resp, err := reg.Post(ctx, registry.APIPrefix+"/contracts", registry.WithJSON(contract))
	if err != nil {
		return err
	}
	var contractID string
	if rec.CheckStatus(resp, http.StatusCreated, "POST", "/contracts") {
		status, _ := resp.Field("status")
		if rec.Check(status == "PROPOSED" && resp.HasFields("id", "client_agent_did", "payment_amount", "created_at"),
			"POST", "/contracts (body)", fmt.Sprintf("want status PROPOSED with full contract, got %v", status)) {
			id, _ := resp.Field("id")
			contractID = fmt.Sprintf("%v", id)
		}
	}

	if contractID != "" {
		resp, err = reg.Get(ctx, registry.APIPrefix+"/contracts/"+contractID)
		if err != nil {
			return err
		}
		rec.CheckStatus(resp, http.StatusOK, "GET", "/contracts/{contract_id}")

		// Acceptance binds the upgrader and moves the state machine.
		resp, err = reg.Post(ctx, registry.APIPrefix+"/contracts/"+contractID+"/accept",
			registry.WithJSON(map[string]any{"upgrader_agent_did": upgraderDID}))
		if err != nil {
			return err
		}
		if rec.CheckStatus(resp, http.StatusOK, "POST", "/contracts/{contract_id}/accept") {
			status, _ := resp.Field("status")
			rec.Check(status == "ACCEPTED", "POST", "/contracts/{contract_id}/accept (status)",
				fmt.Sprintf("want ACCEPTED, got %v", status))
		}

		resp, err = reg.Post(ctx, registry.APIPrefix+"/contracts/"+contractID+"/submit",
			registry.WithJSON(map[string]any{"pr_url": "https://github.com/example/agent-repo/pull/42"}))
		if err != nil {
			return err
		}
		if rec.CheckStatus(resp, http.StatusOK, "POST", "/contracts/{contract_id}/submit") {
			status, _ := resp.Field("status")
			rec.Check(status == "PENDING_MERGE", "POST", "/contracts/{contract_id}/submit (status)",
				fmt.Sprintf("want PENDING_MERGE, got %v", status))
		}

		resp, err = reg.Post(ctx, registry.APIPrefix+"/contracts/"+contractID+"/approve-completion")
		if err != nil {
			return err
		}
		if rec.CheckStatus(resp, http.StatusOK, "POST", "/contracts/{contract_id}/approve-completion") {
			status, _ := resp.Field("status")
			completed, _ := resp.Field("completed_at")
			rec.Check(status == "COMPLETED" && completed != nil,
				"POST", "/contracts/{contract_id}/approve-completion (status)",
				fmt.Sprintf("want COMPLETED with completed_at, got %v", status))
		}
	}

	resp, err = reg.Get(ctx, registry.APIPrefix+"/contracts")
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusOK, "GET", "/contracts")

	resp, err = reg.Get(ctx, registry.APIPrefix+"/contracts", registry.WithQuery("limit", "5"))
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusOK, "GET", "/contracts?limit=5")

	resp, err = reg.Get(ctx, registry.APIPrefix+"/contracts/agent/"+clientDID)
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusOK, "GET", "/contracts/agent/{agent_did}")

	for _, role := range []string{"client", "upgrader"} {
		resp, err = reg.Get(ctx, registry.APIPrefix+"/contracts/agent/"+clientDID,
			registry.WithQuery("role", role))
		if err != nil {
			return err
		}
		rec.CheckStatus(resp, http.StatusOK, "GET", "/contracts/agent/{agent_did}?role="+role)
	}

	resp, err = reg.Get(ctx, registry.APIPrefix+"/contracts/999999")
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusNotFound, "GET", "/contracts/999999")

	// Malpractice disputes open in PENDING_REVIEW.
	resp, err = reg.Post(ctx, registry.APIPrefix+"/contracts/malpractice",
		registry.WithJSON(map[string]any{
			"contract_id": 1,
			"evidence": map[string]any{
				"error_logs":        []string{"Agent code failed to start after update"},
				"test_results":      map[string]any{"passed": 0, "failed": 15},
				"rollback_required": true,
			},
			"claimed_damages": 5000,
		}))
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusCreated, "POST", "/contracts/malpractice") {
		status, _ := resp.Field("status")
		rec.Check(resp.HasFields("dispute_id") && status == "PENDING_REVIEW",
			"POST", "/contracts/malpractice (body)", "missing dispute_id or status != PENDING_REVIEW")
	}

	// Validation refuses incomplete and malformed contracts.
	resp, err = reg.Post(ctx, registry.APIPrefix+"/contracts",
		registry.WithJSON(map[string]any{
			"client_agent_did":  "did:cos:test",
			"scope_description": "Test",
		}))
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusUnprocessableEntity, "POST", "/contracts (missing fields)")

	return nil
}
