package suites

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

// DisputesSuite exercises the disputes router: filing, lookup, and
// evidence submission by the involved parties.
type DisputesSuite struct{}

func (s *DisputesSuite) Router() string { return "disputes" }

func (s *DisputesSuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	reg := env.RegistryA

	complainant := "did:cos:cerberus-complainant"
	defendant := "did:cos:cerberus-defendant"
	thirdParty := "did:cos:cerberus-bystander"

	resp, err := reg.Post(ctx, registry.APIPrefix+"/disputes/",
		registry.WithJSON(map[string]any{
			"complainant_did": complainant,
			"defendant_did":   defendant,
		}))
	if err != nil {
		return err
	}
	var disputeID string
	if rec.CheckStatus(resp, http.StatusCreated, "POST", "/disputes/") {
		if id, ok := resp.Field("id"); ok {
			disputeID = fmt.Sprintf("%v", id)
		} else if id, ok := resp.Field("dispute_id"); ok {
			disputeID = fmt.Sprintf("%v", id)
		}
	}

	// An agent cannot dispute itself.
	resp, err = reg.Post(ctx, registry.APIPrefix+"/disputes/",
		registry.WithJSON(map[string]any{
			"complainant_did": complainant,
			"defendant_did":   complainant,
		}))
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusBadRequest, "POST", "/disputes/ (same agent)")

	if disputeID != "" {
		resp, err = reg.Get(ctx, registry.APIPrefix+"/disputes/"+disputeID)
		if err != nil {
			return err
		}
		rec.CheckStatus(resp, http.StatusOK, "GET", "/disputes/{dispute_id}")

		// Both parties may file evidence.
		resp, err = reg.Post(ctx, registry.APIPrefix+"/disputes/"+disputeID+"/evidence",
			registry.WithJSON(map[string]any{
				"submitter_did": complainant,
				"evidence_data": map[string]any{
					"type":        "screenshot",
					"description": "Screenshot of the incident",
					"url":         "https://example.com/evidence/screenshot1.png",
					"timestamp":   time.Now().Format(time.RFC3339),
				},
			}))
		if err != nil {
			return err
		}
		rec.CheckStatus(resp, http.StatusCreated, "POST", "/disputes/{dispute_id}/evidence (complainant)")

		resp, err = reg.Post(ctx, registry.APIPrefix+"/disputes/"+disputeID+"/evidence",
			registry.WithJSON(map[string]any{
				"submitter_did": defendant,
				"evidence_data": map[string]any{
					"type":        "logs",
					"description": "System logs showing normal operation",
					"content":     "2025-07-15 10:00:00 - All systems normal",
					"timestamp":   time.Now().Format(time.RFC3339),
				},
			}))
		if err != nil {
			return err
		}
		rec.CheckStatus(resp, http.StatusCreated, "POST", "/disputes/{dispute_id}/evidence (defendant)")

		// Third parties are refused.
		resp, err = reg.Post(ctx, registry.APIPrefix+"/disputes/"+disputeID+"/evidence",
			registry.WithJSON(map[string]any{
				"submitter_did": thirdParty,
				"evidence_data": map[string]any{
					"type":        "witness",
					"description": "I saw what happened",
				},
			}))
		if err != nil {
			return err
		}
		rec.CheckStatus(resp, http.StatusForbidden, "POST", "/disputes/{dispute_id}/evidence (third party)")
	}

	resp, err = reg.Get(ctx, registry.APIPrefix+"/disputes/99999")
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusNotFound, "GET", "/disputes/99999")

	return nil
}
