package suites

import (
	"context"
	"fmt"
	"net/http"

	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

// AdminSuite exercises the admin router: the dashboard, system health,
// and dispute rulings.
type AdminSuite struct{}

func (s *AdminSuite) Router() string { return "admin" }

func (s *AdminSuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	reg := env.RegistryA

	admin, err := adminLogin(ctx, env)
	if err != nil {
		return err
	}

	resp, err := reg.Get(ctx, registry.APIPrefix+"/admin/dashboard",
		registry.WithBearer(admin))
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusOK, "GET", "/admin/dashboard") {
		rec.Check(resp.HasFields(
			"developer_count", "agent_count", "bootstrap_tokens_issued",
			"active_developers", "active_agents", "tokens_used",
			"tokens_expired", "timestamp"),
			"GET", "/admin/dashboard (body)", "missing dashboard fields")
	}

	resp, err = reg.Get(ctx, registry.APIPrefix+"/admin/system-health",
		registry.WithBearer(admin))
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusOK, "GET", "/admin/system-health")

	// Admin endpoints are closed to the public.
	resp, err = reg.Get(ctx, registry.APIPrefix+"/admin/dashboard")
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/admin/dashboard (no auth)",
		http.StatusUnauthorized, http.StatusForbidden)

	// Ruling update needs a live dispute; the ruling rides in a query
	// parameter, not the body.
	resp, err = reg.Post(ctx, registry.APIPrefix+"/disputes/",
		registry.WithJSON(map[string]any{
			"complainant_did": "did:cos:cerberus-admin-complainant",
			"defendant_did":   "did:cos:cerberus-admin-defendant",
		}))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		rec.Fail("PUT", "/admin/disputes/{dispute_id}/ruling", "could not create test dispute")
		return nil
	}
	id, _ := resp.Field("id")
	if id == nil {
		id, _ = resp.Field("dispute_id")
	}
	disputeID := fmt.Sprintf("%v", id)

	resp, err = reg.Put(ctx, registry.APIPrefix+"/admin/disputes/"+disputeID+"/ruling",
		registry.WithBearer(admin),
		registry.WithQuery("ruling", "IN_FAVOR_OF_COMPLAINANT"))
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusOK, "PUT", "/admin/disputes/{dispute_id}/ruling") {
		rec.Check(resp.HasFields("dispute_id", "status", "ruling", "reputation_changes"),
			"PUT", "/admin/disputes/{dispute_id}/ruling (body)", "missing ruling fields")
	}

	resp, err = reg.Put(ctx, registry.APIPrefix+"/admin/disputes/"+disputeID+"/ruling",
		registry.WithBearer(admin),
		registry.WithQuery("ruling", "INVALID_RULING"))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "PUT", "/admin/disputes/{dispute_id}/ruling (invalid)",
		http.StatusUnprocessableEntity, http.StatusBadRequest)

	return nil
}

// AdminFederationSuite exercises the admin federation-peer approval
// workflow.
type AdminFederationSuite struct{}

func (s *AdminFederationSuite) Router() string { return "admin_federation" }

func (s *AdminFederationSuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	reg := env.RegistryA

	admin, err := adminLogin(ctx, env)
	if err != nil {
		return err
	}

	resp, err := reg.Get(ctx, registry.APIPrefix+"/admin/federation/peers/all",
		registry.WithBearer(admin))
	if err != nil {
		return err
	}
	var peerID string
	if rec.CheckStatus(resp, http.StatusOK, "GET", "/admin/federation/peers/all") {
		var page struct {
			Items []registry.FederationPeer `json:"items"`
		}
		if resp.Decode(&page) == nil && len(page.Items) > 0 {
			peerID = fmt.Sprintf("%v", page.Items[0].ID)
		}
	}

	resp, err = reg.Get(ctx, registry.APIPrefix+"/admin/federation/peers/all",
		registry.WithBearer(admin), registry.WithQuery("status", "ACTIVE"))
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusOK, "GET", "/admin/federation/peers/all?status=ACTIVE")

	resp, err = reg.Get(ctx, registry.APIPrefix+"/admin/federation/peers/pending",
		registry.WithBearer(admin))
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusOK, "GET", "/admin/federation/peers/pending")

	if peerID != "" {
		// Approving an already-active peer is a no-op conflict; both
		// outcomes confirm the route.
		resp, err = reg.Post(ctx, registry.APIPrefix+"/admin/federation/peers/"+peerID+"/approve",
			registry.WithBearer(admin))
		if err != nil {
			return err
		}
		checkIn(rec, resp, "POST", "/admin/federation/peers/{peer_id}/approve",
			http.StatusOK, http.StatusConflict, http.StatusBadRequest)

		resp, err = reg.Post(ctx, registry.APIPrefix+"/admin/federation/peers/"+peerID+"/deactivate",
			registry.WithBearer(admin))
		if err != nil {
			return err
		}
		checkIn(rec, resp, "POST", "/admin/federation/peers/{peer_id}/deactivate",
			http.StatusOK, http.StatusConflict, http.StatusBadRequest)

		// Reactivate so a live federation is left as we found it.
		resp, err = reg.Post(ctx, registry.APIPrefix+"/admin/federation/peers/"+peerID+"/approve",
			registry.WithBearer(admin))
		if err != nil {
			return err
		}
		checkIn(rec, resp, "POST", "/admin/federation/peers/{peer_id}/approve (restore)",
			http.StatusOK, http.StatusConflict, http.StatusBadRequest)
	} else {
		rec.Infof("no federation peers registered, skipping approve/deactivate")
	}

	resp, err = reg.Get(ctx, registry.APIPrefix+"/admin/federation/peers/all")
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/admin/federation/peers/all (no auth)",
		http.StatusUnauthorized, http.StatusForbidden)

	return nil
}
