package suites

import (
	"context"
	"net/http"

	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

// FederationPeersSuite exercises the developer-facing federation peers
// router. The peer listing itself requires SPIFFE SVID authentication,
// so an unauthenticated 401 is the expected baseline.
type FederationPeersSuite struct{}

func (s *FederationPeersSuite) Router() string { return "federation_peers" }

func (s *FederationPeersSuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	reg := env.RegistryA

	dev, err := newDeveloper(ctx, env, "fedpeers")
	if err != nil {
		return err
	}

	resp, err := reg.Get(ctx, registry.APIPrefix+"/federation/peers")
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/federation/peers", http.StatusUnauthorized, http.StatusOK)

	// Peer registration is not open to regular developers.
	resp, err = reg.Post(ctx, registry.APIPrefix+"/federation/peers",
		registry.WithBearer(dev.Token),
		registry.WithJSON(map[string]any{
			"name":                uniqueName("Test Peer Registry"),
			"description":         "A test peer registry for federation testing",
			"base_url":            "https://" + uniqueName("test-peer") + ".example.com",
			"admin_contact_email": "admin@test-peer.example.com",
		}))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", "/federation/peers (non-admin)",
		http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusForbidden)

	resp, err = reg.Get(ctx, registry.APIPrefix+"/federation/peers/my/registrations",
		registry.WithBearer(dev.Token))
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusOK, "GET", "/federation/peers/my/registrations") {
		rec.Check(resp.HasFields("items"), "GET", "/federation/peers/my/registrations (body)",
			"missing items field")
	}

	// Non-ACTIVE or unknown peers are hidden.
	resp, err = reg.Get(ctx, registry.APIPrefix+"/federation/peers/13")
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/federation/peers/{peer_id}", http.StatusNotFound, http.StatusOK)

	resp, err = reg.Get(ctx, registry.APIPrefix+"/federation/peers?skip=0&limit=5")
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/federation/peers?skip=0&limit=5",
		http.StatusUnauthorized, http.StatusOK)

	return nil
}

// FederationSyncSuite exercises the admin-facing federation sync router.
type FederationSyncSuite struct{}

func (s *FederationSyncSuite) Router() string { return "federation_sync" }

func (s *FederationSyncSuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	reg := env.RegistryA

	admin, err := adminLogin(ctx, env)
	if err != nil {
		return err
	}

	resp, err := reg.Get(ctx, registry.APIPrefix+"/federation/peers",
		registry.WithBearer(admin))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/federation/peers (admin)",
		http.StatusOK, http.StatusUnauthorized, http.StatusForbidden)

	resp, err = reg.Get(ctx, registry.APIPrefix+"/federation/sync-status",
		registry.WithBearer(admin))
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusOK, "GET", "/federation/sync-status")

	resp, err = reg.Get(ctx, registry.APIPrefix+"/federation/agent-cards",
		registry.WithBearer(admin), registry.WithQuery("limit", "10"))
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusOK, "GET", "/federation/agent-cards?limit=10")

	resp, err = reg.Post(ctx, registry.APIPrefix+"/federation/sync-request",
		registry.WithBearer(admin))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", "/federation/sync-request",
		http.StatusOK, http.StatusForbidden)

	// Sync endpoints are closed without admin auth.
	resp, err = reg.Get(ctx, registry.APIPrefix+"/federation/sync-status")
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/federation/sync-status (no auth)",
		http.StatusUnauthorized, http.StatusForbidden)

	return nil
}

// FederationPublicSuite exercises the unauthenticated federation
// endpoints: registry info and the peer health probe.
type FederationPublicSuite struct{}

func (s *FederationPublicSuite) Router() string { return "federation_public" }

func (s *FederationPublicSuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	reg := env.RegistryA

	resp, err := reg.Get(ctx, registry.APIPrefix+"/federation/info")
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusOK, "GET", "/federation/info")

	// Health-check reports 503 when federation is disabled, which is a
	// valid configuration.
	resp, err = reg.Get(ctx, registry.APIPrefix+"/federation/health-check")
	if err != nil {
		return err
	}
	checkIn(rec, resp, "GET", "/federation/health-check",
		http.StatusOK, http.StatusServiceUnavailable)

	return nil
}

// FederationQuerySuite exercises the internal peer-to-peer query
// endpoint. It is mounted outside the versioned prefix and authenticates
// peers by bearer token.
type FederationQuerySuite struct{}

func (s *FederationQuerySuite) Router() string { return "federation_query" }

func (s *FederationQuerySuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	reg := env.RegistryA
	const path = "/internal/federation/query"

	resp, err := reg.Post(ctx, path)
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", path+" (no auth)",
		http.StatusUnauthorized, http.StatusUnprocessableEntity)

	resp, err = reg.Do(ctx, http.MethodPost, path, func(r *registry.Request) {
		r.Header.Set("Authorization", "NotBearer something")
	})
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", path+" (invalid auth)",
		http.StatusUnauthorized, http.StatusUnprocessableEntity)

	resp, err = reg.Post(ctx, path, registry.WithBearer(""))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", path+" (empty token)",
		http.StatusUnauthorized, http.StatusUnprocessableEntity)

	// A syntactically valid peer token yields the paginated card feed.
	resp, err = reg.Post(ctx, path, registry.WithBearer("dummy-federation-token"))
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusOK, "POST", path+" (peer token)") {
		rec.Check(resp.HasFields("items", "pagination"), "POST", path+" (body)",
			"missing items or pagination")
	}

	resp, err = reg.Post(ctx, path,
		registry.WithBearer("dummy-federation-token"),
		registry.WithQuery("search", "test"),
		registry.WithQuery("limit", "10"),
		registry.WithQuery("offset", "0"))
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusOK, "POST", path+" (with search)") {
		pagination, _ := resp.Field("pagination")
		p, _ := pagination.(map[string]any)
		complete := p != nil
		for _, f := range []string{"total_items", "limit", "offset", "total_pages", "current_page"} {
			if _, ok := p[f]; !ok {
				complete = false
			}
		}
		rec.Check(complete, "POST", path+" (pagination)", "missing pagination fields")
	}

	return nil
}
