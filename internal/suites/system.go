package suites

import (
	"context"
	"fmt"
	"net/http"

	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

// Event types the activity feed can be filtered by.
var activityEventTypes = []string{
	"AGENT_ONBOARDED",
	"FEDERATION_REQUEST",
	"FEDERATION_APPROVED",
	"REWARD_CYCLE",
	"GOVERNANCE_PROPOSAL",
	"DISPUTE_FILED",
}

// SystemSuite exercises the system router: the public activity feed and
// its per-type filters.
type SystemSuite struct{}

func (s *SystemSuite) Router() string { return "system" }

func (s *SystemSuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	reg := env.RegistryA

	resp, err := reg.Get(ctx, registry.APIPrefix+"/system/activity-feed")
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusOK, "GET", "/system/activity-feed") {
		rec.Check(resp.HasFields("items", "total"),
			"GET", "/system/activity-feed (body)", "missing items or total")
	}

	resp, err = reg.Get(ctx, registry.APIPrefix+"/system/activity-feed?limit=5&offset=0")
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusOK, "GET", "/system/activity-feed?limit=5&offset=0") {
		var page registry.Page
		ok := resp.Decode(&page) == nil && len(page.Items) <= 5
		rec.Check(ok, "GET", "/system/activity-feed (page size)", "more than 5 items returned")
	}

	// Limits above 50 are rejected, or clamped by lenient builds.
	resp, err = reg.Get(ctx, registry.APIPrefix+"/system/activity-feed",
		registry.WithQuery("limit", "100"))
	if err != nil {
		return err
	}
	switch resp.StatusCode {
	case http.StatusUnprocessableEntity:
		rec.Pass("GET", "/system/activity-feed?limit=100")
	case http.StatusOK:
		var page registry.Page
		ok := resp.Decode(&page) == nil && len(page.Items) <= 50
		rec.Check(ok, "GET", "/system/activity-feed?limit=100", "limit neither rejected nor clamped")
	default:
		rec.Fail("GET", "/system/activity-feed?limit=100",
			fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	for _, eventType := range activityEventTypes {
		resp, err = reg.Get(ctx, registry.APIPrefix+"/system/activity-feed/by-type/"+eventType)
		if err != nil {
			return err
		}
		if !rec.CheckStatus(resp, http.StatusOK, "GET", "/system/activity-feed/by-type/"+eventType) {
			continue
		}
		var page registry.Page
		if resp.Decode(&page) != nil {
			rec.Fail("GET", "/system/activity-feed/by-type/"+eventType+" (body)", "not a page")
			continue
		}
		match := true
		for _, item := range page.Items {
			if item["event_type"] != eventType {
				match = false
			}
		}
		rec.Check(match, "GET", "/system/activity-feed/by-type/"+eventType+" (filter)",
			"response contains events of wrong type")
	}

	return nil
}
