package suites

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

// AgentCardsSuite exercises the agent-cards router: the full card
// lifecycle plus public discovery with search, tag, and HRI lookups.
type AgentCardsSuite struct{}

func (s *AgentCardsSuite) Router() string { return "agent_cards" }

func (s *AgentCardsSuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	reg := env.RegistryA

	dev, err := newDeveloper(ctx, env, "cards")
	if err != nil {
		return err
	}

	// Public listing needs no authentication.
	resp, err := reg.Get(ctx, registry.APIPrefix+"/agent-cards")
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusOK, "GET", "/agent-cards") {
		rec.Check(resp.HasFields("items"), "GET", "/agent-cards (body)", "missing items field")
	}

	hri := "test/" + uniqueName("card")
	card := sampleCard(hri, uniqueName("card_agent"))
	resp, err = reg.Post(ctx, registry.APIPrefix+"/agent-cards/",
		registry.WithBearer(dev.Token),
		registry.WithJSON(map[string]any{"card_data": card}))
	if err != nil {
		return err
	}
	var cardID string
	if rec.CheckStatus(resp, http.StatusCreated, "POST", "/agent-cards/") {
		if id, ok := resp.Field("id"); ok {
			cardID = fmt.Sprintf("%v", id)
		} else {
			rec.Fail("POST", "/agent-cards/ (body)", "missing id in response")
		}
	}

	if cardID != "" {
		resp, err = reg.Get(ctx, registry.APIPrefix+"/agent-cards/"+cardID)
		if err != nil {
			return err
		}
		rec.CheckStatus(resp, http.StatusOK, "GET", "/agent-cards/{card_id}")

		// HRI lookups, query-parameter and path forms.
		resp, err = reg.Get(ctx, registry.APIPrefix+"/agent-cards/by-hri",
			registry.WithQuery("hri", hri))
		if err != nil {
			return err
		}
		rec.CheckStatus(resp, http.StatusOK, "GET", "/agent-cards/by-hri")

		resp, err = reg.Get(ctx, registry.APIPrefix+"/agent-cards/id/"+url.PathEscape(hri))
		if err != nil {
			return err
		}
		rec.CheckStatus(resp, http.StatusOK, "GET", "/agent-cards/id/{human_readable_id}")
	}

	// Discovery filters.
	resp, err = reg.Get(ctx, registry.APIPrefix+"/agent-cards",
		registry.WithQuery("search", "test"))
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusOK, "GET", "/agent-cards?search=test")

	resp, err = reg.Get(ctx, registry.APIPrefix+"/agent-cards?tags=test&tags=cerberus")
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusOK, "GET", "/agent-cards?tags=test&tags=cerberus")

	resp, err = reg.Get(ctx, registry.APIPrefix+"/agent-cards",
		registry.WithQuery("owned_only", "true"), registry.WithBearer(dev.Token))
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusOK, "GET", "/agent-cards?owned_only=true")

	if cardID != "" {
		// Update bumps the version and extends the card.
		card.AgentVersion = "1.0.1"
		card.Description = "Updated description for endpoint testing"
		card.Tags = append(card.Tags, "updated")
		resp, err = reg.Put(ctx, registry.APIPrefix+"/agent-cards/"+cardID,
			registry.WithBearer(dev.Token),
			registry.WithJSON(map[string]any{"card_data": card}))
		if err != nil {
			return err
		}
		rec.CheckStatus(resp, http.StatusOK, "PUT", "/agent-cards/{card_id}")

		// Delete deactivates rather than destroys.
		resp, err = reg.Delete(ctx, registry.APIPrefix+"/agent-cards/"+cardID,
			registry.WithBearer(dev.Token))
		if err != nil {
			return err
		}
		rec.CheckStatus(resp, http.StatusNoContent, "DELETE", "/agent-cards/{card_id}")

		resp, err = reg.Get(ctx, registry.APIPrefix+"/agent-cards/"+cardID)
		if err != nil {
			return err
		}
		if rec.CheckStatus(resp, http.StatusOK, "GET", "/agent-cards/{card_id} (after delete)") {
			active, _ := resp.Field("is_active")
			rec.Check(active != true, "GET", "/agent-cards/{card_id} (deactivated)",
				"card still active after deletion")
		}
	}

	resp, err = reg.Get(ctx, registry.APIPrefix+"/agent-cards/"+uuid.NewString())
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusNotFound, "GET", "/agent-cards/{card_id} (nonexistent)")

	return nil
}
