package registry

import (
	"context"
	"fmt"
	"net/http"
)

// RequestBootstrapToken asks the registry for a one-time onboarding token.
// The caller authenticates with an admin API key.
func (c *Client) RequestBootstrapToken(ctx context.Context, apiKey string, req BootstrapTokenRequest) (string, error) {
	resp, err := c.Post(ctx, APIPrefix+"/onboard/bootstrap/request-token",
		WithAPIKey(apiKey), WithJSON(req))
	if err != nil {
		return "", err
	}
	if err := expectStatus(resp, http.StatusOK, "bootstrap token request"); err != nil {
		return "", err
	}
	var out struct {
		BootstrapToken string `json:"bootstrap_token"`
	}
	if err := resp.Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode bootstrap token response: %w", err)
	}
	if out.BootstrapToken == "" {
		return "", fmt.Errorf("bootstrap token request: empty token in response")
	}
	return out.BootstrapToken, nil
}

// CreateAgent onboards a new agent. The bootstrap token is single-use; a
// second attempt with the same token is rejected.
func (c *Client) CreateAgent(ctx context.Context, bootstrapToken string, card *AgentCard) (*CreateAgentResponse, error) {
	req := CreateAgentRequest{
		AgentDIDMethod: "cos",
		AgentCard:      card,
	}
	resp, err := c.Post(ctx, APIPrefix+"/onboard/create_agent",
		WithBootstrapToken(bootstrapToken), WithJSON(req))
	if err != nil {
		return nil, err
	}
	if err := expectStatus(resp, http.StatusCreated, "agent creation"); err != nil {
		return nil, err
	}
	var out CreateAgentResponse
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode agent creation response: %w", err)
	}
	if out.AgentDID == "" || out.ClientID == "" {
		return nil, fmt.Errorf("agent creation: incomplete identity in response")
	}
	return &out, nil
}

// GetAgentCard fetches one agent card by its id.
func (c *Client) GetAgentCard(ctx context.Context, apiKey, cardID string) (map[string]any, error) {
	resp, err := c.Get(ctx, APIPrefix+"/agent-cards/"+cardID, WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if err := expectStatus(resp, http.StatusOK, "agent card lookup"); err != nil {
		return nil, err
	}
	card := resp.JSON()
	if card == nil {
		return nil, fmt.Errorf("agent card lookup: response is not an object")
	}
	return card, nil
}

// ListAgentCards lists agent cards, optionally spanning federated peers.
func (c *Client) ListAgentCards(ctx context.Context, apiKey string, federated bool, limit int) (*Page, error) {
	opts := []Option{WithAPIKey(apiKey), WithQuery("limit", fmt.Sprintf("%d", limit))}
	if federated {
		opts = append(opts, WithQuery("include_federated", "true"))
	}
	resp, err := c.Get(ctx, APIPrefix+"/agent-cards/", opts...)
	if err != nil {
		return nil, err
	}
	if err := expectStatus(resp, http.StatusOK, "agent card discovery"); err != nil {
		return nil, err
	}
	var page Page
	if err := resp.Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode agent card page: %w", err)
	}
	return &page, nil
}

// ListFederationPeers lists every registered peer via the admin API.
func (c *Client) ListFederationPeers(ctx context.Context, bearer string) ([]FederationPeer, error) {
	resp, err := c.Get(ctx, APIPrefix+"/admin/federation/peers/all", WithBearer(bearer))
	if err != nil {
		return nil, err
	}
	if err := expectStatus(resp, http.StatusOK, "federation peer listing"); err != nil {
		return nil, err
	}
	var page struct {
		Items []FederationPeer `json:"items"`
	}
	if err := resp.Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode peer listing: %w", err)
	}
	return page.Items, nil
}
