package registry

import (
	"context"
	"fmt"
	"net/http"
)

// CreateListing publishes a service listing. The provider authenticates
// with its DID as a bearer token. The marketplace answers 200 on success.
func (c *Client) CreateListing(ctx context.Context, providerDID string, req ListingRequest) (*Listing, error) {
	resp, err := c.Post(ctx, APIPrefix+"/marketplace/listings",
		WithBearer(providerDID), WithJSON(req))
	if err != nil {
		return nil, err
	}
	if err := expectStatus(resp, http.StatusOK, "listing creation"); err != nil {
		return nil, err
	}
	var out struct {
		Listing *Listing `json:"listing"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode listing response: %w", err)
	}
	if out.Listing == nil || out.Listing.ProviderDID == "" {
		return nil, fmt.Errorf("listing creation: malformed listing in response")
	}
	return out.Listing, nil
}

// Purchase authorises a prepaid-escrow purchase. The buyer authenticates
// with its API key and presents the escrow transfer id as proof of payment.
func (c *Client) Purchase(ctx context.Context, apiKey string, req PurchaseRequest) (*PurchaseResponse, error) {
	resp, err := c.Post(ctx, APIPrefix+"/marketplace/purchase",
		WithAPIKey(apiKey), WithJSON(req))
	if err != nil {
		return nil, err
	}
	if err := expectStatus(resp, http.StatusOK, "purchase authorization"); err != nil {
		return nil, err
	}
	var out PurchaseResponse
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode purchase response: %w", err)
	}
	if out.Order.ID == "" {
		return nil, fmt.Errorf("purchase authorization: no order id in response")
	}
	return &out, nil
}

// CompleteOrder marks an order as delivered. Called by the seller with its
// own API key; settlement of escrowed funds follows server-side.
func (c *Client) CompleteOrder(ctx context.Context, apiKey, orderID string) error {
	resp, err := c.Post(ctx, APIPrefix+"/marketplace/orders/"+orderID+"/complete",
		WithAPIKey(apiKey))
	if err != nil {
		return err
	}
	return expectStatus(resp, http.StatusOK, "order completion")
}

// GetOrder fetches an order's current state.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	resp, err := c.Get(ctx, APIPrefix+"/marketplace/orders/"+orderID)
	if err != nil {
		return nil, err
	}
	if err := expectStatus(resp, http.StatusOK, "order lookup"); err != nil {
		return nil, err
	}
	var out Order
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}
	return &out, nil
}
