package registry

import (
	"context"
	"fmt"
	"net/http"
)

// Transfer moves tokens on the TEG layer. The sender authenticates with its
// DID as a bearer token, the TEG layer's convention for agent-to-agent
// transfers.
func (c *Client) Transfer(ctx context.Context, senderDID string, req TransferRequest) (*TransferResponse, error) {
	resp, err := c.Post(ctx, APIPrefix+"/token/transfer",
		WithBearer(senderDID), WithJSON(req))
	if err != nil {
		return nil, err
	}
	if err := expectStatus(resp, http.StatusOK, "token transfer"); err != nil {
		return nil, err
	}
	var out TransferResponse
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode transfer response: %w", err)
	}
	if out.TransactionID == "" {
		return nil, fmt.Errorf("token transfer: no transaction_id in response")
	}
	return &out, nil
}
