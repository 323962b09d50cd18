package registry

// TokenResponse is returned by every OAuth2 token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
}

// RegisterRequest creates a developer account.
type RegisterRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Organization string `json:"organization,omitempty"`
}

// RegisterResponse carries the one-time recovery keys issued on signup.
type RegisterResponse struct {
	Message      string   `json:"message"`
	RecoveryKeys []string `json:"recovery_keys"`
}

// AgentCardProvider identifies the organisation behind an agent.
type AgentCardProvider struct {
	Name           string `json:"name"`
	URL            string `json:"url,omitempty"`
	SupportContact string `json:"support_contact,omitempty"`
}

// AgentCardCapabilities declares protocol support.
type AgentCardCapabilities struct {
	A2AVersion                string   `json:"a2aVersion"`
	SupportedMessageParts     []string `json:"supportedMessageParts,omitempty"`
	SupportsPushNotifications bool     `json:"supportsPushNotifications"`
	TEEDetails                any      `json:"teeDetails"`
	MCPVersion                any      `json:"mcpVersion"`
}

// AgentCardAuthScheme describes one accepted authentication scheme.
type AgentCardAuthScheme struct {
	Scheme      string `json:"scheme"`
	Description string `json:"description,omitempty"`
}

// AgentCardSkill describes one advertised capability.
type AgentCardSkill struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	InputSchema  any    `json:"input_schema"`
	OutputSchema any    `json:"output_schema"`
}

// AgentCard is the platform's agent identity document. Field names follow
// the card schema on the wire, not Go convention.
type AgentCard struct {
	SchemaVersion     string                `json:"schemaVersion"`
	HumanReadableID   string                `json:"humanReadableId"`
	AgentVersion      string                `json:"agentVersion"`
	Name              string                `json:"name"`
	Description       string                `json:"description"`
	URL               string                `json:"url"`
	Provider          AgentCardProvider     `json:"provider"`
	Capabilities      AgentCardCapabilities `json:"capabilities"`
	AuthSchemes       []AgentCardAuthScheme `json:"authSchemes"`
	Tags              []string              `json:"tags,omitempty"`
	Skills            []AgentCardSkill      `json:"skills,omitempty"`
	IconURL           any                   `json:"iconUrl"`
	PrivacyPolicyURL  any                   `json:"privacyPolicyUrl"`
	TermsOfServiceURL any                   `json:"termsOfServiceUrl"`
	LastUpdated       any                   `json:"lastUpdated"`
}

// CreateAgentRequest is the onboarding payload; the bootstrap token rides
// in a header, not the body.
type CreateAgentRequest struct {
	AgentDIDMethod      string     `json:"agent_did_method"`
	PublicKeyJWK        any        `json:"public_key_jwk"`
	ProofOfWorkSolution any        `json:"proof_of_work_solution"`
	AgentCard           *AgentCard `json:"agent_card"`
}

// CreateAgentResponse carries the newborn agent's identity papers.
type CreateAgentResponse struct {
	AgentDID     string `json:"agent_did"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AgentCardID  string `json:"agent_card_id"`
	APIKey       string `json:"api_key,omitempty"`
}

// BootstrapTokenRequest asks the registry for a one-time onboarding token.
type BootstrapTokenRequest struct {
	AgentTypeHint string `json:"agent_type_hint,omitempty"`
	RequestedBy   string `json:"requested_by,omitempty"`
	Description   string `json:"description,omitempty"`
}

// TransferRequest moves tokens between agents on the TEG layer. Amounts are
// decimal strings on the wire.
type TransferRequest struct {
	ReceiverAgentID string `json:"receiver_agent_id"`
	Amount          string `json:"amount"`
	Message         string `json:"message,omitempty"`
}

// TransferResponse confirms a TEG transfer.
type TransferResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status,omitempty"`
}

// ListingRequest creates a marketplace service listing.
type ListingRequest struct {
	ProviderDID string `json:"provider_did"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ServiceType string `json:"service_type"`
	Price       string `json:"price"`
}

// Listing is a live marketplace listing.
type Listing struct {
	ID          string `json:"id"`
	ProviderDID string `json:"provider_did"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ServiceType string `json:"service_type,omitempty"`
	Price       string `json:"price"`
	Status      string `json:"status,omitempty"`
}

// PurchaseRequest authorises a prepaid-escrow purchase: the buyer has
// already transferred price plus fee to the marketplace and presents the
// transfer id as proof of payment.
type PurchaseRequest struct {
	ListingID     string `json:"listing_id"`
	BuyerDID      string `json:"buyer_did"`
	PrepaidEscrow bool   `json:"prepaid_escrow"`
	EscrowTxID    string `json:"escrow_tx_id"`
}

// Order is a marketplace purchase order.
type Order struct {
	ID        string `json:"id"`
	ListingID string `json:"listing_id,omitempty"`
	BuyerDID  string `json:"buyer_did,omitempty"`
	SellerDID string `json:"seller_did,omitempty"`
	Status    string `json:"status"`
	Amount    string `json:"amount,omitempty"`
}

// PurchaseResponse wraps the created order.
type PurchaseResponse struct {
	Order Order `json:"order"`
}

// Page is the platform's common paginated list envelope.
type Page struct {
	Items []map[string]any `json:"items"`
	Total int              `json:"total,omitempty"`
}

// FederationPeer describes one peer registry as seen by the admin API.
type FederationPeer struct {
	ID     any    `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	URL    string `json:"base_url,omitempty"`
}
