// Package artifacts persists the Golden Path's phase outputs as JSON files.
// Each phase writes one artifact that later phases load; the orchestrator
// gates phase transitions on their existence. The files are the contract:
// operators inspect them and external tooling parses them.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cerberus/internal/registry"
)

// Well-known artifact file names.
const (
	EnvironmentFile = "environment_status.json"
	CredentialsFile = "first_citizen_credentials.json"
	FundingFile     = "first_citizen_funding.json"
	DiscoveryFile   = "discovery_results.json"
	ListingFile     = "marketplace_listing.json"
	TransactionFile = "transaction_record.json"
)

// EnvironmentStatus records phase 0's service and federation verification.
type EnvironmentStatus struct {
	Timestamp        time.Time       `json:"timestamp"`
	Services         map[string]bool `json:"services"`
	FederationActive bool            `json:"federation_active"`
	EnvironmentReady bool            `json:"environment_ready"`
}

// Credentials is an agent's full identity material. The same shape is used
// for the First Citizen and for pre-provisioned agents (treasury, seller).
type Credentials struct {
	AgentName       string   `json:"agent_name"`
	HumanReadableID string   `json:"human_readable_id,omitempty"`
	AgentDID        string   `json:"agent_did"`
	ClientID        string   `json:"client_id"`
	ClientSecret    string   `json:"client_secret"`
	AgentCardID     string   `json:"agent_card_id,omitempty"`
	APIKey          string   `json:"api_key"`
	RegistryURL     string   `json:"registry_url,omitempty"`
	TEGURL          string   `json:"teg_url,omitempty"`
	BootstrapToken  string   `json:"bootstrap_token,omitempty"`
	CreatedAt       string   `json:"created_at,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// FundingRecord records the genesis grant transfer.
type FundingRecord struct {
	Timestamp time.Time `json:"timestamp"`
	TxID      string    `json:"tx_id"`
	Amount    string    `json:"amount"`
	From      string    `json:"from"`
	To        string    `json:"to"`
}

// DiscoveryRecord records the federated discovery breakdown.
type DiscoveryRecord struct {
	Timestamp         time.Time                   `json:"timestamp"`
	SearcherDID       string                      `json:"searcher_did"`
	LocalAgentsFound  int                         `json:"local_agents_found"`
	FederatedAgents   int                         `json:"federated_agents_found"`
	ResultsByRegistry map[string][]map[string]any `json:"results_by_registry"`
	FederationActive  bool                        `json:"federation_active"`
}

// TransactionRecord wraps the purchase order returned by the marketplace.
type TransactionRecord struct {
	Order registry.Order `json:"order"`
}

// Store reads and writes artifacts under one directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the absolute path of a named artifact.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether a named artifact is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Save writes v as an indented JSON artifact.
func (s *Store) Save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	if err := os.WriteFile(s.Path(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Load reads a named artifact into v.
func (s *Store) Load(name string, v any) error {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// Clean removes every well-known Golden Path artifact so a run starts from
// a clean slate.
func (s *Store) Clean() error {
	for _, name := range []string{
		EnvironmentFile, CredentialsFile, FundingFile,
		DiscoveryFile, ListingFile, TransactionFile,
	} {
		if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return nil
}

// LoadCredentialsFile loads agent credentials from an arbitrary path,
// outside the store. Used for the treasury and seller credential files.
func LoadCredentialsFile(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials %s: %w", path, err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials %s: %w", path, err)
	}
	if creds.AgentDID == "" {
		return nil, fmt.Errorf("credentials %s: missing agent_did", path)
	}
	return &creds, nil
}
