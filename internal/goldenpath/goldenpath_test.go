package goldenpath

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cerberus/internal/artifacts"
	"cerberus/internal/config"
	"cerberus/internal/registrytest"
)

// newTestOrchestrator wires an orchestrator to one fake platform with
// pre-provisioned treasury and seller credentials on disk.
func newTestOrchestrator(t *testing.T) (*Orchestrator, *artifacts.Store, *registrytest.Server, *bytes.Buffer) {
	t.Helper()
	srv := registrytest.New()
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	writeAgentCreds := func(name, filename string) string {
		did, clientID, secret, apiKey := srv.SeedAgent(name)
		path := filepath.Join(dir, filename)
		data, err := json.Marshal(artifacts.Credentials{
			AgentName:    name,
			AgentDID:     did,
			ClientID:     clientID,
			ClientSecret: secret,
			APIKey:       apiKey,
		})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data, 0644))
		return path
	}

	cfg := config.DefaultConfig()
	cfg.Services.RegistryA.URL = srv.URL
	cfg.Services.RegistryB.URL = srv.URL
	cfg.Services.TEG.URL = srv.URL
	cfg.Services.Marketplace.URL = srv.URL
	cfg.Services.DataProcessor.URL = srv.URL
	cfg.Admin.Email = registrytest.AdminEmail
	cfg.Admin.Password = registrytest.AdminPassword
	cfg.Admin.APIKey = registrytest.AdminAPIKey
	cfg.Credentials.TreasuryFile = writeAgentCreds("Treasury", "treasury.json")
	cfg.Credentials.SellerFile = writeAgentCreds("Data Processor", "data_processor.json")

	store, err := artifacts.NewStore(filepath.Join(dir, "artifacts"))
	require.NoError(t, err)

	orch := New(cfg, store, nil)
	orch.PhasePause = 0
	orch.SettleDelay = 0
	var buf bytes.Buffer
	orch.SetOutput(&buf)
	return orch, store, srv, &buf
}

func TestOrchestrator_FullRun(t *testing.T) {
	orch, store, _, buf := newTestOrchestrator(t)

	results, err := orch.Run(context.Background())
	require.NoError(t, err, "output:\n%s", buf.String())
	require.Len(t, results, len(Phases()))
	for _, res := range results {
		assert.True(t, res.Success, "phase %q: %s", res.Title, res.Info)
	}

	for _, name := range []string{
		artifacts.EnvironmentFile, artifacts.CredentialsFile,
		artifacts.FundingFile, artifacts.DiscoveryFile,
		artifacts.ListingFile, artifacts.TransactionFile,
	} {
		assert.True(t, store.Exists(name), "missing artifact %s", name)
	}

	// The administrative key grant replaces the onboarding key.
	var creds artifacts.Credentials
	require.NoError(t, store.Load(artifacts.CredentialsFile, &creds))
	assert.Equal(t, FirstCitizenAPIKey, creds.APIKey)
	assert.Equal(t, FirstCitizenName, creds.AgentName)
	assert.NotEmpty(t, creds.AgentDID)

	var funding artifacts.FundingRecord
	require.NoError(t, store.Load(artifacts.FundingFile, &funding))
	assert.Equal(t, GenesisGrantAmount, funding.Amount)
	assert.NotEmpty(t, funding.TxID)

	assert.Contains(t, buf.String(), "[SUCCESS] THE GOLDEN PATH IS COMPLETE!")
}

func TestOrchestrator_StopsWhenCriticalServiceDown(t *testing.T) {
	orch, store, srv, buf := newTestOrchestrator(t)
	srv.Close()

	_, err := orch.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENVIRONMENT VERIFICATION")
	assert.False(t, store.Exists(artifacts.CredentialsFile))
	assert.Contains(t, buf.String(), "[FAIL] The Golden Path did not complete.")
}

func TestOrchestrator_SettlementFailureIsFatal(t *testing.T) {
	orch, _, srv, _ := newTestOrchestrator(t)
	srv.SettleOrders = false

	_, err := orch.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRANSACTION SETTLEMENT")
}

func TestOrchestrator_ContextCancelled(t *testing.T) {
	orch, _, _, _ := newTestOrchestrator(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := orch.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTotalWithFee(t *testing.T) {
	cases := []struct {
		price string
		want  string
	}{
		{"50.0", "51.25"},
		{"100", "102.5"},
		{"1", "1.025"},
		{"0", "0.0"},
	}
	for _, tc := range cases {
		got, err := totalWithFee(tc.price)
		require.NoError(t, err, "price %s", tc.price)
		assert.Equal(t, tc.want, got, "price %s", tc.price)
	}

	_, err := totalWithFee("not-a-number")
	assert.Error(t, err)
}

func TestSplitByOrigin(t *testing.T) {
	items := []map[string]any{
		{"agentDid": "did:cos:me", "name": "self"},
		{"agentDid": "did:cos:a", "name": "local-a"},
		{"agentDid": "did:cos:b", "name": "local-b", "origin_registry_name": "Local"},
		{"agentDid": "did:cos:c", "name": "remote-c", "origin_registry_name": "Registry-B"},
	}

	local, federated := splitByOrigin(items, "did:cos:me")
	assert.Len(t, local, 2)
	require.Contains(t, federated, "Registry-B")
	assert.Len(t, federated["Registry-B"], 1)
}

func TestPhases_ArtifactGates(t *testing.T) {
	phases := Phases()
	require.Len(t, phases, 6)
	assert.Equal(t, artifacts.EnvironmentFile, phases[0].Artifact)
	assert.Equal(t, artifacts.CredentialsFile, phases[1].Artifact)
	assert.Equal(t, artifacts.TransactionFile, phases[4].Artifact)
	assert.Empty(t, phases[5].Artifact)
}
