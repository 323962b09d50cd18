package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoadExists(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	assert.False(t, store.Exists(CredentialsFile))

	creds := Credentials{
		AgentName: "First Citizen",
		AgentDID:  "did:cos:abc",
		ClientID:  "client_1",
		APIKey:    "avreg_key",
	}
	require.NoError(t, store.Save(CredentialsFile, creds))
	assert.True(t, store.Exists(CredentialsFile))

	var loaded Credentials
	require.NoError(t, store.Load(CredentialsFile, &loaded))
	assert.Equal(t, creds, loaded)
}

func TestStore_LoadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	var creds Credentials
	assert.Error(t, store.Load(CredentialsFile, &creds))
}

func TestStore_Clean(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(EnvironmentFile, EnvironmentStatus{EnvironmentReady: true}))
	require.NoError(t, store.Save(FundingFile, FundingRecord{TxID: "tx_1"}))

	// A stray non-artifact file must survive the clean.
	stray := filepath.Join(store.Dir(), "notes.txt")
	require.NoError(t, os.WriteFile(stray, []byte("keep me"), 0644))

	require.NoError(t, store.Clean())
	assert.False(t, store.Exists(EnvironmentFile))
	assert.False(t, store.Exists(FundingFile))
	_, err = os.Stat(stray)
	assert.NoError(t, err)

	// Cleaning an already-clean store is a no-op.
	assert.NoError(t, store.Clean())
}

func TestStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "artifacts")
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(ListingFile, map[string]string{"id": "lst_1"}))
	assert.True(t, store.Exists(ListingFile))
}

func TestLoadCredentialsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "treasury.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"agent_name": "Treasury",
		"agent_did": "did:cos:treasury",
		"client_id": "client_t",
		"client_secret": "secret_t",
		"api_key": "avreg_treasury"
	}`), 0644))

	creds, err := LoadCredentialsFile(path)
	require.NoError(t, err)
	assert.Equal(t, "did:cos:treasury", creds.AgentDID)
	assert.Equal(t, "avreg_treasury", creds.APIKey)
}

func TestLoadCredentialsFile_MissingDID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"agent_name":"nobody"}`), 0644))

	_, err := LoadCredentialsFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent_did")
}
