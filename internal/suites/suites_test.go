package suites

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cerberus/internal/config"
	"cerberus/internal/harness"
	"cerberus/internal/registrytest"
)

// newTestEnv points every service at one fake platform instance.
func newTestEnv(t *testing.T) (*harness.Env, *registrytest.Server) {
	t.Helper()
	srv := registrytest.New()
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.Services.RegistryA.URL = srv.URL
	cfg.Services.RegistryB.URL = srv.URL
	cfg.Services.TEG.URL = srv.URL
	cfg.Services.Marketplace.URL = srv.URL
	cfg.Services.DataProcessor.URL = srv.URL
	cfg.Admin.Email = registrytest.AdminEmail
	cfg.Admin.Password = registrytest.AdminPassword
	cfg.Admin.APIKey = registrytest.AdminAPIKey

	env := harness.NewEnv(cfg, nil)
	env.Out = &bytes.Buffer{}
	return env, srv
}

// runSuite executes one suite and returns its recorder.
func runSuite(t *testing.T, env *harness.Env, suite harness.Suite) *harness.Recorder {
	t.Helper()
	rec := harness.NewRecorder(suite.Router(), env.Out, nil)
	require.NoError(t, suite.Run(context.Background(), env, rec))
	return rec
}

func requireAllPassed(t *testing.T, rec *harness.Recorder) {
	t.Helper()
	for _, res := range rec.Results() {
		if !res.Passed {
			t.Errorf("check failed: %s - %s", res.Endpoint, res.Message)
		}
	}
	assert.Positive(t, rec.Total())
}

func TestAuthSuite(t *testing.T) {
	env, _ := newTestEnv(t)
	rec := runSuite(t, env, &AuthSuite{})
	requireAllPassed(t, rec)
}

func TestAuthSuite_RegistryDown(t *testing.T) {
	env, srv := newTestEnv(t)
	srv.Close()

	rec := harness.NewRecorder("auth", env.Out, nil)
	err := (&AuthSuite{}).Run(context.Background(), env, rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
	assert.Zero(t, rec.Total())
}

func TestAgentsSuite(t *testing.T) {
	env, _ := newTestEnv(t)
	rec := runSuite(t, env, &AgentsSuite{})
	requireAllPassed(t, rec)
}

func TestOnboardingSuite(t *testing.T) {
	env, _ := newTestEnv(t)
	rec := runSuite(t, env, &OnboardingSuite{})
	requireAllPassed(t, rec)
}

func TestUtilsSuite(t *testing.T) {
	env, _ := newTestEnv(t)
	rec := runSuite(t, env, &UtilsSuite{})
	requireAllPassed(t, rec)
}

func TestStakingSuite(t *testing.T) {
	env, _ := newTestEnv(t)
	rec := runSuite(t, env, &StakingSuite{})
	requireAllPassed(t, rec)
}

func TestGovernanceSuite(t *testing.T) {
	env, _ := newTestEnv(t)
	rec := runSuite(t, env, &GovernanceSuite{})
	requireAllPassed(t, rec)
}

func TestDisputesSuite(t *testing.T) {
	env, _ := newTestEnv(t)
	rec := runSuite(t, env, &DisputesSuite{})
	requireAllPassed(t, rec)
}

func TestContractsSuite(t *testing.T) {
	env, _ := newTestEnv(t)
	rec := runSuite(t, env, &ContractsSuite{})
	requireAllPassed(t, rec)
}

func TestDevelopersSuite(t *testing.T) {
	env, _ := newTestEnv(t)
	rec := runSuite(t, env, &DevelopersSuite{})
	requireAllPassed(t, rec)
}

func TestAdminSuite(t *testing.T) {
	env, _ := newTestEnv(t)
	rec := runSuite(t, env, &AdminSuite{})
	requireAllPassed(t, rec)
}

func TestAdminFederationSuite(t *testing.T) {
	env, _ := newTestEnv(t)
	rec := runSuite(t, env, &AdminFederationSuite{})
	requireAllPassed(t, rec)
}

func TestSystemSuite(t *testing.T) {
	env, _ := newTestEnv(t)
	rec := runSuite(t, env, &SystemSuite{})
	requireAllPassed(t, rec)
}

func TestAll_OrderAndUniqueness(t *testing.T) {
	all := All()
	require.Len(t, all, 20)
	assert.Equal(t, "auth", all[0].Router())

	seen := make(map[string]bool)
	for _, suite := range all {
		name := suite.Router()
		assert.False(t, seen[name], "duplicate router %s", name)
		seen[name] = true
	}
}

func TestUniqueHelpers(t *testing.T) {
	assert.NotEqual(t, uniqueEmail("x"), uniqueEmail("x"))
	assert.NotEqual(t, uniqueName("x"), uniqueName("x"))
	assert.Contains(t, uniqueEmail("auth"), "@cerberus.test")
}

func TestSampleCard_RequiredFields(t *testing.T) {
	card := sampleCard("test/agent", "agent")
	assert.Equal(t, "1.0", card.SchemaVersion)
	assert.Equal(t, "test/agent", card.HumanReadableID)
	assert.NotEmpty(t, card.Name)
	assert.NotEmpty(t, card.Description)
	assert.NotEmpty(t, card.URL)
	assert.NotEmpty(t, card.AgentVersion)
}
