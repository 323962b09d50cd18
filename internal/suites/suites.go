// Package suites contains one endpoint suite per mounted router of the
// registry platform. The suites are ordered the way the master runner
// executes them; shared setup (developer signup, admin login, agent
// provisioning) lives here so each suite stays focused on its router.
package suites

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

// All returns every suite in run order.
func All() []harness.Suite {
	return []harness.Suite{
		&AuthSuite{},
		&AgentsSuite{},
		&AgentCardsSuite{},
		&OnboardingSuite{},
		&StakingSuite{},
		&GovernanceSuite{},
		&ContractsSuite{},
		&DevelopersSuite{},
		&DisputesSuite{},
		&FederationPeersSuite{},
		&FederationSyncSuite{},
		&FederationPublicSuite{},
		&FederationQuerySuite{},
		&AdminSuite{},
		&AdminFederationSuite{},
		&SystemSuite{},
		&UtilsSuite{},
		&TEGIntegrationSuite{},
		&ReputationSignalSuite{},
		&AgentBuilderSuite{},
	}
}

const testPassword = "CerberusTest!2025"

// uniqueEmail returns a throwaway developer email that will not collide
// across runs.
func uniqueEmail(prefix string) string {
	id := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s_%s@cerberus.test", prefix, id)
}

// uniqueName returns a run-unique resource name.
func uniqueName(prefix string) string {
	return prefix + "_" + strings.Split(uuid.NewString(), "-")[0]
}

// developer is a throwaway account created for one suite run.
type developer struct {
	Name     string
	Email    string
	Password string
	Token    string
}

// newDeveloper registers and logs in a fresh developer on registry A. Most
// suites need one; onboarding failures here abort the suite rather than
// count as endpoint failures.
func newDeveloper(ctx context.Context, env *harness.Env, prefix string) (*developer, error) {
	dev := &developer{
		Name:     uniqueName(prefix),
		Email:    uniqueEmail(prefix),
		Password: testPassword,
	}
	_, err := env.RegistryA.Register(ctx, registry.RegisterRequest{
		Name:     dev.Name,
		Email:    dev.Email,
		Password: dev.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("developer setup: %w", err)
	}
	tok, err := env.RegistryA.Login(ctx, dev.Email, dev.Password)
	if err != nil {
		return nil, fmt.Errorf("developer setup: %w", err)
	}
	dev.Token = tok.AccessToken
	return dev, nil
}

// adminLogin authenticates the configured admin account on registry A.
func adminLogin(ctx context.Context, env *harness.Env) (string, error) {
	tok, err := env.RegistryA.Login(ctx, env.Config.Admin.Email, env.Config.Admin.Password)
	if err != nil {
		return "", fmt.Errorf("admin login: %w", err)
	}
	return tok.AccessToken, nil
}

// provisionAgent runs the full onboarding flow (bootstrap token plus agent
// creation) and returns the newborn agent's identity.
func provisionAgent(ctx context.Context, env *harness.Env, hri, name string) (*registry.CreateAgentResponse, error) {
	token, err := env.RegistryA.RequestBootstrapToken(ctx, env.Config.Admin.APIKey, registry.BootstrapTokenRequest{
		AgentTypeHint: "test",
		RequestedBy:   "cerberus",
		Description:   "endpoint suite agent",
	})
	if err != nil {
		return nil, err
	}
	return env.RegistryA.CreateAgent(ctx, token, sampleCard(hri, name))
}

// sampleCard builds a minimal but schema-complete agent card.
func sampleCard(hri, name string) *registry.AgentCard {
	return &registry.AgentCard{
		SchemaVersion:   "1.0",
		HumanReadableID: hri,
		AgentVersion:    "1.0.0",
		Name:            name,
		Description:     "Cerberus endpoint suite agent",
		URL:             "https://cerberus.test/agents/" + name,
		Provider: registry.AgentCardProvider{
			Name:           "Operation Cerberus",
			URL:            "https://cerberus.test",
			SupportContact: "cerberus@cerberus.test",
		},
		Capabilities: registry.AgentCardCapabilities{
			A2AVersion:            "1.0",
			SupportedMessageParts: []string{"text"},
		},
		AuthSchemes: []registry.AgentCardAuthScheme{
			{Scheme: "apiKey", Description: "API key authentication"},
		},
		Tags: []string{"test", "cerberus"},
	}
}

// statusIn reports whether the response status is one of the accepted
// codes. Several endpoints legitimately answer differently depending on
// platform state (service down, account unverified), and the original
// acceptance criteria allow those alternatives.
func statusIn(resp *registry.Response, codes ...int) bool {
	for _, c := range codes {
		if resp.StatusCode == c {
			return true
		}
	}
	return false
}

// checkIn records a pass when the status is one of the accepted codes.
func checkIn(rec *harness.Recorder, resp *registry.Response, method, endpoint string, codes ...int) bool {
	ok := statusIn(resp, codes...)
	msg := ""
	if !ok {
		msg = fmt.Sprintf("status code: %d (want one of %v)", resp.StatusCode, codes)
		if detail := resp.Detail(); detail != "" {
			msg += " - " + detail
		}
	}
	return rec.Check(ok, method, endpoint, msg)
}
