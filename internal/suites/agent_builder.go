package suites

import (
	"bytes"
	"context"
	"net/http"

	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

// AgentBuilderSuite exercises the agent-builder router, which packages a
// generated agent as a ZIP archive.
type AgentBuilderSuite struct{}

func (s *AgentBuilderSuite) Router() string { return "agent_builder" }

// zipMagic is the PK local-file-header signature.
var zipMagic = []byte{0x50, 0x4b, 0x03, 0x04}

func (s *AgentBuilderSuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	reg := env.RegistryA
	path := registry.APIPrefix + "/agent-builder/generate"

	dev, err := newDeveloper(ctx, env, "builder")
	if err != nil {
		return err
	}
	bearer := registry.WithBearer(dev.Token)

	resp, err := reg.Post(ctx, path, bearer,
		registry.WithJSON(map[string]any{
			"agent_builder_type":       "simple_wrapper",
			"agent_name":               "Test Simple Wrapper Agent",
			"agent_description":        "A simple wrapper agent for endpoint verification",
			"human_readable_id":        "cerberus/" + uniqueName("simple-wrapper"),
			"wrapper_llm_backend_type": "openai_api",
			"wrapper_model_name":       "gpt-4",
			"wrapper_system_prompt":    "You are a helpful test agent.",
			"wrapper_auth_type":        "apiKey",
			"wrapper_service_id":       "test-service-id",
		}))
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusOK, "POST", "/agent-builder/generate (simple_wrapper)") {
		rec.Check(bytes.HasPrefix(resp.Body, zipMagic),
			"POST", "/agent-builder/generate (zip body)", "response is not a ZIP archive")
	}

	resp, err = reg.Post(ctx, path, bearer,
		registry.WithJSON(map[string]any{
			"agent_builder_type": "adk_agent",
			"agent_name":         "Test ADK Agent",
			"agent_description":  "An ADK agent for endpoint verification",
			"human_readable_id":  "cerberus/" + uniqueName("adk-agent"),
			"adk_model_name":     "claude-3-5-sonnet-20241022",
			"adk_instruction":    "You are a helpful ADK test agent.",
		}))
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusOK, "POST", "/agent-builder/generate (adk_agent)") {
		rec.Check(bytes.HasPrefix(resp.Body, zipMagic),
			"POST", "/agent-builder/generate (adk zip body)", "response is not a ZIP archive")
	}

	// Unknown builder types are a validation error.
	resp, err = reg.Post(ctx, path, bearer,
		registry.WithJSON(map[string]any{
			"agent_builder_type": "invalid_type",
			"agent_name":         "Test Invalid Agent",
			"agent_description":  "Testing invalid agent type",
			"human_readable_id":  "cerberus/" + uniqueName("invalid"),
		}))
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusUnprocessableEntity, "POST", "/agent-builder/generate (invalid type)")

	resp, err = reg.Post(ctx, path,
		registry.WithJSON(map[string]any{
			"agent_builder_type": "simple_wrapper",
			"agent_name":         "Test Agent",
			"agent_description":  "Testing without auth",
			"human_readable_id":  "cerberus/" + uniqueName("noauth"),
		}))
	if err != nil {
		return err
	}
	checkIn(rec, resp, "POST", "/agent-builder/generate (no auth)",
		http.StatusUnauthorized, http.StatusForbidden)

	return nil
}
