package suites

import (
	"context"
	"net/http"
	"strings"

	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

// UtilsSuite exercises the utils router's agent-card validator. Builds
// without the card schema library report "Validation skipped", which
// still counts as a wired endpoint.
type UtilsSuite struct{}

func (s *UtilsSuite) Router() string { return "utils" }

func (s *UtilsSuite) Run(ctx context.Context, env *harness.Env, rec *harness.Recorder) error {
	reg := env.RegistryA
	path := registry.APIPrefix + "/utils/validate-card"

	validCard := sampleCard("test/"+uniqueName("validate"), uniqueName("validator_agent"))
	resp, err := reg.Post(ctx, path, registry.WithJSON(map[string]any{"card_data": validCard}))
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusOK, "POST", "/utils/validate-card (valid)") {
		isValid, _ := resp.Field("is_valid")
		_, hasValidated := resp.Field("validated_card_data")
		rec.Check(isValid == true && hasValidated,
			"POST", "/utils/validate-card (valid body)",
			"want is_valid=true with validated_card_data")
	}

	invalid := map[string]any{"schemaVersion": "1.0", "name": "Invalid Agent"}
	resp, err = reg.Post(ctx, path, registry.WithJSON(map[string]any{"card_data": invalid}))
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusOK, "POST", "/utils/validate-card (invalid)") {
		rec.Check(rejectedOrSkipped(resp),
			"POST", "/utils/validate-card (invalid body)", "invalid card not rejected")
	}

	resp, err = reg.Post(ctx, path, registry.WithJSON(map[string]any{"card_data": map[string]any{}}))
	if err != nil {
		return err
	}
	if rec.CheckStatus(resp, http.StatusOK, "POST", "/utils/validate-card (empty)") {
		rec.Check(rejectedOrSkipped(resp),
			"POST", "/utils/validate-card (empty body)", "empty card not rejected")
	}

	// Missing card_data is a schema violation, not a validation result.
	resp, err = reg.Post(ctx, path, registry.WithJSON(map[string]any{}))
	if err != nil {
		return err
	}
	rec.CheckStatus(resp, http.StatusUnprocessableEntity, "POST", "/utils/validate-card (no data)")

	return nil
}

func rejectedOrSkipped(resp *registry.Response) bool {
	if isValid, _ := resp.Field("is_valid"); isValid == false {
		return true
	}
	return strings.HasPrefix(resp.Detail(), "Validation skipped")
}
