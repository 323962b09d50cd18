// Package registry is a typed HTTP client for the sovereign agent platform:
// the registry API (auth, onboarding, agent cards, staking, governance,
// disputes, contracts, federation, admin), the TEG token-economy layer, and
// the marketplace agent.
//
// The client is deliberately thin. Every call is a single request with a
// context and a timeout; there is no retry layer. Redirects are never
// followed, because several endpoints (email verification) are asserted on
// their redirect status directly.
//
// Two surfaces are exposed:
//
//   - Do and the Request options, returning a Response that carries the raw
//     status and body for endpoint suites to assert on.
//   - Typed operations (Login, CreateAgent, Transfer, Purchase, ...) for the
//     Golden Path, which fail on unexpected statuses.
package registry
