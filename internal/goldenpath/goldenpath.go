// Package goldenpath runs the end-to-end showcase: the birth, funding,
// discovery, and first economic transaction of a sovereign agent (the
// "First Citizen"). Each phase persists its output as a JSON artifact
// and the orchestrator gates phase transitions on those artifacts.
package goldenpath

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"cerberus/internal/artifacts"
	"cerberus/internal/config"
	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

const (
	// GenesisGrantAmount is the treasury grant that bootstraps the First
	// Citizen's economic life.
	GenesisGrantAmount = "1000.0"

	// MarketplaceDID is the marketplace's settlement identity on the TEG
	// layer; escrow pre-transfers are addressed to it.
	MarketplaceDID = "did:cos:fbf7393c-f3c1-ee05-7eb7"

	// FirstCitizenAPIKey is the administratively granted key applied when
	// onboarding does not return one (known server-side gap).
	FirstCitizenAPIKey = "avreg_FCitizen_ManualFix_SovereignAndReady"

	// FirstCitizenName and FirstCitizenID identify the showcase agent.
	FirstCitizenName = "First Citizen"
	FirstCitizenID   = "first-citizen-001"
)

// Phase is one step of the Golden Path.
type Phase struct {
	Title string
	Label string // short name in the path-flow visual
	Run   func(ctx context.Context, o *Orchestrator) (string, error)

	// Artifact, when set, must exist after Run for the checkpoint to pass.
	Artifact string
}

// PhaseResult records one phase's outcome for the final summary.
type PhaseResult struct {
	Title   string
	Success bool
	Info    string
}

// Orchestrator drives the Golden Path phases in order.
type Orchestrator struct {
	cfg    *config.Config
	store  *artifacts.Store
	logger *zap.Logger
	out    io.Writer

	registryA   *registry.Client
	teg         *registry.Client
	marketplace *registry.Client

	// pause between phases and settlement wait; shortened in tests.
	PhasePause  time.Duration
	SettleDelay time.Duration
}

// New builds an orchestrator from configuration.
func New(cfg *config.Config, store *artifacts.Store, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.GetHTTPTimeout()
	return &Orchestrator{
		cfg:         cfg,
		store:       store,
		logger:      logger,
		out:         os.Stdout,
		registryA:   registry.NewClient(cfg.Services.RegistryA.URL, timeout, logger.Named("registry_a")),
		teg:         registry.NewClient(cfg.Services.TEG.URL, timeout, logger.Named("teg")),
		marketplace: registry.NewClient(cfg.Services.Marketplace.URL, timeout, logger.Named("marketplace")),
		PhasePause:  5 * time.Second,
		SettleDelay: 5 * time.Second,
	}
}

// SetOutput redirects console output, used by tests.
func (o *Orchestrator) SetOutput(w io.Writer) { o.out = w }

// Phases returns the Golden Path steps in order.
func Phases() []Phase {
	return []Phase{
		{Title: "ENVIRONMENT VERIFICATION", Label: "SETUP", Run: runSetup, Artifact: artifacts.EnvironmentFile},
		{Title: "BIRTH OF A SOVEREIGN AGENT", Label: "BIRTH", Run: runBirth, Artifact: artifacts.CredentialsFile},
		{Title: "ADMINISTRATIVE PROVISIONING", Label: "PROVISION", Run: runProvision, Artifact: artifacts.FundingFile},
		{Title: "DISCOVERY & MARKET ENGAGEMENT", Label: "DISCOVERY", Run: runDiscoveryAndListing, Artifact: artifacts.ListingFile},
		{Title: "ECONOMIC TRANSACTION", Label: "PURCHASE", Run: runPurchase, Artifact: artifacts.TransactionFile},
		{Title: "TRANSACTION SETTLEMENT", Label: "SETTLE", Run: runSettlement},
	}
}

// Run executes every phase. It stops at the first failed phase or
// checkpoint and returns an error describing it; a nil return means the
// whole path completed and settled.
func (o *Orchestrator) Run(ctx context.Context) ([]PhaseResult, error) {
	o.printBanner()

	fmt.Fprintln(o.out, harness.WarnStyle().Render("Preparing for a clean run by removing old artifacts..."))
	if err := o.store.Clean(); err != nil {
		return nil, err
	}
	fmt.Fprintln(o.out, harness.PassStyle().Render("Environment cleaned."))

	phases := Phases()
	var results []PhaseResult

	for i, phase := range phases {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		o.printPhaseHeader(i, phases)

		info, err := phase.Run(ctx, o)
		if err != nil {
			results = append(results, PhaseResult{Title: phase.Title, Info: err.Error()})
			o.printSummary(results)
			return results, fmt.Errorf("phase %d (%s): %w", i+1, phase.Title, err)
		}

		if phase.Artifact != "" {
			fmt.Fprintln(o.out, harness.WarnStyle().Render(
				fmt.Sprintf("  CHECKPOINT: verifying %s was created...", phase.Artifact)))
			if !o.store.Exists(phase.Artifact) {
				results = append(results, PhaseResult{Title: phase.Title, Info: "checkpoint failed: missing " + phase.Artifact})
				o.printSummary(results)
				return results, fmt.Errorf("phase %d (%s): checkpoint failed, missing %s", i+1, phase.Title, phase.Artifact)
			}
			fmt.Fprintln(o.out, harness.PassStyle().Render("  CHECKPOINT PASSED."))
		}

		results = append(results, PhaseResult{Title: phase.Title, Success: true, Info: info})

		if i < len(phases)-1 && o.PhasePause > 0 {
			fmt.Fprintln(o.out, harness.PassStyle().Render(
				fmt.Sprintf("Phase %d complete. Pausing before the next phase...", i+1)))
			select {
			case <-time.After(o.PhasePause):
			case <-ctx.Done():
				return results, ctx.Err()
			}
		}
	}

	o.printSummary(results)
	return results, nil
}

func (o *Orchestrator) printBanner() {
	line := strings.Repeat("=", 80)
	fmt.Fprintln(o.out, harness.HeaderStyle().Render(line))
	fmt.Fprintln(o.out, harness.HeaderStyle().Render("      OPERATION: THE GOLDEN PATH - A SOVEREIGN AGENT'S JOURNEY"))
	fmt.Fprintln(o.out, harness.HeaderStyle().Render(line))
	fmt.Fprintln(o.out, "\nThis run forges the Golden Path, demonstrating the full")
	fmt.Fprintln(o.out, "end-to-end lifecycle of an agent in the Sovereign Stack.")
}

func (o *Orchestrator) printPhaseHeader(idx int, phases []Phase) {
	line := strings.Repeat("=", 80)
	fmt.Fprintln(o.out)
	fmt.Fprintln(o.out, harness.InfoStyle().Render(line))
	fmt.Fprintln(o.out, harness.InfoStyle().Render(
		fmt.Sprintf("  PHASE %d: %s", idx+1, phases[idx].Title)))
	fmt.Fprintln(o.out, harness.InfoStyle().Render(line))
	fmt.Fprintln(o.out, "\n  Path: "+pathFlow(idx, phases))
	fmt.Fprintln(o.out, harness.InfoStyle().Render(line))
}

// pathFlow renders the [✓] SETUP --> [▶] BIRTH --> [ ] PROVISION visual.
func pathFlow(current int, phases []Phase) string {
	done := harness.PassStyle()
	active := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)

	parts := make([]string, len(phases))
	for i, p := range phases {
		switch {
		case i < current:
			parts[i] = done.Render("[✓] " + p.Label)
		case i == current:
			parts[i] = active.Render("[▶] " + p.Label)
		default:
			parts[i] = "[ ] " + p.Label
		}
	}
	return strings.Join(parts, " --> ")
}

func (o *Orchestrator) printSummary(results []PhaseResult) {
	line := strings.Repeat("=", 80)
	fmt.Fprintln(o.out)
	fmt.Fprintln(o.out, harness.PassStyle().Render(line))
	fmt.Fprintln(o.out, harness.PassStyle().Render("                  GOLDEN PATH EXECUTION SUMMARY"))
	fmt.Fprintln(o.out, harness.PassStyle().Render(line))

	allPassed := true
	for i, res := range results {
		icon := harness.PassStyle().Render("[✓]")
		if !res.Success {
			icon = harness.FailStyle().Render("[✗]")
			allPassed = false
		}
		fmt.Fprintf(o.out, "\n%s PHASE %d: %s\n", icon, i+1, res.Title)
		fmt.Fprintf(o.out, "   Result: %s\n", res.Info)
	}

	fmt.Fprintln(o.out)
	if allPassed && len(results) == len(Phases()) {
		fmt.Fprintln(o.out, harness.PassStyle().Render("[SUCCESS] THE GOLDEN PATH IS COMPLETE!"))
		fmt.Fprintln(o.out, "Every phase of an agent's lifecycle has been successfully demonstrated.")
	} else {
		fmt.Fprintln(o.out, harness.FailStyle().Render("[FAIL] The Golden Path did not complete."))
	}
}
