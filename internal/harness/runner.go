package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Runner executes registered suites in order and aggregates their results.
type Runner struct {
	env       *Env
	suites    []Suite
	reportDir string
}

// NewRunner creates a runner over the given suites.
func NewRunner(env *Env, reportDir string, suites []Suite) *Runner {
	return &Runner{env: env, suites: suites, reportDir: reportDir}
}

// Routers returns the router names of every registered suite in run order.
func (r *Runner) Routers() []string {
	names := make([]string, len(r.suites))
	for i, s := range r.suites {
		names[i] = s.Router()
	}
	return names
}

// Run executes the selected suites (all when routers is empty) and writes
// per-suite and master reports. Run itself only errors on report IO; failed
// checks are reflected in the returned report.
func (r *Runner) Run(ctx context.Context, routers []string) (*MasterReport, error) {
	selected := r.selectSuites(routers)
	if len(selected) == 0 {
		return nil, fmt.Errorf("no suites match %v (known: %s)", routers, strings.Join(r.Routers(), ", "))
	}

	report := &MasterReport{
		Timestamp:     time.Now(),
		TotalRouters:  len(r.suites),
		RouterResults: make(map[string]RouterOutcome),
	}

	r.printHeader(len(selected))

	for _, suite := range selected {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		outcome := r.runSuite(ctx, suite)
		report.RouterResults[suite.Router()] = outcome
		report.RoutersTested++
		if outcome.Status == "PASSED" {
			report.RoutersPassed++
		}
		report.TotalEndpoints += outcome.Total
		report.EndpointsPassed += outcome.Passed
	}

	r.printSummary(report)

	path, err := WriteMasterReport(r.reportDir, report)
	if err != nil {
		return report, err
	}
	fmt.Fprintf(r.env.Out, "\nFull report saved to: %s\n", path)
	return report, nil
}

func (r *Runner) runSuite(ctx context.Context, suite Suite) RouterOutcome {
	out := r.env.Out
	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render(strings.Repeat("=", 60)))
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("  Running tests for: %s", suite.Router())))
	fmt.Fprintln(out, headerStyle.Render(strings.Repeat("=", 60)))

	rec := NewRecorder(suite.Router(), out, r.env.Logger)
	runErr := suite.Run(ctx, r.env, rec)

	suiteReport := rec.Report()
	if _, err := WriteSuiteReport(r.reportDir, suiteReport); err != nil {
		r.env.Logger.Warn("failed to write suite report",
			zap.String("router", suite.Router()), zap.Error(err))
	}

	outcome := RouterOutcome{
		Total:   suiteReport.Total,
		Passed:  suiteReport.Passed,
		Failed:  suiteReport.Failed,
		Results: suiteReport.Results,
	}
	switch {
	case runErr != nil:
		outcome.Status = "ERROR"
		outcome.Error = runErr.Error()
		fmt.Fprintln(out, failStyle.Render("[ERROR]")+" "+runErr.Error())
	case suiteReport.Failed == 0 && suiteReport.Total > 0:
		outcome.Status = "PASSED"
	default:
		outcome.Status = "FAILED"
	}

	fmt.Fprintf(out, "\nTests: %d/%d passed\n", suiteReport.Passed, suiteReport.Total)
	return outcome
}

func (r *Runner) selectSuites(routers []string) []Suite {
	if len(routers) == 0 {
		return r.suites
	}
	want := make(map[string]bool, len(routers))
	for _, name := range routers {
		want[strings.ToLower(name)] = true
	}
	var out []Suite
	for _, s := range r.suites {
		if want[s.Router()] {
			out = append(out, s)
		}
	}
	return out
}

func (r *Runner) printHeader(selected int) {
	out := r.env.Out
	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render(strings.Repeat("=", 80)))
	fmt.Fprintln(out, headerStyle.Render("  OPERATION CERBERUS - MASTER TEST RUNNER"))
	fmt.Fprintln(out, headerStyle.Render(strings.Repeat("=", 80)))
	fmt.Fprintf(out, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(out, "Test suites selected: %d/%d\n", selected, len(r.suites))
}

func (r *Runner) printSummary(report *MasterReport) {
	out := r.env.Out
	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render(strings.Repeat("=", 80)))
	fmt.Fprintln(out, headerStyle.Render("  OPERATION CERBERUS - FINAL REPORT"))
	fmt.Fprintln(out, headerStyle.Render(strings.Repeat("=", 80)))

	fmt.Fprintf(out, "\nRouters tested: %d\n", report.RoutersTested)
	fmt.Fprintf(out, "Routers fully passing: %d\n", report.RoutersPassed)
	fmt.Fprintf(out, "Endpoints tested: %d\n", report.TotalEndpoints)
	fmt.Fprintf(out, "Endpoints passing: %d\n", report.EndpointsPassed)
	if report.TotalEndpoints > 0 {
		rate := float64(report.EndpointsPassed) / float64(report.TotalEndpoints) * 100
		fmt.Fprintf(out, "Overall pass rate: %.1f%%\n", rate)
	}

	for _, router := range sortedRouters(report.RouterResults) {
		outcome := report.RouterResults[router]
		icon := passStyle.Render("[PASS]")
		if outcome.Status != "PASSED" {
			icon = failStyle.Render("[FAIL]")
		}
		fmt.Fprintf(out, "\n%s %s (%d/%d)\n", icon, router, outcome.Passed, outcome.Total)
		if outcome.Error != "" {
			fmt.Fprintln(out, warnStyle.Render("   "+outcome.Error))
			continue
		}
		for _, res := range outcome.Results {
			if !res.Passed {
				fmt.Fprintf(out, "     - %s: %s\n", res.Endpoint, res.Message)
			}
		}
	}

	fmt.Fprintln(out)
	if report.AllPassed() {
		fmt.Fprintln(out, passStyle.Render("[SUCCESS] All tested routers passed!"))
	} else {
		failed := report.RoutersTested - report.RoutersPassed
		fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("[WARNING] %d router(s) have failing tests", failed)))
	}
}

func sortedRouters(m map[string]RouterOutcome) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
