// Package harness is the endpoint-suite framework: check recording, styled
// console output, per-suite JSON result files, and the master runner that
// aggregates every suite into a single report.
package harness

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"cerberus/internal/config"
	"cerberus/internal/registry"
)

// Result is one endpoint check outcome. The shape matches the result files
// downstream tooling already parses.
type Result struct {
	Endpoint string `json:"endpoint"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message"`
}

// Suite exercises one mounted router of the registry API.
type Suite interface {
	// Router names the router under test, e.g. "auth" or "federation_peers".
	Router() string

	// Run executes every check, recording outcomes on rec. A non-nil error
	// means the suite could not run at all (service unreachable, setup
	// failure); individual check failures are not errors.
	Run(ctx context.Context, env *Env, rec *Recorder) error
}

// Env carries everything a suite needs: configuration, one client per
// service, and shared logging.
type Env struct {
	Config      *config.Config
	RegistryA   *registry.Client
	RegistryB   *registry.Client
	TEG         *registry.Client
	Marketplace *registry.Client
	Logger      *zap.Logger
	Out         io.Writer
}

// NewEnv builds an Env from configuration.
func NewEnv(cfg *config.Config, logger *zap.Logger) *Env {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.GetHTTPTimeout()
	return &Env{
		Config:      cfg,
		RegistryA:   registry.NewClient(cfg.Services.RegistryA.URL, timeout, logger.Named("registry_a")),
		RegistryB:   registry.NewClient(cfg.Services.RegistryB.URL, timeout, logger.Named("registry_b")),
		TEG:         registry.NewClient(cfg.Services.TEG.URL, timeout, logger.Named("teg")),
		Marketplace: registry.NewClient(cfg.Services.Marketplace.URL, timeout, logger.Named("marketplace")),
		Logger:      logger,
		Out:         os.Stdout,
	}
}

// Recorder accumulates check results for one suite and prints one styled
// line per check as it lands.
type Recorder struct {
	router  string
	results []Result
	out     io.Writer
	logger  *zap.Logger
}

// NewRecorder creates a recorder for one router's suite.
func NewRecorder(router string, out io.Writer, logger *zap.Logger) *Recorder {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{router: router, out: out, logger: logger}
}

// Pass records a passing check.
func (r *Recorder) Pass(method, endpoint string) {
	r.record(true, method, endpoint, "")
}

// Fail records a failing check with a reason.
func (r *Recorder) Fail(method, endpoint, message string) {
	r.record(false, method, endpoint, message)
}

// Check records pass or fail from a condition and returns it, so callers
// can gate dependent checks.
func (r *Recorder) Check(ok bool, method, endpoint, failMessage string) bool {
	if ok {
		r.Pass(method, endpoint)
	} else {
		r.Fail(method, endpoint, failMessage)
	}
	return ok
}

// CheckStatus asserts an expected HTTP status on a response.
func (r *Recorder) CheckStatus(resp *registry.Response, want int, method, endpoint string) bool {
	if resp.StatusCode == want {
		r.Pass(method, endpoint)
		return true
	}
	msg := fmt.Sprintf("status code: %d (want %d)", resp.StatusCode, want)
	if detail := resp.Detail(); detail != "" {
		msg += " - " + detail
	}
	r.Fail(method, endpoint, msg)
	return false
}

// Infof prints an informational line that is not a check.
func (r *Recorder) Infof(format string, args ...any) {
	fmt.Fprintln(r.out, infoStyle.Render("[INFO] "+fmt.Sprintf(format, args...)))
}

func (r *Recorder) record(passed bool, method, endpoint, message string) {
	label := method + " " + endpoint
	r.results = append(r.results, Result{Endpoint: label, Passed: passed, Message: message})

	if passed {
		fmt.Fprintln(r.out, passStyle.Render("[PASS]")+" "+label)
	} else {
		line := failStyle.Render("[FAIL]") + " " + label
		if message != "" {
			line += " - " + message
		}
		fmt.Fprintln(r.out, line)
	}
	r.logger.Debug("check recorded",
		zap.String("router", r.router),
		zap.String("endpoint", label),
		zap.Bool("passed", passed),
		zap.String("message", message))
}

// Results returns every recorded result in order.
func (r *Recorder) Results() []Result {
	return r.results
}

// Total returns the number of recorded checks.
func (r *Recorder) Total() int { return len(r.results) }

// Passed returns the number of passing checks.
func (r *Recorder) Passed() int {
	n := 0
	for _, res := range r.results {
		if res.Passed {
			n++
		}
	}
	return n
}

// Failed returns the number of failing checks.
func (r *Recorder) Failed() int { return r.Total() - r.Passed() }

// Report snapshots the recorder into a suite report.
func (r *Recorder) Report() SuiteReport {
	return SuiteReport{
		Timestamp: time.Now(),
		Router:    r.router,
		Total:     r.Total(),
		Passed:    r.Passed(),
		Failed:    r.Failed(),
		Results:   r.results,
	}
}
