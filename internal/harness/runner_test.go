package harness

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cerberus/internal/config"
)

// stubSuite is a canned suite for runner tests.
type stubSuite struct {
	router string
	pass   int
	fail   int
	err    error
}

func (s *stubSuite) Router() string { return s.router }

func (s *stubSuite) Run(ctx context.Context, env *Env, rec *Recorder) error {
	if s.err != nil {
		return s.err
	}
	for i := 0; i < s.pass; i++ {
		rec.Pass("GET", "/stub")
	}
	for i := 0; i < s.fail; i++ {
		rec.Fail("GET", "/stub", "stubbed failure")
	}
	return nil
}

func newTestRunner(t *testing.T, suites []Suite) (*Runner, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	env := NewEnv(config.DefaultConfig(), nil)
	env.Out = &buf
	return NewRunner(env, t.TempDir(), suites), &buf
}

func TestRunner_AllSuites(t *testing.T) {
	runner, buf := newTestRunner(t, []Suite{
		&stubSuite{router: "alpha", pass: 3},
		&stubSuite{router: "beta", pass: 1, fail: 1},
	})

	report, err := runner.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, report.RoutersTested)
	assert.Equal(t, 1, report.RoutersPassed)
	assert.Equal(t, 5, report.TotalEndpoints)
	assert.Equal(t, 4, report.EndpointsPassed)
	assert.False(t, report.AllPassed())

	assert.Equal(t, "PASSED", report.RouterResults["alpha"].Status)
	assert.Equal(t, "FAILED", report.RouterResults["beta"].Status)
	assert.Contains(t, buf.String(), "FINAL REPORT")
}

func TestRunner_SelectByRouter(t *testing.T) {
	runner, _ := newTestRunner(t, []Suite{
		&stubSuite{router: "alpha", pass: 1},
		&stubSuite{router: "beta", pass: 1},
	})

	report, err := runner.Run(context.Background(), []string{"beta"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.RoutersTested)
	_, ran := report.RouterResults["beta"]
	assert.True(t, ran)
}

func TestRunner_UnknownRouter(t *testing.T) {
	runner, _ := newTestRunner(t, []Suite{&stubSuite{router: "alpha"}})

	_, err := runner.Run(context.Background(), []string{"nonexistent"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no suites match")
}

func TestRunner_SuiteError(t *testing.T) {
	runner, buf := newTestRunner(t, []Suite{
		&stubSuite{router: "broken", err: errors.New("registry A unreachable")},
	})

	report, err := runner.Run(context.Background(), nil)
	require.NoError(t, err)
	outcome := report.RouterResults["broken"]
	assert.Equal(t, "ERROR", outcome.Status)
	assert.Equal(t, "registry A unreachable", outcome.Error)
	assert.Contains(t, buf.String(), "[ERROR]")
}

func TestRunner_ContextCancelled(t *testing.T) {
	runner, _ := newTestRunner(t, []Suite{&stubSuite{router: "alpha", pass: 1}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runner.Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_Routers(t *testing.T) {
	runner, _ := newTestRunner(t, []Suite{
		&stubSuite{router: "alpha"},
		&stubSuite{router: "beta"},
	})
	assert.Equal(t, []string{"alpha", "beta"}, runner.Routers())
}
