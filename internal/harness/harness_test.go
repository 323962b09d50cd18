package harness

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cerberus/internal/registry"
)

func TestRecorder_PassFailCounts(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder("auth", &buf, nil)

	rec.Pass("GET", "/auth/me")
	rec.Fail("POST", "/auth/login", "status code: 500 (want 200)")
	rec.Check(true, "POST", "/auth/logout", "")

	assert.Equal(t, 3, rec.Total())
	assert.Equal(t, 2, rec.Passed())
	assert.Equal(t, 1, rec.Failed())

	out := buf.String()
	assert.Contains(t, out, "[PASS] GET /auth/me")
	assert.Contains(t, out, "[FAIL] POST /auth/login - status code: 500 (want 200)")
}

func TestRecorder_CheckStatus(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder("auth", &buf, nil)

	ok := rec.CheckStatus(&registry.Response{StatusCode: 200}, 200, "GET", "/health")
	assert.True(t, ok)

	resp := &registry.Response{
		StatusCode: 403,
		Body:       []byte(`{"detail":"not an admin"}`),
	}
	ok = rec.CheckStatus(resp, 200, "GET", "/admin/dashboard")
	assert.False(t, ok)

	results := rec.Results()
	require.Len(t, results, 2)
	assert.Contains(t, results[1].Message, "403")
	assert.Contains(t, results[1].Message, "not an admin")
}

func TestRecorder_Report(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder("staking", &buf, nil)
	rec.Pass("GET", "/agents/me/balance")
	rec.Fail("POST", "/agents/me/stake", "status code: 500 (want 200)")

	report := rec.Report()
	want := SuiteReport{
		Router: "staking",
		Total:  2,
		Passed: 1,
		Failed: 1,
		Results: []Result{
			{Endpoint: "GET /agents/me/balance", Passed: true},
			{Endpoint: "POST /agents/me/stake", Passed: false, Message: "status code: 500 (want 200)"},
		},
	}
	if diff := cmp.Diff(want, report, cmpopts.IgnoreFields(SuiteReport{}, "Timestamp")); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSuiteReport(t *testing.T) {
	dir := t.TempDir()
	report := SuiteReport{
		Timestamp: time.Now(),
		Router:    "governance",
		Total:     4,
		Passed:    4,
		Results:   []Result{{Endpoint: "GET /governance/proposals", Passed: true}},
	}

	path, err := WriteSuiteReport(dir, report)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cerberus_governance_test_results.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var loaded SuiteReport
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, report.Router, loaded.Router)
	assert.Equal(t, report.Total, loaded.Total)
}

func TestWriteMasterReport(t *testing.T) {
	dir := t.TempDir()
	report := &MasterReport{
		Timestamp:     time.Now(),
		TotalRouters:  20,
		RoutersTested: 2,
		RoutersPassed: 2,
		RouterResults: map[string]RouterOutcome{
			"auth":   {Status: "PASSED", Total: 10, Passed: 10},
			"agents": {Status: "PASSED", Total: 5, Passed: 5},
		},
	}

	path, err := WriteMasterReport(dir, report)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "cerberus_master_report_"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var loaded MasterReport
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.True(t, loaded.AllPassed())
}

func TestMasterReport_AllPassed(t *testing.T) {
	m := &MasterReport{RoutersTested: 3, RoutersPassed: 3}
	assert.True(t, m.AllPassed())

	m.RoutersPassed = 2
	assert.False(t, m.AllPassed())

	empty := &MasterReport{}
	assert.False(t, empty.AllPassed())
}
