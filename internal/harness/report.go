package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SuiteReport is the sidecar result file written after each suite.
type SuiteReport struct {
	Timestamp time.Time `json:"timestamp"`
	Router    string    `json:"router"`
	Total     int       `json:"total_tests"`
	Passed    int       `json:"passed"`
	Failed    int       `json:"failed"`
	Results   []Result  `json:"results"`
}

// RouterOutcome summarises one suite inside the master report.
type RouterOutcome struct {
	Status  string   `json:"status"` // PASSED, FAILED, ERROR
	Total   int      `json:"total_tests"`
	Passed  int      `json:"passed"`
	Failed  int      `json:"failed"`
	Error   string   `json:"error,omitempty"`
	Results []Result `json:"results,omitempty"`
}

// MasterReport aggregates a full harness run.
type MasterReport struct {
	Timestamp       time.Time                `json:"timestamp"`
	TotalRouters    int                      `json:"total_routers"`
	RoutersTested   int                      `json:"routers_tested"`
	RoutersPassed   int                      `json:"routers_passed"`
	TotalEndpoints  int                      `json:"total_endpoints"`
	EndpointsPassed int                      `json:"endpoints_passed"`
	RouterResults   map[string]RouterOutcome `json:"router_results"`
}

// AllPassed reports whether every tested router fully passed.
func (m *MasterReport) AllPassed() bool {
	return m.RoutersTested > 0 && m.RoutersPassed == m.RoutersTested
}

// WriteSuiteReport writes the per-router sidecar file and returns its path.
func WriteSuiteReport(dir string, report SuiteReport) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("cerberus_%s_test_results.json", report.Router))
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal suite report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write suite report: %w", err)
	}
	return path, nil
}

// WriteMasterReport writes the aggregate report with a timestamped name and
// returns its path.
func WriteMasterReport(dir string, report *MasterReport) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	name := fmt.Sprintf("cerberus_master_report_%s.json", report.Timestamp.Format("20060102_150405"))
	path := filepath.Join(dir, name)
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal master report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write master report: %w", err)
	}
	return path, nil
}
