package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cerberus/internal/harness"
	"cerberus/internal/suites"
)

var runReportDir string

// runCmd executes endpoint suites against the live deployment.
var runCmd = &cobra.Command{
	Use:   "run [router...]",
	Short: "Run endpoint test suites",
	Long: `Runs the endpoint suites against the configured services. With no
arguments every suite runs in order; otherwise only the named routers
run.

Example:
  cerberus run
  cerberus run auth agent_cards staking`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		reportDir := runReportDir
		if reportDir == "" {
			reportDir = cfg.Output.ReportDir
		}

		env := harness.NewEnv(cfg, logger)
		runner := harness.NewRunner(env, reportDir, suites.All())

		report, err := runner.Run(ctx, args)
		if err != nil {
			return err
		}
		if !report.AllPassed() {
			return fmt.Errorf("%d of %d routers have failing tests",
				report.RoutersTested-report.RoutersPassed, report.RoutersTested)
		}
		return nil
	},
}

// suitesCmd lists the registered suites in run order.
var suitesCmd = &cobra.Command{
	Use:   "suites",
	Short: "List available test suites",
	RunE: func(cmd *cobra.Command, args []string) error {
		env := harness.NewEnv(cfg, logger)
		runner := harness.NewRunner(env, cfg.Output.ReportDir, suites.All())
		for _, name := range runner.Routers() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runReportDir, "report-dir", "", "Directory for JSON reports (default from config)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(suitesCmd)
}
