package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"cerberus/internal/harness"
	"cerberus/internal/registry"
)

// healthCmd probes every configured service in parallel.
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check health of all configured services",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		out := cmd.OutOrStdout()
		services := cfg.AllServices()
		results := make([]string, len(services))
		healthy := make([]bool, len(services))

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for i, svc := range services {
			g.Go(func() error {
				client := registry.NewClient(svc.URL, cfg.GetHTTPTimeout(), logger.Named(svc.Name))
				ok, detail := client.Healthy(gctx, svc.Health)
				mu.Lock()
				healthy[i], results[i] = ok, detail
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		criticalDown := false
		for i, svc := range services {
			if healthy[i] {
				fmt.Fprintf(out, "%s %-22s %s\n", harness.PassStyle().Render("[OK]  "), svc.Name, svc.URL)
				continue
			}
			fmt.Fprintf(out, "%s %-22s %s (%s)\n", harness.FailStyle().Render("[FAIL]"), svc.Name, svc.URL, results[i])
			if svc.Critical {
				criticalDown = true
			}
		}
		if criticalDown {
			return fmt.Errorf("one or more critical services are unreachable")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
