package main

import (
	"time"

	"github.com/spf13/cobra"

	"cerberus/internal/artifacts"
	"cerberus/internal/goldenpath"
)

var (
	goldenPause  time.Duration
	goldenSettle time.Duration
)

// goldenPathCmd walks the First Citizen's full lifecycle.
var goldenPathCmd = &cobra.Command{
	Use:   "golden-path",
	Short: "Run the Golden Path demonstration",
	Long: `Executes the Golden Path end to end: environment verification, birth
of the First Citizen, treasury provisioning, discovery and listing,
an escrowed purchase, and settlement. Each phase writes a JSON
artifact and the next phase is gated on it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		store, err := artifacts.NewStore(cfg.Output.ArtifactDir)
		if err != nil {
			return err
		}
		orch := goldenpath.New(cfg, store, logger)
		orch.PhasePause = goldenPause
		orch.SettleDelay = goldenSettle

		_, err = orch.Run(ctx)
		return err
	},
}

func init() {
	goldenPathCmd.Flags().DurationVar(&goldenPause, "pause", 5*time.Second, "Pause between phases")
	goldenPathCmd.Flags().DurationVar(&goldenSettle, "settle-delay", 5*time.Second, "Wait before verifying settlement")
	rootCmd.AddCommand(goldenPathCmd)
}
