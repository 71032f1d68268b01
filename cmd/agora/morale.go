package main

import (
	"github.com/spf13/cobra"

	"github.com/agora-dev/agora/internal/output"
)

func newMoraleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "morale",
		Short: "Report per-team morale and the readiness gate",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.log.Sync()
			output.PrintMorale(
				rt.engine.AnalyzeTeamMorale(),
				rt.registry.MeanPerformance(),
				rt.engine.MeetsThreshold(),
			)
			return nil
		},
	}
}
