package main

import (
	"github.com/spf13/cobra"

	"github.com/agora-dev/agora/internal/output"
)

func newAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the agent roster with performance and emotional telemetry",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.log.Sync()
			output.PrintAgents(rt.engine.Agents())
			return nil
		},
	}
}
