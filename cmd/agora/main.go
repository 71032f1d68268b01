package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "agora",
		Short: "Multi-agent deliberation engine",
		Long:  "Runs multi-team deliberation rounds: each team proposes, solves, and critiques, a handler synthesizes, and the management layer selects one winner under a sanction-based quality-control regime.",
	}

	root.PersistentFlags().String("config", "", "Path to config file (default: ./agora.yaml if present)")
	root.PersistentFlags().Int64("seed", 0, "Seed for roster, jitter, and voting (0 = time-seeded)")
	root.PersistentFlags().String("journal", "", "Override the JSON-lines history journal path")

	root.AddCommand(newDeliberateCmd())
	root.AddCommand(newAgentsCmd())
	root.AddCommand(newMoraleCmd())
	root.AddCommand(newSanctionCmd())
	root.AddCommand(newHistoryCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
