package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agora-dev/agora/internal/journal"
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List journaled deliberation results in creation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.log.Sync()

			results, err := journal.Read(rt.cfg.JournalPath)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("No journaled results.")
				return nil
			}
			for i, r := range results {
				fmt.Printf("%3d  %s  winner=team %d  confidence=%.2f  %s\n",
					i+1, r.CreatedAt.Format("2006-01-02 15:04:05"), r.WinningTeam, r.Confidence, r.Topic)
			}
			return nil
		},
	}
}
