package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agora-dev/agora/internal/agent"
	"github.com/agora-dev/agora/internal/sanction"
)

func newSanctionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanction",
		Short: "Nominate an agent for sanctioning by counsellor vote",
		RunE:  runSanction,
	}
	cmd.Flags().Int("team", 0, "Team of the nominated agent (with --role)")
	cmd.Flags().String("role", "", "Role of the nominated agent (with --team)")
	cmd.Flags().String("reason", "", "Sanction reason: irrelevancy, laziness, complacency, ethics (required)")
	cmd.Flags().Int("rounds", 1, "Number of sanction evaluations to run")
	cmd.MarkFlagRequired("reason")
	return cmd
}

func runSanction(cmd *cobra.Command, args []string) error {
	team, _ := cmd.Flags().GetInt("team")
	role, _ := cmd.Flags().GetString("role")
	reasonStr, _ := cmd.Flags().GetString("reason")
	rounds, _ := cmd.Flags().GetInt("rounds")

	reason, err := sanction.ParseReason(reasonStr)
	if err != nil {
		return err
	}
	if team < 1 || role == "" {
		return fmt.Errorf("nominate an agent with --team and --role")
	}

	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.log.Sync()

	target, err := rt.registry.TeamAgent(team, agent.Role(role))
	if err != nil {
		return err
	}
	fmt.Printf("Nominated: %s (%s, team %d), reason %s\n", target.ID, target.Role, team, reason)

	for i := 0; i < rounds; i++ {
		replaced, err := rt.sanction.Evaluate(target.ID, reason)
		if err != nil {
			return err
		}
		current, _ := rt.registry.TeamAgent(team, agent.Role(role))
		if replaced {
			fmt.Printf("Evaluation %d: agent replaced, successor %s\n", i+1, current.ID)
			return nil
		}
		fmt.Printf("Evaluation %d: no replacement, sanction count %d\n", i+1, current.Sanctions)
	}
	return nil
}
