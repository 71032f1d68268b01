package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/agora-dev/agora/internal/deliberation"
	"github.com/agora-dev/agora/internal/journal"
	"github.com/agora-dev/agora/internal/output"
)

func newDeliberateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deliberate",
		Short: "Run one deliberation round on a topic",
		RunE:  runDeliberate,
	}
	cmd.Flags().String("topic", "", "Problem statement (required)")
	cmd.Flags().StringArray("note", nil, "Conversational context note (repeatable)")
	cmd.Flags().Int("complexity", 5, "Task complexity, 1-10")
	cmd.MarkFlagRequired("topic")
	return cmd
}

func runDeliberate(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	notes, _ := cmd.Flags().GetStringArray("note")
	complexity, _ := cmd.Flags().GetInt("complexity")
	if complexity < 1 || complexity > 10 {
		return fmt.Errorf("complexity must be in 1..10, got %d", complexity)
	}

	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var writer *journal.Writer
	if rt.cfg.JournalPath != "" {
		prior, err := journal.Read(rt.cfg.JournalPath)
		if err != nil {
			return err
		}
		rt.engine.LoadHistory(prior)
		writer, err = journal.NewWriter(rt.cfg.JournalPath)
		if err != nil {
			return err
		}
		defer writer.Close()
	}

	rt.engine.OnPhase = output.PrintPhase
	rt.engine.OnResult = func(r *deliberation.Result) {
		if writer != nil {
			if err := writer.Append(r); err != nil {
				fmt.Fprintf(os.Stderr, "journal append failed: %v\n", err)
			}
		}
	}

	fmt.Printf("Deliberation: %s\n", topic)
	fmt.Printf("Teams: %d | Complexity: %d | Seed: %d\n", rt.cfg.Teams, complexity, rt.seed)

	result, err := rt.engine.Deliberate(ctx, topic, notes, complexity)
	if err != nil {
		return fmt.Errorf("deliberate: %w", err)
	}

	fmt.Println()
	output.PrintResult(result)
	return nil
}
