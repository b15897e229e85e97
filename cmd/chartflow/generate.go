package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/chart-flow/internal/chart"
	"github.com/nguyentantai21042004/chart-flow/internal/models"
	"github.com/nguyentantai21042004/chart-flow/internal/orchestrator"
)

func generateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <owner> <patient> <session>",
		Short: "Summarize a session's message log and store the chart",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			client, err := a.summarizer()
			if err != nil {
				return fmt.Errorf("init summarizer: %w", err)
			}

			key := models.SessionKey{OwnerID: args[0], PatientID: args[1], SessionID: args[2]}
			gen, err := orchestrator.New(a.store, client, a.log, nil).Generate(ctx, key)
			if err != nil {
				return err
			}

			printGeneration(cmd.OutOrStdout(), gen)
			return nil
		},
	}
}

// printGeneration writes the generation in the marker format the summarizer
// answers with, keeping only the recognised sections in canonical order.
func printGeneration(out io.Writer, gen *models.Generation) {
	fmt.Fprintf(out, "Generated at %s from %d messages\n\n", gen.GeneratedAt.Format("2006-01-02 15:04:05 MST"), gen.MessageCount)
	fmt.Fprintf(out, "**Summary:** %s\n\n", gen.Summary)
	fmt.Fprintf(out, "**Nursing Chart:**\n%s\n", chart.Format(chart.Sections(gen.NursingChart)))
}
