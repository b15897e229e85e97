package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/chart-flow/internal/models"
	"github.com/nguyentantai21042004/chart-flow/internal/report"
)

func exportCmd(configPath *string) *cobra.Command {
	var (
		format string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "export <owner> <patient> <session>",
		Short: "Render a session's nursing report to a file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if format == "" {
				format = a.cfg.Report.Format
			}
			renderer, err := report.New(format, a.reportOptions())
			if err != nil {
				return err
			}

			key := models.SessionKey{OwnerID: args[0], PatientID: args[1], SessionID: args[2]}
			sess, err := a.store.GetSession(ctx, key)
			if err != nil {
				return fmt.Errorf("load session: %w", err)
			}
			patient, err := a.store.GetPatient(ctx, key.OwnerID, key.PatientID)
			if err != nil {
				return fmt.Errorf("load patient: %w", err)
			}

			data, err := renderer.Render(report.FromSession(patient, sess))
			if err != nil {
				return fmt.Errorf("render report: %w", err)
			}

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", outDir, err)
			}
			path := filepath.Join(outDir, report.FileName(patient.Name, sess.ID, renderer.Format()))
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "pdf or docx (default from config)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	return cmd
}
