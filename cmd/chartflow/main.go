package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "chartflow",
		Short:         "Nursing session capture, summarization and chart export",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML or TOML config file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(generateCmd(&configPath))
	rootCmd.AddCommand(exportCmd(&configPath))
	rootCmd.AddCommand(doctorCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
