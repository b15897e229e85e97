package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/chart-flow/internal/config"
	"github.com/nguyentantai21042004/chart-flow/pkg/executor"
)

func doctorCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, store, recognizer tools and summarizer",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "=== Config ===")
			fmt.Fprintf(out, "  Path: %s\n", *configPath)
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				fmt.Fprintf(out, "  Status: %v\n", err)
				return err
			}
			defer a.Close()
			fmt.Fprintln(out, "  Status: OK")

			fmt.Fprintln(out, "\n=== Store ===")
			fmt.Fprintf(out, "  Driver: %s\n", a.cfg.Store.Driver)
			if err := a.store.Ping(cmd.Context()); err != nil {
				fmt.Fprintf(out, "  Status: %v\n", err)
			} else {
				fmt.Fprintln(out, "  Status: OK")
			}

			fmt.Fprintln(out, "\n=== Recognizer ===")
			checkRecognizer(cmd.Context(), out, a.cfg.Recognizer, executor.New())

			fmt.Fprintln(out, "\n=== Summarizer ===")
			fmt.Fprintf(out, "  Backend: %s\n", a.cfg.Summarizer.Backend)
			switch a.cfg.Summarizer.Backend {
			case "remote":
				fmt.Fprintf(out, "  URL: %s\n", a.cfg.Summarizer.URL)
			case "gemini":
				fmt.Fprintf(out, "  Model: %s (%d API keys)\n", a.cfg.Gemini.Model, len(a.cfg.Gemini.APIKeys))
			case "openai":
				fmt.Fprintf(out, "  Model: %s\n", a.cfg.OpenAI.Model)
			}
			if _, err := a.summarizer(); err != nil {
				fmt.Fprintf(out, "  Status: %v\n", err)
			} else {
				fmt.Fprintln(out, "  Status: OK")
			}
			return nil
		},
	}
}

func checkRecognizer(ctx context.Context, out io.Writer, cfg config.RecognizerConfig, exec executor.Executor) {
	fmt.Fprintf(out, "  Backend: %s\n", cfg.Backend)
	if cfg.Backend != "inbox" {
		fmt.Fprintln(out, "  Status: capture disabled")
		return
	}
	fmt.Fprintf(out, "  Inbox: %s\n", cfg.InboxDir)
	for _, bin := range []string{cfg.WhisperBinary, cfg.FFmpegBinary} {
		if path, err := exec.LookPath(bin); err != nil {
			fmt.Fprintf(out, "  %s: NOT FOUND\n", bin)
		} else {
			fmt.Fprintf(out, "  %s: %s\n", bin, path)
		}
	}
	if version, err := exec.Execute(ctx, cfg.FFmpegBinary, "-version"); err == nil {
		first, _, _ := strings.Cut(strings.TrimSpace(version), "\n")
		fmt.Fprintf(out, "  %s\n", first)
	}
	if cfg.WhisperModel == "" {
		fmt.Fprintln(out, "  Model: not configured")
	} else if _, err := os.Stat(cfg.WhisperModel); err != nil {
		fmt.Fprintf(out, "  Model: %s (missing)\n", cfg.WhisperModel)
	} else {
		fmt.Fprintf(out, "  Model: %s\n", cfg.WhisperModel)
	}
}
