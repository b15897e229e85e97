package main

import (
	"context"
	"fmt"

	"github.com/nguyentantai21042004/chart-flow/internal/config"
	"github.com/nguyentantai21042004/chart-flow/internal/llm"
	"github.com/nguyentantai21042004/chart-flow/internal/logger"
	"github.com/nguyentantai21042004/chart-flow/internal/report"
	"github.com/nguyentantai21042004/chart-flow/internal/store"
	"github.com/nguyentantai21042004/chart-flow/internal/summarizer"
)

// app holds what every command needs: configuration, a logger and the store.
type app struct {
	cfg   *config.Config
	log   logger.Logger
	store store.Store
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log := logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})

	st, err := store.New(ctx, store.Options{
		Driver:        cfg.Store.Driver,
		DSN:           cfg.Store.DSN,
		NotifyChannel: cfg.Store.NotifyChannel,
		Logger:        log,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &app{cfg: cfg, log: log, store: st}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// summarizer returns the client for the configured backend.
func (a *app) summarizer() (summarizer.Client, error) {
	switch a.cfg.Summarizer.Backend {
	case "gemini":
		c, err := llm.NewGemini(a.cfg.Gemini.APIKeys, a.cfg.Gemini.Model, a.log)
		if err != nil {
			return nil, err
		}
		return summarizer.NewLLM(c, a.log), nil
	case "openai":
		c, err := llm.NewOpenAI(a.cfg.OpenAI.APIKey, a.cfg.OpenAI.Model, a.cfg.OpenAI.BaseURL)
		if err != nil {
			return nil, err
		}
		return summarizer.NewLLM(c, a.log), nil
	default:
		return summarizer.NewRemote(a.cfg.Summarizer.URL, a.cfg.Summarizer.Timeout), nil
	}
}

// provider returns a model-backed client for serving POST /summary, or nil
// when the configured backend is itself a remote provider.
func (a *app) provider() (summarizer.Client, error) {
	if a.cfg.Summarizer.Backend == "remote" {
		return nil, nil
	}
	return a.summarizer()
}

func (a *app) reportOptions() report.Options {
	r := a.cfg.Report
	return report.Options{
		ContentWidth: r.ContentWidth,
		FontSize:     r.FontSize,
		LineSpacing:  r.LineSpacing,
		BlockSpacing: r.BlockSpacing,
		Margin:       r.Margin,
	}
}
