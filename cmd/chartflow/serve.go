package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/chart-flow/internal/capture"
	"github.com/nguyentantai21042004/chart-flow/internal/config"
	"github.com/nguyentantai21042004/chart-flow/internal/httpapi"
	"github.com/nguyentantai21042004/chart-flow/internal/orchestrator"
	"github.com/nguyentantai21042004/chart-flow/internal/recognizer"
	"github.com/nguyentantai21042004/chart-flow/internal/telemetry"
	"github.com/nguyentantai21042004/chart-flow/pkg/executor"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with live capture and summarization",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *configPath)
		},
	}
}

func serve(ctx context.Context, configPath string) error {
	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg, log := a.cfg, a.log

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Warn(ctx, "Telemetry shutdown: %v", err)
		}
	}()

	factory, err := recognizer.NewFactory(cfg.Recognizer, cfg.Performance.MaxConcurrent, executor.New(), log)
	if err != nil {
		return fmt.Errorf("init recognizer: %w", err)
	}
	captures := capture.NewManager(factory, a.store, log, cfg.Recognizer.RestartDelay)

	client, err := a.summarizer()
	if err != nil {
		return fmt.Errorf("init summarizer: %w", err)
	}
	provider, err := a.provider()
	if err != nil {
		return fmt.Errorf("init summary provider: %w", err)
	}

	api := httpapi.New(httpapi.Deps{
		Store:         a.store,
		Captures:      captures,
		Orchestrator:  orchestrator.New(a.store, client, log, nil),
		Provider:      provider,
		ReportFormat:  cfg.Report.Format,
		ReportOptions: a.reportOptions(),
		Logger:        log,
	})

	srv := newHTTPServer(cfg.Server, api)

	log.Info(ctx, "========================================")
	log.Info(ctx, "Chart Flow %s", version)
	log.Info(ctx, "========================================")
	log.Info(ctx, "System: %s/%s", runtime.GOOS, runtime.GOARCH)
	log.Info(ctx, "Store: %s", cfg.Store.Driver)
	log.Info(ctx, "Summarizer: %s", cfg.Summarizer.Backend)
	log.Info(ctx, "Recognizer: %s", cfg.Recognizer.Backend)
	if provider != nil {
		log.Info(ctx, "Serving POST /summary as summarization provider")
	}
	log.Info(ctx, "Listening on %s", cfg.Server.Addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case err := <-errChan:
		log.Error(ctx, "Server error: %v", err)
		captures.StopAll()
		return err
	}

	log.Info(ctx, "Shutting down gracefully...")
	// Commit in-flight utterances before the store goes away.
	captures.StopAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "HTTP shutdown: %v", err)
	}

	log.Info(ctx, "Chart Flow stopped")
	return nil
}

// newHTTPServer builds the API server. Request contexts derive from a base
// context cancelled when Shutdown starts, so SSE and WebSocket streams end
// instead of holding shutdown open until its timeout.
func newHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	base, cancel := context.WithCancel(context.Background())
	// WriteTimeout stays zero unless configured: streams are long-lived.
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	srv.RegisterOnShutdown(cancel)
	return srv
}
