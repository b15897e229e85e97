// Package recognizer provides the speech recognition hosts behind capture
// controllers.
package recognizer

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/chart-flow/internal/capture"
	"github.com/nguyentantai21042004/chart-flow/internal/config"
	"github.com/nguyentantai21042004/chart-flow/internal/logger"
	"github.com/nguyentantai21042004/chart-flow/pkg/executor"
)

const (
	BackendInbox = "inbox"
	BackendNone  = "none"
)

// settleDelay gives a writer time to finish a file after its create event.
const settleDelay = 500 * time.Millisecond

// NewFactory returns the factory building one recognizer per session for the
// configured backend. All inbox recognizers share one whisper semaphore.
func NewFactory(cfg config.RecognizerConfig, maxConcurrent int, exec executor.Executor, log logger.Logger) (capture.RecognizerFactory, error) {
	switch cfg.Backend {
	case BackendInbox:
		// whisper runs with the session inbox as working directory
		if cfg.WhisperModel != "" {
			model, err := filepath.Abs(cfg.WhisperModel)
			if err != nil {
				return nil, fmt.Errorf("resolve whisper model: %w", err)
			}
			cfg.WhisperModel = model
		}
		sem := newSemaphore(maxConcurrent)
		return func(sessionID string) (capture.Recognizer, error) {
			if err := validSessionDir(sessionID); err != nil {
				return nil, err
			}
			return &implInbox{
				dir:      filepath.Join(cfg.InboxDir, sessionID),
				cfg:      cfg,
				executor: exec,
				logger:   log,
				sem:      sem,
				settle:   settleDelay,
			}, nil
		}, nil
	case BackendNone:
		return func(string) (capture.Recognizer, error) { return None{}, nil }, nil
	default:
		return nil, fmt.Errorf("unknown recognizer backend %q", cfg.Backend)
	}
}

func validSessionDir(sessionID string) error {
	if sessionID == "" || sessionID == "." || sessionID == ".." || strings.ContainsAny(sessionID, `/\`) {
		return fmt.Errorf("invalid session id %q", sessionID)
	}
	return nil
}
