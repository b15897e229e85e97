package capture

import (
	"context"
	"errors"

	"github.com/nguyentantai21042004/chart-flow/internal/models"
)

var (
	// ErrCaptureUnsupported means the host has no speech recognition capability.
	ErrCaptureUnsupported = errors.New("capture unsupported")
	// ErrAlreadyListening means a capture loop is already active for the session.
	ErrAlreadyListening = errors.New("capture already listening")
)

// Result is one recognition result of a run. A result carrying Err reports a
// transient recognition error; it never ends the run by itself.
type Result struct {
	Text  string
	Final bool
	Err   error
}

// Recognizer performs single, finite recognition runs.
type Recognizer interface {
	// Available reports whether the host can recognize speech at all.
	Available() error
	// Start begins one run. The returned channel is closed when the run
	// terminates: on silence, when its input is exhausted, or when ctx is done.
	Start(ctx context.Context) (<-chan Result, error)
}

// Committer persists a finalized utterance as a message of the session.
type Committer interface {
	AppendMessage(ctx context.Context, key models.SessionKey, text string) (*models.Message, error)
}

// Controller drives continuous capture for one session on top of a
// Recognizer that only supports finite runs.
type Controller interface {
	Start(ctx context.Context) error
	Stop()
	State() State
	LiveTranscript() string
}
