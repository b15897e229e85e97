// Package orchestrator runs one summarization of a session: snapshot the log,
// call the summarizer, split the response and persist it.
package orchestrator

import (
	"context"
	"errors"

	"github.com/nguyentantai21042004/chart-flow/internal/models"
)

var (
	ErrNothingToSummarize  = errors.New("nothing to summarize")
	ErrSummarizationFailed = errors.New("summarization failed")
	ErrSaveFailed          = errors.New("saving summary failed")
)

// Orchestrator generates and stores a session's summary and nursing chart.
type Orchestrator interface {
	Generate(ctx context.Context, key models.SessionKey) (*models.Generation, error)
}

// Store is the part of the session store a generation reads and writes.
type Store interface {
	ListMessages(ctx context.Context, key models.SessionKey) ([]models.Message, error)
	SaveGeneration(ctx context.Context, key models.SessionKey, gen models.Generation) error
}
