package capture

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/nguyentantai21042004/chart-flow/internal/logger"
	"github.com/nguyentantai21042004/chart-flow/internal/models"
)

type implController struct {
	key          models.SessionKey
	recognizer   Recognizer
	committer    Committer
	logger       logger.Logger
	restartDelay time.Duration
	commits      metric.Int64Counter

	mu             sync.Mutex
	state          State
	live           string
	shouldContinue bool
	cancel         context.CancelFunc
	done           chan struct{}
}

// New creates an idle Controller committing the utterances of key's session.
func New(key models.SessionKey, rec Recognizer, committer Committer, log logger.Logger, restartDelay time.Duration) Controller {
	commits, _ := otel.Meter("chart-flow/capture").Int64Counter(
		"capture.commits",
		metric.WithDescription("Utterances committed to the message log"),
	)
	return &implController{
		key:          key,
		recognizer:   rec,
		committer:    committer,
		logger:       log,
		restartDelay: restartDelay,
		commits:      commits,
	}
}
