package orchestrator

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/nguyentantai21042004/chart-flow/internal/logger"
	"github.com/nguyentantai21042004/chart-flow/internal/summarizer"
)

type implOrchestrator struct {
	store       Store
	summarizer  summarizer.Client
	logger      logger.Logger
	now         func() time.Time
	tracer      trace.Tracer
	generations metric.Int64Counter
}

// New creates an Orchestrator. now may be nil to use the wall clock.
func New(store Store, client summarizer.Client, log logger.Logger, now func() time.Time) Orchestrator {
	if now == nil {
		now = time.Now
	}
	generations, _ := otel.Meter("chart-flow/orchestrator").Int64Counter(
		"summaries.generated",
		metric.WithDescription("Summarization attempts by outcome"),
	)
	return &implOrchestrator{
		store:       store,
		summarizer:  client,
		logger:      log,
		now:         now,
		tracer:      otel.Tracer("chart-flow/orchestrator"),
		generations: generations,
	}
}
