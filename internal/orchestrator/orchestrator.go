package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/nguyentantai21042004/chart-flow/internal/chart"
	"github.com/nguyentantai21042004/chart-flow/internal/models"
)

// Generate summarizes the session's log as it is now. Messages committed
// while the summarizer runs are not part of this generation; the result's
// MessageCount tells callers how many were.
//
// The session is only written after a usable response; concurrent calls for
// one session are not serialized and the last save wins.
func (o *implOrchestrator) Generate(ctx context.Context, key models.SessionKey) (*models.Generation, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.generate")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", key.SessionID))

	gen, err := o.generate(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.count(ctx, outcome(err))
		return nil, err
	}
	o.count(ctx, "ok")
	return gen, nil
}

func (o *implOrchestrator) generate(ctx context.Context, key models.SessionKey) (*models.Generation, error) {
	msgs, err := o.store.ListMessages(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, ErrNothingToSummarize
	}

	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = m.Text
	}
	transcript := strings.Join(lines, "\n")

	o.logger.Info(ctx, "Summarizing %d messages for session %s", len(msgs), key.SessionID)
	raw, err := o.summarizer.Summarize(ctx, transcript)
	if err != nil {
		o.logger.Error(ctx, "Summarization failed for session %s: %v", key.SessionID, err)
		return nil, fmt.Errorf("%w: %w", ErrSummarizationFailed, err)
	}

	summary, body := chart.SplitResponse(raw)
	if summary == "" && body == "" {
		o.logger.Warn(ctx, "Summary response for session %s carries no markers", key.SessionID)
	}

	gen := &models.Generation{
		Summary:      summary,
		NursingChart: body,
		GeneratedAt:  o.now().UTC(),
		MessageCount: len(msgs),
	}
	if err := o.store.SaveGeneration(ctx, key, *gen); err != nil {
		o.logger.Error(ctx, "Failed to save summary for session %s: %v", key.SessionID, err)
		return nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	o.logger.Info(ctx, "Saved summary for session %s (%d chart sections)", key.SessionID, len(chart.Sections(body)))
	return gen, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrNothingToSummarize):
		return "empty"
	case errors.Is(err, ErrSummarizationFailed):
		return "summarizer_error"
	case errors.Is(err, ErrSaveFailed):
		return "save_error"
	default:
		return "error"
	}
}

func (o *implOrchestrator) count(ctx context.Context, result string) {
	if o.generations != nil {
		o.generations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", result)))
	}
}
