package summarizer

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func (s *implLLM) Summarize(ctx context.Context, transcript string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "summarizer.llm")
	defer span.End()
	span.SetAttributes(attribute.String("llm.backend", s.client.Name()))

	start := time.Now()
	text, err := s.client.Generate(ctx, Prompt(transcript))
	if s.latency != nil {
		s.latency.Record(ctx, float64(time.Since(start).Milliseconds()))
	}
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrNoSummary
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error(ctx, "Summarization with %s failed: %v", s.client.Name(), err)
		return "", err
	}

	s.logger.Debug(ctx, "Summarized %d transcript bytes with %s", len(transcript), s.client.Name())
	return text, nil
}
