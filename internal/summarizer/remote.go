package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Request is the body of POST /summary.
type Request struct {
	Messages string `json:"messages"`
}

// Response is the success body of POST /summary.
type Response struct {
	Summary string `json:"summary"`
}

// ErrorResponse is the failure body of POST /summary.
type ErrorResponse struct {
	Error string `json:"error"`
}

var ErrNoSummary = errors.New("response carries no summary")

func (r *implRemote) Summarize(ctx context.Context, transcript string) (string, error) {
	ctx, span := r.tracer.Start(ctx, "summarizer.remote")
	defer span.End()

	start := time.Now()
	summary, status, err := r.post(ctx, transcript)
	if r.latency != nil {
		r.latency.Record(ctx, float64(time.Since(start).Milliseconds()))
	}
	if status != 0 {
		span.SetAttributes(semconv.HTTPResponseStatusCode(status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("summary.length", len(summary)))
	return summary, nil
}

func (r *implRemote) post(ctx context.Context, transcript string) (string, int, error) {
	body, err := json.Marshal(Request{Messages: transcript})
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return "", resp.StatusCode, fmt.Errorf("provider error: %s - %s", resp.Status, e.Error)
		}
		return "", resp.StatusCode, fmt.Errorf("provider error: %s", resp.Status)
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if strings.TrimSpace(out.Summary) == "" {
		return "", resp.StatusCode, ErrNoSummary
	}
	return out.Summary, resp.StatusCode, nil
}
