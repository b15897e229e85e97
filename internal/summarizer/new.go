package summarizer

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/nguyentantai21042004/chart-flow/internal/llm"
	"github.com/nguyentantai21042004/chart-flow/internal/logger"
)

const instrumentationName = "chart-flow/summarizer"

type implRemote struct {
	url        string
	httpClient *http.Client
	tracer     trace.Tracer
	latency    metric.Float64Histogram
}

// NewRemote creates a Client calling an HTTP summarization provider at url.
func NewRemote(url string, timeout time.Duration) Client {
	latency, _ := otel.Meter(instrumentationName).Float64Histogram(
		"summarizer.request.duration",
		metric.WithDescription("Summarization request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	return &implRemote{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		tracer:     otel.Tracer(instrumentationName),
		latency:    latency,
	}
}

type implLLM struct {
	client  llm.Client
	logger  logger.Logger
	tracer  trace.Tracer
	latency metric.Float64Histogram
}

// NewLLM creates a Client that prompts a language model in process.
func NewLLM(client llm.Client, log logger.Logger) Client {
	latency, _ := otel.Meter(instrumentationName).Float64Histogram(
		"summarizer.llm.duration",
		metric.WithDescription("Language model call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	return &implLLM{
		client:  client,
		logger:  log,
		tracer:  otel.Tracer(instrumentationName),
		latency: latency,
	}
}
