package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/chart-flow/internal/logger"
)

type generateFunc func(ctx context.Context, apiKey, model, prompt string) (string, error)

type implGemini struct {
	apiKeys  []string
	model    string
	logger   logger.Logger
	generate generateFunc

	mu         sync.Mutex
	currentKey int
}

// NewGemini creates a Gemini client that rotates through apiKeys whenever a
// key is rate limited.
func NewGemini(apiKeys []string, model string, log logger.Logger) (Client, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("gemini: no API keys")
	}
	return &implGemini{
		apiKeys:  apiKeys,
		model:    model,
		logger:   log,
		generate: callGemini,
	}, nil
}

func (g *implGemini) Name() string { return "gemini/" + g.model }

// Generate tries each key at most once, starting from the last key that worked.
func (g *implGemini) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for range g.apiKeys {
		idx, key := g.key()

		text, err := g.generate(ctx, key, g.model, prompt)
		if err != nil {
			if isRateLimited(err) {
				g.logger.Warn(ctx, "Key %d rate limited, rotating...", idx+1)
				g.rotate(idx)
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}
		return text, nil
	}
	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (g *implGemini) key() (int, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentKey, g.apiKeys[g.currentKey]
}

// rotate moves past idx unless another call already rotated.
func (g *implGemini) rotate(idx int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.currentKey == idx {
		g.currentKey = (idx + 1) % len(g.apiKeys)
	}
}

func isRateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func callGemini(ctx context.Context, apiKey, model, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}
