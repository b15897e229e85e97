// Package summarizer turns a session transcript into the raw summary text
// that carries the Summary and Nursing Chart markers.
package summarizer

import "context"

// Client summarizes one newline-joined transcript.
type Client interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}
