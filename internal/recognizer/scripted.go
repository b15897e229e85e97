package recognizer

import (
	"context"
	"sync"

	"github.com/nguyentantai21042004/chart-flow/internal/capture"
)

// Scripted replays a fixed list of runs, one per Start. Once the script is
// exhausted a run stays open, silent, until its context is cancelled.
type Scripted struct {
	// Unavailable, when set, is returned by Available.
	Unavailable error

	mu   sync.Mutex
	runs [][]capture.Result
	next int
}

// NewScripted creates a Scripted recognizer replaying runs in order.
func NewScripted(runs ...[]capture.Result) *Scripted {
	return &Scripted{runs: runs}
}

func (s *Scripted) Available() error { return s.Unavailable }

func (s *Scripted) Start(ctx context.Context) (<-chan capture.Result, error) {
	s.mu.Lock()
	var run []capture.Result
	exhausted := s.next >= len(s.runs)
	if !exhausted {
		run = s.runs[s.next]
		s.next++
	}
	s.mu.Unlock()

	out := make(chan capture.Result)
	go func() {
		defer close(out)
		if exhausted {
			<-ctx.Done()
			return
		}
		for _, r := range run {
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Remaining reports how many scripted runs have not started yet.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs) - s.next
}
