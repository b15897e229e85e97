package recognizer

import "context"

// semaphore bounds the number of whisper processes running at once across
// all sessions.
type semaphore struct {
	ch chan struct{}
}

func newSemaphore(capacity int) *semaphore {
	if capacity <= 0 {
		capacity = 2
	}
	return &semaphore{ch: make(chan struct{}, capacity)}
}

// acquire blocks until a slot is free or ctx is done.
func (s *semaphore) acquire(ctx context.Context) error {
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *semaphore) release() {
	<-s.ch
}
