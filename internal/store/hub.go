package store

import (
	"context"
	"sync"

	"github.com/nguyentantai21042004/chart-flow/internal/logger"
	"github.com/nguyentantai21042004/chart-flow/internal/models"
)

type loadFunc func(ctx context.Context, sessionID string) ([]models.Message, error)

type subscriber struct {
	wake   chan struct{}
	cancel context.CancelFunc
}

// hub fans log changes out to subscribers. A change only wakes a subscriber;
// the subscriber reloads the full log itself, outside the hub lock.
type hub struct {
	load   loadFunc
	logger logger.Logger

	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

func newHub(load loadFunc, log logger.Logger) *hub {
	return &hub{
		load:   load,
		logger: log,
		subs:   make(map[string]map[*subscriber]struct{}),
	}
}

func (h *hub) subscribe(ctx context.Context, sessionID string) (<-chan []models.Message, func()) {
	ctx, cancel := context.WithCancel(ctx)
	sub := &subscriber{wake: make(chan struct{}, 1), cancel: cancel}
	// first delivery is the current log
	sub.wake <- struct{}{}

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*subscriber]struct{})
	}
	h.subs[sessionID][sub] = struct{}{}
	h.mu.Unlock()

	out := make(chan []models.Message, 1)
	go func() {
		defer close(out)
		defer h.remove(sessionID, sub)

		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.wake:
			}

			msgs, err := h.load(ctx, sessionID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				h.logger.Warn(ctx, "Failed to reload log of session %s: %v", sessionID, err)
				continue
			}
			deliver(out, msgs)
		}
	}()
	return out, cancel
}

// deliver hands msgs to the reader, replacing a value it has not taken yet.
// Only the subscriber goroutine sends on out, so the second send never blocks.
func deliver(out chan []models.Message, msgs []models.Message) {
	select {
	case out <- msgs:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	out <- msgs
}

func (h *hub) remove(sessionID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[sessionID], sub)
	if len(h.subs[sessionID]) == 0 {
		delete(h.subs, sessionID)
	}
}

func (h *hub) publish(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[sessionID] {
		wake(sub)
	}
}

// publishAll wakes every subscriber, used after a missed-notification window.
func (h *hub) publishAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, subs := range h.subs {
		for sub := range subs {
			wake(sub)
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, subs := range h.subs {
		for sub := range subs {
			sub.cancel()
		}
	}
}

func wake(sub *subscriber) {
	select {
	case sub.wake <- struct{}{}:
	default:
	}
}
