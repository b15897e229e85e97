package capture

import (
	"context"
	"sync"
	"time"

	"github.com/nguyentantai21042004/chart-flow/internal/logger"
	"github.com/nguyentantai21042004/chart-flow/internal/models"
)

// RecognizerFactory returns the recognizer serving one session.
type RecognizerFactory func(sessionID string) (Recognizer, error)

// Status is a snapshot of a session's capture controller.
type Status struct {
	State          State  `json:"state"`
	LiveTranscript string `json:"liveTranscript"`
}

// Manager keeps at most one active controller per session.
type Manager struct {
	factory      RecognizerFactory
	committer    Committer
	logger       logger.Logger
	restartDelay time.Duration

	mu          sync.Mutex
	controllers map[string]Controller
}

// NewManager creates a Manager building controllers from factory.
func NewManager(factory RecognizerFactory, committer Committer, log logger.Logger, restartDelay time.Duration) *Manager {
	return &Manager{
		factory:      factory,
		committer:    committer,
		logger:       log,
		restartDelay: restartDelay,
		controllers:  make(map[string]Controller),
	}
}

// Start begins continuous capture for the session. It fails with
// ErrAlreadyListening while a controller for the session is active and with
// ErrCaptureUnsupported when the host cannot recognize speech.
func (m *Manager) Start(ctx context.Context, key models.SessionKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.controllers[key.SessionID]; ok && c.State() != Idle {
		return ErrAlreadyListening
	}

	rec, err := m.factory(key.SessionID)
	if err != nil {
		return err
	}

	c := New(key, rec, m.committer, m.logger, m.restartDelay)
	if err := c.Start(ctx); err != nil {
		return err
	}
	m.controllers[key.SessionID] = c
	return nil
}

// Stop ends capture for the session, if any, and waits for the final commit.
func (m *Manager) Stop(sessionID string) {
	m.mu.Lock()
	c, ok := m.controllers[sessionID]
	delete(m.controllers, sessionID)
	m.mu.Unlock()

	if ok {
		c.Stop()
	}
}

// Status reports the session's capture state; sessions never started are Idle.
func (m *Manager) Status(sessionID string) Status {
	m.mu.Lock()
	c, ok := m.controllers[sessionID]
	m.mu.Unlock()

	if !ok {
		return Status{State: Idle}
	}
	return Status{State: c.State(), LiveTranscript: c.LiveTranscript()}
}

// StopAll stops every active controller.
func (m *Manager) StopAll() {
	m.mu.Lock()
	controllers := m.controllers
	m.controllers = make(map[string]Controller)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range controllers {
		wg.Add(1)
		go func(c Controller) {
			defer wg.Done()
			c.Stop()
		}(c)
	}
	wg.Wait()
}
