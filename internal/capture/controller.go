package capture

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Start enters Listening and runs the restart loop in the background until
// Stop is called. The loop outlives ctx's cancellation but keeps its values.
func (c *implController) Start(ctx context.Context) error {
	if err := c.recognizer.Available(); err != nil {
		return fmt.Errorf("%w: %v", ErrCaptureUnsupported, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done != nil {
		return ErrAlreadyListening
	}

	base := context.WithoutCancel(ctx)
	loopCtx, cancel := context.WithCancel(base)

	c.shouldContinue = true
	c.cancel = cancel
	c.done = make(chan struct{})
	c.state = Listening
	c.live = ""

	c.logger.Info(ctx, "Capture started for session %s", c.key.SessionID)
	go c.loop(base, loopCtx, c.done)
	return nil
}

// Stop clears the continue flag before ending the current run, then waits
// for the loop to commit whatever the run had finalized and exit.
func (c *implController) Stop() {
	c.mu.Lock()
	c.shouldContinue = false
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if done == nil {
		return
	}
	cancel()
	<-done
}

func (c *implController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LiveTranscript returns the latest interim text. It is display-only state.
func (c *implController) LiveTranscript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

func (c *implController) loop(base, loopCtx context.Context, done chan struct{}) {
	defer close(done)
	defer c.finish(base)

	for c.continuing() {
		c.setState(Listening, "")

		results, err := c.recognizer.Start(loopCtx)
		if err != nil {
			c.logger.Warn(base, "Recognition run failed to start for session %s: %v", c.key.SessionID, err)
			select {
			case <-loopCtx.Done():
				return
			case <-time.After(c.restartDelay):
			}
			continue
		}

		c.consume(base, results)

		if c.continuing() {
			c.setState(Restarting, "")
			c.logger.Debug(base, "Recognition run ended, restarting for session %s", c.key.SessionID)
		}
	}
}

// consume drains one run and commits its buffer when the run terminates.
func (c *implController) consume(ctx context.Context, results <-chan Result) {
	var buf TranscriptBuffer

	for r := range results {
		if r.Err != nil {
			c.logger.Warn(ctx, "Recognition error for session %s: %v", c.key.SessionID, r.Err)
			continue
		}
		text := strings.TrimSpace(r.Text)
		if !r.Final {
			c.setState(Interim, text)
			continue
		}
		buf.Add(text)
		c.setState(Finalized, "")
	}

	if !buf.Empty() {
		c.commit(ctx, buf.String())
	}
	buf.Reset()
	c.setLive("")
}

func (c *implController) commit(ctx context.Context, text string) {
	tagged := TagSpeaker(text)
	msg, err := c.committer.AppendMessage(ctx, c.key, tagged)
	if err != nil {
		c.logger.Error(ctx, "Failed to commit utterance for session %s: %v", c.key.SessionID, err)
		return
	}
	if c.commits != nil {
		c.commits.Add(ctx, 1)
	}
	c.logger.Info(ctx, "Committed message %s for session %s", msg.ID, c.key.SessionID)
}

func (c *implController) continuing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shouldContinue
}

func (c *implController) setState(s State, live string) {
	c.mu.Lock()
	c.state = s
	c.live = live
	c.mu.Unlock()
}

func (c *implController) setLive(live string) {
	c.mu.Lock()
	c.live = live
	c.mu.Unlock()
}

func (c *implController) finish(ctx context.Context) {
	c.mu.Lock()
	c.cancel()
	c.state = Idle
	c.live = ""
	c.cancel = nil
	c.done = nil
	c.shouldContinue = false
	c.mu.Unlock()

	c.logger.Info(ctx, "Capture stopped for session %s", c.key.SessionID)
}
