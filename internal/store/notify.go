package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/nguyentantai21042004/chart-flow/internal/logger"
)

// notifier carries log changes between processes sharing one postgres
// database through LISTEN/NOTIFY.
type notifier struct {
	db       *sql.DB
	channel  string
	listener *pq.Listener
	logger   logger.Logger
	done     chan struct{}
}

func newNotifier(ctx context.Context, db *sql.DB, dsn, channel string, h *hub, log logger.Logger) (*notifier, error) {
	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Warn(context.Background(), "Postgres listener event %d: %v", ev, err)
		}
	})
	if err := listener.Listen(channel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}

	n := &notifier{
		db:       db,
		channel:  channel,
		listener: listener,
		logger:   log,
		done:     make(chan struct{}),
	}
	go n.run(h)

	log.Info(ctx, "Listening for log changes on channel %s", channel)
	return n, nil
}

func (n *notifier) run(h *hub) {
	defer close(n.done)
	for {
		select {
		case note, ok := <-n.listener.Notify:
			if !ok {
				return
			}
			// nil after a reconnect: notifications may have been missed
			if note == nil {
				h.publishAll()
				continue
			}
			h.publish(note.Extra)
		case <-time.After(90 * time.Second):
			go n.listener.Ping()
		}
	}
}

func (n *notifier) notify(ctx context.Context, sessionID string) error {
	_, err := n.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, n.channel, sessionID)
	return err
}

func (n *notifier) close() {
	n.listener.Close()
	<-n.done
}
