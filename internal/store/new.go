package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/nguyentantai21042004/chart-flow/internal/logger"
)

// Options configures New.
type Options struct {
	Driver        string // sqlite or postgres
	DSN           string
	NotifyChannel string
	Logger        logger.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

type implStore struct {
	db       *sql.DB
	dialect  dialect
	logger   logger.Logger
	now      func() time.Time
	hub      *hub
	notifier *notifier
}

// New opens the database, applies the schema and, for postgres, starts the
// change listener.
func New(ctx context.Context, opts Options) (Store, error) {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var (
		db  *sql.DB
		err error
	)
	switch opts.Driver {
	case DriverSQLite, "":
		opts.Driver = DriverSQLite
		db, err = openSQLite(ctx, opts.DSN)
	case DriverPostgres:
		db, err = openPostgres(ctx, opts.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	s := &implStore{
		db:      db,
		dialect: dialect{driver: opts.Driver},
		logger:  opts.Logger,
		now:     opts.Now,
	}
	s.hub = newHub(s.listMessages, opts.Logger)

	if opts.Driver == DriverPostgres && opts.NotifyChannel != "" {
		n, err := newNotifier(ctx, db, opts.DSN, opts.NotifyChannel, s.hub, opts.Logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		s.notifier = n
	}
	return s, nil
}

func openSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one writer; also keeps transactions on a session strictly serialized
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqlitePragmas+schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return db, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return db, nil
}

func (s *implStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *implStore) Close() error {
	s.hub.close()
	if s.notifier != nil {
		s.notifier.close()
	}
	return s.db.Close()
}

// changed tells local subscribers, and with postgres every other process,
// that a session's log changed.
func (s *implStore) changed(ctx context.Context, sessionID string) {
	s.hub.publish(sessionID)
	if s.notifier != nil {
		if err := s.notifier.notify(ctx, sessionID); err != nil {
			s.logger.Warn(ctx, "Failed to notify change of session %s: %v", sessionID, err)
		}
	}
}

func (s *implStore) q(query string) string {
	return s.dialect.rebind(query)
}

func toNanos(t time.Time) int64 {
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
