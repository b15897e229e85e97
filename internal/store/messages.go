package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/chart-flow/internal/models"
)

const stampLayout = "2006-01-02 15:04:05"

// StampText prefixes text with its UTC commit time, "[YYYY-MM-DD HH:MM:SS UTC] ".
func StampText(ts time.Time, text string) string {
	return "[" + ts.UTC().Format(stampLayout) + " UTC] " + text
}

// AppendMessage commits one utterance. Its timestamp is the commit time, pushed
// past the session's last message when clocks collide so order is strict.
func (s *implStore) AppendMessage(ctx context.Context, key models.SessionKey, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := s.lockSession(ctx, tx, key); err != nil {
		return nil, err
	}

	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		s.q(`SELECT MAX(ts) FROM messages WHERE session_id = ?`), key.SessionID,
	).Scan(&last); err != nil {
		return nil, fmt.Errorf("last timestamp: %w", err)
	}

	ts := toNanos(s.now())
	if last.Valid && ts <= last.Int64 {
		ts = last.Int64 + 1
	}
	msg := &models.Message{
		ID:        uuid.NewString(),
		SessionID: key.SessionID,
		Timestamp: fromNanos(ts),
	}
	msg.Text = StampText(msg.Timestamp, text)

	if _, err := tx.ExecContext(ctx,
		s.q(`INSERT INTO messages (id, session_id, text, ts) VALUES (?, ?, ?, ?)`),
		msg.ID, msg.SessionID, msg.Text, ts,
	); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	if err := s.touch(ctx, tx, key); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.changed(ctx, key.SessionID)
	return msg, nil
}

// EditMessage replaces a message's text. Its position in the log is kept.
func (s *implStore) EditMessage(ctx context.Context, key models.SessionKey, messageID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := s.lockSession(ctx, tx, key); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		s.q(`UPDATE messages SET text = ? WHERE id = ? AND session_id = ?`),
		text, messageID, key.SessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrNotFound
	}

	msg := &models.Message{ID: messageID, SessionID: key.SessionID, Text: text}
	var ts int64
	if err := tx.QueryRowContext(ctx,
		s.q(`SELECT ts FROM messages WHERE id = ?`), messageID,
	).Scan(&ts); err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	msg.Timestamp = fromNanos(ts)

	if err := s.touch(ctx, tx, key); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.changed(ctx, key.SessionID)
	return msg, nil
}

// ListMessages returns the session's log ordered by timestamp.
func (s *implStore) ListMessages(ctx context.Context, key models.SessionKey) ([]models.Message, error) {
	if _, err := s.GetSession(ctx, key); err != nil {
		return nil, err
	}
	return s.listMessages(ctx, key.SessionID)
}

func (s *implStore) listMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, session_id, text, ts FROM messages WHERE session_id = ? ORDER BY ts, id`),
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := []models.Message{}
	for rows.Next() {
		var (
			m  models.Message
			ts int64
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Text, &ts); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Timestamp = fromNanos(ts)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *implStore) Subscribe(ctx context.Context, key models.SessionKey) (<-chan []models.Message, func(), error) {
	if _, err := s.GetSession(ctx, key); err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.subscribe(ctx, key.SessionID)
	return ch, cancel, nil
}

// lockSession checks the key inside tx and, on postgres, locks the session
// row until commit.
func (s *implStore) lockSession(ctx context.Context, tx *sql.Tx, key models.SessionKey) error {
	var id string
	err := tx.QueryRowContext(ctx,
		s.q(`SELECT id FROM sessions WHERE id = ? AND owner_id = ? AND patient_id = ?`+s.dialect.lockRow()),
		key.SessionID, key.OwnerID, key.PatientID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock session: %w", err)
	}
	return nil
}

func (s *implStore) touch(ctx context.Context, tx *sql.Tx, key models.SessionKey) error {
	if _, err := tx.ExecContext(ctx,
		s.q(`UPDATE sessions SET last_used_at = ?, revision = revision + 1 WHERE id = ?`),
		toNanos(s.now()), key.SessionID,
	); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}
