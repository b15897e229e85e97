package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/chart-flow/internal/models"
)

func (s *implStore) CreatePatient(ctx context.Context, ownerID, name string) (*models.Patient, error) {
	p := &models.Patient{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: fromNanos(toNanos(s.now())),
	}
	_, err := s.db.ExecContext(ctx,
		s.q(`INSERT INTO patients (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)`),
		p.ID, p.OwnerID, p.Name, toNanos(p.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert patient: %w", err)
	}
	return p, nil
}

func (s *implStore) GetPatient(ctx context.Context, ownerID, patientID string) (*models.Patient, error) {
	var (
		p       models.Patient
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT id, owner_id, name, created_at FROM patients WHERE id = ? AND owner_id = ?`),
		patientID, ownerID,
	).Scan(&p.ID, &p.OwnerID, &p.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	p.CreatedAt = fromNanos(created)
	return &p, nil
}

// CreateSession starts a new session for an existing patient. createdAt,
// startedAt and lastUsedAt all begin at the same instant.
func (s *implStore) CreateSession(ctx context.Context, ownerID, patientID string) (*models.Session, error) {
	if _, err := s.GetPatient(ctx, ownerID, patientID); err != nil {
		return nil, err
	}

	now := fromNanos(toNanos(s.now()))
	sess := &models.Session{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		PatientID:  patientID,
		CreatedAt:  now,
		StartedAt:  now,
		LastUsedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		s.q(`INSERT INTO sessions (id, owner_id, patient_id, created_at, started_at, last_used_at)
             VALUES (?, ?, ?, ?, ?, ?)`),
		sess.ID, ownerID, patientID, toNanos(now), toNanos(now), toNanos(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

const sessionColumns = `id, owner_id, patient_id, created_at, started_at, last_used_at,
    notes, summary, nursing_chart, generated_at, revision`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		sess                       models.Session
		created, started, lastUsed int64
		generated                  sql.NullInt64
	)
	err := row.Scan(&sess.ID, &sess.OwnerID, &sess.PatientID, &created, &started, &lastUsed,
		&sess.Notes, &sess.Summary, &sess.NursingChart, &generated, &sess.Revision)
	if err != nil {
		return nil, err
	}
	sess.CreatedAt = fromNanos(created)
	sess.StartedAt = fromNanos(started)
	sess.LastUsedAt = fromNanos(lastUsed)
	if generated.Valid {
		t := fromNanos(generated.Int64)
		sess.GeneratedAt = &t
	}
	return &sess, nil
}

func (s *implStore) GetSession(ctx context.Context, key models.SessionKey) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		s.q(`SELECT `+sessionColumns+` FROM sessions WHERE id = ? AND owner_id = ? AND patient_id = ?`),
		key.SessionID, key.OwnerID, key.PatientID,
	)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// ListSessions returns the patient's sessions, newest first.
func (s *implStore) ListSessions(ctx context.Context, ownerID, patientID string) ([]models.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT `+sessionColumns+` FROM sessions
             WHERE owner_id = ? AND patient_id = ?
             ORDER BY created_at DESC, id DESC`),
		ownerID, patientID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, *sess)
	}
	return out, rows.Err()
}

func (s *implStore) UpdateNotes(ctx context.Context, key models.SessionKey, notes string, expectedRevision *int64) (*models.Session, error) {
	query := `UPDATE sessions SET notes = ?, last_used_at = ?, revision = revision + 1
              WHERE id = ? AND owner_id = ? AND patient_id = ?`
	args := []any{notes, toNanos(s.now()), key.SessionID, key.OwnerID, key.PatientID}
	if expectedRevision != nil {
		query += ` AND revision = ?`
		args = append(args, *expectedRevision)
	}

	res, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("update notes: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		if _, err := s.GetSession(ctx, key); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	return s.GetSession(ctx, key)
}

// SaveGeneration writes summary, chart and generatedAt in one statement.
func (s *implStore) SaveGeneration(ctx context.Context, key models.SessionKey, gen models.Generation) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE sessions
             SET summary = ?, nursing_chart = ?, generated_at = ?, last_used_at = ?, revision = revision + 1
             WHERE id = ? AND owner_id = ? AND patient_id = ?`),
		gen.Summary, gen.NursingChart, toNanos(gen.GeneratedAt), toNanos(s.now()),
		key.SessionID, key.OwnerID, key.PatientID,
	)
	if err != nil {
		return fmt.Errorf("save generation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
