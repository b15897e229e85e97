// Package store persists patients, sessions and the per-session message log,
// and fans out log changes to live subscribers.
package store

import (
	"context"
	"errors"

	"github.com/nguyentantai21042004/chart-flow/internal/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyMessage = errors.New("message text is empty")
	ErrConflict     = errors.New("session was modified concurrently")
)

// Store is the system of record for sessions and their message logs. Every
// session-scoped call is addressed by a SessionKey; a session looked up under
// the wrong owner or patient is ErrNotFound.
type Store interface {
	CreatePatient(ctx context.Context, ownerID, name string) (*models.Patient, error)
	GetPatient(ctx context.Context, ownerID, patientID string) (*models.Patient, error)

	CreateSession(ctx context.Context, ownerID, patientID string) (*models.Session, error)
	GetSession(ctx context.Context, key models.SessionKey) (*models.Session, error)
	ListSessions(ctx context.Context, ownerID, patientID string) ([]models.Session, error)
	// UpdateNotes overwrites the session notes. When expectedRevision is set
	// and no longer matches, nothing is written and ErrConflict is returned.
	UpdateNotes(ctx context.Context, key models.SessionKey, notes string, expectedRevision *int64) (*models.Session, error)
	SaveGeneration(ctx context.Context, key models.SessionKey, gen models.Generation) error

	AppendMessage(ctx context.Context, key models.SessionKey, text string) (*models.Message, error)
	EditMessage(ctx context.Context, key models.SessionKey, messageID, text string) (*models.Message, error)
	ListMessages(ctx context.Context, key models.SessionKey) ([]models.Message, error)
	// Subscribe delivers the full ordered log now and again after every
	// change. A slow reader only sees the newest log. The channel is closed
	// once cancel is called or ctx ends.
	Subscribe(ctx context.Context, key models.SessionKey) (<-chan []models.Message, func(), error)

	Ping(ctx context.Context) error
	Close() error
}
