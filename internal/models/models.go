// Package models holds the records shared by the capture, store, summarization
// and report packages.
package models

import "time"

// Patient owns a list of sessions. Only the fields the pipeline reads are kept.
type Patient struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is one clinical encounter with one patient.
type Session struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"ownerId"`
	PatientID    string     `json:"patientId"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    time.Time  `json:"startedAt"`
	LastUsedAt   time.Time  `json:"lastUsedAt"`
	Notes        string     `json:"sessionNotes"`
	Summary      string     `json:"summary"`
	NursingChart string     `json:"nursingChart"`
	GeneratedAt  *time.Time `json:"generatedAt,omitempty"`
	Revision     int64      `json:"revision"`
}

// Key returns the key path addressing this session.
func (s *Session) Key() SessionKey {
	return SessionKey{OwnerID: s.OwnerID, PatientID: s.PatientID, SessionID: s.ID}
}

// Message is one speaker-tagged, timestamp-prefixed transcript line.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionKey is the owner -> patient -> session path of a session.
type SessionKey struct {
	OwnerID   string
	PatientID string
	SessionID string
}

// Generation is the outcome of one successful summarization.
type Generation struct {
	Summary      string    `json:"summary"`
	NursingChart string    `json:"nursingChart"`
	GeneratedAt  time.Time `json:"generatedAt"`
	MessageCount int       `json:"messageCount"`
}
