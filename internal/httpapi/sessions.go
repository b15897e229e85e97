package httpapi

import (
	"net/http"
	"strings"

	"github.com/nguyentantai21042004/chart-flow/internal/chart"
	"github.com/nguyentantai21042004/chart-flow/internal/models"
)

type createPatientRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var req createPatientRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "patient name is required")
		return
	}

	p, err := s.deps.Store.CreatePatient(r.Context(), r.PathValue("owner"), name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Store.GetPatient(r.Context(), r.PathValue("owner"), r.PathValue("patient"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// sessionResponse is a session with its chart sections derived on read.
type sessionResponse struct {
	*models.Session
	Sections []chart.Section `json:"sections"`
}

func newSessionResponse(sess *models.Session) sessionResponse {
	sections := chart.Sections(sess.NursingChart)
	if sections == nil {
		sections = []chart.Section{}
	}
	return sessionResponse{Session: sess, Sections: sections}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Store.CreateSession(r.Context(), r.PathValue("owner"), r.PathValue("patient"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	owner, patient := r.PathValue("owner"), r.PathValue("patient")
	if _, err := s.deps.Store.GetPatient(r.Context(), owner, patient); err != nil {
		s.fail(w, r, err)
		return
	}
	list, err := s.deps.Store.ListSessions(r.Context(), owner, patient)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []models.Session{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Store.GetSession(r.Context(), sessionKey(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

type updateNotesRequest struct {
	Notes    string `json:"notes"`
	Revision *int64 `json:"revision,omitempty"`
}

// handleUpdateNotes overwrites the notes. Sending the revision last read
// turns the write into a compare-and-set answered with 409 on mismatch.
func (s *Server) handleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req updateNotesRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := s.deps.Store.UpdateNotes(r.Context(), sessionKey(r), req.Notes, req.Revision)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}
