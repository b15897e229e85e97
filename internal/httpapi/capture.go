package httpapi

import (
	"net/http"
)

func (s *Server) handleCaptureStatus(w http.ResponseWriter, r *http.Request) {
	key := sessionKey(r)
	if _, err := s.deps.Store.GetSession(r.Context(), key); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Captures.Status(key.SessionID))
}

// handleCaptureStart begins continuous capture. The capture loop outlives the
// request; it runs until capture/stop or shutdown.
func (s *Server) handleCaptureStart(w http.ResponseWriter, r *http.Request) {
	key := sessionKey(r)
	if _, err := s.deps.Store.GetSession(r.Context(), key); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.deps.Captures.Start(r.Context(), key); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Captures.Status(key.SessionID))
}

// handleCaptureStop ends capture and returns once the final utterance, if
// any, has been committed.
func (s *Server) handleCaptureStop(w http.ResponseWriter, r *http.Request) {
	key := sessionKey(r)
	if _, err := s.deps.Store.GetSession(r.Context(), key); err != nil {
		s.fail(w, r, err)
		return
	}
	s.deps.Captures.Stop(key.SessionID)
	writeJSON(w, http.StatusOK, s.deps.Captures.Status(key.SessionID))
}
