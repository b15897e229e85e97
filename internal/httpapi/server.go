// Package httpapi exposes sessions, the live message log, capture control,
// summarization and report export over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/nguyentantai21042004/chart-flow/internal/capture"
	"github.com/nguyentantai21042004/chart-flow/internal/logger"
	"github.com/nguyentantai21042004/chart-flow/internal/models"
	"github.com/nguyentantai21042004/chart-flow/internal/orchestrator"
	"github.com/nguyentantai21042004/chart-flow/internal/report"
	"github.com/nguyentantai21042004/chart-flow/internal/store"
	"github.com/nguyentantai21042004/chart-flow/internal/summarizer"
)

// Deps are the services behind the API. Provider is optional; when set the
// server also answers POST /summary as a summarization provider.
type Deps struct {
	Store         store.Store
	Captures      *capture.Manager
	Orchestrator  orchestrator.Orchestrator
	Provider      summarizer.Client
	ReportFormat  string
	ReportOptions report.Options
	Logger        logger.Logger
}

type Server struct {
	deps     Deps
	mux      *http.ServeMux
	upgrader websocket.Upgrader
	tracer   trace.Tracer
	// keepAlive is the SSE comment interval that keeps idle proxies open.
	keepAlive time.Duration
}

// New creates the API handler.
func New(deps Deps) *Server {
	s := &Server{
		deps: deps,
		mux:  http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		tracer:    otel.Tracer("chart-flow/httpapi"),
		keepAlive: 25 * time.Second,
	}
	s.routes()
	return s
}

const sessionPath = "/api/owners/{owner}/patients/{patient}/sessions/{session}"

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /api/owners/{owner}/patients", s.handleCreatePatient)
	s.mux.HandleFunc("GET /api/owners/{owner}/patients/{patient}", s.handleGetPatient)
	s.mux.HandleFunc("POST /api/owners/{owner}/patients/{patient}/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/owners/{owner}/patients/{patient}/sessions", s.handleListSessions)

	s.mux.HandleFunc("GET "+sessionPath, s.handleGetSession)
	s.mux.HandleFunc("PUT "+sessionPath+"/notes", s.handleUpdateNotes)

	s.mux.HandleFunc("GET "+sessionPath+"/messages", s.handleListMessages)
	s.mux.HandleFunc("POST "+sessionPath+"/messages", s.handleAppendMessage)
	s.mux.HandleFunc("PATCH "+sessionPath+"/messages/{message}", s.handleEditMessage)
	s.mux.HandleFunc("GET "+sessionPath+"/messages/stream", s.handleStream)
	s.mux.HandleFunc("GET "+sessionPath+"/messages/ws", s.handleWebSocket)

	s.mux.HandleFunc("GET "+sessionPath+"/capture", s.handleCaptureStatus)
	s.mux.HandleFunc("POST "+sessionPath+"/capture/start", s.handleCaptureStart)
	s.mux.HandleFunc("POST "+sessionPath+"/capture/stop", s.handleCaptureStop)

	s.mux.HandleFunc("POST "+sessionPath+"/summary", s.handleGenerate)
	s.mux.HandleFunc("GET "+sessionPath+"/report", s.handleReport)

	if s.deps.Provider != nil {
		s.mux.HandleFunc("POST /summary", s.handleProvider)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func sessionKey(r *http.Request) models.SessionKey {
	return models.SessionKey{
		OwnerID:   r.PathValue("owner"),
		PatientID: r.PathValue("patient"),
		SessionID: r.PathValue("session"),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}

// fail maps domain errors onto status codes. Anything unknown is a 500 with
// a generic message; the detail goes to the log.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, capture.ErrAlreadyListening):
		writeError(w, http.StatusConflict, "already listening")
	case errors.Is(err, capture.ErrCaptureUnsupported):
		writeError(w, http.StatusNotImplemented, "speech capture is not supported on this host")
	case errors.Is(err, orchestrator.ErrNothingToSummarize):
		writeError(w, http.StatusUnprocessableEntity, "nothing to summarize")
	case errors.Is(err, orchestrator.ErrSummarizationFailed):
		s.deps.Logger.Warn(r.Context(), "%s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusBadGateway, "summarization failed")
	case errors.Is(err, orchestrator.ErrSaveFailed):
		s.deps.Logger.Error(r.Context(), "%s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, "save failed")
	default:
		s.deps.Logger.Error(r.Context(), "%s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.Ping(r.Context()); err != nil {
		s.deps.Logger.Error(r.Context(), "Health check failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
