package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/nguyentantai21042004/chart-flow/internal/chart"
	"github.com/nguyentantai21042004/chart-flow/internal/summarizer"
)

type generateResponse struct {
	Summary      string          `json:"summary"`
	NursingChart string          `json:"nursingChart"`
	Sections     []chart.Section `json:"sections"`
	GeneratedAt  time.Time       `json:"generatedAt"`
	MessageCount int             `json:"messageCount"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	gen, err := s.deps.Orchestrator.Generate(r.Context(), sessionKey(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sections := chart.Sections(gen.NursingChart)
	if sections == nil {
		sections = []chart.Section{}
	}
	writeJSON(w, http.StatusOK, generateResponse{
		Summary:      gen.Summary,
		NursingChart: gen.NursingChart,
		Sections:     sections,
		GeneratedAt:  gen.GeneratedAt,
		MessageCount: gen.MessageCount,
	})
}

// handleProvider serves the summarization provider contract used by remote
// summarizer clients: {"messages": transcript} in, {"summary": text} out.
func (s *Server) handleProvider(w http.ResponseWriter, r *http.Request) {
	var req summarizer.Request
	if err := decode(w, r, &req); err != nil || strings.TrimSpace(req.Messages) == "" {
		writeJSON(w, http.StatusBadRequest, summarizer.ErrorResponse{Error: "No conversation provided"})
		return
	}

	text, err := s.deps.Provider.Summarize(r.Context(), strings.TrimSpace(req.Messages))
	if err != nil {
		s.deps.Logger.Error(r.Context(), "Summary provider failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, summarizer.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summarizer.Response{Summary: text})
}
