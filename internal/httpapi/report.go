package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/nguyentantai21042004/chart-flow/internal/report"
)

// handleReport renders the session as a downloadable document. The format
// comes from ?format= and defaults to the configured one.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = s.deps.ReportFormat
	}
	renderer, err := report.New(format, s.deps.ReportOptions)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := sessionKey(r)
	sess, err := s.deps.Store.GetSession(r.Context(), key)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	patient, err := s.deps.Store.GetPatient(r.Context(), key.OwnerID, key.PatientID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	_, span := s.tracer.Start(r.Context(), "report.Render")
	span.SetAttributes(
		attribute.String("report.format", renderer.Format()),
		attribute.String("session.id", sess.ID),
	)
	data, err := renderer.Render(report.FromSession(patient, sess))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		s.fail(w, r, fmt.Errorf("render report: %w", err))
		return
	}
	span.SetAttributes(attribute.Int("report.bytes", len(data)))
	span.End()

	name := report.FileName(patient.Name, sess.ID, renderer.Format())
	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
