package report

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
)

// Renderer writes a report document.
type Renderer interface {
	Render(in Input) ([]byte, error)
	Format() string
	ContentType() string
}

// New returns the renderer for format.
func New(format string, opts Options) (Renderer, error) {
	switch strings.ToLower(format) {
	case FormatPDF, "":
		return &implPDF{opts: opts}, nil
	case FormatDOCX:
		return &implDOCX{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

var reUnsafe = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// FileName names a session's report: <Patient>_<session>_Report.<ext>.
func FileName(patientName, sessionID, format string) string {
	patient := strings.Trim(reUnsafe.ReplaceAllString(strings.TrimSpace(patientName), "_"), "_.")
	if patient == "" {
		patient = "Patient"
	}
	session := strings.Trim(reUnsafe.ReplaceAllString(sessionID, "_"), "_.")

	name := patient
	if session != "" {
		name += "_" + session
	}
	ext := strings.ToLower(format)
	if ext == "" {
		ext = FormatPDF
	}
	return name + "_Report." + ext
}
