package capture

import (
	"regexp"
	"strings"
)

var (
	reNurse   = regexp.MustCompile(`(?i)^nurse[\s:,]*`)
	rePatient = regexp.MustCompile(`(?i)^patient[\s:,]*`)
)

// TagSpeaker labels an utterance by its leading word. Text starting with
// "nurse" or "patient" (any case) has that prefix replaced by "Nurse: " or
// "Patient: "; anything else, the empty string included, becomes
// "Unspecified: " followed by the original text.
func TagSpeaker(text string) string {
	switch {
	case reNurse.MatchString(text):
		return "Nurse: " + reNurse.ReplaceAllLiteralString(text, "")
	case rePatient.MatchString(text):
		return "Patient: " + rePatient.ReplaceAllLiteralString(text, "")
	default:
		return "Unspecified: " + text
	}
}

// TranscriptBuffer accumulates the finalized segments of one run.
type TranscriptBuffer struct {
	parts []string
}

// Add appends a finalized segment. Blank segments are ignored.
func (b *TranscriptBuffer) Add(segment string) {
	if segment = strings.TrimSpace(segment); segment != "" {
		b.parts = append(b.parts, segment)
	}
}

// Empty reports whether nothing has been finalized yet.
func (b *TranscriptBuffer) Empty() bool {
	return len(b.parts) == 0
}

// String returns the segments joined by single spaces.
func (b *TranscriptBuffer) String() string {
	return strings.Join(b.parts, " ")
}

// Reset discards the buffered segments.
func (b *TranscriptBuffer) Reset() {
	b.parts = b.parts[:0]
}
