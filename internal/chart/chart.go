// Package chart splits a summarizer response into its free-text summary and
// nursing chart, and decomposes the chart into the five fixed sections.
//
// Parsing is tolerant: markers are fixed keywords, matching is
// case-insensitive, content runs greedily to the next marker, and anything the
// parser does not recognise is dropped instead of reported.
package chart

import (
	"regexp"
	"strings"
)

// Section is one named part of the nursing chart.
type Section struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Canonical section names, in render order.
const (
	Assessment    = "Assessment"
	Diagnosis     = "Diagnosis"
	Plan          = "Plan"
	Interventions = "Interventions"
	Evaluation    = "Evaluation"
)

// Names is the closed vocabulary of chart sections in canonical order.
var Names = []string{Assessment, Diagnosis, Plan, Interventions, Evaluation}

const bullet = `(?:(?:[-*#]+|\d+\.)[ \t]*)?`

// markerPattern builds a regexp matching "<word>:" either in bold anywhere
// ("**Word:**", "**Word**:") or plain at the start of a line, optionally
// behind a list bullet or heading hashes. word may contain a capture group.
func markerPattern(word string) *regexp.Regexp {
	bold := `(?:^[ \t]*` + bullet + `)?\*\*[ \t]*` + word + `[ \t]*(?::[ \t]*\*\*|\*\*[ \t]*:)`
	plain := `^[ \t]*` + bullet + word + `[ \t]*:`
	return regexp.MustCompile(`(?im)` + bold + `|` + plain)
}

var (
	reSummary = markerPattern(`summary`)
	reChart   = markerPattern(`nursing[ \t]+chart`)
	reSection = markerPattern(`(assessment|diagnosis|plan|interventions|evaluation)`)
)

// SplitResponse separates a raw summarizer response into the summary and the
// nursing chart body. The summary is the text between the Summary marker and
// a later Nursing Chart marker; without both it is empty. The chart is
// everything after the Nursing Chart marker. A missing marker yields an empty
// part, never an error.
func SplitResponse(raw string) (summary, nursingChart string) {
	s := reSummary.FindStringIndex(raw)
	c := reChart.FindStringIndex(raw)
	if c == nil {
		return "", ""
	}

	if s != nil && c[0] >= s[1] {
		summary = strings.TrimSpace(raw[s[1]:c[0]])
	}
	nursingChart = strings.TrimSpace(raw[c[1]:])
	return summary, nursingChart
}

type marker struct {
	name       string
	start, end int
}

func findMarkers(body string) []marker {
	matches := reSection.FindAllStringSubmatchIndex(body, -1)
	markers := make([]marker, 0, len(matches))
	for _, m := range matches {
		var name string
		switch {
		case m[2] >= 0:
			name = body[m[2]:m[3]]
		case m[4] >= 0:
			name = body[m[4]:m[5]]
		default:
			continue
		}
		markers = append(markers, marker{name: canonical(name), start: m[0], end: m[1]})
	}
	return markers
}

func canonical(name string) string {
	for _, n := range Names {
		if strings.EqualFold(n, name) {
			return n
		}
	}
	return ""
}

// Sections returns the sections present in the chart body in canonical order.
// A section is present when its marker exists and is followed by non-blank
// content before the next marker or the end of text. When a name appears more
// than once the first occurrence wins.
func Sections(body string) []Section {
	markers := findMarkers(body)
	found := make(map[string]string, len(Names))
	for i, m := range markers {
		if _, ok := found[m.name]; ok {
			continue
		}
		end := len(body)
		if i+1 < len(markers) {
			end = markers[i+1].start
		}
		found[m.name] = strings.TrimSpace(body[m.end:end])
	}

	var out []Section
	for _, n := range Names {
		if content := found[n]; content != "" {
			out = append(out, Section{Name: n, Content: content})
		}
	}
	return out
}

// Extract returns the content of one section and whether it is present.
// name is matched case-insensitively against the canonical names; unknown
// names are never present.
func Extract(body, name string) (string, bool) {
	want := canonical(name)
	if want == "" {
		return "", false
	}
	for _, s := range Sections(body) {
		if s.Name == want {
			return s.Content, true
		}
	}
	return "", false
}

// Format renders sections back into chart text using bold markers, one
// section per paragraph. Extract and Sections read it back unchanged.
func Format(sections []Section) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, "**"+s.Name+":** "+s.Content)
	}
	return strings.Join(parts, "\n\n")
}
