// Package report lays a session out as a vertical stack of labelled blocks
// and writes it as a PDF or DOCX document.
package report

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/nguyentantai21042004/chart-flow/internal/chart"
	"github.com/nguyentantai21042004/chart-flow/internal/models"
)

const (
	TitleLabel   = "Nursing Report"
	TimingLabel  = "Session Timing"
	SummaryLabel = "Summary"
	NotesLabel   = "Session Notes"

	timeLayout = "2006-01-02 15:04:05 UTC"

	// charWidth is the advance of a Courier glyph as a fraction of the font size.
	charWidth = 0.6
)

// Input is everything a report shows.
type Input struct {
	PatientName string
	SessionID   string
	StartedAt   *time.Time
	LastUsedAt  *time.Time
	Summary     string
	Sections    []chart.Section
	Notes       string
}

// FromSession builds the report input of a stored session. Chart sections
// are derived from the stored chart text.
func FromSession(patient *models.Patient, sess *models.Session) Input {
	in := Input{
		SessionID: sess.ID,
		Summary:   sess.Summary,
		Sections:  chart.Sections(sess.NursingChart),
		Notes:     sess.Notes,
	}
	if patient != nil {
		in.PatientName = patient.Name
	}
	if !sess.StartedAt.IsZero() {
		t := sess.StartedAt
		in.StartedAt = &t
	}
	if !sess.LastUsedAt.IsZero() {
		t := sess.LastUsedAt
		in.LastUsedAt = &t
	}
	return in
}

// Options controls geometry. Lengths are in points.
type Options struct {
	ContentWidth int // columns
	FontSize     float64
	LineSpacing  float64 // multiple of FontSize
	BlockSpacing float64
	Margin       float64
}

func DefaultOptions() Options {
	return Options{
		ContentWidth: 90,
		FontSize:     10,
		LineSpacing:  1.4,
		BlockSpacing: 14,
		Margin:       36,
	}
}

// Block is one label with its body. Paragraphs is the body as written; Lines
// is the body wrapped to the content width.
type Block struct {
	Label      string
	Paragraphs []string
	Lines      []string
	Y          float64
	Height     float64
}

// Page is a computed layout: blocks top to bottom on one continuous page.
type Page struct {
	Blocks     []Block
	Width      float64
	Height     float64
	LineHeight float64
	Options    Options
}

// Layout places the present blocks in order: title, timing, summary, chart
// sections, notes. Empty blocks are left out. Each block is one label line
// plus its wrapped lines, and the next block starts exactly BlockSpacing
// below it. The page grows to fit; there are no page breaks.
func Layout(in Input, opts Options) Page {
	lineHeight := opts.FontSize * opts.LineSpacing
	page := Page{
		LineHeight: lineHeight,
		Width:      2*opts.Margin + float64(opts.ContentWidth)*opts.FontSize*charWidth,
		Options:    opts,
	}

	cursor := opts.Margin
	add := func(label string, paragraphs []string) {
		lines := wrap(paragraphs, opts.ContentWidth)
		height := float64(1+len(lines)) * lineHeight
		page.Blocks = append(page.Blocks, Block{
			Label:      label,
			Paragraphs: paragraphs,
			Lines:      lines,
			Y:          cursor,
			Height:     height,
		})
		cursor += height + opts.BlockSpacing
	}

	add(TitleLabel, []string{"Patient: " + in.PatientName, "Session: " + in.SessionID})

	var timing []string
	if in.StartedAt != nil {
		timing = append(timing, "Session started: "+in.StartedAt.UTC().Format(timeLayout))
	}
	if in.LastUsedAt != nil {
		timing = append(timing, "Last updated: "+in.LastUsedAt.UTC().Format(timeLayout))
	}
	if len(timing) > 0 {
		add(TimingLabel, timing)
	}

	if s := strings.TrimSpace(in.Summary); s != "" {
		add(SummaryLabel, paragraphs(s))
	}

	present := make(map[string]string, len(in.Sections))
	for _, s := range in.Sections {
		if c := strings.TrimSpace(s.Content); c != "" {
			present[s.Name] = c
		}
	}
	for _, name := range chart.Names {
		if c, ok := present[name]; ok {
			add(name, paragraphs(c))
		}
	}

	if n := strings.TrimSpace(in.Notes); n != "" {
		add(NotesLabel, paragraphs(n))
	}

	page.Height = cursor + opts.Margin
	return page
}

func paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// wrap breaks each paragraph into lines of at most width columns, at spaces
// where possible. Blank paragraphs stay as blank lines.
func wrap(paragraphs []string, width int) []string {
	var out []string
	for _, p := range paragraphs {
		out = append(out, wrapParagraph(strings.TrimRight(p, " \t"), width)...)
	}
	return out
}

func wrapParagraph(p string, width int) []string {
	if width <= 0 || runewidth.StringWidth(p) <= width {
		return []string{p}
	}

	var (
		lines []string
		cur   strings.Builder
		curW  int
	)
	flush := func() {
		lines = append(lines, cur.String())
		cur.Reset()
		curW = 0
	}

	for _, word := range strings.Fields(p) {
		w := runewidth.StringWidth(word)
		if curW > 0 && curW+1+w > width {
			flush()
		}
		if curW > 0 {
			cur.WriteByte(' ')
			curW++
		}
		// words wider than a line are split on rune boundaries
		for w > width-curW {
			head := runewidth.Truncate(word, width-curW, "")
			if head == "" {
				if curW > 0 {
					flush()
					continue
				}
				_, size := utf8.DecodeRuneInString(word)
				head = word[:size]
			}
			cur.WriteString(head)
			flush()
			word = word[len(head):]
			w = runewidth.StringWidth(word)
		}
		cur.WriteString(word)
		curW += w
	}
	if curW > 0 || cur.Len() > 0 {
		flush()
	}
	return lines
}
