package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const fontName = "Courier New"

type implDOCX struct {
	opts Options
}

func (r *implDOCX) Format() string { return FormatDOCX }

func (r *implDOCX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// Render writes one bold label paragraph per block followed by its body
// paragraphs. Word processors wrap the text themselves.
func (r *implDOCX) Render(in Input) ([]byte, error) {
	page := Layout(in, r.opts)

	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("create docx: %w", err)
	}

	size := uint64(r.opts.FontSize)
	if size == 0 {
		size = 10
	}
	for i, b := range page.Blocks {
		labelSize := size
		if i == 0 {
			labelSize = size + 4
		}
		addRun(doc.AddParagraph(""), b.Label, true, labelSize)
		for _, p := range b.Paragraphs {
			addRun(doc.AddParagraph(""), p, false, size)
		}
		doc.AddParagraph("")
	}

	// godocx saves to a path; round-trip through a private temp dir
	dir, err := os.MkdirTemp("", "chartflow-docx-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "report.docx")
	if err := doc.SaveTo(path); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return os.ReadFile(path)
}

func addRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}
