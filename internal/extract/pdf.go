package extract

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"doc-summarizer/internal/apperr"
)

const (
	// fallbackXTolerance is the horizontal gap, in text-space units, above which
	// two glyphs on a line are separated by a space in the fallback pass.
	fallbackXTolerance = 2.0
	// lineYTolerance groups glyphs whose baselines differ by at most this much.
	lineYTolerance = 3.0
)

// pdfPage is one page of an opened PDF.
type pdfPage interface {
	PlainText() (string, error)
	SpacedText(xTolerance float64) (string, error)
}

// pageResult is the outcome of reading one page: text, or an error that
// causes the page to be skipped.
type pageResult struct {
	text string
	err  error
}

func (e *Extractor) extractPDF(data []byte) (string, error) {
	pages, err := openPDF(data)
	if err != nil {
		return "", &apperr.ExtractionError{Format: string(FormatPDF), Err: err}
	}

	results := make([]pageResult, len(pages))
	for i, p := range pages {
		results[i] = readPage(p)
		if results[i].err != nil {
			e.log.Warn("skipping unreadable pdf page", "page", i+1, "err", results[i].err)
		}
	}
	return joinPages(results), nil
}

// openPDF parses the document structure. The pdf package panics on some
// malformed inputs, so panics are turned into errors.
func openPDF(data []byte) (pages []pdfPage, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	n := r.NumPage()
	pages = make([]pdfPage, 0, n)
	for num := 1; num <= n; num++ {
		pages = append(pages, pageRef{reader: r, num: num})
	}
	return pages, nil
}

// readPage tries the primary extraction, then the tolerance pass when the
// primary one yields only whitespace. Errors and panics mark the page skipped.
func readPage(p pdfPage) (res pageResult) {
	defer func() {
		if rec := recover(); rec != nil {
			res = pageResult{err: fmt.Errorf("page extraction panicked: %v", rec)}
		}
	}()

	text, err := p.PlainText()
	if err != nil {
		return pageResult{err: err}
	}
	if strings.TrimSpace(text) != "" {
		return pageResult{text: text}
	}

	text, err = p.SpacedText(fallbackXTolerance)
	if err != nil {
		return pageResult{err: err}
	}
	return pageResult{text: text}
}

// joinPages concatenates readable pages in order, each followed by a newline.
func joinPages(results []pageResult) string {
	var b strings.Builder
	for _, r := range results {
		if r.err != nil {
			continue
		}
		b.WriteString(r.text)
		b.WriteString("\n")
	}
	return b.String()
}

type pageRef struct {
	reader *pdf.Reader
	num    int
}

func (p pageRef) page() (pdf.Page, bool) {
	page := p.reader.Page(p.num)
	if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
		return page, false
	}
	return page, true
}

func (p pageRef) PlainText() (string, error) {
	page, ok := p.page()
	if !ok {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func (p pageRef) SpacedText(xTolerance float64) (string, error) {
	page, ok := p.page()
	if !ok {
		return "", nil
	}
	content := page.Content()
	glyphs := make([]glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, glyph{x: t.X, y: t.Y, w: t.W, s: t.S})
	}
	return layoutGlyphs(glyphs, xTolerance), nil
}

// glyph is a positioned run of text on a page.
type glyph struct {
	x, y, w float64
	s       string
}

// layoutGlyphs rebuilds lines from positioned glyphs: top to bottom, left to
// right, with a space wherever the horizontal gap exceeds xTolerance.
func layoutGlyphs(glyphs []glyph, xTolerance float64) string {
	if len(glyphs) == 0 {
		return ""
	}
	sorted := make([]glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].y > sorted[j].y })

	var lines [][]glyph
	for _, g := range sorted {
		n := len(lines)
		if n > 0 && math.Abs(lines[n-1][0].y-g.y) <= lineYTolerance {
			lines[n-1] = append(lines[n-1], g)
			continue
		}
		lines = append(lines, []glyph{g})
	}

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		sort.SliceStable(line, func(a, c int) bool { return line[a].x < line[c].x })
		for j, g := range line {
			if j > 0 {
				prev := line[j-1]
				if g.x-(prev.x+prev.w) > xTolerance {
					b.WriteString(" ")
				}
			}
			b.WriteString(g.s)
		}
	}
	return b.String()
}
