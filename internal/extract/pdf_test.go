package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-summarizer/internal/apperr"
	"doc-summarizer/internal/extract/extracttest"
)

type fakePage struct {
	plain      string
	plainErr   error
	spaced     string
	spacedErr  error
	panicWith  any
	spacedUsed bool
}

func (p *fakePage) PlainText() (string, error) {
	if p.panicWith != nil {
		panic(p.panicWith)
	}
	return p.plain, p.plainErr
}

func (p *fakePage) SpacedText(float64) (string, error) {
	p.spacedUsed = true
	return p.spaced, p.spacedErr
}

func readAll(pages ...*fakePage) string {
	results := make([]pageResult, len(pages))
	for i, p := range pages {
		results[i] = readPage(p)
	}
	return joinPages(results)
}

func TestReadPagesSkipsFailingPage(t *testing.T) {
	got := readAll(
		&fakePage{plain: "page one"},
		&fakePage{plainErr: errors.New("bad font")},
		&fakePage{plain: "page three"},
	)

	assert.Equal(t, "page one\npage three\n", got)
}

func TestReadPagesRecoversFromPanic(t *testing.T) {
	got := readAll(
		&fakePage{plain: "first"},
		&fakePage{panicWith: "malformed stream"},
		&fakePage{plain: "last"},
	)

	assert.Equal(t, "first\nlast\n", got)
}

func TestReadPageFallsBackOnWhitespace(t *testing.T) {
	page := &fakePage{plain: " \n\t", spaced: "spaced out text"}

	res := readPage(page)

	require.NoError(t, res.err)
	assert.True(t, page.spacedUsed)
	assert.Equal(t, "spaced out text", res.text)
}

func TestReadPagePrimaryTextSkipsFallback(t *testing.T) {
	page := &fakePage{plain: "already fine"}

	res := readPage(page)

	assert.False(t, page.spacedUsed)
	assert.Equal(t, "already fine", res.text)
}

func TestReadPageFallbackErrorSkipsPage(t *testing.T) {
	got := readAll(
		&fakePage{plain: "", spacedErr: errors.New("no glyphs")},
		&fakePage{plain: "kept"},
	)

	assert.Equal(t, "kept\n", got)
}

func TestReadPagesImageOnlyYieldsWhitespace(t *testing.T) {
	got := readAll(&fakePage{}, &fakePage{})

	assert.Equal(t, "\n\n", got)
	assert.Empty(t, strings.TrimSpace(got))
}

func TestLayoutGlyphs(t *testing.T) {
	tests := []struct {
		name   string
		glyphs []glyph
		want   string
	}{
		{"empty", nil, ""},
		{
			name: "tight glyphs join without space",
			glyphs: []glyph{
				{x: 10, y: 700, w: 5, s: "H"},
				{x: 15, y: 700, w: 5, s: "i"},
			},
			want: "Hi",
		},
		{
			name: "wide gap inserts space",
			glyphs: []glyph{
				{x: 10, y: 700, w: 20, s: "Hello"},
				{x: 40, y: 700, w: 20, s: "World"},
			},
			want: "Hello World",
		},
		{
			name: "lines ordered top to bottom and left to right",
			glyphs: []glyph{
				{x: 40, y: 686, w: 10, s: "two"},
				{x: 10, y: 700, w: 10, s: "line"},
				{x: 10, y: 686, w: 10, s: "line"},
				{x: 40, y: 701, w: 10, s: "one"},
			},
			want: "line one\nline two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, layoutGlyphs(tt.glyphs, fallbackXTolerance))
		})
	}
}

func TestExtractPDFPagesInOrder(t *testing.T) {
	ex, _ := newTestExtractor(t)
	data := extracttest.BuildPDF(
		extracttest.TextPage("Alpha"),
		extracttest.ImagePage(),
		extracttest.TextPage("Gamma"),
	)

	text, err := ex.extractPDF(data)

	require.NoError(t, err)
	alpha := strings.Index(text, "Alpha")
	gamma := strings.Index(text, "Gamma")
	require.GreaterOrEqual(t, alpha, 0)
	require.Greater(t, gamma, alpha)
	assert.Equal(t, 3, strings.Count(text, "\n"))
}

func TestExtractPDFScannedPagesOnlyWhitespace(t *testing.T) {
	ex, _ := newTestExtractor(t)

	text, err := ex.extractPDF(extracttest.BuildPDF(extracttest.ImagePage(), extracttest.ImagePage()))

	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(text))
}

func TestExtractPDFUnopenable(t *testing.T) {
	ex, _ := newTestExtractor(t)

	_, err := ex.extractPDF([]byte("%PDF-1.4 truncated"))

	var extraction *apperr.ExtractionError
	require.ErrorAs(t, err, &extraction)
	assert.Equal(t, "pdf", extraction.Format)
}
