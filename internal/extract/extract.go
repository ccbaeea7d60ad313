// Package extract turns raw text or an uploaded PDF, DOCX or TXT file into plain text.
package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"doc-summarizer/internal/apperr"
)

// Format is the source format of extracted text.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDocx Format = "docx"
	FormatTxt  Format = "txt"
	FormatRaw  Format = "raw"
)

// Kind says which half of a Document is populated.
type Kind string

const (
	KindRawText Kind = "raw_text"
	KindUpload  Kind = "upload"
)

// Upload is a file received from a client. Body is read in full and its
// position is restored afterwards.
type Upload struct {
	Name string
	Body io.ReadSeeker
}

// Document is the unit of input: raw text or an uploaded file, never both.
type Document struct {
	Kind   Kind
	Text   string
	Upload Upload
}

// FromText builds a raw-text Document.
func FromText(text string) Document {
	return Document{Kind: KindRawText, Text: text}
}

// FromUpload builds an upload Document.
func FromUpload(name string, body io.ReadSeeker) Document {
	return Document{Kind: KindUpload, Upload: Upload{Name: name, Body: body}}
}

// Content is the text pulled out of a Document.
type Content struct {
	Text   string
	Format Format
}

// Options controls extraction.
type Options struct {
	// TempDir holds DOCX scratch files. Empty means os.TempDir().
	TempDir string
}

// Extractor dispatches a Document to the matching format reader.
type Extractor struct {
	log     *slog.Logger
	tempDir string
}

// New returns an Extractor.
func New(log *slog.Logger, opts Options) *Extractor {
	return &Extractor{
		log:     log.With("component", "extract"),
		tempDir: opts.TempDir,
	}
}

// Detect maps a filename to a Format by case-insensitive suffix, checked in the
// order .pdf, .docx, .txt.
func Detect(name string) (Format, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return FormatPDF, nil
	case strings.HasSuffix(lower, ".docx"):
		return FormatDocx, nil
	case strings.HasSuffix(lower, ".txt"):
		return FormatTxt, nil
	default:
		return "", &apperr.UnsupportedFormatError{Name: filepath.Base(name)}
	}
}

// Extract returns the text of doc. Raw text passes through untouched.
func (e *Extractor) Extract(ctx context.Context, doc Document) (Content, error) {
	switch doc.Kind {
	case KindRawText:
		return Content{Text: doc.Text, Format: FormatRaw}, nil
	case KindUpload:
		return e.extractUpload(ctx, doc.Upload)
	default:
		return Content{}, fmt.Errorf("unknown document kind %q", doc.Kind)
	}
}

func (e *Extractor) extractUpload(ctx context.Context, up Upload) (Content, error) {
	format, err := Detect(up.Name)
	if err != nil {
		return Content{}, err
	}
	if up.Body == nil {
		return Content{}, &apperr.ExtractionError{Format: string(format), Err: fmt.Errorf("upload %q has no body", up.Name)}
	}
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}

	start, err := up.Body.Seek(0, io.SeekCurrent)
	if err != nil {
		return Content{}, &apperr.ExtractionError{Format: string(format), Err: fmt.Errorf("read upload: %w", err)}
	}
	defer func() {
		if _, err := up.Body.Seek(start, io.SeekStart); err != nil {
			e.log.Warn("failed to rewind upload", "filename", up.Name, "err", err)
		}
	}()

	data, err := io.ReadAll(up.Body)
	if err != nil {
		return Content{}, &apperr.ExtractionError{Format: string(format), Err: fmt.Errorf("read upload: %w", err)}
	}

	var text string
	switch format {
	case FormatPDF:
		text, err = e.extractPDF(data)
	case FormatDocx:
		text, err = e.extractDocx(data)
	case FormatTxt:
		text, err = extractTxt(data)
	}
	if err != nil {
		return Content{}, err
	}

	e.log.Debug("extracted upload", "filename", up.Name, "format", format, "bytes", len(data), "chars", len(text))
	return Content{Text: text, Format: format}, nil
}
