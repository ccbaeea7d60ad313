package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"doc-summarizer/internal/apperr"
)

const docxBody = "word/document.xml"

// extractDocx stages the upload in a temp file, reads it back as a zip
// archive and always removes the file before returning.
func (e *Extractor) extractDocx(data []byte) (string, error) {
	tmp, err := os.CreateTemp(e.tempDir, "upload-*.docx")
	if err != nil {
		return "", &apperr.ExtractionError{Format: string(FormatDocx), Err: fmt.Errorf("create temp file: %w", err)}
	}
	tmpPath := tmp.Name()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			e.log.Error("failed to remove temp file", "path", tmpPath, "err", err)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", &apperr.ExtractionError{Format: string(FormatDocx), Err: fmt.Errorf("write temp file: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		return "", &apperr.ExtractionError{Format: string(FormatDocx), Err: fmt.Errorf("close temp file: %w", err)}
	}

	text, err := docxText(tmpPath)
	if err != nil {
		return "", &apperr.ExtractionError{Format: string(FormatDocx), Err: err}
	}
	return text, nil
}

// docxText reads headers, the body and footers of the .docx at filePath.
func docxText(filePath string) (string, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	var body *zip.File
	var headers, footers []*zip.File
	for _, f := range zr.File {
		name := f.Name
		switch {
		case name == docxBody:
			body = f
		case path.Dir(name) == "word" && strings.HasPrefix(path.Base(name), "header") && strings.HasSuffix(name, ".xml"):
			headers = append(headers, f)
		case path.Dir(name) == "word" && strings.HasPrefix(path.Base(name), "footer") && strings.HasSuffix(name, ".xml"):
			footers = append(footers, f)
		}
	}
	if body == nil {
		return "", fmt.Errorf("%s not found", docxBody)
	}
	byName := func(files []*zip.File) {
		sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	}
	byName(headers)
	byName(footers)

	parts := append(append(headers, body), footers...)
	var b strings.Builder
	for _, f := range parts {
		if err := writePartText(&b, f); err != nil {
			return "", fmt.Errorf("read %s: %w", f.Name, err)
		}
	}
	return b.String(), nil
}

func writePartText(b *strings.Builder, f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteString("\t")
			case "br", "cr":
				b.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
}
