// Package validate enforces the content limits applied before inference.
package validate

import (
	"strings"
	"unicode/utf8"

	"doc-summarizer/internal/apperr"
	"doc-summarizer/internal/extract"
)

// MaxInputLength is the character ceiling at the API boundary. It bounds
// request cost; the model's token ceiling is enforced later by the tokenizer.
const MaxInputLength = 16000

// Content is extracted text known to be non-blank and within MaxInputLength.
type Content struct {
	extract.Content
	Characters int
}

// Validate checks c and returns it unchanged on success. Length is counted in
// Unicode code points.
func Validate(c extract.Content) (Content, error) {
	if strings.TrimSpace(c.Text) == "" {
		return Content{}, &apperr.EmptyContentError{}
	}
	n := utf8.RuneCountInString(c.Text)
	if n > MaxInputLength {
		return Content{}, &apperr.ContentTooLargeError{Limit: MaxInputLength, Actual: n}
	}
	return Content{Content: c, Characters: n}, nil
}
