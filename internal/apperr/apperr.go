// Package apperr defines the error taxonomy shared by the summarization pipeline.
package apperr

import (
	"errors"
	"fmt"
)

// Category is the machine-checkable class of a failure.
type Category string

const (
	CategoryClient Category = "client_error"
	CategoryServer Category = "server_error"
)

// UnsupportedFormatError reports an upload whose suffix is not .pdf, .docx or .txt.
type UnsupportedFormatError struct {
	Name string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: %q", e.Name)
}

// ExtractionError reports a document that could not be opened at all.
type ExtractionError struct {
	Format string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("error processing %s: %v", e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// DecodingError reports a plain-text upload that is not valid UTF-8.
type DecodingError struct {
	Err error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("could not decode text as utf-8: %v", e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// EmptyContentError reports text that is blank after trimming.
type EmptyContentError struct{}

func (e *EmptyContentError) Error() string {
	return "no readable content found"
}

// ContentTooLargeError reports text above the character ceiling.
type ContentTooLargeError struct {
	Limit  int
	Actual int
}

func (e *ContentTooLargeError) Error() string {
	return fmt.Sprintf("document too large: max allowed %d characters, got %d", e.Limit, e.Actual)
}

// ModelLoadError is fatal: once returned, the gateway keeps returning it.
type ModelLoadError struct {
	Model string
	Err   error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load model %s: %v", e.Model, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// InferenceError wraps a tokenization or generation failure for one request.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("summarization error: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// CategoryOf maps an error to the category reported to callers.
// Extraction and validation failures are client errors; everything else is a server error.
func CategoryOf(err error) Category {
	var (
		unsupported *UnsupportedFormatError
		extraction  *ExtractionError
		decoding    *DecodingError
		empty       *EmptyContentError
		tooLarge    *ContentTooLargeError
	)
	switch {
	case errors.As(err, &unsupported),
		errors.As(err, &extraction),
		errors.As(err, &decoding),
		errors.As(err, &empty),
		errors.As(err, &tooLarge):
		return CategoryClient
	default:
		return CategoryServer
	}
}

// Kind returns a short stable name for the error type, used in logs and events.
func Kind(err error) string {
	var (
		unsupported *UnsupportedFormatError
		extraction  *ExtractionError
		decoding    *DecodingError
		empty       *EmptyContentError
		tooLarge    *ContentTooLargeError
		load        *ModelLoadError
		inference   *InferenceError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &unsupported):
		return "unsupported_format"
	case errors.As(err, &extraction):
		return "extraction"
	case errors.As(err, &decoding):
		return "decoding"
	case errors.As(err, &empty):
		return "empty_content"
	case errors.As(err, &tooLarge):
		return "content_too_large"
	case errors.As(err, &load):
		return "model_load"
	case errors.As(err, &inference):
		return "inference"
	default:
		return "internal"
	}
}
