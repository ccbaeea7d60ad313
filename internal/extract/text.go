package extract

import (
	"fmt"
	"unicode/utf8"

	"doc-summarizer/internal/apperr"
)

func extractTxt(data []byte) (string, error) {
	if offset := invalidUTF8Offset(data); offset >= 0 {
		return "", &apperr.DecodingError{Err: fmt.Errorf("invalid utf-8 byte sequence at offset %d", offset)}
	}
	return string(data), nil
}

// invalidUTF8Offset returns the byte offset of the first invalid sequence, or -1.
func invalidUTF8Offset(data []byte) int {
	if utf8.Valid(data) {
		return -1
	}
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}
