package model

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// EncodingRune selects the one-token-per-code-point tokenizer.
const EncodingRune = "rune"

// NewTokenizer returns the tokenizer for encoding: "rune", a tiktoken
// encoding name such as r50k_base, or a model name tiktoken knows.
// tiktoken fetches its BPE ranks on first use; set TIKTOKEN_CACHE_DIR to
// serve them from disk.
func NewTokenizer(encoding string) (Tokenizer, error) {
	if encoding == EncodingRune {
		return RuneTokenizer{}, nil
	}
	enc, err := tiktoken.EncodingForModel(encoding)
	if err != nil {
		enc, err = tiktoken.GetEncoding(encoding)
		if err != nil {
			return nil, fmt.Errorf("load tokenizer %q: %w", encoding, err)
		}
	}
	return &BPETokenizer{enc: enc}, nil
}

// BPETokenizer is a byte-pair tokenizer backed by tiktoken.
type BPETokenizer struct {
	enc *tiktoken.Tiktoken
}

func (t *BPETokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *BPETokenizer) Decode(ids []int) string {
	return t.enc.Decode(ids)
}

// RuneTokenizer treats every Unicode code point as one token.
type RuneTokenizer struct{}

func (RuneTokenizer) Encode(text string) []int {
	runes := []rune(text)
	ids := make([]int, len(runes))
	for i, r := range runes {
		ids[i] = int(r)
	}
	return ids
}

func (RuneTokenizer) Decode(ids []int) string {
	runes := make([]rune, len(ids))
	for i, id := range ids {
		runes[i] = rune(id)
	}
	return string(runes)
}
