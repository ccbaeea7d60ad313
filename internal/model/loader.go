package model

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/openai/openai-go/v3"
)

const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
	ProviderStub        = "stub"
)

// Options selects and configures the one backend a process uses.
type Options struct {
	Provider          string
	ModelID           string
	TokenizerEncoding string

	HFAPIURL   string
	HFAPIToken string
	HTTPClient *http.Client

	OpenAIKey string
	LLMModel  string
}

// NewLoader returns a Loader for opts.Provider. The stub provider always uses
// the rune tokenizer so it never needs network access.
func NewLoader(opts Options, log *slog.Logger) Loader {
	return func(ctx context.Context) (Tokenizer, Backend, error) {
		encoding := opts.TokenizerEncoding
		if opts.Provider == ProviderStub || encoding == "" {
			encoding = EncodingRune
		}
		tok, err := NewTokenizer(encoding)
		if err != nil {
			return nil, nil, err
		}

		var backend Backend
		switch opts.Provider {
		case ProviderHuggingFace:
			backend, err = NewHuggingFace(opts.HFAPIURL, opts.ModelID, opts.HFAPIToken, opts.HTTPClient)
		case ProviderOpenAI:
			backend, err = NewOpenAI(opts.OpenAIKey, openai.ChatModel(opts.LLMModel))
		case ProviderStub:
			backend = Echo{}
		default:
			err = fmt.Errorf("invalid MODEL_PROVIDER: %s (valid options: huggingface, openai, stub)", opts.Provider)
		}
		if err != nil {
			return nil, nil, err
		}

		log.Info("model backend ready", "provider", opts.Provider, "tokenizer", encoding)
		return tok, backend, nil
	}
}

// Echo returns its (already truncated) input. It stands in for a real model
// in tests and local runs.
type Echo struct{}

func (Echo) Generate(_ context.Context, req GenerateRequest) (string, error) {
	return req.Text, nil
}
