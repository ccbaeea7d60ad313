// Package model wraps the long-document summarization model behind a single
// SummarizeOne call. The tokenizer and backend are loaded lazily, once.
package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"doc-summarizer/internal/apperr"
)

const (
	// MaxInputTokens is the model's architectural input limit.
	MaxInputTokens = 16384
	// MaxOutputTokens bounds the generated summary.
	MaxOutputTokens = 512
	// NumBeams is the beam search width.
	NumBeams = 4
)

// controlTokens are stripped from generated text.
var controlTokens = []string{"<s>", "</s>", "<pad>", "<unk>", "<mask>", "<|endoftext|>"}

// Tokenizer maps text to token ids and back.
type Tokenizer interface {
	Encode(text string) []int
	Decode(ids []int) string
}

// GenerateRequest is what a Backend receives for one document.
type GenerateRequest struct {
	// Text is the input after truncation to MaxInputTokens.
	Text        string
	InputTokens int
	// GlobalAttentionMask has one entry per input token; 1 marks a position
	// that attends to the whole input. Only the first position is set.
	GlobalAttentionMask []int
	MaxOutputTokens     int
	NumBeams            int
	EarlyStopping       bool
}

// Backend runs generation for one request. Implementations need not be safe
// for concurrent use; the scheduler serializes calls.
type Backend interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Loader builds the tokenizer and backend. It is called at most once.
type Loader func(ctx context.Context) (Tokenizer, Backend, error)

// State describes the lifecycle of the loaded model.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateReady         State = "ready"
	StateFailed        State = "failed"
)

type modelState struct {
	tokenizer Tokenizer
	backend   Backend
	err       error
	loaded    bool
}

// Gateway owns the process-wide model state.
type Gateway struct {
	modelID string
	load    Loader
	log     *slog.Logger

	mu    sync.Mutex
	state modelState
}

// NewGateway returns a Gateway that will call load on first use.
func NewGateway(modelID string, load Loader, log *slog.Logger) *Gateway {
	return &Gateway{
		modelID: modelID,
		load:    load,
		log:     log.With("component", "model", "model_id", modelID),
	}
}

// State reports whether the model is loaded, failed, or not yet requested.
func (g *Gateway) State() (State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case g.state.err != nil:
		return StateFailed, g.state.err
	case g.state.loaded:
		return StateReady, nil
	default:
		return StateUninitialized, nil
	}
}

// ensureLoaded runs the loader under the mutex so concurrent first calls
// share a single load. A load failure is kept and returned from then on.
func (g *Gateway) ensureLoaded(ctx context.Context) (Tokenizer, Backend, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.err != nil {
		return nil, nil, g.state.err
	}
	if g.state.loaded {
		return g.state.tokenizer, g.state.backend, nil
	}

	g.log.Info("loading model")
	tok, backend, err := g.load(context.WithoutCancel(ctx))
	if err == nil && (tok == nil || backend == nil) {
		err = errors.New("loader returned no tokenizer or backend")
	}
	if err != nil {
		g.state.err = &apperr.ModelLoadError{Model: g.modelID, Err: err}
		g.log.Error("model load failed", "err", err)
		return nil, nil, g.state.err
	}
	g.state = modelState{tokenizer: tok, backend: backend, loaded: true}
	g.log.Info("model loaded")
	return tok, backend, nil
}

// SummarizeOne truncates text to the model's input limit, generates with beam
// search and returns the cleaned summary.
func (g *Gateway) SummarizeOne(ctx context.Context, text string) (string, error) {
	tok, backend, err := g.ensureLoaded(ctx)
	if err != nil {
		return "", err
	}

	req, err := buildRequest(tok, text)
	if err != nil {
		return "", &apperr.InferenceError{Err: err}
	}
	if req.Text != text {
		g.log.Debug("input truncated", "max_tokens", MaxInputTokens)
	}

	raw, err := generate(ctx, backend, req)
	if err != nil {
		return "", &apperr.InferenceError{Err: err}
	}
	summary := cleanOutput(raw)
	if summary == "" {
		return "", &apperr.InferenceError{Err: errors.New("model returned no text")}
	}
	return summary, nil
}

func buildRequest(tok Tokenizer, text string) (req GenerateRequest, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("tokenizer panicked: %v", rec)
		}
	}()

	ids := tok.Encode(text)
	if len(ids) > MaxInputTokens {
		ids = ids[:MaxInputTokens]
		text = tok.Decode(ids)
	}
	mask := make([]int, len(ids))
	if len(mask) > 0 {
		mask[0] = 1
	}
	return GenerateRequest{
		Text:                text,
		InputTokens:         len(ids),
		GlobalAttentionMask: mask,
		MaxOutputTokens:     MaxOutputTokens,
		NumBeams:            NumBeams,
		EarlyStopping:       true,
	}, nil
}

func generate(ctx context.Context, backend Backend, req GenerateRequest) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("generation panicked: %v", rec)
		}
	}()
	return backend.Generate(ctx, req)
}

// cleanOutput drops model control tokens and surrounding whitespace.
func cleanOutput(s string) string {
	for _, t := range controlTokens {
		s = strings.ReplaceAll(s, t, "")
	}
	return strings.TrimSpace(s)
}
