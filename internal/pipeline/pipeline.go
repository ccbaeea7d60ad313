// Package pipeline chains extraction, validation and scheduled inference
// into a single summarization request.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"doc-summarizer/internal/apperr"
	"doc-summarizer/internal/events"
	"doc-summarizer/internal/extract"
	"doc-summarizer/internal/telemetry"
	"doc-summarizer/internal/validate"
)

// Extractor turns a document into text.
type Extractor interface {
	Extract(ctx context.Context, doc extract.Document) (extract.Content, error)
}

// Inference runs one summarization on the shared model.
type Inference interface {
	Submit(ctx context.Context, text string) (string, error)
}

// Summarizer is what the HTTP layer calls for each request.
type Summarizer interface {
	Summarize(ctx context.Context, doc extract.Document) (Result, error)
}

// Result is returned to the caller and never retained.
type Result struct {
	Summary    string
	Format     extract.Format
	Characters int
}

// Pipeline implements Summarizer.
type Pipeline struct {
	extractor Extractor
	inference Inference
	events    events.Publisher
	log       *slog.Logger
}

var _ Summarizer = (*Pipeline)(nil)

// New wires a Pipeline. A nil publisher disables outcome events.
func New(extractor Extractor, inference Inference, pub events.Publisher, log *slog.Logger) *Pipeline {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Pipeline{
		extractor: extractor,
		inference: inference,
		events:    pub,
		log:       log.With("component", "pipeline"),
	}
}

// Summarize extracts doc, validates the text and waits for its summary.
// Failures are typed errors from apperr; nothing is retried.
func (p *Pipeline) Summarize(ctx context.Context, doc extract.Document) (Result, error) {
	start := time.Now()
	res, err := p.run(ctx, doc)
	p.publish(ctx, res, err, time.Since(start))
	return res, err
}

func (p *Pipeline) run(ctx context.Context, doc extract.Document) (Result, error) {
	tracer := telemetry.Tracer()

	ctx, span := tracer.Start(ctx, "extract")
	span.SetAttributes(attribute.String("document.kind", string(doc.Kind)))
	content, err := p.extractor.Extract(ctx, doc)
	telemetry.End(span, err)
	if err != nil {
		return Result{}, err
	}

	res := Result{Format: content.Format}

	_, span = tracer.Start(ctx, "validate")
	valid, err := validate.Validate(content)
	span.SetAttributes(attribute.Int("document.characters", valid.Characters))
	telemetry.End(span, err)
	if err != nil {
		return res, err
	}
	res.Characters = valid.Characters

	ctx, span = tracer.Start(ctx, "infer")
	summary, err := p.inference.Submit(ctx, valid.Text)
	telemetry.End(span, err)
	if err != nil {
		return res, err
	}
	res.Summary = summary
	return res, nil
}

func (p *Pipeline) publish(ctx context.Context, res Result, err error, elapsed time.Duration) {
	ev := events.Event{
		Format:     string(res.Format),
		Characters: res.Characters,
		SummaryLen: len(res.Summary),
		ErrorKind:  apperr.Kind(err),
		DurationMS: elapsed.Milliseconds(),
	}
	if pubErr := p.events.Publish(context.WithoutCancel(ctx), ev); pubErr != nil {
		p.log.Warn("failed to publish outcome event", "err", pubErr, "subject", ev.Subject())
	}
}
