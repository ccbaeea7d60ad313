// Package events publishes summarization outcomes for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Subjects on which outcomes are published.
const (
	SubjectCompleted = "summaries.completed"
	SubjectFailed    = "summaries.failed"
)

// Event describes one finished summarization request. It never carries the
// document or the summary text.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Format     string    `json:"format,omitempty"`
	Characters int       `json:"characters,omitempty"`
	SummaryLen int       `json:"summary_len,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	At         time.Time `json:"at"`
}

// Subject returns the subject the event belongs on.
func (e Event) Subject() string {
	if e.ErrorKind != "" {
		return SubjectFailed
	}
	return SubjectCompleted
}

// Publisher exposes a minimal contract to emit outcome events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Noop discards every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
