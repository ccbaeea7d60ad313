// Package scheduler runs model inference on one dedicated worker goroutine.
//
// Jobs are taken from a FIFO channel one at a time, so at most one inference
// runs at any moment and requests are served in submission order. There is no
// timeout and no cancellation: once enqueued, a job runs to completion even
// if its caller stops waiting.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is returned for jobs submitted to, or still queued in, a stopped scheduler.
var ErrClosed = errors.New("inference scheduler closed")

// Summarizer is the call the worker makes for each job.
type Summarizer interface {
	SummarizeOne(ctx context.Context, text string) (string, error)
}

type result struct {
	summary string
	err     error
}

type job struct {
	id       uuid.UUID
	text     string
	enqueued time.Time
	done     chan result
}

// Scheduler is a single-worker task queue.
type Scheduler struct {
	model Summarizer
	log   *slog.Logger
	jobs  chan *job

	closed    chan struct{}
	closeOnce sync.Once
}

// New returns a Scheduler whose queue holds up to depth waiting jobs.
// Call Run to start the worker.
func New(model Summarizer, depth int, log *slog.Logger) *Scheduler {
	if depth < 1 {
		depth = 1
	}
	return &Scheduler{
		model:  model,
		log:    log.With("component", "scheduler"),
		jobs:   make(chan *job, depth),
		closed: make(chan struct{}),
	}
}

// Submit enqueues text and blocks until the worker has summarized it or ctx
// ends. When ctx ends first the job is left to finish in the background.
func (s *Scheduler) Submit(ctx context.Context, text string) (string, error) {
	j, err := s.enqueue(ctx, text)
	if err != nil {
		return "", err
	}
	return s.wait(ctx, j)
}

// Pending returns the number of jobs waiting for the worker.
func (s *Scheduler) Pending() int {
	return len(s.jobs)
}

func (s *Scheduler) enqueue(ctx context.Context, text string) (*job, error) {
	j := &job{
		id:       uuid.New(),
		text:     text,
		enqueued: time.Now(),
		done:     make(chan result, 1),
	}
	select {
	case <-s.closed:
		return nil, ErrClosed
	default:
	}
	select {
	case s.jobs <- j:
		s.log.Debug("job enqueued", "job_id", j.id, "pending", len(s.jobs))
		return j, nil
	case <-s.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Scheduler) wait(ctx context.Context, j *job) (string, error) {
	select {
	case r := <-j.done:
		return r.summary, r.err
	case <-s.closed:
		select {
		case r := <-j.done:
			return r.summary, r.err
		default:
			return "", ErrClosed
		}
	case <-ctx.Done():
		s.log.Warn("caller stopped waiting; job keeps running", "job_id", j.id, "err", ctx.Err())
		return "", ctx.Err()
	}
}

// Run is the worker loop. It returns when ctx is cancelled, after the job in
// progress finishes; jobs still queued then fail with ErrClosed.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("inference worker started")
	for {
		if ctx.Err() != nil {
			s.shutdown()
			return nil
		}
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case j := <-s.jobs:
			s.runJob(j)
		}
	}
}

func (s *Scheduler) runJob(j *job) {
	start := time.Now()
	log := s.log.With("job_id", j.id)
	log.Info("inference started", "queued_ms", start.Sub(j.enqueued).Milliseconds())

	summary, err := s.model.SummarizeOne(context.Background(), j.text)

	if err != nil {
		log.Error("inference failed", "err", err, "duration_ms", time.Since(start).Milliseconds())
	} else {
		log.Info("inference finished", "duration_ms", time.Since(start).Milliseconds())
	}
	j.done <- result{summary: summary, err: err}
}

func (s *Scheduler) shutdown() {
	s.closeOnce.Do(func() {
		close(s.closed)
		dropped := 0
		for {
			select {
			case j := <-s.jobs:
				j.done <- result{err: ErrClosed}
				dropped++
			default:
				s.log.Info("inference worker stopped", "dropped_jobs", dropped)
				return
			}
		}
	})
}
