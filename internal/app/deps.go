package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"doc-summarizer/internal/config"
	"doc-summarizer/internal/events"
	"doc-summarizer/internal/extract"
	"doc-summarizer/internal/logger"
	"doc-summarizer/internal/model"
	"doc-summarizer/internal/pipeline"
	"doc-summarizer/internal/scheduler"
	"doc-summarizer/internal/telemetry"
)

// Deps bundles the runtime dependencies of the summarizer service.
type Deps struct {
	Config    config.Config
	Log       *slog.Logger
	Model     *model.Gateway
	Scheduler *scheduler.Scheduler
	Pipeline  pipeline.Summarizer
	Events    events.Publisher

	closers []func(context.Context) error
}

// Close releases broker connections and flushes traces.
func (d Deps) Close(ctx context.Context) error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i](ctx))
	}
	return errors.Join(errs...)
}

// Build loads env, config, and shared components.
func Build() (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "err", err)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return Deps{}, err
	}
	return BuildWith(cfg, logger.New(cfg.LogLevel))
}

// BuildWith wires components from an already loaded config.
func BuildWith(cfg config.Config, log *slog.Logger) (Deps, error) {
	deps := Deps{Config: cfg, Log: log}

	shutdownTracing, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: cfg.ServiceName,
		Disable:     !cfg.TracingEnabled,
		Endpoint:    cfg.OTLPEndpoint,
		Logger:      log,
	})
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	deps.closers = append(deps.closers, shutdownTracing)

	pub, err := buildEvents(cfg, log)
	if err != nil {
		_ = deps.Close(context.Background())
		return Deps{}, fmt.Errorf("failed to initialize events: %w", err)
	}
	deps.Events = pub.Publisher
	if pub.close != nil {
		deps.closers = append(deps.closers, pub.close)
	}

	deps.Model = model.NewGateway(cfg.ModelID, model.NewLoader(model.Options{
		Provider:          cfg.ModelProvider,
		ModelID:           cfg.ModelID,
		TokenizerEncoding: cfg.TokenizerEncoding,
		HFAPIURL:          cfg.HFAPIURL,
		HFAPIToken:        cfg.HFAPIToken,
		OpenAIKey:         cfg.OpenAIKey,
		LLMModel:          cfg.LLMModel,
	}, log), log)
	deps.Scheduler = scheduler.New(deps.Model, cfg.QueueDepth, log)
	deps.Pipeline = pipeline.New(extract.New(log, extract.Options{}), deps.Scheduler, deps.Events, log)

	log.Info("dependencies ready", "provider", cfg.ModelProvider, "model", cfg.ModelID, "queue_depth", cfg.QueueDepth)
	return deps, nil
}

type publisher struct {
	events.Publisher
	close func(context.Context) error
}

func buildEvents(cfg config.Config, log *slog.Logger) (publisher, error) {
	if cfg.NATSURL == "" {
		log.Info("NATS_URL not set; outcome events disabled")
		return publisher{Publisher: events.Noop{}}, nil
	}
	nc, err := events.Connect(cfg.NATSURL, cfg.ServiceName, log)
	if err != nil {
		return publisher{}, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Info("publishing outcome events to NATS", "url", nc.ConnectedUrl())
	return publisher{
		Publisher: events.NewNATS(log, nc),
		close:     drain(nc),
	}, nil
}

func drain(nc *nats.Conn) func(context.Context) error {
	return func(context.Context) error {
		return nc.Drain()
	}
}
