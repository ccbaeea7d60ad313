package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-summarizer/internal/config"
	"doc-summarizer/internal/events"
	"doc-summarizer/internal/extract"
	"doc-summarizer/internal/logger"
	"doc-summarizer/internal/model"
)

func stubConfig() config.Config {
	return config.Config{
		Port:           8000,
		LogLevel:       "info",
		MaxUploadSize:  1 << 20,
		ModelProvider:  model.ProviderStub,
		ModelID:        "stub",
		QueueDepth:     2,
		ServiceName:    "doc-summarizer-test",
		TracingEnabled: false,
	}
}

func TestBuildWithWiresStubPipeline(t *testing.T) {
	deps, err := BuildWith(stubConfig(), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, deps.Close(context.Background())) })

	assert.IsType(t, events.Noop{}, deps.Events)
	state, _ := deps.Model.State()
	assert.Equal(t, model.StateUninitialized, state)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = deps.Scheduler.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	res, err := deps.Pipeline.Summarize(context.Background(), extract.FromText(strings.Repeat("A", 20)))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("A", 20), res.Summary)

	state, _ = deps.Model.State()
	assert.Equal(t, model.StateReady, state)
}

func TestBuildWithRejectsUnreachableNATS(t *testing.T) {
	cfg := stubConfig()
	cfg.NATSURL = "nats://127.0.0.1:1"

	_, err := BuildWith(cfg, logger.Discard())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to NATS")
}
