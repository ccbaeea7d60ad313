package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"doc-summarizer/internal/extract"
)

// MockSummarizer is a mock implementation of Summarizer using testify/mock.
type MockSummarizer struct {
	mock.Mock
}

func (m *MockSummarizer) Summarize(ctx context.Context, doc extract.Document) (Result, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(Result), args.Error(1)
}
