package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-summarizer/internal/apperr"
	"doc-summarizer/internal/logger"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCat    apperr.Category
		wantDetail string
	}{
		{"unsupported format", &apperr.UnsupportedFormatError{Name: "a.pptx"}, http.StatusBadRequest, apperr.CategoryClient, "unsupported file type"},
		{"decoding", &apperr.DecodingError{Err: errors.New("invalid utf-8 byte sequence at offset 2")}, http.StatusBadRequest, apperr.CategoryClient, "offset 2"},
		{"empty", &apperr.EmptyContentError{}, http.StatusBadRequest, apperr.CategoryClient, "no readable content"},
		{"too large", &apperr.ContentTooLargeError{Limit: 16000, Actual: 16001}, http.StatusBadRequest, apperr.CategoryClient, "max allowed 16000 characters, got 16001"},
		{"bad request", BadRequest("Either text or file must be provided"), http.StatusBadRequest, apperr.CategoryClient, "Either text or file must be provided"},
		{"model load", &apperr.ModelLoadError{Model: "m", Err: errors.New("no weights")}, http.StatusInternalServerError, apperr.CategoryServer, "no weights"},
		{"inference", &apperr.InferenceError{Err: errors.New("oom")}, http.StatusInternalServerError, apperr.CategoryServer, "summarization error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, apperr.CategoryServer, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/summarize", nil)

			WriteError(logger.Discard(), rr, req, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			var body ErrorBody
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCat, body.Error)
			assert.Contains(t, body.Detail, tt.wantDetail)
		})
	}
}

type textBody struct {
	Text string `json:"text" validate:"required"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"text":"hello"}`, ""},
		{"missing field", `{}`, "failed \"required\""},
		{"malformed", `{"text":`, "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var got textBody

			err := DecodeJSON(req, &got)

			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "hello", got.Text)
				return
			}
			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHealthHandler(t *testing.T) {
	rr := httptest.NewRecorder()

	HealthHandler(logger.Discard())(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestReadyHandler(t *testing.T) {
	tests := []struct {
		name       string
		state      string
		err        error
		wantStatus int
	}{
		{"ready", "ready", nil, http.StatusOK},
		{"not loaded yet", "uninitialized", nil, http.StatusOK},
		{"failed", "failed", errors.New("weights not found"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h := ReadyHandler(func() (string, error) { return tt.state, tt.err })

			h(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.state, body["model"])
		})
	}
}

func TestRouterRecoversPanics(t *testing.T) {
	r := NewRouter(logger.Discard(), time.Second)
	r.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, apperr.CategoryServer, body.Error)
}

func TestRouterAllowsCrossOriginPreflight(t *testing.T) {
	r := NewRouter(logger.Discard(), time.Second)
	r.Post("/api/summarize", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/summarize", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}
