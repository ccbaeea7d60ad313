package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"doc-summarizer/internal/apperr"
)

// NewRouter creates a chi router with standard middleware (RequestID, RealIP, Timeout, Recoverer, Logger, CORS).
func NewRouter(log *slog.Logger, timeout time.Duration) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}
	r.Use(Recoverer(log))
	r.Use(RequestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	return r
}

// WriteJSON writes a JSON response with proper headers.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(body)
}

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Error  apperr.Category `json:"error"`
	Detail string          `json:"detail"`
}

// RequestError is a malformed request rejected before the pipeline runs.
type RequestError struct {
	Detail string
	Err    error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

func (e *RequestError) Unwrap() error { return e.Err }

// BadRequest returns a RequestError with the given detail.
func BadRequest(detail string) error {
	return &RequestError{Detail: detail}
}

// WriteError maps err to a status code by category and writes an ErrorBody.
// Client errors are 400, everything else is 500.
func WriteError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *RequestError
	category := apperr.CategoryOf(err)
	if errors.As(err, &reqErr) {
		category = apperr.CategoryClient
	}

	status := http.StatusInternalServerError
	if category == apperr.CategoryClient {
		status = http.StatusBadRequest
	}

	attrs := []any{"err", err, "kind", apperr.Kind(err), "status", status, "request_id", middleware.GetReqID(r.Context())}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", attrs...)
	} else {
		log.Warn("request rejected", attrs...)
	}
	WriteJSON(w, status, ErrorBody{Error: category, Detail: err.Error()})
}

var validate = validator.New()

// DecodeJSON reads a JSON body into dst and checks its validate tags.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &RequestError{Detail: "invalid JSON body", Err: err}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &RequestError{Detail: fmt.Sprintf("field %s failed %q validation", verrs[0].Field(), verrs[0].Tag())}
		}
		return &RequestError{Detail: "invalid request", Err: err}
	}
	return nil
}

// HealthHandler returns a simple health check endpoint.
func HealthHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			log.Warn("healthz write failed", "err", err)
		}
	}
}

// ReadyHandler reports the state returned by probe. A probe error means the
// service can never become ready and is answered with 503.
func ReadyHandler(probe func() (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := probe()
		if err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"model": state, "detail": err.Error()})
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"model": state})
	}
}

// RequestLogger is a lightweight HTTP logger that uses slog.
func RequestLogger(log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// Recoverer logs panics via slog and answers with a server_error body.
func Recoverer(log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic recovered", "panic", rec, "path", r.URL.Path, "method", r.Method, "request_id", middleware.GetReqID(r.Context()))
					WriteJSON(w, http.StatusInternalServerError, ErrorBody{Error: apperr.CategoryServer, Detail: "internal error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
