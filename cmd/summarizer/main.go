package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"doc-summarizer/internal/app"
	"doc-summarizer/internal/extract"
	"doc-summarizer/internal/httputil"
)

type summarizeRequest struct {
	Text string `json:"text" validate:"required"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Inference worker
	g.Go(func() error {
		return deps.Scheduler.Run(ctx)
	})

	g.Go(func() error {
		deps.Log.Info("summarizer listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("summarizer stopped", "err", err)
	}
	if err := deps.Close(context.Background()); err != nil {
		deps.Log.Warn("failed to release dependencies", "err", err)
	}
}

func newRouter(deps app.Deps) chi.Router {
	r := httputil.NewRouter(deps.Log, deps.Config.RequestTimeout)

	r.Post("/api/summarize", summarizeHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	r.Get("/readyz", httputil.ReadyHandler(func() (string, error) {
		state, err := deps.Model.State()
		return string(state), err
	}))
	return r
}

func summarizeHandler(deps app.Deps) http.HandlerFunc {
	maxSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		// Validate size before parsing
		if r.ContentLength > maxSize {
			httputil.WriteError(deps.Log, w, r, httputil.BadRequest(fmt.Sprintf("request too large (max %d bytes)", maxSize)))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)

		doc, cleanup, err := readDocument(deps.Log, r, maxSize)
		defer cleanup()
		if err != nil {
			httputil.WriteError(deps.Log, w, r, err)
			return
		}

		res, err := deps.Pipeline.Summarize(r.Context(), doc)
		if err != nil {
			httputil.WriteError(deps.Log, w, r, err)
			return
		}

		deps.Log.Info("summary generated",
			"format", res.Format,
			"characters", res.Characters,
			"summary_len", len(res.Summary),
		)
		httputil.WriteJSON(w, http.StatusOK, summarizeResponse{Summary: res.Summary})
	}
}

// readDocument builds a Document from a JSON or form request. An uploaded
// file wins over the text field. The returned cleanup is always safe to call.
func readDocument(log *slog.Logger, r *http.Request, maxMemory int64) (extract.Document, func(), error) {
	noop := func() {}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body summarizeRequest
		if err := httputil.DecodeJSON(r, &body); err != nil {
			return extract.Document{}, noop, err
		}
		return extract.FromText(body.Text), noop, nil
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return extract.Document{}, noop, &httputil.RequestError{Detail: "invalid form body", Err: err}
	}
	cleanup := noop
	if r.MultipartForm != nil {
		form := r.MultipartForm
		cleanup = func() {
			if err := form.RemoveAll(); err != nil {
				log.Warn("failed to remove multipart temp files", "err", err)
			}
		}

		if files := form.File["file"]; len(files) > 0 {
			fh := files[0]
			f, err := fh.Open()
			if err != nil {
				return extract.Document{}, cleanup, &httputil.RequestError{Detail: "cannot read uploaded file", Err: err}
			}
			closeAndRemove := cleanup
			cleanup = func() {
				_ = f.Close()
				closeAndRemove()
			}
			return extract.FromUpload(fh.Filename, f), cleanup, nil
		}
	}

	// Some clients send the file field as a plain form value; treat it as text.
	if vals, ok := r.PostForm["file"]; ok && len(vals) > 0 {
		log.Debug("file field sent as text; summarizing it as raw text")
		return extract.FromText(vals[0]), cleanup, nil
	}
	if vals, ok := r.PostForm["text"]; ok && len(vals) > 0 {
		return extract.FromText(vals[0]), cleanup, nil
	}
	return extract.Document{}, cleanup, httputil.BadRequest("Either text or file must be provided")
}
