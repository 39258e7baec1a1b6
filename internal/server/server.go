// Package server exposes the extraction pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz      liveness probe
//	POST /v1/extract   {"refs": ["requests", "numpy==1.26.4"]}
//
// /v1/extract answers with the same JSON object the extract command prints,
// or with {"error", "code", "request_id"} and a status derived from the
// error code. Only requirements are accepted; local paths would expose the
// server's filesystem.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/wheelpeek/pkg/buildinfo"
	"github.com/matzehuels/wheelpeek/pkg/errors"
	"github.com/matzehuels/wheelpeek/pkg/pipeline"
	"github.com/matzehuels/wheelpeek/pkg/python"
)

const (
	// MaxRefs bounds the references accepted in one request.
	MaxRefs = 256

	// maxBodyBytes bounds request bodies.
	maxBodyBytes = 1 << 20

	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-ID"

	shutdownTimeout = 10 * time.Second
)

// Server serves the HTTP API.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// ExtractRequest is the body of POST /v1/extract.
type ExtractRequest struct {
	Refs     []string `json:"refs"`
	Detailed bool     `json:"detailed,omitempty"` // respond with pipeline.Result instead of the name map
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

// New builds a server around runner. A nil logger falls back to the
// runner's logger.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = runner.Logger
	}
	s := &Server{runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/extract", s.handleExtract)

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}
	if len(req.Refs) > MaxRefs {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "too many references (max %d)", MaxRefs))
		return
	}

	refs, err := pipeline.ParseReferences(req.Refs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, ref := range refs {
		if _, ok := ref.(python.Requirement); !ok {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "only requirements are accepted, got path %q", ref.String()))
			return
		}
	}

	result, err := s.runner.Extract(r.Context(), refs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Detailed {
		writeJSON(w, http.StatusOK, result)
		return
	}
	writeJSON(w, http.StatusOK, result.Map())
}

// =============================================================================
// Responses
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			code = errors.ErrCodeIndexUnavailable
		}
	}
	status := StatusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", "request_id", RequestID(r.Context()), "code", code, "err", err)
	}
	writeJSON(w, status, ErrorResponse{
		Error:     errors.UserMessage(err),
		Code:      string(code),
		RequestID: RequestID(r.Context()),
	})
}

// StatusFor maps an error code to an HTTP status. Client mistakes are 4xx;
// failures of the index or archive hosts are 502.
func StatusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidIdentifier, errors.ErrCodeInvalidVersionConstraint:
		return http.StatusBadRequest
	case errors.ErrCodeNoMatchingArchive:
		return http.StatusNotFound
	case errors.ErrCodeIndexUnavailable, errors.ErrCodeIndexHTTPError, errors.ErrCodeIndexMalformed,
		errors.ErrCodeRangeUnsupported, errors.ErrCodeNotAnArchive, errors.ErrCodeCorruptDirectory,
		errors.ErrCodeUnsupportedCompression, errors.ErrCodeInvalidText:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// =============================================================================
// Middleware
// =============================================================================

type ctxKey int

const requestIDKey ctxKey = 0

// RequestID returns the ID assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestID reuses a well-formed incoming X-Request-ID or assigns a new
// UUID, and echoes it in the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"request_id", RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}
