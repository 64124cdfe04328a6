package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"cargotag/internal/api"
	"cargotag/internal/cargo"
	"cargotag/internal/config"
	"cargotag/internal/journal"
	"cargotag/internal/logging"
	"cargotag/internal/pipeline"
	"cargotag/internal/services"
	"cargotag/internal/sink"
)

// RequestIDHeader carries the correlation id in both directions.
const RequestIDHeader = "X-Request-ID"

// DigestHeader carries the BLAKE3 digest of the returned artifact.
const DigestHeader = "X-Cargo-Digest"

const multipartMemory = 8 << 20

// Options wires the server to the rest of the application.
type Options struct {
	Config   *config.Config
	Pipeline *pipeline.Pipeline
	// Sink receives artifacts requested with deliver=true. Nil disables
	// delivery.
	Sink sink.Sink
	// Journal backs /api/history. Nil reports an empty history.
	Journal *journal.Store
	// Locate, when set, supplies a fix for records posted without one and
	// with locate=true.
	Locate func(ctx context.Context) *cargo.Fix
	Logger *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	opts    Options
	bind    string
	logger  *slog.Logger
	started time.Time

	generation atomic.Uint64
	produced   atomic.Int64
	delivered  atomic.Int64

	mu       sync.Mutex
	lastErr  string
	listener net.Listener
	server   *http.Server
}

// New builds a server from opts. Config and Pipeline are required.
func New(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Pipeline == nil {
		return nil, services.Wrap(services.ErrConfiguration, "server", "init", "config and pipeline are required", nil)
	}
	bind := strings.TrimSpace(opts.Config.Server.Bind)
	if bind == "" {
		return nil, services.Wrap(services.ErrConfiguration, "server", "init", "server.bind is empty", nil)
	}
	s := &Server{
		opts:    opts,
		bind:    bind,
		logger:  logging.NewComponentLogger(opts.Logger, "api-server"),
		started: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/payload", s.handlePayload)
	mux.HandleFunc("/api/artifacts", s.handleArtifacts)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/history", s.handleHistory)

	s.server = &http.Server{
		Handler:           s.withRequestID(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler, for embedding or httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured address and serves in the background until
// ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "server", "listen", s.bind, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr is the bound listen address, empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := services.WithRequestID(r.Context(), id)
		started := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		logging.WithContext(ctx, s.logger).Debug("request served",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Duration("elapsed", time.Since(started)),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

// writeError reports err with the status its kind maps to.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	logger := logging.WithContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
		logging.ErrorWithContext(logger, "request failed", "request_failed",
			logging.String("path", r.URL.Path), logging.Error(err))
	} else {
		logger.Info("request rejected", logging.String("path", r.URL.Path), logging.Error(err))
	}
	s.writeJSON(w, status, api.FromError(err))
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) bool {
	if r.Method == allowed {
		return false
	}
	w.Header().Set("Allow", allowed)
	s.writeJSON(w, http.StatusMethodNotAllowed, api.Error{
		Error: fmt.Sprintf("method %s not allowed", r.Method),
		Kind:  "validation",
	})
	return true
}

// StatusFor maps an error to its HTTP status. Requests that fit the protocol
// but cannot produce an artifact are 422, malformed requests 400.
func StatusFor(err error) int {
	var tooBig *http.MaxBytesError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, services.ErrPayloadTooLarge), errors.Is(err, services.ErrPhotoUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
