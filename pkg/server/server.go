// Package server exposes an artboard engine over HTTP.
//
// The host is headless: clients post input events and frame ticks, and read
// back the live render nodes. All engine access goes through the engine's
// own lock, so handlers need no further synchronization.
//
// Routes:
//
//	GET  /healthz
//	GET  /api/world                 world summary
//	GET  /api/items                 laid-out items of the active filter
//	GET  /api/tags                  tag vocabulary and active filter
//	POST /api/filter?tag=           change the filter ("" or "all" resets)
//	POST /api/resize?w=&h=          resize the viewport
//	POST /api/input                 dispatch one JSON input event
//	POST /api/tick?n=&dt=           advance n frames of dt each
//	GET  /api/frame                 camera, last frame stats and live nodes
//	POST /api/items/{id}/click      detail payload, 409 while the camera moves
//	POST /api/reload                refetch from the configured source
//	GET  /api/stats                 hook counters, when WithStats is set
//
// Errors are answered as {"error": "...", "code": "..."} with the status
// from [errors.HTTPStatus].
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/artboard/pkg/artboard"
	"github.com/matzehuels/artboard/pkg/errors"
	"github.com/matzehuels/artboard/pkg/observability"
	"github.com/matzehuels/artboard/pkg/source"
)

const (
	// MaxTicks caps the n parameter of /api/tick.
	MaxTicks = 600

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 5 * time.Second

	maxBodyBytes = 1 << 16
)

// Config configures the HTTP host.
type Config struct {
	Addr string

	// FrameInterval, when positive, starts the engine's own frame clock so
	// the board animates without /api/tick calls. It is also the default dt
	// of /api/tick.
	FrameInterval time.Duration

	ShutdownTimeout time.Duration
}

// Server serves one engine.
type Server struct {
	cfg    Config
	eng    *artboard.Engine
	src    source.Source
	stats  *observability.Counters
	logger *log.Logger
	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithSource enables /api/reload. The source should be wrapped with
// source.Resilient if failures are to show an empty board.
func WithSource(src source.Source) Option {
	return func(s *Server) { s.src = src }
}

// WithStats enables /api/stats. The counters must be registered with
// observability.Register by the caller.
func WithStats(c *observability.Counters) Option {
	return func(s *Server) { s.stats = c }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New returns a server for eng.
func New(eng *artboard.Engine, cfg Config, opts ...Option) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	s := &Server{cfg: cfg, eng: eng}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/world", s.handleWorld)
		r.Get("/items", s.handleItems)
		r.Get("/tags", s.handleTags)
		r.Post("/filter", s.handleFilter)
		r.Post("/resize", s.handleResize)
		r.Post("/input", s.handleInput)
		r.Post("/tick", s.handleTick)
		r.Get("/frame", s.handleFrame)
		r.Post("/items/{id}/click", s.handleClick)
		r.Post("/reload", s.handleReload)
		if s.stats != nil {
			r.Get("/stats", s.handleStats)
		}
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
// With a positive FrameInterval the engine's frame clock runs meanwhile.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.FrameInterval > 0 {
		if err := s.eng.Start(); err != nil {
			return err
		}
		s.logger.Debug("frame clock started", "interval", s.cfg.FrameInterval)
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// =============================================================================
// Middleware
// =============================================================================

type loggerKey struct{}

// requestID tags each request with a UUID, echoed in X-Request-Id, and puts
// a request-scoped logger in the context.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		logger := s.logger.With("request_id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), loggerKey{}, logger)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.loggerFor(r).Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}

func (s *Server) loggerFor(r *http.Request) *log.Logger {
	if l, ok := r.Context().Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return s.logger
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= 500 {
		s.loggerFor(r).Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}
