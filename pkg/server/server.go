// Package server exposes the layout engine over HTTP.
//
// All engine routes take JSON bodies carrying a system ID and a DNA list; the
// layout is rebuilt (through the runner's cache) on every request, so the
// server holds no per-building state. When a [store.Store] is configured the
// /v1/buildings routes persist DNA lists between requests.
//
// # Routes
//
//	GET    /healthz
//	POST   /v1/layouts                   build a positioned layout
//	POST   /v1/layouts/dnas              round-trip a DNA list through the layout
//	POST   /v1/mutations/section-type    section type alternatives
//	POST   /v1/mutations/level-type      level type alternatives for one row
//	POST   /v1/mutations/window-type     window type alternatives for one module
//	GET    /v1/buildings                 list stored buildings
//	POST   /v1/buildings                 save a building
//	GET    /v1/buildings/{id}            fetch a building
//	GET    /v1/buildings/{id}/layout     build a stored building's layout
//	DELETE /v1/buildings/{id}            delete a building
//
// # Errors
//
// Failures are returned as {"error": {"code", "message"}} with the status
// derived from the error code (see [StatusFor]).
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/modhaus/modlayout/pkg/pipeline"
	"github.com/modhaus/modlayout/pkg/store"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Config configures a Server.
type Config struct {
	Runner  *pipeline.Runner
	Store   store.Store // optional; nil disables /v1/buildings
	Logger  *log.Logger
	Timeout time.Duration // per-request timeout; zero means 30s
}

// Server is the HTTP API.
type Server struct {
	runner  *pipeline.Runner
	store   store.Store
	logger  *log.Logger
	timeout time.Duration
	router  chi.Router
}

// New creates a Server. The runner is required.
func New(cfg Config) *Server {
	s := &Server{
		runner:  cfg.Runner,
		store:   cfg.Store,
		logger:  cfg.Logger,
		timeout: cfg.Timeout,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.timeout <= 0 {
		s.timeout = 30 * time.Second
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", s.health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/layouts", s.buildLayout)
		r.Post("/layouts/dnas", s.layoutDNAs)

		r.Route("/mutations", func(r chi.Router) {
			r.Post("/section-type", s.mutateSectionType)
			r.Post("/level-type", s.mutateLevelType)
			r.Post("/window-type", s.mutateWindowType)
		})

		if s.store != nil {
			r.Route("/buildings", func(r chi.Router) {
				r.Get("/", s.listBuildings)
				r.Post("/", s.saveBuilding)
				r.Get("/{id}", s.getBuilding)
				r.Get("/{id}/layout", s.buildingLayout)
				r.Delete("/{id}", s.deleteBuilding)
			})
		}
	})
	return r
}

type ctxKey struct{}

// RequestID returns the request ID stored by the server middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// requestID propagates X-Request-ID, generating a UUID when absent.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"id", RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
