// Package server serves a form document over HTTP: the page with the form,
// loading value files into it, and storing submitted value trees.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formsync/internal/config"
	"github.com/goliatone/go-formsync/internal/metrics"
	"github.com/goliatone/go-formsync/internal/page"
	"github.com/goliatone/go-formsync/internal/store"
	"github.com/goliatone/go-formsync/pkg/formtree"
)

// Server wires the handlers to their dependencies.
type Server struct {
	cfg     *config.Config
	holder  *DocumentHolder
	engine  *formtree.Engine
	store   *store.Store
	pages   *page.Engine
	metrics *metrics.Collector
	logger  zerolog.Logger
	httpSrv *http.Server
	nowFunc func() time.Time
}

// Deps groups what New needs.
type Deps struct {
	Config  *config.Config
	Holder  *DocumentHolder
	Engine  *formtree.Engine
	Store   *store.Store
	Pages   *page.Engine
	Metrics *metrics.Collector
	Logger  zerolog.Logger
}

// New validates deps and constructs a Server.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Config == nil:
		return nil, errors.New("server: config is required")
	case deps.Holder == nil:
		return nil, errors.New("server: document holder is required")
	case deps.Engine == nil:
		return nil, errors.New("server: engine is required")
	case deps.Store == nil:
		return nil, errors.New("server: store is required")
	case deps.Pages == nil:
		return nil, errors.New("server: page engine is required")
	}
	return &Server{
		cfg:     deps.Config,
		holder:  deps.Holder,
		engine:  deps.Engine,
		store:   deps.Store,
		pages:   deps.Pages,
		metrics: deps.Metrics,
		logger:  deps.Logger,
		nowFunc: time.Now,
	}, nil
}

// Router builds the HTTP routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metricsMiddleware)
	}

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		r.Handle(s.cfg.Metrics.Path, s.metrics.Handler())
	}

	r.Handle(page.DefaultAssetsPath+"/*", http.StripPrefix(page.DefaultAssetsPath+"/", http.FileServerFS(page.AssetsFS())))

	r.Get("/", s.handleIndex)
	r.Get("/values", s.handleValues)
	r.Post("/load", s.handleLoad)
	r.Post("/submit", s.handleSubmit)
	r.Get("/submissions/{id}", s.handleDownload)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpSrv.Addr).Msg("starting http server")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.nowFunc()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if r.URL.Path == "/healthz" || r.URL.Path == s.cfg.Metrics.Path {
			return
		}
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == s.cfg.Metrics.Path {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := routePattern(r)
		s.metrics.RequestsTotal.WithLabelValues(r.Method, route, metrics.StatusLabel(ww.Status())).Inc()
		s.metrics.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// routePattern returns the matched chi pattern so ids do not explode label
// cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	if strings.HasPrefix(r.URL.Path, "/submissions/") {
		return "/submissions/{id}"
	}
	return "unmatched"
}
