// Package server assembles the HTTP router shared by every handler.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/httpx"
	"github.com/fekuna/omnipos-catalog-sync/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultBasePath = "/api/v1"
	defaultTimeout  = 60 * time.Second
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type routerConfig struct {
	basePath   string
	timeout    time.Duration
	registrars []RouteRegistrar
	checks     map[string]ReadinessCheck
}

type Option func(*routerConfig)

func WithRoutes(registrars ...RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.registrars = append(cfg.registrars, registrars...) }
}

func WithReadinessCheck(name string, check ReadinessCheck) Option {
	return func(cfg *routerConfig) { cfg.checks[name] = check }
}

func WithTimeout(d time.Duration) Option {
	return func(cfg *routerConfig) { cfg.timeout = d }
}

func NewRouter(log logger.ZapLogger, opts ...Option) chi.Router {
	cfg := routerConfig{
		basePath: DefaultBasePath,
		timeout:  defaultTimeout,
		checks:   map[string]ReadinessCheck{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(log),
		middleware.Recoverer,
		middleware.Timeout(cfg.timeout),
	)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("route_not_found", fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readyz(cfg.checks))

	r.Route(cfg.basePath, func(api chi.Router) {
		for _, register := range cfg.registrars {
			register(api)
		}
	})
	return r
}

func readyz(checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		failed := map[string]any{}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			httpx.WriteError(r.Context(), w, httpx.NewError("not_ready", "dependencies unavailable", http.StatusServiceUnavailable).WithDetails(failed))
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func requestLogger(log logger.ZapLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				fields := []zap.Field{
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Duration("latency", time.Since(start)),
					zap.Int("bytes", ww.BytesWritten()),
				}
				if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
					fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
				}
				switch {
				case status >= http.StatusInternalServerError:
					log.Error("request completed", fields...)
				case status >= http.StatusBadRequest:
					log.Warn("request completed", fields...)
				default:
					log.Info("request completed", fields...)
				}
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
