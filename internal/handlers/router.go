package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sixnames/next-marketplace-sub004/internal/platform/httpx"
	"github.com/sixnames/next-marketplace-sub004/internal/platform/observability"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

const (
	defaultAPIPrefix = "/api/v1"
	defaultTimeout   = 60 * time.Second
)

type routerConfig struct {
	basePath       string
	logger         *zap.Logger
	traceProjectID string
	middlewares    []func(http.Handler) http.Handler

	products RouteRegistrar
	shops    RouteRegistrar
	tasks    RouteRegistrar
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

// WithLogger injects the base logger for request-scoped logging.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *routerConfig) { cfg.logger = logger }
}

// WithTraceProject sets the cloud project id used when emitting trace
// resources in request logs.
func WithTraceProject(projectID string) Option {
	return func(cfg *routerConfig) { cfg.traceProjectID = projectID }
}

// WithProductRoutes mounts the product summary and catalog write endpoints.
func WithProductRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.products = registrar }
}

// WithShopRoutes mounts the shop inventory endpoints.
func WithShopRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.shops = registrar }
}

// WithTaskRoutes mounts the moderation workflow endpoints.
func WithTaskRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.tasks = registrar }
}

// NewRouter constructs the chi router with shared middleware and route groups.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		basePath: defaultAPIPrefix,
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Timeout(defaultTimeout),
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}
	r.Use(observability.InjectLoggerMiddleware(cfg.logger))
	r.Use(observability.TraceMiddleware(cfg.traceProjectID))
	r.Use(observability.RecoveryMiddleware(cfg.logger))
	r.Use(observability.RequestLoggerMiddleware(cfg.traceProjectID))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("route_not_found", fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", health)

	r.Route(cfg.basePath, func(api chi.Router) {
		if cfg.products != nil {
			api.Route("/products", cfg.products)
		}
		if cfg.shops != nil {
			api.Route("/shops", cfg.shops)
		}
		if cfg.tasks != nil {
			api.Route("/tasks", cfg.tasks)
		}
	})

	return r
}
