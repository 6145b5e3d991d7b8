package api

import (
	"net/http"

	"metaproxy/internal/gate"
	"metaproxy/internal/models"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// Paths served outside the metadata namespace.
const (
	ConfigPath = "/api/config/discord-id"
	HealthPath = "/health"
)

// ExemptPaths lists the paths the version gate must let through.
func ExemptPaths() []string {
	return []string{ConfigPath, HealthPath}
}

// RouteOption configures optional route behavior.
type RouteOption func(*mux.Router)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(r *mux.Router) {
		r.Use(otelmux.Middleware(serviceName,
			otelmux.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != HealthPath
			}),
		))
	}
}

// SetupRoutes configures the HTTP routes. Middleware runs in order: panic
// recovery, request id, request logging, any RouteOption middleware, then
// the version gate.
func SetupRoutes(handlers *Handlers, g *gate.Gate, opts ...RouteOption) *mux.Router {
	router := mux.NewRouter()

	router.Use(recoveryMiddleware)
	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware(g.Mode()))

	for _, opt := range opts {
		opt(router)
	}

	router.Use(gateMiddleware(g))

	meta := router.PathPrefix("/api/metadata").Subrouter()
	meta.HandleFunc("/music", handlers.Music).Methods(http.MethodGet)
	meta.HandleFunc("/movie", handlers.Movie).Methods(http.MethodGet)
	meta.HandleFunc("/tv", handlers.TV).Methods(http.MethodGet)
	meta.HandleFunc("/book", handlers.Book).Methods(http.MethodGet)

	router.HandleFunc(ConfigPath, handlers.DiscordConfig).Methods(http.MethodGet)
	router.HandleFunc(HealthPath, handlers.HealthCheck).Methods(http.MethodGet)

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, models.NewErrorResponse("Method not allowed", models.ErrorCodeMethodNotAllowed))
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Not found", models.ErrorCodeNotFound))
	})

	return router
}
