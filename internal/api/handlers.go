package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"metaproxy/internal/logger"
	"metaproxy/internal/metadata"
	"metaproxy/internal/models"
	"metaproxy/internal/token"
	"metaproxy/internal/version"
)

// Lookuper resolves a query against the catalog bound to a media kind.
type Lookuper interface {
	Lookup(ctx context.Context, kind metadata.Kind, query string) (*models.MetadataResponse, error)
	Enabled() []metadata.Kind
}

// TokenStatus reports whether the catalog access token is cached.
type TokenStatus interface {
	Valid() bool
	ExpiresAt() time.Time
}

// ClientCounter reports how many client identifiers the rate limiter tracks.
type ClientCounter interface {
	Len() int
}

// Handlers contains HTTP handlers for the metadata proxy
type Handlers struct {
	catalogs      Lookuper
	discordID     string
	latestVersion string
	mode          string

	tokens    TokenStatus
	clients   ClientCounter
	buildInfo version.Info
	startedAt time.Time
}

// HandlerOption configures optional Handlers dependencies.
type HandlerOption func(*Handlers)

// WithTokenStatus reports the access token state on the health endpoint.
func WithTokenStatus(ts TokenStatus) HandlerOption {
	return func(h *Handlers) {
		h.tokens = ts
	}
}

// WithClientCounter reports the rate limiter size on the health endpoint.
func WithClientCounter(cc ClientCounter) HandlerOption {
	return func(h *Handlers) {
		h.clients = cc
	}
}

// WithBuildInfo sets the version reported on the health endpoint.
func WithBuildInfo(info version.Info) HandlerOption {
	return func(h *Handlers) {
		h.buildInfo = info
	}
}

// NewHandlers creates a new handlers instance
func NewHandlers(catalogs Lookuper, config *models.Config, opts ...HandlerOption) *Handlers {
	h := &Handlers{
		catalogs:      catalogs,
		discordID:     config.Upstream.Discord.ClientID,
		latestVersion: config.Security.LatestVersion(),
		mode:          config.Security.Mode,
		startedAt:     time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Music handles track lookups
// GET /api/metadata/music?q=
//
// Unlike the other media kinds, music reports failures as errors: 400 without
// a query, 503 when no access token can be obtained and 500 when the search
// itself fails.
func (h *Handlers) Music(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeBadRequest, "No query provided")
		return
	}

	resp, err := h.catalogs.Lookup(r.Context(), metadata.KindMusic, query)
	if err != nil {
		log := logger.FromContext(r.Context())
		if errors.Is(err, token.ErrUnavailable) || errors.Is(err, metadata.ErrCatalogDisabled) {
			log.Error("Music lookup unavailable", "error", err)
			h.writeErrorResponse(w, r, http.StatusServiceUnavailable, models.ErrorCodeServiceUnavailable, "Service unavailable")
			return
		}
		log.Error("Music search failed", "error", err)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, models.ErrorCodeInternalError, "Search failed")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, resp)
}

// Movie handles film lookups
// GET /api/metadata/movie?q=
func (h *Handlers) Movie(w http.ResponseWriter, r *http.Request) {
	h.lenientLookup(w, r, metadata.KindMovie)
}

// TV handles series lookups
// GET /api/metadata/tv?q=
func (h *Handlers) TV(w http.ResponseWriter, r *http.Request) {
	h.lenientLookup(w, r, metadata.KindTV)
}

// Book handles volume lookups
// GET /api/metadata/book?q=
func (h *Handlers) Book(w http.ResponseWriter, r *http.Request) {
	h.lenientLookup(w, r, metadata.KindBook)
}

// lenientLookup answers {found:false} for a missing query and for any
// upstream failure; the failure is only logged.
func (h *Handlers) lenientLookup(w http.ResponseWriter, r *http.Request, kind metadata.Kind) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.writeJSONResponse(w, http.StatusOK, models.NotFound())
		return
	}

	resp, err := h.catalogs.Lookup(r.Context(), kind, query)
	if err != nil {
		logger.FromContext(r.Context()).Warn("Metadata lookup failed", "kind", string(kind), "error", err)
		resp = models.NotFound()
	}

	h.writeJSONResponse(w, http.StatusOK, resp)
}

// DiscordConfig serves the client configuration. It is never gated so that
// outdated clients can still learn which version to install.
// GET /api/config/discord-id
func (h *Handlers) DiscordConfig(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, &models.ClientConfigResponse{
		ClientID:      h.discordID,
		LatestVersion: h.latestVersion,
	})
}

// HealthCheck handles health check requests
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.NewHealthCheckResponse(models.StatusHealthy)
	response.Version = h.buildInfo.Version
	response.Uptime = time.Since(h.startedAt).Round(time.Second).String()

	enabled := make(map[metadata.Kind]bool)
	for _, kind := range h.catalogs.Enabled() {
		enabled[kind] = true
	}
	for _, kind := range []metadata.Kind{metadata.KindMusic, metadata.KindMovie, metadata.KindTV, metadata.KindBook} {
		name := "catalog_" + string(kind)
		if enabled[kind] {
			response.AddComponent(name, models.StatusHealthy, "Catalog configured")
		} else {
			response.AddComponent(name, models.StatusDisabled, "No credentials configured")
		}
	}

	if h.tokens != nil {
		if h.tokens.Valid() {
			response.AddComponent("token_cache", models.StatusHealthy, "Access token cached")
			response.AddMetric("token_expires_at", h.tokens.ExpiresAt())
		} else {
			response.AddComponent("token_cache", models.StatusDegraded, "No access token cached")
		}
	}

	if h.clients != nil {
		response.AddMetric("tracked_clients", h.clients.Len())
	}
	response.AddMetric("security_mode", h.mode)

	h.writeJSONResponse(w, http.StatusOK, response)
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	writeJSON(w, statusCode, data)
}

// writeErrorResponse writes an error response tagged with the request id
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	errorResp := models.NewErrorResponse(message, errorCode)
	errorResp.RequestID = RequestIDFromContext(r.Context())
	writeJSON(w, statusCode, errorResp)
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing else can be sent.
		slog.Error("Error encoding JSON response", "error", err)
	}
}
