// Package models - API response types and error handling.
//
// Every metadata route answers with MetadataResponse so the desktop client can
// render any result, including the update-required notice, without looking at
// which catalog produced it. Errors use ErrorResponse.
package models

import (
	"fmt"
	"time"
)

// MetadataResponse is the uniform envelope returned by the metadata routes.
// Found is always serialised; every other field is omitted when empty.
type MetadataResponse struct {
	Found  bool   `json:"found"`
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
	Line1  string `json:"line1,omitempty"`
	Line2  string `json:"line2,omitempty"`
	Image  string `json:"image,omitempty"`
	URL    string `json:"url,omitempty"`
}

// NotFound returns the {found:false} envelope.
func NotFound() *MetadataResponse {
	return &MetadataResponse{Found: false}
}

// NewUpdateRequiredResponse builds the notice served to outdated or
// unidentified clients. It is shaped like a regular metadata hit.
func NewUpdateRequiredResponse(minVersion, iconURL, releaseURL string) *MetadataResponse {
	return &MetadataResponse{
		Found: true,
		Title: fmt.Sprintf("Update to v%s", minVersion),
		Line1: "Update Required",
		Line2: fmt.Sprintf("Please install v%s", minVersion),
		Image: iconURL,
		URL:   releaseURL,
	}
}

// ClientConfigResponse is served on the configuration route.
type ClientConfigResponse struct {
	ClientID      string `json:"client_id"`
	LatestVersion string `json:"latest_version"`
}

// ErrorResponse provides consistent error information across all endpoints.
type ErrorResponse struct {
	Error      string            `json:"error"`                 // Error type (always "error")
	Message    string            `json:"message"`               // Human-readable error description
	Code       string            `json:"code,omitempty"`        // Machine-readable error code
	Details    map[string]string `json:"details,omitempty"`     // Extra diagnostic fields
	RetryAfter int               `json:"retry_after,omitempty"` // Seconds until the client may retry
	Timestamp  time.Time         `json:"timestamp"`             // Error occurrence time
	RequestID  string            `json:"request_id,omitempty"`  // Unique request identifier
}

type HealthCheckResponse struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
	Metrics    map[string]interface{}     `json:"metrics,omitempty"`
}

type ComponentHealth struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Health status values
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusDisabled  = "disabled"
)

// Standard error codes
const (
	ErrorCodeNotFound           = "NOT_FOUND"           // 404: Route doesn't exist
	ErrorCodeBadRequest         = "BAD_REQUEST"         // 400: Invalid request format
	ErrorCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"  // 405: Wrong HTTP method
	ErrorCodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED" // 429: Client is rate limited or banned
	ErrorCodeInternalError      = "INTERNAL_ERROR"      // 500: Server-side or upstream error
	ErrorCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503: Upstream credentials unavailable
)

func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

// NewRateLimitResponse builds the 429 body. retryAfter is rounded up to whole
// seconds so a client never retries before its ban ends.
func NewRateLimitResponse(retryAfter time.Duration) *ErrorResponse {
	resp := NewErrorResponse("Too many requests", ErrorCodeRateLimitExceeded)
	resp.RetryAfter = RetryAfterSeconds(retryAfter)
	return resp
}

// RetryAfterSeconds converts a wait into whole seconds, rounding up.
func RetryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

func NewHealthCheckResponse(status string) *HealthCheckResponse {
	return &HealthCheckResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth),
		Metrics:    make(map[string]interface{}),
	}
}

func (h *HealthCheckResponse) AddComponent(name, status, message string) {
	h.Components[name] = ComponentHealth{
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func (h *HealthCheckResponse) AddMetric(name string, value interface{}) {
	h.Metrics[name] = value
}
