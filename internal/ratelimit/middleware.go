package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"metaproxy/internal/models"
)

// SetHeaders writes the standard rate limit headers for a counted request.
// Bypassed requests carry no headers since they were not counted.
func SetHeaders(w http.ResponseWriter, res Result) {
	if res.Outcome == OutcomeBypassed {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
}

// WriteDenied answers a denied request with 429, a Retry-After header and a
// JSON error envelope carrying the remaining ban in seconds.
func WriteDenied(w http.ResponseWriter, clientID string, res Result) {
	SetHeaders(w, res)

	errorResp := models.NewRateLimitResponse(res.RetryAfter)
	w.Header().Set("Retry-After", strconv.Itoa(errorResp.RetryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		slog.Error("Failed to encode rate limit response", "error", err)
	}

	slog.Warn("Rate limit exceeded",
		"client_id", clientID,
		"outcome", res.Outcome.String(),
		"limit", res.Limit,
		"retry_after", errorResp.RetryAfter,
	)
}
