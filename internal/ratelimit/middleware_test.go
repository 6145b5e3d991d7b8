package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaproxy/internal/models"
)

func TestSetHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	reset := time.Unix(1767268860, 0)

	SetHeaders(rr, Result{Outcome: OutcomeAllowed, Limit: 30, Remaining: 12, ResetAt: reset})

	assert.Equal(t, "30", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "12", rr.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1767268860", rr.Header().Get("X-RateLimit-Reset"))
}

func TestSetHeaders_Bypassed(t *testing.T) {
	rr := httptest.NewRecorder()

	SetHeaders(rr, Result{Outcome: OutcomeBypassed, Limit: 30, Remaining: 30})

	assert.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
}

func TestWriteDenied(t *testing.T) {
	rr := httptest.NewRecorder()

	WriteDenied(rr, "abc", Result{
		Outcome:    OutcomeBanned,
		Count:      31,
		Limit:      30,
		ResetAt:    time.Now().Add(time.Minute),
		RetryAfter: 250*time.Second + 300*time.Millisecond,
	})

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "251", rr.Header().Get("Retry-After"))
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

	var errResp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
	assert.Equal(t, models.ErrorCodeRateLimitExceeded, errResp.Code)
	assert.Equal(t, 251, errResp.RetryAfter)

	retryAfter, err := strconv.Atoi(rr.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Positive(t, retryAfter)
}
