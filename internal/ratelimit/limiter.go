// Package ratelimit caps request throughput per client identifier with a
// fixed counting window and escalates sustained abuse to a temporary ban.
// State lives in memory for the life of the process.
package ratelimit

import (
	"time"

	"metaproxy/internal/models"
)

// Limiter defines the rate limiting contract. Implementations must be safe for
// concurrent use.
type Limiter interface {
	// Check records a request from clientID at now and reports whether it may
	// proceed. Denied requests must not reach the metadata catalogs.
	Check(clientID string, now time.Time) Result

	// Close stops background goroutines and releases resources.
	Close()
}

// Outcome classifies a Check result.
type Outcome int

const (
	// OutcomeAllowed means the request was counted and may proceed.
	OutcomeAllowed Outcome = iota
	// OutcomeBypassed means the client is unidentified and was not counted.
	// The version gate answers such clients with the update notice.
	OutcomeBypassed
	// OutcomeBanned means the client is serving an earlier ban.
	OutcomeBanned
	// OutcomeNewlyBanned means this request pushed the client over the limit.
	OutcomeNewlyBanned
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllowed:
		return "allowed"
	case OutcomeBypassed:
		return "bypassed"
	case OutcomeBanned:
		return "banned"
	case OutcomeNewlyBanned:
		return "newly_banned"
	default:
		return "unknown"
	}
}

// Denied reports whether the request must be rejected.
func (o Outcome) Denied() bool {
	return o == OutcomeBanned || o == OutcomeNewlyBanned
}

// Result contains the decision and the client's counter state for
// populating response headers.
type Result struct {
	Outcome    Outcome
	Count      int           // Requests counted in the current window
	Limit      int           // Maximum requests per window
	Remaining  int           // Requests left in the current window
	ResetAt    time.Time     // When the current window ends
	RetryAfter time.Duration // Remaining ban (meaningful only when denied)
}

// ClientState is the per-identifier counter. A zero BannedUntil means the
// client is not banned.
type ClientState struct {
	RequestCount int
	WindowStart  time.Time
	BannedUntil  time.Time
}

// Banned reports whether the client is serving a ban at now.
func (s ClientState) Banned(now time.Time) bool {
	return !s.BannedUntil.IsZero() && now.Before(s.BannedUntil)
}

// IsUnknown reports whether clientID is the sentinel for unidentified clients.
func IsUnknown(clientID string) bool {
	return clientID == models.UnknownClient
}
