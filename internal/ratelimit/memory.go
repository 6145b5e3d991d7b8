package ratelimit

import (
	"log/slog"
	"sync"
	"time"
)

// Config holds the window and ban parameters.
type Config struct {
	Window          time.Duration // Length of one counting window
	MaxRequests     int           // Requests allowed per window
	BanDuration     time.Duration // Ban applied when MaxRequests is exceeded
	CleanupInterval time.Duration // Sweep period; zero disables the sweeper
}

// BanLimiter is an in-memory fixed-window limiter with ban escalation. Each
// identifier gets one ClientState; a request that takes the count past
// MaxRequests bans the identifier for BanDuration. A background goroutine
// evicts entries whose window and ban are both long over, which is
// indistinguishable from keeping them because the next request would reset
// the window anyway.
type BanLimiter struct {
	cfg Config

	mu      sync.Mutex
	clients map[string]*ClientState
	done    chan struct{}
	closed  bool
}

// NewBanLimiter creates a limiter and starts its eviction goroutine.
func NewBanLimiter(cfg Config) *BanLimiter {
	b := &BanLimiter{
		cfg:     cfg,
		clients: make(map[string]*ClientState),
		done:    make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go b.cleanup()
	}
	return b
}

// Check applies the window and ban rules for clientID at now. The whole
// read-modify-write runs under the limiter mutex.
func (b *BanLimiter) Check(clientID string, now time.Time) Result {
	if IsUnknown(clientID) {
		return Result{Outcome: OutcomeBypassed, Limit: b.cfg.MaxRequests, Remaining: b.cfg.MaxRequests}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	state, exists := b.clients[clientID]
	if exists && state.Banned(now) {
		return b.result(OutcomeBanned, state, state.BannedUntil.Sub(now))
	}

	if !exists {
		state = &ClientState{}
		b.clients[clientID] = state
	}

	if !exists || now.Sub(state.WindowStart) > b.cfg.Window {
		state.RequestCount = 1
		state.WindowStart = now
		state.BannedUntil = time.Time{}
	} else {
		state.RequestCount++
	}

	if state.RequestCount > b.cfg.MaxRequests {
		state.BannedUntil = now.Add(b.cfg.BanDuration)
		slog.Warn("Client banned",
			"client_id", clientID,
			"requests", state.RequestCount,
			"window", b.cfg.Window,
			"banned_until", state.BannedUntil,
		)
		return b.result(OutcomeNewlyBanned, state, b.cfg.BanDuration)
	}

	return b.result(OutcomeAllowed, state, 0)
}

func (b *BanLimiter) result(outcome Outcome, state *ClientState, retryAfter time.Duration) Result {
	remaining := b.cfg.MaxRequests - state.RequestCount
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Outcome:    outcome,
		Count:      state.RequestCount,
		Limit:      b.cfg.MaxRequests,
		Remaining:  remaining,
		ResetAt:    state.WindowStart.Add(b.cfg.Window),
		RetryAfter: retryAfter,
	}
}

// State returns a copy of the stored state for clientID.
func (b *BanLimiter) State(clientID string) (ClientState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.clients[clientID]
	if !ok {
		return ClientState{}, false
	}
	return *state, true
}

// Len returns the number of tracked identifiers.
func (b *BanLimiter) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close stops the background cleanup goroutine.
func (b *BanLimiter) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.done)
	}
}

// cleanup periodically evicts stale entries.
func (b *BanLimiter) cleanup() {
	ticker := time.NewTicker(b.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case now := <-ticker.C:
			if evicted := b.evictStale(now); evicted > 0 {
				slog.Debug("Evicted stale rate limit entries", "count", evicted)
			}
		}
	}
}

// evictStale removes entries whose window ended more than one window ago and
// whose ban, if any, has expired.
func (b *BanLimiter) evictStale(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	evicted := 0
	for key, state := range b.clients {
		if now.Sub(state.WindowStart) > 2*b.cfg.Window && !state.Banned(now) {
			delete(b.clients, key)
			evicted++
		}
	}
	return evicted
}
