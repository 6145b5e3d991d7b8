// Package token caches the catalog access token obtained through the OAuth2
// client-credentials grant. A cached token is served until it is within the
// safety margin of its expiry; only then is a new one exchanged. Concurrent
// callers that find the token stale share a single exchange.
package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// DefaultMargin is how long before expiry a token stops being served.
const DefaultMargin = 5 * time.Minute

// ErrUnavailable is returned when no usable token is cached and the exchange
// failed. The cause is wrapped.
var ErrUnavailable = errors.New("access token unavailable")

// Exchanger obtains a fresh access token from the authorization server.
type Exchanger interface {
	Exchange(ctx context.Context) (*oauth2.Token, error)
}

// ExchangerFunc adapts a function to the Exchanger interface.
type ExchangerFunc func(ctx context.Context) (*oauth2.Token, error)

func (f ExchangerFunc) Exchange(ctx context.Context) (*oauth2.Token, error) {
	return f(ctx)
}

// Option configures a Cache.
type Option func(*Cache)

// WithMargin overrides DefaultMargin.
func WithMargin(margin time.Duration) Option {
	return func(c *Cache) {
		c.margin = margin
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// Cache holds at most one access token and its absolute expiry.
type Cache struct {
	exchanger Exchanger
	margin    time.Duration
	now       func() time.Time

	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

// NewCache creates an empty cache backed by exchanger.
func NewCache(exchanger Exchanger, opts ...Option) *Cache {
	c := &Cache{
		exchanger: exchanger,
		margin:    DefaultMargin,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns a usable access token, exchanging credentials when the cached
// one is missing or inside the safety margin. If ctx ends while waiting for a
// shared exchange the caller gets ctx.Err(); the exchange itself carries on
// for the benefit of other callers.
func (c *Cache) Token(ctx context.Context) (string, error) {
	if tok, ok := c.cached(); ok {
		return tok, nil
	}

	ch := c.group.DoChan("token", func() (interface{}, error) {
		// Another caller may have refreshed while this one queued.
		if tok, ok := c.cached(); ok {
			return tok, nil
		}
		return c.refresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Cache) cached() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" {
		return "", false
	}
	if !c.now().Before(c.expiresAt.Add(-c.margin)) {
		return "", false
	}
	return c.token, true
}

func (c *Cache) refresh(ctx context.Context) (string, error) {
	requested := c.now()
	tok, err := c.exchanger.Exchange(ctx)
	if err != nil {
		slog.Error("Token exchange failed", "error", err)
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if tok == nil || tok.AccessToken == "" {
		slog.Error("Token exchange returned no access token")
		return "", fmt.Errorf("%w: empty access token", ErrUnavailable)
	}

	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		expiresAt = requested.Add(time.Duration(tok.ExpiresIn) * time.Second)
	}

	c.mu.Lock()
	c.token = tok.AccessToken
	c.expiresAt = expiresAt
	c.mu.Unlock()

	slog.Info("Access token refreshed", "expires_at", expiresAt)
	return tok.AccessToken, nil
}

// Invalidate drops the cached token so the next call exchanges credentials.
// Used when the catalog rejects the token before its advertised expiry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		slog.Warn("Access token invalidated", "expires_at", c.expiresAt)
	}
	c.token = ""
	c.expiresAt = time.Time{}
}

// Valid reports whether a usable token is cached.
func (c *Cache) Valid() bool {
	_, ok := c.cached()
	return ok
}

// ExpiresAt returns the absolute expiry of the cached token, zero when none.
func (c *Cache) ExpiresAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiresAt
}
