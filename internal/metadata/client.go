package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const maxErrorBody = 4 << 10

// ClientOptions configures the HTTP side of a catalog.
type ClientOptions struct {
	HTTPClient        *http.Client  // nil builds one with Timeout
	Timeout           time.Duration // per-request timeout when HTTPClient is nil
	RequestsPerSecond float64       // outbound throttle; zero disables it
	Burst             int
	UserAgent         string
}

// apiClient performs throttled JSON GETs against one upstream.
type apiClient struct {
	name      string
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
}

func newAPIClient(name, baseURL string, opts ClientOptions) *apiClient {
	c := &apiClient{
		name:      name,
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      opts.HTTPClient,
		userAgent: opts.UserAgent,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: opts.Timeout}
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst)
	}
	return c
}

func (c *apiClient) getJSON(ctx context.Context, path string, params url.Values, header http.Header, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &LookupError{Catalog: c.name, Err: fmt.Errorf("throttle: %w", err)}
		}
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &LookupError{Catalog: c.name, Err: fmt.Errorf("build request: %w", err)}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &LookupError{Catalog: c.name, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &LookupError{
			Catalog:    c.name,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &LookupError{Catalog: c.name, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
