// Package gate decides, per request, whether a client may reach the metadata
// catalogs. In LOG_ONLY mode every request proceeds. In STRICT mode
// unidentified or outdated clients receive the update-required notice and
// clients over their rate limit are rejected.
package gate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"metaproxy/internal/models"
	"metaproxy/internal/ratelimit"
)

// Action is the gate's verdict for one request.
type Action int

const (
	// ActionBypass means the path is exempt from gating.
	ActionBypass Action = iota
	// ActionProceed means the request continues to its handler.
	ActionProceed
	// ActionUpdateRequired means the request is answered with the update notice.
	ActionUpdateRequired
	// ActionRateLimited means the request is rejected with 429.
	ActionRateLimited
)

func (a Action) String() string {
	switch a {
	case ActionBypass:
		return "bypass"
	case ActionProceed:
		return "proceed"
	case ActionUpdateRequired:
		return "update_required"
	case ActionRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Reasons attached to decisions, used as log and metric labels.
const (
	ReasonExempt         = "exempt"
	ReasonLogOnly        = "log_only"
	ReasonUnidentified   = "unidentified"
	ReasonBanned         = "banned"
	ReasonOutdated       = "outdated"
	ReasonInvalidVersion = "invalid_version"
	ReasonAccepted       = "accepted"
)

// Request carries the identification the gate looks at.
type Request struct {
	Version  string
	ClientID string
	Path     string
}

// Decision is the outcome of Evaluate.
type Decision struct {
	Action     Action
	Reason     string
	RetryAfter time.Duration
	Limit      ratelimit.Result
	Payload    *models.MetadataResponse // set for ActionUpdateRequired
}

// Recorder receives every decision. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RecordDecision(ctx context.Context, mode string, d Decision)
}

// Option configures a Gate.
type Option func(*Gate)

// WithExemptPaths lists request paths that are never gated.
func WithExemptPaths(paths ...string) Option {
	return func(g *Gate) {
		for _, p := range paths {
			g.exempt[p] = struct{}{}
		}
	}
}

// WithRecorder attaches a decision recorder.
func WithRecorder(r Recorder) Option {
	return func(g *Gate) {
		g.recorder = r
	}
}

// WithClock replaces time.Now for the limiter's notion of the present.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		g.now = now
	}
}

type Gate struct {
	mode       string
	minVersion *models.Version
	notice     *models.MetadataResponse
	limiter    ratelimit.Limiter
	exempt     map[string]struct{}
	recorder   Recorder
	now        func() time.Time
}

// New builds a gate from the security configuration. The limiter is only
// consulted in STRICT mode.
func New(cfg models.SecurityConfig, limiter ratelimit.Limiter, opts ...Option) (*Gate, error) {
	minVersion, err := models.ParseVersion(cfg.MinClientVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid minimum client version: %w", err)
	}

	g := &Gate{
		mode:       cfg.Mode,
		minVersion: minVersion,
		notice:     models.NewUpdateRequiredResponse(cfg.MinClientVersion, cfg.UpdateIconURL, cfg.ReleasePageURL),
		limiter:    limiter,
		exempt:     make(map[string]struct{}),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Mode returns the configured security mode.
func (g *Gate) Mode() string {
	return g.mode
}

// Evaluate classifies req. Rules in STRICT mode apply in order: unidentified
// clients get the notice, then the rate limiter runs, then the version is
// compared against the minimum. A version header that is missing skips the
// comparison; one that is present but unparseable counts as outdated.
func (g *Gate) Evaluate(ctx context.Context, req Request) Decision {
	d := g.evaluate(req)
	if g.recorder != nil {
		g.recorder.RecordDecision(ctx, g.mode, d)
	}
	return d
}

func (g *Gate) evaluate(req Request) Decision {
	if _, ok := g.exempt[req.Path]; ok {
		return Decision{Action: ActionBypass, Reason: ReasonExempt}
	}

	if g.mode != models.SecurityModeStrict {
		return Decision{Action: ActionProceed, Reason: ReasonLogOnly}
	}

	if ratelimit.IsUnknown(req.ClientID) {
		return g.updateRequired(ReasonUnidentified)
	}

	res := g.limiter.Check(req.ClientID, g.now())
	if res.Outcome.Denied() {
		return Decision{
			Action:     ActionRateLimited,
			Reason:     ReasonBanned,
			RetryAfter: res.RetryAfter,
			Limit:      res,
		}
	}

	if req.Version != "" && req.Version != models.UnknownClient {
		v, err := models.ParseVersion(req.Version)
		if err != nil {
			slog.Debug("Unparseable client version", "version", req.Version, "client_id", req.ClientID, "error", err)
			d := g.updateRequired(ReasonInvalidVersion)
			d.Limit = res
			return d
		}
		if v.LessThan(g.minVersion) {
			d := g.updateRequired(ReasonOutdated)
			d.Limit = res
			return d
		}
	}

	return Decision{Action: ActionProceed, Reason: ReasonAccepted, Limit: res}
}

func (g *Gate) updateRequired(reason string) Decision {
	notice := *g.notice
	return Decision{Action: ActionUpdateRequired, Reason: reason, Payload: &notice}
}
