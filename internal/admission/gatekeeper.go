package admission

import (
	"fmt"
	"time"

	"github.com/wardenhq/warden/internal/alerts"
	"github.com/wardenhq/warden/internal/logger"
	"github.com/wardenhq/warden/internal/metrics"
)

// Reason is the machine-readable cause attached to a denial.
type Reason string

const (
	ReasonBlocked     Reason = "blocked"
	ReasonRateLimited Reason = "rate_limited"
	ReasonBurst       Reason = "burst_detected"
)

// DefaultBurstBlockDuration is how long a burst escalation blocks an
// identifier.
const DefaultBurstBlockDuration = time.Hour

// Verdict is the composite admission decision for one request.
type Verdict struct {
	Allowed    bool          `json:"allowed"`
	Reason     Reason        `json:"reason,omitempty"`
	Blocked    bool          `json:"blocked"`
	Limit      int           `json:"limit,omitempty"`
	Remaining  int           `json:"remaining,omitempty"`
	ResetAt    time.Time     `json:"reset_at,omitempty"`
	RetryAfter time.Duration `json:"-"`
}

// EventSink receives denial events for out-of-band recording. Record must
// not block the admission path.
type EventSink interface {
	RecordDenial(identifier string, class RuleClass, reason Reason, context map[string]string)
}

// Gatekeeper is the per-request façade over the block list, burst detector
// and quota limiter. One instance is constructed at process start and
// injected into the request-handling layer.
type Gatekeeper struct {
	clock    Clock
	blocks   *BlockList
	burst    *BurstDetector
	limiter  *Limiter
	alerter  Alerter
	events   EventSink
	burstTTL time.Duration
}

// GatekeeperConfig collects the orchestrator's collaborators.
type GatekeeperConfig struct {
	Clock              Clock
	Blocks             *BlockList
	Burst              *BurstDetector
	Limiter            *Limiter
	Alerter            Alerter
	Events             EventSink
	BurstBlockDuration time.Duration
}

// NewGatekeeper wires the orchestrator. Alerter and Events may be nil.
func NewGatekeeper(cfg GatekeeperConfig) *Gatekeeper {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	ttl := cfg.BurstBlockDuration
	if ttl <= 0 {
		ttl = DefaultBurstBlockDuration
	}
	return &Gatekeeper{
		clock:    clock,
		blocks:   cfg.Blocks,
		burst:    cfg.Burst,
		limiter:  cfg.Limiter,
		alerter:  cfg.Alerter,
		events:   cfg.Events,
		burstTTL: ttl,
	}
}

// Admit runs the admission sequence for one request: block list first, then
// burst detection, then the quota check. The ordering makes "blocked" win
// over "rate limited" and keeps already-blocked callers from consuming
// quota. Denials are ordinary verdicts, never errors.
func (g *Gatekeeper) Admit(identifier string, class RuleClass) Verdict {
	metrics.IncRequest()
	now := g.clock()

	if ent, blocked := g.blocks.Get(identifier); blocked {
		v := Verdict{Allowed: false, Reason: ReasonBlocked, Blocked: true}
		if ent.ExpiresAt != nil {
			v.RetryAfter = ent.ExpiresAt.Sub(now)
		}
		g.deny(identifier, class, ReasonBlocked, map[string]string{"block_reason": ent.Reason})
		return v
	}

	if g.burst.Observe(identifier) {
		g.blocks.Block(identifier, fmt.Sprintf("burst: over %d requests in %s", g.burst.Ceiling(), g.burst.Window()), g.burstTTL)
		metrics.IncBurst()
		metrics.SetActiveBlocks(g.blocks.Len())
		if g.alerter != nil {
			g.alerter.Raise(alerts.TypeBurstTraffic, alerts.SeverityHigh,
				fmt.Sprintf("burst traffic from %s", identifier),
				map[string]string{
					"identifier": identifier,
					"ceiling":    fmt.Sprintf("%d", g.burst.Ceiling()),
					"window":     g.burst.Window().String(),
				})
		}
		g.deny(identifier, class, ReasonBurst, nil)
		return Verdict{Allowed: false, Reason: ReasonBurst, Blocked: true, RetryAfter: g.burstTTL}
	}

	res, err := g.limiter.Check(identifier, class)
	if err != nil {
		// Fail open: an internal configuration or store failure must not
		// take the service down with it. The admission is logged and
		// counted so operators can see the policy firing.
		logger.WithFields(map[string]interface{}{
			"identifier": identifier,
			"rule_class": string(class),
		}).WithError(err).Error("quota check failed, admitting fail-open")
		metrics.IncFailOpen()
		metrics.IncAdmitted()
		return Verdict{Allowed: true}
	}

	if !res.Allowed {
		g.deny(identifier, class, ReasonRateLimited, map[string]string{"limit": fmt.Sprintf("%d", res.Limit)})
		return Verdict{
			Allowed:    false,
			Reason:     ReasonRateLimited,
			Limit:      res.Limit,
			Remaining:  res.Remaining,
			ResetAt:    res.ResetAt,
			RetryAfter: res.ResetAt.Sub(now),
		}
	}

	metrics.IncAdmitted()
	return Verdict{
		Allowed:   true,
		Limit:     res.Limit,
		Remaining: res.Remaining,
		ResetAt:   res.ResetAt,
	}
}

// Blocks exposes the block list for the operator surface.
func (g *Gatekeeper) Blocks() *BlockList { return g.blocks }

func (g *Gatekeeper) deny(identifier string, class RuleClass, reason Reason, context map[string]string) {
	metrics.IncDenied(string(reason))
	if g.events != nil {
		g.events.RecordDenial(identifier, class, reason, context)
	}
}
