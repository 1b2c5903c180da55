package admission

import (
	"fmt"
	"time"

	"github.com/wardenhq/warden/internal/alerts"
)

// Failed-auth defaults: five failures for the same (account, source) pair
// inside fifteen minutes escalates to a block.
const (
	DefaultFailedAuthWindow    = 15 * time.Minute
	DefaultFailedAuthThreshold = 5
)

// Alerter is the engine's hook into the alert manager. Raise must not
// block. *alerts.Manager satisfies it.
type Alerter interface {
	Raise(alertType string, severity alerts.Severity, message string, context map[string]string) alerts.Alert
}

// FailedAuthTracker counts authentication failures per (account, source)
// pair and escalates repeat offenders to the block list. A success clears
// the pair's counter outright, which is distinct from the window expiring.
type FailedAuthTracker struct {
	store     *CounterStore
	blocks    *BlockList
	alerter   Alerter
	window    time.Duration
	threshold int
}

// NewFailedAuthTracker wires the tracker to the shared counter store and
// block list. Non-positive window or threshold fall back to the defaults;
// a nil alerter disables alerting but not blocking.
func NewFailedAuthTracker(store *CounterStore, blocks *BlockList, alerter Alerter, window time.Duration, threshold int) *FailedAuthTracker {
	if window <= 0 {
		window = DefaultFailedAuthWindow
	}
	if threshold <= 0 {
		threshold = DefaultFailedAuthThreshold
	}
	return &FailedAuthTracker{
		store:     store,
		blocks:    blocks,
		alerter:   alerter,
		window:    window,
		threshold: threshold,
	}
}

// RecordAttempt notes one authentication attempt for account from source.
// Reaching the failure threshold within the window blocks source with no
// expiry: escalated sources stay blocked until an operator unblocks them.
func (t *FailedAuthTracker) RecordAttempt(account, source string, success bool) {
	key := compositeKey("failedauth", account, source)

	if success {
		t.store.Reset(key)
		return
	}

	ent := t.store.Hit(key, t.window)
	if ent.Count != t.threshold {
		return
	}

	t.blocks.Block(source, fmt.Sprintf("%d failed authentication attempts for %s", ent.Count, account), 0)
	if t.alerter != nil {
		t.alerter.Raise(alerts.TypeSuspiciousActivity, alerts.SeverityHigh,
			fmt.Sprintf("repeated authentication failures for %s from %s", account, source),
			map[string]string{
				"account":  account,
				"source":   source,
				"failures": fmt.Sprintf("%d", ent.Count),
				"window":   t.window.String(),
			})
	}
}

// Failures reports the current failure count for the pair, zero when the
// window has lapsed.
func (t *FailedAuthTracker) Failures(account, source string) int {
	ent, ok := t.store.Peek(compositeKey("failedauth", account, source))
	if !ok {
		return 0
	}
	return ent.Count
}
