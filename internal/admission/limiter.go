package admission

import "time"

// QuotaResult is the outcome of one quota check, including the metadata the
// caller surfaces as rate-limit response headers.
type QuotaResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter is the admission decision engine: it consumes one unit of quota
// per check and compares the windowed count against the class ceiling.
type Limiter struct {
	store   *CounterStore
	catalog *RuleCatalog
}

// NewLimiter wires the decision engine to its counter store and catalog.
func NewLimiter(store *CounterStore, catalog *RuleCatalog) *Limiter {
	return &Limiter{store: store, catalog: catalog}
}

// Check records one request for identifier under class and decides whether
// it fits the quota. Every call consumes quota, denied calls included, so a
// caller retrying against the ceiling keeps paying for each probe.
func (l *Limiter) Check(identifier string, class RuleClass) (QuotaResult, error) {
	rule, err := l.catalog.Get(class)
	if err != nil {
		return QuotaResult{}, err
	}

	ent := l.store.Hit(compositeKey("quota", string(class), identifier), rule.Window)

	remaining := rule.MaxRequests - ent.Count
	if remaining < 0 {
		remaining = 0
	}
	return QuotaResult{
		Allowed:   ent.Count <= rule.MaxRequests,
		Limit:     rule.MaxRequests,
		Remaining: remaining,
		ResetAt:   ent.ExpiresAt,
	}, nil
}

// Peek reports the current quota state for identifier under class without
// consuming any. Used by the operator status surface.
func (l *Limiter) Peek(identifier string, class RuleClass) (QuotaResult, error) {
	rule, err := l.catalog.Get(class)
	if err != nil {
		return QuotaResult{}, err
	}

	ent, ok := l.store.Peek(compositeKey("quota", string(class), identifier))
	if !ok {
		return QuotaResult{Allowed: true, Limit: rule.MaxRequests, Remaining: rule.MaxRequests}, nil
	}

	remaining := rule.MaxRequests - ent.Count
	if remaining < 0 {
		remaining = 0
	}
	return QuotaResult{
		Allowed:   ent.Count <= rule.MaxRequests,
		Limit:     rule.MaxRequests,
		Remaining: remaining,
		ResetAt:   ent.ExpiresAt,
	}, nil
}
