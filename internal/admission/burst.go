package admission

import "time"

// Burst detection defaults: more than 50 observations inside one aligned
// 10-second window classifies the identifier as flooding.
const (
	DefaultBurstWindow  = 10 * time.Second
	DefaultBurstCeiling = 50
)

// BurstDetector keeps a short aligned-window counter per identifier and
// flags seconds-scale floods that the per-class quotas are too slow to
// catch.
type BurstDetector struct {
	store   *CounterStore
	clock   Clock
	window  time.Duration
	ceiling int
}

// NewBurstDetector returns a detector over the shared counter store.
// Non-positive window or ceiling fall back to the defaults.
func NewBurstDetector(store *CounterStore, clock Clock, window time.Duration, ceiling int) *BurstDetector {
	if clock == nil {
		clock = time.Now
	}
	if window <= 0 {
		window = DefaultBurstWindow
	}
	if ceiling <= 0 {
		ceiling = DefaultBurstCeiling
	}
	return &BurstDetector{store: store, clock: clock, window: window, ceiling: ceiling}
}

// Observe records one request for identifier and reports whether it crossed
// the burst ceiling within the current window. The counter key embeds the
// aligned bucket index, so a new window starts a new counter and stale ones
// age out with the bucket TTL.
func (d *BurstDetector) Observe(identifier string) bool {
	now := d.clock()
	ent := d.store.Hit(bucketKey("burst", identifier, now, d.window), d.window)
	return ent.Count > d.ceiling
}

// Window reports the configured burst window.
func (d *BurstDetector) Window() time.Duration { return d.window }

// Ceiling reports the configured burst ceiling.
func (d *BurstDetector) Ceiling() int { return d.ceiling }
