// Package alerts records structured security alerts raised by the admission
// engine and dispatches critical ones to an external notification sink.
package alerts

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wardenhq/warden/internal/logger"
	"github.com/wardenhq/warden/internal/metrics"
)

// Severity grades an alert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Known alert types. Raisers may use others; these cover the engine's own
// taxonomy.
const (
	TypeRateLimit          = "rate_limit"
	TypeBurstTraffic       = "burst_traffic"
	TypeSuspiciousActivity = "suspicious_activity"
	TypeManualBlock        = "manual_block"
)

// Alert is one recorded security alert. Records are append-only apart from
// resolution; pruning removes them after the retention window.
type Alert struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Severity   Severity          `json:"severity"`
	Message    string            `json:"message"`
	Context    map[string]string `json:"context,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	Resolved   bool              `json:"resolved"`
	ResolvedAt *time.Time        `json:"resolved_at,omitempty"`
}

// Filter narrows List results. Zero-value fields match everything.
type Filter struct {
	Type     string
	Severity Severity
	Resolved *bool
}

// Notifier delivers an alert out of band. Implementations are best-effort;
// delivery failures must stay inside the notifier.
type Notifier interface {
	Notify(title, message string, data map[string]string)
}

// Manager owns the alert records. Raising is safe from any goroutine and
// never blocks on notification: critical alerts are handed to a bounded
// queue drained by a single dispatcher.
type Manager struct {
	mu      sync.RWMutex
	records map[string]*Alert

	clock    func() time.Time
	notifier Notifier
	queue    chan Alert
	done     chan struct{}
	log      *logrus.Entry
}

// Option adjusts Manager construction.
type Option func(*Manager)

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithQueueSize overrides the notification queue depth.
func WithQueueSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.queue = make(chan Alert, n)
		}
	}
}

// NewManager returns a running manager. A nil notifier disables dispatch;
// alerts are still recorded.
func NewManager(notifier Notifier, opts ...Option) *Manager {
	m := &Manager{
		records:  make(map[string]*Alert),
		clock:    time.Now,
		notifier: notifier,
		queue:    make(chan Alert, 64),
		done:     make(chan struct{}),
		log:      logger.WithFields(map[string]interface{}{"component": "alerts"}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.dispatch()
	return m
}

// Raise records a new alert and, for critical severity, queues an
// out-of-band notification. The queue send is non-blocking: when the queue
// is full the notification is dropped and logged, never the record.
func (m *Manager) Raise(alertType string, severity Severity, message string, context map[string]string) Alert {
	a := Alert{
		ID:        uuid.NewString(),
		Type:      alertType,
		Severity:  severity,
		Message:   message,
		Context:   cloneContext(context),
		CreatedAt: m.clock(),
	}

	m.mu.Lock()
	stored := a
	m.records[a.ID] = &stored
	m.mu.Unlock()

	metrics.IncAlert(string(severity))
	m.log.WithFields(map[string]interface{}{
		"alert_id": a.ID,
		"type":     a.Type,
		"severity": string(a.Severity),
	}).Warn(message)

	if severity == SeverityCritical && m.notifier != nil {
		select {
		case m.queue <- a:
		default:
			m.log.WithField("alert_id", a.ID).Error("notification queue full, dropping dispatch")
		}
	}
	return a
}

func (m *Manager) dispatch() {
	for {
		select {
		case a := <-m.queue:
			data := cloneContext(a.Context)
			if data == nil {
				data = make(map[string]string)
			}
			data["alert_id"] = a.ID
			data["type"] = a.Type
			data["severity"] = string(a.Severity)
			m.notifier.Notify("Security alert: "+a.Type, a.Message, data)
		case <-m.done:
			return
		}
	}
}

// Get returns a copy of the alert with the given id.
func (m *Manager) Get(id string) (Alert, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.records[id]
	if !ok {
		return Alert{}, false
	}
	return *a, true
}

// List returns alerts matching f, newest first, capped at limit when
// limit > 0.
func (m *Manager) List(f Filter, limit int) []Alert {
	m.mu.RLock()
	out := make([]Alert, 0, len(m.records))
	for _, a := range m.records {
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.Severity != "" && a.Severity != f.Severity {
			continue
		}
		if f.Resolved != nil && a.Resolved != *f.Resolved {
			continue
		}
		out = append(out, *a)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Resolve marks the alert resolved and reports whether it existed.
// Resolving twice is a no-op that still returns true.
func (m *Manager) Resolve(id string) bool {
	now := m.clock()

	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.records[id]
	if !ok {
		return false
	}
	if !a.Resolved {
		a.Resolved = true
		a.ResolvedAt = &now
	}
	return true
}

// UnresolvedCritical counts unresolved critical alerts created within the
// given lookback. Feeds the health check.
func (m *Manager) UnresolvedCritical(lookback time.Duration) int {
	cutoff := m.clock().Add(-lookback)

	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, a := range m.records {
		if a.Severity == SeverityCritical && !a.Resolved && a.CreatedAt.After(cutoff) {
			n++
		}
	}
	return n
}

// Prune drops alerts older than retention and reports how many were
// removed.
func (m *Manager) Prune(retention time.Duration) int {
	cutoff := m.clock().Add(-retention)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, a := range m.records {
		if a.CreatedAt.Before(cutoff) {
			delete(m.records, id)
			removed++
		}
	}
	return removed
}

// Close stops the dispatcher. Pending queue entries are discarded.
func (m *Manager) Close() {
	close(m.done)
}

func cloneContext(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
