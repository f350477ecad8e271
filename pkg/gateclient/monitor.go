package gateclient

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is how often Monitor re-checks when the caller does not
// pick an interval.
const DefaultInterval = time.Hour

// Monitor re-checks a version gate on an interval for long-running apps.
// It fails open: when the server cannot answer, it emits the last verdict
// it got (or an up-to-date one) flagged Unavailable, and never escalates to
// force_update or maintenance on its own.
type Monitor struct {
	client   *Client
	platform string
	current  string
	interval time.Duration

	mu   sync.Mutex
	last *CheckResult

	resume  chan struct{}
	updates chan *CheckResult
}

func NewMonitor(client *Client, platform, currentVersion string, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		client:   client,
		platform: platform,
		current:  currentVersion,
		interval: interval,
		resume:   make(chan struct{}, 1),
		updates:  make(chan *CheckResult, 1),
	}
}

// Updates delivers every verdict the monitor produces. The channel is
// never closed; stop reading when the Run context ends.
func (m *Monitor) Updates() <-chan *CheckResult {
	return m.updates
}

// Resume forces a check as soon as Run gets to it. Apps call this when
// coming back to the foreground, where hours may have passed since the
// last tick.
func (m *Monitor) Resume() {
	select {
	case m.resume <- struct{}{}:
	default:
	}
}

// Last returns the most recent verdict that actually came from the server,
// or nil before the first successful check.
func (m *Monitor) Last() *CheckResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Run checks immediately, then on every tick and Resume call, until ctx is
// cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.checkOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkOnce(ctx)
		case <-m.resume:
			m.checkOnce(ctx)
		}
	}
}

func (m *Monitor) checkOnce(ctx context.Context) {
	result, err := m.client.Check(ctx, m.platform, m.current)
	if err != nil {
		// Fail open. A dark gate server must not lock anyone out, so
		// the cached verdict is reused and marked as such.
		m.mu.Lock()
		cached := m.last
		m.mu.Unlock()

		fallback := &CheckResult{Status: StatusUpToDate}
		if cached != nil {
			copied := *cached
			fallback = &copied
		}
		fallback.Unavailable = true
		m.emit(fallback)
		return
	}

	m.mu.Lock()
	m.last = result
	m.mu.Unlock()
	m.emit(result)
}

// emit hands the verdict to the consumer without ever blocking the loop.
// With nobody draining, the buffered slot keeps the newest verdict.
func (m *Monitor) emit(result *CheckResult) {
	for {
		select {
		case m.updates <- result:
			return
		default:
		}
		select {
		case <-m.updates:
		default:
		}
	}
}
