package hardening

import (
	"log/slog"
	"sync"
	"time"
)

// Default monitor settings.
const (
	DefaultEventThreshold = 5
	DefaultEventWindow    = 5 * time.Minute

	// maxRecordedEvents bounds the in-memory event log.
	maxRecordedEvents = 1000
)

// Event is a recorded security-relevant occurrence.
type Event struct {
	Source string
	Kind   string
	Time   time.Time
}

// Monitor tracks validation failures per source and blocks sources
// that accumulate too many within the window. It keeps a bounded log
// of recent events for inspection.
type Monitor struct {
	mu        sync.Mutex
	threshold int
	window    time.Duration
	bySource  map[string][]time.Time
	events    []Event
	log       *slog.Logger

	now func() time.Time
}

// NewMonitor creates a monitor that blocks a source after threshold
// events within the window. Non-positive arguments fall back to the
// defaults. A nil logger uses slog's default.
func NewMonitor(threshold int, window time.Duration, log *slog.Logger) *Monitor {
	if threshold <= 0 {
		threshold = DefaultEventThreshold
	}
	if window <= 0 {
		window = DefaultEventWindow
	}
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		threshold: threshold,
		window:    window,
		bySource:  make(map[string][]time.Time),
		log:       log,
		now:       time.Now,
	}
}

// Record logs a security event attributed to source.
func (m *Monitor) Record(source, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.bySource[source] = append(m.pruneLocked(source, now), now)

	m.events = append(m.events, Event{Source: source, Kind: kind, Time: now})
	if len(m.events) > maxRecordedEvents {
		m.events = m.events[len(m.events)-maxRecordedEvents:]
	}

	count := len(m.bySource[source])
	m.log.Warn("security event recorded",
		"source", source,
		"kind", kind,
		"recent_events", count,
	)
	if count == m.threshold {
		m.log.Error("source blocked after repeated security events",
			"source", source,
			"threshold", m.threshold,
			"window", m.window,
		)
	}
}

// Blocked reports whether source has reached the event threshold
// within the current window.
func (m *Monitor) Blocked(source string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	recent := m.pruneLocked(source, m.now())
	if len(recent) == 0 {
		// Querying a source must not grow the map.
		delete(m.bySource, source)
	} else {
		m.bySource[source] = recent
	}
	return len(recent) >= m.threshold
}

// RecentEvents returns a copy of the bounded event log, oldest first.
func (m *Monitor) RecentEvents() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Forgive clears the recorded events for source, unblocking it.
func (m *Monitor) Forgive(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bySource, source)
}

// pruneLocked returns the source's timestamps still inside the window.
// Callers must hold mu.
func (m *Monitor) pruneLocked(source string, now time.Time) []time.Time {
	cutoff := now.Add(-m.window)
	recent := m.bySource[source]
	keep := 0
	for keep < len(recent) && !recent[keep].After(cutoff) {
		keep++
	}
	return recent[keep:]
}
