package metrics

import (
	"sync"
	"time"
)

// ModelLatency tracks how long one booster takes to score.
type ModelLatency struct {
	// EWMA of scoring time in milliseconds.
	EWMAms float64

	// Counters since process start.
	OK    uint64
	Error uint64

	LastDuration time.Duration
	LastAt       time.Time
}

// LatencyTracker keeps an EWMA of per-model scoring latency, keyed by the
// booster label. Safe for concurrent use.
type LatencyTracker struct {
	mu     sync.RWMutex
	alpha  float64
	models map[string]*ModelLatency
}

// NewLatencyTracker creates a tracker with EWMA smoothing factor alpha.
// Typical alpha: 0.1..0.3 (higher reacts faster).
func NewLatencyTracker(alpha float64) *LatencyTracker {
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.2
	}
	return &LatencyTracker{
		alpha:  alpha,
		models: map[string]*ModelLatency{},
	}
}

func (t *LatencyTracker) ObserveOK(label string, d time.Duration) {
	t.observe(label, d, true)
}

func (t *LatencyTracker) ObserveError(label string, d time.Duration) {
	t.observe(label, d, false)
}

func (t *LatencyTracker) observe(label string, d time.Duration, ok bool) {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.models[label]
	if m == nil {
		m = &ModelLatency{}
		t.models[label] = m
	}

	ms := float64(d.Microseconds()) / 1000.0
	if ms < 0 {
		ms = 0
	}

	if m.EWMAms == 0 {
		m.EWMAms = ms
	} else {
		m.EWMAms = (t.alpha * ms) + ((1.0 - t.alpha) * m.EWMAms)
	}

	m.LastDuration = d
	m.LastAt = now
	if ok {
		m.OK++
	} else {
		m.Error++
	}
}

func (t *LatencyTracker) Get(label string) (ModelLatency, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m := t.models[label]
	if m == nil {
		return ModelLatency{}, false
	}
	return *m, true
}

func (t *LatencyTracker) Snapshot() map[string]ModelLatency {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]ModelLatency, len(t.models))
	for k, v := range t.models {
		out[k] = *v
	}
	return out
}
