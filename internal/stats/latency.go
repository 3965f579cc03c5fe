// Package stats keeps rolling latency aggregates for validation work.
package stats

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	at time.Time
	ms float64
}

// Snapshot is a point-in-time aggregate of latency samples, in milliseconds.
type Snapshot struct {
	Count int     `json:"count" yaml:"count"`
	MinMs float64 `json:"min_ms" yaml:"min_ms"`
	MaxMs float64 `json:"max_ms" yaml:"max_ms"`
	AvgMs float64 `json:"avg_ms" yaml:"avg_ms"`
	P50Ms float64 `json:"p50_ms" yaml:"p50_ms"`
	P95Ms float64 `json:"p95_ms" yaml:"p95_ms"`
	P99Ms float64 `json:"p99_ms" yaml:"p99_ms"`
}

// Latency tracks recent durations within a rolling window. It is safe for
// concurrent use.
type Latency struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
	now     func() time.Time
}

// NewLatency keeps samples for maxAge, one hour when maxAge is not positive.
func NewLatency(maxAge time.Duration) *Latency {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Latency{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Record adds one duration. Negative durations count as zero.
func (l *Latency) Record(d time.Duration) {
	d = max(d, 0)
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)
	l.samples = append(l.samples, sample{at: now, ms: float64(d) / float64(time.Millisecond)})
}

// Snapshot aggregates the samples still inside the window.
func (l *Latency) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(l.now())
	if len(l.samples) == 0 {
		return Snapshot{}
	}

	values := make([]float64, 0, len(l.samples))
	var sum float64
	for _, s := range l.samples {
		values = append(values, s.ms)
		sum += s.ms
	}
	sort.Float64s(values)

	return Snapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: sum / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

func (l *Latency) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.maxAge)
	keep := 0
	for _, s := range l.samples {
		if !s.at.Before(cutoff) {
			l.samples[keep] = s
			keep++
		}
	}
	l.samples = l.samples[:keep]
}

// percentile interpolates linearly between the two closest ranks.
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return sorted[0]
	}
	if pct >= 100 {
		return sorted[len(sorted)-1]
	}

	index := float64(len(sorted)-1) * pct / 100
	lower := int(index)
	if lower+1 >= len(sorted) {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower] + (sorted[lower+1]-sorted[lower])*weight
}
