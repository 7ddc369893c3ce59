package pipeline

import (
	"slices"
	"sync"
	"time"
)

type parseSample struct {
	at       time.Time
	duration time.Duration
	rooms    int
}

// StatsSnapshot aggregates the parse samples inside the window.
type StatsSnapshot struct {
	Parses     int     `json:"parses"`
	Rooms      int     `json:"rooms"`
	MinMs      float64 `json:"min_ms"`
	MaxMs      float64 `json:"max_ms"`
	AvgMs      float64 `json:"avg_ms"`
	P50Ms      float64 `json:"p50_ms"`
	P95Ms      float64 `json:"p95_ms"`
	P99Ms      float64 `json:"p99_ms"`
	WindowSecs float64 `json:"window_secs"`
}

// ParseStats keeps roster parse timings for a rolling window.
type ParseStats struct {
	mu      sync.Mutex
	samples []parseSample
	window  time.Duration
	now     func() time.Time
}

func NewParseStats(window time.Duration) *ParseStats {
	if window <= 0 {
		window = time.Hour
	}
	return &ParseStats{
		samples: make([]parseSample, 0, 128),
		window:  window,
		now:     time.Now,
	}
}

// Record adds one parse of the given duration that produced rooms rooms.
func (s *ParseStats) Record(d time.Duration, rooms int) {
	d = max(d, 0)
	rooms = max(rooms, 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.samples = append(s.samples, parseSample{at: now, duration: d, rooms: rooms})
}

func (s *ParseStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	snap := StatsSnapshot{WindowSecs: s.window.Seconds()}
	if len(s.samples) == 0 {
		return snap
	}

	ms := make([]float64, len(s.samples))
	var sum float64
	for i, sm := range s.samples {
		ms[i] = float64(sm.duration) / float64(time.Millisecond)
		sum += ms[i]
		snap.Rooms += sm.rooms
	}
	slices.Sort(ms)

	snap.Parses = len(ms)
	snap.MinMs = ms[0]
	snap.MaxMs = ms[len(ms)-1]
	snap.AvgMs = sum / float64(len(ms))
	snap.P50Ms = percentile(ms, 50)
	snap.P95Ms = percentile(ms, 95)
	snap.P99Ms = percentile(ms, 99)
	return snap
}

// pruneLocked drops samples older than the window. Samples are appended in
// time order, so the expired ones form a prefix.
func (s *ParseStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(s.samples) && s.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.samples = slices.Delete(s.samples, 0, i)
	}
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return sorted[0]
	case pct >= 100:
		return sorted[len(sorted)-1]
	}
	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac
}
