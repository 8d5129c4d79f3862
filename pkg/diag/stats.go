// Step-interval statistics.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package diag

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// IntervalStats accumulates recent inter-step intervals in a fixed
// ring buffer and summarises them on demand. Recording is cheap enough
// to call from move-retirement code, but not from the per-step path.
type IntervalStats struct {
	mu      sync.Mutex
	samples []float64
	next    int
	full    bool
}

// IntervalSummary describes the recorded intervals, in clock ticks.
type IntervalSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	P99    float64 `json:"p99"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// NewIntervalStats creates a recorder keeping the last capacity
// samples.
func NewIntervalStats(capacity int) *IntervalStats {
	if capacity <= 0 {
		capacity = 4096
	}
	return &IntervalStats{samples: make([]float64, 0, capacity)}
}

// Record adds one inter-step interval, in clock ticks.
func (s *IntervalStats) Record(interval uint32) {
	s.mu.Lock()
	if s.full {
		s.samples[s.next] = float64(interval)
		s.next = (s.next + 1) % cap(s.samples)
	} else {
		s.samples = append(s.samples, float64(interval))
		if len(s.samples) == cap(s.samples) {
			s.full = true
		}
	}
	s.mu.Unlock()
}

// Summary computes the statistics over the recorded window.
func (s *IntervalStats) Summary() IntervalSummary {
	s.mu.Lock()
	data := make([]float64, len(s.samples))
	copy(data, s.samples)
	s.mu.Unlock()

	if len(data) == 0 {
		return IntervalSummary{}
	}
	sort.Float64s(data)
	return IntervalSummary{
		Count:  len(data),
		Mean:   stat.Mean(data, nil),
		StdDev: stat.StdDev(data, nil),
		Median: stat.Quantile(0.5, stat.Empirical, data, nil),
		P99:    stat.Quantile(0.99, stat.Empirical, data, nil),
		Min:    data[0],
		Max:    data[len(data)-1],
	}
}

// Reset discards all recorded samples.
func (s *IntervalStats) Reset() {
	s.mu.Lock()
	s.samples = s.samples[:0]
	s.next = 0
	s.full = false
	s.mu.Unlock()
}
