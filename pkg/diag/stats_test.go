// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package diag

import (
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestIntervalSummary(t *testing.T) {
	s := NewIntervalStats(16)
	for _, v := range []uint32{60, 70, 80, 90, 100} {
		s.Record(v)
	}
	sum := s.Summary()
	if sum.Count != 5 {
		t.Fatalf("count %d, want 5", sum.Count)
	}
	if !scalar.EqualWithinAbs(sum.Mean, 80.0, 1e-12) {
		t.Errorf("mean %g, want 80", sum.Mean)
	}
	if sum.Min != 60 || sum.Max != 100 {
		t.Errorf("min/max %g/%g, want 60/100", sum.Min, sum.Max)
	}
	if sum.Median != 80 {
		t.Errorf("median %g, want 80", sum.Median)
	}
	if sum.P99 != 100 {
		t.Errorf("p99 %g, want 100", sum.P99)
	}
}

func TestIntervalRingOverwritesOldest(t *testing.T) {
	s := NewIntervalStats(4)
	for v := uint32(1); v <= 6; v++ {
		s.Record(v)
	}
	sum := s.Summary()
	if sum.Count != 4 {
		t.Fatalf("count %d, want 4", sum.Count)
	}
	// 1 and 2 fell out of the window.
	if sum.Min != 3 || sum.Max != 6 {
		t.Errorf("min/max %g/%g, want 3/6", sum.Min, sum.Max)
	}
}

func TestIntervalEmptyAndReset(t *testing.T) {
	s := NewIntervalStats(8)
	if sum := s.Summary(); sum.Count != 0 {
		t.Errorf("empty recorder count %d", sum.Count)
	}
	s.Record(50)
	s.Record(60)
	s.Reset()
	if sum := s.Summary(); sum.Count != 0 {
		t.Errorf("count %d after reset", sum.Count)
	}
}
