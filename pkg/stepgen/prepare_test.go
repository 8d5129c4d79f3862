// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package stepgen

import (
	"testing"

	"drivestep/pkg/errors"
)

func TestPrepareCartesianRejectsZeroFraction(t *testing.T) {
	mv := linearMove(10.0, 64000.0, 100.0)
	mv.DirectionVector[0] = 0.0
	dm := NewPool(DefaultTuning()).Acquire(0, StateIdle)
	moving, err := dm.PrepareCartesianAxis(mv)
	if moving {
		t.Error("expected no steps for a zero movement fraction")
	}
	if !errors.Is(err, errors.ErrPrepare) {
		t.Errorf("error %v, want code %s", err, errors.ErrPrepare)
	}
}

func TestPrepareCartesianNegativeFraction(t *testing.T) {
	mv := linearMove(10.0, 64000.0, 100.0)
	mv.DirectionVector[0] = -1.0
	dm := NewPool(DefaultTuning()).Acquire(0, StateIdle)
	moving, err := dm.PrepareCartesianAxis(mv)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if !moving {
		t.Fatal("expected steps to generate")
	}
	if dm.Direction() {
		t.Error("direction should be backwards for a negative fraction")
	}
	times := collectStepTimes(dm, mv, 2000)
	if len(times) != 1000 {
		t.Errorf("generated %d steps, want 1000", len(times))
	}
	if got := dm.NetStepsTaken(); got != -1000 {
		t.Errorf("net steps %d, want -1000", got)
	}
}

func TestDeltaGeometryViolation(t *testing.T) {
	mv := horizontalDeltaMove(0, 0.0)
	mv.Towers[0].RodLengthSquared = 6000.0 // shorter than the 80mm tower offset
	dm := NewPool(DefaultTuning()).Acquire(0, StateIdle)
	moving, err := dm.PrepareDelta(mv)
	if moving {
		t.Error("expected no steps for an unreachable start position")
	}
	if !errors.Is(err, errors.ErrPrepareGeometry) {
		t.Errorf("error %v, want code %s", err, errors.ErrPrepareGeometry)
	}
}

// Moving away from the tower the carriage only descends; the reversal
// root lies behind the start of the move.
func TestDeltaNoReversalMovingAway(t *testing.T) {
	mv := &Move{
		DirectionVector: []float64{-1, 0, 0},
		A2PlusB2:        1.0,
		TotalDistance:   10,
		ClocksNeeded:    2000,
		AxisSegments:    NewLinearSegment(10, 2000),
		StepsPerMM:      []float64{10},
		TotalSteps:      []uint32{164},
		Towers:          []Tower{{OffsetX: -80, OffsetY: 0, RodLengthSquared: 10000, NetDirectionUp: false}},
	}
	dm := NewPool(DefaultTuning()).Acquire(0, StateIdle)
	moving, err := dm.PrepareDelta(mv)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if !moving {
		t.Fatal("expected steps to generate")
	}
	if dm.Direction() {
		t.Error("direction should be down when moving away from the tower")
	}
	if got := dm.ReverseStartStep(); got != mv.TotalSteps[0]+1 {
		t.Errorf("reverse start step %d, want cleared (%d)", got, mv.TotalSteps[0]+1)
	}

	lastTime := dm.NextStepTime()
	steps := 1
	for dm.CalcNextStepTime(mv) {
		steps++
		if dm.NextStepTime() < lastTime {
			t.Fatalf("step %d due at %d, before previous at %d", steps, dm.NextStepTime(), lastTime)
		}
		lastTime = dm.NextStepTime()
	}
	if uint32(steps) != mv.TotalSteps[0] {
		t.Errorf("generated %d steps, want %d", steps, mv.TotalSteps[0])
	}
	if dm.State() != StateIdle {
		t.Errorf("final state %v, want idle", dm.State())
	}
}

// The reversal root beyond the end of the move means the carriage rises
// for the whole move.
func TestDeltaReversalBeyondMove(t *testing.T) {
	mv := &Move{
		DirectionVector: []float64{1, 0, 0},
		A2PlusB2:        1.0,
		TotalDistance:   60,
		ClocksNeeded:    12000,
		AxisSegments:    NewLinearSegment(60, 12000),
		StepsPerMM:      []float64{10},
		TotalSteps:      []uint32{379},
		Towers:          []Tower{{OffsetX: -80, OffsetY: 0, RodLengthSquared: 10000, NetDirectionUp: true}},
	}
	dm := NewPool(DefaultTuning()).Acquire(0, StateIdle)
	moving, err := dm.PrepareDelta(mv)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if !moving {
		t.Fatal("expected steps to generate")
	}
	if !dm.Direction() {
		t.Error("direction should be up when approaching the tower")
	}
	if got := dm.ReverseStartStep(); got != mv.TotalSteps[0]+1 {
		t.Errorf("reverse start step %d, want cleared (%d)", got, mv.TotalSteps[0]+1)
	}

	steps := 1
	for dm.CalcNextStepTime(mv) {
		steps++
	}
	if uint32(steps) != mv.TotalSteps[0] {
		t.Errorf("generated %d steps, want %d", steps, mv.TotalSteps[0])
	}
	if dm.State() != StateIdle {
		t.Errorf("final state %v, want idle", dm.State())
	}
}

// A reversal within a whole step of the peak is not worth taking: the
// marker is cleared and the direction forced down, matching the
// long-standing firmware behaviour even for net-upward moves.
func TestDeltaNearPeakReversalFallback(t *testing.T) {
	mv := horizontalDeltaMove(400, 0.0) // u equals the planned total
	mv.Towers[0].NetDirectionUp = true
	dm := NewPool(DefaultTuning()).Acquire(0, StateIdle)
	moving, err := dm.PrepareDelta(mv)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if got := dm.ReverseStartStep(); got != mv.TotalSteps[0]+1 {
		t.Errorf("reverse start step %d, want cleared (%d)", got, mv.TotalSteps[0]+1)
	}
	if dm.Direction() {
		t.Error("direction should be forced down by the near-peak fallback")
	}
	// With the direction forced against the geometry no segment is
	// selectable, so the drive reports no motion.
	if moving {
		t.Error("expected no steps with the forced-down direction")
	}
}

// A drive index beyond the planner's per-drive slices is malformed
// planner data: preparation must fail cleanly, never index out of
// range.
func TestPrepareRejectsUncoveredDrive(t *testing.T) {
	dm := NewPool(DefaultTuning()).Acquire(2, StateIdle)

	mv := linearMove(10.0, 64000.0, 100.0)
	if _, err := dm.PrepareCartesianAxis(mv); !errors.IsPrepare(err) {
		t.Errorf("cartesian prepare: error %v, want prepare error", err)
	}
	if _, err := dm.PrepareExtruder(mv, 0.0, 0.0); !errors.IsPrepare(err) {
		t.Errorf("extruder prepare: error %v, want prepare error", err)
	}
	delta := horizontalDeltaMove(200, 0.0)
	if _, err := dm.PrepareDelta(delta); !errors.IsPrepare(err) {
		t.Errorf("delta prepare: error %v, want prepare error", err)
	}
}
