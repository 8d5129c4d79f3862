// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package stepgen

import (
	"math"
	"testing"
)

// horizontalDeltaMove builds a one-tower delta move whose head passes
// under the tower, so the carriage rises and then falls. The tower sits
// 80mm along +X from the start position with a 100mm rod, 10 steps/mm.
// netDownSteps is the planner's net downward step count; slope tilts
// the move vertically as z travel per unit of x travel (negative =
// downwards). The direction vector is normalized to unit length, as the
// planner guarantees.
func horizontalDeltaMove(netDownSteps uint32, slope float64) *Move {
	const (
		run      = 160.0
		duration = 32000.0
	)
	length := math.Hypot(run, run*slope)
	dx := run / length
	dz := run * slope / length
	return &Move{
		DirectionVector: []float64{dx, 0, dz},
		A2PlusB2:        dx * dx,
		TotalDistance:   length,
		ClocksNeeded:    uint32(duration),
		AxisSegments:    NewLinearSegment(length, duration),
		StepsPerMM:      []float64{10},
		TotalSteps:      []uint32{netDownSteps},
		Towers:          []Tower{{OffsetX: -80, OffsetY: 0, RodLengthSquared: 10000, NetDirectionUp: false}},
	}
}

// verticalDeltaMove builds a pure-Z move: no planar motion at the
// tower, so no reversal is possible.
func verticalDeltaMove(up bool) *Move {
	dz := 1.0
	if !up {
		dz = -1.0
	}
	return &Move{
		DirectionVector: []float64{0, 0, dz},
		A2PlusB2:        0.0,
		TotalDistance:   5.0,
		ClocksNeeded:    5000,
		AxisSegments:    NewLinearSegment(5.0, 5000.0),
		StepsPerMM:      []float64{10},
		TotalSteps:      []uint32{50},
		Towers:          []Tower{{OffsetX: -80, OffsetY: 0, RodLengthSquared: 10000, NetDirectionUp: up}},
	}
}

func TestDeltaPureVerticalNoReversal(t *testing.T) {
	for _, up := range []bool{true, false} {
		mv := verticalDeltaMove(up)
		dm := NewPool(DefaultTuning()).Acquire(0, StateIdle)
		moving, err := dm.PrepareDelta(mv)
		if err != nil {
			t.Fatalf("up=%v: prepare: %v", up, err)
		}
		if !moving {
			t.Fatalf("up=%v: expected steps to generate", up)
		}
		if got := dm.ReverseStartStep(); got != mv.TotalSteps[0]+1 {
			t.Errorf("up=%v: reverse start step %d, want cleared (%d)", up, got, mv.TotalSteps[0]+1)
		}
		if dm.Direction() != up {
			t.Errorf("up=%v: direction %v, want sign of z component", up, dm.Direction())
		}

		times := collectStepTimes(dm, mv, 200)
		if got := uint32(len(times)); got != mv.TotalSteps[0] {
			t.Fatalf("up=%v: generated %d steps, want %d", up, got, mv.TotalSteps[0])
		}
		for i, tm := range times {
			if want := uint32(100 * (i + 1)); tm != want {
				t.Fatalf("up=%v: step %d due at %d, want %d", up, i+1, tm, want)
			}
		}
		if dm.State() != StateIdle {
			t.Errorf("up=%v: final state %v, want idle", up, dm.State())
		}
	}
}

func TestDeltaReversalMidMove(t *testing.T) {
	mv := horizontalDeltaMove(200, -0.125)
	dm := NewPool(DefaultTuning()).Acquire(0, StateIdle)
	moving, err := dm.PrepareDelta(mv)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if !moving {
		t.Fatal("expected steps to generate")
	}

	// Net movement is down, so the solver flips the initial direction
	// to up and extends the total: total = 2*u + 200.
	if !dm.Direction() {
		t.Error("initial direction should be up")
	}
	rev := dm.ReverseStartStep()
	if rev == 0 || rev > dm.TotalSteps() {
		t.Fatalf("reverse start step %d outside (0, %d]", rev, dm.TotalSteps())
	}
	if rev != 308 {
		t.Errorf("reverse start step %d, want 308", rev)
	}
	if want := 2*(rev-1) + 200; dm.TotalSteps() != want {
		t.Errorf("total steps %d, want %d", dm.TotalSteps(), want)
	}

	// Net steps taken must change sign exactly once over the move. The
	// query is sampled away from the flip step, where the direction bit
	// has already changed for a step not yet executed.
	lastTime := dm.NextStepTime()
	sign, signChanges, flips := 0, 0, 0
	prevDir := dm.Direction()
	steps := 1
	for dm.CalcNextStepTime(mv) {
		steps++
		if dm.NextStepTime() < lastTime {
			t.Fatalf("step %d due at %d, before previous at %d", steps, dm.NextStepTime(), lastTime)
		}
		lastTime = dm.NextStepTime()
		if dm.Direction() != prevDir {
			flips++
			prevDir = dm.Direction()
		}
		if dm.DirectionChanged() {
			continue
		}
		if n := dm.NetStepsTaken(); n != 0 {
			s := 1
			if n < 0 {
				s = -1
			}
			if sign != 0 && s != sign {
				signChanges++
			}
			sign = s
		}
	}

	if uint32(steps) != dm.TotalSteps() {
		t.Errorf("generated %d steps, want %d", steps, dm.TotalSteps())
	}
	if lastTime != mv.ClocksNeeded {
		t.Errorf("final step due at %d, want %d", lastTime, mv.ClocksNeeded)
	}
	if flips != 1 {
		t.Errorf("direction flipped %d times, want 1", flips)
	}
	if signChanges != 1 {
		t.Errorf("net steps changed sign %d times, want 1", signChanges)
	}
	if got := dm.NetStepsTaken(); got != -200 {
		t.Errorf("final net steps %d, want -200", got)
	}
	if dm.State() != StateIdle {
		t.Errorf("final state %v, want idle", dm.State())
	}
}

// A segment list that runs out while steps are still outstanding is a
// fatal fault for the drive: the planner promised more travel than the
// segments provide.
func TestDeltaSegmentExhaustionFault(t *testing.T) {
	seg1 := NewLinearSegment(100, 20000)
	seg2 := NewLinearSegment(60, 12000)
	seg1.Append(seg2).Append(NewLinearSegment(0, 1)) // degenerate trailing segment
	mv := &Move{
		DirectionVector: []float64{1, 0, 0},
		A2PlusB2:        1.0,
		TotalDistance:   160,
		ClocksNeeded:    40000,
		AxisSegments:    seg1,
		StepsPerMM:      []float64{10},
		// The planner claims 100 steps of net downward travel that the
		// horizontal geometry cannot deliver.
		TotalSteps: []uint32{100},
		Towers:     []Tower{{OffsetX: -80, OffsetY: 0, RodLengthSquared: 10000, NetDirectionUp: false}},
	}

	dm := NewPool(DefaultTuning()).Acquire(0, StateIdle)
	moving, err := dm.PrepareDelta(mv)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if !moving {
		t.Fatal("expected steps to generate")
	}

	steps := 1
	for dm.CalcNextStepTime(mv) {
		steps++
		if steps > 2000 {
			t.Fatal("runaway step generation")
		}
	}

	if dm.State() != StateStepError {
		t.Fatalf("state %v, want stepError", dm.State())
	}
	if dm.NextStep() >= dm.TotalSteps() {
		t.Errorf("fault at step %d, expected steps still outstanding of %d", dm.NextStep(), dm.TotalSteps())
	}
	if dm.stepInterval < noSegmentMarker {
		t.Errorf("step interval %d does not carry the exhaustion marker", dm.stepInterval)
	}
	// The fault is terminal: no further steps may be produced.
	for i := 0; i < 3; i++ {
		if dm.CalcNextStepTime(mv) {
			t.Fatal("step produced after a fatal fault")
		}
	}
	if dm.State() != StateStepError {
		t.Errorf("state %v after fault, want stepError to persist", dm.State())
	}
}
