// Step-time solver hot path.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package stepgen

import "math"

// Largest supported batching shift factors. Cartesian step times cost
// one square root; delta step times cost two plus the height update, so
// delta batches go one power of two further.
const (
	maxShiftCartesian = 3 // octal stepping
	maxShiftDelta     = 4 // hexadecimal stepping
)

// chooseShiftFactor picks how many steps (1 << shift) to cover with one
// full step-time computation, based on how small the last inter-step
// interval was relative to the style's threshold and gated on enough
// steps remaining before the phase boundary to justify the batch.
func chooseShiftFactor(interval, threshold, stepsToLimit uint32, maxShift uint32) uint32 {
	if interval >= threshold {
		return 0
	}
	for shift := maxShift; shift >= 2; shift-- {
		if interval < threshold>>(shift-1) && stepsToLimit > 1<<shift {
			return shift
		}
	}
	if stepsToLimit > 2 {
		return 1 // double stepping
	}
	return 0
}

// CalcNextStepTime computes and stores the time, in clocks since the
// start of the move, at which the next step for this drive is due.
// Returns true if there are more steps to do; when finished, nextStep
// is left at totalSteps + 1 and the state at idle. A fault leaves the
// state at the terminal error phase instead, and every later call
// returns false without producing steps.
func (dm *DriveMovement) CalcNextStepTime(mv *Move) bool {
	dm.nextStep++
	if dm.nextStep <= dm.totalSteps && dm.state.IsMotion() {
		dm.directionChanged = false
		if dm.stepsTillRecalc != 0 {
			dm.stepsTillRecalc-- // we are doing double/quad/octal stepping
			dm.nextStepTime += dm.stepInterval
			return true
		}
		if dm.calcNextStepTimeFull(mv) {
			return true
		}
	}
	if dm.state != StateStepError {
		dm.state = StateIdle
	}
	return false
}

// calcNextStepTimeFull runs the full step-time computation for step
// nextStep, choosing a batching shift factor so that the following
// (1 << shift) - 1 steps reuse the interval computed here. Called with
// stepsTillRecalc zero and nextStep already incremented. Returns false
// to abort the move for this drive because the calculation went wrong.
func (dm *DriveMovement) calcNextStepTimeFull(mv *Move) bool {
	shiftFactor := uint32(0) // assume single stepping
	stepsToLimit := dm.phaseStepLimit - dm.nextStep

	var nextCalcStepTime float64
	switch dm.state {
	case StateCartLinear: // steady speed
		shiftFactor = chooseShiftFactor(dm.stepInterval, dm.tuning.MinCalcIntervalCartesian,
			stepsToLimit, maxShiftCartesian)
		dm.stepsTillRecalc = uint8(1<<shiftFactor) - 1
		nextCalcStepTime = dm.pB + dm.pC*float64(dm.nextStep+uint32(dm.stepsTillRecalc))

	case StateCartAccel, StateCartDecelReverse:
		// Both phases accelerate along the current direction of travel,
		// so both use the positive square root branch.
		shiftFactor = chooseShiftFactor(dm.stepInterval, dm.tuning.MinCalcIntervalCartesian,
			stepsToLimit, maxShiftCartesian)
		dm.stepsTillRecalc = uint8(1<<shiftFactor) - 1
		nextCalcStepTime = dm.pB +
			math.Sqrt(math.Max(dm.pA+dm.pC*float64(dm.nextStep+uint32(dm.stepsTillRecalc)), 0.0))

	case StateCartDecelNoReverse:
		shiftFactor = chooseShiftFactor(dm.stepInterval, dm.tuning.MinCalcIntervalCartesian,
			stepsToLimit, maxShiftCartesian)
		dm.stepsTillRecalc = uint8(1<<shiftFactor) - 1
		nextCalcStepTime = dm.pB -
			math.Sqrt(math.Max(dm.pA+dm.pC*float64(dm.nextStep+uint32(dm.stepsTillRecalc)), 0.0))

	case StateDeltaForwards: // moving up
		if dm.reverseStartStep <= dm.totalSteps {
			if dm.nextStep == dm.reverseStartStep {
				dm.direction = false
				dm.directionChanged = true
				dm.state = StateDeltaReverse
			} else {
				stepsToLimit = dm.reverseStartStep - dm.nextStep
			}
		}
		var ok bool
		nextCalcStepTime, shiftFactor, ok = dm.calcDeltaStepTime(mv, stepsToLimit)
		if !ok {
			return false
		}

	case StateDeltaReverse: // moving down on this and subsequent steps
		var ok bool
		nextCalcStepTime, shiftFactor, ok = dm.calcDeltaStepTime(mv, stepsToLimit)
		if !ok {
			return false
		}

	default:
		return false
	}

	nct := uint32(math.Max(nextCalcStepTime, 0.0))

	// When crossing between movement phases with high microstepping,
	// rounding error can make the next step appear due before the last
	// one.
	if nct > dm.nextStepTime {
		dm.stepInterval = (nct - dm.nextStepTime) >> shiftFactor
	} else {
		dm.stepInterval = 0
	}
	// Spread the batch evenly so that its last step lands on the
	// computed time.
	dm.nextStepTime = nct - uint32(dm.stepsTillRecalc)*dm.stepInterval

	if nct > mv.ClocksNeeded {
		// When the end speed is very low, the time of the last step is
		// very sensitive to rounding error, so bring a late final step
		// forward to the expected finish time. Very rarely on a delta
		// the penultimate step is computed late too.
		if dm.nextStep+1 >= dm.totalSteps {
			dm.nextStepTime = mv.ClocksNeeded
		} else {
			// No step except the last is expected to be late.
			dm.fault()
			dm.stepInterval = lateStepMarker + dm.nextStepTime // recognisable in the debug dump
			return false
		}
	}

	// No more steps in this phase: move to the next segment, or re-arm
	// the current one when the carriage reverses inside it.
	if stepsToLimit == 0 {
		more := false
		if dm.isDelta {
			if dm.state == StateDeltaReverse && dm.nextStep == dm.reverseStartStep &&
				dm.reactivateAfterReversal(mv) {
				more = true
			} else {
				dm.currentSegment = dm.currentSegment.Next()
				more = dm.nextDeltaSegment(mv)
			}
		} else {
			dm.currentSegment = dm.currentSegment.Next()
			more = dm.nextCartesianSegment()
		}
		if !more {
			dm.fault()
			dm.stepInterval = noSegmentMarker + dm.nextStepTime // recognisable in the debug dump
			return false
		}
	}
	return true
}

// calcDeltaStepTime advances the carriage-height accumulator by one
// batch of steps and converts the height reached at the batch's end
// into a due time through the active segment's distance/time relation.
// Shared by the upward and downward delta phases.
func (dm *DriveMovement) calcDeltaStepTime(mv *Move, stepsToLimit uint32) (float64, uint32, bool) {
	shiftFactor := chooseShiftFactor(dm.stepInterval, dm.tuning.MinCalcIntervalDelta,
		stepsToLimit, maxShiftDelta)
	dm.stepsTillRecalc = uint8(1<<shiftFactor) - 1

	steps := float64(uint32(1) << shiftFactor)
	if !dm.direction {
		steps = -steps
	}
	dm.delta.hmz0s += steps // new carriage height above Z, in steps

	t1 := dm.delta.minusAaPlusBbTimesS + dm.delta.hmz0s*mv.DirectionVector[2]
	// Rounding error can push the radicand slightly negative.
	t2a := dm.delta.dSquaredMinusAsquaredMinusBsquaredTimesSsquared -
		dm.delta.hmz0s*dm.delta.hmz0s + t1*t1
	t2 := 0.0
	if t2a > 0.0 {
		t2 = math.Sqrt(t2a)
	}
	var ds float64
	if dm.direction {
		ds = t1 - t2
	} else {
		ds = t1 + t2
	}
	if ds < 0.0 {
		// A distance still negative after the rounding clamp is a
		// geometry fault.
		dm.fault()
		dm.nextStep += badRadicandMarker // recognisable in the debug dump
		return 0.0, 0, false
	}

	// ds is the scaled distance (path distance times steps per unit);
	// the coefficients were resolved per scaled distance, so the
	// Cartesian time relations apply unchanged.
	seg := dm.currentSegment
	var t float64
	switch {
	case seg.IsLinear():
		t = dm.pB + dm.pC*ds
	case seg.IsAccelerating():
		t = dm.pB + math.Sqrt(math.Max(dm.pA+dm.pC*ds, 0.0))
	default:
		t = dm.pB - math.Sqrt(math.Max(dm.pA+dm.pC*ds, 0.0))
	}
	return t, shiftFactor, true
}
