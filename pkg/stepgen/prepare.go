// Per-move preparation of a drive movement, including the delta
// reversal solver.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package stepgen

import (
	"math"

	"drivestep/pkg/errors"
)

// armFirstSegment resets the per-step bookkeeping, activates the first
// segment with steps to generate and computes the first step's due
// time. The caller must already have set the style payload, direction
// and reverseStartStep.
func (dm *DriveMovement) armFirstSegment(mv *Move, startDistance float64) (bool, error) {
	dm.distanceSoFar = startDistance
	dm.timeSoFar = 0.0
	dm.directionChanged = false
	dm.nextStep = 0
	dm.nextStepTime = 0
	dm.stepInterval = initialStepInterval // calculate the time for just one step
	dm.stepsTillRecalc = 0                // so that we don't skip the calculation

	var armed bool
	if dm.isDelta {
		armed = dm.nextDeltaSegment(mv)
	} else {
		armed = dm.nextCartesianSegment()
	}
	if !armed {
		dm.state = StateIdle
		return false, nil
	}
	return dm.CalcNextStepTime(mv), nil
}

// checkDriveData verifies the planner payload covers this drive's
// index before any per-drive slice is read. Malformed planner data is a
// preparation fault, not a crash.
func (dm *DriveMovement) checkDriveData(mv *Move, needTower bool) error {
	d := int(dm.drive)
	if d >= len(mv.DirectionVector) || d >= len(mv.StepsPerMM) || d >= len(mv.TotalSteps) {
		return errors.PrepareError(d, "planner data does not cover this drive")
	}
	if needTower && (d >= len(mv.Towers) || len(mv.DirectionVector) < 3) {
		return errors.PrepareError(d, "no tower geometry for this drive")
	}
	return nil
}

// PrepareCartesianAxis initialises this drive movement for a Cartesian
// axis move. It reports whether the drive has steps to generate; when
// it does, the first step's due time has already been computed.
func (dm *DriveMovement) PrepareCartesianAxis(mv *Move) (bool, error) {
	if err := dm.checkDriveData(mv, false); err != nil {
		return false, err
	}
	dirFraction := mv.DirectionVector[dm.drive]
	stepsPerMM := mv.StepsPerMM[dm.drive]
	if dirFraction == 0.0 || stepsPerMM <= 0.0 {
		return false, errors.PrepareError(int(dm.drive), "axis has no movement fraction or no steps per unit")
	}
	dm.isDelta = false
	dm.isExtruder = false
	dm.direction = dirFraction >= 0.0
	dm.totalSteps = mv.TotalSteps[dm.drive]
	dm.reverseStartStep = dm.totalSteps + 1 // no reverse phase unless a segment says so
	dm.cart.pressureAdvanceK = 0.0
	dm.cart.effectiveStepsPerMM = stepsPerMM * math.Abs(dirFraction)
	dm.cart.effectiveMmPerStep = 1.0 / dm.cart.effectiveStepsPerMM
	dm.cart.extruderReverseSteps = 0
	dm.cart.extrusionBroughtForwards = 0.0
	dm.currentSegment = mv.AxisSegments
	return dm.armFirstSegment(mv, 0.0)
}

// PrepareExtruder initialises this drive movement for an extruder move.
// pressureAdvance is the pressure-advance gain to apply;
// extrusionBroughtForward is the fractional extrusion distance left
// over from previous moves, which seeds the accumulated distance so
// that sub-step extrusion amounts carry across moves.
func (dm *DriveMovement) PrepareExtruder(mv *Move, pressureAdvance, extrusionBroughtForward float64) (bool, error) {
	if err := dm.checkDriveData(mv, false); err != nil {
		return false, err
	}
	dirFraction := mv.DirectionVector[dm.drive]
	stepsPerMM := mv.StepsPerMM[dm.drive]
	if dirFraction == 0.0 || stepsPerMM <= 0.0 {
		return false, errors.PrepareError(int(dm.drive), "extruder has no movement fraction or no steps per unit")
	}
	dm.isDelta = false
	dm.isExtruder = true
	dm.direction = dirFraction >= 0.0
	dm.totalSteps = mv.TotalSteps[dm.drive]
	dm.reverseStartStep = dm.totalSteps + 1
	dm.cart.pressureAdvanceK = pressureAdvance
	dm.cart.effectiveStepsPerMM = stepsPerMM * math.Abs(dirFraction)
	dm.cart.effectiveMmPerStep = 1.0 / dm.cart.effectiveStepsPerMM
	dm.cart.extruderReverseSteps = 0
	dm.cart.extrusionBroughtForwards = extrusionBroughtForward
	dm.currentSegment = mv.ExtruderSegments
	return dm.armFirstSegment(mv, extrusionBroughtForward)
}

// PrepareDelta initialises this drive movement for one tower of a delta
// move. It runs the reversal solver to decide whether the carriage's
// vertical travel reverses inside the move, rewriting the total step
// count and the initial direction accordingly, then arms the first
// segment.
func (dm *DriveMovement) PrepareDelta(mv *Move) (bool, error) {
	if err := dm.checkDriveData(mv, true); err != nil {
		return false, err
	}
	tower := &mv.Towers[dm.drive]
	stepsPerMM := mv.StepsPerMM[dm.drive]
	if stepsPerMM <= 0.0 {
		return false, errors.PrepareError(int(dm.drive), "tower has no steps per unit")
	}

	a := tower.OffsetX
	b := tower.OffsetY
	aAplusbB := a*mv.DirectionVector[0] + b*mv.DirectionVector[1]
	dSquaredMinusAsquaredMinusBsquared := tower.RodLengthSquared - a*a - b*b
	if dSquaredMinusAsquaredMinusBsquared <= 0.0 {
		// The rod cannot reach over the tower offset at the start
		// position. The planner must never hand us such a move.
		return false, errors.PrepareGeometryError(int(dm.drive), "rod length does not span the tower offset")
	}

	dm.isDelta = true
	dm.isExtruder = false
	dm.direction = tower.NetDirectionUp
	dm.totalSteps = mv.TotalSteps[dm.drive]
	dm.delta.stepsPerMM = stepsPerMM
	dm.delta.mmPerStep = 1.0 / stepsPerMM
	dm.delta.twoA = 2.0 * a
	dm.delta.twoB = 2.0 * b
	dm.delta.h0MinusZ0 = math.Sqrt(dSquaredMinusAsquaredMinusBsquared)
	dm.delta.hmz0s = dm.delta.h0MinusZ0 * stepsPerMM
	dm.delta.minusAaPlusBbTimesS = -(aAplusbB * stepsPerMM)
	dm.delta.dSquaredMinusAsquaredMinusBsquaredTimesSsquared =
		dSquaredMinusAsquaredMinusBsquared * stepsPerMM * stepsPerMM
	dm.delta.reverseStartDistance = mv.TotalDistance + 1.0 // beyond the move unless a reversal is found

	// Calculate the distance at which the carriage reverses direction.
	if mv.A2PlusB2 <= 0.0 {
		// Pure Z movement. The main calculation divides by a2plusb2, so
		// it cannot be used; no reversal is possible anyway.
		dm.direction = mv.DirectionVector[2] >= 0.0
		dm.reverseStartStep = dm.totalSteps + 1
	} else {
		// The distance to the reversal is a root of a quadratic; the
		// other root corresponds to the carriage being below the bed.
		drev := (mv.DirectionVector[2]*math.Sqrt(mv.A2PlusB2*tower.RodLengthSquared-
			square(a*mv.DirectionVector[1]-b*mv.DirectionVector[0])) -
			aAplusbB) / mv.A2PlusB2
		if drev > 0.0 && drev < mv.TotalDistance { // reversal point is within the move
			// Carriage height at the reversal, relative to the start.
			hrev := mv.DirectionVector[2]*drev +
				math.Sqrt(dSquaredMinusAsquaredMinusBsquared-2.0*drev*aAplusbB-mv.A2PlusB2*drev*drev)
			numStepsUp := int32((hrev - dm.delta.h0MinusZ0) * stepsPerMM)

			// We may be almost at the peak height already, in which
			// case there is no reversal worth a whole step.
			if numStepsUp < 1 || (dm.direction && uint32(numStepsUp) <= dm.totalSteps) {
				dm.reverseStartStep = dm.totalSteps + 1
				dm.direction = false
			} else {
				dm.reverseStartStep = uint32(numStepsUp) + 1
				dm.delta.reverseStartDistance = drev

				// Correct the initial direction and the total number
				// of steps.
				if dm.direction {
					// Net movement is up: up past the net target, then
					// down by the difference.
					dm.totalSteps = uint32(2*numStepsUp) - dm.totalSteps
				} else {
					// Net movement is down: up first, then down by a
					// greater amount.
					dm.direction = true
					dm.totalSteps = uint32(2*numStepsUp) + dm.totalSteps
				}
			}
		} else {
			// No reversal inside the move.
			dm.reverseStartStep = dm.totalSteps + 1
			dm.direction = drev > 0.0
		}
	}

	dm.currentSegment = mv.AxisSegments
	return dm.armFirstSegment(mv, 0.0)
}

func square(v float64) float64 { return v * v }
