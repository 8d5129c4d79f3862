// Segment activation: advancing a drive's segment cursor and resolving
// the step-time coefficients of the newly active segment.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package stepgen

import "math"

// nextCartesianSegment advances the segment cursor of a Cartesian or
// extruder drive until it finds a segment with steps still to generate,
// then resolves the coefficients and the phase for it. Degenerate
// segments that contribute no whole step are skipped. Returns false
// when the segment list is exhausted.
func (dm *DriveMovement) nextCartesianSegment() bool {
	for {
		seg := dm.currentSegment
		if seg == nil {
			return false
		}

		startDistance := dm.distanceSoFar
		startTime := dm.timeSoFar

		// Work out the movement limit in steps. Distance is path
		// length, so the limit keeps increasing across a reversal.
		dm.distanceSoFar += seg.Length()
		dm.timeSoFar += seg.Duration()
		if seg.IsLast() {
			dm.phaseStepLimit = dm.totalSteps + 1
		} else {
			dm.phaseStepLimit = uint32(dm.distanceSoFar * dm.cart.effectiveStepsPerMM)
		}

		if dm.nextStep < dm.phaseStepLimit {
			dm.pC = seg.CCoeff(dm.cart.effectiveMmPerStep)
			if seg.IsLinear() {
				// For forward motion, time = pB + pC * stepNumber.
				dm.pB = seg.LinearB(startDistance, startTime)
				dm.state = StateCartLinear
			} else {
				// For forward motion, time = pB +/- sqrt(pA + pC * stepNumber).
				dm.pA = seg.NonlinearA(startDistance)
				switch {
				case seg.IsAccelerating():
					dm.pB = seg.NonlinearB(startTime, dm.cart.pressureAdvanceK)
					dm.state = StateCartAccel
				case seg.IsReverse():
					// The segment is parameterised along the reversed
					// direction, so pressure advance does not shift it.
					dm.pB = seg.NonlinearB(startTime, 0.0)
					if dm.reverseStartStep > dm.totalSteps {
						dm.direction = !dm.direction
						dm.directionChanged = true
						dm.reverseStartStep = dm.nextStep + 1
					}
					dm.state = StateCartDecelReverse
				default:
					dm.pB = seg.NonlinearB(startTime, dm.cart.pressureAdvanceK)
					dm.state = StateCartDecelNoReverse
				}
			}
			return true
		}

		dm.currentSegment = seg.Next() // no steps in this segment
	}
}

// deltaNetStepsAtEnd returns the signed carriage displacement, in
// steps, at the end of the current segment (positive = above the move's
// start height).
func (dm *DriveMovement) deltaNetStepsAtEnd(mv *Move) float64 {
	s := dm.delta.stepsPerMM
	sDx := dm.distanceSoFar * mv.DirectionVector[0]
	sDy := dm.distanceSoFar * mv.DirectionVector[1]
	rodSq := dm.delta.dSquaredMinusAsquaredMinusBsquaredTimesSsquared -
		s*s*(sDx*(sDx+dm.delta.twoA)+sDy*(sDy+dm.delta.twoB))
	return math.Sqrt(math.Max(rodSq, 0.0)) +
		(dm.distanceSoFar*mv.DirectionVector[2]-dm.delta.h0MinusZ0)*s
}

// deltaEndIndex converts a carriage displacement into the step index
// reached there. Step indices count pulses, so after a reversal they
// keep increasing while the carriage height falls back down.
func (dm *DriveMovement) deltaEndIndex(netStepsAtEnd float64) float64 {
	if dm.direction {
		return netStepsAtEnd
	}
	if dm.reverseStartStep <= dm.totalSteps {
		return 2.0*float64(dm.reverseStartStep-1) - netStepsAtEnd
	}
	return -netStepsAtEnd
}

// nextDeltaSegment advances the segment cursor of a delta drive. Unlike
// the Cartesian variant, the phase boundary comes from the carriage
// height reached at the segment's end rather than from path distance,
// and a segment containing the reversal point is selected even though
// its end height maps below the pending step index.
func (dm *DriveMovement) nextDeltaSegment(mv *Move) bool {
	for {
		seg := dm.currentSegment
		if seg == nil {
			return false
		}

		startDistance := dm.distanceSoFar
		startTime := dm.timeSoFar
		dm.distanceSoFar += seg.Length()
		dm.timeSoFar += seg.Duration()

		endIndex := dm.deltaEndIndex(dm.deltaNetStepsAtEnd(mv))
		reversesHere := dm.direction && dm.reverseStartStep <= dm.totalSteps &&
			dm.distanceSoFar >= dm.delta.reverseStartDistance

		if endIndex > float64(dm.nextStep) || reversesHere {
			dm.pC = seg.CCoeff(dm.delta.mmPerStep)
			if seg.IsLinear() {
				dm.pB = seg.LinearB(startDistance, startTime)
			} else {
				dm.pA = seg.NonlinearA(startDistance)
				dm.pB = seg.NonlinearB(startTime, 0.0)
			}
			if dm.direction {
				dm.state = StateDeltaForwards
				switch {
				case reversesHere:
					// Clip the phase to the reversal step.
					dm.phaseStepLimit = dm.reverseStartStep
				case seg.IsLast():
					dm.phaseStepLimit = dm.totalSteps + 1
				default:
					dm.phaseStepLimit = uint32(endIndex) + 1
				}
			} else {
				dm.state = StateDeltaReverse
				if seg.IsLast() {
					dm.phaseStepLimit = dm.totalSteps + 1
				} else {
					dm.phaseStepLimit = uint32(endIndex)
				}
			}
			return true
		}

		dm.currentSegment = seg.Next()
	}
}

// reactivateAfterReversal re-arms the current segment for the downward
// phase after the carriage reverses inside it. The coefficients stay
// valid; only the phase boundary changes. Returns false when the
// segment ends at the reversal point itself, in which case the normal
// segment advance applies.
func (dm *DriveMovement) reactivateAfterReversal(mv *Move) bool {
	var limit uint32
	if dm.currentSegment.IsLast() {
		limit = dm.totalSteps + 1
	} else {
		limit = uint32(dm.deltaEndIndex(dm.deltaNetStepsAtEnd(mv)))
	}
	if limit <= dm.nextStep {
		return false
	}
	dm.phaseStepLimit = limit
	return true
}
