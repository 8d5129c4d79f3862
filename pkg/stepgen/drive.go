// Per-drive movement state.
//
// One DriveMovement instance tracks one drive (axis tower or extruder)
// for the duration of one move. Instances come from the Pool and are
// returned to it when the move retires; released instances keep their
// old field values, so every Prepare* routine must overwrite every
// field it later depends on.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package stepgen

// Diagnostic markers encoded into the state fields when a fault is
// raised, so the failure mode is visible in a debug dump.
const (
	// badRadicandMarker is added to nextStep when the delta height
	// relation produces a negative distance.
	badRadicandMarker = 1000000

	// lateStepMarker is added to stepInterval when a non-final step is
	// computed later than the move's time budget.
	lateStepMarker = 10000000

	// noSegmentMarker is added to stepInterval when the segment list
	// runs out while steps are still outstanding.
	noSegmentMarker = 20000000
)

// initialStepInterval seeds stepInterval before the first step so the
// batching logic computes the time for just one step.
const initialStepInterval = 999999

// deltaPayload holds the delta-tower terms of a drive movement. Valid
// only while isDelta is set.
type deltaPayload struct {
	twoA float64 // 2 * (startX - towerX)
	twoB float64 // 2 * (startY - towerY)

	// h0MinusZ0 is the height subtended by the rod at the start of the
	// move.
	h0MinusZ0 float64

	// dSquaredMinusAsquaredMinusBsquaredTimesSsquared is the combined
	// squared-distance term (D² - A² - B²) * s².
	dSquaredMinusAsquaredMinusBsquaredTimesSsquared float64

	// hmz0s is the incrementally tracked rod-subtended carriage height
	// above the nozzle Z, in steps. Seeded from h0MinusZ0 at prepare
	// time, then adjusted by the batch size on every computation.
	hmz0s float64

	// minusAaPlusBbTimesS is -(A*dx + B*dy) * s.
	minusAaPlusBbTimesS float64

	// reverseStartDistance is the distance along the move at which the
	// carriage's vertical travel reverses, when a reversal exists.
	reverseStartDistance float64

	stepsPerMM float64
	mmPerStep  float64
}

// cartPayload holds the Cartesian/extruder terms of a drive movement.
// Valid only while isDelta is clear.
type cartPayload struct {
	pressureAdvanceK    float64
	effectiveStepsPerMM float64 // steps/mm times the drive's movement fraction
	effectiveMmPerStep  float64 // reciprocal of effectiveStepsPerMM

	// extruderReverseSteps is the number of reverse steps taken before
	// the start of the current segment; extruders only.
	extruderReverseSteps uint32

	// extrusionBroughtForwards is the extrusion carried over from
	// previous moves, kept for the debug dump.
	extrusionBroughtForwards float64
}

// DriveMovement is the movement state of a single drive for one move.
//
// The delta and cart payloads are selected by the isDelta discriminant;
// only the payload matching the discriminant holds meaningful values,
// and nothing may read the other one.
type DriveMovement struct {
	next           *DriveMovement // pool free-list link
	currentSegment *Segment

	tuning Tuning

	state State
	drive uint8

	direction        bool // true = forwards (delta: up)
	directionChanged bool // set by CalcNextStepTime on the step of a flip
	isDelta          bool
	isExtruder       bool

	// stepsTillRecalc counts the pre-computed steps remaining before
	// the full step-time computation must run again.
	stepsTillRecalc uint8

	totalSteps uint32

	// These change as steps execute, except for reverseStartStep.
	nextStep         uint32 // number of the step being generated, counts from 1
	phaseStepLimit   uint32 // the last step number of the current phase
	reverseStartStep uint32 // step number at which direction reverses; totalSteps+1 when none
	nextStepTime     uint32 // clocks after the start of the move at which the next step is due
	stepInterval     uint32 // clocks between steps

	distanceSoFar float64 // accumulated distance at the end of the current segment
	timeSoFar     float64 // accumulated time at the end of the current segment

	// Step-time coefficients for the active segment. pA is unused for
	// constant-speed segments.
	pA, pB, pC float64

	delta deltaPayload
	cart  cartPayload
}

// Drive returns the drive index this movement controls.
func (dm *DriveMovement) Drive() uint8 { return dm.drive }

// State returns the current phase of the state machine.
func (dm *DriveMovement) State() State { return dm.state }

// Direction reports the current direction bit (true = forwards/up).
func (dm *DriveMovement) Direction() bool { return dm.direction }

// DirectionChanged reports whether the most recent step flipped the
// direction. It is true only for the step of the flip.
func (dm *DriveMovement) DirectionChanged() bool { return dm.directionChanged }

// NextStepTime returns the due time of the most recently computed step,
// in clocks after the start of the move.
func (dm *DriveMovement) NextStepTime() uint32 { return dm.nextStepTime }

// TotalSteps returns the total number of steps for this move.
func (dm *DriveMovement) TotalSteps() uint32 { return dm.totalSteps }

// NextStep returns the 1-based number of the step being generated.
func (dm *DriveMovement) NextStep() uint32 { return dm.nextStep }

// ReverseStartStep returns the step number at which the direction
// reverses, or totalSteps+1 when the move has no reversal.
func (dm *DriveMovement) ReverseStartStep() uint32 { return dm.reverseStartStep }

// NetStepsTaken returns the signed number of steps physically completed
// so far, in the forwards convention. nextStep-1 steps have been taken,
// unless nextStep is zero.
func (dm *DriveMovement) NetStepsTaken() int32 {
	var net int32
	if dm.nextStep <= dm.reverseStartStep { // no reverse phase, or not started it yet
		if dm.nextStep != 0 {
			net = int32(dm.nextStep) - 1
		}
	} else {
		net = int32(dm.nextStep) - int32(2*dm.reverseStartStep) + 1 // allowing for direction having changed
	}
	if dm.isExtruder {
		net -= 2 * int32(dm.cart.extruderReverseSteps)
	}
	if dm.direction {
		return net
	}
	return -net
}

// StepInterval returns the current full-step interval for this drive,
// given the microstepping shift, or 0 if fewer than one full step has
// been taken. Used by stall-detection tuning in smart motor drivers.
func (dm *DriveMovement) StepInterval(microstepShift uint32) uint32 {
	if dm.nextStep < dm.totalSteps && dm.nextStep > (1<<microstepShift) {
		return dm.stepInterval << microstepShift
	}
	return 0
}

// fault moves the drive to the terminal error state. No further steps
// are produced for this drive for the remainder of the move.
func (dm *DriveMovement) fault() {
	dm.state = StateStepError
}
