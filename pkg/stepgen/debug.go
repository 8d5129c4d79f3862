// Diagnostic views of a drive movement.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package stepgen

import (
	"fmt"
	"strings"
)

// Snapshot is a point-in-time copy of a drive's externally visible
// state, taken for diagnostics. It carries no references back into the
// live instance.
type Snapshot struct {
	Drive            uint8   `json:"drive"`
	State            string  `json:"state"`
	Direction        bool    `json:"direction"`
	DirectionChanged bool    `json:"direction_changed"`
	IsDelta          bool    `json:"is_delta"`
	IsExtruder       bool    `json:"is_extruder"`
	TotalSteps       uint32  `json:"total_steps"`
	NextStep         uint32  `json:"next_step"`
	ReverseStartStep uint32  `json:"reverse_start_step"`
	NextStepTime     uint32  `json:"next_step_time"`
	StepInterval     uint32  `json:"step_interval"`
	NetStepsTaken    int32   `json:"net_steps_taken"`
	PA               float64 `json:"pa"`
	PB               float64 `json:"pb"`
	PC               float64 `json:"pc"`
}

// TakeSnapshot copies the drive's externally visible state. Must be
// called from the step-generation context, or with it quiesced.
func (dm *DriveMovement) TakeSnapshot() Snapshot {
	return Snapshot{
		Drive:            dm.drive,
		State:            dm.state.String(),
		Direction:        dm.direction,
		DirectionChanged: dm.directionChanged,
		IsDelta:          dm.isDelta,
		IsExtruder:       dm.isExtruder,
		TotalSteps:       dm.totalSteps,
		NextStep:         dm.nextStep,
		ReverseStartStep: dm.reverseStartStep,
		NextStepTime:     dm.nextStepTime,
		StepInterval:     dm.stepInterval,
		NetStepsTaken:    dm.NetStepsTaken(),
		PA:               dm.pA,
		PB:               dm.pB,
		PC:               dm.pC,
	}
}

// DebugString renders a human-readable dump of the drive state for
// operator troubleshooting. The fault markers folded into nextStep and
// stepInterval make the failure mode recognisable here.
func (dm *DriveMovement) DebugString() string {
	if dm.state == StateIdle {
		return fmt.Sprintf("DM%d: not moving\n", dm.drive)
	}
	tag := ":"
	if dm.state == StateStepError {
		tag = " ERR:"
	}
	dir := 'B'
	if dm.direction {
		dir = 'F'
	}
	var b strings.Builder
	fmt.Fprintf(&b, "DM%d%s dir=%c steps=%d next=%d rev=%d interval=%d A=%g B=%g C=%g\n",
		dm.drive, tag, dir, dm.totalSteps, dm.nextStep, dm.reverseStartStep,
		dm.stepInterval, dm.pA, dm.pB, dm.pC)
	if dm.isDelta {
		fmt.Fprintf(&b, "hmz0s=%.2f minusAaPlusBbTimesS=%.2f dSquaredMinusAsquaredMinusBsquaredTimesSsquared=%.2f\n",
			dm.delta.hmz0s, dm.delta.minusAaPlusBbTimesS,
			dm.delta.dSquaredMinusAsquaredMinusBsquaredTimesSsquared)
	} else {
		fmt.Fprintf(&b, "pa=%.2f\n", dm.cart.pressureAdvanceK)
	}
	return b.String()
}
