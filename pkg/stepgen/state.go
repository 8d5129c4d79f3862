// Per-drive step-timing state machine states.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package stepgen

// State identifies the phase of a drive's movement state machine.
// StateIdle and StateStepError are terminal; all higher values are
// states of active motion.
type State uint8

const (
	// StateIdle means no move is in progress on this drive.
	StateIdle State = iota

	// StateStepError is the terminal fault state. Once entered, no
	// further steps are produced for the remainder of the move.
	StateStepError

	// StateCartAccel is linear-axis or extruder accelerating motion.
	StateCartAccel

	// StateCartLinear is linear-axis or extruder steady-speed motion.
	StateCartLinear

	// StateCartDecelNoReverse is decelerating motion that finishes
	// without a direction change.
	StateCartDecelNoReverse

	// StateCartDecelReverse is decelerating motion after the direction
	// has reversed (pressure-advance induced on extruders).
	StateCartDecelReverse

	// StateDeltaForwards is a delta tower carriage moving up.
	StateDeltaForwards

	// StateDeltaReverse is a delta tower carriage moving down.
	StateDeltaReverse
)

// firstMotionState is the lowest state that represents active motion.
const firstMotionState = StateCartAccel

// IsMotion reports whether the state is an active motion state.
func (s State) IsMotion() bool {
	return s >= firstMotionState
}

// String returns a short name for the state, used in debug dumps.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStepError:
		return "stepError"
	case StateCartAccel:
		return "cartAccel"
	case StateCartLinear:
		return "cartLinear"
	case StateCartDecelNoReverse:
		return "cartDecelNoReverse"
	case StateCartDecelReverse:
		return "cartDecelReverse"
	case StateDeltaForwards:
		return "deltaForwards"
	case StateDeltaReverse:
		return "deltaReverse"
	default:
		return "unknown"
	}
}
