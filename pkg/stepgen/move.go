// Per-move data consumed from the look-ahead planner.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package stepgen

// Tower describes the geometry of one delta tower relative to a move.
// The planner fills one Tower per delta drive when preparing the move.
type Tower struct {
	// OffsetX, OffsetY are the planar offsets of the move's start
	// position from the tower (startX - towerX, startY - towerY).
	OffsetX, OffsetY float64

	// RodLengthSquared is the square of the tower's diagonal rod
	// length.
	RodLengthSquared float64

	// NetDirectionUp is true when the carriage's net displacement over
	// the whole move is upwards. The reversal solver may override it.
	NetDirectionUp bool
}

// Move is the read-only view of one planned motion instruction, as
// handed over by the planner. The step-timing engine never mutates it.
type Move struct {
	// DirectionVector holds the signed unit fractions of the move,
	// indexed by drive. The first three entries are the spatial axes;
	// extruder drives carry their extrusion fraction at their own index.
	DirectionVector []float64

	// A2PlusB2 is the precomputed sum of the squared planar direction
	// components (dx² + dy²).
	A2PlusB2 float64

	// TotalDistance is the total move distance.
	TotalDistance float64

	// ClocksNeeded is the move's total allotted time budget, in clock
	// ticks.
	ClocksNeeded uint32

	// AxisSegments and ExtruderSegments are the ordered segment lists
	// for positional axes and for extruders respectively. The lists are
	// shared between the drives of a move; per-drive scaling happens
	// through the effective steps-per-distance of each drive.
	AxisSegments     *Segment
	ExtruderSegments *Segment

	// StepsPerMM holds steps per distance unit, indexed by drive.
	StepsPerMM []float64

	// TotalSteps holds the planner's step count per drive. For delta
	// drives this is the magnitude of the net carriage displacement in
	// steps; the reversal solver rewrites it when the tower reverses
	// mid-move.
	TotalSteps []uint32

	// Towers holds per-drive tower geometry; meaningful only for the
	// drives of a delta move.
	Towers []Tower
}
