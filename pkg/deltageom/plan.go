// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package deltageom

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"drivestep/pkg/errors"
	"drivestep/pkg/stepgen"
)

// MoveSpec describes one straight effector move for planning.
type MoveSpec struct {
	// Start and End are effector positions in millimeters.
	Start, End [3]float64

	// Speed is the cruise speed in mm/s.
	Speed float64

	// Accel is the acceleration in mm/s². Zero plans the move at
	// constant speed with no ramps.
	Accel float64
}

// Planner turns move specifications into the per-drive data the
// step-timing engine consumes. It stands in for the look-ahead queue of
// a full motion pipeline.
type Planner struct {
	geom      *Geometry
	clockRate float64 // MCU clock ticks per second
}

// NewPlanner creates a planner for the given geometry and MCU clock
// rate (ticks per second).
func NewPlanner(geom *Geometry, clockRate float64) *Planner {
	return &Planner{geom: geom, clockRate: clockRate}
}

// ClockRate returns the planner's clock rate in ticks per second.
func (p *Planner) ClockRate() float64 { return p.clockRate }

// PlanMove builds the stepgen move description for spec: the direction
// vector, the segment list (trapezoidal when Accel is set) and the
// per-tower geometry and net step counts.
func (p *Planner) PlanMove(spec MoveSpec) (*stepgen.Move, error) {
	if spec.Speed <= 0 {
		return nil, errors.PrepareError(-1, "move speed must be positive")
	}
	delta := []float64{
		spec.End[0] - spec.Start[0],
		spec.End[1] - spec.Start[1],
		spec.End[2] - spec.Start[2],
	}
	distance := floats.Norm(delta, 2)
	if distance == 0 {
		return nil, errors.PrepareError(-1, "zero-length move")
	}
	unit := make([]float64, 3)
	floats.ScaleTo(unit, 1.0/distance, delta)

	segments, totalTicks := p.buildSegments(distance, spec.Speed, spec.Accel)

	mv := &stepgen.Move{
		DirectionVector: unit,
		A2PlusB2:        unit[0]*unit[0] + unit[1]*unit[1],
		TotalDistance:   distance,
		ClocksNeeded:    uint32(math.Round(totalTicks)),
		AxisSegments:    segments,
		StepsPerMM:      make([]float64, 3),
		TotalSteps:      make([]uint32, 3),
		Towers:          make([]stepgen.Tower, 3),
	}
	for i := 0; i < 3; i++ {
		hStart, err := p.geom.CarriageHeight(i, spec.Start)
		if err != nil {
			return nil, err
		}
		hEnd, err := p.geom.CarriageHeight(i, spec.End)
		if err != nil {
			return nil, err
		}
		s := p.geom.StepsPerMM(i)
		mv.StepsPerMM[i] = s
		mv.TotalSteps[i] = uint32(math.Round(math.Abs(hEnd-hStart) * s))
		mv.Towers[i] = stepgen.Tower{
			OffsetX:          spec.Start[0] - p.geom.towers[i][0],
			OffsetY:          spec.Start[1] - p.geom.towers[i][1],
			RodLengthSquared: p.geom.arm2[i],
			NetDirectionUp:   hEnd >= hStart,
		}
	}
	return mv, nil
}

// buildSegments lays out the move's velocity profile in clock-tick
// units and returns the segment list plus the total duration in ticks.
func (p *Planner) buildSegments(distance, speed, accel float64) (*stepgen.Segment, float64) {
	if accel <= 0 {
		duration := distance / speed * p.clockRate
		return stepgen.NewLinearSegment(distance, duration), duration
	}

	// Trapezoid, degenerating to a triangle when the move is too short
	// to reach the cruise speed.
	v := speed
	rampDist := v * v / (2.0 * accel)
	if 2.0*rampDist > distance {
		v = math.Sqrt(distance * accel)
		rampDist = distance / 2.0
	}
	cruiseDist := distance - 2.0*rampDist
	rampTime := v / accel

	// Per-tick units for the segment coefficients.
	vTick := v / p.clockRate
	aTick := accel / (p.clockRate * p.clockRate)
	rampTicks := rampTime * p.clockRate

	head := stepgen.NewAccelSegment(rampDist, rampTicks, 0.0, aTick)
	tail := head
	total := rampTicks
	if cruiseDist > 0 {
		cruiseTicks := cruiseDist / v * p.clockRate
		tail = tail.Append(stepgen.NewLinearSegment(cruiseDist, cruiseTicks))
		total += cruiseTicks
	}
	tail.Append(stepgen.NewDecelSegment(rampDist, rampTicks, vTick, aTick))
	total += rampTicks
	return head, total
}
