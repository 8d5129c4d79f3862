// Linear delta tower geometry.
//
// Three towers stand at 120-degree intervals on a circle of the delta
// radius; a carriage on each tower connects to the effector through a
// diagonal rod. This package turns Cartesian effector positions into
// per-tower carriage heights and back, and prepares the per-tower
// numbers the step-timing engine needs for a move.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package deltageom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"drivestep/pkg/config"
	"drivestep/pkg/errors"
	"drivestep/pkg/pool"
)

// Default tower angles in degrees, towers A, B, C.
var defaultAngles = [3]float64{210.0, 330.0, 90.0}

// Params configures a delta geometry.
type Params struct {
	// Radius is the horizontal distance from the center to each tower.
	Radius float64

	// ArmLengths holds the diagonal rod length per tower.
	ArmLengths [3]float64

	// Angles holds the tower angles in degrees. Zero values select the
	// defaults 210, 330, 90.
	Angles [3]float64

	// StepsPerMM holds the carriage steps per millimeter per tower.
	StepsPerMM [3]float64
}

// Geometry is an immutable delta tower layout.
type Geometry struct {
	radius     float64
	armLengths [3]float64
	arm2       [3]float64
	angles     [3]float64
	towers     [3][2]float64
	stepsPerMM [3]float64
}

// New validates the parameters and builds a Geometry.
func New(p Params) (*Geometry, error) {
	if p.Radius <= 0 {
		return nil, errors.ConfigValidationError("delta", "radius", "must be positive")
	}
	for i, arm := range p.ArmLengths {
		if arm <= p.Radius {
			return nil, errors.ConfigValidationError("delta", "arm_length",
				fmt.Sprintf("tower %d: arm length %g must exceed the radius %g", i, arm, p.Radius))
		}
	}
	for i, s := range p.StepsPerMM {
		if s <= 0 {
			return nil, errors.ConfigValidationError("delta", "steps_per_mm",
				fmt.Sprintf("tower %d: must be positive", i))
		}
	}
	angles := p.Angles
	if angles == [3]float64{} {
		angles = defaultAngles
	}

	g := &Geometry{
		radius:     p.Radius,
		armLengths: p.ArmLengths,
		angles:     angles,
		stepsPerMM: p.StepsPerMM,
	}
	for i := 0; i < 3; i++ {
		g.arm2[i] = p.ArmLengths[i] * p.ArmLengths[i]
		rad := angles[i] * math.Pi / 180.0
		g.towers[i] = [2]float64{math.Cos(rad) * p.Radius, math.Sin(rad) * p.Radius}
	}
	return g, nil
}

// FromConfig builds a Geometry from the [delta] config section. The
// arm_length and steps_per_mm options accept either one value applied
// to all towers or one value per tower.
func FromConfig(cfg *config.Config) (*Geometry, error) {
	sec, err := cfg.GetSection("delta")
	if err != nil {
		return nil, err
	}
	var p Params
	if p.Radius, err = sec.GetFloatAbove("radius", 0.0); err != nil {
		return nil, err
	}
	arms, err := sec.GetFloatList("arm_length")
	if err != nil {
		return nil, err
	}
	if err := spread(&p.ArmLengths, arms); err != nil {
		return nil, errors.ConfigValidationError("delta", "arm_length", err.Error())
	}
	steps, err := sec.GetFloatList("steps_per_mm")
	if err != nil {
		return nil, err
	}
	if err := spread(&p.StepsPerMM, steps); err != nil {
		return nil, errors.ConfigValidationError("delta", "steps_per_mm", err.Error())
	}
	if sec.HasOption("angles") {
		angles, err := sec.GetFloatList("angles")
		if err != nil {
			return nil, err
		}
		if len(angles) != 3 {
			return nil, errors.ConfigValidationError("delta", "angles", "need exactly 3 values")
		}
		copy(p.Angles[:], angles)
	}
	return New(p)
}

// spread fills dst from a one-or-three element list.
func spread(dst *[3]float64, values []float64) error {
	switch len(values) {
	case 1:
		dst[0], dst[1], dst[2] = values[0], values[0], values[0]
	case 3:
		copy(dst[:], values)
	default:
		return fmt.Errorf("need 1 or 3 values, got %d", len(values))
	}
	return nil
}

// Radius returns the delta radius.
func (g *Geometry) Radius() float64 { return g.radius }

// TowerPosition returns the planar position of the given tower.
func (g *Geometry) TowerPosition(tower int) (x, y float64) {
	return g.towers[tower][0], g.towers[tower][1]
}

// StepsPerMM returns the carriage steps per millimeter of the tower.
func (g *Geometry) StepsPerMM(tower int) float64 { return g.stepsPerMM[tower] }

// CarriageHeight returns the carriage height on the given tower for an
// effector at pos. Fails when the rod cannot reach the position.
func (g *Geometry) CarriageHeight(tower int, pos [3]float64) (float64, error) {
	dx := pos[0] - g.towers[tower][0]
	dy := pos[1] - g.towers[tower][1]
	r2 := g.arm2[tower] - dx*dx - dy*dy
	if r2 <= 0 {
		return 0, errors.PrepareGeometryError(tower,
			fmt.Sprintf("position (%.3f, %.3f) out of reach of tower %d", pos[0], pos[1], tower))
	}
	return math.Sqrt(r2) + pos[2], nil
}

// Effector returns the effector position for the given carriage
// heights, the intersection of the three rod spheres. Carriage i sits
// at (towerX, towerY, heights[i]).
func (g *Geometry) Effector(heights [3]float64) [3]float64 {
	p1 := []float64{g.towers[0][0], g.towers[0][1], heights[0]}
	p2 := []float64{g.towers[1][0], g.towers[1][1], heights[1]}
	p3 := []float64{g.towers[2][0], g.towers[2][1], heights[2]}

	s21 := pool.GetFloat64Slice(3)
	s31 := pool.GetFloat64Slice(3)
	ex := pool.GetFloat64Slice(3)
	ey := pool.GetFloat64Slice(3)
	defer func() {
		pool.PutFloat64Slice(s21)
		pool.PutFloat64Slice(s31)
		pool.PutFloat64Slice(ex)
		pool.PutFloat64Slice(ey)
	}()
	floats.SubTo(s21, p2, p1)
	floats.SubTo(s31, p3, p1)

	d := floats.Norm(s21, 2)
	floats.ScaleTo(ex, 1.0/d, s21)

	i := floats.Dot(ex, s31)
	floats.AddScaledTo(ey, s31, -i, ex)
	floats.Scale(1.0/floats.Norm(ey, 2), ey)

	ez := []float64{
		ex[1]*ey[2] - ex[2]*ey[1],
		ex[2]*ey[0] - ex[0]*ey[2],
		ex[0]*ey[1] - ex[1]*ey[0],
	}

	j := floats.Dot(ey, s31)
	x := (g.arm2[0] - g.arm2[1] + d*d) / (2.0 * d)
	y := (g.arm2[0] - g.arm2[2] - x*x + (x-i)*(x-i) + j*j) / (2.0 * j)
	z := -math.Sqrt(g.arm2[0] - x*x - y*y)

	var out [3]float64
	for k := 0; k < 3; k++ {
		out[k] = p1[k] + ex[k]*x + ey[k]*y + ez[k]*z
	}
	return out
}
