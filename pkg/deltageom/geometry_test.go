// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package deltageom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"drivestep/pkg/config"
	"drivestep/pkg/errors"
)

func testGeometry(t *testing.T) *Geometry {
	t.Helper()
	g, err := New(Params{
		Radius:     140.0,
		ArmLengths: [3]float64{250.0, 250.0, 250.0},
		StepsPerMM: [3]float64{80.0, 80.0, 80.0},
	})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name string
		p    Params
	}{
		{"zero radius", Params{ArmLengths: [3]float64{250, 250, 250}, StepsPerMM: [3]float64{80, 80, 80}}},
		{"arm shorter than radius", Params{Radius: 140, ArmLengths: [3]float64{250, 100, 250}, StepsPerMM: [3]float64{80, 80, 80}}},
		{"zero steps per mm", Params{Radius: 140, ArmLengths: [3]float64{250, 250, 250}}},
	}
	for _, c := range cases {
		if _, err := New(c.p); !errors.IsConfig(err) {
			t.Errorf("%s: error %v, want a config error", c.name, err)
		}
	}
}

func TestCarriageHeightAtCenter(t *testing.T) {
	g := testGeometry(t)
	want := math.Sqrt(250.0*250.0 - 140.0*140.0)
	for tower := 0; tower < 3; tower++ {
		h, err := g.CarriageHeight(tower, [3]float64{0, 0, 0})
		if err != nil {
			t.Fatalf("tower %d: %v", tower, err)
		}
		if !scalar.EqualWithinAbs(h, want, 1e-9) {
			t.Errorf("tower %d: height %g, want %g", tower, h, want)
		}
		// Raising the effector raises the carriage by the same amount.
		h2, err := g.CarriageHeight(tower, [3]float64{0, 0, 7.5})
		if err != nil {
			t.Fatalf("tower %d: %v", tower, err)
		}
		if !scalar.EqualWithinAbs(h2-h, 7.5, 1e-9) {
			t.Errorf("tower %d: z offset changed carriage height by %g, want 7.5", tower, h2-h)
		}
	}
}

func TestCarriageHeightOutOfReach(t *testing.T) {
	g := testGeometry(t)
	if _, err := g.CarriageHeight(0, [3]float64{400, 0, 0}); !errors.Is(err, errors.ErrPrepareGeometry) {
		t.Errorf("error %v, want code %s", err, errors.ErrPrepareGeometry)
	}
}

func TestEffectorRoundTrip(t *testing.T) {
	g := testGeometry(t)
	points := [][3]float64{
		{0, 0, 0},
		{20, -15, 5},
		{-60, 45, 12.5},
		{0, 90, -3},
	}
	for _, p := range points {
		var heights [3]float64
		for tower := 0; tower < 3; tower++ {
			h, err := g.CarriageHeight(tower, p)
			if err != nil {
				t.Fatalf("point %v tower %d: %v", p, tower, err)
			}
			heights[tower] = h
		}
		got := g.Effector(heights)
		for k := 0; k < 3; k++ {
			if !scalar.EqualWithinAbs(got[k], p[k], 1e-6) {
				t.Errorf("point %v: effector[%d] = %g", p, k, got[k])
			}
		}
	}
}

func TestFromConfig(t *testing.T) {
	cfg, err := config.LoadString(`
[delta]
radius: 140.0
arm_length: 250.0
steps_per_mm: 80, 80, 80
`)
	if err != nil {
		t.Fatal(err)
	}
	g, err := FromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if g.Radius() != 140.0 {
		t.Errorf("radius %g, want 140", g.Radius())
	}
	// Tower C defaults to 90 degrees: straight up the Y axis.
	x, y := g.TowerPosition(2)
	if !scalar.EqualWithinAbs(x, 0, 1e-9) || !scalar.EqualWithinAbs(y, 140, 1e-9) {
		t.Errorf("tower C at (%g, %g), want (0, 140)", x, y)
	}
	if g.StepsPerMM(1) != 80.0 {
		t.Errorf("steps per mm %g, want 80", g.StepsPerMM(1))
	}
}

func TestFromConfigRejectsBadLists(t *testing.T) {
	cfg, err := config.LoadString("[delta]\nradius: 140\narm_length: 250, 250\nsteps_per_mm: 80\n")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := FromConfig(cfg); !errors.Is(err, errors.ErrConfigValidation) {
		t.Errorf("error %v, want code %s", err, errors.ErrConfigValidation)
	}
}
