// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package stepgen

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestLinearSegmentCoefficients(t *testing.T) {
	// 10mm in 64000 ticks at constant speed.
	seg := NewLinearSegment(10.0, 64000.0)
	if !seg.IsLinear() {
		t.Error("expected linear segment")
	}
	if seg.IsReverse() || seg.IsAccelerating() {
		t.Error("linear segment misclassified")
	}

	// With 100 steps/mm, one step takes 64 ticks.
	pC := seg.CCoeff(1.0 / 100.0)
	pB := seg.LinearB(0.0, 0.0)
	for _, n := range []float64{1, 500, 1000} {
		want := 64.0 * n
		got := pB + pC*n
		if !scalar.EqualWithinAbs(got, want, 1e-9) {
			t.Errorf("step %v: time %v, want %v", n, got, want)
		}
	}
}

func TestAccelSegmentCoefficients(t *testing.T) {
	// Accelerate from 0.01 mm/tick at 2e-6 mm/tick^2 for 10000 ticks.
	const (
		u = 0.01
		a = 2e-6
		T = 10000.0
	)
	length := u*T + 0.5*a*T*T
	seg := NewAccelSegment(length, T, u, a)
	if !seg.IsAccelerating() || seg.IsLinear() {
		t.Fatal("accel segment misclassified")
	}

	// With 1 step/mm, the time of step n must match the closed form
	// t = (-u + sqrt(u*u + 2*a*d)) / a.
	pC := seg.CCoeff(1.0)
	pA := seg.NonlinearA(0.0)
	pB := seg.NonlinearB(0.0, 0.0)
	for _, d := range []float64{1, 100, length} {
		want := (-u + math.Sqrt(u*u+2*a*d)) / a
		got := pB + math.Sqrt(pA+pC*d)
		if !scalar.EqualWithinAbsOrRel(got, want, 1e-6, 1e-9) {
			t.Errorf("distance %v: time %v, want %v", d, got, want)
		}
	}
}

func TestDecelSegmentCoefficients(t *testing.T) {
	// Decelerate from 0.02 mm/tick at 1e-6 mm/tick^2 to rest.
	const (
		u     = 0.02
		decel = 1e-6
	)
	T := u / decel
	length := u*T - 0.5*decel*T*T
	seg := NewDecelSegment(length, T, u, decel)

	// t = (u - sqrt(u*u - 2*decel*d)) / decel, taking the early root.
	pC := seg.CCoeff(1.0)
	pA := seg.NonlinearA(0.0)
	pB := seg.NonlinearB(0.0, 0.0)
	for _, d := range []float64{1, length / 2, length} {
		want := (u - math.Sqrt(math.Max(u*u-2*decel*d, 0))) / decel
		got := pB - math.Sqrt(math.Max(pA+pC*d, 0))
		if !scalar.EqualWithinAbsOrRel(got, want, 1e-6, 1e-9) {
			t.Errorf("distance %v: time %v, want %v", d, got, want)
		}
	}
}

func TestSegmentAppendChaining(t *testing.T) {
	first := NewLinearSegment(1, 100)
	second := NewLinearSegment(2, 200)
	third := NewLinearSegment(3, 300)
	first.Append(second).Append(third)

	if first.Next() != second || second.Next() != third {
		t.Error("append did not link segments in order")
	}
	if first.IsLast() || second.IsLast() {
		t.Error("non-final segment reported as last")
	}
	if !third.IsLast() {
		t.Error("final segment not reported as last")
	}
}

func TestPressureAdvanceShiftsNonlinearOffset(t *testing.T) {
	seg := NewAccelSegment(100, 10000, 0.005, 1e-6)
	plain := seg.NonlinearB(5000.0, 0.0)
	shifted := seg.NonlinearB(5000.0, 800.0)
	if got := plain - shifted; !scalar.EqualWithinAbs(got, 800.0, 1e-9) {
		t.Errorf("pressure advance shift %v, want 800", got)
	}
}
