// Motion segments as produced by the look-ahead planner.
//
// A segment describes a sub-interval of constant acceleration for one
// move. The step-time solver never stores per-segment state of its own;
// it resolves the three step-time coefficients from the segment's data
// plus the accumulated distance/time at the segment's start, using the
// pure Calc* methods below.
//
// Distance inside a move is measured as path length travelled, so it is
// monotonically increasing even across a drive direction reversal: a
// reverse-classified segment is parameterised along the new (reversed)
// direction of travel with its own initial speed and acceleration.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package stepgen

// SegmentClass classifies a non-linear segment.
type SegmentClass uint8

const (
	// ClassAccelerating is motion speeding up in the current direction.
	ClassAccelerating SegmentClass = iota

	// ClassDecelerating is motion slowing down without reversing.
	ClassDecelerating

	// ClassReverse is motion in the opposite drive direction, entered
	// when deceleration with pressure advance pulls the drive backwards.
	// The segment is parameterised along the reverse direction, so its
	// acceleration is positive in that frame.
	ClassReverse
)

// Segment is one node of a move's singly linked segment list. It is
// owned by the planner and read-only here.
type Segment struct {
	next *Segment

	length   float64 // distance covered by this segment (path length, always positive)
	duration float64 // time taken by this segment, in clock ticks

	linear bool
	class  SegmentClass

	// Linear segments: c = 1/u where u is the (constant) speed.
	// Non-linear segments: b = -u/a, c = 2/a, with u the speed at the
	// segment start and a the signed acceleration, both in the frame of
	// the current direction of travel.
	b, c float64
}

// NewLinearSegment returns a constant-speed segment of the given length
// and duration (clock ticks).
func NewLinearSegment(length, duration float64) *Segment {
	return &Segment{
		length:   length,
		duration: duration,
		linear:   true,
		c:        duration / length, // 1/u
	}
}

// NewAccelSegment returns a segment of constant acceleration accel
// (distance per tick², positive) starting at speed initialSpeed
// (distance per tick).
func NewAccelSegment(length, duration, initialSpeed, accel float64) *Segment {
	return &Segment{
		length:   length,
		duration: duration,
		class:    ClassAccelerating,
		b:        -initialSpeed / accel,
		c:        2.0 / accel,
	}
}

// NewDecelSegment returns a segment of constant deceleration decel
// (positive magnitude) starting at speed initialSpeed. The drive does
// not reverse within the segment.
func NewDecelSegment(length, duration, initialSpeed, decel float64) *Segment {
	return &Segment{
		length:   length,
		duration: duration,
		class:    ClassDecelerating,
		b:        initialSpeed / decel, // -u/a with a = -decel
		c:        -2.0 / decel,
	}
}

// NewReverseSegment returns a segment in which the drive travels in the
// reversed direction, parameterised along that direction: initialSpeed
// is the reverse speed at the segment start (usually zero, the drive
// having just come to rest) and accel the positive acceleration in the
// reverse direction.
func NewReverseSegment(length, duration, initialSpeed, accel float64) *Segment {
	return &Segment{
		length:   length,
		duration: duration,
		class:    ClassReverse,
		b:        -initialSpeed / accel,
		c:        2.0 / accel,
	}
}

// Append links seg after s and returns seg, so segment lists can be
// built with chained calls.
func (s *Segment) Append(seg *Segment) *Segment {
	s.next = seg
	return seg
}

// Next returns the following segment, or nil at the end of the list.
func (s *Segment) Next() *Segment { return s.next }

// Length returns the distance covered by this segment.
func (s *Segment) Length() float64 { return s.length }

// Duration returns the time taken by this segment, in clock ticks.
func (s *Segment) Duration() float64 { return s.duration }

// IsLinear reports whether this is a constant-speed segment.
func (s *Segment) IsLinear() bool { return s.linear }

// IsAccelerating reports whether this segment speeds up in the current
// direction of travel.
func (s *Segment) IsAccelerating() bool { return !s.linear && s.class == ClassAccelerating }

// IsReverse reports whether this segment travels in the reversed drive
// direction.
func (s *Segment) IsReverse() bool { return !s.linear && s.class == ClassReverse }

// IsLast reports whether this is the final segment of the list.
func (s *Segment) IsLast() bool { return s.next == nil }

// CCoeff resolves the per-step (or, for delta drives, per-scaled-
// distance) coefficient: the segment's c term scaled by the distance
// represented by one step.
func (s *Segment) CCoeff(distPerStep float64) float64 {
	return s.c * distPerStep
}

// LinearB resolves the time-offset coefficient of a linear segment so
// that time = B + C*n for forward motion.
func (s *Segment) LinearB(startDistance, startTime float64) float64 {
	return startTime - startDistance*s.c
}

// NonlinearA resolves the acceleration coefficient of a non-linear
// segment so that time = B ± sqrt(A + C*n) for forward motion.
func (s *Segment) NonlinearA(startDistance float64) float64 {
	return s.b*s.b - s.c*startDistance
}

// NonlinearB resolves the time-offset coefficient of a non-linear
// segment. Pressure advance shifts the due time of every step earlier
// by the advance constant while accelerating and later while
// decelerating; with the signed b, c convention both cases reduce to a
// single subtraction.
func (s *Segment) NonlinearB(startTime, pressureAdvance float64) float64 {
	return startTime + s.b - pressureAdvance
}
