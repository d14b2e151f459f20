package math

import (
	"math"
	"testing"
)

func TestVec3Add(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{3, 4, 5}
	got := a.Add(b)
	want := Vec3{4, 6, 8}
	if got != want {
		t.Errorf("Vec3.Add() = %v, want %v", got, want)
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3{3, 4, 0}
	if got := v.Length(); got != 5 {
		t.Errorf("Vec3.Length() = %v, want 5", got)
	}
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Midpoint(t *testing.T) {
	got := Vec3{0, 0, 0}.Midpoint(Vec3{2, 4, -6})
	want := Vec3{1, 2, -3}
	if got != want {
		t.Errorf("Vec3.Midpoint() = %v, want %v", got, want)
	}
}

func TestVec3Component(t *testing.T) {
	v := Vec3{1, 2, 3}
	for axis, want := range map[Axis]float64{AxisX: 1, AxisY: 2, AxisZ: 3} {
		if got := v.Component(axis); got != want {
			t.Errorf("Component(%s) = %v, want %v", axis, got, want)
		}
	}
	if got := v.WithComponent(AxisZ, 9); got != (Vec3{1, 2, 9}) {
		t.Errorf("WithComponent(z, 9) = %v", got)
	}
}

func TestLinePlaneIntersect(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{4, 2, 8}

	p, ok := LinePlaneIntersect(a.Sub(b), a, AxisX.Unit(), Vec3{1, 0, 0})
	if !ok {
		t.Fatal("expected intersection")
	}
	want := Vec3{1, 0.5, 2}
	if math.Abs(p.X-want.X) > 1e-12 || math.Abs(p.Y-want.Y) > 1e-12 || math.Abs(p.Z-want.Z) > 1e-12 {
		t.Errorf("LinePlaneIntersect() = %v, want %v", p, want)
	}

	// Segment parallel to the plane
	if _, ok := LinePlaneIntersect(Vec3{0, 1, 0}, a, AxisX.Unit(), Vec3{1, 0, 0}); ok {
		t.Error("parallel line should not intersect")
	}
}

func TestTriangleArea(t *testing.T) {
	got := TriangleArea(Vec3{0, 0, 0}, Vec3{2, 0, 0}, Vec3{0, 0, 2})
	if got != 2 {
		t.Errorf("TriangleArea() = %v, want 2", got)
	}
}
