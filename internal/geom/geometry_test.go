/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import "testing"

func TestRectContainsAndInset(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	in := r.Inset(5, 5)
	if in.X != 15 || in.Y != 25 || in.W != 90 || in.H != 40 {
		t.Fatalf("unexpected inset: %+v", in)
	}
}

func TestCenterRectRoundTrip(t *testing.T) {
	r := CenterRect(Pt{100, 80}, Size{40, 20})
	if r.X != 80 || r.Y != 70 || r.W != 40 || r.H != 20 {
		t.Fatalf("unexpected rect: %+v", r)
	}
	if c := r.Center(); c.X != 100 || c.Y != 80 {
		t.Fatalf("center does not round-trip: %+v", c)
	}
}

func TestAffineBasic(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt{1, 1})
	if p.X != 12 || p.Y != 8 { // (1*2+10, 1*3+5)
		t.Fatalf("unexpected transform result: %+v", p)
	}
}

func TestIntersectionAndArea(t *testing.T) {
	a := R(0, 0, 10, 10)
	b := R(5, 5, 10, 10)
	if !a.Intersects(b) {
		t.Fatalf("expected intersection")
	}
	iv := a.Intersection(b)
	if iv.X != 5 || iv.Y != 5 || iv.W != 5 || iv.H != 5 {
		t.Fatalf("unexpected intersection: %+v", iv)
	}
	if got := iv.Area(); got != 25 {
		t.Fatalf("area = %v, want 25", got)
	}
	c := R(20, 20, 1, 1)
	if a.Intersects(c) {
		t.Fatalf("disjoint rects must not intersect")
	}
	if got := a.Intersection(c).Area(); got != 0 {
		t.Fatalf("disjoint intersection area = %v, want 0", got)
	}
}

func TestFloatRound(t *testing.T) {
	if got := FloatRound(1.23456, 3); got != 1.235 {
		t.Fatalf("FloatRound = %v, want 1.235", got)
	}
	if got := FloatRound(1.5, -1); got != 1.5 {
		t.Fatalf("negative places must be a no-op, got %v", got)
	}
}
