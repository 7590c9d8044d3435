/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

// Plane geometry for page-space layout. Coordinates are float32 to match the
// UI toolkit's vector types; angles are float64 because they go straight into
// the math trig functions.

import "math"

// Pt is a point on the page plane.
type Pt struct{ X, Y float32 }

// Size holds a width and height.
type Size struct{ W, H float32 }

// Rect is an axis-aligned rectangle, stored as its min corner plus extent.
type Rect struct {
	X, Y float32
	W, H float32
}

func R(x, y, w, h float32) Rect { return Rect{X: x, Y: y, W: w, H: h} }

// CenterRect builds the rect of the given size centered on c.
func CenterRect(c Pt, sz Size) Rect {
	return R(c.X-sz.W/2, c.Y-sz.H/2, sz.W, sz.H)
}

func (r Rect) Min() Pt    { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt    { return Pt{r.X + r.W, r.Y + r.H} }
func (r Rect) Center() Pt { return Pt{r.X + r.W/2, r.Y + r.H/2} }
func (r Rect) Size() Size { return Size{r.W, r.H} }

// Contains reports whether p lies in r; points on the edge count.
func (r Rect) Contains(p Pt) bool {
	mx := r.Max()
	return p.X >= r.X && p.X <= mx.X && p.Y >= r.Y && p.Y <= mx.Y
}

// Inset shrinks r by dx horizontally and dy vertically on each side.
// Negative values grow the rectangle.
func (r Rect) Inset(dx, dy float32) Rect {
	return R(r.X+dx, r.Y+dy, r.W-2*dx, r.H-2*dy)
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	rm, om := r.Max(), o.Max()
	x0, y0 := min(r.X, o.X), min(r.Y, o.Y)
	return R(x0, y0, max(rm.X, om.X)-x0, max(rm.Y, om.Y)-y0)
}

// Intersects reports strict overlap, so rects that only share an edge do
// not intersect.
func (r Rect) Intersects(o Rect) bool {
	return spansOverlap(r.X, r.X+r.W, o.X, o.X+o.W) &&
		spansOverlap(r.Y, r.Y+r.H, o.Y, o.Y+o.H)
}

func spansOverlap(a0, a1, b0, b1 float32) bool { return a0 < b1 && b0 < a1 }

// Intersection returns the shared region, or the zero rect when there is
// none.
func (r Rect) Intersection(o Rect) Rect {
	x0, x1 := max(r.X, o.X), min(r.X+r.W, o.X+o.W)
	y0, y1 := max(r.Y, o.Y), min(r.Y+r.H, o.Y+o.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return R(x0, y0, x1-x0, y1-y0)
}

// Area is zero for degenerate rects.
func (r Rect) Area() float32 {
	if r.W > 0 && r.H > 0 {
		return r.W * r.H
	}
	return 0
}

// Affine2D is a plane transform. The six coefficients fill the top two rows
// of the homogeneous matrix
//
//	| a c e |
//	| b d f |
//	| 0 0 1 |
type Affine2D struct{ A, B, C, D, E, F float32 }

var Identity = Affine2D{A: 1, D: 1}

// linear applies only the rotation/scale part, ignoring translation.
func (m Affine2D) linear(x, y float32) (float32, float32) {
	return m.A*x + m.C*y, m.B*x + m.D*y
}

// Mul composes transforms; the receiver is applied last.
func (m Affine2D) Mul(n Affine2D) Affine2D {
	a, b := m.linear(n.A, n.B)
	c, d := m.linear(n.C, n.D)
	e, f := m.linear(n.E, n.F)
	return Affine2D{A: a, B: b, C: c, D: d, E: e + m.E, F: f + m.F}
}

func (m Affine2D) Apply(p Pt) Pt {
	x, y := m.linear(p.X, p.Y)
	return Pt{X: x + m.E, Y: y + m.F}
}

func Translate(tx, ty float32) Affine2D { return Affine2D{A: 1, D: 1, E: tx, F: ty} }
func Scale(sx, sy float32) Affine2D     { return Affine2D{A: sx, D: sy} }

func Rotate(rad float32) Affine2D {
	sin, cos := math.Sincos(float64(rad))
	s, c := float32(sin), float32(cos)
	return Affine2D{A: c, B: s, C: -s, D: c}
}

// FloatRound rounds v to the given number of decimal places. Negative
// places leave v untouched.
func FloatRound(v float32, places int) float32 {
	if places < 0 {
		return v
	}
	pow := math.Pow10(places)
	return float32(math.Round(float64(v)*pow) / pow)
}
