/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import (
	"math"

	"gositeplan/internal/domain"
)

// Spin is the transform a box node applies to its content: a rotation about
// the box center, then optionally a horizontal mirror across the vertical
// axis through the center.
type Spin struct {
	Degrees float64
	Mirror  bool
}

// IsIdentity reports whether the spin changes nothing.
func (s Spin) IsIdentity() bool { return s.Degrees == 0 && !s.Mirror }

// NormalizeDeg wraps an arbitrary angle into [0,360). Stored rotations stay
// unnormalized; this applies only when computing the rendered transform.
func NormalizeDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// SpinFor derives the applied transform from a stored rotation.
//
// Elements that spin through the full circle render the back half,
// normalized angle in [90,270), mirrored so their artwork stays readable.
// Catalog symbols are drawn pre-mirrored in that range, so they additionally
// take 180 degrees off the applied angle; imported images keep the full
// angle and only flip.
func SpinFor(rotation float64, spins360, catalogSymbol bool) Spin {
	deg := NormalizeDeg(rotation)
	if spins360 && deg >= 90 && deg < 270 {
		s := Spin{Degrees: deg, Mirror: true}
		if catalogSymbol {
			s.Degrees = deg - 180
		}
		return s
	}
	return Spin{Degrees: deg}
}

// SpinOf is SpinFor for a model element.
func SpinOf(el *domain.Element) Spin {
	return SpinFor(el.Rotation, el.Spins360, el.Kind == domain.KindSymbol)
}

// Affine composes the spin into a transform about the given center,
// matching the box-node rendering order: rotate, then mirror.
func (s Spin) Affine(center Pt) Affine2D {
	m := Translate(center.X, center.Y)
	m = m.Mul(Rotate(float32(s.Degrees * math.Pi / 180)))
	if s.Mirror {
		m = m.Mul(Scale(-1, 1))
	}
	return m.Mul(Translate(-center.X, -center.Y))
}

// RotatedBounds returns the axis-aligned bounding size of a w×h box rotated
// by deg degrees.
func RotatedBounds(sz Size, deg float64) Size {
	rad := NormalizeDeg(deg) * math.Pi / 180
	c := math.Abs(math.Cos(rad))
	s := math.Abs(math.Sin(rad))
	w := float64(sz.W)
	h := float64(sz.H)
	return Size{
		W: float32(w*c + h*s),
		H: float32(w*s + h*c),
	}
}

// ForbiddenZone is the label keep-out extent around an element: the rotated
// bounding box of the scaled content, padded like the box frame. Labels are
// pushed outside this zone by PlaceLabel.
func ForbiddenZone(content Size, scale float32, deg float64) Size {
	rb := RotatedBounds(Size{content.W * scale, content.H * scale}, deg)
	return Size{rb.W + 2*SelectionPad, rb.H + 2*SelectionPad}
}

// ForbiddenZoneOf is ForbiddenZone for a model element.
func ForbiddenZoneOf(el *domain.Element) Size {
	return ForbiddenZone(
		Size{float32(el.SizeX), float32(el.SizeY)},
		float32(el.Scale),
		el.Rotation,
	)
}
