/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import "gositeplan/internal/domain"

// SelectionPad is the symmetric padding, in canvas units, between an
// element's scaled content and its box node frame. The extra border gives
// the selection outline room and keeps tiny symbols grabbable.
const SelectionPad float32 = 10

// BoxBounds returns the box node frame for content of the given intrinsic
// size, scaled, centered on c: the frame grows by SelectionPad on every side
// while the stored center stays put.
func BoxBounds(c Pt, content Size, scale float32) Rect {
	w := content.W*scale + 2*SelectionPad
	h := content.H*scale + 2*SelectionPad
	return Rect{
		X: c.X - content.W*scale/2 - SelectionPad,
		Y: c.Y - content.H*scale/2 - SelectionPad,
		W: w,
		H: h,
	}
}

// CenterForOrigin inverts BoxBounds: given a box origin (left/top), it
// recovers the element center. Used when a drag moves the frame and the
// model stores the center.
func CenterForOrigin(origin Pt, content Size, scale float32) Pt {
	return Pt{
		X: origin.X + content.W*scale/2 + SelectionPad,
		Y: origin.Y + content.H*scale/2 + SelectionPad,
	}
}

// ClampOrigin floors a box origin so that at most half of the box leaves
// the canvas on the left or top edge.
func ClampOrigin(origin Pt, box Size) Pt {
	return Pt{
		X: max(origin.X, -box.W/2),
		Y: max(origin.Y, -box.H/2),
	}
}

// BoxBoundsOf is BoxBounds for a model element.
func BoxBoundsOf(el *domain.Element) Rect {
	return BoxBounds(
		Pt{float32(el.PosX), float32(el.PosY)},
		Size{float32(el.SizeX), float32(el.SizeY)},
		float32(el.Scale),
	)
}

// CenterForOriginOf is CenterForOrigin for a model element.
func CenterForOriginOf(origin Pt, el *domain.Element) Pt {
	return CenterForOrigin(origin, Size{float32(el.SizeX), float32(el.SizeY)}, float32(el.Scale))
}
