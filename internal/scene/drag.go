/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import "gositeplan/internal/geom"

// DragSession tracks one box drag from press to release. Pointer deltas are
// divided by the zoom captured at the start, added to the box origin, and
// clamped so at most half the box leaves the canvas on the left or top edge.
//
// At most one session is meaningful at a time. A release that never arrived
// leaves the session open; the next Start replaces it, so a lost release
// cannot wedge dragging.
type DragSession struct {
	active bool
	start  geom.Pt
	origin geom.Pt
	box    geom.Size
	zoom   float32
}

// Start begins a session at the given pointer position for a box currently
// at origin with the given size. Zoom values at or below zero fall back
// to 1.
func (d *DragSession) Start(pointer, origin geom.Pt, zoom float32, box geom.Size) {
	if zoom <= 0 {
		zoom = 1
	}
	d.active = true
	d.start = pointer
	d.origin = origin
	d.box = box
	d.zoom = zoom
}

// Update returns the clamped box origin for the current pointer position.
// With no active session it returns the last origin unchanged.
func (d *DragSession) Update(pointer geom.Pt) geom.Pt {
	if !d.active {
		return d.origin
	}
	return geom.ClampOrigin(geom.Pt{
		X: d.origin.X + (pointer.X-d.start.X)/d.zoom,
		Y: d.origin.Y + (pointer.Y-d.start.Y)/d.zoom,
	}, d.box)
}

// End closes the session. Recording a history checkpoint is the caller's
// concern.
func (d *DragSession) End() { d.active = false }

// Active reports whether a session is in flight.
func (d *DragSession) Active() bool { return d.active }
