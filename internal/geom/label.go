/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import "gositeplan/internal/domain"

// LabelPlacement is the resolved geometry for one address label: the label
// node's top-left corner plus the logical label center the model remembers.
type LabelPlacement struct {
	Left, Top float32
	Center    Pt
}

// PlaceLabel positions a measured label of size lbl next to an element
// centered at c whose keep-out extent is fz (see ForbiddenZone).
//
// The anchor picks one axis: left/right/center place horizontally and use
// the vertical default (vertically centered, logical center one unit below
// the element center); above/below place vertically and center horizontally.
// The vertical offsets are fractions of the label height tuned so ascenders
// and descenders visually clear the element outline.
func PlaceLabel(anchor domain.LabelAnchor, c Pt, fz Size, lbl Size) LabelPlacement {
	anchor = anchor.Normalize()

	var cx float32
	switch anchor {
	case domain.AnchorLeft:
		cx = c.X - fz.W/2 - lbl.W/2
	case domain.AnchorRight:
		cx = c.X + fz.W/2 + lbl.W/2
	default:
		cx = c.X
	}

	p := LabelPlacement{Left: cx - lbl.W/2}
	switch anchor {
	case domain.AnchorAbove:
		p.Top = c.Y - fz.H/2 - 0.8*lbl.H
		p.Center = Pt{cx, c.Y - fz.H/2 - 0.25*lbl.H}
	case domain.AnchorBelow:
		p.Top = c.Y + fz.H/2 - 0.2*lbl.H
		p.Center = Pt{cx, c.Y + fz.H/2 + 0.35*lbl.H}
	default:
		p.Top = c.Y - lbl.H/2
		p.Center = Pt{cx, c.Y + 1}
	}
	return p
}

// PlaceLabelFor is PlaceLabel for a model element and its measured label.
func PlaceLabelFor(el *domain.Element, lbl Size) LabelPlacement {
	c := Pt{float32(el.PosX), float32(el.PosY)}
	return PlaceLabel(el.LabelAnchor, c, ForbiddenZoneOf(el), lbl)
}
