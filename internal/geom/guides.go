/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

// Alignment guides and snapping for interactive element drags. Snapping is
// opt-in (config canvas.snap) and applied to the candidate box between the
// drag session's raw offset and the model write, so with snapping off a drag
// lands exactly where the pointer math puts it. The helpers are UI-agnostic
// and deterministic for unit testing.

import "math"

// SnapOptions controls which guide candidates are considered and the threshold.
type SnapOptions struct {
	// Threshold is the maximum distance (in canvas units) at which snapping
	// occurs. Typical values are 6–8.
	Threshold float32
	// Snap to edges (left, right, top, bottom)
	SnapToEdges bool
	// Snap to centers (cx, cy)
	SnapToCenters bool
}

// SnapTarget is a static reference rect (another element's box or the page
// frame). Weight biases selection when distances tie (higher = preferred);
// when uncertain, use 1.
type SnapTarget struct {
	Rect   Rect
	Weight float32
}

// GuideLine describes a visual guide generated during a snap alignment.
// Orientation is "vertical" or "horizontal"; Kind is "edge" or "center".
// From and To denote the guide extents for rendering; Position is the x
// (vertical) or y (horizontal) coordinate. Values are rounded to 3 decimal
// places for determinism.
type GuideLine struct {
	Orientation string
	Kind        string
	Position    float32
	From        Pt
	To          Pt
}

// SnapToGuides computes snapping adjustments for a moving box against a set
// of targets. It returns the snapped box and any guide lines to render for
// visual feedback. Snapping happens independently in X and Y.
func SnapToGuides(moving Rect, targets []SnapTarget, opts SnapOptions) (Rect, []GuideLine) {
	if opts.Threshold <= 0 {
		opts.Threshold = 6
	}
	var guides []GuideLine

	bestX := snapPick{dist: math.MaxFloat32}
	bestY := snapPick{dist: math.MaxFloat32}

	mL, mR := moving.X, moving.X+moving.W
	mT, mB := moving.Y, moving.Y+moving.H
	mCX, mCY := moving.X+moving.W/2, moving.Y+moving.H/2

	for _, a := range targets {
		aL, aR := a.Rect.X, a.Rect.X+a.Rect.W
		aT, aB := a.Rect.Y, a.Rect.Y+a.Rect.H
		aCX, aCY := a.Rect.X+a.Rect.W/2, a.Rect.Y+a.Rect.H/2

		if opts.SnapToEdges {
			// like-to-like edges plus abutting ones
			bestX.consider(mL-aL, opts.Threshold, a.Weight, guideVertical(aL, moving, a.Rect, "edge"))
			bestX.consider(mR-aR, opts.Threshold, a.Weight, guideVertical(aR, moving, a.Rect, "edge"))
			bestX.consider(mL-aR, opts.Threshold, a.Weight, guideVertical(aR, moving, a.Rect, "edge"))
			bestX.consider(mR-aL, opts.Threshold, a.Weight, guideVertical(aL, moving, a.Rect, "edge"))

			bestY.consider(mT-aT, opts.Threshold, a.Weight, guideHorizontal(aT, moving, a.Rect, "edge"))
			bestY.consider(mB-aB, opts.Threshold, a.Weight, guideHorizontal(aB, moving, a.Rect, "edge"))
			bestY.consider(mT-aB, opts.Threshold, a.Weight, guideHorizontal(aB, moving, a.Rect, "edge"))
			bestY.consider(mB-aT, opts.Threshold, a.Weight, guideHorizontal(aT, moving, a.Rect, "edge"))
		}
		if opts.SnapToCenters {
			bestX.consider(mCX-aCX, opts.Threshold, a.Weight, guideVertical(aCX, moving, a.Rect, "center"))
			bestY.consider(mCY-aCY, opts.Threshold, a.Weight, guideHorizontal(aCY, moving, a.Rect, "center"))
		}
	}

	snapped := moving
	if bestX.dist <= opts.Threshold {
		snapped.X = FloatRound(moving.X-bestX.delta, 3)
		guides = append(guides, bestX.guide)
	}
	if bestY.dist <= opts.Threshold {
		snapped.Y = FloatRound(moving.Y-bestY.delta, 3)
		guides = append(guides, bestY.guide)
	}
	return snapped, guides
}

// snapPick tracks the best candidate on one axis.
type snapPick struct {
	delta float32
	dist  float32
	score float32
	guide GuideLine
	set   bool
}

func (p *snapPick) consider(delta, threshold, weight float32, g GuideLine) {
	dist := float32(math.Abs(float64(delta)))
	if dist > threshold {
		return
	}
	score := dist / max(1, weight)
	if !p.set || score < p.score {
		p.set = true
		p.score = score
		p.dist = dist
		p.delta = delta
		p.guide = g
	}
}

func guideVertical(x float32, a Rect, b Rect, kind string) GuideLine {
	minY := min(a.Y, b.Y)
	maxY := max(a.Y+a.H, b.Y+b.H)
	x = FloatRound(x, 3)
	return GuideLine{
		Orientation: "vertical",
		Kind:        kind,
		Position:    x,
		From:        Pt{x, minY},
		To:          Pt{x, maxY},
	}
}

func guideHorizontal(y float32, a Rect, b Rect, kind string) GuideLine {
	minX := min(a.X, b.X)
	maxX := max(a.X+a.W, b.X+b.W)
	y = FloatRound(y, 3)
	return GuideLine{
		Orientation: "horizontal",
		Kind:        kind,
		Position:    y,
		From:        Pt{minX, y},
		To:          Pt{maxX, y},
	}
}
