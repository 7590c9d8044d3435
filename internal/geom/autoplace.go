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
	sortpkg "sort"
)

// PlaceOptions controls free-spot suggestion for newly added elements.
// All units are in canvas coordinates. The algorithm is deterministic for
// identical inputs.
//
// Margin is the clearance to keep from page edges. GridStep controls the
// search granularity; lower values are slower but find tighter fits.
//
// Near, when provided (HasNear=true), biases the search toward positions
// whose center is closest to that point (e.g. the last pointer location)
// while still avoiding collisions. Without it the page center is used.
// If no collision-free placement exists, the least-overlapping candidate
// wins. The returned rect is always clamped inside the page inset by Margin.
type PlaceOptions struct {
	Margin   float32
	GridStep float32
	Near     Pt
	HasNear  bool
}

// SuggestPlacement proposes a box rect for a new element given the page
// bounds, the element's box size (content scaled plus selection padding) and
// the boxes already on the page. It returns the suggested rect and the
// number of candidates evaluated.
func SuggestPlacement(page Rect, box Size, obstacles []Rect, opts PlaceOptions) (Rect, int) {
	if opts.Margin <= 0 {
		opts.Margin = 8
	}
	if opts.GridStep <= 0 {
		opts.GridStep = 8
	}
	if !opts.HasNear {
		opts.Near = page.Center()
		opts.HasNear = true
	}

	inner := page.Inset(opts.Margin, opts.Margin)
	bw := max(0, box.W)
	bh := max(0, box.H)
	if bw > inner.W {
		bw = inner.W
	}
	if bh > inner.H {
		bh = inner.H
	}

	// Candidate grid of potential top-left positions within inner bounds
	// (ensure the last cell at x1/y1 is included).
	x0 := inner.X
	y0 := inner.Y
	x1 := inner.X + inner.W - bw
	y1 := inner.Y + inner.H - bh
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}

	var candidates []Rect
	for y := y0; ; y += opts.GridStep {
		if y > y1 {
			y = y1
		}
		for x := x0; x <= x1+1e-3; x += opts.GridStep {
			if x > x1 {
				x = x1
			}
			candidates = append(candidates, R(FloatRound(x, 3), FloatRound(y, 3), FloatRound(bw, 3), FloatRound(bh, 3)))
			if x == x1 {
				break
			}
		}
		if y == y1 {
			break
		}
	}

	// Closest-to-Near first; stable sort keeps row order on ties.
	sortpkg.SliceStable(candidates, func(i, j int) bool {
		ci := candidates[i].Center()
		cj := candidates[j].Center()
		di := hypot(ci.X-opts.Near.X, ci.Y-opts.Near.Y)
		dj := hypot(cj.X-opts.Near.X, cj.Y-opts.Near.Y)
		if di == dj { // tie-break by y,x to keep deterministic
			if candidates[i].Y == candidates[j].Y {
				return candidates[i].X < candidates[j].X
			}
			return candidates[i].Y < candidates[j].Y
		}
		return di < dj
	})

	bestRect := candidates[0]
	bestCost := float32(math.MaxFloat32)
	attempts := 0

	for _, c := range candidates {
		attempts++
		ovArea := totalOverlapArea(c, obstacles)
		if ovArea <= 0.0001 { // no collision
			// first collision-free candidate in the current ordering wins
			bestRect = c
			break
		}
		cost := ovArea * 10_000 // strong penalty in units^2
		cc := c.Center()
		cost += hypot(cc.X-opts.Near.X, cc.Y-opts.Near.Y)
		// slight preference for upper-left keeps repeated adds tidy
		cost += c.Y*0.01 + c.X*0.001
		if cost < bestCost {
			bestCost = cost
			bestRect = c
		}
	}

	// Clamp to inner bounds just in case of numeric drift.
	bestRect = clampRectTo(bestRect, inner)
	return bestRect, attempts
}

// --- helpers ---

func hypot(dx, dy float32) float32 { return float32(math.Hypot(float64(dx), float64(dy))) }

func clampRectTo(r Rect, bounds Rect) Rect {
	if r.X < bounds.X {
		r.X = bounds.X
	}
	if r.Y < bounds.Y {
		r.Y = bounds.Y
	}
	if r.X+r.W > bounds.X+bounds.W {
		r.X = bounds.X + bounds.W - r.W
	}
	if r.Y+r.H > bounds.Y+bounds.H {
		r.Y = bounds.Y + bounds.H - r.H
	}
	return r
}

func totalOverlapArea(r Rect, obstacles []Rect) float32 {
	var sum float32
	for _, o := range obstacles {
		if r.Intersects(o) {
			sum += r.Intersection(o).Area()
		}
	}
	return sum
}
