/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import "testing"

func TestSnapToGuides_PageEdges(t *testing.T) {
	page := Rect{X: 0, Y: 0, W: 200, H: 100}
	moving := Rect{X: 3, Y: 4, W: 80, H: 40} // near top-left edges
	opts := SnapOptions{Threshold: 6, SnapToEdges: true}

	snapped, guides := SnapToGuides(moving, []SnapTarget{{Rect: page, Weight: 1}}, opts)
	if snapped.X != 0 {
		t.Fatalf("expected X snapped to 0, got %v", snapped.X)
	}
	if snapped.Y != 0 {
		t.Fatalf("expected Y snapped to 0, got %v", snapped.Y)
	}
	if len(guides) == 0 {
		t.Fatalf("expected guides for snapping")
	}
	var vOK, hOK bool
	for _, g := range guides {
		if g.Orientation == "vertical" && g.Position == 0 {
			vOK = true
		}
		if g.Orientation == "horizontal" && g.Position == 0 {
			hOK = true
		}
	}
	if !vOK || !hOK {
		t.Fatalf("expected guides at x=0 (%v) and y=0 (%v)", vOK, hOK)
	}
}

func TestSnapToGuides_Centers(t *testing.T) {
	other := Rect{X: 0, Y: 0, W: 200, H: 100}
	// moving center within threshold of the other box center
	moving := Rect{X: 200/2 - 50 - 2, Y: 100/2 - 30 - 3, W: 100, H: 60}
	opts := SnapOptions{Threshold: 5, SnapToCenters: true}

	snapped, guides := SnapToGuides(moving, []SnapTarget{{Rect: other, Weight: 1}}, opts)
	if snapped.X != 200/2-50 {
		t.Fatalf("expected X snapped to center %v, got %v", 200/2-50, snapped.X)
	}
	if snapped.Y != 100/2-30 {
		t.Fatalf("expected Y snapped to center %v, got %v", 100/2-30, snapped.Y)
	}
	var vOK, hOK bool
	for _, g := range guides {
		if g.Orientation == "vertical" && g.Kind == "center" {
			vOK = true
		}
		if g.Orientation == "horizontal" && g.Kind == "center" {
			hOK = true
		}
	}
	if !vOK || !hOK {
		t.Fatalf("expected center guides, got %+v", guides)
	}
}

func TestSnapToGuides_BeyondThresholdUntouched(t *testing.T) {
	other := Rect{X: 0, Y: 0, W: 200, H: 100}
	moving := Rect{X: 50, Y: 30, W: 20, H: 20} // far from every edge and center
	opts := SnapOptions{Threshold: 4, SnapToEdges: true, SnapToCenters: true}

	snapped, guides := SnapToGuides(moving, []SnapTarget{{Rect: other, Weight: 1}}, opts)
	if snapped != moving {
		t.Fatalf("box moved without a candidate in range: %+v", snapped)
	}
	if len(guides) != 0 {
		t.Fatalf("unexpected guides: %+v", guides)
	}
}

func TestSnapToGuides_WeightBreaksTies(t *testing.T) {
	// Two targets exactly 3 away on either side; the weighted one wins.
	left := SnapTarget{Rect: Rect{X: 0, Y: 0, W: 10, H: 10}, Weight: 1}
	right := SnapTarget{Rect: Rect{X: 26, Y: 0, W: 10, H: 10}, Weight: 5}
	moving := Rect{X: 13, Y: 50, W: 10, H: 10} // left edge 3 from left.right(10), right edge 23, 3 from right.left(26)
	opts := SnapOptions{Threshold: 6, SnapToEdges: true}

	snapped, _ := SnapToGuides(moving, []SnapTarget{left, right}, opts)
	if snapped.X != 16 {
		t.Fatalf("expected snap toward weighted target (x=16), got %v", snapped.X)
	}
}
