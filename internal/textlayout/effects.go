/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import "gositeplan/internal/domain"

// LabelEffect describes how address labels are painted so they stay legible
// over dense plan linework. Renderers translate it into concrete paint: SVG
// uses a stroked text with paint-order, raster exporters repaint the text at
// halo offsets before the fill pass.
type LabelEffect struct {
	Fill   domain.Color
	Halo   domain.Stroke // drawn behind the glyphs for contrast
	Shadow ShadowFX
}

// ShadowFX describes a simple drop shadow effect.
type ShadowFX struct {
	Enabled bool
	Dx, Dy  float32
	Blur    float32
	Color   domain.Color
}

// DefaultLabelEffect is the standard lettering for plan exports: black fill
// over a white halo wide enough to separate the text from hatching.
func DefaultLabelEffect() LabelEffect {
	return LabelEffect{
		Fill:   domain.Black,
		Halo:   domain.Stroke{Color: domain.White, Width: 2},
		Shadow: ShadowFX{Enabled: false, Dx: 1, Dy: 1, Blur: 1, Color: domain.Black},
	}
}

// HaloOffsets returns the raster offsets for emulating a text halo: eight
// repaints around the fill position at the given stroke width. A width of
// zero or less disables the halo.
func HaloOffsets(width float64) [][2]float64 {
	if width <= 0 {
		return nil
	}
	w := width
	return [][2]float64{
		{-w, -w}, {0, -w}, {w, -w},
		{-w, 0}, {w, 0},
		{-w, w}, {0, w}, {w, w},
	}
}
