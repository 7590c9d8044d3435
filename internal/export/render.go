/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

// Shared scaffolding for the per-page exporters: page selection, file-name
// stems, and address-label measurement. Model units are points (1/72 inch);
// paper sizes map them 1:1 and raster output scales by DPI/72.

import (
	"strings"

	"gositeplan/internal/domain"
	"gositeplan/internal/textlayout"
)

const (
	defaultLabelPt  = 11.0 // keep in sync with config.Default().Canvas.LabelFontPt
	defaultGridStep = 50.0
)

// pageNumbers expands a page selection: empty means every page; explicit
// numbers are kept when they fall inside 1..numPages.
func pageNumbers(numPages int, specific []int) []int {
	if len(specific) == 0 {
		out := make([]int, numPages)
		for i := range out {
			out[i] = i + 1
		}
		return out
	}
	out := make([]int, 0, len(specific))
	for _, n := range specific {
		if n >= 1 && n <= numPages {
			out = append(out, n)
		}
	}
	return out
}

// planStem derives a file-name stem from a plan name: lowercased, runs of
// anything but ASCII letters and digits collapsed to single dashes.
func planStem(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	s := strings.TrimRight(b.String(), "-")
	if s == "" {
		return "plan"
	}
	return s
}

// labelPt resolves the label size: element override, then export option,
// then the built-in default.
func labelPt(el *domain.Element, optPt float64) float64 {
	if el.LabelFontPt > 0 {
		return el.LabelFontPt
	}
	if optPt > 0 {
		return optPt
	}
	return defaultLabelPt
}

// labelLayout is a measured multi-line label ready for drawing: the overall
// box PlaceLabel positions, plus the first-baseline offset and line advance.
type labelLayout struct {
	lines   []string
	w, h    float32
	ascent  float32
	advance float32
}

func layoutLabel(p textlayout.Provider, text string, pt float64) labelLayout {
	spec := textlayout.FontSpec{Family: textlayout.DefaultFamily, SizePt: float32(pt)}
	w, h := textlayout.MeasureLabel(p, text, spec)
	_, met := p.Resolve(spec)
	return labelLayout{
		lines:   strings.Split(text, "\n"),
		w:       w,
		h:       h,
		ascent:  met.Ascent,
		advance: met.Ascent + met.Descent + met.LineGap,
	}
}

// exportProvider measures label fonts against the embedded Go Regular face
// so output is identical on machines with no fonts installed.
func exportProvider() textlayout.Provider {
	return textlayout.OTProvider{Lib: textlayout.DefaultLibrary()}
}

func outlineOrDefault(s domain.Stroke) domain.Stroke {
	if s.Width == 0 {
		return domain.Stroke{Color: domain.Black, Width: 1}
	}
	return s
}

func gridColorOrDefault(c domain.Color) domain.Color {
	if c.A == 0 && c.R == 0 && c.G == 0 && c.B == 0 {
		return domain.Color{R: 176, G: 190, B: 197, A: 255}
	}
	return c
}
