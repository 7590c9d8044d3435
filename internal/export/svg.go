/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gositeplan/internal/domain"
	"gositeplan/internal/geom"
	"gositeplan/internal/storage"
	"gositeplan/internal/symbol"
	"gositeplan/internal/textlayout"
)

// SVGOptions controls SVG export behavior.
// - DPI defines the physical pixel size; width/height attributes use pixels derived from DPI.
// - The coordinate system matches the model (points). A viewBox is provided to scale.
//
//nolint:revive // clarity is preferred
type SVGOptions struct {
	IncludeGrid   bool
	GridStep      float64
	DPI           int
	Paper         string
	Landscape     bool
	GridColor     domain.Color
	OutlineStroke domain.Stroke
	LabelFontPt   float64
	Pages         []int
}

// ExportPlanSVGPages exports each page of a plan as a separate SVG file.
// Files are named <plan>-page-<n>.svg under outDir or the project's exports
// folder. Element content is embedded as catalog markup; the box transform
// comes from the spin so rotated and mirrored symbols match the editor.
func ExportPlanSVGPages(ph *storage.ProjectHandle, planName, outDir string, opt SVGOptions) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	pl, err := storage.FindPlan(ph, planName)
	if err != nil {
		return err
	}

	// Defaults
	gridCol := gridColorOrDefault(opt.GridColor)
	outline := outlineOrDefault(opt.OutlineStroke)
	dpi := opt.DPI
	if dpi <= 0 {
		dpi = 96
	}
	step := opt.GridStep
	if step <= 0 {
		step = defaultGridStep
	}
	paper := paperOrDefault(opt.Paper, opt.Landscape)

	// Derived pixel size for width/height attributes
	scale := float64(dpi) / 72.0
	pxW := int(math.Round(paper.W * scale))
	pxH := int(math.Round(paper.H * scale))

	// Resolve output directory
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(ph.Root, "exports", outDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}

	cat, err := exportCatalog(ph)
	if err != nil {
		return err
	}
	prov := exportProvider()
	fx := textlayout.DefaultLabelEffect()
	oc := svgColor(outline.Color)

	for _, pageNo := range pageNumbers(pl.NumPages, opt.Pages) {
		var buf bytes.Buffer
		var werr error
		wf := func(format string, args ...any) {
			if werr != nil {
				return
			}
			_, werr = fmt.Fprintf(&buf, format, args...)
		}

		wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
		wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%dpx\" height=\"%dpx\" viewBox=\"0 0 %g %g\">\n", pxW, pxH, paper.W, paper.H)
		wf("  <title>%s page %d</title>\n", escText(pl.Name), pageNo)
		// Background white
		wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"#ffffff\"/>\n", paper.W, paper.H)

		if opt.IncludeGrid {
			gc := svgColor(gridCol)
			for x := step; x < paper.W; x += step {
				wf("  <line x1=\"%g\" y1=\"0\" x2=\"%g\" y2=\"%g\" stroke=\"%s\" stroke-width=\"0.25\"/>\n", x, x, paper.H, gc)
			}
			for y := step; y < paper.H; y += step {
				wf("  <line x1=\"0\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"%s\" stroke-width=\"0.25\"/>\n", y, paper.W, y, gc)
			}
			wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"none\" stroke=\"%s\" stroke-width=\"0.8\"/>\n", paper.W, paper.H, gc)
		}

		// Elements in list order, which is the z stack bottom to top.
		for _, el := range pl.ElementsOnPage(pageNo) {
			w := el.SizeX * el.Scale
			h := el.SizeY * el.Scale
			sp := geom.SpinOf(el)

			markup, merr := cat.Markup(el)
			if merr != nil {
				return fmt.Errorf("element %s: %w", el.ID, merr)
			}

			// Rightmost transform applies first: center the content box,
			// mirror, rotate, then move to the element position.
			tr := fmt.Sprintf("translate(%g %g)", el.PosX, el.PosY)
			if sp.Degrees != 0 {
				tr += fmt.Sprintf(" rotate(%g)", sp.Degrees)
			}
			if sp.Mirror {
				tr += " scale(-1 1)"
			}
			tr += fmt.Sprintf(" translate(%g %g)", -w/2, -h/2)

			wf("  <g transform=\"%s\">\n", tr)
			wf("    %s\n", markup)
			wf("    <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n", w, h, oc, outline.Width)
			wf("  </g>\n")

			// Labels stay horizontal regardless of the element spin.
			if el.Label == "" {
				continue
			}
			pt := labelPt(el, opt.LabelFontPt)
			ll := layoutLabel(prov, el.Label, pt)
			lp := geom.PlaceLabelFor(el, geom.Size{W: ll.w, H: ll.h})
			y := lp.Top + ll.ascent
			for _, line := range ll.lines {
				wf("  <text x=\"%g\" y=\"%g\" font-family=\"%s, sans-serif\" font-size=\"%g\" paint-order=\"stroke\" stroke=\"%s\" stroke-width=\"%g\" stroke-linejoin=\"round\" fill=\"%s\">%s</text>\n",
					lp.Left, y, textlayout.DefaultFamily, pt, svgColor(fx.Halo.Color), fx.Halo.Width, svgColor(fx.Fill), escText(line))
				y += ll.advance
			}
		}

		wf("</svg>\n")

		if werr != nil {
			return fmt.Errorf("build svg: %w", werr)
		}

		name := filepath.Join(outDir, fmt.Sprintf("%s-page-%d.svg", planStem(pl.Name), pageNo))
		if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write svg: %w", err)
		}
	}
	return nil
}

// exportCatalog is the builtin symbol set with the project's own packs
// layered on top, matching what the editor scene resolves against.
func exportCatalog(ph *storage.ProjectHandle) (*symbol.Catalog, error) {
	cat, err := symbol.Builtin()
	if err != nil {
		return nil, err
	}
	if err := cat.LoadDir(filepath.Join(ph.Root, "symbols")); err != nil {
		return nil, fmt.Errorf("project symbols: %w", err)
	}
	return cat, nil
}

func svgColor(c domain.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '<':
			out = append(out, '&', 'l', 't', ';')
		case '>':
			out = append(out, '&', 'g', 't', ';')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
