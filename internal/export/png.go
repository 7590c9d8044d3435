/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"gositeplan/internal/domain"
	"gositeplan/internal/geom"
	"gositeplan/internal/storage"
	"gositeplan/internal/textlayout"
)

// PNGOptions controls PNG export behavior.
// - DPI: output pixel density; model points scale by DPI/72
// - IncludeGrid: draw the page frame and a light reference grid
// - Pages: if empty, export all
// - Styles control colors and stroke widths; reasonable defaults are applied if zero values.
//
//nolint:revive // clarity is preferred
type PNGOptions struct {
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

// ExportPlanPNGPages exports each page of a plan as a separate PNG file,
// named <plan>-page-<n>.png under outDir or the project's exports folder.
// The raster pass draws content boxes and labels only; symbol artwork stays
// an SVG concern.
func ExportPlanPNGPages(ph *storage.ProjectHandle, planName, outDir string, opt PNGOptions) error {
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
		dpi = 300
	}
	step := opt.GridStep
	if step <= 0 {
		step = defaultGridStep
	}
	paper := paperOrDefault(opt.Paper, opt.Landscape)

	// Pixel dimensions from points (1pt = 1/72")
	scale := float64(dpi) / 72.0
	pixW := int(math.Round(paper.W * scale))
	pixH := int(math.Round(paper.H * scale))

	// Resolve output directory
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(ph.Root, "exports", outDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}

	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return fmt.Errorf("parse label font: %w", err)
	}
	faces := map[float64]font.Face{}
	faceFor := func(pt float64) font.Face {
		if f, ok := faces[pt]; ok {
			return f
		}
		f := truetype.NewFace(ttf, &truetype.Options{Size: pt * scale, DPI: 72, Hinting: font.HintingFull})
		faces[pt] = f
		return f
	}

	prov := exportProvider()
	fx := textlayout.DefaultLabelEffect()

	for _, pageNo := range pageNumbers(pl.NumPages, opt.Pages) {
		dc := gg.NewContext(pixW, pixH)
		dc.SetColor(color.White)
		dc.Clear()

		if opt.IncludeGrid {
			dc.SetColor(toRGBA(gridCol))
			dc.SetLineWidth(1)
			for x := step; x < paper.W; x += step {
				dc.DrawLine(x*scale, 0, x*scale, float64(pixH))
			}
			for y := step; y < paper.H; y += step {
				dc.DrawLine(0, y*scale, float64(pixW), y*scale)
			}
			dc.Stroke()
			dc.SetLineWidth(2)
			dc.DrawRectangle(0, 0, float64(pixW), float64(pixH))
			dc.Stroke()
		}

		for _, el := range pl.ElementsOnPage(pageNo) {
			w := el.SizeX * el.Scale * scale
			h := el.SizeY * el.Scale * scale
			cx := el.PosX * scale
			cy := el.PosY * scale
			sp := geom.SpinOf(el)

			dc.Push()
			if sp.Degrees != 0 {
				dc.RotateAbout(gg.Radians(sp.Degrees), cx, cy)
			}
			if sp.Mirror {
				dc.ScaleAbout(-1, 1, cx, cy)
			}
			dc.SetColor(toRGBA(outline.Color))
			dc.SetLineWidth(outline.Width * scale)
			dc.DrawRectangle(cx-w/2, cy-h/2, w, h)
			dc.Stroke()
			dc.Pop()

			// Labels stay horizontal; placement is computed in model units
			// and scaled, so it matches the vector exporters.
			if el.Label == "" {
				continue
			}
			pt := labelPt(el, opt.LabelFontPt)
			ll := layoutLabel(prov, el.Label, pt)
			lp := geom.PlaceLabelFor(el, geom.Size{W: ll.w, H: ll.h})

			dc.SetFontFace(faceFor(pt))
			left := float64(lp.Left) * scale
			base := (float64(lp.Top) + float64(ll.ascent)) * scale
			adv := float64(ll.advance) * scale

			dc.SetColor(toRGBA(fx.Halo.Color))
			for _, off := range textlayout.HaloOffsets(fx.Halo.Width * scale) {
				y := base
				for _, line := range ll.lines {
					dc.DrawString(line, left+off[0], y+off[1])
					y += adv
				}
			}
			dc.SetColor(toRGBA(fx.Fill))
			y := base
			for _, line := range ll.lines {
				dc.DrawString(line, left, y)
				y += adv
			}
		}

		name := filepath.Join(outDir, fmt.Sprintf("%s-page-%d.png", planStem(pl.Name), pageNo))
		if err := dc.SavePNG(name); err != nil {
			return fmt.Errorf("save png: %w", err)
		}
	}
	return nil
}

func toRGBA(c domain.Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}
