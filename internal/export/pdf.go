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
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"gositeplan/internal/domain"
	"gositeplan/internal/geom"
	"gositeplan/internal/storage"
)

// PDFOptions controls PDF export behavior.
// Units are points (pt) throughout, so model coordinates map 1:1 onto the
// page. Vector text uses built-in Helvetica for portability; label placement
// is still measured with the shared export face so PDF pages line up with
// SVG and PNG output.
//
//nolint:revive // keep options grouped and explicit for clarity
type PDFOptions struct {
	IncludeGrid   bool
	GridStep      float64
	Paper         string
	Landscape     bool
	GridColor     domain.Color
	OutlineStroke domain.Stroke
	LabelFontPt   float64
	Pages         []int // if empty, export all pages
}

// ExportPlanPDFPages exports each page of a plan as a separate single-page
// PDF named <plan>-page-<n>.pdf under outDir or the project's exports
// folder. Spins map to a transform block around the content box; labels are
// drawn outside it so they stay horizontal.
func ExportPlanPDFPages(ph *storage.ProjectHandle, planName, outDir string, opt PDFOptions) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	pl, err := storage.FindPlan(ph, planName)
	if err != nil {
		return err
	}

	// Default styles
	gridCol := gridColorOrDefault(opt.GridColor)
	outline := outlineOrDefault(opt.OutlineStroke)
	step := opt.GridStep
	if step <= 0 {
		step = defaultGridStep
	}
	paper := paperOrDefault(opt.Paper, opt.Landscape)

	// Resolve output directory
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(ph.Root, "exports", outDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}

	prov := exportProvider()

	for _, pageNo := range pageNumbers(pl.NumPages, opt.Pages) {
		// Points for 1:1 mapping from model to PDF
		pdf := gofpdf.NewCustom(&gofpdf.InitType{
			UnitStr:        "pt",
			Size:           gofpdf.SizeType{Wd: paper.W, Ht: paper.H},
			OrientationStr: "",
		})
		pdf.SetTitle(fmt.Sprintf("%s / %s, page %d", ph.Project.Name, pl.Name, pageNo), false)
		pdf.SetAuthor("gositeplan", false)
		pdf.SetFont("Helvetica", "", 12)
		pdf.AddPage()

		if opt.IncludeGrid {
			setDrawColor(pdf, gridCol)
			pdf.SetLineWidth(0.25)
			for x := step; x < paper.W; x += step {
				pdf.Line(x, 0, x, paper.H)
			}
			for y := step; y < paper.H; y += step {
				pdf.Line(0, y, paper.W, y)
			}
			pdf.SetLineWidth(0.8)
			pdf.Rect(0, 0, paper.W, paper.H, "D")
		}

		setDrawColor(pdf, outline.Color)
		pdf.SetLineWidth(outline.Width)
		for _, el := range pl.ElementsOnPage(pageNo) {
			w := el.SizeX * el.Scale
			h := el.SizeY * el.Scale
			sp := geom.SpinOf(el)

			if sp.IsIdentity() {
				pdf.Rect(el.PosX-w/2, el.PosY-h/2, w, h, "D")
			} else {
				pdf.TransformBegin()
				if sp.Degrees != 0 {
					// gofpdf rotates counter-clockwise
					pdf.TransformRotate(-sp.Degrees, el.PosX, el.PosY)
				}
				if sp.Mirror {
					pdf.TransformMirrorHorizontal(el.PosX)
				}
				pdf.Rect(el.PosX-w/2, el.PosY-h/2, w, h, "D")
				pdf.TransformEnd()
			}

			if el.Label == "" {
				continue
			}
			pt := labelPt(el, opt.LabelFontPt)
			ll := layoutLabel(prov, el.Label, pt)
			lp := geom.PlaceLabelFor(el, geom.Size{W: ll.w, H: ll.h})
			pdf.SetFont("Helvetica", "", pt)
			y := float64(lp.Top + ll.ascent)
			for _, line := range ll.lines {
				pdf.Text(float64(lp.Left), y, line)
				y += float64(ll.advance)
			}
		}

		name := filepath.Join(outDir, fmt.Sprintf("%s-page-%d.pdf", planStem(pl.Name), pageNo))
		if err := pdf.OutputFileAndClose(name); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
	}
	return nil
}

func setDrawColor(pdf *gofpdf.Fpdf, c domain.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}
