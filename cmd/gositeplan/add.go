/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"gositeplan/internal/domain"
	"gositeplan/internal/export"
	"gositeplan/internal/geom"
	"gositeplan/internal/storage"
	"gositeplan/internal/symbol"
)

var (
	addPlan     string
	addSymbolID string
	addImage    string
	addLabel    string
	addAnchor   string
	addPage     int
	addX        float64
	addY        float64
	addScale    float64
	addRotation float64
	addSpins360 bool
)

var addCmd = &cobra.Command{
	Use:   "add [dir]",
	Short: "Add a symbol or image element to a plan page",
	Long: `Place a catalog symbol (--symbol) or an imported image (--image) on a
plan page. Without --x/--y the element is auto-placed on the first free
spot near the page center; images land at the page center.`,
	Args: cobra.ExactArgs(1),
	Run:  runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addPlan, "plan", "", "plan name (default: first plan)")
	addCmd.Flags().StringVar(&addSymbolID, "symbol", "", "catalog symbol id (see 'symbols list')")
	addCmd.Flags().StringVar(&addImage, "image", "", "path of an image file to import")
	addCmd.Flags().StringVar(&addLabel, "label", "", "address label text")
	addCmd.Flags().StringVar(&addAnchor, "anchor", "", "label anchor: center|left|right|above|below")
	addCmd.Flags().IntVar(&addPage, "page", 0, "1-based page (default: the plan's active page)")
	addCmd.Flags().Float64Var(&addX, "x", 0, "center X in canvas units")
	addCmd.Flags().Float64Var(&addY, "y", 0, "center Y in canvas units")
	addCmd.Flags().Float64Var(&addScale, "scale", 0, "uniform scale factor")
	addCmd.Flags().Float64Var(&addRotation, "rotation", 0, "rotation in degrees")
	addCmd.Flags().BoolVar(&addSpins360, "spins360", false, "let the image rotate the full circle, mirroring past 90°")
	addCmd.MarkFlagsMutuallyExclusive("symbol", "image")
	addCmd.MarkFlagsMutuallyExclusive("symbol", "spins360")
	addCmd.MarkFlagsRequiredTogether("x", "y")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	if addSymbolID == "" && addImage == "" {
		fail("one of --symbol or --image is required")
	}
	switch addAnchor {
	case "", "center", "left", "right", "above", "below":
	default:
		fail("invalid --anchor %q (want center|left|right|above|below)", addAnchor)
	}

	h, err := openHandle(args[0])
	if err != nil {
		fail("open project: %v", err)
	}
	pl := h.Project.FirstPlan()
	if addPlan != "" {
		pl = h.Project.PlanByName(addPlan)
	}
	if pl == nil {
		fail("plan %q not found", addPlan)
	}
	page := addPage
	if page == 0 {
		page = pl.ActivePage
	}
	if page < 1 || page > pl.NumPages {
		fail("page %d out of range 1..%d", page, pl.NumPages)
	}

	paper, ok := export.PaperByName(appCfg.Canvas.DefaultPaper)
	if !ok {
		paper, _ = export.PaperByName("A4")
	}
	explicit := cmd.Flags().Changed("x")

	var el *domain.Element
	switch {
	case addSymbolID != "":
		cat, cerr := symbol.Builtin()
		if cerr != nil {
			fail("load symbol catalog: %v", cerr)
		}
		if lerr := cat.LoadDir(filepath.Join(h.Root, "symbols")); lerr != nil {
			fail("load project symbols: %v", lerr)
		}
		def, found := cat.Get(addSymbolID)
		if !found {
			fail("unknown symbol %q (see 'gositeplan symbols list %s')", addSymbolID, args[0])
		}
		x, y := addX, addY
		if !explicit {
			pageRect := geom.R(0, 0, float32(paper.W), float32(paper.H))
			var obstacles []geom.Rect
			for _, other := range pl.ElementsOnPage(page) {
				obstacles = append(obstacles, geom.BoxBoundsOf(other))
			}
			box := geom.Size{
				W: float32(def.Width) + 2*geom.SelectionPad,
				H: float32(def.Height) + 2*geom.SelectionPad,
			}
			spot, _ := geom.SuggestPlacement(pageRect, box, obstacles, geom.PlaceOptions{})
			x = float64(spot.X + spot.W/2)
			y = float64(spot.Y + spot.H/2)
		}
		el = symbol.NewElement(def, x, y)
	default:
		rel, ierr := storage.ImportAsset(h, addImage)
		if ierr != nil {
			fail("import image: %v", ierr)
		}
		wpx, hpx, derr := probeImageSize(filepath.Join(h.Root, rel))
		if derr != nil {
			fail("read image size: %v", derr)
		}
		x, y := paper.W/2, paper.H/2
		if explicit {
			x, y = addX, addY
		}
		el = domain.NewImageElement(rel, wpx, hpx, x, y)
		el.Spins360 = addSpins360
	}

	el.Page = page
	el.Label = addLabel
	if addAnchor != "" {
		el.LabelAnchor = domain.LabelAnchor(addAnchor)
	}
	if addScale > 0 {
		el.Scale = addScale
	}
	if addRotation != 0 {
		el.Rotation = addRotation
	}

	added, err := storage.AddElement(h, pl.Name, el)
	if err != nil {
		fail("add element: %v", err)
	}
	if err := storage.Save(h); err != nil {
		fail("save: %v", err)
	}
	// Index synchronously so a follow-up search sees the new element.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := storage.UpdateIndex(ctx, h.Root, h.Project); err != nil {
		fail("update index: %v", err)
	}
	fmt.Printf("Added element %s to plan %q page %d at (%.1f, %.1f)\n",
		added.ID, pl.Name, added.Page, added.PosX, added.PosY)
}

func probeImageSize(path string) (w, h float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = f.Close() }()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}
