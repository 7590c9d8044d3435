/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"gositeplan/internal/export"
	"gositeplan/internal/storage"
	"gositeplan/internal/telemetry"
)

var (
	expPlan      string
	expOut       string
	expPaper     string
	expLandscape bool
	expGrid      bool
	expDPI       int
	expPages     []int
	expArchFmt   string
	expPreset    string
	expPlans     []string
	expFormats   []string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export plan pages as SVG, PNG, PDF or a zip archive",
}

var exportSVGCmd = &cobra.Command{
	Use:   "svg [dir]",
	Short: "Export pages of one plan as SVG files",
	Args:  cobra.ExactArgs(1),
	Run:   func(cmd *cobra.Command, args []string) { runExportPages(args[0], "svg") },
}

var exportPNGCmd = &cobra.Command{
	Use:   "png [dir]",
	Short: "Export pages of one plan as PNG files",
	Args:  cobra.ExactArgs(1),
	Run:   func(cmd *cobra.Command, args []string) { runExportPages(args[0], "png") },
}

var exportPDFCmd = &cobra.Command{
	Use:   "pdf [dir]",
	Short: "Export pages of one plan as single-page PDF files",
	Args:  cobra.ExactArgs(1),
	Run:   func(cmd *cobra.Command, args []string) { runExportPages(args[0], "pdf") },
}

var exportArchiveCmd = &cobra.Command{
	Use:   "archive [dir]",
	Short: "Export one plan as a zip of rendered pages",
	Args:  cobra.ExactArgs(1),
	Run:   runExportArchive,
}

var exportBatchCmd = &cobra.Command{
	Use:   "batch [dir]",
	Short: "Export plans with a preset (web or print)",
	Long:  "Run a preset export over the project. Output lands under exports/<preset>/<format>/ in the project directory unless --out overrides it.",
	Args:  cobra.ExactArgs(1),
	Run:   runExportBatch,
}

func addPageExportFlags(c *cobra.Command, withDPI bool) {
	c.Flags().StringVar(&expPlan, "plan", "", "plan name (default: first plan)")
	c.Flags().StringVar(&expOut, "out", "", "output directory (default: <dir>/exports)")
	c.Flags().StringVar(&expPaper, "paper", "", "paper preset ("+strings.Join(export.PaperNames(), ", ")+")")
	c.Flags().BoolVar(&expLandscape, "landscape", false, "landscape orientation")
	c.Flags().BoolVar(&expGrid, "grid", false, "draw the page grid")
	c.Flags().IntSliceVar(&expPages, "pages", nil, "1-based pages to export (default: all)")
	if withDPI {
		c.Flags().IntVar(&expDPI, "dpi", 0, "raster resolution (default: 144)")
	}
}

func init() {
	addPageExportFlags(exportSVGCmd, true)
	addPageExportFlags(exportPNGCmd, true)
	addPageExportFlags(exportPDFCmd, false)
	addPageExportFlags(exportArchiveCmd, true)
	exportArchiveCmd.Flags().StringVar(&expArchFmt, "format", "png", "page format inside the archive: png or svg")

	exportBatchCmd.Flags().StringVar(&expPreset, "preset", "web", "export preset: web or print")
	exportBatchCmd.Flags().StringSliceVar(&expPlans, "plans", nil, "plan names (default: all plans)")
	exportBatchCmd.Flags().StringSliceVar(&expFormats, "formats", nil, "formats to produce (default: preset's formats)")
	exportBatchCmd.Flags().IntSliceVar(&expPages, "pages", nil, "1-based pages to export (default: all)")
	exportBatchCmd.Flags().StringVar(&expPaper, "paper", "", "paper preset override")
	exportBatchCmd.Flags().BoolVar(&expLandscape, "landscape", false, "landscape orientation")
	exportBatchCmd.Flags().BoolVar(&expGrid, "grid", false, "draw the page grid")
	exportBatchCmd.Flags().IntVar(&expDPI, "dpi", 0, "raster resolution override")
	exportBatchCmd.Flags().StringVar(&expOut, "out", "", "output directory (default: <dir>/exports)")

	exportCmd.AddCommand(exportSVGCmd, exportPNGCmd, exportPDFCmd, exportArchiveCmd, exportBatchCmd)
	rootCmd.AddCommand(exportCmd)
}

func resolveExportTarget(dir string) (*storage.ProjectHandle, string, string) {
	h, err := openHandle(dir)
	if err != nil {
		fail("open project: %v", err)
	}
	planName := expPlan
	if planName == "" {
		pl := h.Project.FirstPlan()
		if pl == nil {
			fail("project has no plans")
		}
		planName = pl.Name
	}
	out := expOut
	if out == "" {
		out = filepath.Join(h.Root, "exports")
	}
	return h, planName, out
}

func exportPaper() string {
	if expPaper != "" {
		return expPaper
	}
	return appCfg.Canvas.DefaultPaper
}

func runExportPages(dir, format string) {
	h, planName, out := resolveExportTarget(dir)
	var err error
	switch format {
	case "svg":
		err = export.ExportPlanSVGPages(h, planName, out, export.SVGOptions{
			IncludeGrid: expGrid, Paper: exportPaper(), Landscape: expLandscape,
			LabelFontPt: appCfg.Canvas.LabelFontPt, Pages: expPages, DPI: expDPI,
		})
	case "png":
		err = export.ExportPlanPNGPages(h, planName, out, export.PNGOptions{
			IncludeGrid: expGrid, Paper: exportPaper(), Landscape: expLandscape,
			LabelFontPt: appCfg.Canvas.LabelFontPt, Pages: expPages, DPI: expDPI,
		})
	case "pdf":
		err = export.ExportPlanPDFPages(h, planName, out, export.PDFOptions{
			IncludeGrid: expGrid, Paper: exportPaper(), Landscape: expLandscape,
			LabelFontPt: appCfg.Canvas.LabelFontPt, Pages: expPages,
		})
	}
	if err != nil {
		fail("export %s: %v", format, err)
	}
	telemetry.Event("cli.export", map[string]any{"format": format})
	fmt.Printf("Exported plan %q pages as %s to %s\n", planName, strings.ToUpper(format), out)
}

func runExportArchive(cmd *cobra.Command, args []string) {
	if expArchFmt != "png" && expArchFmt != "svg" {
		fail("invalid --format %q (want png or svg)", expArchFmt)
	}
	h, planName, out := resolveExportTarget(args[0])
	outPath := out
	if filepath.Ext(outPath) != ".zip" {
		slug := strings.ToLower(strings.ReplaceAll(planName, " ", "-"))
		outPath = filepath.Join(out, slug+".zip")
	}
	err := export.ExportPlanArchive(h, planName, outPath, export.ArchiveOptions{
		IncludeGrid: expGrid, Paper: exportPaper(), Landscape: expLandscape,
		LabelFontPt: appCfg.Canvas.LabelFontPt, Pages: expPages, DPI: expDPI,
		Format: expArchFmt,
	})
	if err != nil {
		fail("export archive: %v", err)
	}
	telemetry.Event("cli.export", map[string]any{"format": "archive"})
	fmt.Printf("Exported plan %q as archive %s\n", planName, outPath)
}

func runExportBatch(cmd *cobra.Command, args []string) {
	preset := export.PresetName(expPreset)
	if preset != export.PresetWeb && preset != export.PresetPrint {
		fail("invalid --preset %q (want web or print)", expPreset)
	}
	h, err := openHandle(args[0])
	if err != nil {
		fail("open project: %v", err)
	}
	opt := export.BatchOptions{
		Preset:      preset,
		Formats:     expFormats,
		Plans:       expPlans,
		Pages:       expPages,
		Paper:       exportPaper(),
		Landscape:   expLandscape,
		DPIOverride: expDPI,
		OutDir:      expOut,
	}
	if cmd.Flags().Changed("grid") {
		opt.IncludeGrid = &expGrid
	}
	if err := export.Batch(h, opt); err != nil {
		fail("batch export: %v", err)
	}
	telemetry.Event("cli.export", map[string]any{"format": "batch", "preset": expPreset})
	out := expOut
	if out == "" {
		out = filepath.Join(h.Root, "exports", expPreset)
	}
	fmt.Printf("Batch export (%s) finished under %s\n", expPreset, out)
}
