/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"gositeplan/internal/storage"
)

// Paper is a page size in points (1pt = 1/72 inch), portrait orientation.
// config stores the preset name; exporters resolve it here.
type Paper struct {
	Name string
	W, H float64
}

var papers = []Paper{
	{"A4", 595.28, 841.89},
	{"A3", 841.89, 1190.55},
	{"A2", 1190.55, 1683.78},
	{"Letter", 612, 792},
	{"Legal", 612, 1008},
}

// PaperByName resolves a paper preset case-insensitively.
func PaperByName(name string) (Paper, bool) {
	for _, p := range papers {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Paper{}, false
}

// Landscape returns the paper with the long edge horizontal.
func (p Paper) Landscape() Paper {
	if p.W < p.H {
		p.W, p.H = p.H, p.W
	}
	return p
}

// PaperNames lists the known paper presets in table order.
func PaperNames() []string {
	out := make([]string, len(papers))
	for i, p := range papers {
		out[i] = p.Name
	}
	return out
}

func paperOrDefault(name string, landscape bool) Paper {
	p, ok := PaperByName(name)
	if !ok {
		p = papers[0] // A4
	}
	if landscape {
		p = p.Landscape()
	}
	return p
}

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// BatchOptions controls batch export across multiple formats/plans/pages.
//
// Path semantics:
//   - If OutDir is empty or relative, it is created under <project>/exports/<preset>/.
//   - Per-page outputs land in format subfolders png/, svg/ and pdf/ inside OutDir.
//   - Archive outputs are single files named <plan>.zip in the archive/ subfolder.
//
//nolint:revive // keep fields explicit for clarity
type BatchOptions struct {
	Preset      PresetName
	Formats     []string // allowed: pdf, png, svg, archive; empty means preset defaults
	Plans       []string // plan names; empty means all plans
	Pages       []int    // 1-based page numbers; empty means all pages
	Paper       string   // paper preset name; empty means A4
	Landscape   bool
	DPIOverride int   // when > 0 overrides the preset DPI for raster output
	IncludeGrid *bool // when set, overrides the preset's default for the grid
	OutDir      string
}

// Batch runs exports according to the given preset.
func Batch(ph *storage.ProjectHandle, opt BatchOptions) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	if len(ph.Project.Plans) == 0 {
		return fmt.Errorf("project has no plans")
	}

	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	// normalize format strings
	for i := range formats {
		formats[i] = strings.ToLower(strings.TrimSpace(formats[i]))
	}

	// Resolve output base directory
	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = string(opt.Preset)
	}
	if !filepath.IsAbs(baseOut) {
		baseOut = filepath.Join(ph.Root, "exports", baseOut)
	}

	// Resolve plan list
	plans := opt.Plans
	if len(plans) == 0 {
		plans = make([]string, 0, len(ph.Project.Plans))
		for i := range ph.Project.Plans {
			plans = append(plans, ph.Project.Plans[i].Name)
		}
	}

	grid := presetIncludeGrid(opt.Preset)
	if opt.IncludeGrid != nil {
		grid = *opt.IncludeGrid
	}
	dpi := opt.DPIOverride
	if dpi <= 0 {
		dpi = presetDPI(opt.Preset)
	}

	for _, name := range plans {
		for _, f := range formats {
			switch f {
			case "pdf":
				outDir := filepath.Join(baseOut, "pdf")
				po := PDFOptions{IncludeGrid: grid, Paper: opt.Paper, Landscape: opt.Landscape, Pages: opt.Pages}
				if err := ExportPlanPDFPages(ph, name, outDir, po); err != nil {
					return fmt.Errorf("pdf plan %q: %w", name, err)
				}
			case "png":
				outDir := filepath.Join(baseOut, "png")
				po := PNGOptions{IncludeGrid: grid, DPI: dpi, Paper: opt.Paper, Landscape: opt.Landscape, Pages: opt.Pages}
				if err := ExportPlanPNGPages(ph, name, outDir, po); err != nil {
					return fmt.Errorf("png plan %q: %w", name, err)
				}
			case "svg":
				outDir := filepath.Join(baseOut, "svg")
				so := SVGOptions{IncludeGrid: grid, DPI: dpi, Paper: opt.Paper, Landscape: opt.Landscape, Pages: opt.Pages}
				if err := ExportPlanSVGPages(ph, name, outDir, so); err != nil {
					return fmt.Errorf("svg plan %q: %w", name, err)
				}
			case "archive":
				out := filepath.Join(baseOut, "archive", planStem(name)+".zip")
				ao := ArchiveOptions{IncludeGrid: grid, DPI: dpi, Paper: opt.Paper, Landscape: opt.Landscape, Pages: opt.Pages}
				if err := ExportPlanArchive(ph, name, out, ao); err != nil {
					return fmt.Errorf("archive plan %q: %w", name, err)
				}
			default:
				return fmt.Errorf("unknown format: %s", f)
			}
		}
	}
	return nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"png", "svg", "archive"}
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"pdf"}
	}
}

func presetIncludeGrid(p PresetName) bool {
	switch p {
	case PresetWeb:
		return false
	case PresetPrint:
		return true
	default:
		return true
	}
}

func presetDPI(p PresetName) int {
	switch p {
	case PresetWeb:
		return 96
	case PresetPrint:
		return 300
	default:
		return 0 // exporter default
	}
}
