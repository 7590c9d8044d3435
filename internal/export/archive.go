/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gositeplan/internal/domain"
	"gositeplan/internal/storage"
)

// ArchiveOptions controls archive export behavior. The archive is a zip of
// the plan's per-page renders plus a planinfo.json manifest, one archive per
// plan, handy for mailing a whole plan to a client in one file.
//
//nolint:revive // clarity
type ArchiveOptions struct {
	Format        string // page render format inside the zip: png (default) or svg
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

// ExportPlanArchive renders the selected plan pages and bundles them with a
// planinfo.json manifest into a single zip at outPath.
func ExportPlanArchive(ph *storage.ProjectHandle, planName, outPath string, opt ArchiveOptions) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	pl, err := storage.FindPlan(ph, planName)
	if err != nil {
		return err
	}

	format := strings.ToLower(strings.TrimSpace(opt.Format))
	if format == "" {
		format = "png"
	}

	// Ensure output path is under project exports folder if relative
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(ph.Root, "exports", outPath)
	}
	// Enforce .zip extension
	if !strings.HasSuffix(strings.ToLower(outPath), ".zip") {
		outPath = outPath + ".zip"
	}

	// Render the pages into a scratch dir, then bundle.
	tmp, err := os.MkdirTemp("", "gsp-archive-*")
	if err != nil {
		return fmt.Errorf("scratch dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	switch format {
	case "png":
		po := PNGOptions{
			IncludeGrid:   opt.IncludeGrid,
			GridStep:      opt.GridStep,
			DPI:           opt.DPI,
			Paper:         opt.Paper,
			Landscape:     opt.Landscape,
			GridColor:     opt.GridColor,
			OutlineStroke: opt.OutlineStroke,
			LabelFontPt:   opt.LabelFontPt,
			Pages:         opt.Pages,
		}
		if err := ExportPlanPNGPages(ph, planName, tmp, po); err != nil {
			return err
		}
	case "svg":
		so := SVGOptions{
			IncludeGrid:   opt.IncludeGrid,
			GridStep:      opt.GridStep,
			DPI:           opt.DPI,
			Paper:         opt.Paper,
			Landscape:     opt.Landscape,
			GridColor:     opt.GridColor,
			OutlineStroke: opt.OutlineStroke,
			LabelFontPt:   opt.LabelFontPt,
			Pages:         opt.Pages,
		}
		if err := ExportPlanSVGPages(ph, planName, tmp, so); err != nil {
			return err
		}
	default:
		return fmt.Errorf("archive page format %q (want png or svg)", opt.Format)
	}

	zw, f, err := createZip(outPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	entries, err := os.ReadDir(tmp)
	if err != nil {
		return fmt.Errorf("list renders: %w", err)
	}
	pages := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, rerr := os.ReadFile(filepath.Join(tmp, e.Name()))
		if rerr != nil {
			return fmt.Errorf("read render: %w", rerr)
		}
		if err := addZipFile(zw, e.Name(), data); err != nil {
			return fmt.Errorf("zip add render: %w", err)
		}
		pages++
	}

	info, err := buildPlanInfo(ph, pl, pages, format)
	if err != nil {
		return fmt.Errorf("build manifest: %w", err)
	}
	if err := addZipFile(zw, "planinfo.json", info); err != nil {
		return fmt.Errorf("zip add manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}

func createZip(outPath string) (*zip.Writer, *os.File, error) {
	// Ensure directory exists
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, fmt.Errorf("create archive: %w", err)
	}
	return zip.NewWriter(f), f, nil
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// buildPlanInfo describes the bundle for whoever receives it: project and
// plan names, page count, render format. No timestamp so archives of an
// unchanged plan stay byte-identical.
func buildPlanInfo(ph *storage.ProjectHandle, pl *domain.Plan, pages int, format string) ([]byte, error) {
	info := struct {
		Project string `json:"project"`
		Site    string `json:"site,omitempty"`
		Client  string `json:"client,omitempty"`
		Author  string `json:"author,omitempty"`
		Plan    string `json:"plan"`
		Pages   int    `json:"pages"`
		Format  string `json:"format"`
	}{
		Project: ph.Project.Name,
		Site:    ph.Project.Metadata.Site,
		Client:  ph.Project.Metadata.Client,
		Author:  ph.Project.Metadata.Author,
		Plan:    pl.Name,
		Pages:   pages,
		Format:  format,
	}
	return json.MarshalIndent(info, "", "  ")
}
