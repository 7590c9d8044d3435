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
	"strings"
	"testing"

	"gositeplan/internal/domain"
	"gositeplan/internal/storage"
)

func samplePlanProject() domain.Project {
	return domain.Project{
		Name:     "Depot Nord",
		Metadata: domain.Metadata{Site: "Betriebshof Nord", Client: "Stadtwerke", Author: "A. Planner"},
		Plans: []domain.Plan{{
			Name:       "Erdgeschoss",
			NumPages:   2,
			ActivePage: 1,
			Elements: []*domain.Element{
				{ID: "e1", Kind: domain.KindSymbol, SymbolID: "outlet", PosX: 120, PosY: 140, SizeX: 24, SizeY: 24, Scale: 1, Rotation: 135, Spins360: true, Page: 1, Label: "Haus 3\nKeller", LabelAnchor: domain.AnchorRight},
				{ID: "e2", Kind: domain.KindSymbol, SymbolID: "junction", PosX: 300, PosY: 220, SizeX: 16, SizeY: 16, Scale: 2, Page: 1},
				{ID: "e3", Kind: domain.KindSymbol, SymbolID: "light", PosX: 180, PosY: 96, SizeX: 24, SizeY: 24, Scale: 1, Page: 2, Label: "Hof", LabelAnchor: domain.AnchorBelow},
			},
		}},
	}
}

func TestExportPlanPNGPages(t *testing.T) {
	root := t.TempDir()
	ph, err := storage.InitProject(root, samplePlanProject())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	outDir := filepath.Join(root, "exports", "pngtest")
	if err := ExportPlanPNGPages(ph, "Erdgeschoss", outDir, PNGOptions{IncludeGrid: true, DPI: 72}); err != nil {
		t.Fatalf("export png: %v", err)
	}
	for _, n := range []int{1, 2} {
		path := filepath.Join(outDir, fmt.Sprintf("erdgeschoss-page-%d.png", n))
		st, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat page %d: %v", n, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("png page %d empty", n)
		}
	}
}

func TestExportPlanSVGPages(t *testing.T) {
	root := t.TempDir()
	ph, err := storage.InitProject(root, samplePlanProject())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	outDir := filepath.Join(root, "exports", "svgtest")
	// Single-plan projects resolve by the empty name.
	if err := ExportPlanSVGPages(ph, "", outDir, SVGOptions{IncludeGrid: true}); err != nil {
		t.Fatalf("export svg: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "erdgeschoss-page-1.svg"))
	if err != nil {
		t.Fatalf("read page 1: %v", err)
	}
	doc := string(data)
	// 135 degrees with spins360 renders the back half mirrored: the catalog
	// symbol takes 180 off the angle and flips.
	if !strings.Contains(doc, "rotate(-45)") {
		t.Fatalf("page 1 missing spin rotation:\n%s", doc)
	}
	if !strings.Contains(doc, "scale(-1 1)") {
		t.Fatalf("page 1 missing mirror transform:\n%s", doc)
	}
	if !strings.Contains(doc, "Haus 3") || !strings.Contains(doc, "Keller") {
		t.Fatalf("page 1 missing label lines:\n%s", doc)
	}
	if !strings.Contains(doc, "paint-order=\"stroke\"") {
		t.Fatalf("page 1 label has no halo stroke:\n%s", doc)
	}
	// Embedded catalog markup arrives as a nested svg document.
	if strings.Count(doc, "<svg") < 2 {
		t.Fatalf("page 1 missing embedded symbol markup:\n%s", doc)
	}

	data, err = os.ReadFile(filepath.Join(outDir, "erdgeschoss-page-2.svg"))
	if err != nil {
		t.Fatalf("read page 2: %v", err)
	}
	if !strings.Contains(string(data), "Hof") {
		t.Fatalf("page 2 missing its element label:\n%s", data)
	}
	if strings.Contains(string(data), "Haus 3") {
		t.Fatalf("page 2 leaked a page 1 label:\n%s", data)
	}
}

func TestExportPlanSVGUnknownPlanFails(t *testing.T) {
	root := t.TempDir()
	ph, err := storage.InitProject(root, samplePlanProject())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	if err := ExportPlanSVGPages(ph, "kellergeschoss", filepath.Join(root, "exports", "x"), SVGOptions{}); err == nil {
		t.Fatalf("expected unknown plan error")
	}
}
