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
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gositeplan/internal/storage"
)

func TestExportPlanArchive(t *testing.T) {
	root := t.TempDir()
	ph, err := storage.InitProject(root, samplePlanProject())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	// No .zip suffix: the exporter appends it.
	out := filepath.Join(root, "exports", "erdgeschoss")
	if err := ExportPlanArchive(ph, "Erdgeschoss", out, ArchiveOptions{DPI: 72}); err != nil {
		t.Fatalf("export archive: %v", err)
	}
	out += ".zip"
	st, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Size() <= 0 {
		t.Fatalf("archive empty")
	}

	rd, err := zip.OpenReader(out)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer func() { _ = rd.Close() }()

	want := map[string]bool{
		"erdgeschoss-page-1.png": false,
		"erdgeschoss-page-2.png": false,
		"planinfo.json":          false,
	}
	for _, f := range rd.File {
		if _, ok := want[f.Name]; ok {
			want[f.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("entry %s not found in archive", name)
		}
	}

	for _, f := range rd.File {
		if f.Name != "planinfo.json" {
			continue
		}
		r, err := f.Open()
		if err != nil {
			t.Fatalf("open manifest: %v", err)
		}
		data, err := io.ReadAll(r)
		if err != nil {
			_ = r.Close()
			t.Fatalf("read manifest: %v", err)
		}
		if err := r.Close(); err != nil {
			t.Fatalf("close manifest: %v", err)
		}
		text := string(data)
		for _, frag := range []string{`"project": "Depot Nord"`, `"plan": "Erdgeschoss"`, `"pages": 2`, `"format": "png"`} {
			if !strings.Contains(text, frag) {
				t.Fatalf("manifest missing %s:\n%s", frag, text)
			}
		}
	}
}

func TestExportPlanArchiveSVGInside(t *testing.T) {
	root := t.TempDir()
	ph, err := storage.InitProject(root, samplePlanProject())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	out := filepath.Join(root, "exports", "eg-svg.zip")
	if err := ExportPlanArchive(ph, "Erdgeschoss", out, ArchiveOptions{Format: "svg", Pages: []int{1}}); err != nil {
		t.Fatalf("export archive: %v", err)
	}
	rd, err := zip.OpenReader(out)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer func() { _ = rd.Close() }()
	var foundSVG bool
	for _, f := range rd.File {
		if f.Name == "erdgeschoss-page-1.svg" {
			foundSVG = true
		}
		if strings.HasSuffix(f.Name, ".png") {
			t.Fatalf("png render in an svg archive: %s", f.Name)
		}
	}
	if !foundSVG {
		t.Fatalf("svg page not found in archive")
	}
}

func TestExportPlanArchiveRejectsUnknownFormat(t *testing.T) {
	root := t.TempDir()
	ph, err := storage.InitProject(root, samplePlanProject())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	err = ExportPlanArchive(ph, "Erdgeschoss", filepath.Join(root, "exports", "x.zip"), ArchiveOptions{Format: "bmp"})
	if err == nil {
		t.Fatalf("expected format error")
	}
}
