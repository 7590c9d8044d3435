/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"gositeplan/internal/domain"
)

func TestSaveAsAndAssetImport(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, domain.Project{Name: "Orig"})
	if err != nil {
		t.Fatalf("InitProject: %v", err)
	}

	// Change project and SaveAs to new root
	ph.Project.Name = "Renamed"
	newRoot := filepath.Join(root, "newproj")
	if err := SaveAs(ph, newRoot); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if ph.Root != newRoot || ph.ManifestPath != filepath.Join(newRoot, ManifestFileName) {
		t.Fatalf("ProjectHandle paths not updated: %+v", ph)
	}

	// Manifest at new location should reflect updated name
	b, err := os.ReadFile(ph.ManifestPath)
	if err != nil {
		t.Fatalf("read new manifest: %v", err)
	}
	var got domain.Project
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal new manifest: %v", err)
	}
	if got.Name != "Renamed" {
		t.Fatalf("unexpected project name in new manifest: %q", got.Name)
	}

	// Import an external image into assets/
	src := filepath.Join(root, "house.png")
	if err := os.WriteFile(src, []byte("not really a png"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	ref, err := ImportAsset(ph, src)
	if err != nil {
		t.Fatalf("ImportAsset: %v", err)
	}
	if ref != "assets/house.png" {
		t.Fatalf("unexpected ref: %q", ref)
	}
	if !AssetExists(ph, ref) {
		t.Fatalf("imported asset missing on disk")
	}
	if len(ph.Project.Assets) != 1 || ph.Project.Assets[0].Path != ref {
		t.Fatalf("asset not registered in manifest: %+v", ph.Project.Assets)
	}

	// Second import of the same name must not overwrite
	ref2, err := ImportAsset(ph, src)
	if err != nil {
		t.Fatalf("ImportAsset second: %v", err)
	}
	if ref2 == ref {
		t.Fatalf("expected suffixed name for collision, got %q twice", ref2)
	}
}
