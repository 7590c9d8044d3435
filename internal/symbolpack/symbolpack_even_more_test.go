/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package symbolpack

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInstallPack_InstallsForeignLayoutAndDirectoryEntries(t *testing.T) {
	proj := t.TempDir()
	zpath := filepath.Join(proj, "pack2.zip")
	buildPackZip(t, zpath, []packEntry{
		{name: "symbols/subdir/", dir: true},
		{name: "pack/site.yaml", body: "symbols: []"},
	})

	installed, err := InstallPack(proj, zpath)
	if err != nil {
		t.Fatalf("install pack: %v", err)
	}
	if installed != 1 { // the directory entry is created but not counted
		t.Fatalf("expected installed=1, got %d", installed)
	}
	if _, err := os.Stat(filepath.Join(proj, "symbols", "pack", "site.yaml")); err != nil {
		t.Fatalf("expected installed file under symbols/pack: %v", err)
	}
	if _, err := os.Stat(filepath.Join(proj, "symbols", "subdir")); err != nil {
		t.Fatalf("expected directory entry created: %v", err)
	}
}

func TestInstallPack_SkipsPackManifest(t *testing.T) {
	proj := t.TempDir()
	zpath := filepath.Join(proj, "pack3.zip")
	buildPackZip(t, zpath, []packEntry{
		{name: ManifestName, body: "GoSitePlan Symbol Pack"},
		{name: "symbols/one.yaml", body: "symbols: []"},
	})

	installed, err := InstallPack(proj, zpath)
	if err != nil {
		t.Fatalf("install pack: %v", err)
	}
	if installed != 1 {
		t.Fatalf("expected installed=1, got %d", installed)
	}
	if _, err := os.Stat(filepath.Join(proj, "symbols", ManifestName)); err == nil {
		t.Fatalf("pack manifest must not be installed")
	}
}
